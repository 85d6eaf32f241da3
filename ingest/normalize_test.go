package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avlgateway/codec"
)

func TestNormalize_ProjectsCoordinatesAndIO(t *testing.T) {
	rec := codec.AVLRecord{
		TimestampMS: 1609459200000,
		GPS: codec.GPSElement{
			Longitude: 252_345_678,
			Latitude:  54_987_654,
		},
		IOElements: []codec.IOElement{
			{ID: codec.IOOdometer, Width: 4, Value: 123456},
			{ID: codec.IOIgnition, Width: 1, Value: 1},
		},
	}

	p := Normalize(rec)
	assert.Equal(t, uint64(1609459200000), p.TimestampMS)
	assert.InDelta(t, 25.2345678, p.Longitude, 1e-9)
	assert.InDelta(t, 5.4987654, p.Latitude, 1e-9)
	require.NotNil(t, p.Odometer)
	assert.Equal(t, uint32(123456), *p.Odometer)
	require.NotNil(t, p.Ignition)
	assert.True(t, *p.Ignition)
	assert.True(t, p.HasFix)
}

func TestNormalize_IgnitionOtherValueIsNull(t *testing.T) {
	rec := codec.AVLRecord{
		IOElements: []codec.IOElement{{ID: codec.IOIgnition, Width: 1, Value: 2}},
	}
	p := Normalize(rec)
	assert.Nil(t, p.Ignition)
}

func TestNormalize_NoFixWhenZeroCoordinates(t *testing.T) {
	p := Normalize(codec.AVLRecord{})
	assert.False(t, p.HasFix)
}
