package ingest

import (
	"avlgateway/codec"
	"avlgateway/geo"
)

// Point is the outbound projection of one AVL record: wire fixed-point
// coordinates (1e7 scale) converted to degrees, the wire timestamp as a
// millisecond epoch number, and the two I/O elements this gateway
// surfaces by name. IMEI lives on the enclosing batch, not per record.
type Point struct {
	TimestampMS uint64  `json:"timestamp"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Altitude    *int16  `json:"altitude"`
	Angle       *uint16 `json:"angle"`
	Speed       uint16  `json:"speed"`
	Satellites  *uint8  `json:"satellites"`
	HasFix      bool    `json:"-"`
	GeoValid    bool    `json:"-"`

	Odometer *uint32 `json:"odometer"`
	Ignition *bool   `json:"ignition"`
}

// Normalize projects a decoded AVL record into the outbound schema.
func Normalize(rec codec.AVLRecord) Point {
	lat := float64(rec.GPS.Latitude) / 1e7
	lon := float64(rec.GPS.Longitude) / 1e7
	valid, _ := geo.Annotate(lat, lon)

	altitude := rec.GPS.Altitude
	angle := rec.GPS.Angle
	satellites := rec.GPS.Satellites

	p := Point{
		TimestampMS: rec.TimestampMS,
		Latitude:    lat,
		Longitude:   lon,
		Altitude:    &altitude,
		Angle:       &angle,
		Speed:       rec.GPS.Speed,
		Satellites:  &satellites,
		HasFix:      geo.HasFix(lat, lon),
		GeoValid:    valid,
	}

	if v, ok := rec.Lookup(codec.IOOdometer); ok {
		m := uint32(v)
		p.Odometer = &m
	}

	if v, ok := rec.Lookup(codec.IOIgnition); ok {
		switch v {
		case 0:
			off := false
			p.Ignition = &off
		case 1:
			on := true
			p.Ignition = &on
		}
	}

	return p
}
