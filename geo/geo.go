// Package geo annotates decoded coordinates with a sanity check, without
// ever rejecting a record on its account — the AVL frame is already
// accepted and ACKed by the time a record reaches here.
package geo

import "github.com/golang/geo/s2"

// Annotate reports whether (lat, lon), in degrees as carried on the wire,
// fall within valid range. A GPS element with no fix reports all-zero
// coordinates, which is valid range but not a meaningful location; the
// caller decides what to do with that distinction.
func Annotate(latDeg, lonDeg float64) (valid bool, point s2.LatLng) {
	point = s2.LatLngFromDegrees(latDeg, lonDeg)
	return point.IsValid(), point
}

// HasFix reports whether a coordinate pair looks like an actual GPS fix
// rather than the zero value devices report before acquiring satellites.
func HasFix(latDeg, lonDeg float64) bool {
	return latDeg != 0 || lonDeg != 0
}
