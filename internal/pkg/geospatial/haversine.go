// Package geospatial holds the pure geometry used by the map: great-circle
// distance, query boxes around a point, and proximity grouping of markers.
// Nothing here performs I/O or validates coordinates.
package geospatial

import (
	"math"

	"github.com/dishdash/dishdash/internal/core/domain"
)

const (
	// earthRadiusMeters is the mean radius used for distances.
	earthRadiusMeters = 6371000.0

	// equatorialRadiusMeters is the WGS84 semi-major axis used for box offsets.
	// It differs from earthRadiusMeters on purpose; existing box sizes depend on it.
	equatorialRadiusMeters = 6378137.0
)

// Distance returns the haversine great-circle distance in meters between a and b.
func Distance(a, b domain.GeoPoint) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// NewBoundingBox returns a box sizeInMeters across, centered on center.
//
// The longitude offset is divided by cos(lat), so it grows without bound as the
// center approaches a pole. Non-positive sizes give a degenerate or inverted box.
func NewBoundingBox(center domain.GeoPoint, sizeInMeters float64) domain.BoundingBox {
	radius := sizeInMeters / 2

	latOffset := radius / equatorialRadiusMeters * (180 / math.Pi)
	lonOffset := latOffset / math.Cos(toRad(center.Lat))

	return domain.BoundingBox{
		SouthWest: domain.GeoPoint{Lat: center.Lat - latOffset, Lon: center.Lon - lonOffset},
		NorthEast: domain.GeoPoint{Lat: center.Lat + latOffset, Lon: center.Lon + lonOffset},
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
