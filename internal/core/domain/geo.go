package domain

// GeoPoint represents a geographic coordinate (WGS 84).
// Latitude must be in [-90, 90] and longitude in [-180, 180]; callers validate.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BoundingBox is a lat/lon rectangle. Boxes crossing the antimeridian are not supported.
type BoundingBox struct {
	SouthWest GeoPoint `json:"south_west"`
	NorthEast GeoPoint `json:"north_east"`
}

// Contains reports whether p lies inside the box, edges included.
func (b BoundingBox) Contains(p GeoPoint) bool {
	return p.Lat >= b.SouthWest.Lat && p.Lat <= b.NorthEast.Lat &&
		p.Lon >= b.SouthWest.Lon && p.Lon <= b.NorthEast.Lon
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() GeoPoint {
	return GeoPoint{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lon: (b.SouthWest.Lon + b.NorthEast.Lon) / 2,
	}
}

// Viewport is the visible map area reported by the client after a pan or zoom settles.
type Viewport struct {
	Center GeoPoint `json:"center"`
	Zoom   int      `json:"zoom"`
}
