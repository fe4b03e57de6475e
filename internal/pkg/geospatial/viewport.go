package geospatial

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"

	"github.com/dishdash/dishdash/internal/core/domain"
)

const (
	// metersPerPixelZoom0 is the web-mercator ground resolution at zoom 0 on the equator.
	metersPerPixelZoom0 = 156543.03392

	// MaxMercatorLat is the latitude where web-mercator tiles end.
	MaxMercatorLat = 85.05112878

	MinZoom = 0
	MaxZoom = 22
)

// ViewportSpan returns the ground distance in meters covered by widthPx pixels
// of a web-mercator map at the given zoom and latitude.
func ViewportSpan(zoom int, lat float64, widthPx int) float64 {
	return metersPerPixelZoom0 * math.Cos(toRad(lat)) / math.Exp2(float64(zoom)) * float64(widthPx)
}

// ViewportBox converts a client viewport into the query rectangle for it.
func ViewportBox(vp domain.Viewport, widthPx int) domain.BoundingBox {
	return NewBoundingBox(vp.Center, ViewportSpan(vp.Zoom, vp.Center.Lat, widthPx))
}

// ValidateViewport rejects viewports the box builder cannot handle.
func ValidateViewport(vp domain.Viewport) error {
	if vp.Center.Lat < -MaxMercatorLat || vp.Center.Lat > MaxMercatorLat {
		return fmt.Errorf("latitude %.6f outside ±%.2f", vp.Center.Lat, MaxMercatorLat)
	}
	if vp.Center.Lon < -180 || vp.Center.Lon > 180 {
		return fmt.Errorf("longitude %.6f outside ±180", vp.Center.Lon)
	}
	if vp.Zoom < MinZoom || vp.Zoom > MaxZoom {
		return fmt.Errorf("zoom %d outside %d..%d", vp.Zoom, MinZoom, MaxZoom)
	}
	return nil
}

// CellToken returns the S2 cell token containing p at the given level.
func CellToken(p domain.GeoPoint, level int) string {
	return cellID(p, level).ToToken()
}

// NeighborTokens returns the tokens of the cell containing p and of all cells
// touching it at the same level.
func NeighborTokens(p domain.GeoPoint, level int) []string {
	id := cellID(p, level)
	tokens := []string{id.ToToken()}
	for _, n := range id.AllNeighbors(level) {
		tokens = append(tokens, n.ToToken())
	}
	return tokens
}

func cellID(p domain.GeoPoint, level int) s2.CellID {
	return s2.CellIDFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon)).Parent(level)
}
