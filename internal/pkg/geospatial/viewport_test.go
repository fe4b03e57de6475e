package geospatial

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dishdash/dishdash/internal/core/domain"
)

func TestViewportSpan(t *testing.T) {
	// One 256 px tile at zoom 0 covers the equator.
	assert.InDelta(t, 40075016.686, ViewportSpan(0, 0, 256), 1)
	// Each zoom level halves the span.
	assert.InDelta(t, ViewportSpan(14, 43.26, 1024)/2, ViewportSpan(15, 43.26, 1024), 1e-6)
}

func TestViewportBox(t *testing.T) {
	vp := domain.Viewport{Center: domain.GeoPoint{Lat: 43.263, Lon: -2.935}, Zoom: 16}
	box := ViewportBox(vp, 1024)

	assert.True(t, box.Contains(vp.Center))
	assert.InDelta(t, vp.Center.Lat, box.Center().Lat, 1e-9)
	assert.InDelta(t, vp.Center.Lon, box.Center().Lon, 1e-9)
}

func TestValidateViewport(t *testing.T) {
	ok := domain.Viewport{Center: domain.GeoPoint{Lat: 43.26, Lon: -2.93}, Zoom: 15}
	assert.NoError(t, ValidateViewport(ok))

	for name, vp := range map[string]domain.Viewport{
		"polar":     {Center: domain.GeoPoint{Lat: 89, Lon: 0}, Zoom: 10},
		"longitude": {Center: domain.GeoPoint{Lat: 0, Lon: 181}, Zoom: 10},
		"zoom low":  {Center: domain.GeoPoint{Lat: 0, Lon: 0}, Zoom: -1},
		"zoom high": {Center: domain.GeoPoint{Lat: 0, Lon: 0}, Zoom: 23},
	} {
		assert.Error(t, ValidateViewport(vp), name)
	}
}

func TestCellToken(t *testing.T) {
	p := domain.GeoPoint{Lat: 43.263, Lon: -2.935}
	assert.Equal(t, CellToken(p, 20), CellToken(p, 20))
	assert.NotEqual(t, CellToken(p, 20), CellToken(domain.GeoPoint{Lat: 40.4168, Lon: -3.7038}, 20))

	tokens := NeighborTokens(p, 10)
	assert.Equal(t, CellToken(p, 10), tokens[0])
	assert.GreaterOrEqual(t, len(tokens), 8)
}
