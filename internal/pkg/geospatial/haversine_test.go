package geospatial

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/s2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dishdash/dishdash/internal/core/domain"
)

func randomPoint(r *rand.Rand) domain.GeoPoint {
	return domain.GeoPoint{Lat: r.Float64()*180 - 90, Lon: r.Float64()*360 - 180}
}

func TestDistance_Identity(t *testing.T) {
	for _, p := range []domain.GeoPoint{
		{Lat: 0, Lon: 0},
		{Lat: 35.6892, Lon: 51.389},
		{Lat: -33.8688, Lon: 151.2093},
		{Lat: 89.9, Lon: -179.9},
	} {
		assert.Equal(t, 0.0, Distance(p, p), "distance of %v to itself", p)
	}
}

func TestDistance_Symmetry(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		a, b := randomPoint(r), randomPoint(r)
		assert.Equal(t, Distance(a, b), Distance(b, a))
	}
}

func TestDistance_TriangleInequality(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 500; i++ {
		a, b, c := randomPoint(r), randomPoint(r), randomPoint(r)
		assert.LessOrEqual(t, Distance(a, c), Distance(a, b)+Distance(b, c)+1e-3)
	}
}

func TestDistance_KnownValue(t *testing.T) {
	// Two points in central Tehran, about 1.2 km apart north-south and 1 km east-west.
	d := Distance(domain.GeoPoint{Lat: 35.6892, Lon: 51.389}, domain.GeoPoint{Lat: 35.7, Lon: 51.4})
	assert.InDelta(t, 1558, d, 10)
}

func TestDistance_MatchesS2(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		a, b := randomPoint(r), randomPoint(r)
		want := s2.LatLngFromDegrees(a.Lat, a.Lon).Distance(s2.LatLngFromDegrees(b.Lat, b.Lon)).Radians() * earthRadiusMeters
		assert.InDelta(t, want, Distance(a, b), 1e-3)
	}
}

func TestDistance_NeverNegative(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	for i := 0; i < 200; i++ {
		assert.GreaterOrEqual(t, Distance(randomPoint(r), randomPoint(r)), 0.0)
	}
}

func TestNewBoundingBox_Equator(t *testing.T) {
	box := NewBoundingBox(domain.GeoPoint{Lat: 0, Lon: 0}, 1000)

	assert.InDelta(t, -0.0045, box.SouthWest.Lat, 1e-4)
	assert.InDelta(t, 0.0045, box.NorthEast.Lat, 1e-4)
	assert.InDelta(t, -0.0045, box.SouthWest.Lon, 1e-4)
	assert.InDelta(t, 0.0045, box.NorthEast.Lon, 1e-4)
	// No meridian convergence at the equator.
	assert.InDelta(t, box.NorthEast.Lat, box.NorthEast.Lon, 1e-12)
}

func TestNewBoundingBox_ContainsCenter(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	for i := 0; i < 200; i++ {
		c := domain.GeoPoint{Lat: r.Float64()*160 - 80, Lon: r.Float64()*340 - 170}
		size := 1 + r.Float64()*20000
		box := NewBoundingBox(c, size)

		assert.True(t, box.Contains(c))
		assert.Less(t, box.SouthWest.Lat, c.Lat)
		assert.Less(t, c.Lat, box.NorthEast.Lat)
		assert.Less(t, box.SouthWest.Lon, c.Lon)
		assert.Less(t, c.Lon, box.NorthEast.Lon)
	}
}

func TestNewBoundingBox_ScalesLinearly(t *testing.T) {
	c := domain.GeoPoint{Lat: 43.263, Lon: -2.935}
	small := NewBoundingBox(c, 500)
	large := NewBoundingBox(c, 1000)

	smallSpan := small.NorthEast.Lat - small.SouthWest.Lat
	largeSpan := large.NorthEast.Lat - large.SouthWest.Lat
	assert.Greater(t, largeSpan, smallSpan)
	assert.InDelta(t, 2*smallSpan, largeSpan, 1e-12)
}

func TestNewBoundingBox_LongitudeWidensAwayFromEquator(t *testing.T) {
	equator := NewBoundingBox(domain.GeoPoint{Lat: 0, Lon: 10}, 1000)
	north := NewBoundingBox(domain.GeoPoint{Lat: 60, Lon: 10}, 1000)

	eqSpan := equator.NorthEast.Lon - equator.SouthWest.Lon
	northSpan := north.NorthEast.Lon - north.SouthWest.Lon
	// cos(60°) = 0.5
	assert.InDelta(t, 2*eqSpan, northSpan, 1e-9)
}

func TestNewBoundingBox_PoleDiverges(t *testing.T) {
	box := NewBoundingBox(domain.GeoPoint{Lat: 90, Lon: 0}, 1000)
	span := box.NorthEast.Lon - box.SouthWest.Lon
	assert.True(t, math.IsInf(span, 1) || span > 360, "expected runaway longitude span, got %v", span)
}

func TestNewBoundingBox_NonPositiveSize(t *testing.T) {
	c := domain.GeoPoint{Lat: 10, Lon: 10}

	zero := NewBoundingBox(c, 0)
	require.Equal(t, c, zero.SouthWest)
	require.Equal(t, c, zero.NorthEast)

	inverted := NewBoundingBox(c, -1000)
	assert.Greater(t, inverted.SouthWest.Lat, inverted.NorthEast.Lat)
}
