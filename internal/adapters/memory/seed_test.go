package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dishdash/dishdash/internal/core/domain"
)

const seedJSON = `{
  "places": [
    {"id": "p1", "name": "Bar Txiriboga", "category": "restaurant", "location": {"lat": 43.2590, "lon": -2.9236}},
    {"id": "p2", "name": "Café Iruña", "category": "cafe", "location": {"lat": 43.2630, "lon": -2.9260}}
  ],
  "posts": [
    {"id": "r1", "place_id": "p1", "user_id": "u1", "satisfaction": 5},
    {"id": "r2", "place_id": "p1", "user_id": "u2", "satisfaction": 3, "location": {"lat": 43.2591, "lon": -2.9237}}
  ]
}`

func TestLoadSeed(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Load(ctx, strings.NewReader(seedJSON)))

	places, posts := s.Size()
	assert.Equal(t, 2, places)
	assert.Equal(t, 2, posts)

	r1, err := s.Posts().GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.GeoPoint{Lat: 43.2590, Lon: -2.9236}, r1.Location)

	r2, err := s.Posts().GetByID(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, domain.GeoPoint{Lat: 43.2591, Lon: -2.9237}, r2.Location)

	p1, err := s.Places().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, p1.ReviewCount)
	assert.InDelta(t, 4.0, p1.AvgSatisfaction, 1e-9)
}

func TestLoadSeed_UnknownPlace(t *testing.T) {
	s := NewStore()
	err := s.Load(context.Background(), strings.NewReader(`{"posts":[{"id":"r1","place_id":"nope","satisfaction":4}]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoadSeed_BadJSON(t *testing.T) {
	s := NewStore()
	assert.Error(t, s.Load(context.Background(), strings.NewReader(`{"places":`)))
}
