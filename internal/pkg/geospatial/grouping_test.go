package geospatial

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dishdash/dishdash/internal/core/domain"
)

type item struct {
	id  int
	pos domain.GeoPoint
}

func itemPos(it item) domain.GeoPoint { return it.pos }

func ids(groups [][]item) [][]int {
	out := make([][]int, len(groups))
	for i, g := range groups {
		for _, it := range g {
			out[i] = append(out[i], it.id)
		}
	}
	return out
}

func TestGroupByProximity_Empty(t *testing.T) {
	groups := GroupByProximity(nil, 3, itemPos)
	require.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestGroupByProximity_Scenario(t *testing.T) {
	items := []item{
		{id: 1, pos: domain.GeoPoint{Lat: 35.0, Lon: 51.0}},
		{id: 2, pos: domain.GeoPoint{Lat: 35.00001, Lon: 51.00001}},
		{id: 3, pos: domain.GeoPoint{Lat: 36.0, Lon: 52.0}},
	}

	groups := GroupByProximity(items, 3, itemPos)
	assert.Equal(t, [][]int{{1, 2}, {3}}, ids(groups))
}

func TestGroupByProximity_Separation(t *testing.T) {
	a := item{id: 1, pos: domain.GeoPoint{Lat: 43.2630, Lon: -2.9350}}
	// ~100 m north
	b := item{id: 2, pos: domain.GeoPoint{Lat: 43.2639, Lon: -2.9350}}
	require.InDelta(t, 100, Distance(a.pos, b.pos), 1)

	groups := GroupByProximity([]item{a, b}, 3, itemPos)
	assert.Equal(t, [][]int{{1}, {2}}, ids(groups))
}

func TestGroupByProximity_SeedAnchored(t *testing.T) {
	// A chain 2 m apart: B is within 3 m of A, C is within 3 m of B but 4 m from A.
	a := item{id: 1, pos: domain.GeoPoint{Lat: 0, Lon: 0}}
	b := item{id: 2, pos: domain.GeoPoint{Lat: 0.000018, Lon: 0}}
	c := item{id: 3, pos: domain.GeoPoint{Lat: 0.000036, Lon: 0}}
	require.Less(t, Distance(a.pos, b.pos), 3.0)
	require.Less(t, Distance(b.pos, c.pos), 3.0)
	require.Greater(t, Distance(a.pos, c.pos), 3.0)

	assert.Equal(t, [][]int{{1, 2}, {3}}, ids(GroupByProximity([]item{a, b, c}, 3, itemPos)))
	// Seeding from the middle swallows both ends.
	assert.Equal(t, [][]int{{2, 1, 3}}, ids(GroupByProximity([]item{b, a, c}, 3, itemPos)))
}

func TestGroupByProximity_NonPositiveThreshold(t *testing.T) {
	p := domain.GeoPoint{Lat: 10, Lon: 10}
	items := []item{{id: 1, pos: p}, {id: 2, pos: p}, {id: 3, pos: p}}

	assert.Equal(t, [][]int{{1}, {2}, {3}}, ids(GroupByProximity(items, 0, itemPos)))
	assert.Equal(t, [][]int{{1}, {2}, {3}}, ids(GroupByProximity(items, -5, itemPos)))
}

func TestGroupByProximity_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	const threshold = 50.0

	for round := 0; round < 20; round++ {
		n := 1 + r.Intn(200)
		items := make([]item, n)
		for i := range items {
			// Scatter around a ~500 m square so groups form.
			items[i] = item{id: i, pos: domain.GeoPoint{
				Lat: 43.26 + r.Float64()*0.005,
				Lon: -2.93 + r.Float64()*0.005,
			}}
		}

		groups := GroupByProximity(items, threshold, itemPos)

		seen := make(map[int]int)
		total := 0
		for _, g := range groups {
			require.NotEmpty(t, g)
			total += len(g)
			seed := g[0]
			for k, it := range g {
				seen[it.id]++
				if k > 0 {
					assert.Less(t, Distance(seed.pos, it.pos), threshold)
					assert.Less(t, g[k-1].id, it.id, "members follow input order")
				}
			}
		}
		assert.Equal(t, n, total)
		for i := 0; i < n; i++ {
			assert.Equal(t, 1, seen[i], "item %d placed once", i)
		}
		for k := 1; k < len(groups); k++ {
			assert.Less(t, groups[k-1][0].id, groups[k][0].id, "groups follow seed order")
		}
	}
}

func TestWithinRadius(t *testing.T) {
	center := domain.GeoPoint{Lat: 43.263, Lon: -2.935}
	items := []item{
		{id: 1, pos: center},
		{id: 2, pos: domain.GeoPoint{Lat: 43.2675, Lon: -2.935}}, // ~500 m
		{id: 3, pos: domain.GeoPoint{Lat: 43.3530, Lon: -2.935}}, // ~10 km
	}

	got := WithinRadius(items, center, 1000, itemPos)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].id)
	assert.Equal(t, 2, got[1].id)

	assert.Empty(t, WithinRadius(items[1:], center, 10, itemPos))
}

func BenchmarkGroupByProximity(b *testing.B) {
	r := rand.New(rand.NewSource(9))
	items := make([]item, 500)
	for i := range items {
		items[i] = item{id: i, pos: domain.GeoPoint{Lat: 43.26 + r.Float64()*0.01, Lon: -2.93 + r.Float64()*0.01}}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GroupByProximity(items, 3, itemPos)
	}
}
