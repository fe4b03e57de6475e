package geospatial

import "github.com/dishdash/dishdash/internal/core/domain"

// GroupByProximity partitions items into marker groups.
//
// Items are visited in input order. Each unassigned item seeds a new group, and
// every later unassigned item closer than thresholdMeters to that seed joins it.
// Membership is decided against the seed only, so the result depends on input
// order and is not a transitive clustering. A threshold <= 0 yields one group per
// item. Runs in O(n²); callers pass viewport-sized inputs.
func GroupByProximity[T any](items []T, thresholdMeters float64, position func(T) domain.GeoPoint) [][]T {
	groups := make([][]T, 0)
	if len(items) == 0 {
		return groups
	}

	points := make([]domain.GeoPoint, len(items))
	for i, it := range items {
		points[i] = position(it)
	}

	assigned := make([]bool, len(items))
	for i := range items {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		group := []T{items[i]}

		for j := i + 1; j < len(items); j++ {
			if assigned[j] {
				continue
			}
			if Distance(points[i], points[j]) < thresholdMeters {
				group = append(group, items[j])
				assigned[j] = true
			}
		}

		groups = append(groups, group)
	}

	return groups
}

// WithinRadius keeps the items no farther than radiusMeters from center, in order.
func WithinRadius[T any](items []T, center domain.GeoPoint, radiusMeters float64, position func(T) domain.GeoPoint) []T {
	var out []T
	for _, it := range items {
		if Distance(center, position(it)) <= radiusMeters {
			out = append(out, it)
		}
	}
	return out
}
