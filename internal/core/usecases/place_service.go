package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dishdash/dishdash/internal/core/domain"
	"github.com/dishdash/dishdash/internal/core/ports"
	"github.com/dishdash/dishdash/internal/pkg/geospatial"
	"github.com/dishdash/dishdash/internal/pkg/metrics"
)

const (
	// maxCandidates bounds how many rows are pulled before distance filtering.
	maxCandidates = 500
	maxQueryLen   = 200
)

// SearchRadii are the distance tiers offered by the search filter, in meters.
type SearchRadii struct {
	Walking float64
	Driving float64
}

// DefaultSearchRadii returns the tiers used when none are configured.
func DefaultSearchRadii() SearchRadii {
	return SearchRadii{Walking: 1500, Driving: 15000}
}

// PlaceService handles place lookup and search.
type PlaceService struct {
	places ports.PlaceRepository
	cache  ports.CacheService
	radii  SearchRadii
}

// NewPlaceService creates a new PlaceService.
func NewPlaceService(places ports.PlaceRepository, cache ports.CacheService, radii SearchRadii) *PlaceService {
	if radii.Walking <= 0 || radii.Driving <= 0 {
		radii = DefaultSearchRadii()
	}
	return &PlaceService{places: places, cache: cache, radii: radii}
}

// FindNearby returns places within radiusMeters of center, nearest first.
func (s *PlaceService) FindNearby(ctx context.Context, center domain.GeoPoint, radiusMeters float64, limit int) ([]domain.Place, error) {
	if radiusMeters <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", domain.ErrInvalidInput)
	}
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	cacheKey := fmt.Sprintf("places:nearby:%.4f:%.4f:%.0f:%d", center.Lat, center.Lon, radiusMeters, limit)
	if places, ok := s.cachedPlaces(ctx, "nearby", cacheKey); ok {
		return places, nil
	}

	box := geospatial.NewBoundingBox(center, 2*radiusMeters)
	candidates, err := s.places.FindInBounds(ctx, box, maxCandidates)
	if err != nil {
		return nil, fmt.Errorf("places in bounds: %w", err)
	}

	places := geospatial.WithinRadius(candidates, center, radiusMeters, placeLocation)
	sortByDistance(places, center)
	if len(places) > limit {
		places = places[:limit]
	}

	// Cache for 5 minutes (places don't move)
	s.storePlaces(ctx, cacheKey, places, 300)
	return places, nil
}

// Search matches places by name. When near is set, results are annotated with
// their distance, sorted nearest first and cut to the tier's radius.
func (s *PlaceService) Search(ctx context.Context, query string, near *domain.GeoPoint, tier domain.DistanceTier, limit int) ([]domain.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query must not be empty", domain.ErrInvalidInput)
	}
	if len(query) > maxQueryLen {
		return nil, fmt.Errorf("%w: query too long (max %d characters)", domain.ErrInvalidInput, maxQueryLen)
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	radius, err := s.tierRadius(tier)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("places:search:%s:%s:%d", strings.ToLower(query), tier, limit)
	if near != nil {
		cacheKey += fmt.Sprintf(":%.4f:%.4f", near.Lat, near.Lon)
	}
	if places, ok := s.cachedPlaces(ctx, "search", cacheKey); ok {
		return places, nil
	}

	fetch := limit
	if near != nil {
		fetch = maxCandidates
	}
	places, err := s.places.Search(ctx, query, fetch)
	if err != nil {
		return nil, fmt.Errorf("search places: %w", err)
	}

	if near != nil {
		if radius > 0 {
			places = geospatial.WithinRadius(places, *near, radius, placeLocation)
		}
		sortByDistance(places, *near)
	}
	if len(places) > limit {
		places = places[:limit]
	}

	s.storePlaces(ctx, cacheKey, places, 300)
	return places, nil
}

// GetByID returns a single place.
func (s *PlaceService) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	cacheKey := placeCacheKey(id)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var place domain.Place
			if err := json.Unmarshal(data, &place); err == nil {
				metrics.Cache("place", true)
				return &place, nil
			}
		}
		metrics.Cache("place", false)
	}

	place, err := s.places.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(place); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600) // 10 min for single place
		}
	}

	return place, nil
}

func placeCacheKey(id string) string { return "places:id:" + id }

// tierRadius maps a tier to its radius; 0 means unbounded.
func (s *PlaceService) tierRadius(tier domain.DistanceTier) (float64, error) {
	switch tier {
	case domain.TierWalking:
		return s.radii.Walking, nil
	case domain.TierDriving:
		return s.radii.Driving, nil
	case domain.TierAny, "":
		return 0, nil
	}
	return 0, fmt.Errorf("%w: unknown distance tier %q", domain.ErrInvalidInput, tier)
}

func (s *PlaceService) cachedPlaces(ctx context.Context, op, key string) ([]domain.Place, bool) {
	if s.cache == nil {
		return nil, false
	}
	if data, err := s.cache.Get(ctx, key); err == nil {
		var places []domain.Place
		if err := json.Unmarshal(data, &places); err == nil {
			metrics.Cache(op, true)
			return places, true
		}
	}
	metrics.Cache(op, false)
	return nil, false
}

func (s *PlaceService) storePlaces(ctx context.Context, key string, places []domain.Place, ttl int) {
	if s.cache == nil {
		return
	}
	if data, err := json.Marshal(places); err == nil {
		_ = s.cache.Set(ctx, key, data, ttl)
	}
}

// sortByDistance sets Distance on every place and orders them nearest first.
func sortByDistance(places []domain.Place, from domain.GeoPoint) {
	for i := range places {
		d := geospatial.Distance(from, places[i].Location)
		places[i].Distance = &d
	}
	sort.SliceStable(places, func(i, j int) bool {
		return *places[i].Distance < *places[j].Distance
	})
}
