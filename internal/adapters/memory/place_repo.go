package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/dishdash/dishdash/internal/core/domain"
)

// PlaceRepo implements ports.PlaceRepository on a Store.
type PlaceRepo struct {
	s *Store
}

// Upsert inserts a place or replaces the one with the same id.
func (r *PlaceRepo) Upsert(ctx context.Context, p *domain.Place) error {
	if p.ID == "" {
		return fmt.Errorf("%w: place id is required", domain.ErrInvalidInput)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if old, ok := r.s.places[p.ID]; ok {
		r.s.placeTree.Delete(old)
	}
	item := &spatialPlace{place: *p, rect: pointRect(p.Location)}
	if item.place.CreatedAt.IsZero() {
		item.place.CreatedAt = r.s.now()
	}
	item.place.Distance = nil
	r.s.places[p.ID] = item
	r.s.placeTree.Insert(item)
	return nil
}

// GetByID returns a place with its review aggregates.
func (r *PlaceRepo) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	item, ok := r.s.places[id]
	if !ok {
		return nil, fmt.Errorf("place %s: %w", id, domain.ErrNotFound)
	}
	p := r.s.withRating(item.place)
	return &p, nil
}

// FindInBounds returns up to limit places inside box.
func (r *PlaceRepo) FindInBounds(ctx context.Context, box domain.BoundingBox, limit int) ([]domain.Place, error) {
	rect, err := boxRect(box)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var places []domain.Place
	for _, hit := range r.s.placeTree.SearchIntersect(rect) {
		item, ok := hit.(*spatialPlace)
		if !ok || !box.Contains(item.place.Location) {
			continue
		}
		places = append(places, r.s.withRating(item.place))
	}
	sortPlaces(places)
	if limit > 0 && len(places) > limit {
		places = places[:limit]
	}
	return places, nil
}

// Search returns places whose name contains query, case-insensitively.
func (r *PlaceRepo) Search(ctx context.Context, query string, limit int) ([]domain.Place, error) {
	q := strings.ToLower(strings.TrimSpace(query))

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var places []domain.Place
	for _, item := range r.s.places {
		if strings.Contains(strings.ToLower(item.place.Name), q) {
			places = append(places, r.s.withRating(item.place))
		}
	}
	sortPlaces(places)
	if limit > 0 && len(places) > limit {
		places = places[:limit]
	}
	return places, nil
}
