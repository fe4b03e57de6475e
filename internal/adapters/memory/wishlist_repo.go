package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dishdash/dishdash/internal/core/domain"
)

// WishlistRepo implements ports.WishlistRepository on a Store.
type WishlistRepo struct {
	s *Store
}

// Add saves a place for a user; saving twice keeps the original timestamp.
func (r *WishlistRepo) Add(ctx context.Context, userID, placeID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	saved, ok := r.s.wishlist[userID]
	if !ok {
		saved = make(map[string]time.Time)
		r.s.wishlist[userID] = saved
	}
	if _, ok := saved[placeID]; !ok {
		saved[placeID] = r.s.now()
	}
	return nil
}

// Remove drops a saved place.
func (r *WishlistRepo) Remove(ctx context.Context, userID, placeID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.wishlist[userID], placeID)
	return nil
}

// List returns a user's saved places, most recent first. Places deleted since
// they were saved are skipped.
func (r *WishlistRepo) List(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := make([]domain.WishlistItem, 0, len(r.s.wishlist[userID]))
	for placeID, addedAt := range r.s.wishlist[userID] {
		item, ok := r.s.places[placeID]
		if !ok {
			continue
		}
		p := r.s.withRating(item.place)
		items = append(items, domain.WishlistItem{
			UserID:  userID,
			PlaceID: placeID,
			Place:   &p,
			AddedAt: addedAt,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].AddedAt.Equal(items[j].AddedAt) {
			return items[i].AddedAt.After(items[j].AddedAt)
		}
		return items[i].PlaceID < items[j].PlaceID
	})
	return items, nil
}
