package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/dishdash/dishdash/internal/core/domain"
	"github.com/dishdash/dishdash/internal/core/ports"
)

// WishlistService manages the places a user saved for later.
type WishlistService struct {
	wishlist ports.WishlistRepository
	places   ports.PlaceRepository
}

// NewWishlistService creates a new WishlistService.
func NewWishlistService(wishlist ports.WishlistRepository, places ports.PlaceRepository) *WishlistService {
	return &WishlistService{wishlist: wishlist, places: places}
}

// Add saves placeID for userID. Adding twice is not an error.
func (s *WishlistService) Add(ctx context.Context, userID, placeID string) error {
	if userID == "" || placeID == "" {
		return fmt.Errorf("%w: user and place are required", domain.ErrInvalidInput)
	}
	if _, err := s.places.GetByID(ctx, placeID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("get place: %w", err)
	}
	return s.wishlist.Add(ctx, userID, placeID)
}

// Remove drops placeID from the user's wishlist.
func (s *WishlistService) Remove(ctx context.Context, userID, placeID string) error {
	return s.wishlist.Remove(ctx, userID, placeID)
}

// List returns the user's wishlist, most recently added first.
func (s *WishlistService) List(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	return s.wishlist.List(ctx, userID)
}
