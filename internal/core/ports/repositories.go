package ports

import (
	"context"

	"github.com/dishdash/dishdash/internal/core/domain"
)

// PlaceRepository persists places.
type PlaceRepository interface {
	Upsert(ctx context.Context, place *domain.Place) error
	GetByID(ctx context.Context, id string) (*domain.Place, error)
	FindInBounds(ctx context.Context, box domain.BoundingBox, limit int) ([]domain.Place, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Place, error)
}

// PostRepository persists reviews.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	Delete(ctx context.Context, id string) error
	FindInBounds(ctx context.Context, box domain.BoundingBox, limit int) ([]domain.Post, error)
	ListByPlace(ctx context.Context, placeID string, offset, limit int) ([]domain.Post, int, error)
}

// WishlistRepository persists saved places per user.
type WishlistRepository interface {
	Add(ctx context.Context, userID, placeID string) error
	Remove(ctx context.Context, userID, placeID string) error
	List(ctx context.Context, userID string) ([]domain.WishlistItem, error)
}
