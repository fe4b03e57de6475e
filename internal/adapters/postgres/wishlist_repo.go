package postgres

import (
	"context"

	"github.com/dishdash/dishdash/internal/core/domain"
)

// WishlistRepo implements ports.WishlistRepository with pgx.
type WishlistRepo struct {
	db *DB
}

// NewWishlistRepo creates a new WishlistRepo.
func NewWishlistRepo(db *DB) *WishlistRepo {
	return &WishlistRepo{db: db}
}

// Add saves a place for a user; saving twice keeps the original timestamp.
func (r *WishlistRepo) Add(ctx context.Context, userID, placeID string) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO wishlist (user_id, place_id) VALUES ($1, $2)
		ON CONFLICT (user_id, place_id) DO NOTHING
	`, userID, placeID)
	return err
}

// Remove drops a saved place.
func (r *WishlistRepo) Remove(ctx context.Context, userID, placeID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM wishlist WHERE user_id = $1 AND place_id = $2`, userID, placeID)
	return err
}

// List returns a user's saved places, most recent first.
func (r *WishlistRepo) List(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT w.user_id, w.added_at, `+placeColumns+placeFrom+`
		JOIN wishlist w ON w.place_id = p.id
		WHERE w.user_id = $1
		ORDER BY w.added_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.WishlistItem
	for rows.Next() {
		var item domain.WishlistItem
		var p domain.Place
		var category string
		if err := rows.Scan(
			&item.UserID, &item.AddedAt,
			&p.ID, &p.Name, &category,
			&p.Location.Lat, &p.Location.Lon,
			&p.Address, &p.AvgSatisfaction, &p.ReviewCount, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		p.Category = domain.PlaceCategory(category)
		item.PlaceID = p.ID
		item.Place = &p
		items = append(items, item)
	}
	return items, rows.Err()
}
