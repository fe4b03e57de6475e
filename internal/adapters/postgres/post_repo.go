package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dishdash/dishdash/internal/core/domain"
)

// PostRepo implements ports.PostRepository with pgx.
type PostRepo struct {
	db *DB
}

// NewPostRepo creates a new PostRepo.
func NewPostRepo(db *DB) *PostRepo {
	return &PostRepo{db: db}
}

const postColumns = `
	id, place_id, user_id, body, satisfaction, photos,
	ST_Y(location::geometry) AS lat,
	ST_X(location::geometry) AS lon,
	created_at`

// Create inserts a post. Re-inserting the same id is a no-op so workflow
// retries stay idempotent.
func (r *PostRepo) Create(ctx context.Context, p *domain.Post) error {
	photos := p.Photos
	if photos == nil {
		photos = []string{}
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO posts (id, place_id, user_id, body, satisfaction, photos, location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, ST_SetSRID(ST_MakePoint($7, $8), 4326)::geography, $9)
		ON CONFLICT (id) DO NOTHING
	`, p.ID, p.PlaceID, p.UserID, p.Body, p.Satisfaction, photos,
		p.Location.Lon, p.Location.Lat, p.CreatedAt)
	return err
}

// GetByID returns a post by id.
func (r *PostRepo) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	p, err := scanPost(row)
	if err != nil {
		return nil, notFound(err, "post", id)
	}
	return p, nil
}

// Delete removes a post. Deleting a missing post is not an error.
func (r *PostRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	return err
}

// FindInBounds returns the newest limit posts inside box, oldest first so
// marker seeds stay stable.
func (r *PostRepo) FindInBounds(ctx context.Context, box domain.BoundingBox, limit int) ([]domain.Post, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+postColumns+` FROM (
			SELECT * FROM posts
			WHERE location::geometry && ST_MakeEnvelope($1, $2, $3, $4, 4326)
			ORDER BY created_at DESC, id DESC
			LIMIT $5
		) AS recent
		ORDER BY created_at, id
	`, box.SouthWest.Lon, box.SouthWest.Lat, box.NorthEast.Lon, box.NorthEast.Lat, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

// ListByPlace returns a page of a place's posts, newest first, and the total count.
func (r *PostRepo) ListByPlace(ctx context.Context, placeID string, offset, limit int) ([]domain.Post, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM posts WHERE place_id = $1`, placeID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, `SELECT `+postColumns+` FROM posts
		WHERE place_id = $1
		ORDER BY created_at DESC, id
		OFFSET $2 LIMIT $3
	`, placeID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	posts, err := collectPosts(rows)
	return posts, total, err
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var p domain.Post
	if err := row.Scan(
		&p.ID, &p.PlaceID, &p.UserID, &p.Body, &p.Satisfaction, &p.Photos,
		&p.Location.Lat, &p.Location.Lon, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPosts(rows pgx.Rows) ([]domain.Post, error) {
	var posts []domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}
