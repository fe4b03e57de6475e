package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/dishdash/dishdash/internal/core/domain"
)

// PlaceRepo implements ports.PlaceRepository with pgx.
type PlaceRepo struct {
	db *DB
}

// NewPlaceRepo creates a new PlaceRepo.
func NewPlaceRepo(db *DB) *PlaceRepo {
	return &PlaceRepo{db: db}
}

const placeColumns = `
	p.id, p.name, p.category,
	ST_Y(p.location::geometry) AS lat,
	ST_X(p.location::geometry) AS lon,
	COALESCE(p.address, ''),
	COALESCE(s.avg_satisfaction, 0), COALESCE(s.review_count, 0),
	p.created_at`

const placeFrom = `
	FROM places p
	LEFT JOIN (
		SELECT place_id, AVG(satisfaction)::float8 AS avg_satisfaction, COUNT(*)::int AS review_count
		FROM posts GROUP BY place_id
	) s ON s.place_id = p.id`

// Upsert inserts or updates a place.
func (r *PlaceRepo) Upsert(ctx context.Context, p *domain.Place) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO places (id, name, category, location, address)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, NULLIF($6, ''))
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, category = EXCLUDED.category,
		    location = EXCLUDED.location, address = EXCLUDED.address
	`, p.ID, p.Name, string(p.Category), p.Location.Lon, p.Location.Lat, p.Address)
	return err
}

// GetByID returns a place with its review aggregates.
func (r *PlaceRepo) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+placeColumns+placeFrom+` WHERE p.id = $1`, id)
	p, err := scanPlace(row)
	if err != nil {
		return nil, notFound(err, "place", id)
	}
	return p, nil
}

// FindInBounds returns places inside box using the GiST index on location.
func (r *PlaceRepo) FindInBounds(ctx context.Context, box domain.BoundingBox, limit int) ([]domain.Place, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+placeColumns+placeFrom+`
		WHERE p.location::geometry && ST_MakeEnvelope($1, $2, $3, $4, 4326)
		LIMIT $5
	`, box.SouthWest.Lon, box.SouthWest.Lat, box.NorthEast.Lon, box.NorthEast.Lat, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPlaces(rows)
}

// Search performs fuzzy + full-text search on place names.
func (r *PlaceRepo) Search(ctx context.Context, query string, limit int) ([]domain.Place, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+placeColumns+placeFrom+`
		WHERE p.name_vector @@ plainto_tsquery('simple', $1)
		   OR p.name %> $1
		ORDER BY similarity(p.name, $1) DESC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPlaces(rows)
}

func scanPlace(row pgx.Row) (*domain.Place, error) {
	var p domain.Place
	var category string
	if err := row.Scan(
		&p.ID, &p.Name, &category,
		&p.Location.Lat, &p.Location.Lon,
		&p.Address, &p.AvgSatisfaction, &p.ReviewCount, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	p.Category = domain.PlaceCategory(category)
	return &p, nil
}

func collectPlaces(rows pgx.Rows) ([]domain.Place, error) {
	var places []domain.Place
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		places = append(places, *p)
	}
	return places, rows.Err()
}
