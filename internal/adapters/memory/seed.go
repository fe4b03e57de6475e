package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dishdash/dishdash/internal/core/domain"
)

// Seed is the on-disk format of a demo data set.
type Seed struct {
	Places []domain.Place `json:"places"`
	Posts  []domain.Post  `json:"posts"`
}

// Load inserts every place and then every post from r. Posts without a
// location take the location of their place.
func (s *Store) Load(ctx context.Context, r io.Reader) error {
	var seed Seed
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}

	places := s.Places()
	for i := range seed.Places {
		if err := places.Upsert(ctx, &seed.Places[i]); err != nil {
			return fmt.Errorf("seed place %s: %w", seed.Places[i].ID, err)
		}
	}

	posts := s.Posts()
	for i := range seed.Posts {
		p := &seed.Posts[i]
		if p.Location == (domain.GeoPoint{}) {
			place, err := places.GetByID(ctx, p.PlaceID)
			if err != nil {
				return fmt.Errorf("seed post %s: %w", p.ID, err)
			}
			p.Location = place.Location
		}
		if err := posts.Create(ctx, p); err != nil {
			return fmt.Errorf("seed post %s: %w", p.ID, err)
		}
	}
	return nil
}

// LoadFile is Load over the named JSON file.
func (s *Store) LoadFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return s.Load(ctx, f)
}
