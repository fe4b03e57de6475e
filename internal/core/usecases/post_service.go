package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dishdash/dishdash/internal/core/domain"
	"github.com/dishdash/dishdash/internal/core/ports"
	"github.com/dishdash/dishdash/internal/pkg/metrics"
)

const (
	maxBodyRunes = 2000
	maxPhotos    = 10
)

// PostService handles review creation and lookup.
type PostService struct {
	posts     ports.PostRepository
	places    ports.PlaceRepository
	publisher ports.EventPublisher
	maps      *MapService
}

// NewPostService creates a new PostService. publisher and maps may be nil.
func NewPostService(
	posts ports.PostRepository,
	places ports.PlaceRepository,
	publisher ports.EventPublisher,
	maps *MapService,
) *PostService {
	return &PostService{posts: posts, places: places, publisher: publisher, maps: maps}
}

// Prepare validates a new post and fills in its id, timestamp and location.
func (s *PostService) Prepare(ctx context.Context, post *domain.Post) (*domain.Place, error) {
	if err := validatePost(post); err != nil {
		return nil, err
	}

	place, err := s.places.GetByID(ctx, post.PlaceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: place %s does not exist", domain.ErrInvalidInput, post.PlaceID)
		}
		return nil, fmt.Errorf("get place: %w", err)
	}

	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	post.CreatedAt = time.Now().UTC()
	post.Location = place.Location
	return place, nil
}

// Create validates, stores and announces a post. Cache invalidation and
// publishing are best-effort once the post is stored.
func (s *PostService) Create(ctx context.Context, post *domain.Post) error {
	place, err := s.Prepare(ctx, post)
	if err != nil {
		return err
	}

	if err := s.Save(ctx, post); err != nil {
		return err
	}
	metrics.PostsCreated.WithLabelValues(string(place.Category)).Inc()

	if err := s.InvalidateArea(ctx, post); err != nil {
		slog.WarnContext(ctx, "cache invalidation failed", "post_id", post.ID, "error", err)
	}
	if err := s.Announce(ctx, post); err != nil {
		slog.WarnContext(ctx, "post announcement failed", "post_id", post.ID, "error", err)
	}
	return nil
}

// Save persists a prepared post.
func (s *PostService) Save(ctx context.Context, post *domain.Post) error {
	if err := s.posts.Create(ctx, post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// Delete removes a post.
func (s *PostService) Delete(ctx context.Context, id string) error {
	return s.posts.Delete(ctx, id)
}

// InvalidateArea drops cached marker pages around the post and the cached
// copy of its place, whose rating aggregates just changed.
func (s *PostService) InvalidateArea(ctx context.Context, post *domain.Post) error {
	if s.maps == nil {
		return nil
	}
	if err := s.maps.InvalidateAround(ctx, post.Location); err != nil {
		return err
	}
	if s.maps.cache == nil {
		return nil
	}
	return s.maps.cache.Delete(ctx, placeCacheKey(post.PlaceID))
}

// Announce publishes the post to live map subscribers.
func (s *PostService) Announce(ctx context.Context, post *domain.Post) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.PublishPostCreated(ctx, post)
}

// GetByID returns a single post.
func (s *PostService) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// ListByPlace returns a page of a place's posts, newest first, and the total count.
func (s *PostService) ListByPlace(ctx context.Context, placeID string, offset, limit int) ([]domain.Post, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.posts.ListByPlace(ctx, placeID, offset, limit)
}

func validatePost(p *domain.Post) error {
	var errs []string

	if strings.TrimSpace(p.PlaceID) == "" {
		errs = append(errs, "place_id is required")
	}
	if strings.TrimSpace(p.UserID) == "" {
		errs = append(errs, "user_id is required")
	}
	if p.Satisfaction < 1 || p.Satisfaction > 5 {
		errs = append(errs, fmt.Sprintf("satisfaction must be 1-5, got %d", p.Satisfaction))
	}
	if utf8.RuneCountInString(p.Body) > maxBodyRunes {
		errs = append(errs, fmt.Sprintf("body exceeds %d characters", maxBodyRunes))
	}
	if len(p.Photos) > maxPhotos {
		errs = append(errs, fmt.Sprintf("at most %d photos allowed", maxPhotos))
	}
	for _, raw := range p.Photos {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("photo %q is not an http(s) URL", raw))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(errs, "; "))
	}
	return nil
}
