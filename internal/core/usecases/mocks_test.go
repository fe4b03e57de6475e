package usecases_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dishdash/dishdash/internal/core/domain"
)

// --- Mock PlaceRepository ---

type mockPlaceRepo struct {
	getByIDFn      func(ctx context.Context, id string) (*domain.Place, error)
	findInBoundsFn func(ctx context.Context, box domain.BoundingBox, limit int) ([]domain.Place, error)
	searchFn       func(ctx context.Context, query string, limit int) ([]domain.Place, error)
}

func (m *mockPlaceRepo) Upsert(ctx context.Context, place *domain.Place) error { return nil }

func (m *mockPlaceRepo) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockPlaceRepo) FindInBounds(ctx context.Context, box domain.BoundingBox, limit int) ([]domain.Place, error) {
	if m.findInBoundsFn != nil {
		return m.findInBoundsFn(ctx, box, limit)
	}
	return nil, nil
}

func (m *mockPlaceRepo) Search(ctx context.Context, query string, limit int) ([]domain.Place, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

// --- Mock PostRepository ---

type mockPostRepo struct {
	createFn       func(ctx context.Context, post *domain.Post) error
	getByIDFn      func(ctx context.Context, id string) (*domain.Post, error)
	deleteFn       func(ctx context.Context, id string) error
	findInBoundsFn func(ctx context.Context, box domain.BoundingBox, limit int) ([]domain.Post, error)
	listByPlaceFn  func(ctx context.Context, placeID string, offset, limit int) ([]domain.Post, int, error)
}

func (m *mockPostRepo) Create(ctx context.Context, post *domain.Post) error {
	if m.createFn != nil {
		return m.createFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepo) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockPostRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockPostRepo) FindInBounds(ctx context.Context, box domain.BoundingBox, limit int) ([]domain.Post, error) {
	if m.findInBoundsFn != nil {
		return m.findInBoundsFn(ctx, box, limit)
	}
	return nil, nil
}

func (m *mockPostRepo) ListByPlace(ctx context.Context, placeID string, offset, limit int) ([]domain.Post, int, error) {
	if m.listByPlaceFn != nil {
		return m.listByPlaceFn(ctx, placeID, offset, limit)
	}
	return nil, 0, nil
}

// --- Mock WishlistRepository ---

type mockWishlistRepo struct {
	addFn    func(ctx context.Context, userID, placeID string) error
	removeFn func(ctx context.Context, userID, placeID string) error
	listFn   func(ctx context.Context, userID string) ([]domain.WishlistItem, error)
}

func (m *mockWishlistRepo) Add(ctx context.Context, userID, placeID string) error {
	if m.addFn != nil {
		return m.addFn(ctx, userID, placeID)
	}
	return nil
}

func (m *mockWishlistRepo) Remove(ctx context.Context, userID, placeID string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, userID, placeID)
	}
	return nil
}

func (m *mockWishlistRepo) List(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

// --- In-memory cache ---

var errCacheMiss = errors.New("cache miss")

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func newMemCache() *memCache { return &memCache{entries: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.sets++
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memCache) DeletePrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

func (c *memCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	published []*domain.Post
	err       error
}

func (m *mockPublisher) PublishPostCreated(ctx context.Context, post *domain.Post) error {
	m.published = append(m.published, post)
	return m.err
}

// --- Mock AssistantClient ---

type mockAssistant struct {
	completeFn func(ctx context.Context, messages []domain.ChatMessage) (*domain.ChatReply, error)
}

func (m *mockAssistant) Complete(ctx context.Context, messages []domain.ChatMessage) (*domain.ChatReply, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, messages)
	}
	return &domain.ChatReply{Message: domain.ChatMessage{Role: domain.RoleAssistant, Content: "ok"}}, nil
}
