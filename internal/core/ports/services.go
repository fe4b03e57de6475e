package ports

import (
	"context"

	"github.com/dishdash/dishdash/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishPostCreated(ctx context.Context, post *domain.Post) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// AssistantClient talks to the external chat assistant.
type AssistantClient interface {
	Complete(ctx context.Context, messages []domain.ChatMessage) (*domain.ChatReply, error)
}
