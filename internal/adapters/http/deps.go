package http

import (
	"context"
	"time"

	"github.com/dishdash/dishdash/internal/core/domain"
	"github.com/dishdash/dishdash/internal/core/usecases"
)

// PostWorkflowStarter hands a prepared post to the publish workflow.
type PostWorkflowStarter interface {
	StartPublishPost(ctx context.Context, post *domain.Post) (string, error)
}

// ReadinessCheck reports whether a backing service is reachable.
type ReadinessCheck func(ctx context.Context) error

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Maps     *usecases.MapService
	Places   *usecases.PlaceService
	Posts    *usecases.PostService
	Wishlist *usecases.WishlistService
	Chat     *usecases.ChatService // nil when no assistant is configured

	// Workflows is optional; without it posts are created synchronously.
	Workflows PostWorkflowStarter

	// Live fans post events out to WebSocket clients. Optional.
	Live *LiveHub

	Checks map[string]ReadinessCheck

	Version        string
	RateLimit      int           // requests per minute per IP, default 300
	RequestTimeout time.Duration // default 15s
	DocsPath       string        // default api/openapi.yaml
}
