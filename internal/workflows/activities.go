package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dishdash/dishdash/internal/core/domain"
	"github.com/dishdash/dishdash/internal/core/usecases"
)

// PostActivities holds the activity implementations for PublishPostWorkflow.
type PostActivities struct {
	Posts *usecases.PostService
}

// SavePost persists a prepared post. Saving an already stored id is a no-op.
func (a *PostActivities) SavePost(ctx context.Context, post domain.Post) error {
	if err := a.Posts.Save(ctx, &post); err != nil {
		return fmt.Errorf("save post %s: %w", post.ID, err)
	}
	return nil
}

// InvalidateArea drops cached marker pages around the post and its cached place.
func (a *PostActivities) InvalidateArea(ctx context.Context, post domain.Post) error {
	return a.Posts.InvalidateArea(ctx, &post)
}

// AnnouncePost publishes the post to live map subscribers.
func (a *PostActivities) AnnouncePost(ctx context.Context, post domain.Post) error {
	if err := a.Posts.Announce(ctx, &post); err != nil {
		return fmt.Errorf("announce post %s: %w", post.ID, err)
	}
	return nil
}

// DeletePost removes a post (saga compensation / rollback).
func (a *PostActivities) DeletePost(ctx context.Context, postID string) error {
	if err := a.Posts.Delete(ctx, postID); err != nil {
		return fmt.Errorf("delete post %s: %w", postID, err)
	}
	slog.InfoContext(ctx, "post deleted (saga compensation)", "post_id", postID)
	return nil
}
