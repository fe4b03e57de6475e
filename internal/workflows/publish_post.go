package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/dishdash/dishdash/internal/core/domain"
)

// PublishPostInput is the input for the publish workflow. The post has
// already been validated and carries its id, timestamp and location.
type PublishPostInput struct {
	Post domain.Post
}

// PublishPostWorkflow stores a post, clears cached markers around it and
// announces it to live map clients. If the announcement fails the post is
// deleted again (saga compensation) so no review exists that nobody saw.
func PublishPostWorkflow(ctx workflow.Context, input PublishPostInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting publish workflow", "postID", input.Post.ID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Save
	if err := workflow.ExecuteActivity(ctx, "SavePost", input.Post).Get(ctx, nil); err != nil {
		return err
	}

	// Step 2: Invalidate cached markers; stale pages expire on their own
	if err := workflow.ExecuteActivity(ctx, "InvalidateArea", input.Post).Get(ctx, nil); err != nil {
		logger.Warn("marker invalidation failed", "error", err)
	}

	// Step 3: Announce
	if err := workflow.ExecuteActivity(ctx, "AnnouncePost", input.Post).Get(ctx, nil); err != nil {
		logger.Warn("announcement failed, compensating", "error", err)
		_ = workflow.ExecuteActivity(ctx, "DeletePost", input.Post.ID).Get(ctx, nil)
		_ = workflow.ExecuteActivity(ctx, "InvalidateArea", input.Post).Get(ctx, nil)
		return err
	}

	logger.Info("Post published", "postID", input.Post.ID)
	return nil
}
