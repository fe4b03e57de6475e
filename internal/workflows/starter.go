package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"

	"github.com/dishdash/dishdash/internal/core/domain"
)

// Starter launches PublishPostWorkflow runs on a task queue.
type Starter struct {
	client    client.Client
	taskQueue string
}

// NewStarter creates a Starter.
func NewStarter(c client.Client, taskQueue string) *Starter {
	return &Starter{client: c, taskQueue: taskQueue}
}

// WorkflowID is the deterministic workflow id for a post, so a retried
// request cannot publish the same post twice.
func WorkflowID(postID string) string {
	return "publish-post-" + postID
}

// StartPublishPost starts the workflow and returns its id without waiting
// for it to finish.
func (s *Starter) StartPublishPost(ctx context.Context, post *domain.Post) (string, error) {
	run, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        WorkflowID(post.ID),
		TaskQueue: s.taskQueue,
	}, PublishPostWorkflow, PublishPostInput{Post: *post})
	if err != nil {
		return "", fmt.Errorf("start publish workflow: %w", err)
	}
	return run.GetID(), nil
}
