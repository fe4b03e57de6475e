package workflows

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/dishdash/dishdash/internal/core/domain"
)

func testInput() PublishPostInput {
	return PublishPostInput{Post: domain.Post{
		ID:           "post-1",
		PlaceID:      "gure-toki",
		UserID:       "u1",
		Satisfaction: 5,
		Location:     domain.GeoPoint{Lat: 43.2590, Lon: -2.9236},
	}}
}

func newEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterActivity(&PostActivities{})
	return env
}

func TestPublishPostWorkflow_HappyPath(t *testing.T) {
	env := newEnv(t)
	env.OnActivity("SavePost", mock.Anything, mock.Anything).Return(nil).Once()
	env.OnActivity("InvalidateArea", mock.Anything, mock.Anything).Return(nil).Once()
	env.OnActivity("AnnouncePost", mock.Anything, mock.Anything).Return(nil).Once()

	env.ExecuteWorkflow(PublishPostWorkflow, testInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	env.AssertExpectations(t)
	env.AssertNotCalled(t, "DeletePost", mock.Anything, mock.Anything)
}

func TestPublishPostWorkflow_InvalidationFailureIsTolerated(t *testing.T) {
	env := newEnv(t)
	env.OnActivity("SavePost", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("InvalidateArea", mock.Anything, mock.Anything).Return(errors.New("valkey down"))
	env.OnActivity("AnnouncePost", mock.Anything, mock.Anything).Return(nil).Once()

	env.ExecuteWorkflow(PublishPostWorkflow, testInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	env.AssertExpectations(t)
}

func TestPublishPostWorkflow_CompensatesOnAnnounceFailure(t *testing.T) {
	env := newEnv(t)
	env.OnActivity("SavePost", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("InvalidateArea", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("AnnouncePost", mock.Anything, mock.Anything).Return(errors.New("nats down"))
	env.OnActivity("DeletePost", mock.Anything, "post-1").Return(nil).Once()

	env.ExecuteWorkflow(PublishPostWorkflow, testInput())

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	env.AssertExpectations(t)
}

func TestPublishPostWorkflow_SaveFailureStops(t *testing.T) {
	env := newEnv(t)
	env.OnActivity("SavePost", mock.Anything, mock.Anything).Return(errors.New("db down"))

	env.ExecuteWorkflow(PublishPostWorkflow, testInput())

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	env.AssertNotCalled(t, "AnnouncePost", mock.Anything, mock.Anything)
	env.AssertNotCalled(t, "DeletePost", mock.Anything, mock.Anything)
}

func TestWorkflowID(t *testing.T) {
	require.Equal(t, "publish-post-abc", WorkflowID("abc"))
}
