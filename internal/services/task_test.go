package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ambpromo/internal/datastore"
	"ambpromo/internal/models"
)

func TestIssueRepostTask(t *testing.T) {
	checker := &fakeChecker{subscribed: map[int64]bool{}}
	notifier := newFakeNotifier()
	container, db := setupTestContainer(t, checker, notifier)
	ctx := context.Background()

	service, err := NewServiceTask(container)
	require.NoError(t, err)

	user := createServiceTestUser(t, db, 1)

	task, err := service.IssueRepostTask(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskTypeRepost, task.Type)
	assert.Equal(t, models.TaskStatusPending, task.Status)

	got, err := datastore.FindUserByID(ctx, db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.PendingTasks)

	// a screenshot moves the repost into review like any other task
	submitted, err := service.SubmitScreenshot(ctx, user.ID, "screenshots/1.jpg")
	require.NoError(t, err)
	assert.Equal(t, task.ID, submitted.ID)
	assert.Equal(t, models.TaskStatusAwaitingReview, submitted.Status)
}

func TestIssueTasksWithoutTemplates(t *testing.T) {
	checker := &fakeChecker{subscribed: map[int64]bool{}}
	notifier := newFakeNotifier()
	container, db := setupTestContainer(t, checker, notifier)
	ctx := context.Background()

	service, err := NewServiceTask(container)
	require.NoError(t, err)

	user := createServiceTestUser(t, db, 1)

	_, _, err = service.IssueMemeTask(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNoTemplates)

	_, _, err = service.IssueTextTask(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNoTemplates)

	got, err := datastore.FindUserByID(ctx, db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.PendingTasks)
}
