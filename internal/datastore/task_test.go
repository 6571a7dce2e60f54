package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ambpromo/internal/models"
)

func TestCreateAndSettleTask(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, 1)

	task, err := CreateTask(ctx, db, &models.Task{
		UserID:      user.ID,
		Type:        models.TaskTypeMeme,
		Status:      models.TaskStatusPending,
		Description: "meme:1",
	})
	require.NoError(t, err)
	require.NotZero(t, task.ID)

	got, err := FindUserByID(ctx, db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.PendingTasks)

	t.Run("approve moves counters", func(t *testing.T) {
		settled, err := ApproveTask(ctx, db, task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusApproved, settled.Status)

		got, err := FindUserByID(ctx, db, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.PendingTasks)
		assert.Equal(t, 1, got.CompletedTasks)
	})

	t.Run("decline does not credit completion", func(t *testing.T) {
		task, err := CreateTask(ctx, db, &models.Task{
			UserID: user.ID,
			Type:   models.TaskTypeText,
			Status: models.TaskStatusPending,
		})
		require.NoError(t, err)

		settled, err := DeclineTask(ctx, db, task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusDeclined, settled.Status)

		got, err := FindUserByID(ctx, db, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.PendingTasks)
		assert.Equal(t, 1, got.CompletedTasks)
	})
}

func TestAttachScreenshot(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, 1)
	task, err := CreateTask(ctx, db, &models.Task{
		UserID: user.ID,
		Type:   models.TaskTypeMeme,
		Status: models.TaskStatusPending,
	})
	require.NoError(t, err)

	require.NoError(t, AttachScreenshot(ctx, db, task.ID, "screenshots/1.jpg"))

	got, err := FindTaskByID(ctx, db, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusAwaitingReview, got.Status)
	require.NotNil(t, got.ScreenshotPath)
	assert.Equal(t, "screenshots/1.jpg", *got.ScreenshotPath)

	next, err := FindOldestAwaitingReview(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, task.ID, next.ID)
}

func TestCancelLatestPendingTask(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, 1)

	t.Run("nothing to cancel", func(t *testing.T) {
		cancelled, err := CancelLatestPendingTask(ctx, db, user.ID)
		require.NoError(t, err)
		assert.False(t, cancelled)
	})

	t.Run("cancels only the newest pending", func(t *testing.T) {
		first, err := CreateTask(ctx, db, &models.Task{
			UserID: user.ID,
			Type:   models.TaskTypeMeme,
			Status: models.TaskStatusPending,
		})
		require.NoError(t, err)

		second, err := CreateTask(ctx, db, &models.Task{
			UserID: user.ID,
			Type:   models.TaskTypeText,
			Status: models.TaskStatusPending,
		})
		require.NoError(t, err)

		cancelled, err := CancelLatestPendingTask(ctx, db, user.ID)
		require.NoError(t, err)
		assert.True(t, cancelled)

		_, err = FindTaskByID(ctx, db, second.ID)
		assert.True(t, IsNotFound(err))

		kept, err := FindTaskByID(ctx, db, first.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusPending, kept.Status)

		got, err := FindUserByID(ctx, db, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.PendingTasks)
	})

	t.Run("review tasks are not cancellable", func(t *testing.T) {
		cancelled, err := CancelLatestPendingTask(ctx, db, user.ID)
		require.NoError(t, err)
		assert.True(t, cancelled)

		task, err := CreateTask(ctx, db, &models.Task{
			UserID: user.ID,
			Type:   models.TaskTypeMeme,
			Status: models.TaskStatusPending,
		})
		require.NoError(t, err)
		require.NoError(t, AttachScreenshot(ctx, db, task.ID, "screenshots/2.jpg"))

		cancelled, err = CancelLatestPendingTask(ctx, db, user.ID)
		require.NoError(t, err)
		assert.False(t, cancelled)
	})
}
