package datastore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ambpromo/internal/models"
)

func TestScheduledJobs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	referrerID := int64(1)
	due, err := ScheduleJob(ctx, db, &models.ScheduledJob{
		Kind:       models.JobKindLoyaltyCheck,
		UserID:     2,
		ReferrerID: &referrerID,
		RunAt:      time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)

	_, err = ScheduleJob(ctx, db, &models.ScheduledJob{
		Kind:   models.JobKindReminder,
		UserID: 3,
		RunAt:  time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	t.Run("only due jobs are returned", func(t *testing.T) {
		jobs, err := GetDueJobs(ctx, db, time.Now(), 10)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, due.ID, jobs[0].ID)
	})

	t.Run("claim is exclusive", func(t *testing.T) {
		claimed, err := MarkJobFired(ctx, db, due.ID, time.Now())
		require.NoError(t, err)
		assert.True(t, claimed)

		claimed, err = MarkJobFired(ctx, db, due.ID, time.Now())
		require.NoError(t, err)
		assert.False(t, claimed)
	})

	t.Run("fired jobs drop out of the queue", func(t *testing.T) {
		jobs, err := GetDueJobs(ctx, db, time.Now(), 10)
		require.NoError(t, err)
		assert.Empty(t, jobs)

		pending, err := CountPendingJobs(ctx, db, models.JobKindReminder)
		require.NoError(t, err)
		assert.Equal(t, 1, pending)
	})
}
