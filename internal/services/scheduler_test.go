package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ambpromo/internal/models"
)

func TestSchedulerDispatch(t *testing.T) {
	checker := &fakeChecker{subscribed: map[int64]bool{}}
	notifier := newFakeNotifier()
	container, db := setupTestContainer(t, checker, notifier)
	ctx := context.Background()

	scheduler, err := do.Invoke[*ServiceScheduler](container)
	require.NoError(t, err)

	var fired int64
	scheduler.RegisterHandler(models.JobKindReminder, func(ctx context.Context, job *models.ScheduledJob) error {
		atomic.AddInt64(&fired, 1)
		return nil
	})

	_, err = scheduler.ScheduleReminder(ctx, 1)
	require.NoError(t, err)

	t.Run("future jobs stay queued", func(t *testing.T) {
		require.NoError(t, scheduler.Dispatch(ctx))
		assert.Equal(t, int64(0), atomic.LoadInt64(&fired))
	})

	t.Run("due jobs fire exactly once", func(t *testing.T) {
		_, err = db.NewUpdate().Model((*models.ScheduledJob)(nil)).
			Set("run_at = ?", time.Now().Add(-time.Minute)).
			Where("fired_at IS NULL").Exec(ctx)
		require.NoError(t, err)

		require.NoError(t, scheduler.Dispatch(ctx))
		assert.Equal(t, int64(1), atomic.LoadInt64(&fired))

		require.NoError(t, scheduler.Dispatch(ctx))
		assert.Equal(t, int64(1), atomic.LoadInt64(&fired))
	})
}
