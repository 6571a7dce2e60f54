package datastore

import (
	"context"
	"time"

	"ambpromo/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableScheduledJobs(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.ScheduledJob)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.ScheduledJob)(nil)).
		Index("index_scheduled_jobs_due").IfNotExists().
		Column("fired_at", "run_at").
		Exec(ctx)
	return err
}

func ScheduleJob(ctx context.Context, db *bun.DB, job *models.ScheduledJob) (*models.ScheduledJob, error) {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	_, err := db.NewInsert().Model(job).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// GetDueJobs returns unfired jobs whose run time has passed, oldest first.
func GetDueJobs(ctx context.Context, db *bun.DB, now time.Time, limit int) ([]*models.ScheduledJob, error) {
	var jobs []*models.ScheduledJob
	err := db.NewSelect().Model(&jobs).
		Where("fired_at IS NULL").
		Where("run_at <= ?", now).
		Order("run_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// MarkJobFired claims the job. The fired_at guard makes a second claim
// change no rows, so overlapping dispatch ticks do not double-run it.
func MarkJobFired(ctx context.Context, db *bun.DB, jobID int64, at time.Time) (bool, error) {
	res, err := db.NewUpdate().
		Model((*models.ScheduledJob)(nil)).
		Set("fired_at = ?", at).
		Where("id = ?", jobID).
		Where("fired_at IS NULL").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func CountPendingJobs(ctx context.Context, db *bun.DB, kind models.JobKind) (int, error) {
	return db.NewSelect().Model((*models.ScheduledJob)(nil)).
		Where("kind = ?", kind).
		Where("fired_at IS NULL").
		Count(ctx)
}
