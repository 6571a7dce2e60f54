package datastore

import (
	"context"
	"time"

	"ambpromo/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableTasks(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Task)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	for _, col := range []struct {
		name string
		ddl  string
	}{
		{"task_type", `ALTER TABLE tasks ADD COLUMN task_type VARCHAR`},
		{"screenshot_path", `ALTER TABLE tasks ADD COLUMN screenshot_path VARCHAR`},
		{"template_id", `ALTER TABLE tasks ADD COLUMN template_id INTEGER`},
		{"offer_id", `ALTER TABLE tasks ADD COLUMN offer_id INTEGER`},
		{"created_at", `ALTER TABLE tasks ADD COLUMN created_at TIMESTAMP DEFAULT current_timestamp`},
	} {
		exists, err := columnExists(ctx, db, "tasks", col.name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := db.NewRaw(col.ddl).Exec(ctx); err != nil {
			return err
		}
	}

	_, err = db.NewCreateIndex().Model((*models.Task)(nil)).Index("index_tasks_user_status").IfNotExists().Column("user_id", "status").Exec(ctx)
	return err
}

// CreateTask opens a task and bumps the user's pending counter together.
func CreateTask(ctx context.Context, db *bun.DB, task *models.Task) (*models.Task, error) {
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if task.CreatedAt.IsZero() {
			task.CreatedAt = time.Now()
		}
		if _, err := tx.NewInsert().Model(task).Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("pending_tasks = pending_tasks + 1").
			Where("user_id = ?", task.UserID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func FindTaskByID(ctx context.Context, db *bun.DB, taskID int64) (*models.Task, error) {
	var task models.Task
	err := db.NewSelect().Model(&task).Where("task_id = ?", taskID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func FindLatestPendingTask(ctx context.Context, db *bun.DB, userID int64) (*models.Task, error) {
	var task models.Task
	err := db.NewSelect().Model(&task).
		Where("user_id = ?", userID).
		Where("status = ?", models.TaskStatusPending).
		Order("task_id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func FindOldestAwaitingReview(ctx context.Context, db *bun.DB) (*models.Task, error) {
	var task models.Task
	err := db.NewSelect().Model(&task).
		Where("status = ?", models.TaskStatusAwaitingReview).
		Where("screenshot_path IS NOT NULL").
		Order("task_id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func CountTasksByStatus(ctx context.Context, db *bun.DB, status models.TaskStatus) (int, error) {
	return db.NewSelect().Model((*models.Task)(nil)).Where("status = ?", status).Count(ctx)
}

// AttachScreenshot moves a pending task into review with its proof.
func AttachScreenshot(ctx context.Context, db *bun.DB, taskID int64, path string) error {
	_, err := db.NewUpdate().
		Model((*models.Task)(nil)).
		Set("screenshot_path = ?", path).
		Set("status = ?", models.TaskStatusAwaitingReview).
		Where("task_id = ?", taskID).
		Exec(ctx)
	return err
}

// ApproveTask settles the task and moves it from pending to completed on
// the owner's counters.
func ApproveTask(ctx context.Context, db *bun.DB, taskID int64) (*models.Task, error) {
	return settleTask(ctx, db, taskID, models.TaskStatusApproved, true)
}

// DeclineTask settles the task without crediting completion. Any loyalty
// balance spent on the task stays spent.
func DeclineTask(ctx context.Context, db *bun.DB, taskID int64) (*models.Task, error) {
	return settleTask(ctx, db, taskID, models.TaskStatusDeclined, false)
}

func settleTask(ctx context.Context, db *bun.DB, taskID int64, status models.TaskStatus, completed bool) (*models.Task, error) {
	var task models.Task
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().Model(&task).Where("task_id = ?", taskID).Scan(ctx); err != nil {
			return err
		}

		if _, err := tx.NewUpdate().
			Model((*models.Task)(nil)).
			Set("status = ?", status).
			Where("task_id = ?", taskID).
			Exec(ctx); err != nil {
			return err
		}

		q := tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("pending_tasks = pending_tasks - 1").
			Where("user_id = ?", task.UserID).
			Where("pending_tasks > 0")
		if completed {
			q = q.Set("completed_tasks = completed_tasks + 1")
		}
		_, err := q.Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	task.Status = status
	return &task, nil
}

// CancelLatestPendingTask deletes the user's newest pending task. The
// pending counter only moves when it is above zero.
func CancelLatestPendingTask(ctx context.Context, db *bun.DB, userID int64) (bool, error) {
	var cancelled bool
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var task models.Task
		err := tx.NewSelect().Model(&task).
			Where("user_id = ?", userID).
			Where("status = ?", models.TaskStatusPending).
			Order("task_id DESC").
			Limit(1).
			Scan(ctx)
		if err != nil {
			if IsNotFound(err) {
				return nil
			}
			return err
		}

		if _, err := tx.NewDelete().Model((*models.Task)(nil)).Where("task_id = ?", task.ID).Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("pending_tasks = pending_tasks - 1").
			Where("user_id = ?", userID).
			Where("pending_tasks > 0").
			Exec(ctx); err != nil {
			return err
		}

		cancelled = true
		return nil
	})
	return cancelled, err
}
