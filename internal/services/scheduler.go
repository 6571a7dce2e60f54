package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"github.com/uptrace/bun"

	"ambpromo/internal/datastore"
	"ambpromo/internal/models"
)

type JobHandler func(ctx context.Context, job *models.ScheduledJob) error

// ServiceScheduler persists delayed actions and fires them from a cron
// tick. Jobs survive restarts because due rows are re-read from the
// database on every tick.
type ServiceScheduler struct {
	db   *bun.DB
	cron *cron.Cron

	mu       sync.RWMutex
	handlers map[models.JobKind]JobHandler
}

func NewServiceScheduler(container *do.Injector) (*ServiceScheduler, error) {
	db, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	return &ServiceScheduler{
		db:       db,
		cron:     cron.New(),
		handlers: map[models.JobKind]JobHandler{},
	}, nil
}

func (service *ServiceScheduler) RegisterHandler(kind models.JobKind, handler JobHandler) {
	service.mu.Lock()
	defer service.mu.Unlock()
	service.handlers[kind] = handler
}

func (service *ServiceScheduler) Start() error {
	_, err := service.cron.AddFunc("@every 1m", func() {
		if err := service.Dispatch(context.Background()); err != nil {
			log.Println("scheduler dispatch:", err)
		}
	})
	if err != nil {
		return err
	}

	service.cron.Start()
	return nil
}

func (service *ServiceScheduler) Stop() {
	service.cron.Stop()
}

// Dispatch claims and runs every due job. Claiming happens before running
// so a handler failure does not wedge the queue; failures are logged and
// recoverable through manual reconciliation.
func (service *ServiceScheduler) Dispatch(ctx context.Context) error {
	jobs, err := datastore.GetDueJobs(ctx, service.db, time.Now(), BROADCAST_PAGE_SIZE)
	if err != nil {
		return errorx.Wrap(err, errorx.Service)
	}

	for _, job := range jobs {
		claimed, err := datastore.MarkJobFired(ctx, service.db, job.ID, time.Now())
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}
		if !claimed {
			continue
		}

		service.mu.RLock()
		handler, ok := service.handlers[job.Kind]
		service.mu.RUnlock()
		if !ok {
			log.Println("no handler for job kind", job.Kind)
			continue
		}

		if err := handler(ctx, job); err != nil {
			log.Printf("job %d (%s): %v", job.ID, job.Kind, err)
		}
	}

	return nil
}

func (service *ServiceScheduler) ScheduleLoyaltyCheck(ctx context.Context, userID, referrerID int64) (*models.ScheduledJob, error) {
	job := &models.ScheduledJob{
		Kind:       models.JobKindLoyaltyCheck,
		UserID:     userID,
		ReferrerID: &referrerID,
		RunAt:      time.Now().Add(LOYALTY_WINDOW),
	}
	job, err := datastore.ScheduleJob(ctx, service.db, job)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return job, nil
}

func (service *ServiceScheduler) ScheduleReminder(ctx context.Context, userID int64) (*models.ScheduledJob, error) {
	job := &models.ScheduledJob{
		Kind:   models.JobKindReminder,
		UserID: userID,
		RunAt:  time.Now().Add(REMINDER_DELAY),
	}
	job, err := datastore.ScheduleJob(ctx, service.db, job)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return job, nil
}
