package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"

	"ambpromo/internal/datastore"
	"ambpromo/internal/interfaces"
	"ambpromo/internal/models"
)

// ServiceLoyalty turns referrals into credits once they stay subscribed
// for the full loyalty window. The credit ledger keeps both the timer
// path and manual reconciliation exactly-once.
type ServiceLoyalty struct {
	db       *bun.DB
	checker  interfaces.SubscriptionChecker
	notifier interfaces.Notifier
}

func NewServiceLoyalty(container *do.Injector) (*ServiceLoyalty, error) {
	db, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	checker, err := do.Invoke[interfaces.SubscriptionChecker](container)
	if err != nil {
		return nil, err
	}

	notifier, err := do.Invoke[interfaces.Notifier](container)
	if err != nil {
		return nil, err
	}

	return &ServiceLoyalty{db, checker, notifier}, nil
}

// QualifyReferral checks one referral after the window passed. A referral
// that is gone or unsubscribed earns nothing and is not retried.
func (service *ServiceLoyalty) QualifyReferral(ctx context.Context, referralID, referrerID int64) (bool, error) {
	referral, err := datastore.FindUserByID(ctx, service.db, referralID)
	if err != nil {
		if datastore.IsNotFound(err) {
			return false, nil
		}
		return false, errorx.Wrap(err, errorx.Service)
	}

	if referral.ReferrerID == nil || *referral.ReferrerID != referrerID {
		return false, nil
	}

	subscribed, err := service.checker.IsSubscribed(ctx, referralID)
	if err != nil {
		return false, err
	}
	if !subscribed {
		return false, nil
	}

	credited, err := datastore.CreditLoyalReferral(ctx, service.db, referrerID, referralID)
	if err != nil {
		return false, errorx.Wrap(err, errorx.Service)
	}
	if !credited {
		return false, nil
	}

	//nolint:errcheck
	service.notifier.Notify(ctx, referrerID, fmt.Sprintf(MessageLoyalReferral, referral.DisplayName()))

	return true, nil
}

// HandleLoyaltyJob adapts QualifyReferral to the scheduler.
func (service *ServiceLoyalty) HandleLoyaltyJob(ctx context.Context, job *models.ScheduledJob) error {
	if job.ReferrerID == nil {
		return nil
	}
	_, err := service.QualifyReferral(ctx, job.UserID, *job.ReferrerID)
	return err
}

type ReconcileResult struct {
	Scanned  int
	Credited int
}

// Reconcile sweeps every referral past the loyalty window and credits the
// ones the timer path missed. Safe to run repeatedly.
func (service *ServiceLoyalty) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	cutoff := time.Now().Add(-LOYALTY_WINDOW)
	referrals, err := datastore.GetReferralsOlderThan(ctx, service.db, cutoff)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	result := &ReconcileResult{Scanned: len(referrals)}
	for _, referral := range referrals {
		credited, err := service.QualifyReferral(ctx, referral.ID, *referral.ReferrerID)
		if err != nil {
			continue
		}
		if credited {
			result.Credited++
		}
	}

	return result, nil
}
