package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"

	"ambpromo/internal/datastore"
	"ambpromo/internal/interfaces"
	"ambpromo/internal/models"
)

var ErrOfferNotFound = errors.New("offer not found")
var ErrTaskNotRedemption = errors.New("task is not a redemption")
var ErrTaskAlreadySettled = errors.New("task already settled")

// ServicePromo runs the credit redemption flow. A per-user lock
// serializes concurrent redemptions; the debit query re-checks the
// balance so even a racing writer cannot overspend.
type ServicePromo struct {
	db       *bun.DB
	notifier interfaces.Notifier

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewServicePromo(container *do.Injector) (*ServicePromo, error) {
	db, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	notifier, err := do.Invoke[interfaces.Notifier](container)
	if err != nil {
		return nil, err
	}

	return &ServicePromo{db: db, notifier: notifier, locks: map[int64]*sync.Mutex{}}, nil
}

func (service *ServicePromo) userLock(userID int64) *sync.Mutex {
	service.mu.Lock()
	defer service.mu.Unlock()
	lock, ok := service.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		service.locks[userID] = lock
	}
	return lock
}

func (service *ServicePromo) ListOffers(ctx context.Context) ([]*models.Offer, error) {
	offers, err := datastore.GetOffers(ctx, service.db)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return offers, nil
}

func (service *ServicePromo) GetOffer(ctx context.Context, offerID int64) (*models.Offer, error) {
	offer, err := datastore.FindOfferByID(ctx, service.db, offerID)
	if err != nil {
		if datastore.IsNotFound(err) {
			return nil, ErrOfferNotFound
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return offer, nil
}

// Redeem debits the cost and opens a review task for the admins. The
// spent credits stay spent even if an admin later declines.
func (service *ServicePromo) Redeem(ctx context.Context, userID int64, offerID int64) (*models.Task, *models.Offer, error) {
	offer, err := service.GetOffer(ctx, offerID)
	if err != nil {
		return nil, nil, err
	}

	lock := service.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	task, err := datastore.SpendCredit(ctx, service.db, userID, offer, fmt.Sprintf("offer:%d", offer.ID))
	if err != nil {
		if errors.Is(err, datastore.ErrInsufficientBalance) {
			return nil, offer, err
		}
		return nil, nil, errorx.Wrap(err, errorx.Service)
	}

	return task, offer, nil
}

// Approve settles a redemption with the coupon an admin supplied. The
// coupon is recorded and delivered to the user.
func (service *ServicePromo) Approve(ctx context.Context, taskID int64, couponCode string) (*models.Task, error) {
	task, err := service.settleableTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	task, err = datastore.ApproveTask(ctx, service.db, task.ID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	coupon := &models.Coupon{Code: couponCode, Kind: "promo"}
	if _, err := datastore.CreateCoupon(ctx, service.db, coupon); err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	// the coupon counts as used only once it actually reached the user
	if err := service.notifier.Notify(ctx, task.UserID, fmt.Sprintf("🎁 Your reward is approved! Here is your coupon code:\n\n%s", couponCode)); err == nil {
		//nolint:errcheck
		datastore.MarkCouponUsed(ctx, service.db, coupon.ID)
	}

	return task, nil
}

// Decline settles a redemption without a reward. Credits are not
// refunded.
func (service *ServicePromo) Decline(ctx context.Context, taskID int64) (*models.Task, error) {
	task, err := service.settleableTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	task, err = datastore.DeclineTask(ctx, service.db, task.ID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	//nolint:errcheck
	service.notifier.Notify(ctx, task.UserID, "😔 Your redemption request was declined. Contact support if you believe this is a mistake.")

	return task, nil
}

func (service *ServicePromo) settleableTask(ctx context.Context, taskID int64) (*models.Task, error) {
	task, err := datastore.FindTaskByID(ctx, service.db, taskID)
	if err != nil {
		if datastore.IsNotFound(err) {
			return nil, errorx.Wrap(errors.New("task not found"), errorx.NotExist)
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}

	if task.Type != models.TaskTypePromo {
		return nil, ErrTaskNotRedemption
	}
	if task.Status != models.TaskStatusPending && task.Status != models.TaskStatusAwaitingReview {
		return nil, ErrTaskAlreadySettled
	}

	return task, nil
}
