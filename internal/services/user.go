package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"

	"ambpromo/internal/datastore"
	"ambpromo/internal/interfaces"
	"ambpromo/internal/models"
)

var ErrSelfReferral = errors.New("you cannot refer yourself")
var ErrAlreadyReferred = errors.New("you already have a referrer")
var ErrReferrerNotFound = errors.New("referrer not found")

type ServiceUser struct {
	container *do.Injector
	db        *bun.DB

	serviceScheduler *ServiceScheduler
	notifier         interfaces.Notifier
}

func NewServiceUser(container *do.Injector) (*ServiceUser, error) {
	db, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	serviceScheduler, err := do.Invoke[*ServiceScheduler](container)
	if err != nil {
		return nil, err
	}

	notifier, err := do.Invoke[interfaces.Notifier](container)
	if err != nil {
		return nil, err
	}

	return &ServiceUser{container, db, serviceScheduler, notifier}, nil
}

// FindOrCreateUser registers the user on first contact, assigning a
// promo code and scheduling the subscription reminder. Existing users
// get their profile fields refreshed.
func (service *ServiceUser) FindOrCreateUser(ctx context.Context, sender *models.User) (*models.User, bool, error) {
	user, err := datastore.FindUserByID(ctx, service.db, sender.ID)
	if err == nil {
		user.Username = sender.Username
		user.FirstName = sender.FirstName
		user.LastName = sender.LastName
		if _, err := datastore.UpdateUserProfile(ctx, service.db, user); err != nil {
			return nil, false, errorx.Wrap(err, errorx.Service)
		}
		return user, false, nil
	}
	if !datastore.IsNotFound(err) {
		return nil, false, errorx.Wrap(err, errorx.Service)
	}

	code, err := datastore.GeneratePromoCode(ctx, service.db)
	if err != nil {
		return nil, false, errorx.Wrap(err, errorx.Service)
	}

	user = &models.User{
		ID:        sender.ID,
		Username:  sender.Username,
		FirstName: sender.FirstName,
		LastName:  sender.LastName,
		PromoCode: code,
		JoinedAt:  time.Now(),
	}
	if _, err := datastore.CreateUser(ctx, service.db, user); err != nil {
		return nil, false, errorx.Wrap(err, errorx.Service)
	}

	_, err = service.serviceScheduler.ScheduleReminder(ctx, user.ID)
	if err != nil {
		return nil, false, err
	}

	return user, true, nil
}

// ParseStartParameter extracts a referrer id from a deep-link payload.
// Accepts "ref_<id>" and a bare numeric id.
func ParseStartParameter(payload string) (int64, bool) {
	payload = strings.TrimSpace(payload)
	payload = strings.TrimPrefix(payload, "ref_")
	if payload == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// AttributeByID links user to referrer and schedules the loyalty check.
// The link is permanent; later attempts are rejected.
func (service *ServiceUser) AttributeByID(ctx context.Context, user *models.User, referrerID int64) error {
	if user.ID == referrerID {
		return ErrSelfReferral
	}
	if user.ReferrerID != nil {
		return ErrAlreadyReferred
	}

	exists, err := datastore.CheckUserExists(ctx, service.db, referrerID)
	if err != nil {
		return errorx.Wrap(err, errorx.Service)
	}
	if !exists {
		return ErrReferrerNotFound
	}

	attributed, err := datastore.AttributeReferral(ctx, service.db, user.ID, referrerID)
	if err != nil {
		return errorx.Wrap(err, errorx.Service)
	}
	if !attributed {
		return ErrAlreadyReferred
	}
	user.ReferrerID = &referrerID

	if _, err := service.serviceScheduler.ScheduleLoyaltyCheck(ctx, user.ID, referrerID); err != nil {
		return err
	}

	//nolint:errcheck
	service.notifier.Notify(ctx, referrerID, fmt.Sprintf(MessageNewReferral, user.DisplayName()))

	return nil
}

// AttributeByPromoCode is the fallback path for users who typed a code
// instead of following a deep link.
func (service *ServiceUser) AttributeByPromoCode(ctx context.Context, user *models.User, code string) (*models.User, error) {
	referrer, err := datastore.FindUserByPromoCode(ctx, service.db, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if datastore.IsNotFound(err) {
			return nil, ErrReferrerNotFound
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}

	if err := service.AttributeByID(ctx, user, referrer.ID); err != nil {
		return nil, err
	}

	return referrer, nil
}

// ReferralLink builds the user's personal deep link.
func (service *ServiceUser) ReferralLink(user *models.User) string {
	return fmt.Sprintf("https://t.me/%s?start=ref_%d", os.Getenv("BOT_USERNAME"), user.ID)
}

type UserStats struct {
	Total      int
	JoinedWeek int
	JoinedDay  int
}

func (service *ServiceUser) Stats(ctx context.Context) (*UserStats, error) {
	total, err := datastore.CountUsers(ctx, service.db)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	now := time.Now()
	week, err := datastore.CountUsersJoinedSince(ctx, service.db, now.Add(-7*24*time.Hour))
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	day, err := datastore.CountUsersJoinedSince(ctx, service.db, now.Add(-24*time.Hour))
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return &UserStats{Total: total, JoinedWeek: week, JoinedDay: day}, nil
}
