package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ambpromo/internal/datastore"
	"ambpromo/internal/models"
)

func TestRedeem(t *testing.T) {
	checker := &fakeChecker{subscribed: map[int64]bool{}}
	notifier := newFakeNotifier()
	container, db := setupTestContainer(t, checker, notifier)
	ctx := context.Background()

	service, err := NewServicePromo(container)
	require.NoError(t, err)

	user := createServiceTestUser(t, db, 1)
	offer := &models.Offer{Title: "Discount", Cost: 2}
	_, err = datastore.CreateOffer(ctx, db, offer)
	require.NoError(t, err)

	t.Run("rejects unknown offers", func(t *testing.T) {
		_, _, err := service.Redeem(ctx, user.ID, 999)
		assert.ErrorIs(t, err, ErrOfferNotFound)
	})

	t.Run("rejects insufficient balance", func(t *testing.T) {
		_, _, err := service.Redeem(ctx, user.ID, offer.ID)
		assert.ErrorIs(t, err, datastore.ErrInsufficientBalance)
	})

	t.Run("debits and opens a review task", func(t *testing.T) {
		for i := int64(10); i < 13; i++ {
			createServiceTestUser(t, db, i)
			credited, err := datastore.CreditLoyalReferral(ctx, db, user.ID, i)
			require.NoError(t, err)
			require.True(t, credited)
		}

		task, got, err := service.Redeem(ctx, user.ID, offer.ID)
		require.NoError(t, err)
		assert.Equal(t, offer.ID, got.ID)
		assert.Equal(t, models.TaskTypePromo, task.Type)
		assert.Equal(t, "offer:1", task.Description)

		updated, err := datastore.FindUserByID(ctx, db, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.UsedLoyal)
		assert.Equal(t, 1, updated.AvailableBalance())
	})
}

func TestApproveAndDecline(t *testing.T) {
	checker := &fakeChecker{subscribed: map[int64]bool{}}
	notifier := newFakeNotifier()
	container, db := setupTestContainer(t, checker, notifier)
	ctx := context.Background()

	service, err := NewServicePromo(container)
	require.NoError(t, err)

	user := createServiceTestUser(t, db, 1)
	offer := &models.Offer{Title: "Free product", Cost: 1}
	_, err = datastore.CreateOffer(ctx, db, offer)
	require.NoError(t, err)

	redeem := func(t *testing.T) *models.Task {
		createServiceTestUser(t, db, int64(100+notifier.count(user.ID)))
		credited, err := datastore.CreditLoyalReferral(ctx, db, user.ID, int64(100+notifier.count(user.ID)))
		require.NoError(t, err)
		require.True(t, credited)

		task, _, err := service.Redeem(ctx, user.ID, offer.ID)
		require.NoError(t, err)
		return task
	}

	t.Run("approve delivers the coupon", func(t *testing.T) {
		task := redeem(t)

		settled, err := service.Approve(ctx, task.ID, "COUPON-42")
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusApproved, settled.Status)
		assert.Equal(t, 1, notifier.count(user.ID))

		delivered, err := datastore.CountCoupons(ctx, db, "promo", true)
		require.NoError(t, err)
		assert.Equal(t, 1, delivered)

		got, err := datastore.FindUserByID(ctx, db, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.PendingTasks)
		assert.Equal(t, 1, got.CompletedTasks)

		_, err = service.Approve(ctx, task.ID, "COUPON-43")
		assert.ErrorIs(t, err, ErrTaskAlreadySettled)
	})

	t.Run("decline keeps credits spent", func(t *testing.T) {
		task := redeem(t)
		before, err := datastore.FindUserByID(ctx, db, user.ID)
		require.NoError(t, err)

		settled, err := service.Decline(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusDeclined, settled.Status)

		after, err := datastore.FindUserByID(ctx, db, user.ID)
		require.NoError(t, err)
		assert.Equal(t, before.UsedLoyal, after.UsedLoyal)
		assert.Equal(t, before.LoyalReferrals, after.LoyalReferrals)
		assert.Equal(t, before.CompletedTasks, after.CompletedTasks)
	})
}
