package services

import (
	"context"
	"testing"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ambpromo/internal/datastore"
	"ambpromo/internal/models"
)

func TestParseStartParameter(t *testing.T) {
	cases := []struct {
		payload string
		want    int64
		ok      bool
	}{
		{"ref_123", 123, true},
		{"123", 123, true},
		{" ref_42 ", 42, true},
		{"ref_", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}

	for _, tc := range cases {
		got, ok := ParseStartParameter(tc.payload)
		assert.Equal(t, tc.ok, ok, tc.payload)
		assert.Equal(t, tc.want, got, tc.payload)
	}
}

func TestFindOrCreateUser(t *testing.T) {
	checker := &fakeChecker{subscribed: map[int64]bool{}}
	notifier := newFakeNotifier()
	container, db := setupTestContainer(t, checker, notifier)
	do.Provide(container, NewServiceUser)
	ctx := context.Background()

	service, err := do.Invoke[*ServiceUser](container)
	require.NoError(t, err)

	t.Run("creates with promo code and reminder", func(t *testing.T) {
		user, created, err := service.FindOrCreateUser(ctx, &models.User{ID: 1, Username: "alice"})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Len(t, user.PromoCode, 6)

		pending, err := datastore.CountPendingJobs(ctx, db, models.JobKindReminder)
		require.NoError(t, err)
		assert.Equal(t, 1, pending)
	})

	t.Run("refreshes an existing profile", func(t *testing.T) {
		user, created, err := service.FindOrCreateUser(ctx, &models.User{ID: 1, Username: "alice_renamed"})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "alice_renamed", user.Username)

		pending, err := datastore.CountPendingJobs(ctx, db, models.JobKindReminder)
		require.NoError(t, err)
		assert.Equal(t, 1, pending)
	})
}

func TestAttribution(t *testing.T) {
	checker := &fakeChecker{subscribed: map[int64]bool{}}
	notifier := newFakeNotifier()
	container, db := setupTestContainer(t, checker, notifier)
	do.Provide(container, NewServiceUser)
	ctx := context.Background()

	service, err := do.Invoke[*ServiceUser](container)
	require.NoError(t, err)

	referrer := createServiceTestUser(t, db, 1)
	user := createServiceTestUser(t, db, 2)

	t.Run("rejects self referral", func(t *testing.T) {
		err := service.AttributeByID(ctx, user, user.ID)
		assert.ErrorIs(t, err, ErrSelfReferral)
	})

	t.Run("rejects unknown referrer", func(t *testing.T) {
		err := service.AttributeByID(ctx, user, 999)
		assert.ErrorIs(t, err, ErrReferrerNotFound)
	})

	t.Run("attributes and schedules the loyalty check", func(t *testing.T) {
		require.NoError(t, service.AttributeByID(ctx, user, referrer.ID))

		got, err := datastore.FindUserByID(ctx, db, user.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ReferrerID)
		assert.Equal(t, referrer.ID, *got.ReferrerID)

		pending, err := datastore.CountPendingJobs(ctx, db, models.JobKindLoyaltyCheck)
		require.NoError(t, err)
		assert.Equal(t, 1, pending)

		assert.Equal(t, 1, notifier.count(referrer.ID))
	})

	t.Run("rejects a second referrer", func(t *testing.T) {
		err := service.AttributeByID(ctx, user, referrer.ID)
		assert.ErrorIs(t, err, ErrAlreadyReferred)
	})

	t.Run("promo code path", func(t *testing.T) {
		another := createServiceTestUser(t, db, 3)

		got, err := service.AttributeByPromoCode(ctx, another, " "+referrer.PromoCode+" ")
		require.NoError(t, err)
		assert.Equal(t, referrer.ID, got.ID)

		_, err = service.AttributeByPromoCode(ctx, createServiceTestUser(t, db, 4), "NOPE99")
		assert.ErrorIs(t, err, ErrReferrerNotFound)
	})
}
