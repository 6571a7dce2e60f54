package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditLoyalReferral(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	referrer := createTestUser(t, db, 1)
	referral := createTestUser(t, db, 2)

	credited, err := CreditLoyalReferral(ctx, db, referrer.ID, referral.ID)
	require.NoError(t, err)
	assert.True(t, credited)

	got, err := FindUserByID(ctx, db, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LoyalReferrals)

	// the unique pair makes repeats free
	for i := 0; i < 3; i++ {
		credited, err = CreditLoyalReferral(ctx, db, referrer.ID, referral.ID)
		require.NoError(t, err)
		assert.False(t, credited)
	}

	got, err = FindUserByID(ctx, db, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LoyalReferrals)

	count, err := CountLoyaltyCredits(ctx, db, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
