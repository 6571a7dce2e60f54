package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"ambpromo/internal/models"
)

func setupTestDB(t *testing.T) *bun.DB {
	sqldb, err := sql.Open("sqlite3", fmt.Sprintf("file:%p?mode=memory&cache=shared", t))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, Migrate(context.Background(), db))

	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *bun.DB, id int64) *models.User {
	ctx := context.Background()
	code, err := GeneratePromoCode(ctx, db)
	require.NoError(t, err)

	user := &models.User{
		ID:        id,
		Username:  fmt.Sprintf("user%d", id),
		FirstName: "Test",
		PromoCode: code,
		JoinedAt:  time.Now(),
	}
	_, err = CreateUser(ctx, db, user)
	require.NoError(t, err)
	return user
}

func TestGeneratePromoCode(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		code, err := GeneratePromoCode(ctx, db)
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.False(t, seen[code], "codes should not repeat in a small sample")
		seen[code] = true
	}
}

func TestFindUserByPromoCode(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, 100)

	found, err := FindUserByPromoCode(ctx, db, user.PromoCode)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = FindUserByPromoCode(ctx, db, "MISSING")
	assert.True(t, IsNotFound(err))
}

func TestAttributeReferral(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	referrer := createTestUser(t, db, 1)
	referral := createTestUser(t, db, 2)
	other := createTestUser(t, db, 3)

	t.Run("first attribution wins", func(t *testing.T) {
		attributed, err := AttributeReferral(ctx, db, referral.ID, referrer.ID)
		require.NoError(t, err)
		assert.True(t, attributed)

		got, err := FindUserByID(ctx, db, referral.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ReferrerID)
		assert.Equal(t, referrer.ID, *got.ReferrerID)

		gotReferrer, err := FindUserByID(ctx, db, referrer.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, gotReferrer.ReferralCount)
	})

	t.Run("second attribution is a no-op", func(t *testing.T) {
		attributed, err := AttributeReferral(ctx, db, referral.ID, other.ID)
		require.NoError(t, err)
		assert.False(t, attributed)

		got, err := FindUserByID(ctx, db, referral.ID)
		require.NoError(t, err)
		assert.Equal(t, referrer.ID, *got.ReferrerID)

		gotOther, err := FindUserByID(ctx, db, other.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, gotOther.ReferralCount)
	})
}

func TestSpendCredit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, 10)
	offer := &models.Offer{Title: "Discount", Cost: 2}
	_, err := CreateOffer(ctx, db, offer)
	require.NoError(t, err)

	t.Run("insufficient balance", func(t *testing.T) {
		_, err := SpendCredit(ctx, db, user.ID, offer, "offer:1")
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("debits and opens task", func(t *testing.T) {
		for i := int64(20); i < 23; i++ {
			createTestUser(t, db, i)
			credited, err := CreditLoyalReferral(ctx, db, user.ID, i)
			require.NoError(t, err)
			require.True(t, credited)
		}

		task, err := SpendCredit(ctx, db, user.ID, offer, "offer:1")
		require.NoError(t, err)
		assert.Equal(t, models.TaskTypePromo, task.Type)
		assert.Equal(t, models.TaskStatusPending, task.Status)

		got, err := FindUserByID(ctx, db, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.UsedLoyal)
		assert.Equal(t, 1, got.AvailableBalance())
		assert.Equal(t, 1, got.PendingTasks)
	})

	t.Run("balance check in debit", func(t *testing.T) {
		// available is 1, cost is 2
		_, err := SpendCredit(ctx, db, user.ID, offer, "offer:1")
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})
}

func TestGetReferralsOlderThan(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	referrer := createTestUser(t, db, 1)

	old := createTestUser(t, db, 2)
	_, err := db.NewUpdate().Model((*models.User)(nil)).
		Set("joined_date = ?", time.Now().Add(-4*24*time.Hour)).
		Where("user_id = ?", old.ID).Exec(ctx)
	require.NoError(t, err)

	fresh := createTestUser(t, db, 3)

	for _, id := range []int64{old.ID, fresh.ID} {
		attributed, err := AttributeReferral(ctx, db, id, referrer.ID)
		require.NoError(t, err)
		require.True(t, attributed)
	}

	got, err := GetReferralsOlderThan(ctx, db, time.Now().Add(-3*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, old.ID, got[0].ID)
}

func TestUpdateUserStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, 5)
	require.NoError(t, UpdateUserStatus(ctx, db, user.ID, "blocked"))

	got, err := FindUserByID(ctx, db, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ChatStatus)
	assert.Equal(t, "blocked", *got.ChatStatus)

	available, err := GetChatAvailableUsersAfter(ctx, db, 0, 100)
	require.NoError(t, err)
	for _, u := range available {
		assert.NotEqual(t, user.ID, u.ID)
	}
}

func TestGetChatAvailableUsersAfter(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for id := int64(1); id <= 4; id++ {
		createTestUser(t, db, id)
	}

	first, err := GetChatAvailableUsersAfter(ctx, db, 0, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, int64(1), first[0].ID)
	assert.Equal(t, int64(2), first[1].ID)

	// marking a delivered user unreachable must not shift the next page
	require.NoError(t, UpdateUserStatus(ctx, db, 1, "blocked"))

	second, err := GetChatAvailableUsersAfter(ctx, db, first[1].ID, 2)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, int64(3), second[0].ID)
	assert.Equal(t, int64(4), second[1].ID)
}
