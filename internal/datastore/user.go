package datastore

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"math/big"
	"time"

	"ambpromo/internal/models"

	"github.com/uptrace/bun"
)

const promoCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const promoCodeLength = 6

func CreateTableUsers(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.User)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	// sqlite has no ADD COLUMN IF NOT EXISTS, so additive migrations for
	// databases created before these columns existed go through a
	// table_info check.
	for _, col := range []struct {
		name string
		ddl  string
	}{
		{"promo_code", `ALTER TABLE users ADD COLUMN promo_code VARCHAR`},
		{"referrals_count", `ALTER TABLE users ADD COLUMN referrals_count INTEGER DEFAULT 0`},
		{"loyal_referrals", `ALTER TABLE users ADD COLUMN loyal_referrals INTEGER DEFAULT 0`},
		{"used_loyal", `ALTER TABLE users ADD COLUMN used_loyal INTEGER DEFAULT 0`},
		{"pending_tasks", `ALTER TABLE users ADD COLUMN pending_tasks INTEGER DEFAULT 0`},
		{"completed_tasks", `ALTER TABLE users ADD COLUMN completed_tasks INTEGER DEFAULT 0`},
		{"joined_date", `ALTER TABLE users ADD COLUMN joined_date TIMESTAMP DEFAULT current_timestamp`},
		{"chat_status", `ALTER TABLE users ADD COLUMN chat_status VARCHAR DEFAULT NULL`},
	} {
		exists, err := columnExists(ctx, db, "users", col.name)
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

	_, err = db.NewCreateIndex().Model((*models.User)(nil)).Index("index_users_promo_code").Unique().IfNotExists().Column("promo_code").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.User)(nil)).Index("index_users_ref_by").IfNotExists().Column("ref_by").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.User)(nil)).Index("index_users_chat_status").IfNotExists().Column("chat_status").Exec(ctx)
	if err != nil {
		return err
	}

	return BackfillPromoCodes(ctx, db)
}

func columnExists(ctx context.Context, db *bun.DB, table, column string) (bool, error) {
	var count int
	err := db.NewRaw("SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column).Scan(ctx, &count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// BackfillPromoCodes assigns codes to users created before promo codes
// were introduced.
func BackfillPromoCodes(ctx context.Context, db *bun.DB) error {
	var ids []int64
	err := db.NewSelect().Model((*models.User)(nil)).Column("user_id").
		Where("promo_code IS NULL OR promo_code = ''").
		Scan(ctx, &ids)
	if err != nil {
		return err
	}

	for _, id := range ids {
		code, err := GeneratePromoCode(ctx, db)
		if err != nil {
			return err
		}
		_, err = db.NewUpdate().Model((*models.User)(nil)).
			Set("promo_code = ?", code).
			Where("user_id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	return nil
}

// GeneratePromoCode draws random codes until one is unused.
func GeneratePromoCode(ctx context.Context, db *bun.DB) (string, error) {
	for {
		buf := make([]byte, promoCodeLength)
		for i := range buf {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(promoCodeAlphabet))))
			if err != nil {
				return "", err
			}
			buf[i] = promoCodeAlphabet[n.Int64()]
		}
		code := string(buf)

		exists, err := db.NewSelect().Model((*models.User)(nil)).Where("promo_code = ?", code).Exists(ctx)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
}

func FindUserByID(ctx context.Context, db *bun.DB, userID int64) (*models.User, error) {
	var user models.User
	err := db.NewSelect().Model(&user).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByPromoCode(ctx context.Context, db *bun.DB, code string) (*models.User, error) {
	var user models.User
	err := db.NewSelect().Model(&user).Where("promo_code = ?", code).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func CheckUserExists(ctx context.Context, db *bun.DB, userID int64) (bool, error) {
	return db.NewSelect().Model((*models.User)(nil)).Where("user_id = ?", userID).Exists(ctx)
}

func CreateUser(ctx context.Context, db *bun.DB, user *models.User) (*models.User, error) {
	_, err := db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func UpdateUserProfile(ctx context.Context, db *bun.DB, user *models.User) (*models.User, error) {
	_, err := db.NewUpdate().Model(user).
		Set("username = ?", user.Username).
		Set("first_name = ?", user.FirstName).
		Set("last_name = ?", user.LastName).
		WherePK().Exec(ctx)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// AttributeReferral links the referral to its referrer once. The WHERE on
// ref_by being null makes the first writer win; a second attempt changes
// no rows and returns false.
func AttributeReferral(ctx context.Context, db *bun.DB, referralID, referrerID int64) (bool, error) {
	var attributed bool
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("ref_by = ?", referrerID).
			Where("user_id = ?", referralID).
			Where("ref_by IS NULL").
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}

		if _, err := tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("referrals_count = referrals_count + 1").
			Where("user_id = ?", referrerID).
			Exec(ctx); err != nil {
			return err
		}

		attributed = true
		return nil
	})
	return attributed, err
}

// AddLoyalReferral bumps the referrer's earned balance. Callers gate this
// behind the loyalty_credits ledger so a referral is counted at most once.
func AddLoyalReferral(ctx context.Context, db *bun.DB, referrerID int64) error {
	_, err := db.NewUpdate().
		Model((*models.User)(nil)).
		Set("loyal_referrals = loyal_referrals + 1").
		Where("user_id = ?", referrerID).
		Exec(ctx)
	return err
}

var ErrInsufficientBalance = errors.New("insufficient loyalty balance")

// SpendCredit debits the user's balance and opens a review task for the
// offer in one transaction. The balance condition sits in the UPDATE's
// WHERE clause so a concurrent redemption cannot overspend.
func SpendCredit(ctx context.Context, db *bun.DB, userID int64, offer *models.Offer, description string) (*models.Task, error) {
	var task *models.Task
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("used_loyal = used_loyal + ?", offer.Cost).
			Set("pending_tasks = pending_tasks + 1").
			Where("user_id = ?", userID).
			Where("(loyal_referrals - used_loyal) >= ?", offer.Cost).
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrInsufficientBalance
		}

		offerID := offer.ID
		task = &models.Task{
			UserID:      userID,
			Type:        models.TaskTypePromo,
			Status:      models.TaskStatusPending,
			Description: description,
			OfferID:     &offerID,
			CreatedAt:   time.Now(),
		}
		if _, err := tx.NewInsert().Model(task).Exec(ctx); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func CountUsers(ctx context.Context, db *bun.DB) (int, error) {
	return db.NewSelect().Model((*models.User)(nil)).Count(ctx)
}

func CountUsersJoinedSince(ctx context.Context, db *bun.DB, since time.Time) (int, error) {
	return db.NewSelect().Model((*models.User)(nil)).Where("joined_date >= ?", since).Count(ctx)
}

func GetUsersSortedByCreatedAt(ctx context.Context, db *bun.DB, limit, offset int) ([]*models.User, error) {
	var users []*models.User
	err := db.NewSelect().Model(&users).Order("joined_date ASC").Limit(limit).Offset(offset).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return users, nil
}

// GetChatAvailableUsersAfter pages reachable users with a keyset cursor.
// Rows whose chat_status gets set mid-run are already behind the cursor,
// so later pages never shift.
func GetChatAvailableUsersAfter(ctx context.Context, db *bun.DB, afterID int64, limit int) ([]*models.User, error) {
	var users []*models.User
	err := db.NewSelect().Model(&users).
		Where("chat_status IS NULL").
		Where("user_id > ?", afterID).
		Order("user_id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return users, nil
}

func GetRecentUsers(ctx context.Context, db *bun.DB, limit int) ([]*models.User, error) {
	var users []*models.User
	err := db.NewSelect().Model(&users).Order("joined_date DESC").Limit(limit).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return users, nil
}

// GetReferralsOlderThan returns attributed users whose join date passed
// the loyalty window. Reconciliation feeds these through the credit
// ledger, so already-credited rows are harmless here.
func GetReferralsOlderThan(ctx context.Context, db *bun.DB, cutoff time.Time) ([]*models.User, error) {
	var users []*models.User
	err := db.NewSelect().Model(&users).
		Where("ref_by IS NOT NULL").
		Where("joined_date < ?", cutoff).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return users, nil
}

func UpdateUserStatus(ctx context.Context, db *bun.DB, userID int64, status string) error {
	_, err := db.NewUpdate().
		Model((*models.User)(nil)).
		Set("chat_status = ?", status).
		Where("user_id = ?", userID).
		Exec(ctx)
	return err
}

func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
