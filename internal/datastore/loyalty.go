package datastore

import (
	"context"

	"ambpromo/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableLoyaltyCredits(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.LoyaltyCredit)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.LoyaltyCredit)(nil)).
		Index("index_loyalty_credits_pair").Unique().IfNotExists().
		Column("referrer_id", "referral_id").
		Exec(ctx)
	return err
}

// CreditLoyalReferral records the credit and bumps the referrer's balance
// in one transaction. The unique (referrer_id, referral_id) index turns a
// repeat into a no-op, so both the timer path and reconciliation can call
// this safely. Returns false when the referral was already credited.
func CreditLoyalReferral(ctx context.Context, db *bun.DB, referrerID, referralID int64) (bool, error) {
	var credited bool
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		credit := &models.LoyaltyCredit{
			ReferrerID: referrerID,
			ReferralID: referralID,
		}
		res, err := tx.NewInsert().Model(credit).On("CONFLICT DO NOTHING").Exec(ctx)
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
			Set("loyal_referrals = loyal_referrals + 1").
			Where("user_id = ?", referrerID).
			Exec(ctx); err != nil {
			return err
		}

		credited = true
		return nil
	})
	return credited, err
}

func CountLoyaltyCredits(ctx context.Context, db *bun.DB, referrerID int64) (int, error) {
	return db.NewSelect().Model((*models.LoyaltyCredit)(nil)).
		Where("referrer_id = ?", referrerID).
		Count(ctx)
}
