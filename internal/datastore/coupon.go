package datastore

import (
	"context"

	"ambpromo/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableCoupons(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Coupon)(nil)).IfNotExists().Exec(ctx)
	return err
}

func CreateCoupon(ctx context.Context, db *bun.DB, coupon *models.Coupon) (*models.Coupon, error) {
	_, err := db.NewInsert().Model(coupon).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return coupon, nil
}

func MarkCouponUsed(ctx context.Context, db *bun.DB, couponID int64) error {
	_, err := db.NewUpdate().
		Model((*models.Coupon)(nil)).
		Set("used = ?", true).
		Where("id = ?", couponID).
		Exec(ctx)
	return err
}

func CountCoupons(ctx context.Context, db *bun.DB, kind string, used bool) (int, error) {
	return db.NewSelect().Model((*models.Coupon)(nil)).
		Where("type = ?", kind).
		Where("used = ?", used).
		Count(ctx)
}
