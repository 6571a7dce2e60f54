package datastore

import (
	"context"

	"github.com/uptrace/bun"
)

// Migrate creates every table and applies additive column migrations.
// All steps are idempotent, so it runs on every startup.
func Migrate(ctx context.Context, db *bun.DB) error {
	for _, fn := range []func(context.Context, *bun.DB) error{
		CreateTableUsers,
		CreateTableTasks,
		CreateTableOffers,
		CreateTableCoupons,
		CreateTableTemplates,
		CreateTableAllowedChats,
		CreateTableLoyaltyCredits,
		CreateTableScheduledJobs,
	} {
		if err := fn(ctx, db); err != nil {
			return err
		}
	}

	return nil
}
