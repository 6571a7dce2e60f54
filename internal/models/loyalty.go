package models

import (
	"time"

	"github.com/uptrace/bun"
)

// LoyaltyCredit records a single referral credit. The unique pair
// (referrer_id, referral_id) makes crediting idempotent across the timer
// path and manual reconciliation.
type LoyaltyCredit struct {
	bun.BaseModel `bun:"table:loyalty_credits"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	ReferrerID    int64     `bun:"referrer_id,notnull" json:"referrer_id"`
	ReferralID    int64     `bun:"referral_id,notnull" json:"referral_id"`
	CreditedAt    time.Time `bun:"credited_at,notnull,default:current_timestamp" json:"credited_at"`
}
