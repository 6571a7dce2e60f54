package models

import (
	"time"

	"github.com/uptrace/bun"
)

type JobKind string

const (
	JobKindLoyaltyCheck JobKind = "loyalty_check"
	JobKindReminder     JobKind = "reminder"
)

// ScheduledJob is a delayed action persisted so pending timers survive
// restarts. A dispatcher polls for due rows and marks them fired.
type ScheduledJob struct {
	bun.BaseModel `bun:"table:scheduled_jobs"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	Kind          JobKind    `bun:"kind,notnull" json:"kind"`
	UserID        int64      `bun:"user_id,notnull" json:"user_id"`
	ReferrerID    *int64     `bun:"referrer_id" json:"referrer_id"`
	RunAt         time.Time  `bun:"run_at,notnull" json:"run_at"`
	FiredAt       *time.Time `bun:"fired_at" json:"fired_at"`
	CreatedAt     time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
