package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel  `bun:"table:users"`
	ID             int64     `bun:"user_id,pk" json:"user_id"`
	Username       string    `bun:"username" json:"username"`
	FirstName      string    `bun:"first_name" json:"first_name"`
	LastName       string    `bun:"last_name" json:"last_name"`
	ReferrerID     *int64    `bun:"ref_by" json:"ref_by"`
	PromoCode      string    `bun:"promo_code" json:"promo_code"`
	ReferralCount  int       `bun:"referrals_count" json:"referrals_count"`
	LoyalReferrals int       `bun:"loyal_referrals" json:"loyal_referrals"`
	UsedLoyal      int       `bun:"used_loyal" json:"used_loyal"`
	PendingTasks   int       `bun:"pending_tasks" json:"pending_tasks"`
	CompletedTasks int       `bun:"completed_tasks" json:"completed_tasks"`
	JoinedAt       time.Time `bun:"joined_date,default:current_timestamp" json:"joined_date"`
	ChatStatus     *string   `bun:"chat_status" json:"chat_status"`
}

// AvailableBalance is loyal referrals minus credit already spent, floored at
// zero for display.
func (u *User) AvailableBalance() int {
	available := u.LoyalReferrals - u.UsedLoyal
	if available < 0 {
		return 0
	}
	return available
}

// DisplayName prefers @username, falls back to first/last name.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}
