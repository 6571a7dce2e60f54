package models

import "github.com/uptrace/bun"

type Coupon struct {
	bun.BaseModel `bun:"table:coupons"`
	ID            int64  `bun:"id,pk,autoincrement" json:"id"`
	Code          string `bun:"code" json:"code"`
	Kind          string `bun:"type" json:"type"`
	Used          bool   `bun:"used" json:"used"`
}
