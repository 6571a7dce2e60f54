package models

import "github.com/uptrace/bun"

type Offer struct {
	bun.BaseModel `bun:"table:promo_offers"`
	ID            int64  `bun:"offer_id,pk,autoincrement" json:"offer_id"`
	Title         string `bun:"title,notnull" json:"title"`
	Cost          int    `bun:"cost,notnull" json:"cost"`
}
