package models

import "github.com/uptrace/bun"

type AllowedChat struct {
	bun.BaseModel `bun:"table:allowed_chats"`
	Username      string `bun:"chat_username,pk" json:"chat_username"`
}
