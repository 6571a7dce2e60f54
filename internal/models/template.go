package models

import "github.com/uptrace/bun"

type MemeTemplate struct {
	bun.BaseModel `bun:"table:meme_templates"`
	ID            int64  `bun:"id,pk,autoincrement" json:"id"`
	FilePath      string `bun:"file_path" json:"file_path"`
	Caption       string `bun:"text" json:"text"`
}

type TextTemplate struct {
	bun.BaseModel `bun:"table:text_templates"`
	ID            int64  `bun:"id,pk,autoincrement" json:"id"`
	Text          string `bun:"text" json:"text"`
}
