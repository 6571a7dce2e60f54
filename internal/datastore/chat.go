package datastore

import (
	"context"
	"strings"

	"ambpromo/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableAllowedChats(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.AllowedChat)(nil)).IfNotExists().Exec(ctx)
	return err
}

func AddAllowedChat(ctx context.Context, db *bun.DB, username string) error {
	chat := &models.AllowedChat{Username: normalizeChatUsername(username)}
	_, err := db.NewInsert().Model(chat).On("CONFLICT DO NOTHING").Exec(ctx)
	return err
}

func RemoveAllowedChat(ctx context.Context, db *bun.DB, username string) (bool, error) {
	res, err := db.NewDelete().Model((*models.AllowedChat)(nil)).
		Where("chat_username = ?", normalizeChatUsername(username)).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func GetAllowedChats(ctx context.Context, db *bun.DB) ([]*models.AllowedChat, error) {
	var chats []*models.AllowedChat
	err := db.NewSelect().Model(&chats).Order("chat_username ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// GetRandomAllowedChats picks up to limit chats for a repost suggestion.
func GetRandomAllowedChats(ctx context.Context, db *bun.DB, limit int) ([]*models.AllowedChat, error) {
	var chats []*models.AllowedChat
	err := db.NewSelect().Model(&chats).OrderExpr("RANDOM()").Limit(limit).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return chats, nil
}

func normalizeChatUsername(username string) string {
	return strings.TrimPrefix(strings.TrimSpace(username), "@")
}
