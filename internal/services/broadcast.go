package services

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
	tele "gopkg.in/telebot.v3"

	"ambpromo/internal/datastore"
	"ambpromo/internal/models"
)

type BroadcastResult struct {
	Sent   int64
	Failed int64
}

type broadcastSender interface {
	Notify(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, photo *tele.Photo) error
}

// ServiceBroadcast fans a message out to every reachable user. Users who
// blocked the bot get their chat_status recorded and are skipped on the
// next run.
type ServiceBroadcast struct {
	db       *bun.DB
	bot      broadcastSender
	pageSize int
}

func NewServiceBroadcast(container *do.Injector) (*ServiceBroadcast, error) {
	db, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	bot, err := do.Invoke[*Bot](container)
	if err != nil {
		return nil, err
	}

	return &ServiceBroadcast{db, bot, BROADCAST_PAGE_SIZE}, nil
}

// SendToAll pages through users with a keyset cursor and sends
// concurrently within each page. The cursor keeps failed sends from
// shifting later pages, and a short sleep between pages keeps the send
// rate under Telegram limits.
func (service *ServiceBroadcast) SendToAll(ctx context.Context, text string, photo *tele.Photo) (*BroadcastResult, error) {
	result := &BroadcastResult{}
	lastID := int64(0)

	for {
		users, err := datastore.GetChatAvailableUsersAfter(ctx, service.db, lastID, service.pageSize)
		if err != nil {
			return result, errorx.Wrap(err, errorx.Service)
		}

		if len(users) == 0 {
			break
		}
		lastID = users[len(users)-1].ID

		start := time.Now()

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(20)
		for _, user := range users {
			user := user
			g.Go(func() error {
				var err error
				if photo != nil {
					p := *photo
					p.Caption = text
					err = service.bot.SendPhoto(gctx, user.ID, &p)
				} else {
					err = service.bot.Notify(gctx, user.ID, text)
				}
				if err != nil {
					atomic.AddInt64(&result.Failed, 1)
					service.recordSendFailure(gctx, user, err)
					return nil
				}
				atomic.AddInt64(&result.Sent, 1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return result, err
		}

		if time.Since(start) < time.Second {
			time.Sleep(time.Second)
		}
	}

	return result, nil
}

func (service *ServiceBroadcast) recordSendFailure(ctx context.Context, user *models.User, sendErr error) {
	var status string
	switch {
	case errors.Is(sendErr, tele.ErrBlockedByUser):
		status = STATUS_BLOCKED
	case errors.Is(sendErr, tele.ErrChatNotFound):
		status = STATUS_CHAT_NOT_FOUND
	case errors.Is(sendErr, tele.ErrUserIsDeactivated):
		status = STATUS_DEACTIVATED
	default:
		log.Printf("broadcast to %d: %v", user.ID, sendErr)
		return
	}

	if err := datastore.UpdateUserStatus(ctx, service.db, user.ID, status); err != nil {
		log.Printf("update user %d status: %v", user.ID, err)
	}
}
