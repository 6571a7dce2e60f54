package services

import (
	"context"
	"time"

	"github.com/samber/do"
	tele "gopkg.in/telebot.v3"
)

// Bot wraps the telebot client for code that only needs to push
// messages.
type Bot struct {
	client *tele.Bot
}

func NewBot(container *do.Injector) (*Bot, error) {
	client, err := do.Invoke[*tele.Bot](container)
	if err != nil {
		return nil, err
	}
	return &Bot{client}, nil
}

func NewBotFromToken(token string) (*Bot, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	return &Bot{b}, nil
}

func (bot *Bot) Client() *tele.Bot {
	return bot.client
}

func (bot *Bot) Notify(ctx context.Context, chatID int64, text string) error {
	_, err := bot.client.Send(&tele.User{ID: chatID}, text, &tele.SendOptions{
		ParseMode: tele.ModeHTML,
	})
	return err
}

func (bot *Bot) SendPhoto(ctx context.Context, chatID int64, photo *tele.Photo) error {
	_, err := bot.client.Send(&tele.User{ID: chatID}, photo, &tele.SendOptions{
		ParseMode: tele.ModeHTML,
	})
	return err
}
