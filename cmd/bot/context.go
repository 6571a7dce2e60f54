package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/do"
	"github.com/uptrace/bun"
	tele "gopkg.in/telebot.v3"

	"ambpromo/internal/interfaces"
	"ambpromo/internal/models"
	"ambpromo/internal/services"
)

func getContextContainer(context tele.Context) (*do.Injector, error) {
	contextValue := context.Get(contextContainer)
	if contextValue == nil {
		return nil, fmt.Errorf("container not found")
	}

	result, ok := contextValue.(*do.Injector)
	if !ok {
		return nil, fmt.Errorf("container not valid")
	}

	return result, nil
}

func getDbFromContext(c tele.Context) (*bun.DB, error) {
	return getService[*bun.DB](c)
}

func getService[T any](c tele.Context) (T, error) {
	var zero T
	container, err := getContextContainer(c)
	if err != nil {
		return zero, err
	}
	return do.Invoke[T](container)
}

// ensureUser registers or refreshes the sender before a handler runs.
func ensureUser(c tele.Context) (*models.User, bool, error) {
	serviceUser, err := getService[*services.ServiceUser](c)
	if err != nil {
		return nil, false, err
	}

	sender := c.Sender()
	return serviceUser.FindOrCreateUser(context.Background(), &models.User{
		ID:        sender.ID,
		Username:  strings.ToLower(sender.Username),
		FirstName: sender.FirstName,
		LastName:  sender.LastName,
	})
}

func getSessions(c tele.Context) (*services.SessionStore, error) {
	return getService[*services.SessionStore](c)
}

// newReminderHandler nudges users who never subscribed after joining.
func newReminderHandler(checker interfaces.SubscriptionChecker, notifier interfaces.Notifier) services.JobHandler {
	return func(ctx context.Context, job *models.ScheduledJob) error {
		subscribed, err := checker.IsSubscribed(ctx, job.UserID)
		if err != nil {
			return err
		}
		if subscribed {
			return nil
		}
		return notifier.Notify(ctx, job.UserID, services.MessageReminder)
	}
}
