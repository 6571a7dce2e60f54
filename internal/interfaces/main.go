package interfaces

import "context"

// Notifier delivers bot messages outside of a handler's reply flow,
// e.g. loyalty credit notices and admin alerts.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// SubscriptionChecker reports whether a user is a member of a channel.
type SubscriptionChecker interface {
	IsSubscribed(ctx context.Context, userID int64) (bool, error)
}
