package main

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v3"

	"ambpromo/internal/models"
	"ambpromo/internal/services"
)

const textStart = `👋 Welcome to the ambassador program!

Invite friends, complete tasks and earn loyalty credits you can trade for rewards.

/link - your personal invite link
/balance - your referral stats
/task - pick a promotion task
/rewards - redeem your credits
/promo - enter a friend's promo code
/help - all commands`

const textHelp = `List of commands:
/link - Get your invite link and promo code
/balance - Check referrals and credits
/task - Get a meme or text to repost
/cancel - Cancel your latest pending task
/rewards - Browse and redeem rewards
/promo - Enter a promo code
/myid - Show your Telegram id`

func commandStart(c tele.Context) error {
	user, _, err := ensureUser(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	// attribute before gating so the deep link is not lost while the
	// user goes off to subscribe
	if payload := c.Message().Payload; payload != "" && user.ReferrerID == nil {
		if referrerID, ok := services.ParseStartParameter(payload); ok {
			serviceUser, err := getService[*services.ServiceUser](c)
			if err != nil {
				return c.Send(fmt.Sprintf("error %s", err.Error()))
			}
			//nolint:errcheck
			serviceUser.AttributeByID(context.Background(), user, referrerID)
		}
	}

	serviceSub, err := getService[*services.ServiceSubscription](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	subscribed, err := serviceSub.IsSubscribed(context.Background(), user.ID)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}
	if !subscribed {
		return c.Send(services.MessageNotSubscribed, checkSubMenu())
	}

	return c.Send(textStart)
}

func callbackCheckSubscription(c tele.Context) error {
	user, _, err := ensureUser(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	serviceSub, err := getService[*services.ServiceSubscription](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	if err := serviceSub.ClearCache(context.Background(), user.ID); err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	subscribed, err := serviceSub.IsSubscribed(context.Background(), user.ID)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}
	if !subscribed {
		return c.Send(services.MessageNotSubscribed, checkSubMenu())
	}

	return c.Send(textStart)
}

func commandHelp(c tele.Context) error {
	return c.Send(textHelp)
}

func commandMyID(c tele.Context) error {
	return c.Send(fmt.Sprintf("Your id: %d", c.Sender().ID))
}

func commandLink(c tele.Context) error {
	user, _, err := ensureUser(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	serviceUser, err := getService[*services.ServiceUser](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	return c.Send(fmt.Sprintf("Your invite link:\n%s\n\nYour promo code: %s\n\nShare either one, both count!",
		serviceUser.ReferralLink(user), user.PromoCode))
}

func commandBalance(c tele.Context) error {
	user, _, err := ensureUser(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	return c.Send(fmt.Sprintf(`📊 Your stats:

Invited friends: %d
Loyal referrals: %d
Credits spent: %d
Available credits: %d

Pending tasks: %d
Completed tasks: %d`,
		user.ReferralCount, user.LoyalReferrals, user.UsedLoyal, user.AvailableBalance(),
		user.PendingTasks, user.CompletedTasks))
}

func commandPromo(c tele.Context) error {
	user, _, err := ensureUser(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	if user.ReferrerID != nil {
		return c.Send("You already have a referrer.")
	}

	sessions, err := getSessions(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	sessions.Set(user.ID, models.StateAwaitingPromoCode, 0)
	return c.Send("Enter the promo code you received from a friend:")
}
