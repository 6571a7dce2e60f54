package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v3"

	"ambpromo/internal/datastore"
	"ambpromo/internal/services"
)

func commandRewards(c tele.Context) error {
	if _, _, err := ensureUser(c); err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	servicePromo, err := getService[*services.ServicePromo](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	offers, err := servicePromo.ListOffers(context.Background())
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	if len(offers) == 0 {
		return c.Send("No rewards available yet, check back later.")
	}

	return c.Send("🎁 Available rewards, pick one:", offersMenu(offers))
}

func callbackOffer(c tele.Context) error {
	user, _, err := ensureUser(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	offerID, err := strconv.ParseInt(c.Data(), 10, 64)
	if err != nil {
		return c.Send("Invalid offer")
	}

	servicePromo, err := getService[*services.ServicePromo](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	offer, err := servicePromo.GetOffer(context.Background(), offerID)
	if err != nil {
		if errors.Is(err, services.ErrOfferNotFound) {
			return c.Send("That reward no longer exists.")
		}
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	available := user.AvailableBalance()
	if available < offer.Cost {
		return c.Send(fmt.Sprintf("Not enough credits for %s: %d/%d. Invite more friends to earn credits!",
			offer.Title, available, offer.Cost))
	}

	return c.Send(
		fmt.Sprintf("Redeem %s for %d credits?", offer.Title, offer.Cost),
		redeemMenu(offer.ID),
	)
}

func callbackRedeemConfirm(c tele.Context) error {
	user, _, err := ensureUser(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	offerID, err := strconv.ParseInt(c.Data(), 10, 64)
	if err != nil {
		return c.Send("Invalid offer")
	}

	servicePromo, err := getService[*services.ServicePromo](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	task, offer, err := servicePromo.Redeem(context.Background(), user.ID, offerID)
	if err != nil {
		if errors.Is(err, datastore.ErrInsufficientBalance) {
			return c.Send(fmt.Sprintf("Not enough credits for %s: %d/%d.",
				offer.Title, user.AvailableBalance(), offer.Cost))
		}
		if errors.Is(err, services.ErrOfferNotFound) {
			return c.Send("That reward no longer exists.")
		}
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	notifyAdminsAboutTask(c, task, user)

	return c.Send(fmt.Sprintf("✅ %d credits spent on %s. An admin will send your reward shortly.", offer.Cost, offer.Title))
}

func callbackRedeemCancel(c tele.Context) error {
	return c.Send("Redemption cancelled. Your credits are untouched.")
}
