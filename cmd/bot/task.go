package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"ambpromo/internal/models"
	"ambpromo/internal/services"
)

func commandTask(c tele.Context) error {
	user, _, err := ensureUser(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	checker, err := getService[*services.ServiceSubscription](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	subscribed, err := checker.IsSubscribed(context.Background(), user.ID)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}
	if !subscribed {
		return c.Send(services.MessageNotSubscribed)
	}

	return c.Send("Pick a task type:", taskMenu())
}

func callbackTaskMeme(c tele.Context) error {
	user, _, err := ensureUser(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	serviceTask, err := getService[*services.ServiceTask](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	task, tpl, err := serviceTask.IssueMemeTask(context.Background(), user.ID)
	if err != nil {
		if errors.Is(err, services.ErrNoTemplates) {
			return c.Send("No meme templates available right now, try again later.")
		}
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	chats, err := serviceTask.SuggestChats(context.Background())
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	awaitScreenshot(c, user.ID, task.ID)

	caption := tpl.Caption
	if len(chats) > 0 {
		caption += "\n\nPost it in one of these chats:\n" + strings.Join(chats, "\n")
	}
	caption += "\n\nSend a screenshot here when done, or /cancel to drop the task."

	return c.Send(&tele.Photo{
		File:    tele.FromDisk(tpl.FilePath),
		Caption: caption,
	})
}

func callbackTaskText(c tele.Context) error {
	user, _, err := ensureUser(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	serviceTask, err := getService[*services.ServiceTask](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	task, tpl, err := serviceTask.IssueTextTask(context.Background(), user.ID)
	if err != nil {
		if errors.Is(err, services.ErrNoTemplates) {
			return c.Send("No text templates available right now, try again later.")
		}
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	chats, err := serviceTask.SuggestChats(context.Background())
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	awaitScreenshot(c, user.ID, task.ID)

	msg := "Repost this text:\n\n" + tpl.Text
	if len(chats) > 0 {
		msg += "\n\nPost it in one of these chats:\n" + strings.Join(chats, "\n")
	}
	msg += "\n\nSend a screenshot here when done, or /cancel to drop the task."

	return c.Send(msg)
}

func callbackTaskRepost(c tele.Context) error {
	user, _, err := ensureUser(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	serviceTask, err := getService[*services.ServiceTask](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	serviceUser, err := getService[*services.ServiceUser](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	task, err := serviceTask.IssueRepostTask(context.Background(), user.ID)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	chats, err := serviceTask.SuggestChats(context.Background())
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	awaitScreenshot(c, user.ID, task.ID)

	msg := "Share your invite link:\n\n" + serviceUser.ReferralLink(user)
	if len(chats) > 0 {
		msg += "\n\nPost it in one of these chats:\n" + strings.Join(chats, "\n")
	}
	msg += "\n\nSend a screenshot here when done, or /cancel to drop the task."

	return c.Send(msg)
}

// awaitScreenshot arms the session so the next photo is treated as task
// proof.
func awaitScreenshot(c tele.Context, userID, taskID int64) {
	if sessions, err := getSessions(c); err == nil {
		sessions.Set(userID, models.StateAwaitingScreenshot, taskID)
	}
}

func commandCancelTask(c tele.Context) error {
	user, _, err := ensureUser(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	serviceTask, err := getService[*services.ServiceTask](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	cancelled, err := serviceTask.Cancel(context.Background(), user.ID)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}
	if !cancelled {
		return c.Send("You have no pending task to cancel.")
	}

	if sessions, err := getSessions(c); err == nil {
		sessions.Clear(user.ID)
	}

	return c.Send("Your pending task was cancelled. Pick a new one with /task.")
}

func handlePhoto(c tele.Context) error {
	user, _, err := ensureUser(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	sessions, err := getSessions(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	session := sessions.Get(user.ID)
	switch session.State {
	case models.StateAwaitingMemeUpload:
		return handleAdminMemeUpload(c, user)
	case models.StateAwaitingBroadcastText:
		return handleAdminBroadcastPhoto(c, user)
	case models.StateAwaitingScreenshot:
		sessions.Clear(user.ID)
	}

	photo := c.Message().Photo
	if photo == nil {
		return nil
	}

	path := filepath.Join(services.DIR_SCREENSHOTS, fmt.Sprintf("%d_%d.jpg", user.ID, time.Now().Unix()))
	if err := c.Bot().Download(&photo.File, path); err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	serviceTask, err := getService[*services.ServiceTask](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	task, err := serviceTask.SubmitScreenshot(context.Background(), user.ID, path)
	if err != nil {
		if errors.Is(err, services.ErrNoPendingTask) {
			return c.Send("You have no pending task. Pick one with /task first.")
		}
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	notifyAdminsAboutTask(c, task, user)

	return c.Send("📸 Screenshot received! An admin will review your task soon.")
}

// notifyAdminsAboutTask forwards a submission to every admin with
// approve and decline buttons.
func notifyAdminsAboutTask(c tele.Context, task *models.Task, owner *models.User) {
	for _, adminID := range adminIds {
		recipient := &tele.User{ID: adminID}
		if task.ScreenshotPath != nil {
			//nolint:errcheck
			c.Bot().Send(recipient, &tele.Photo{
				File:    tele.FromDisk(*task.ScreenshotPath),
				Caption: services.DescribeTask(task, owner),
			}, reviewMenu(task.ID))
			continue
		}
		//nolint:errcheck
		c.Bot().Send(recipient, services.DescribeTask(task, owner), reviewMenu(task.ID))
	}
}

// handleText routes free-form text through the sender's session state.
func handleText(c tele.Context) error {
	user, _, err := ensureUser(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	sessions, err := getSessions(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	session := sessions.Get(user.ID)
	switch session.State {
	case models.StateAwaitingPromoCode:
		sessions.Clear(user.ID)
		return handlePromoCodeEntry(c, user)
	case models.StateIdle:
		return nil
	default:
		return handleAdminText(c, user, session)
	}
}

func handlePromoCodeEntry(c tele.Context, user *models.User) error {
	serviceUser, err := getService[*services.ServiceUser](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	referrer, err := serviceUser.AttributeByPromoCode(context.Background(), user, c.Text())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReferrerNotFound):
			return c.Send("That promo code does not exist. Check it and try /promo again.")
		case errors.Is(err, services.ErrSelfReferral):
			return c.Send("You cannot use your own promo code.")
		case errors.Is(err, services.ErrAlreadyReferred):
			return c.Send("You already have a referrer.")
		}
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	return c.Send(fmt.Sprintf("✅ Promo code accepted! You were invited by %s.\n\nCheck /rewards for your welcome offers.", referrer.DisplayName()))
}
