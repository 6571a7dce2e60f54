package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"ambpromo/internal/datastore"
	"ambpromo/internal/models"
	"ambpromo/internal/services"
)

const textAdmin = `Admin commands:
/stats - User and task statistics
/export - Export users to CSV
/broadcast - Send a message to all users
/message <user_id> <text> - Send a message to one user
/check_tasks - Review the next submitted task
/check_loyalty - Reconcile missed loyalty credits
/debug_sub <user_id> - Probe subscription status
/clear_cache <user_id> - Drop cached subscription verdict
/db_status - Database health report
/refresh - Re-check your own subscription

Content:
/add_meme /del_meme /list_memes
/add_text /del_text /list_texts
/add_chat /del_chat /list_chats
/add_offer /del_offer /list_offers`

func commandAdmin(c tele.Context) error {
	if !AuthRequireUsers(c, adminIds) {
		return nil
	}

	return c.Send(textAdmin)
}

func commandStats(c tele.Context) error {
	if !AuthRequireUsers(c, adminIds) {
		return nil
	}

	serviceUser, err := getService[*services.ServiceUser](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	stats, err := serviceUser.Stats(context.Background())
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	db, err := getDbFromContext(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	pending, err := datastore.CountTasksByStatus(context.Background(), db, models.TaskStatusPending)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	awaiting, err := datastore.CountTasksByStatus(context.Background(), db, models.TaskStatusAwaitingReview)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	coupons, err := datastore.CountCoupons(context.Background(), db, "promo", true)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	return c.Send(fmt.Sprintf(`📈 Stats:

Tasks pending: %d
Tasks awaiting review: %d
Coupons delivered: %d

Users total: %d
Joined this week: %d
Joined today: %d`, pending, awaiting, coupons, stats.Total, stats.JoinedWeek, stats.JoinedDay))
}

func commandExport(c tele.Context) error {
	if !AuthRequireUsers(c, adminIds) {
		return nil
	}

	db, err := getDbFromContext(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	path := filepath.Join(services.DIR_EXPORTS, fmt.Sprintf("users_%s.csv", time.Now().Format("20060102_150405")))
	count, err := services.ExportUsersCSV(context.Background(), db, path)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	return c.Send(&tele.Document{
		File:     tele.FromDisk(path),
		FileName: filepath.Base(path),
		Caption:  fmt.Sprintf("Exported %d users", count),
	})
}

func commandBroadcast(c tele.Context) error {
	if !AuthRequireUsers(c, adminIds) {
		return nil
	}

	sessions, err := getSessions(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	sessions.Set(c.Sender().ID, models.StateAwaitingBroadcastText, 0)
	return c.Send("Send the broadcast message (text, or a photo with caption):")
}

func commandMessage(c tele.Context) error {
	if !AuthRequireUsers(c, adminIds) {
		return nil
	}

	args := c.Args()
	if len(args) < 2 {
		return c.Send("Usage: /message <user_id> <text>")
	}

	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send("Usage: /message <user_id> <text>")
	}

	notifier, err := getService[*services.Bot](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	if err := notifier.Notify(context.Background(), userID, strings.Join(args[1:], " ")); err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	return c.Send(fmt.Sprintf("Message delivered to %d.", userID))
}

func commandCheckTasks(c tele.Context) error {
	if !AuthRequireUsers(c, adminIds) {
		return nil
	}

	serviceTask, err := getService[*services.ServiceTask](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	task, err := serviceTask.NextReview(context.Background())
	if err != nil {
		return c.Send("No tasks awaiting review.")
	}

	db, err := getDbFromContext(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	owner, err := datastore.FindUserByID(context.Background(), db, task.UserID)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	if task.ScreenshotPath != nil {
		return c.Send(&tele.Photo{
			File:    tele.FromDisk(*task.ScreenshotPath),
			Caption: services.DescribeTask(task, owner),
		}, reviewMenu(task.ID))
	}

	return c.Send(services.DescribeTask(task, owner), reviewMenu(task.ID))
}

func commandCheckLoyalty(c tele.Context) error {
	if !AuthRequireUsers(c, adminIds) {
		return nil
	}

	serviceLoyalty, err := getService[*services.ServiceLoyalty](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	result, err := serviceLoyalty.Reconcile(context.Background())
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	return c.Send(fmt.Sprintf("Loyalty reconciliation done: scanned %d referrals, credited %d.", result.Scanned, result.Credited))
}

func commandDebugSub(c tele.Context) error {
	if !AuthRequireUsers(c, adminIds) {
		return nil
	}

	userID := c.Sender().ID
	if args := c.Args(); len(args) > 0 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send("Usage: /debug_sub <user_id>")
		}
		userID = id
	}

	serviceSub, err := getService[*services.ServiceSubscription](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	report, err := serviceSub.DebugReport(context.Background(), userID)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	return c.Send(report)
}

func commandClearCache(c tele.Context) error {
	if !AuthRequireUsers(c, adminIds) {
		return nil
	}

	userID := c.Sender().ID
	if args := c.Args(); len(args) > 0 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send("Usage: /clear_cache <user_id>")
		}
		userID = id
	}

	serviceSub, err := getService[*services.ServiceSubscription](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	if err := serviceSub.ClearCache(context.Background(), userID); err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	return c.Send(fmt.Sprintf("Subscription cache cleared for %d.", userID))
}

func commandDBStatus(c tele.Context) error {
	if !AuthRequireUsers(c, adminIds) {
		return nil
	}

	db, err := getDbFromContext(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	ctx := context.Background()

	var sb strings.Builder
	sb.WriteString("🗄 Database status:\n")

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "bot.db"
	}
	if info, err := os.Stat(dbPath); err == nil {
		fmt.Fprintf(&sb, "File size: %.1f KB\n", float64(info.Size())/1024)
	}

	count, err := datastore.CountUsers(ctx, db)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}
	fmt.Fprintf(&sb, "Users: %d\n", count)

	var integrity string
	if err := db.NewRaw("PRAGMA integrity_check").Scan(ctx, &integrity); err == nil {
		fmt.Fprintf(&sb, "Integrity: %s\n", integrity)
	}

	recent, err := datastore.GetRecentUsers(ctx, db, 3)
	if err == nil && len(recent) > 0 {
		sb.WriteString("Recent users:\n")
		for _, user := range recent {
			fmt.Fprintf(&sb, "  %d %s (%s)\n", user.ID, user.DisplayName(), user.JoinedAt.Format("2006-01-02 15:04"))
		}
	}

	return c.Send(sb.String())
}

func commandRefresh(c tele.Context) error {
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

	if subscribed {
		return c.Send("✅ Subscription confirmed, you are all set.")
	}
	return c.Send(services.MessageNotSubscribed)
}

func callbackApproveTask(c tele.Context) error {
	if !AuthRequireUsers(c, adminIds) {
		return nil
	}

	taskID, err := strconv.ParseInt(c.Data(), 10, 64)
	if err != nil {
		return c.Send("Invalid task")
	}

	db, err := getDbFromContext(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	task, err := datastore.FindTaskByID(context.Background(), db, taskID)
	if err != nil {
		return c.Send("Task not found.")
	}

	// redemptions need a coupon code from the admin before settling
	if task.Type == models.TaskTypePromo {
		sessions, err := getSessions(c)
		if err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		sessions.Set(c.Sender().ID, models.StateAwaitingCouponCode, taskID)
		return c.Send(fmt.Sprintf("Send the coupon code for task #%d:", taskID))
	}

	serviceTask, err := getService[*services.ServiceTask](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	task, err = serviceTask.Approve(context.Background(), taskID)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	return c.Send(fmt.Sprintf("Task #%d approved.", task.ID))
}

func callbackDeclineTask(c tele.Context) error {
	if !AuthRequireUsers(c, adminIds) {
		return nil
	}

	taskID, err := strconv.ParseInt(c.Data(), 10, 64)
	if err != nil {
		return c.Send("Invalid task")
	}

	db, err := getDbFromContext(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	task, err := datastore.FindTaskByID(context.Background(), db, taskID)
	if err != nil {
		return c.Send("Task not found.")
	}

	if task.Type == models.TaskTypePromo {
		servicePromo, err := getService[*services.ServicePromo](c)
		if err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		if _, err := servicePromo.Decline(context.Background(), taskID); err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		return c.Send(fmt.Sprintf("Redemption #%d declined. Credits stay spent.", taskID))
	}

	serviceTask, err := getService[*services.ServiceTask](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	if _, err := serviceTask.Decline(context.Background(), taskID); err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	return c.Send(fmt.Sprintf("Task #%d declined.", taskID))
}

// handleAdminText finishes the multi-step admin flows started by the
// content and broadcast commands.
func handleAdminText(c tele.Context, user *models.User, session models.Session) error {
	if !AuthRequireUsers(c, adminIds) {
		return nil
	}

	sessions, err := getSessions(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	db, err := getDbFromContext(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	ctx := context.Background()
	text := strings.TrimSpace(c.Text())
	sessions.Clear(user.ID)

	switch session.State {
	case models.StateAwaitingBroadcastText:
		serviceBroadcast, err := getService[*services.ServiceBroadcast](c)
		if err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		result, err := serviceBroadcast.SendToAll(ctx, text, nil)
		if err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		return c.Send(fmt.Sprintf("Broadcast done: %d sent, %d failed.", result.Sent, result.Failed))

	case models.StateAwaitingCouponCode:
		servicePromo, err := getService[*services.ServicePromo](c)
		if err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		task, err := servicePromo.Approve(ctx, session.Payload, text)
		if err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		return c.Send(fmt.Sprintf("Redemption #%d approved, coupon delivered.", task.ID))

	case models.StateAwaitingTextAdd:
		if _, err := datastore.CreateTextTemplate(ctx, db, &models.TextTemplate{Text: text}); err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		return c.Send("Text template added.")

	case models.StateAwaitingTextDelete:
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return c.Send("Send a numeric template id.")
		}
		deleted, err := datastore.DeleteTextTemplate(ctx, db, id)
		if err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		if !deleted {
			return c.Send("No template with that id.")
		}
		return c.Send("Text template deleted.")

	case models.StateAwaitingMemeDelete:
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return c.Send("Send a numeric template id.")
		}
		tpl, err := datastore.FindMemeTemplateByID(ctx, db, id)
		if err != nil {
			if datastore.IsNotFound(err) {
				return c.Send("No template with that id.")
			}
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		if _, err := datastore.DeleteMemeTemplate(ctx, db, id); err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		//nolint:errcheck
		os.Remove(tpl.FilePath)
		return c.Send("Meme template deleted.")

	case models.StateAwaitingChatAdd:
		if err := datastore.AddAllowedChat(ctx, db, text); err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		return c.Send("Chat added to the allow list.")

	case models.StateAwaitingChatDelete:
		removed, err := datastore.RemoveAllowedChat(ctx, db, text)
		if err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		if !removed {
			return c.Send("That chat is not on the list.")
		}
		return c.Send("Chat removed from the allow list.")

	case models.StateAwaitingOfferAdd:
		parts := strings.SplitN(text, ";", 2)
		if len(parts) != 2 {
			return c.Send("Format: <title>;<cost>")
		}
		cost, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || cost <= 0 {
			return c.Send("Cost must be a positive number.")
		}
		offer := &models.Offer{Title: strings.TrimSpace(parts[0]), Cost: cost}
		if _, err := datastore.CreateOffer(ctx, db, offer); err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		return c.Send(fmt.Sprintf("Offer #%d added: %s for %d credits.", offer.ID, offer.Title, offer.Cost))

	case models.StateAwaitingOfferDelete:
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return c.Send("Send a numeric offer id.")
		}
		deleted, err := datastore.DeleteOffer(ctx, db, id)
		if err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		if !deleted {
			return c.Send("No offer with that id.")
		}
		return c.Send("Offer deleted.")
	}

	return nil
}

func handleAdminMemeUpload(c tele.Context, user *models.User) error {
	if !AuthRequireUsers(c, adminIds) {
		return nil
	}

	sessions, err := getSessions(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}
	sessions.Clear(user.ID)

	photo := c.Message().Photo
	if photo == nil {
		return c.Send("Send a photo to add it as a meme template.")
	}

	path := filepath.Join(services.DIR_MEMES, fmt.Sprintf("meme_%d.jpg", time.Now().UnixNano()))
	if err := c.Bot().Download(&photo.File, path); err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	db, err := getDbFromContext(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	tpl := &models.MemeTemplate{FilePath: path, Caption: c.Message().Caption}
	if _, err := datastore.CreateMemeTemplate(context.Background(), db, tpl); err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	return c.Send(fmt.Sprintf("Meme template #%d added.", tpl.ID))
}

func handleAdminBroadcastPhoto(c tele.Context, user *models.User) error {
	if !AuthRequireUsers(c, adminIds) {
		return nil
	}

	sessions, err := getSessions(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}
	sessions.Clear(user.ID)

	photo := c.Message().Photo
	if photo == nil {
		return nil
	}

	serviceBroadcast, err := getService[*services.ServiceBroadcast](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	result, err := serviceBroadcast.SendToAll(context.Background(), c.Message().Caption, photo)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	return c.Send(fmt.Sprintf("Broadcast done: %d sent, %d failed.", result.Sent, result.Failed))
}

func handleContentCommands(b *tele.Bot) {
	promptState := func(state models.SessionState, prompt string) tele.HandlerFunc {
		return func(c tele.Context) error {
			if !AuthRequireUsers(c, adminIds) {
				return nil
			}
			sessions, err := getSessions(c)
			if err != nil {
				return c.Send(fmt.Sprintf("error %s", err.Error()))
			}
			sessions.Set(c.Sender().ID, state, 0)
			return c.Send(prompt)
		}
	}

	b.Handle("/add_meme", promptState(models.StateAwaitingMemeUpload, "Send the meme photo (caption optional):"))
	b.Handle("/del_meme", promptState(models.StateAwaitingMemeDelete, "Send the meme template id to delete:"))
	b.Handle("/add_text", promptState(models.StateAwaitingTextAdd, "Send the text template:"))
	b.Handle("/del_text", promptState(models.StateAwaitingTextDelete, "Send the text template id to delete:"))
	b.Handle("/add_chat", promptState(models.StateAwaitingChatAdd, "Send the chat username (with or without @):"))
	b.Handle("/del_chat", promptState(models.StateAwaitingChatDelete, "Send the chat username to remove:"))
	b.Handle("/add_offer", promptState(models.StateAwaitingOfferAdd, "Send the offer as <title>;<cost>:"))
	b.Handle("/del_offer", promptState(models.StateAwaitingOfferDelete, "Send the offer id to delete:"))

	b.Handle("/list_memes", func(c tele.Context) error {
		if !AuthRequireUsers(c, adminIds) {
			return nil
		}
		db, err := getDbFromContext(c)
		if err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		tpls, err := datastore.GetMemeTemplates(context.Background(), db)
		if err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		if len(tpls) == 0 {
			return c.Send("No meme templates.")
		}
		var sb strings.Builder
		for _, tpl := range tpls {
			fmt.Fprintf(&sb, "#%d %s\n", tpl.ID, tpl.FilePath)
		}
		return c.Send(sb.String())
	})

	b.Handle("/list_texts", func(c tele.Context) error {
		if !AuthRequireUsers(c, adminIds) {
			return nil
		}
		db, err := getDbFromContext(c)
		if err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		tpls, err := datastore.GetTextTemplates(context.Background(), db)
		if err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		if len(tpls) == 0 {
			return c.Send("No text templates.")
		}
		var sb strings.Builder
		for _, tpl := range tpls {
			fmt.Fprintf(&sb, "#%d %s\n", tpl.ID, tpl.Text)
		}
		return c.Send(sb.String())
	})

	b.Handle("/list_chats", func(c tele.Context) error {
		if !AuthRequireUsers(c, adminIds) {
			return nil
		}
		db, err := getDbFromContext(c)
		if err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		chats, err := datastore.GetAllowedChats(context.Background(), db)
		if err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		if len(chats) == 0 {
			return c.Send("No allowed chats.")
		}
		var sb strings.Builder
		for _, chat := range chats {
			fmt.Fprintf(&sb, "@%s\n", chat.Username)
		}
		return c.Send(sb.String())
	})

	b.Handle("/list_offers", func(c tele.Context) error {
		if !AuthRequireUsers(c, adminIds) {
			return nil
		}
		db, err := getDbFromContext(c)
		if err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		offers, err := datastore.GetOffers(context.Background(), db)
		if err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}
		if len(offers) == 0 {
			return c.Send("No offers.")
		}
		var sb strings.Builder
		for _, offer := range offers {
			fmt.Fprintf(&sb, "#%d %s - %d credits\n", offer.ID, offer.Title, offer.Cost)
		}
		return c.Send(sb.String())
	})
}
