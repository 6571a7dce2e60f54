package main

import (
	"fmt"

	tele "gopkg.in/telebot.v3"

	"ambpromo/internal/models"
)

var (
	btnTaskMeme   = tele.Btn{Unique: "task-meme", Text: "🖼 Meme task"}
	btnTaskText   = tele.Btn{Unique: "task-text", Text: "✍️ Text task"}
	btnTaskRepost = tele.Btn{Unique: "task-repost", Text: "🔁 Repost task"}

	btnCheckSub = tele.Btn{Unique: "check-sub", Text: "✅ I subscribed"}

	btnOffer         = tele.Btn{Unique: "offer"}
	btnRedeemConfirm = tele.Btn{Unique: "redeem-confirm"}
	btnRedeemCancel  = tele.Btn{Unique: "redeem-cancel", Text: "❌ Cancel"}

	btnApproveTask = tele.Btn{Unique: "approve-task"}
	btnDeclineTask = tele.Btn{Unique: "decline-task"}
)

func taskMenu() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnTaskMeme),
		menu.Row(btnTaskText),
		menu.Row(btnTaskRepost),
	)
	return menu
}

func checkSubMenu() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(btnCheckSub))
	return menu
}

func offersMenu(offers []*models.Offer) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(offers))
	for _, offer := range offers {
		btn := menu.Data(
			fmt.Sprintf("%s - %d 💎", offer.Title, offer.Cost),
			btnOffer.Unique,
			fmt.Sprintf("%d", offer.ID),
		)
		rows = append(rows, menu.Row(btn))
	}
	menu.Inline(rows...)
	return menu
}

func redeemMenu(offerID int64) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	confirm := menu.Data("✅ Confirm", btnRedeemConfirm.Unique, fmt.Sprintf("%d", offerID))
	menu.Inline(menu.Row(confirm, btnRedeemCancel))
	return menu
}

func reviewMenu(taskID int64) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	approve := menu.Data("✅ Approve", btnApproveTask.Unique, fmt.Sprintf("%d", taskID))
	decline := menu.Data("❌ Decline", btnDeclineTask.Unique, fmt.Sprintf("%d", taskID))
	menu.Inline(menu.Row(approve, decline))
	return menu
}
