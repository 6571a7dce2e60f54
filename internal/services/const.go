package services

import (
	"fmt"
	"time"
)

const (
	TELEGRAM_API_BASE_URL = "https://api.telegram.org"

	CACHE_TTL_30_SECONDS = 30 * time.Second
	CACHE_TTL_1_MIN      = 1 * time.Minute

	LOYALTY_WINDOW          = 3 * 24 * time.Hour
	REMINDER_DELAY          = 23 * time.Minute
	REPOST_CHAT_SUGGESTIONS = 5

	BROADCAST_PAGE_SIZE = 100

	STATUS_BLOCKED        = "blocked"
	STATUS_CHAT_NOT_FOUND = "chat_not_found"
	STATUS_DEACTIVATED    = "deactivated"

	DIR_MEMES       = "memes"
	DIR_SCREENSHOTS = "screenshots"
	DIR_EXPORTS     = "exports"
)

const MessageNewReferral = `👥 %s joined using your invite!

They will count as a loyal referral after staying subscribed for 3 days.`

const MessageLoyalReferral = `🎉 Your invited friend %s stayed with us and is now a loyal referral!

Your balance grew by 1 credit. Check /balance and trade credits for rewards with /rewards.`

const MessageReminder = `👋 Still here? Subscribe to our channel and start inviting friends to earn rewards!

Use /link to get your personal invite link.`

const MessageNotSubscribed = `⚠️ Please subscribe to our channel first, then try again.`

const MessageNotAuthorized = `You are not authorized to perform this action`

func CacheKeySubscription(userID int64) string {
	return fmt.Sprintf("subscription:%d", userID)
}
