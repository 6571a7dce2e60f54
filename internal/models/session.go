package models

// SessionState tracks what kind of input the bot expects next from a user.
type SessionState string

const (
	StateIdle                  SessionState = ""
	StateAwaitingPromoCode     SessionState = "awaiting_promo_code"
	StateAwaitingScreenshot    SessionState = "awaiting_screenshot"
	StateAwaitingBroadcastText SessionState = "awaiting_broadcast_text"
	StateAwaitingCouponCode    SessionState = "awaiting_coupon_code"
	StateAwaitingMemeUpload    SessionState = "awaiting_meme_upload"
	StateAwaitingMemeDelete    SessionState = "awaiting_meme_delete"
	StateAwaitingTextAdd       SessionState = "awaiting_text_add"
	StateAwaitingTextDelete    SessionState = "awaiting_text_delete"
	StateAwaitingChatAdd       SessionState = "awaiting_chat_add"
	StateAwaitingChatDelete    SessionState = "awaiting_chat_delete"
	StateAwaitingOfferAdd      SessionState = "awaiting_offer_add"
	StateAwaitingOfferDelete   SessionState = "awaiting_offer_delete"
)

// Session is the per-user conversational state. Payload carries the
// identifier the pending step needs, e.g. the task id an admin is
// attaching a coupon to.
type Session struct {
	State   SessionState
	Payload int64
}
