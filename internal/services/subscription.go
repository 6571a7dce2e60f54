package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"

	"ambpromo/internal/pkg/caching"
)

type TelegramUserChannel struct {
	Status string `json:"status"`
}

type TelegramUserChannelResp struct {
	OK          bool                 `json:"ok"`
	Result      *TelegramUserChannel `json:"result"`
	Description string               `json:"description"`
}

// ServiceSubscription checks membership of the required channel via the
// Bot API. Results are cached for a short window so button spamming does
// not hammer Telegram.
type ServiceSubscription struct {
	*ServiceHTTP
	cache   caching.Cache
	baseURL string
	channel string
}

func NewServiceSubscription(container *do.Injector) (*ServiceSubscription, error) {
	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceSubscription{&ServiceHTTP{}, cache, TELEGRAM_API_BASE_URL, os.Getenv("CHANNEL_ID")}, nil
}

// IsSubscribed reports whether the user is a member of the required
// channel. With no channel configured, everyone passes.
func (service *ServiceSubscription) IsSubscribed(ctx context.Context, userID int64) (bool, error) {
	callback := func() (bool, error) {
		return service.checkSubscription(ctx, userID)
	}

	return caching.UseCache(ctx, service.cache, CacheKeySubscription(userID), CACHE_TTL_30_SECONDS, callback)
}

func (service *ServiceSubscription) checkSubscription(ctx context.Context, userID int64) (bool, error) {
	if service.channel == "" {
		return true, nil
	}

	member, err := service.apiChatMember(ctx, userID, service.channel)
	if err != nil {
		return false, err
	}
	if member == nil {
		return false, nil
	}

	return isSubscribedStatus(member.Status), nil
}

func isSubscribedStatus(status string) bool {
	switch status {
	case "member", "creator", "administrator":
		return true
	}
	return false
}

// ClearCache drops the cached verdict so the next check hits Telegram.
func (service *ServiceSubscription) ClearCache(ctx context.Context, userID int64) error {
	return service.cache.Delete(ctx, CacheKeySubscription(userID))
}

// DebugReport runs an uncached membership check against the required
// channel and returns a report for admin troubleshooting.
func (service *ServiceSubscription) DebugReport(ctx context.Context, userID int64) (string, error) {
	if service.channel == "" {
		return "No required channel configured, subscription checks pass for everyone.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Subscription debug for user %d:\n", userID)

	member, err := service.apiChatMember(ctx, userID, service.channel)
	switch {
	case err != nil:
		fmt.Fprintf(&sb, "%s: error (%v)\n", service.channel, err)
	case member == nil:
		fmt.Fprintf(&sb, "%s: no result\n", service.channel)
	default:
		fmt.Fprintf(&sb, "%s: %s (counts: %v)\n", service.channel, member.Status, isSubscribedStatus(member.Status))
	}

	return sb.String(), nil
}

func (service *ServiceSubscription) apiChatMember(ctx context.Context, userID int64, channel string) (*TelegramUserChannel, error) {
	resp, err := service.httpClient(0).Get(
		fmt.Sprintf("%s/bot%s/getChatMember?chat_id=%s&user_id=%d", service.baseURL, os.Getenv("BOT_TOKEN"), chatRef(channel), userID),
		http.Header{},
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body TelegramUserChannelResp
	err = json.NewDecoder(resp.Body).Decode(&body)
	if err != nil {
		return nil, err
	}

	if !body.OK {
		return nil, errorx.Wrap(errors.New(body.Description), errorx.Service)
	}

	return body.Result, nil
}

// chatRef renders CHANNEL_ID for the Bot API. Numeric ids pass through,
// usernames get the @ prefix.
func chatRef(channel string) string {
	if strings.HasPrefix(channel, "@") {
		return channel
	}
	if _, err := strconv.ParseInt(channel, 10, 64); err == nil {
		return channel
	}
	return "@" + channel
}
