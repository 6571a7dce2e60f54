package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ambpromo/internal/datastore"
	"ambpromo/internal/pkg/caching"
)

// newTestSubscription points the service at a stub Bot API that always
// reports the given member status. An empty status simulates an API
// error response.
func newTestSubscription(t *testing.T, channel, status string) *ServiceSubscription {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status == "" {
			fmt.Fprint(w, `{"ok":false,"description":"Bad Request: chat not found"}`)
			return
		}
		fmt.Fprintf(w, `{"ok":true,"result":{"status":%q}}`, status)
	}))
	t.Cleanup(srv.Close)

	return &ServiceSubscription{&ServiceHTTP{}, caching.NewCacheLocal(100, time.Minute), srv.URL, channel}
}

func TestIsSubscribed(t *testing.T) {
	ctx := context.Background()

	t.Run("no required channel passes everyone", func(t *testing.T) {
		service := newTestSubscription(t, "", "left")

		subscribed, err := service.IsSubscribed(ctx, 1)
		require.NoError(t, err)
		assert.True(t, subscribed)

		report, err := service.DebugReport(ctx, 1)
		require.NoError(t, err)
		assert.True(t, strings.Contains(report, "No required channel"))
	})

	t.Run("member of the channel passes", func(t *testing.T) {
		service := newTestSubscription(t, "@promochannel", "member")

		subscribed, err := service.IsSubscribed(ctx, 1)
		require.NoError(t, err)
		assert.True(t, subscribed)
	})

	t.Run("left the channel fails", func(t *testing.T) {
		service := newTestSubscription(t, "@promochannel", "left")

		subscribed, err := service.IsSubscribed(ctx, 1)
		require.NoError(t, err)
		assert.False(t, subscribed)
	})

	t.Run("api error surfaces", func(t *testing.T) {
		service := newTestSubscription(t, "@promochannel", "")

		_, err := service.IsSubscribed(ctx, 1)
		assert.Error(t, err)
	})
}

func TestChatRef(t *testing.T) {
	assert.Equal(t, "-1002090905218", chatRef("-1002090905218"))
	assert.Equal(t, "@promochannel", chatRef("@promochannel"))
	assert.Equal(t, "@promochannel", chatRef("promochannel"))
}

func TestQualifyReferralRequiresChannelMembership(t *testing.T) {
	checker := newTestSubscription(t, "@promochannel", "left")
	notifier := newFakeNotifier()
	container, db := setupTestContainer(t, checker, notifier)
	ctx := context.Background()

	service, err := NewServiceLoyalty(container)
	require.NoError(t, err)

	referrer := createServiceTestUser(t, db, 1)
	referral := createServiceTestUser(t, db, 2)
	attribute(t, db, referral.ID, referrer.ID)

	// the referral never joined the required channel, so no credit
	credited, err := service.QualifyReferral(ctx, referral.ID, referrer.ID)
	require.NoError(t, err)
	assert.False(t, credited)

	got, err := datastore.FindUserByID(ctx, db, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.LoyalReferrals)
	assert.Equal(t, 0, notifier.count(referrer.ID))
}
