package services

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"ambpromo/internal/datastore"
)

type fakeSender struct {
	mu        sync.Mutex
	blocked   map[int64]bool
	delivered []int64
}

func (f *fakeSender) Notify(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.blocked[chatID] {
		return tele.ErrBlockedByUser
	}
	f.delivered = append(f.delivered, chatID)
	return nil
}

func (f *fakeSender) SendPhoto(ctx context.Context, chatID int64, photo *tele.Photo) error {
	return f.Notify(ctx, chatID, photo.Caption)
}

func (f *fakeSender) deliveredSorted() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]int64(nil), f.delivered...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestSendToAll(t *testing.T) {
	checker := &fakeChecker{subscribed: map[int64]bool{}}
	notifier := newFakeNotifier()
	_, db := setupTestContainer(t, checker, notifier)
	ctx := context.Background()

	for id := int64(1); id <= 4; id++ {
		createServiceTestUser(t, db, id)
	}

	sender := &fakeSender{blocked: map[int64]bool{1: true}}
	service := &ServiceBroadcast{db: db, bot: sender, pageSize: 2}

	result, err := service.SendToAll(ctx, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Sent)
	assert.Equal(t, int64(1), result.Failed)

	// a failure inside a page must not make later users miss the message
	assert.Equal(t, []int64{2, 3, 4}, sender.deliveredSorted())

	blocked, err := datastore.FindUserByID(ctx, db, 1)
	require.NoError(t, err)
	require.NotNil(t, blocked.ChatStatus)
	assert.Equal(t, STATUS_BLOCKED, *blocked.ChatStatus)

	// the next run skips the recorded blocker
	sender.delivered = nil
	result, err = service.SendToAll(ctx, "again", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Sent)
	assert.Equal(t, int64(0), result.Failed)
}
