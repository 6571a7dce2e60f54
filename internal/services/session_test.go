package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ambpromo/internal/models"
)

func TestSessionStore(t *testing.T) {
	store := NewSessionStore()

	assert.Equal(t, models.StateIdle, store.Get(1).State)

	store.Set(1, models.StateAwaitingPromoCode, 0)
	store.Set(2, models.StateAwaitingCouponCode, 42)

	assert.Equal(t, models.StateAwaitingPromoCode, store.Get(1).State)
	assert.Equal(t, int64(42), store.Get(2).Payload)

	store.Clear(1)
	assert.Equal(t, models.StateIdle, store.Get(1).State)
	assert.Equal(t, models.StateAwaitingCouponCode, store.Get(2).State)
}
