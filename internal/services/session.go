package services

import (
	"sync"

	"ambpromo/internal/models"
)

// SessionStore keeps per-user conversational state in memory. State is
// short-lived prompts only, losing it on restart just cancels the
// pending prompt.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]models.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[int64]models.Session{}}
}

func (store *SessionStore) Get(userID int64) models.Session {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.sessions[userID]
}

func (store *SessionStore) Set(userID int64, state models.SessionState, payload int64) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.sessions[userID] = models.Session{State: state, Payload: payload}
}

func (store *SessionStore) Clear(userID int64) {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.sessions, userID)
}
