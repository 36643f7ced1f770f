// Package session keeps per-chat conversation state in memory.
//
// State lives for the process lifetime only. After a restart users simply
// resend their plate; nothing here is worth persisting.
package session

import (
	"sync"
	"time"
)

// State is what the bot remembers about a chat: the last validated mark
// and the score link built for it.
type State struct {
	VRM     string
	URL     string
	SavedAt time.Time
}

// Store is a mutex-guarded map keyed by Telegram chat ID.
type Store struct {
	mu    sync.RWMutex
	chats map[int64]State
}

// New constructs an empty Store.
func New() *Store {
	return &Store{chats: make(map[int64]State)}
}

// Put records the chat's latest plate, replacing any previous one.
func (s *Store) Put(chatID int64, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[chatID] = state
}

// Get returns the chat's current state, if any.
func (s *Store) Get(chatID int64) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.chats[chatID]
	return state, ok
}

// Len reports how many chats currently hold state.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chats)
}
