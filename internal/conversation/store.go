// Package conversation holds the ordered dialogue rendered by the client.
package conversation

import (
	"sync"

	"github.com/diogo/projectbrain/internal/models"
)

// Store is an append-only, ordered sequence of messages. It is safe for a
// renderer to read while a turn is being resolved on another goroutine.
type Store struct {
	mu       sync.RWMutex
	messages []models.Message
}

// NewStore creates a store holding the given seed messages
func NewStore(seed ...models.Message) *Store {
	s := &Store{messages: make([]models.Message, 0, len(seed)+16)}
	s.messages = append(s.messages, seed...)
	return s
}

// Append adds a message at the end of the conversation
func (s *Store) Append(msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// All returns a snapshot of every message in insertion order
func (s *Store) All() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Last returns the most recent message
func (s *Store) Last() (models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.messages) == 0 {
		return models.Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}
