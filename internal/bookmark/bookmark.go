// Package bookmark stores the session's handbook bookmarks: named markers
// pointing at a page (and optionally a position on it) in the course
// handbook viewer.
package bookmark

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// Bookmark is one saved handbook position.
type Bookmark struct {
	// ID uniquely identifies the bookmark; generated on add when empty.
	ID string `json:"id"`

	// Page is the handbook page the bookmark points at.
	Page int `json:"page"`

	// X and Y are the fractional position on the page, in [0, 1]. Zero
	// values mean "whole page".
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`

	// Name is the user-visible label.
	Name string `json:"name,omitempty"`

	// Timestamp records when the bookmark was created.
	Timestamp time.Time `json:"timestamp"`
}

// MemStore is a thread-safe, in-memory bookmark list preserving insertion
// order. The zero value is ready to use.
type MemStore struct {
	mu        sync.RWMutex
	bookmarks []Bookmark
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Add stores b, generating an ID and timestamp when missing, and returns
// the stored value.
func (s *MemStore) Add(_ context.Context, b Bookmark) Bookmark {
	if b.ID == "" {
		b.ID = newID()
	}
	if b.Timestamp.IsZero() {
		b.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookmarks = append(s.bookmarks, b)
	return b
}

// Delete removes the bookmark with the given ID. Returns false when no
// bookmark has that ID.
func (s *MemStore) Delete(_ context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, b := range s.bookmarks {
		if b.ID == id {
			s.bookmarks = append(s.bookmarks[:i], s.bookmarks[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every bookmark.
func (s *MemStore) Clear(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookmarks = nil
}

// List returns all bookmarks in insertion order.
func (s *MemStore) List(_ context.Context) []Bookmark {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Bookmark, len(s.bookmarks))
	copy(out, s.bookmarks)
	return out
}

// newID produces a random 8-byte hex string.
func newID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
