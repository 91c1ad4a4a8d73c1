// Package memory provides an in-memory session store for tests and
// single-process use.
package memory

import (
	"context"
	"sync"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore keeps the session in process memory.
type SessionStore struct {
	mu      sync.Mutex
	session *domain.Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Load returns a copy of the stored session, or ErrNotFound if none
// has been saved yet.
func (s *SessionStore) Load(_ context.Context) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, domain.ErrNotFound
	}
	return copySession(s.session), nil
}

// Save stores a copy of the session.
func (s *SessionStore) Save(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = copySession(session)
	return nil
}

// copySession deep-copies a session so callers cannot mutate the
// stored state through shared maps.
func copySession(in *domain.Session) *domain.Session {
	out := &domain.Session{
		ID:             in.ID,
		LastActivity:   in.LastActivity,
		TimeoutMinutes: in.TimeoutMinutes,
		TrackedIndices: make(map[string]struct{}, len(in.TrackedIndices)),
		Documents:      make(map[string]domain.IndexedDocument, len(in.Documents)),
		Selected:       make(map[string]struct{}, len(in.Selected)),
	}
	for name := range in.TrackedIndices {
		out.TrackedIndices[name] = struct{}{}
	}
	for id, doc := range in.Documents {
		out.Documents[id] = doc
	}
	for id := range in.Selected {
		out.Selected[id] = struct{}{}
	}
	return out
}
