package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driven"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driving"
	"github.com/datatalk-labs/datatalk-cli/internal/logger"
)

// Ensure SessionManager implements the interface.
var _ driving.SessionService = (*SessionManager)(nil)

// SessionManager owns the current session: loading it, timing it out,
// tracking indices and indexed documents, and tearing everything down
// on cleanup.
type SessionManager struct {
	mu             sync.Mutex
	store          driven.SessionStore
	indexes        *IndexManager
	timeoutMinutes int
	cleanupOnExit  bool

	now func() time.Time
}

// SessionOption configures the session manager.
type SessionOption func(*SessionManager)

// WithTimeout overrides the inactivity timeout in minutes.
func WithTimeout(minutes int) SessionOption {
	return func(m *SessionManager) {
		if minutes > 0 {
			m.timeoutMinutes = minutes
		}
	}
}

// WithCleanupOnExit controls whether Close tears indices down.
func WithCleanupOnExit(enabled bool) SessionOption {
	return func(m *SessionManager) {
		m.cleanupOnExit = enabled
	}
}

// WithClock replaces the time source, used by tests.
func WithClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewSessionManager creates a session manager backed by the given
// store and index manager.
func NewSessionManager(store driven.SessionStore, indexes *IndexManager, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		store:          store,
		indexes:        indexes,
		timeoutMinutes: domain.DefaultTimeoutMinutes,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns the active session, creating one on first use. A
// session past its inactivity timeout is cleaned up first, then reused
// with fresh state. The call itself counts as activity.
func (m *SessionManager) Current(ctx context.Context) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.load(ctx)
	if err != nil {
		return nil, err
	}

	now := m.now()
	if session.TimedOut(now) {
		logger.Info("Session %s timed out after %d minutes of inactivity", session.ID, session.TimeoutMinutes)
		m.teardown(ctx, session)
	}

	session.LastActivity = now
	if err := m.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	return session, nil
}

// Check reports the session's state without refreshing its activity
// timestamp or triggering cleanup.
func (m *SessionManager) Check(ctx context.Context) (domain.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.load(ctx)
	if err != nil {
		return domain.SessionActive, err
	}
	if session.TimedOut(m.now()) {
		return domain.SessionTimedOut, nil
	}
	return domain.SessionActive, nil
}

// TrackIndex records an index as owned by the session so cleanup can
// delete it later, even if the upload that follows fails.
func (m *SessionManager) TrackIndex(ctx context.Context, name string) error {
	return m.update(ctx, func(session *domain.Session) {
		session.TrackedIndices[name] = struct{}{}
		logger.Debug("Tracking index %s", name)
	})
}

// RegisterDocument records a successfully indexed document and adds it
// to the retrieval selection.
func (m *SessionManager) RegisterDocument(ctx context.Context, doc domain.IndexedDocument) error {
	return m.update(ctx, func(session *domain.Session) {
		session.Documents[doc.ID] = doc
		session.Selected[doc.ID] = struct{}{}
		logger.Debug("Registered document %s (%s) in index %s", doc.ID, doc.DisplayName, doc.IndexName)
	})
}

// Select replaces the retrieval selection. Every id must refer to an
// indexed document.
func (m *SessionManager) Select(ctx context.Context, documentIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.load(ctx)
	if err != nil {
		return err
	}

	for _, id := range documentIDs {
		if _, ok := session.Documents[id]; !ok {
			return fmt.Errorf("document %s is not indexed: %w", id, domain.ErrNotFound)
		}
	}

	session.Selected = make(map[string]struct{}, len(documentIDs))
	for _, id := range documentIDs {
		session.Selected[id] = struct{}{}
	}
	session.LastActivity = m.now()

	if err := m.store.Save(ctx, session); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Status returns the session without counting as activity.
func (m *SessionManager) Status(ctx context.Context) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(ctx)
}

// Cleanup deletes every tracked index and clears the session's
// document state, regardless of timeout.
func (m *SessionManager) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.load(ctx)
	if err != nil {
		return err
	}

	m.teardown(ctx, session)

	if err := m.store.Save(ctx, session); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// RemoveIndex deletes one index and unregisters every document mapped
// to it.
func (m *SessionManager) RemoveIndex(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.load(ctx)
	if err != nil {
		return err
	}
	if _, tracked := session.TrackedIndices[name]; !tracked {
		return fmt.Errorf("index %s: %w", name, domain.ErrIndexNotFound)
	}

	if err := m.indexes.DeleteIndex(ctx, name); err != nil {
		return err
	}

	delete(session.TrackedIndices, name)
	for id, doc := range session.Documents {
		if doc.IndexName == name {
			delete(session.Documents, id)
			delete(session.Selected, id)
		}
	}

	if err := m.store.Save(ctx, session); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Close runs cleanup when the manager was configured to tear down on
// exit.
func (m *SessionManager) Close(ctx context.Context) error {
	if !m.cleanupOnExit {
		return nil
	}
	return m.Cleanup(ctx)
}

// load fetches the persisted session or creates a fresh one.
// Callers must hold the mutex.
func (m *SessionManager) load(ctx context.Context) (*domain.Session, error) {
	session, err := m.store.Load(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		session = domain.NewSession(uuid.NewString(), m.timeoutMinutes, m.now())
		logger.Debug("Created session %s", session.ID)
		return session, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return session, nil
}

// teardown deletes every tracked index best-effort and clears the
// session's document state. The session identity survives.
func (m *SessionManager) teardown(ctx context.Context, session *domain.Session) {
	for name := range session.TrackedIndices {
		if err := m.indexes.DeleteIndex(ctx, name); err != nil {
			logger.Warn("Failed to delete index %s during cleanup: %v", name, err)
		}
	}
	session.Clear()
	logger.Info("Session %s cleaned up", session.ID)
}

// update loads the session, applies fn, and saves it.
func (m *SessionManager) update(ctx context.Context, fn func(*domain.Session)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.load(ctx)
	if err != nil {
		return err
	}

	fn(session)
	session.LastActivity = m.now()

	if err := m.store.Save(ctx, session); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}
