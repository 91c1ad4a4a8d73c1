package domain

import "time"

// SessionState is the lifecycle state of a session.
type SessionState int

const (
	// SessionActive is the normal state.
	SessionActive SessionState = iota

	// SessionTimedOut means the inactivity timeout has elapsed and the
	// session's indices are due for cleanup.
	SessionTimedOut
)

// DefaultTimeoutMinutes is the default session inactivity timeout.
const DefaultTimeoutMinutes = 60

// IndexedDocument records one successfully indexed document and the
// index holding its chunks.
type IndexedDocument struct {
	ID          string
	DisplayName string
	Format      SourceFormat
	IndexName   string
	IndexedAt   time.Time
}

// Session groups the indices and document selections belonging to one
// usage period. All mutation goes through the session manager; no other
// component writes these fields directly.
type Session struct {
	// ID identifies the session. It survives timeout cleanup: a timed
	// out session re-enters the active state with empty tracked state
	// under the same identifier.
	ID string

	// LastActivity is refreshed on every tracked interaction.
	LastActivity time.Time

	// TimeoutMinutes is the inactivity timeout.
	TimeoutMinutes int

	// TrackedIndices is the set of index names created during this
	// session, the unit of timeout cleanup.
	TrackedIndices map[string]struct{}

	// Documents maps document ID to its indexed-document record,
	// including the document's index name.
	Documents map[string]IndexedDocument

	// Selected is the set of document IDs currently eligible for
	// retrieval. Always a subset of Documents.
	Selected map[string]struct{}
}

// NewSession creates an active session with the given timeout.
func NewSession(id string, timeoutMinutes int, now time.Time) *Session {
	if timeoutMinutes <= 0 {
		timeoutMinutes = DefaultTimeoutMinutes
	}
	return &Session{
		ID:             id,
		LastActivity:   now,
		TimeoutMinutes: timeoutMinutes,
		TrackedIndices: make(map[string]struct{}),
		Documents:      make(map[string]IndexedDocument),
		Selected:       make(map[string]struct{}),
	}
}

// TimedOut reports whether the inactivity timeout has elapsed at now.
func (s *Session) TimedOut(now time.Time) bool {
	timeout := time.Duration(s.TimeoutMinutes) * time.Minute
	return now.Sub(s.LastActivity) > timeout
}

// IndexFor resolves a document ID to its index name.
func (s *Session) IndexFor(documentID string) (string, bool) {
	doc, ok := s.Documents[documentID]
	if !ok {
		return "", false
	}
	return doc.IndexName, true
}

// SelectedIDs returns the selected document IDs in map order.
func (s *Session) SelectedIDs() []string {
	ids := make([]string, 0, len(s.Selected))
	for id := range s.Selected {
		ids = append(ids, id)
	}
	return ids
}

// Clear empties all tracked state. The session identity persists.
func (s *Session) Clear() {
	s.TrackedIndices = make(map[string]struct{})
	s.Documents = make(map[string]IndexedDocument)
	s.Selected = make(map[string]struct{})
}
