package driven

import (
	"context"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
)

// SessionStore persists the current session's tracked state: the
// document-to-index mapping, the tracked index set, and the selection.
// The in-memory implementation lives for one process; the sqlite
// implementation lets the CLI resume a session across invocations.
type SessionStore interface {
	// Load retrieves the current session.
	// Fails with domain.ErrNotFound when no session has been saved.
	Load(ctx context.Context) (*domain.Session, error)

	// Save stores or updates the current session.
	Save(ctx context.Context, session *domain.Session) error
}
