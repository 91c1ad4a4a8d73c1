package driving

import (
	"context"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
)

// SessionService administers the current session and its indices.
type SessionService interface {
	// Status returns the current session without refreshing its
	// activity timestamp.
	Status(ctx context.Context) (*domain.Session, error)

	// Select replaces the set of documents eligible for retrieval.
	// Every id must belong to an indexed document.
	Select(ctx context.Context, documentIDs []string) error

	// RemoveIndex deletes one index and unregisters every document
	// mapped to it.
	RemoveIndex(ctx context.Context, indexName string) error

	// Cleanup deletes all tracked indices and clears the session's
	// document state, regardless of timeout.
	Cleanup(ctx context.Context) error
}
