package driven

import (
	"context"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
)

// Normaliser converts one source format into canonical text.
// Each normaliser handles exactly one source format.
type Normaliser interface {
	// Format returns the source format this normaliser handles.
	Format() domain.SourceFormat

	// Normalise transforms a raw document into canonical text.
	// Fails with domain.ErrCorruptDocument when the underlying parser
	// cannot extract any section.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.CanonicalText, error)
}
