package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent pipeline failures the caller can act on.
// They are distinct from the infrastructure errors they wrap.
var (
	// ErrUnsupportedFormat indicates the file does not map to a known
	// normaliser. Non-retryable.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrCorruptDocument indicates normalisation produced zero sections.
	// Non-retryable.
	ErrCorruptDocument = errors.New("document produced no readable sections")

	// ErrCollaboratorUnavailable indicates an external service (document
	// analysis, embedding, search, or answer generation) is unreachable
	// or erroring. Idempotent reads are retried once; index mutations
	// are never retried.
	ErrCollaboratorUnavailable = errors.New("collaborator service unavailable")

	// ErrIndexNotFound indicates an upload or query against an index
	// name with no descriptor.
	ErrIndexNotFound = errors.New("search index not found")

	// ErrEmptySelection signals retrieval was invoked with no selected
	// documents. This is an explicit empty-result signal, distinct from
	// "no relevant matches found".
	ErrEmptySelection = errors.New("no documents selected")

	// ErrDimensionMismatch indicates an embedding vector length does not
	// match the index schema's configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")
)

// PartialUploadError reports that some chunk records of a batch failed
// to upload. The document must not be marked indexed; the caller
// retries the whole document rather than re-uploading only the failed
// ids.
type PartialUploadError struct {
	// IndexName is the target index.
	IndexName string

	// FailedIDs are the chunk ids that failed, in batch order.
	FailedIDs []string
}

// Error implements the error interface.
func (e *PartialUploadError) Error() string {
	return fmt.Sprintf("partial upload to index %q: %d record(s) failed: %s",
		e.IndexName, len(e.FailedIDs), strings.Join(e.FailedIDs, ", "))
}
