package driven

import (
	"context"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
)

// SearchQuery is one hybrid (lexical + vector) query against an index.
type SearchQuery struct {
	// Text is the lexical query string.
	Text string

	// Vector is the query embedding. May be nil, in which case the
	// query is lexical-only.
	Vector []float32

	// TopK bounds the number of results.
	TopK int
}

// SearchHit is one chunk record returned by a query, with its
// relevance score as ranked by the index.
type SearchHit struct {
	Chunk domain.Chunk
	Score float64
}

// UploadResult reports the per-record outcome of a batch upload.
// Callers must not assume all-or-nothing.
type UploadResult struct {
	// Key is the chunk id.
	Key string

	// Succeeded reports whether the record was accepted.
	Succeeded bool

	// StatusCode is the per-record status code, when available.
	StatusCode int

	// Message describes the failure, when available.
	Message string
}

// SearchIndex is the external search/index collaborator: a store of
// chunk records supporting lexical and vector similarity queries.
type SearchIndex interface {
	// CreateIndex creates a physical index with the given schema.
	CreateIndex(ctx context.Context, schema domain.IndexSchema) error

	// GetIndex retrieves the descriptor of an existing index.
	// Fails with domain.ErrIndexNotFound when no such index exists.
	GetIndex(ctx context.Context, name string) (*domain.IndexDescriptor, error)

	// DeleteIndex removes an index and all records within it.
	// Deleting a non-existent index is a no-op success, so cleanup paths
	// are safe to call repeatedly.
	DeleteIndex(ctx context.Context, name string) error

	// Upload performs a batch upsert keyed by chunk id and reports the
	// per-record outcome. Fails with domain.ErrIndexNotFound when the
	// index does not exist.
	Upload(ctx context.Context, indexName string, chunks []domain.Chunk) ([]UploadResult, error)

	// Query runs one hybrid query and returns records ranked by the
	// index's own relevance order.
	Query(ctx context.Context, indexName string, query SearchQuery) ([]SearchHit, error)

	// Close releases resources.
	Close() error
}
