package driving

import (
	"context"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
)

// IngestRequest describes one file to ingest.
type IngestRequest struct {
	// Path is the file to ingest.
	Path string

	// Format is the declared source format. FormatUnknown means detect
	// from the file extension.
	Format domain.SourceFormat

	// IndexName overrides the derived per-document index name. Empty
	// means derive from the document id.
	IndexName string
}

// IngestResult reports a completed ingestion.
type IngestResult struct {
	// Document is the indexed document.
	Document domain.Document

	// IndexName is the index holding the document's chunks.
	IndexName string

	// ChunkCount is the number of chunk records uploaded.
	ChunkCount int
}

// IngestService normalises, chunks, embeds, and indexes documents.
type IngestService interface {
	// Ingest processes one file end to end. A failure aborts processing
	// of that file only; other indexed documents and the session remain
	// usable.
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)
}
