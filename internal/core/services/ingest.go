package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/datatalk-labs/datatalk-cli/internal/chunker"
	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driven"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driving"
	"github.com/datatalk-labs/datatalk-cli/internal/logger"
)

// Ensure Ingestor implements the interface.
var _ driving.IngestService = (*Ingestor)(nil)

// NormaliserResolver looks up the normaliser for a source format.
type NormaliserResolver interface {
	For(format domain.SourceFormat) (driven.Normaliser, error)
}

// Ingestor runs the full ingestion pipeline: normalise, chunk, embed,
// index, and register the document with the session.
type Ingestor struct {
	normalisers NormaliserResolver
	embedding   *EmbeddingGateway
	indexes     *IndexManager
	sessions    *SessionManager

	baseChunkSize int
	baseOverlap   int
}

// IngestOption configures the ingestor.
type IngestOption func(*Ingestor)

// WithBaseChunking overrides the base chunk size and overlap that the
// per-format policies scale from.
func WithBaseChunking(size, overlap int) IngestOption {
	return func(i *Ingestor) {
		if size > 0 {
			i.baseChunkSize = size
		}
		if overlap >= 0 {
			i.baseOverlap = overlap
		}
	}
}

// NewIngestor creates a new ingestor.
func NewIngestor(
	normalisers NormaliserResolver,
	embedding *EmbeddingGateway,
	indexes *IndexManager,
	sessions *SessionManager,
	opts ...IngestOption,
) *Ingestor {
	i := &Ingestor{
		normalisers:   normalisers,
		embedding:     embedding,
		indexes:       indexes,
		sessions:      sessions,
		baseChunkSize: chunker.DefaultChunkSize,
		baseOverlap:   chunker.DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Ingest reads, normalises, chunks, embeds and indexes one document.
// Re-ingesting a file with the same display name reuses its document
// id, so the refreshed content replaces the old chunks in place. The
// index is tracked with the session before any upload, so cleanup
// covers indices whose upload failed halfway.
func (i *Ingestor) Ingest(ctx context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	logger.Section("Document Ingestion")
	logger.Info("Ingesting %s", req.Path)

	content, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", req.Path, err)
	}

	format := req.Format
	if format == domain.FormatUnknown {
		format = domain.DetectFormat(req.Path)
	}
	if format == domain.FormatUnknown {
		return nil, fmt.Errorf("%s: %w", req.Path, domain.ErrUnsupportedFormat)
	}
	logger.Debug("Format: %s", format)

	session, err := i.sessions.Current(ctx)
	if err != nil {
		return nil, err
	}

	displayName := filepath.Base(req.Path)
	docID := i.documentID(session, displayName)

	normaliser, err := i.normalisers.For(format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", format, err)
	}

	ct, err := normaliser.Normalise(ctx, &domain.RawDocument{
		URI:     req.Path,
		Format:  format,
		Content: content,
	})
	if err != nil {
		return nil, fmt.Errorf("normalising %s: %w", displayName, err)
	}
	logger.Debug("Normalised into %d sections (format %s)", len(ct.Sections), ct.Format)

	// Probe the embedding model before creating anything remote.
	dims, err := i.embedding.ValidateDimensions(ctx)
	if err != nil {
		return nil, err
	}

	doc := domain.Document{
		ID:          docID,
		DisplayName: displayName,
		Format:      ct.Format,
		UploadedAt:  time.Now(),
	}

	policy := chunker.PolicyFor(ct.Format, i.baseChunkSize, i.baseOverlap)
	splitter := chunker.New(
		chunker.WithChunkSize(policy.Size),
		chunker.WithOverlap(policy.Overlap),
	)
	logger.Debug("Chunking policy: size=%d overlap=%d", policy.Size, policy.Overlap)

	chunks, err := splitter.Chunk(ctx, ct, doc, i.embedding.Embed)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%s: %w", displayName, domain.ErrCorruptDocument)
	}
	logger.Info("Produced %d chunks", len(chunks))

	indexName := req.IndexName
	if indexName == "" {
		indexName = domain.IndexNameFor(docID)
	}

	if _, err := i.indexes.EnsureIndex(ctx, indexName, dims); err != nil {
		return nil, err
	}
	if err := i.sessions.TrackIndex(ctx, indexName); err != nil {
		return nil, err
	}

	if err := i.indexes.Upload(ctx, indexName, chunks); err != nil {
		return nil, err
	}

	if err := i.sessions.RegisterDocument(ctx, domain.IndexedDocument{
		ID:          docID,
		DisplayName: displayName,
		Format:      ct.Format,
		IndexName:   indexName,
		IndexedAt:   time.Now(),
	}); err != nil {
		return nil, err
	}

	logger.Info("Indexed %s as %s", displayName, indexName)
	return &driving.IngestResult{
		Document:   doc,
		IndexName:  indexName,
		ChunkCount: len(chunks),
	}, nil
}

// documentID reuses the id of a previously indexed document with the
// same display name, so re-ingestion replaces rather than duplicates.
func (i *Ingestor) documentID(session *domain.Session, displayName string) string {
	for _, doc := range session.Documents {
		if doc.DisplayName == displayName {
			logger.Debug("Reusing document id %s for %s", doc.ID, displayName)
			return doc.ID
		}
	}
	return uuid.NewString()
}
