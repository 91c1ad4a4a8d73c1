package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driven"
	"github.com/datatalk-labs/datatalk-cli/internal/logger"
)

// IndexManager creates, verifies and fills search indices.
type IndexManager struct {
	indexes driven.SearchIndex
}

// NewIndexManager creates a new index manager.
func NewIndexManager(indexes driven.SearchIndex) *IndexManager {
	return &IndexManager{indexes: indexes}
}

// EnsureIndex makes sure an index with the given name exists and
// accepts vectors of the given dimensions. An existing index with
// different dimensions is never silently reused.
func (m *IndexManager) EnsureIndex(ctx context.Context, name string, dimensions int) (*domain.IndexDescriptor, error) {
	existing, err := m.indexes.GetIndex(ctx, name)
	if err == nil {
		if existing.Schema.VectorDimensions != dimensions {
			return nil, fmt.Errorf("index %s expects %d dimensions, embeddings have %d: %w",
				name, existing.Schema.VectorDimensions, dimensions, domain.ErrDimensionMismatch)
		}
		logger.Debug("Index %s already exists", name)
		return existing, nil
	}
	if !errors.Is(err, domain.ErrIndexNotFound) {
		return nil, fmt.Errorf("checking index %s: %w", name, err)
	}

	logger.Info("Creating index %s (%d dimensions)", name, dimensions)
	schema := domain.DefaultSchema(name, dimensions)
	if err := m.indexes.CreateIndex(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating index %s: %w", name, err)
	}

	return &domain.IndexDescriptor{Name: name, Schema: schema}, nil
}

// Upload writes chunks into an existing index. The index must exist;
// per-record failures are collected into a PartialUploadError rather
// than aborting the batch.
func (m *IndexManager) Upload(ctx context.Context, name string, chunks []domain.Chunk) error {
	if _, err := m.indexes.GetIndex(ctx, name); err != nil {
		return fmt.Errorf("upload target %s: %w", name, err)
	}

	results, err := m.indexes.Upload(ctx, name, chunks)
	if err != nil {
		return fmt.Errorf("uploading %d chunks to %s: %w", len(chunks), name, err)
	}

	var failed []string
	for _, r := range results {
		if !r.Succeeded {
			logger.Warn("Chunk %s rejected by index %s: %d %s", r.Key, name, r.StatusCode, r.Message)
			failed = append(failed, r.Key)
		}
	}
	if len(failed) > 0 {
		return &domain.PartialUploadError{IndexName: name, FailedIDs: failed}
	}

	logger.Debug("Uploaded %d chunks to %s", len(chunks), name)
	return nil
}

// DeleteIndex removes an index. Deleting an index that does not exist
// is not an error.
func (m *IndexManager) DeleteIndex(ctx context.Context, name string) error {
	if err := m.indexes.DeleteIndex(ctx, name); err != nil {
		return fmt.Errorf("deleting index %s: %w", name, err)
	}
	logger.Info("Deleted index %s", name)
	return nil
}
