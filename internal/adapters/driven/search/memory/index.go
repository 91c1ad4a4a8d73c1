// Package memory provides an in-memory search index. It mirrors the
// remote index contract closely enough for offline use and tests:
// schema-checked uploads, per-record failure reporting, and combined
// vector plus text scoring.
package memory

import (
	"context"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.SearchIndex = (*Index)(nil)

type storedIndex struct {
	schema domain.IndexSchema
	docs   map[string]domain.Chunk
}

// Index is an in-memory search index keyed by index name.
type Index struct {
	mu      sync.RWMutex
	indices map[string]*storedIndex
}

// New creates an empty in-memory index.
func New() *Index {
	return &Index{
		indices: make(map[string]*storedIndex),
	}
}

// CreateIndex registers a new index with the given schema.
func (m *Index) CreateIndex(_ context.Context, schema domain.IndexSchema) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.indices[schema.Name] = &storedIndex{
		schema: schema,
		docs:   make(map[string]domain.Chunk),
	}
	return nil
}

// GetIndex returns the descriptor for an existing index.
func (m *Index) GetIndex(_ context.Context, name string) (*domain.IndexDescriptor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, ok := m.indices[name]
	if !ok {
		return nil, domain.ErrIndexNotFound
	}
	return &domain.IndexDescriptor{Name: name, Schema: idx.schema}, nil
}

// DeleteIndex removes an index. Removing a missing index succeeds.
func (m *Index) DeleteIndex(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.indices, name)
	return nil
}

// Upload stores chunks in an index, validating each record against the
// schema. Invalid records are reported per key, valid ones still land.
func (m *Index) Upload(_ context.Context, name string, chunks []domain.Chunk) ([]driven.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.indices[name]
	if !ok {
		return nil, domain.ErrIndexNotFound
	}

	results := make([]driven.UploadResult, len(chunks))
	for i, chunk := range chunks {
		if msg := validate(chunk, idx.schema); msg != "" {
			results[i] = driven.UploadResult{
				Key:        chunk.ID,
				Succeeded:  false,
				StatusCode: http.StatusBadRequest,
				Message:    msg,
			}
			continue
		}
		idx.docs[chunk.ID] = chunk
		results[i] = driven.UploadResult{
			Key:        chunk.ID,
			Succeeded:  true,
			StatusCode: http.StatusOK,
		}
	}

	return results, nil
}

// Query scores every stored chunk against the query and returns the
// topK best. Vector similarity dominates; text term matches add a
// small lexical bonus so the index still works without a query vector.
func (m *Index) Query(_ context.Context, name string, query driven.SearchQuery) ([]driven.SearchHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, ok := m.indices[name]
	if !ok {
		return nil, domain.ErrIndexNotFound
	}

	terms := strings.Fields(strings.ToLower(query.Text))

	hits := make([]driven.SearchHit, 0, len(idx.docs))
	for _, chunk := range idx.docs {
		score := 0.0
		if len(query.Vector) > 0 && len(chunk.Embedding) == len(query.Vector) {
			score = cosine(query.Vector, chunk.Embedding)
		}
		if len(terms) > 0 {
			content := strings.ToLower(chunk.Content)
			matched := 0
			for _, term := range terms {
				if strings.Contains(content, term) {
					matched++
				}
			}
			score += 0.1 * float64(matched) / float64(len(terms))
		}
		if score <= 0 {
			continue
		}
		hits = append(hits, driven.SearchHit{Chunk: chunk, Score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})

	topK := query.TopK
	if topK <= 0 || topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK], nil
}

// Close releases resources.
func (m *Index) Close() error {
	return nil
}

func validate(chunk domain.Chunk, schema domain.IndexSchema) string {
	if chunk.ID == "" {
		return "document key is empty"
	}
	if strings.TrimSpace(chunk.Content) == "" {
		return "content field is empty"
	}
	if len(chunk.Embedding) != schema.VectorDimensions {
		return "vector has wrong dimensions"
	}
	return ""
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
