package services

import (
	"context"
	"sort"
	"sync"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding []float32
	embedErr  error
	failCount int
	dims      int

	calls int
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil && (m.failCount == 0 || m.calls <= m.failCount) {
		return nil, m.embedErr
	}
	if m.embedding != nil {
		return m.embedding, nil
	}
	vector := make([]float32, m.Dimensions())
	for i := range vector {
		vector[i] = 0.5
	}
	return vector, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		vector, err := m.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		result[i] = vector
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 4
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockSearchIndex implements driven.SearchIndex for testing.
type mockSearchIndex struct {
	mu sync.Mutex

	indices map[string]*domain.IndexDescriptor
	hits    map[string][]driven.SearchHit

	uploaded      map[string][]domain.Chunk
	uploadResults []driven.UploadResult

	getErr    error
	createErr error
	deleteErr error
	uploadErr error
	queryErr  map[string]error

	deleted []string
}

func newMockSearchIndex() *mockSearchIndex {
	return &mockSearchIndex{
		indices:  make(map[string]*domain.IndexDescriptor),
		hits:     make(map[string][]driven.SearchHit),
		uploaded: make(map[string][]domain.Chunk),
		queryErr: make(map[string]error),
	}
}

func (m *mockSearchIndex) withIndex(name string, dims int) *mockSearchIndex {
	schema := domain.DefaultSchema(name, dims)
	m.indices[name] = &domain.IndexDescriptor{Name: name, Schema: schema}
	return m
}

func (m *mockSearchIndex) CreateIndex(_ context.Context, schema domain.IndexSchema) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.indices[schema.Name] = &domain.IndexDescriptor{Name: schema.Name, Schema: schema}
	return nil
}

func (m *mockSearchIndex) GetIndex(_ context.Context, name string) (*domain.IndexDescriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	desc, ok := m.indices[name]
	if !ok {
		return nil, domain.ErrIndexNotFound
	}
	return desc, nil
}

func (m *mockSearchIndex) DeleteIndex(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.indices, name)
	m.deleted = append(m.deleted, name)
	sort.Strings(m.deleted)
	return nil
}

func (m *mockSearchIndex) Upload(_ context.Context, indexName string, chunks []domain.Chunk) ([]driven.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	m.uploaded[indexName] = append(m.uploaded[indexName], chunks...)
	if m.uploadResults != nil {
		return m.uploadResults, nil
	}
	results := make([]driven.UploadResult, len(chunks))
	for i, c := range chunks {
		results[i] = driven.UploadResult{Key: c.ID, Succeeded: true}
	}
	return results, nil
}

func (m *mockSearchIndex) Query(_ context.Context, indexName string, _ driven.SearchQuery) ([]driven.SearchHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.queryErr[indexName]; ok {
		return nil, err
	}
	return m.hits[indexName], nil
}

func (m *mockSearchIndex) Close() error {
	return nil
}

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	response string
	err      error

	lastSystem string
	lastPrompt string
	calls      int
}

func (m *mockLLMService) Generate(_ context.Context, system, prompt string, _ driven.GenerateOptions) (string, error) {
	m.calls++
	m.lastSystem = system
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}
