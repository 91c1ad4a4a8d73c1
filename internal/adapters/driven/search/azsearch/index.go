// Package azsearch provides a search index adapter for the Azure AI
// Search REST API. Each index carries an HNSW profile for approximate
// vector search plus an exhaustive KNN profile for exact queries.
package azsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.SearchIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultAPIVersion = "2024-07-01"
	DefaultTimeout    = 60 * time.Second
)

// Profile and algorithm names baked into every index definition.
const (
	hnswAlgorithm = "hnsw-algorithm"
	hnswProfile   = "hnsw-profile"
	eknnAlgorithm = "eknn-algorithm"
	eknnProfile   = "eknn-profile"
)

// Config holds configuration for the Azure AI Search adapter.
type Config struct {
	// Endpoint is the service endpoint, e.g. https://foo.search.windows.net (required).
	Endpoint string

	// APIKey is the admin API key (required).
	APIKey string

	// APIVersion is the REST API version (default: 2024-07-01).
	APIVersion string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// Index talks to one Azure AI Search service.
type Index struct {
	client     *http.Client
	endpoint   string
	apiKey     string
	apiVersion string
}

// New creates a new Azure AI Search adapter.
func New(cfg Config) (*Index, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("azsearch: endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("azsearch: API key is required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Index{
		client:     &http.Client{Timeout: cfg.Timeout},
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		apiVersion: cfg.APIVersion,
	}, nil
}

type fieldJSON struct {
	Name                string `json:"name"`
	Type                string `json:"type"`
	Key                 bool   `json:"key,omitempty"`
	Searchable          bool   `json:"searchable"`
	Filterable          bool   `json:"filterable"`
	Dimensions          int    `json:"dimensions,omitempty"`
	VectorSearchProfile string `json:"vectorSearchProfile,omitempty"`
}

type indexJSON struct {
	Name         string            `json:"name"`
	Fields       []fieldJSON       `json:"fields"`
	VectorSearch *vectorSearchJSON `json:"vectorSearch,omitempty"`
}

type vectorSearchJSON struct {
	Algorithms []map[string]any `json:"algorithms"`
	Profiles   []map[string]any `json:"profiles"`
}

// CreateIndex creates an index with the given schema.
func (x *Index) CreateIndex(ctx context.Context, schema domain.IndexSchema) error {
	body, status, err := x.do(ctx, http.MethodPut,
		fmt.Sprintf("/indexes/%s", url.PathEscape(schema.Name)), indexDefinition(schema))
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated && status != http.StatusNoContent {
		return fmt.Errorf("azsearch: create index %s failed (status %d): %s", schema.Name, status, string(body))
	}
	return nil
}

// GetIndex fetches an index definition. A missing index is reported as
// ErrIndexNotFound.
func (x *Index) GetIndex(ctx context.Context, name string) (*domain.IndexDescriptor, error) {
	body, status, err := x.do(ctx, http.MethodGet,
		fmt.Sprintf("/indexes/%s", url.PathEscape(name)), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, domain.ErrIndexNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("azsearch: get index %s failed (status %d): %s", name, status, string(body))
	}

	var parsed indexJSON
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("azsearch: decode index %s: %w", name, err)
	}

	schema := domain.IndexSchema{Name: name, Metric: domain.MetricCosine}
	for _, f := range parsed.Fields {
		schema.Fields = append(schema.Fields, domain.IndexField{
			Name:       f.Name,
			Type:       f.Type,
			Key:        f.Key,
			Searchable: f.Searchable,
			Filterable: f.Filterable,
		})
		if f.Name == domain.FieldVector {
			schema.VectorDimensions = f.Dimensions
		}
	}

	return &domain.IndexDescriptor{Name: name, Schema: schema}, nil
}

// DeleteIndex removes an index. Deleting a missing index succeeds, so
// cleanup can be retried safely.
func (x *Index) DeleteIndex(ctx context.Context, name string) error {
	body, status, err := x.do(ctx, http.MethodDelete,
		fmt.Sprintf("/indexes/%s", url.PathEscape(name)), nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound || status == http.StatusNoContent || status == http.StatusOK {
		return nil
	}
	return fmt.Errorf("azsearch: delete index %s failed (status %d): %s", name, status, string(body))
}

type uploadResponse struct {
	Value []struct {
		Key          string `json:"key"`
		Status       bool   `json:"status"`
		StatusCode   int    `json:"statusCode"`
		ErrorMessage string `json:"errorMessage"`
	} `json:"value"`
}

// Upload merges chunks into an index. Both 200 and 207 responses carry
// per-document results, which are passed through to the caller.
func (x *Index) Upload(ctx context.Context, name string, chunks []domain.Chunk) ([]driven.UploadResult, error) {
	docs := make([]map[string]any, len(chunks))
	for i, chunk := range chunks {
		docs[i] = map[string]any{
			"@search.action":       "mergeOrUpload",
			domain.FieldID:         chunk.ID,
			domain.FieldContent:    chunk.Content,
			domain.FieldFilepath:   chunk.Filepath,
			domain.FieldTitle:      chunk.Title,
			domain.FieldURL:        chunk.URL,
			domain.FieldDocumentID: chunk.DocumentID,
			domain.FieldVector:     chunk.Embedding,
		}
	}

	body, status, err := x.do(ctx, http.MethodPost,
		fmt.Sprintf("/indexes/%s/docs/index", url.PathEscape(name)),
		map[string]any{"value": docs})
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, domain.ErrIndexNotFound
	}
	if status != http.StatusOK && status != http.StatusMultiStatus {
		return nil, fmt.Errorf("azsearch: upload to %s failed (status %d): %s", name, status, string(body))
	}

	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("azsearch: decode upload response: %w", err)
	}

	results := make([]driven.UploadResult, len(parsed.Value))
	for i, v := range parsed.Value {
		results[i] = driven.UploadResult{
			Key:        v.Key,
			Succeeded:  v.Status,
			StatusCode: v.StatusCode,
			Message:    v.ErrorMessage,
		}
	}
	return results, nil
}

type searchResponse struct {
	Value []struct {
		Score      float64 `json:"@search.score"`
		ID         string  `json:"id"`
		Content    string  `json:"content"`
		Filepath   string  `json:"filepath"`
		Title      string  `json:"title"`
		URL        string  `json:"url"`
		DocumentID string  `json:"document_id"`
	} `json:"value"`
}

// Query runs a hybrid query: full-text search over the content and
// title fields plus a vector query when an embedding is provided.
func (x *Index) Query(ctx context.Context, name string, query driven.SearchQuery) ([]driven.SearchHit, error) {
	payload := map[string]any{
		"search": query.Text,
		"top":    query.TopK,
		"select": strings.Join([]string{
			domain.FieldID, domain.FieldContent, domain.FieldFilepath,
			domain.FieldTitle, domain.FieldURL, domain.FieldDocumentID,
		}, ","),
	}
	if len(query.Vector) > 0 {
		payload["vectorQueries"] = []map[string]any{{
			"kind":   "vector",
			"vector": query.Vector,
			"fields": domain.FieldVector,
			"k":      query.TopK,
		}}
	}

	body, status, err := x.do(ctx, http.MethodPost,
		fmt.Sprintf("/indexes/%s/docs/search", url.PathEscape(name)), payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, domain.ErrIndexNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("azsearch: query %s failed (status %d): %s", name, status, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("azsearch: decode search response: %w", err)
	}

	hits := make([]driven.SearchHit, len(parsed.Value))
	for i, v := range parsed.Value {
		hits[i] = driven.SearchHit{
			Chunk: domain.Chunk{
				ID:         v.ID,
				DocumentID: v.DocumentID,
				Content:    v.Content,
				Title:      v.Title,
				Filepath:   v.Filepath,
				URL:        v.URL,
			},
			Score: v.Score,
		}
	}
	return hits, nil
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

// do sends one request and returns the raw body and status. Transport
// failures are wrapped as collaborator errors so callers can exit with
// the right code.
func (x *Index) do(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	var reqBody io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("azsearch: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	endpoint := fmt.Sprintf("%s%s?api-version=%s", x.endpoint, path, url.QueryEscape(x.apiVersion))
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("azsearch: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", x.apiKey)

	resp, err := x.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("azsearch: %w: %w", domain.ErrCollaboratorUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("azsearch: read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// indexDefinition renders the schema as the REST API's index JSON.
func indexDefinition(schema domain.IndexSchema) indexJSON {
	fields := make([]fieldJSON, len(schema.Fields))
	for i, f := range schema.Fields {
		fields[i] = fieldJSON{
			Name:       f.Name,
			Type:       f.Type,
			Key:        f.Key,
			Searchable: f.Searchable,
			Filterable: f.Filterable,
		}
		if f.Name == domain.FieldVector {
			fields[i].Dimensions = schema.VectorDimensions
			fields[i].VectorSearchProfile = hnswProfile
		}
	}

	return indexJSON{
		Name:   schema.Name,
		Fields: fields,
		VectorSearch: &vectorSearchJSON{
			Algorithms: []map[string]any{
				{
					"name": hnswAlgorithm,
					"kind": "hnsw",
					"hnswParameters": map[string]any{
						"m":              domain.HNSWM,
						"efConstruction": domain.HNSWEFConstruction,
						"efSearch":       domain.HNSWEFSearch,
						"metric":         string(schema.Metric),
					},
				},
				{
					"name": eknnAlgorithm,
					"kind": "exhaustiveKnn",
					"exhaustiveKnnParameters": map[string]any{
						"metric": string(schema.Metric),
					},
				},
			},
			Profiles: []map[string]any{
				{"name": hnswProfile, "algorithm": hnswAlgorithm},
				{"name": eknnProfile, "algorithm": eknnAlgorithm},
			},
		},
	}
}
