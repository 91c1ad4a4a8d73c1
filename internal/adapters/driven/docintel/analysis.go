// Package docintel provides a document analysis adapter for the Azure
// Document Intelligence REST API, used to extract text from PDFs that
// carry no native text layer.
package docintel

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driven"
)

// Ensure Service implements the interface.
var _ driven.DocumentAnalysisService = (*Service)(nil)

// Default configuration values.
const (
	DefaultAPIVersion   = "2024-11-30"
	DefaultModel        = "prebuilt-layout"
	DefaultTimeout      = 60 * time.Second
	DefaultPollInterval = 2 * time.Second
)

// Config holds configuration for the Document Intelligence adapter.
type Config struct {
	// Endpoint is the resource endpoint (required).
	Endpoint string

	// APIKey is the subscription key (required).
	APIKey string

	// APIVersion is the REST API version (default: 2024-11-30).
	APIVersion string

	// Model is the analysis model (default: prebuilt-layout).
	Model string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration

	// PollInterval is the delay between result polls (default: 2s).
	PollInterval time.Duration
}

// Service analyses document images through Document Intelligence.
type Service struct {
	client       *http.Client
	endpoint     string
	apiKey       string
	apiVersion   string
	model        string
	pollInterval time.Duration
}

// New creates a new Document Intelligence adapter.
func New(cfg Config) (*Service, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("docintel: endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("docintel: API key is required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	return &Service{
		client:       &http.Client{Timeout: cfg.Timeout},
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:       cfg.APIKey,
		apiVersion:   cfg.APIVersion,
		model:        cfg.Model,
		pollInterval: cfg.PollInterval,
	}, nil
}

type analyzeResult struct {
	Status        string `json:"status"`
	AnalyzeResult struct {
		Pages []struct {
			PageNumber int `json:"pageNumber"`
			Lines      []struct {
				Content string `json:"content"`
			} `json:"lines"`
		} `json:"pages"`
	} `json:"analyzeResult"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Analyze submits the document and polls until analysis finishes.
// The returned pages keep the service's page numbering.
func (s *Service) Analyze(ctx context.Context, content []byte) ([]driven.AnalyzedPage, error) {
	operationURL, err := s.submit(ctx, content)
	if err != nil {
		return nil, err
	}

	result, err := s.poll(ctx, operationURL)
	if err != nil {
		return nil, err
	}

	pages := make([]driven.AnalyzedPage, 0, len(result.AnalyzeResult.Pages))
	for _, p := range result.AnalyzeResult.Pages {
		lines := make([]string, len(p.Lines))
		for i, line := range p.Lines {
			lines[i] = line.Content
		}
		pages = append(pages, driven.AnalyzedPage{
			Number: p.PageNumber,
			Lines:  lines,
		})
	}
	return pages, nil
}

// submit starts an analysis operation and returns its result URL.
func (s *Service) submit(ctx context.Context, content []byte) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"base64Source": base64.StdEncoding.EncodeToString(content),
	})
	if err != nil {
		return "", fmt.Errorf("docintel: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?api-version=%s&outputContentFormat=markdown",
		s.endpoint, s.model, s.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("docintel: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("docintel: %w: %w", domain.ErrCollaboratorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("docintel: analyze request failed (status %d): %s", resp.StatusCode, string(body))
	}

	operationURL := resp.Header.Get("Operation-Location")
	if operationURL == "" {
		return "", fmt.Errorf("docintel: response carries no Operation-Location header")
	}
	return operationURL, nil
}

// poll fetches the operation result until it succeeds or fails. A
// cancelled context stops polling and reports how long was waited.
func (s *Service) poll(ctx context.Context, operationURL string) (*analyzeResult, error) {
	started := time.Now()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		result, err := s.fetch(ctx, operationURL)
		if err != nil {
			return nil, err
		}

		switch result.Status {
		case "succeeded":
			return result, nil
		case "failed":
			if result.Error != nil {
				return nil, fmt.Errorf("docintel: analysis failed: %s: %s", result.Error.Code, result.Error.Message)
			}
			return nil, fmt.Errorf("docintel: analysis failed")
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("docintel: gave up waiting for analysis after %s: %w",
				time.Since(started).Round(time.Second), ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s *Service) fetch(ctx context.Context, operationURL string) (*analyzeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("docintel: create poll request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("docintel: %w: %w", domain.ErrCollaboratorUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("docintel: read poll response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("docintel: poll failed (status %d): %s", resp.StatusCode, string(body))
	}

	var result analyzeResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("docintel: decode poll response: %w", err)
	}
	return &result, nil
}

// Close releases resources.
func (s *Service) Close() error {
	return nil
}
