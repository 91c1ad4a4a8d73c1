package services

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driven"
	"github.com/datatalk-labs/datatalk-cli/internal/logger"
)

// DefaultEmbedRequestsPerSecond limits outbound embedding calls.
const DefaultEmbedRequestsPerSecond = 10

// EmbeddingGateway fronts the embedding service with rate limiting, a
// single retry, and vector dimension validation.
type EmbeddingGateway struct {
	service driven.EmbeddingService
	limiter *rate.Limiter
}

// NewEmbeddingGateway creates a gateway around the embedding service.
// requestsPerSecond values of zero or below fall back to the default.
func NewEmbeddingGateway(service driven.EmbeddingService, requestsPerSecond float64) *EmbeddingGateway {
	if requestsPerSecond <= 0 {
		requestsPerSecond = DefaultEmbedRequestsPerSecond
	}
	return &EmbeddingGateway{
		service: service,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// Dimensions returns the vector size of the underlying model.
func (g *EmbeddingGateway) Dimensions() int {
	return g.service.Dimensions()
}

// ModelName returns the underlying model name.
func (g *EmbeddingGateway) ModelName() string {
	return g.service.ModelName()
}

// Embed produces an embedding for one text. Embedding is idempotent,
// so a failed call is retried once before the error is surfaced.
func (g *EmbeddingGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for embed slot: %w", err)
	}

	vector, err := g.service.Embed(ctx, text)
	if err != nil {
		logger.Warn("Embedding failed, retrying once: %v", err)
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for embed retry slot: %w", err)
		}
		vector, err = g.service.Embed(ctx, text)
	}
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w: %w", domain.ErrCollaboratorUnavailable, err)
	}

	if want := g.service.Dimensions(); want > 0 && len(vector) != want {
		return nil, fmt.Errorf("embedding has %d dimensions, expected %d: %w",
			len(vector), want, domain.ErrDimensionMismatch)
	}

	return vector, nil
}

// ValidateDimensions probes the service with a short text and checks
// the returned vector against the configured dimensions. Used once per
// ingest before any index is created.
func (g *EmbeddingGateway) ValidateDimensions(ctx context.Context) (int, error) {
	vector, err := g.Embed(ctx, "test")
	if err != nil {
		return 0, fmt.Errorf("probing embedding dimensions: %w", err)
	}
	logger.Debug("Embedding model %s produces %d dimensions", g.service.ModelName(), len(vector))
	return len(vector), nil
}
