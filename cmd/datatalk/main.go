// Command datatalk indexes local documents and answers questions
// grounded in their content.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/datatalk-labs/datatalk-cli/internal/adapters/driven/config/file"
	"github.com/datatalk-labs/datatalk-cli/internal/adapters/driven/docintel"
	embollama "github.com/datatalk-labs/datatalk-cli/internal/adapters/driven/embedding/ollama"
	embopenai "github.com/datatalk-labs/datatalk-cli/internal/adapters/driven/embedding/openai"
	llmollama "github.com/datatalk-labs/datatalk-cli/internal/adapters/driven/llm/ollama"
	llmopenai "github.com/datatalk-labs/datatalk-cli/internal/adapters/driven/llm/openai"
	searchazure "github.com/datatalk-labs/datatalk-cli/internal/adapters/driven/search/azsearch"
	searchmemory "github.com/datatalk-labs/datatalk-cli/internal/adapters/driven/search/memory"
	"github.com/datatalk-labs/datatalk-cli/internal/adapters/driven/storage/sqlite"
	"github.com/datatalk-labs/datatalk-cli/internal/adapters/driving/cli"
	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driven"
	"github.com/datatalk-labs/datatalk-cli/internal/core/services"
	"github.com/datatalk-labs/datatalk-cli/internal/logger"
	"github.com/datatalk-labs/datatalk-cli/internal/normalisers"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := file.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	searchIndex, err := buildSearchIndex(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer searchIndex.Close()

	embedding, err := buildEmbedding(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer embedding.Close()

	llm, err := buildLLM(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer llm.Close()

	analysis, err := buildAnalysis(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if analysis != nil {
		defer analysis.Close()
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer store.Close()

	gateway := services.NewEmbeddingGateway(embedding, cfg.Embedding.RequestsPerSecond)
	indexManager := services.NewIndexManager(searchIndex)
	sessions := services.NewSessionManager(store, indexManager,
		services.WithTimeout(cfg.Session.TimeoutMinutes),
		services.WithCleanupOnExit(cfg.Session.CleanupOnExit),
	)

	registry := normalisers.Defaults(analysis, cfg.CSV.ContentColumn, cfg.CSV.TitleColumn)
	ingestor := services.NewIngestor(registry, gateway, indexManager, sessions,
		services.WithBaseChunking(cfg.Chunking.Size, cfg.Chunking.Overlap))
	retriever := services.NewRetriever(searchIndex, gateway)
	answerer := services.NewAnswerer(llm)
	asker := services.NewAskService(sessions, retriever, answerer)

	cli.SetServices(cli.Services{
		Ingest:  ingestor,
		Ask:     asker,
		Session: sessions,
	})
	cli.SetDefaultTopK(cfg.Retrieval.TopK)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}

	if err := sessions.Close(context.Background()); err != nil {
		logger.Warn("Session shutdown: %v", err)
	}

	return 0
}

func buildSearchIndex(cfg *file.Config) (driven.SearchIndex, error) {
	if cfg.Search.Endpoint == "" {
		logger.Debug("No search endpoint configured, using in-memory index")
		return searchmemory.New(), nil
	}
	return searchazure.New(searchazure.Config{
		Endpoint: cfg.Search.Endpoint,
		APIKey:   cfg.Search.APIKey,
	})
}

func buildEmbedding(cfg *file.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "", "openai":
		return embopenai.NewEmbeddingService(embopenai.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	case "ollama":
		return embollama.NewEmbeddingService(embollama.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func buildLLM(cfg *file.Config) (driven.LLMService, error) {
	switch cfg.LLM.Provider {
	case "", "openai":
		return llmopenai.NewLLMService(llmopenai.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
	case "ollama":
		return llmollama.NewLLMService(llmollama.Config{
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func buildAnalysis(cfg *file.Config) (driven.DocumentAnalysisService, error) {
	if cfg.Analysis.Endpoint == "" {
		return nil, nil
	}
	return docintel.New(docintel.Config{
		Endpoint: cfg.Analysis.Endpoint,
		APIKey:   cfg.Analysis.APIKey,
	})
}

// exitCode maps failures to distinct exit codes: 2 for documents the
// pipeline cannot process, 3 for unavailable or failing collaborators,
// 1 for everything else.
func exitCode(err error) int {
	var partial *domain.PartialUploadError
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat),
		errors.Is(err, domain.ErrCorruptDocument):
		return 2
	case errors.Is(err, domain.ErrCollaboratorUnavailable),
		errors.Is(err, domain.ErrIndexNotFound),
		errors.Is(err, domain.ErrDimensionMismatch),
		errors.As(err, &partial):
		return 3
	default:
		return 1
	}
}
