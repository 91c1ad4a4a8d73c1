package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driven"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driving"
	"github.com/datatalk-labs/datatalk-cli/internal/logger"
)

// NoResultsAnswer is returned when retrieval finds nothing to ground
// an answer on. The model is never called in that case.
const NoResultsAnswer = "I couldn't find any relevant information in the indexed documents."

const groundingPrompt = "You are an AI assistant that answers questions based on the provided document context.\n" +
	"Use ONLY the provided context to answer. If the context does not contain the answer, say so."

// DefaultAnswerMaxTokens bounds the generated answer length.
const DefaultAnswerMaxTokens = 1000

// Answerer synthesises grounded answers from retrieved chunks.
type Answerer struct {
	llm driven.LLMService
}

// NewAnswerer creates a new answerer.
func NewAnswerer(llm driven.LLMService) *Answerer {
	return &Answerer{llm: llm}
}

// Answer builds a grounded prompt from the hits and asks the model.
// Every hit becomes a citation so the caller can point back at the
// source chunks.
func (a *Answerer) Answer(ctx context.Context, question string, hits []driven.SearchHit) (*driving.Answer, error) {
	if len(hits) == 0 {
		logger.Debug("No hits to ground an answer on")
		return &driving.Answer{Text: NoResultsAnswer}, nil
	}

	contexts := make([]string, len(hits))
	for i, hit := range hits {
		contexts[i] = hit.Chunk.Content
	}

	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", strings.Join(contexts, "\n\n"), question)

	logger.Debug("Generating answer from %d chunks", len(hits))
	text, err := a.llm.Generate(ctx, groundingPrompt, prompt, driven.GenerateOptions{
		MaxTokens:   DefaultAnswerMaxTokens,
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w: %w", domain.ErrCollaboratorUnavailable, err)
	}

	citations := make([]driving.Citation, len(hits))
	for i, hit := range hits {
		citations[i] = driving.Citation{
			DocumentID: hit.Chunk.DocumentID,
			ChunkID:    hit.Chunk.ID,
			Title:      hit.Chunk.Title,
			URL:        hit.Chunk.URL,
		}
	}

	return &driving.Answer{
		Text:      strings.TrimSpace(text),
		Citations: citations,
	}, nil
}
