package services

import (
	"context"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driving"
	"github.com/datatalk-labs/datatalk-cli/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.AskService = (*AskService)(nil)

// AskService answers questions against the session's indexed
// documents.
type AskService struct {
	sessions  *SessionManager
	retriever *Retriever
	answerer  *Answerer
}

// NewAskService creates a new ask service.
func NewAskService(sessions *SessionManager, retriever *Retriever, answerer *Answerer) *AskService {
	return &AskService{
		sessions:  sessions,
		retriever: retriever,
		answerer:  answerer,
	}
}

// Ask retrieves grounding chunks for the question and synthesises an
// answer. With no explicit documentIDs the session's selection is
// used; if that is empty too the call fails rather than answering
// from nothing.
func (s *AskService) Ask(ctx context.Context, question string, documentIDs []string, topK int) (*driving.Answer, error) {
	session, err := s.sessions.Current(ctx)
	if err != nil {
		return nil, err
	}

	if len(documentIDs) == 0 {
		documentIDs = session.SelectedIDs()
		logger.Debug("Using session selection: %d documents", len(documentIDs))
	}
	if len(documentIDs) == 0 {
		return nil, domain.ErrEmptySelection
	}

	hits, err := s.retriever.Retrieve(ctx, session, question, documentIDs, topK)
	if err != nil {
		return nil, err
	}

	return s.answerer.Answer(ctx, question, hits)
}
