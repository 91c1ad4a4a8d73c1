package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driving"
)

// --- Fake services ---

type fakeIngestService struct {
	result  *driving.IngestResult
	err     error
	lastReq driving.IngestRequest
}

func (f *fakeIngestService) Ingest(_ context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeAskService struct {
	answer   *driving.Answer
	err      error
	lastDocs []string
	lastTopK int
}

func (f *fakeAskService) Ask(_ context.Context, _ string, documentIDs []string, topK int) (*driving.Answer, error) {
	f.lastDocs = documentIDs
	f.lastTopK = topK
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

type fakeSessionService struct {
	session      *domain.Session
	err          error
	cleanedUp    bool
	removedIndex string
	selected     []string
}

func (f *fakeSessionService) Status(_ context.Context) (*domain.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeSessionService) Select(_ context.Context, documentIDs []string) error {
	f.selected = documentIDs
	return f.err
}

func (f *fakeSessionService) RemoveIndex(_ context.Context, indexName string) error {
	f.removedIndex = indexName
	return f.err
}

func (f *fakeSessionService) Cleanup(_ context.Context) error {
	f.cleanedUp = true
	return f.err
}

// setupTestServices injects fakes and returns them with a cleanup
// function restoring the previous wiring.
func setupTestServices() (*fakeIngestService, *fakeAskService, *fakeSessionService, func()) {
	ingest := &fakeIngestService{
		result: &driving.IngestResult{
			Document:   domain.Document{ID: "doc-1", DisplayName: "file.md"},
			IndexName:  "doc-doc-1",
			ChunkCount: 3,
		},
	}
	ask := &fakeAskService{
		answer: &driving.Answer{Text: "An answer."},
	}
	session := &fakeSessionService{
		session: domain.NewSession("s1", 60, time.Now()),
	}

	prevIngest, prevAsk, prevSession := ingestService, askService, sessionService
	SetServices(Services{Ingest: ingest, Ask: ask, Session: session})

	return ingest, ask, session, func() {
		ingestService = prevIngest
		askService = prevAsk
		sessionService = prevSession
	}
}

// execute runs the root command with args and captures its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
