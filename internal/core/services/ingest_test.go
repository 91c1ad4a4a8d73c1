package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datatalk-labs/datatalk-cli/internal/adapters/driven/storage/memory"
	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driving"
	"github.com/datatalk-labs/datatalk-cli/internal/normalisers"
)

func newIngestFixture(t *testing.T, index *mockSearchIndex) (*Ingestor, *SessionManager) {
	t.Helper()
	gateway := NewEmbeddingGateway(&mockEmbeddingService{dims: 4}, 1000)
	manager := NewIndexManager(index)
	sessions := NewSessionManager(memory.NewSessionStore(), manager)
	ingestor := NewIngestor(normalisers.Defaults(nil, "", ""), gateway, manager, sessions)
	return ingestor, sessions
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngest_MarkdownEndToEnd(t *testing.T) {
	index := newMockSearchIndex()
	ingestor, sessions := newIngestFixture(t, index)
	ctx := context.Background()

	path := writeFile(t, "handbook.md", "# Handbook\n\nWelcome aboard.\n\n## Policies\n\nBe kind.\n")

	result, err := ingestor.Ingest(ctx, driving.IngestRequest{Path: path})
	require.NoError(t, err)

	assert.Equal(t, "handbook.md", result.Document.DisplayName)
	assert.Equal(t, domain.FormatMarkdown, result.Document.Format)
	assert.Equal(t, 2, result.ChunkCount)
	assert.Equal(t, domain.IndexNameFor(result.Document.ID), result.IndexName)

	uploaded := index.uploaded[result.IndexName]
	require.Len(t, uploaded, 2)
	assert.Equal(t, "section1_chunk1", uploaded[0].ID)
	assert.Len(t, uploaded[0].Embedding, 4)

	session, err := sessions.Status(ctx)
	require.NoError(t, err)
	assert.Contains(t, session.TrackedIndices, result.IndexName)
	assert.Contains(t, session.Documents, result.Document.ID)
	assert.Contains(t, session.Selected, result.Document.ID)
}

func TestIngest_ReingestReusesDocumentID(t *testing.T) {
	index := newMockSearchIndex()
	ingestor, _ := newIngestFixture(t, index)
	ctx := context.Background()

	path := writeFile(t, "notes.md", "# Notes\n\nVersion one.\n")

	first, err := ingestor.Ingest(ctx, driving.IngestRequest{Path: path})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("# Notes\n\nVersion two.\n"), 0o644))

	second, err := ingestor.Ingest(ctx, driving.IngestRequest{Path: path})
	require.NoError(t, err)

	assert.Equal(t, first.Document.ID, second.Document.ID)
	assert.Equal(t, first.IndexName, second.IndexName)
}

func TestIngest_ExplicitIndexName(t *testing.T) {
	index := newMockSearchIndex()
	ingestor, _ := newIngestFixture(t, index)

	path := writeFile(t, "notes.md", "# Notes\n\nBody.\n")

	result, err := ingestor.Ingest(context.Background(), driving.IngestRequest{
		Path:      path,
		IndexName: "my-custom-index",
	})
	require.NoError(t, err)
	assert.Equal(t, "my-custom-index", result.IndexName)
	assert.Contains(t, index.uploaded, "my-custom-index")
}

func TestIngest_UnsupportedExtension(t *testing.T) {
	ingestor, _ := newIngestFixture(t, newMockSearchIndex())

	path := writeFile(t, "sheet.xlsx", "not supported")

	_, err := ingestor.Ingest(context.Background(), driving.IngestRequest{Path: path})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestIngest_DeclaredFormatOverridesExtension(t *testing.T) {
	ingestor, _ := newIngestFixture(t, newMockSearchIndex())

	path := writeFile(t, "readme.txt", "# Title\n\nMarkdown in a txt file.\n")

	result, err := ingestor.Ingest(context.Background(), driving.IngestRequest{
		Path:   path,
		Format: domain.FormatMarkdown,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.FormatMarkdown, result.Document.Format)
}

func TestIngest_MissingFile(t *testing.T) {
	ingestor, _ := newIngestFixture(t, newMockSearchIndex())

	_, err := ingestor.Ingest(context.Background(), driving.IngestRequest{
		Path: filepath.Join(t.TempDir(), "missing.md"),
	})
	require.Error(t, err)
}

func TestIngest_CorruptDocument(t *testing.T) {
	ingestor, _ := newIngestFixture(t, newMockSearchIndex())

	path := writeFile(t, "empty.md", "   \n\n")

	_, err := ingestor.Ingest(context.Background(), driving.IngestRequest{Path: path})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCorruptDocument)
}
