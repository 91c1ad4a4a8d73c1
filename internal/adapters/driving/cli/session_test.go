package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
)

func TestSessionCmd_HasSubcommands(t *testing.T) {
	commands := sessionCmd.Commands()
	names := make([]string, 0, len(commands))
	for _, cmd := range commands {
		names = append(names, cmd.Name())
	}
	assert.Contains(t, names, "status")
	assert.Contains(t, names, "cleanup")
	assert.Contains(t, names, "select")
}

func TestSessionStatusCmd_ShowsDocuments(t *testing.T) {
	_, _, session, cleanup := setupTestServices()
	defer cleanup()

	s := domain.NewSession("s1", 60, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	s.TrackedIndices["doc-a-idx"] = struct{}{}
	s.Documents["doc-a"] = domain.IndexedDocument{
		ID: "doc-a", DisplayName: "report.pdf", Format: domain.FormatPDFNative, IndexName: "doc-a-idx",
	}
	s.Documents["doc-b"] = domain.IndexedDocument{
		ID: "doc-b", DisplayName: "notes.md", Format: domain.FormatMarkdown, IndexName: "doc-b-idx",
	}
	s.Selected["doc-a"] = struct{}{}
	session.session = s

	out, err := execute("session", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Session s1")
	assert.Contains(t, out, "Timeout:       60 minutes")
	assert.Contains(t, out, "* doc-a  report.pdf (pdf-native)")
	assert.Contains(t, out, "  doc-b  notes.md (markdown)")
}

func TestSessionCleanupCmd(t *testing.T) {
	_, _, session, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("session", "cleanup")
	require.NoError(t, err)
	assert.True(t, session.cleanedUp)
	assert.Contains(t, out, "Session cleaned up.")
}

func TestSessionSelectCmd(t *testing.T) {
	_, _, session, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("session", "select", "doc-a,doc-b")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-a", "doc-b"}, session.selected)
	assert.Contains(t, out, "Selected 2 document(s)")
}

func TestIndexCmd_HasSubcommands(t *testing.T) {
	commands := indexCmd.Commands()
	names := make([]string, 0, len(commands))
	for _, cmd := range commands {
		names = append(names, cmd.Name())
	}
	assert.Contains(t, names, "list")
	assert.Contains(t, names, "delete")
}

func TestIndexListCmd_Empty(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("index", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No indices in the current session.")
}

func TestIndexDeleteCmd(t *testing.T) {
	_, _, session, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("index", "delete", "doc-a-idx")
	require.NoError(t, err)
	assert.Equal(t, "doc-a-idx", session.removedIndex)
	assert.Contains(t, out, "Deleted index doc-a-idx")
}
