package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and manage the current session",
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session's documents and selection",
	RunE:  runSessionStatus,
}

var sessionCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete all session indices and reset the session",
	RunE:  runSessionCleanup,
}

var sessionSelectCmd = &cobra.Command{
	Use:   "select [document-ids]",
	Short: "Choose which documents answer questions",
	Long:  `Replaces the retrieval selection with the given comma-separated document ids.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionSelect,
}

func init() {
	sessionCmd.AddCommand(sessionStatusCmd)
	sessionCmd.AddCommand(sessionCleanupCmd)
	sessionCmd.AddCommand(sessionSelectCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionStatus(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	session, err := sessionService.Status(context.Background())
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	cmd.Printf("Session %s\n", session.ID)
	cmd.Printf("  Last activity: %s\n", session.LastActivity.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Timeout:       %d minutes\n", session.TimeoutMinutes)
	cmd.Printf("  Indices:       %d\n", len(session.TrackedIndices))

	if len(session.Documents) == 0 {
		cmd.Println("  Documents:     none")
		return nil
	}

	ids := make([]string, 0, len(session.Documents))
	for id := range session.Documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	cmd.Println("  Documents:")
	for _, id := range ids {
		doc := session.Documents[id]
		marker := " "
		if _, ok := session.Selected[id]; ok {
			marker = "*"
		}
		cmd.Printf("   %s %s  %s (%s)\n", marker, doc.ID, doc.DisplayName, doc.Format)
	}
	cmd.Println()
	cmd.Println("  * = selected for retrieval")
	return nil
}

func runSessionCleanup(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	if err := sessionService.Cleanup(context.Background()); err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	cmd.Println("Session cleaned up.")
	return nil
}

func runSessionSelect(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	var documentIDs []string
	for _, id := range strings.Split(args[0], ",") {
		if id = strings.TrimSpace(id); id != "" {
			documentIDs = append(documentIDs, id)
		}
	}

	if err := sessionService.Select(context.Background(), documentIDs); err != nil {
		return fmt.Errorf("select failed: %w", err)
	}

	cmd.Printf("Selected %d document(s)\n", len(documentIDs))
	return nil
}
