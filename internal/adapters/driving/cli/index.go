package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the session's search indices",
}

var indexListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the indices tracked by the session",
	RunE:  runIndexList,
}

var indexDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete an index and unregister its documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexDelete,
}

func init() {
	indexCmd.AddCommand(indexListCmd)
	indexCmd.AddCommand(indexDeleteCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexList(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	session, err := sessionService.Status(context.Background())
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	if len(session.TrackedIndices) == 0 {
		cmd.Println("No indices in the current session.")
		return nil
	}

	names := make([]string, 0, len(session.TrackedIndices))
	for name := range session.TrackedIndices {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd.Println(name)
		for _, doc := range session.Documents {
			if doc.IndexName == name {
				cmd.Printf("  %s  %s (%s)\n", doc.ID, doc.DisplayName, doc.Format)
			}
		}
	}
	return nil
}

func runIndexDelete(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	name := args[0]
	if err := sessionService.RemoveIndex(context.Background(), name); err != nil {
		return fmt.Errorf("deleting index %s: %w", name, err)
	}

	cmd.Printf("Deleted index %s\n", name)
	return nil
}
