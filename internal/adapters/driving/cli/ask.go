package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
)

var (
	askDocuments string
	askTopK      int

	// defaultAskTopK backs --top-k when the flag is not given, so the
	// configured retrieval depth applies without it.
	defaultAskTopK = 5
)

// SetDefaultTopK sets the retrieval depth used when --top-k is not
// passed. Must be called before Execute.
func SetDefaultTopK(k int) {
	if k > 0 {
		defaultAskTopK = k
	}
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against the indexed documents",
	Long: `Retrieves the most relevant chunks from the selected documents and
generates an answer grounded in them. Without --documents the whole
session selection is queried.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askDocuments, "documents", "", "comma-separated document ids to query")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 5, "number of chunks to retrieve")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	var documentIDs []string
	if askDocuments != "" {
		for _, id := range strings.Split(askDocuments, ",") {
			if id = strings.TrimSpace(id); id != "" {
				documentIDs = append(documentIDs, id)
			}
		}
	}

	topK := askTopK
	if !cmd.Flags().Changed("top-k") {
		topK = defaultAskTopK
	}

	answer, err := askService.Ask(context.Background(), args[0], documentIDs, topK)
	if err != nil {
		if errors.Is(err, domain.ErrEmptySelection) {
			return errors.New("no documents selected; ingest a document first or pass --documents")
		}
		return fmt.Errorf("ask failed: %w", err)
	}

	cmd.Println(answer.Text)

	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, c := range answer.Citations {
			title := c.Title
			if title == "" {
				title = c.ChunkID
			}
			cmd.Printf("  - %s (%s)\n", title, c.ChunkID)
		}
	}
	return nil
}
