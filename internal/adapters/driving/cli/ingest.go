package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driving"
)

var (
	ingestFormat    string
	ingestIndexName string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Index a document for question answering",
	Long: `Normalises, chunks, embeds and indexes one document. The document
becomes part of the session and is selected for retrieval.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFormat, "format", "auto", "source format (auto, pdf, word, powerpoint, markdown, csv)")
	ingestCmd.Flags().StringVar(&ingestIndexName, "index-name", "", "override the derived index name")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	format, err := domain.ParseFormat(ingestFormat)
	if err != nil {
		return fmt.Errorf("--format %q: %w", ingestFormat, err)
	}

	result, err := ingestService.Ingest(context.Background(), driving.IngestRequest{
		Path:      args[0],
		Format:    format,
		IndexName: ingestIndexName,
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Indexed %s\n", result.Document.DisplayName)
	cmd.Printf("  Document ID: %s\n", result.Document.ID)
	cmd.Printf("  Index:       %s\n", result.IndexName)
	cmd.Printf("  Chunks:      %d\n", result.ChunkCount)
	return nil
}
