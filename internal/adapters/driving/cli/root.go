// Package cli wires the cobra command tree to the application
// services.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driving"
	"github.com/datatalk-labs/datatalk-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services the commands run against, injected by the composition root.
var (
	ingestService  driving.IngestService
	askService     driving.AskService
	sessionService driving.SessionService
)

// Services bundles the driving ports the CLI needs.
type Services struct {
	Ingest  driving.IngestService
	Ask     driving.AskService
	Session driving.SessionService
}

// SetServices injects the application services into the command tree.
// Must be called before Execute.
func SetServices(s Services) {
	ingestService = s.Ingest
	askService = s.Ask
	sessionService = s.Session
}

// SetVersion overrides the version string printed by the version
// command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "datatalk",
	Short: "Chat with your documents from the command line",
	Long: `datatalk indexes local documents (PDF, Word, PowerPoint, Markdown, CSV)
into per-document search indices and answers questions grounded in
their content.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
