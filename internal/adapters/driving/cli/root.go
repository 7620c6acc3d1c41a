// Package cli wires the tessera commands. Services are injected once
// at startup via Configure; commands read the package-level handles.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/tessera-labs/tessera-cli/internal/core/ports/driven"
	"github.com/tessera-labs/tessera-cli/internal/core/ports/driving"
	"github.com/tessera-labs/tessera-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Injected services. Commands check for nil and fail cleanly when a
// service is not configured.
var (
	ingestService driving.IngestService
	answerService driving.AnswerService
	ingestLog     driven.IngestLog
)

var verbose bool

// Services bundles everything the commands need.
type Services struct {
	Ingest    driving.IngestService
	Answer    driving.AnswerService
	IngestLog driven.IngestLog
}

// Configure injects the services the commands run against.
func Configure(s Services) {
	ingestService = s.Ingest
	answerService = s.Answer
	ingestLog = s.IngestLog
}

var rootCmd = &cobra.Command{
	Use:   "tessera",
	Short: "Personal knowledge base with agent-routed answers",
	Long: `Tessera ingests articles, web pages and repository docs into a
vector index, then answers questions by routing each query to the
right agent: knowledge-base retrieval, LinkedIn drafting, or general
conversation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
