package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/tessera-labs/tessera-cli/internal/adapters/driving/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Opens a terminal chat. Each message is routed to the best agent;
streamed answers render live.

Controls:
  Enter      - Send
  Esc/Ctrl+C - Quit`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(_ *cobra.Command, _ []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}
	return tui.Run(answerService)
}
