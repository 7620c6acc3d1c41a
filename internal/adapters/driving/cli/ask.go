package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
	"github.com/tessera-labs/tessera-cli/internal/logger"
)

var askAudioFile string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question",
	Long: `Routes the question to the best agent and prints the answer.
With --audio, the file is transcribed first and the transcript is
routed instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askAudioFile, "audio", "", "transcribe and ask from an audio file")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	ctx := context.Background()
	var answer *domain.Answer
	var err error

	switch {
	case askAudioFile != "":
		audio, rerr := os.ReadFile(askAudioFile)
		if rerr != nil {
			return fmt.Errorf("reading %s: %w", askAudioFile, rerr)
		}
		format := strings.TrimPrefix(filepath.Ext(askAudioFile), ".")
		answer, err = answerService.AnswerAudio(ctx, audio, format)
	case len(args) == 1:
		answer, err = answerService.Answer(ctx, args[0])
	default:
		return errors.New("provide a question or --audio FILE")
	}
	if err != nil {
		return err
	}

	logger.Debug("answered by %s", answer.Decision.SelectedAgent)

	if !answer.Streamed() {
		cmd.Println(answer.Text)
		return nil
	}

	// Print stream fragments as they arrive.
	defer answer.Stream.Close()
	out := cmd.OutOrStdout()
	for {
		fragment, rerr := answer.Stream.Recv()
		if fragment != "" {
			fmt.Fprint(out, fragment)
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return rerr
		}
	}
	fmt.Fprintln(out)
	return nil
}
