package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
)

var (
	ingestTitle       string
	ingestDescription string
	ingestTags        []string
	ingestSourceType  string
	ingestFile        string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Add content to the knowledge base",
}

var ingestTextCmd = &cobra.Command{
	Use:   "text [content]",
	Short: "Ingest a piece of text",
	Long: `Ingests a text submission. Content is read from the argument,
from --file, or from stdin when neither is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngestText,
}

var ingestURLsCmd = &cobra.Command{
	Use:   "urls URL [URL...]",
	Short: "Scrape and ingest web pages",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngestURLs,
}

var ingestRepoCmd = &cobra.Command{
	Use:   "repo OWNER/NAME",
	Short: "Ingest a repository's markdown docs",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestRepo,
}

func init() {
	ingestTextCmd.Flags().StringVarP(&ingestTitle, "title", "t", "", "title for the submission")
	ingestTextCmd.Flags().StringVarP(&ingestDescription, "description", "d", "", "short description")
	ingestTextCmd.Flags().StringSliceVar(&ingestTags, "tags", nil, "comma-separated tags")
	ingestTextCmd.Flags().StringVar(&ingestSourceType, "source-type", "", "source type label (default: text)")
	ingestTextCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "read content from a file")

	ingestCmd.AddCommand(ingestTextCmd)
	ingestCmd.AddCommand(ingestURLsCmd)
	ingestCmd.AddCommand(ingestRepoCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngestText(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	content, err := readContent(cmd, args)
	if err != nil {
		return err
	}

	chunks, err := ingestService.IngestText(context.Background(), content, domain.TextSubmission{
		Title:       ingestTitle,
		Description: ingestDescription,
		Tags:        ingestTags,
		SourceType:  ingestSourceType,
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Ingested %d chunk(s)\n", len(chunks))
	return nil
}

func runIngestURLs(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	chunks, report, err := ingestService.IngestURLs(context.Background(), args)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	printReport(cmd, report, len(chunks))
	return nil
}

func runIngestRepo(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	owner, repo, ok := strings.Cut(args[0], "/")
	if !ok || owner == "" || repo == "" {
		return fmt.Errorf("expected OWNER/NAME, got %q", args[0])
	}

	chunks, report, err := ingestService.IngestRepository(context.Background(), owner, repo)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	printReport(cmd, report, len(chunks))
	return nil
}

// readContent resolves the text submission body: argument, file, or
// stdin, in that order.
func readContent(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if ingestFile != "" {
		data, err := os.ReadFile(ingestFile)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", ingestFile, err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func printReport(cmd *cobra.Command, report *domain.IngestReport, chunks int) {
	cmd.Printf("Ingested %d/%d sources, %d chunk(s) (%s success rate)\n",
		report.Succeeded, report.Total, chunks, report.SuccessRate())
	for _, failure := range report.Failures {
		cmd.Printf("  failed: %s: %s\n", failure.Source, failure.Reason)
	}
}
