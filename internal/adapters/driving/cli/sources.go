package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sourcesRuns int

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List ingested sources",
	RunE:  runSources,
}

func init() {
	sourcesCmd.Flags().IntVar(&sourcesRuns, "runs", 0, "also show the N most recent ingestion runs")
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	if ingestLog == nil {
		return errors.New("ingest log not configured")
	}

	ctx := context.Background()
	sources, err := ingestLog.ListSources(ctx)
	if err != nil {
		return fmt.Errorf("listing sources: %w", err)
	}

	if len(sources) == 0 {
		cmd.Println("No sources ingested yet.")
	} else {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tTITLE\tCHUNKS\tUPDATED")
		for _, src := range sources {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				src.Source, src.Title, src.Chunks, src.UpdatedAt.Format("2006-01-02 15:04"))
		}
		w.Flush()
	}

	if sourcesRuns > 0 {
		runs, err := ingestLog.ListRuns(ctx, sourcesRuns)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}
		cmd.Println()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tKIND\tSTARTED\tOK\tFAILED")
		for _, run := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
				run.ID, run.Kind, run.StartedAt.Format("2006-01-02 15:04"), run.Succeeded, run.Failed)
		}
		w.Flush()
	}
	return nil
}
