package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Ning0612/jutil/internal/history"
)

var (
	historyLimit int
	historyDest  string

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "View previous uploads",
		Long: `List recent upload runs recorded in the history ledger, newest first,
followed by totals over successful uploads.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of runs to show")
	historyCmd.Flags().StringVar(&historyDest, "dest", "", "only show runs into this destination")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if _, err := initLogger(nil); err != nil {
		return err
	}

	ledger, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer ledger.Close()

	runs, err := ledger.Recent(cmd.Context(), historyDest, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		printInfo("No uploads recorded yet.")
		printInfo("Run 'jutil upload -n <dest> <path>' to start one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tDEST\tSTATUS\tFILES\tSIZE\tDURATION\tID")
	for _, run := range runs {
		status := run.Status
		if run.DryRun {
			status += " (dry-run)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			humanize.Time(run.StartTime),
			run.Destination,
			status,
			run.Stats.FilesUploaded,
			humanize.IBytes(uint64(run.Stats.BytesUploaded)),
			run.Duration().Round(time.Second),
			shortID(run.ID),
		)
		if run.Error != "" {
			fmt.Fprintf(w, "\t\terror: %s\n", firstLine(run.Error))
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	total, count, err := ledger.Totals(cmd.Context(), historyDest)
	if err != nil {
		return err
	}
	printInfo("\n%d successful uploads: %s files, %s, %s folders created",
		count,
		humanize.Comma(int64(total.FilesUploaded)),
		humanize.IBytes(uint64(total.BytesUploaded)),
		humanize.Comma(int64(total.FoldersCreated)),
	)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
