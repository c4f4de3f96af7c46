// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill [source-ids...]",
	Short: "Re-run selected papers through the pipeline",
	Long: `Backfill restricts a window's run to the named source ids. Papers already
persisted for the window are replaced; everything else in the window is left
alone. Use it to repair papers that failed conversion or to re-embed after a
model change.`,
	RunE: runBackfill,
}

func init() {
	backfillCmd.Flags().String("source", "", "source the papers belong to (ARXIV or ZENODO)")
	backfillCmd.Flags().String("date", "", "UTC day window the papers fall in, YYYY-MM-DD")
	backfillCmd.MarkFlagRequired("source")
	backfillCmd.MarkFlagRequired("date")

	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more source ids to backfill")
	}

	sourceArg, _ := cmd.Flags().GetString("source")
	source, err := parseSource(sourceArg)
	if err != nil {
		return err
	}
	dateArg, _ := cmd.Flags().GetString("date")
	day, err := parseDay(dateArg)
	if err != nil {
		return fmt.Errorf("parsing --date: %w", err)
	}

	cfg := buildConfig()
	orch, st, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := orch.ProcessWindow(cmd.Context(), source, day, args)
	if err != nil {
		return err
	}

	fmt.Printf("Backfilled %d paper(s): %d succeeded, %d skipped, %d failed\n",
		result.Total(), result.Succeeded, result.Skipped, result.Failed)
	if result.HasFailures() {
		return fmt.Errorf("%d paper(s) failed processing", result.Failed)
	}
	return nil
}
