// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Process a single day window for one source",
	Long: `Harvest fetches one source's records for a single UTC day window, runs
each unprocessed paper through PDF fetch, TEI conversion, embedding, and
persistence, and advances the window's tracker.`,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().String("source", "", "source to harvest (ARXIV or ZENODO)")
	harvestCmd.Flags().String("date", "", "UTC day to harvest, YYYY-MM-DD (default: yesterday)")
	harvestCmd.MarkFlagRequired("source")

	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	sourceArg, _ := cmd.Flags().GetString("source")
	source, err := parseSource(sourceArg)
	if err != nil {
		return err
	}

	day := time.Now().UTC().AddDate(0, 0, -1)
	if dateArg, _ := cmd.Flags().GetString("date"); dateArg != "" {
		if day, err = parseDay(dateArg); err != nil {
			return fmt.Errorf("parsing --date: %w", err)
		}
	}

	cfg := buildConfig()
	orch, st, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := orch.ProcessWindow(cmd.Context(), source, day, nil)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s: %d discovered, %d succeeded, %d skipped, %d failed\n",
		result.Source, result.DateStart.Format("2006-01-02"),
		result.Discovered, result.Succeeded, result.Skipped, result.Failed)
	if result.HasFailures() {
		return fmt.Errorf("%d paper(s) failed processing", result.Failed)
	}
	return nil
}
