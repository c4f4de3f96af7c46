// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/harvest-engine/pkg/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the look-back horizon for unprocessed day windows",
	Long: `Scan walks each source's look-back horizon (90 days by default) one day
window at a time, oldest first. Windows whose trackers are already complete
are skipped, so repeated scans only do the remaining work.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().String("source", "", "restrict to one source (ARXIV or ZENODO)")
	scanCmd.Flags().Int("days-back", 0, "override the look-back horizon for all sources")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	orch, st, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	only, _ := cmd.Flags().GetString("source")
	override, _ := cmd.Flags().GetInt("days-back")

	daysBack := map[types.DataSource]int{
		types.SourceArxiv:  cfg.Harvest.Arxiv.DaysBack,
		types.SourceZenodo: cfg.Harvest.Zenodo.DaysBack,
	}
	if override > 0 {
		for s := range daysBack {
			daysBack[s] = override
		}
	}
	if only != "" {
		source, err := parseSource(only)
		if err != nil {
			return err
		}
		for s := range daysBack {
			if s != source {
				daysBack[s] = 0
			}
		}
	}

	result, err := orch.Scan(cmd.Context(), daysBack, time.Now())
	if err != nil {
		return err
	}

	totals := result.Totals()
	fmt.Printf("Scanned %d window(s): %d discovered, %d succeeded, %d skipped, %d failed\n",
		len(result.Windows), totals.Discovered, totals.Succeeded, totals.Skipped, totals.Failed)
	if result.HasFailures() {
		return fmt.Errorf("%d paper(s) failed processing", totals.Failed)
	}
	return nil
}

func parseSource(s string) (types.DataSource, error) {
	switch types.DataSource(s) {
	case types.SourceArxiv:
		return types.SourceArxiv, nil
	case types.SourceZenodo:
		return types.SourceZenodo, nil
	}
	return "", fmt.Errorf("unknown source %q (expected ARXIV or ZENODO)", s)
}
