// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/harvest-engine/internal/store"
	"github.com/pdiddy/harvest-engine/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report tracker progress per day window",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().String("source", "", "restrict to one source (ARXIV or ZENODO)")
	statusCmd.Flags().Bool("yaml", false, "emit the windows as YAML")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	st, err := store.NewStore(cfg.Harvest.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	var source types.DataSource
	if only, _ := cmd.Flags().GetString("source"); only != "" {
		if source, err = parseSource(only); err != nil {
			return err
		}
	}

	trackers, err := st.ListTrackers(cmd.Context(), source)
	if err != nil {
		return err
	}

	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		return yaml.NewEncoder(os.Stdout).Encode(trackers)
	}

	if len(trackers) == 0 {
		fmt.Println("No tracked windows.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tWINDOW\tDISCOVERED\tPROCESSED\tSTATE")
	for _, t := range trackers {
		state := "pending"
		if t.Complete() {
			state = "complete"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			t.DataSource, t.DateStart.Format("2006-01-02"),
			t.AllPapersForPeriod, t.ProcessedPapersForPeriod, state)
	}
	return w.Flush()
}
