// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/harvest-engine/pkg/types"
)

// ScanResult aggregates the windows one scan touched.
type ScanResult struct {
	Windows []WindowResult
}

// Totals sums the per-window counts.
func (r ScanResult) Totals() WindowResult {
	var t WindowResult
	for _, w := range r.Windows {
		t.Discovered += w.Discovered
		t.Succeeded += w.Succeeded
		t.Skipped += w.Skipped
		t.Failed += w.Failed
	}
	return t
}

// HasFailures reports whether any window saw a permanent failure.
func (r ScanResult) HasFailures() bool {
	for _, w := range r.Windows {
		if w.HasFailures() {
			return true
		}
	}
	return false
}

// Scan walks each source's lookback horizon one day window at a time,
// oldest first, ending with yesterday. Completed windows are skipped by
// their trackers, so repeated scans only do the remaining work. A
// window that fails to harvest aborts that source but not the others.
func (o *Orchestrator) Scan(ctx context.Context, daysBack map[types.DataSource]int, now time.Time) (*ScanResult, error) {
	result := &ScanResult{}
	var firstErr error

	for _, source := range o.registry.Sources() {
		days := daysBack[source]
		if days <= 0 {
			continue
		}
		for d := days; d >= 1; d-- {
			day := now.UTC().AddDate(0, 0, -d)
			wr, err := o.ProcessWindow(ctx, source, day, nil)
			if err != nil {
				fmt.Fprintf(o.progress, "error: %s scan aborted at %s: %v\n",
					source, day.Format("2006-01-02"), err)
				if firstErr == nil {
					firstErr = err
				}
				break
			}
			result.Windows = append(result.Windows, *wr)
		}
	}
	return result, firstErr
}
