// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Tracker is the resumable progress marker for one
// (dataSource, dateStart, dateEnd) harvest window.
type Tracker struct {
	// ID is the store-assigned row id, zero for unsaved trackers.
	ID int64 `json:"id" yaml:"id"`

	// DateStart is the inclusive window start (a UTC calendar day).
	DateStart time.Time `json:"date_start" yaml:"date_start"`

	// DateEnd is the exclusive window end.
	DateEnd time.Time `json:"date_end" yaml:"date_end"`

	// DataSource is the feed this window belongs to.
	DataSource DataSource `json:"data_source" yaml:"data_source"`

	// AllPapersForPeriod counts records discovered for the window; it
	// may be revised upward when the window is re-fetched.
	AllPapersForPeriod int `json:"all_papers_for_period" yaml:"all_papers_for_period"`

	// ProcessedPapersForPeriod counts records that completed the
	// per-record pipeline, success or permanent failure. Monotonic.
	ProcessedPapersForPeriod int `json:"processed_papers_for_period" yaml:"processed_papers_for_period"`
}

// Complete reports whether every discovered record has been attempted.
// A window with zero discovered records is never complete; empty days
// stay eligible for re-discovery on later scans.
func (t Tracker) Complete() bool {
	return t.AllPapersForPeriod > 0 &&
		t.ProcessedPapersForPeriod == t.AllPapersForPeriod
}

// NewDayWindow constructs a fresh one-day tracker [date, date+1) with
// zero counts. The date is truncated to a UTC calendar day.
func NewDayWindow(date time.Time, source DataSource) Tracker {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return Tracker{
		DateStart:  day,
		DateEnd:    day.AddDate(0, 0, 1),
		DataSource: source,
	}
}
