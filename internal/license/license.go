// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package license decides whether a harvested record's license permits
// ingestion. The predicate is pure: it looks only at already-fetched
// metadata and has no side effects.
package license

import (
	"strings"

	"github.com/pdiddy/harvest-engine/pkg/types"
)

// Policy captures the per-source differences in license handling.
type Policy struct {
	// AllowND admits CC-BY-ND licenses. The arXiv feed rejects ND;
	// the Zenodo feed accepts it explicitly.
	AllowND bool

	// RequireScholarlySignals additionally demands at least one author
	// and one subject/category before a record counts as likely
	// scholarly. A heuristic with known false negatives: curated
	// Zenodo uploads without subjects are dropped.
	RequireScholarlySignals bool
}

// ArxivPolicy governs records from the arXiv feed.
var ArxivPolicy = Policy{}

// ZenodoPolicy governs records from the Zenodo feed.
var ZenodoPolicy = Policy{AllowND: true, RequireScholarlySignals: true}

// ForSource returns the policy for a data source.
func ForSource(source types.DataSource) Policy {
	if source == types.SourceZenodo {
		return ZenodoPolicy
	}
	return ArxivPolicy
}

// Normalize lowercases a license string, upgrades http:// to https://,
// and trims surrounding whitespace.
func Normalize(license string) string {
	l := strings.ToLower(strings.TrimSpace(license))
	return strings.ReplaceAll(l, "http://", "https://")
}

// compact collapses whitespace runs to single hyphens and maps
// underscores to hyphens so spellings like "CC BY 4.0" and "cc_by_4.0"
// match the same tokens.
func compact(normalized string) string {
	c := strings.Join(strings.Fields(normalized), "-")
	return strings.ReplaceAll(c, "_", "-")
}

// Eligible reports whether the record may be ingested under the given
// policy: the license must be acceptable and, when the policy demands
// it, the record must carry basic scholarly signals.
func Eligible(rec *types.Record, p Policy) bool {
	if rec == nil || !Acceptable(rec.License, p) {
		return false
	}
	if p.RequireScholarlySignals {
		if len(rec.Authors) == 0 || len(rec.Categories) == 0 {
			return false
		}
	}
	return true
}

// Acceptable reports whether a raw license string passes the policy.
// Restrictive markers reject regardless of other content; otherwise an
// explicit allow-list of permissive licenses applies.
func Acceptable(license string, p Policy) bool {
	l := Normalize(license)
	if l == "" {
		return false
	}
	c := compact(l)

	if strings.Contains(c, "-nc") {
		return false
	}
	if !p.AllowND && strings.Contains(c, "-nd") {
		return false
	}
	if strings.Contains(c, "-sa") {
		return false
	}
	// Covers gpl, agpl, and lgpl.
	if strings.Contains(c, "gpl") {
		return false
	}

	switch {
	case strings.Contains(l, "creativecommons.org/publicdomain/zero/1.0"),
		c == "cc0", strings.Contains(c, "cc0-1.0"):
		return true
	case strings.Contains(l, "creativecommons.org/licenses/by/4.0"),
		strings.Contains(c, "cc-by-4.0"):
		return true
	case strings.Contains(l, "creativecommons.org/licenses/by/3.0"),
		strings.Contains(c, "cc-by-3.0"):
		return true
	case p.AllowND && (strings.Contains(l, "creativecommons.org/licenses/by-nd/4.0") ||
		strings.Contains(c, "cc-by-nd-4.0")):
		return true
	case strings.Contains(c, "mit"):
		return true
	case strings.Contains(c, "apache-2.0"), strings.Contains(c, "apache2"):
		return true
	case strings.Contains(c, "bsd-2-clause"), strings.Contains(c, "bsd-3-clause"):
		return true
	case strings.Contains(c, "isc"):
		return true
	}
	return false
}
