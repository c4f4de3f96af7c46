// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tei

import (
	"regexp"
	"strings"
)

// doiPattern matches a DOI anywhere in free text.
var doiPattern = regexp.MustCompile(`(?i)\b10\.\d{4,9}/[-._;()/:A-Z0-9]+\b`)

var (
	doiURLPrefix   = regexp.MustCompile(`(?i)^https?://doi\.org/`)
	doiLabelPrefix = regexp.MustCompile(`(?i)^doi:\s*`)
	doiTrailing    = regexp.MustCompile(`[\s[:punct:]]+$`)
)

// NormalizeDOI strips doi.org and "doi:" prefixes plus trailing
// punctuation and lowercases the result. Idempotent; returns "" for
// blank input.
func NormalizeDOI(doi string) string {
	d := strings.TrimSpace(doi)
	d = doiURLPrefix.ReplaceAllString(d, "")
	d = doiLabelPrefix.ReplaceAllString(d, "")
	d = doiTrailing.ReplaceAllString(d, "")
	return strings.ToLower(d)
}

// firstDOI returns the first DOI-shaped substring of s, or "".
func firstDOI(s string) string {
	return doiPattern.FindString(s)
}
