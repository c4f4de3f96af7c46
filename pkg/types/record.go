// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the harvest pipeline:
// harvested records, mapped paper documents, and tracker windows.
package types

import (
	"regexp"
	"strings"
)

// DataSource identifies an OAI-PMH repository feed.
type DataSource string

const (
	SourceArxiv  DataSource = "ARXIV"
	SourceZenodo DataSource = "ZENODO"
)

// Author is one paper author in source order.
type Author struct {
	// FirstName holds the given name(s); may be empty when the feed
	// only carries a single display name.
	FirstName string `json:"first_name" yaml:"first_name"`

	// LastName holds the family name.
	LastName string `json:"last_name" yaml:"last_name"`
}

// Record is one harvested bibliographic item from an OAI-PMH feed.
// It is created by the harvester from a single <record> block and
// enriched in place by the pipeline.
type Record struct {
	// OAIIdentifier is the OAI header identifier
	// (e.g. "oai:arXiv.org:2301.07041").
	OAIIdentifier string `json:"oai_identifier" yaml:"oai_identifier"`

	// SourceID is the normalized external id derived from OAIIdentifier
	// (prefix stripped, trailing version suffix removed).
	SourceID string `json:"source_id" yaml:"source_id"`

	// Datestamp is the OAI header datestamp as reported by the feed.
	Datestamp string `json:"datestamp" yaml:"datestamp"`

	// Comments carries the arXiv comments field, or the DataCite
	// abstract description for Zenodo records.
	Comments string `json:"comments,omitempty" yaml:"comments,omitempty"`

	// JournalRef is the journal reference string, where present.
	JournalRef string `json:"journal_ref,omitempty" yaml:"journal_ref,omitempty"`

	// DOI is the feed-reported DOI, unnormalized.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// License is the raw license string or URI from the feed.
	License string `json:"license,omitempty" yaml:"license,omitempty"`

	// Language is the record language, where the feed reports one.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// Categories holds subject/category strings.
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// Authors lists the authors in feed order.
	Authors []Author `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Document is populated after enrichment; nil until then.
	Document *PaperDocument `json:"document,omitempty" yaml:"document,omitempty"`
}

// LastAuthor returns the most recently appended author, or nil when the
// record has none. Stream parsers use it to fill name parts as the
// surrounding author element is read.
func (r *Record) LastAuthor() *Author {
	if len(r.Authors) == 0 {
		return nil
	}
	return &r.Authors[len(r.Authors)-1]
}

var versionSuffix = regexp.MustCompile(`v\d+$`)

// ExtractSourceID derives the source-scoped paper id from an OAI
// identifier: the prefix up to the second colon is stripped
// ("oai:arXiv.org:2301.07041v2" → "2301.07041v2") and a trailing
// version suffix is removed. Returns "" for blank input.
func ExtractSourceID(oaiIdentifier string) string {
	if strings.TrimSpace(oaiIdentifier) == "" {
		return ""
	}
	parts := strings.SplitN(oaiIdentifier, ":", 3)
	localID := oaiIdentifier
	if len(parts) == 3 {
		localID = parts[2]
	}
	return versionSuffix.ReplaceAllString(localID, "")
}
