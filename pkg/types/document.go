// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DocTypeNoContent marks a document mapped from empty TEI input.
const DocTypeNoContent = "NO_CONTENT"

// UntitledSection is the stored title for sections that end up with a
// blank title after all fallbacks.
const UntitledSection = "UNTITLED"

// PaperDocument is the normalized structured form of a paper produced
// by the TEI mapper.
type PaperDocument struct {
	// SourceID matches the owning Record's SourceID.
	SourceID string `json:"source_id" yaml:"source_id"`

	// OAIIdentifier matches the owning Record's OAIIdentifier.
	OAIIdentifier string `json:"oai_identifier" yaml:"oai_identifier"`

	// Title is the paper title from the TEI header.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// AbstractText is the whitespace-normalized abstract.
	AbstractText string `json:"abstract_text,omitempty" yaml:"abstract_text,omitempty"`

	// Sections lists the extracted body sections in document order.
	// Never empty: a synthetic BODY section is substituted when
	// structural extraction yields nothing.
	Sections []Section `json:"sections" yaml:"sections"`

	// TEIXML retains the raw TEI source for audit and reprocessing.
	TEIXML string `json:"tei_xml,omitempty" yaml:"tei_xml,omitempty"`

	// RawContent is the flattened plain-text view handed to the
	// embedding service.
	RawContent string `json:"raw_content,omitempty" yaml:"raw_content,omitempty"`

	// Keywords, Affiliations and ClassCodes are deduplicated with
	// source order preserved.
	Keywords     []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Affiliations []string `json:"affiliations,omitempty" yaml:"affiliations,omitempty"`
	ClassCodes   []string `json:"class_codes,omitempty" yaml:"class_codes,omitempty"`

	// References lists deduplicated bibliographic citations, re-indexed 1..N.
	References []Reference `json:"references,omitempty" yaml:"references,omitempty"`

	// DocType is text/@type or TEI/@subtype, empty when neither is present.
	DocType string `json:"doc_type,omitempty" yaml:"doc_type,omitempty"`
}

// Section is one logical unit of paper body text.
type Section struct {
	// Title is the section heading; UNTITLED when the source had none.
	Title string `json:"title" yaml:"title"`

	// Level is the nesting depth, 1 for top-level divs.
	Level int `json:"level" yaml:"level"`

	// Text is the trimmed section body, excluding nested subsections.
	Text string `json:"text" yaml:"text"`
}

// Reference is one bibliographic citation extracted from back matter.
type Reference struct {
	// Index is the 1-based position after deduplication.
	Index int `json:"index" yaml:"index"`

	// AnalyticTitle is the article-level title when the reference is
	// part of a larger work.
	AnalyticTitle string `json:"analytic_title,omitempty" yaml:"analytic_title,omitempty"`

	// MonogrTitle is the book or journal-level title.
	MonogrTitle string `json:"monogr_title,omitempty" yaml:"monogr_title,omitempty"`

	// DOI is normalized: lowercase, prefixes and trailing punctuation stripped.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// URLs are deduplicated link targets.
	URLs []string `json:"urls,omitempty" yaml:"urls,omitempty"`

	// Authors are deduplicated display names.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is a 4-digit year string, empty when none was found.
	Year string `json:"year,omitempty" yaml:"year,omitempty"`

	// Venue is the journal/container title.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Idnos carries auxiliary key→value identifiers (publisher,
	// pubplace, date, biblscope_<unit>, raw_reference, ...).
	Idnos map[string]string `json:"idnos,omitempty" yaml:"idnos,omitempty"`
}

// Title returns the best display title: the analytic title when
// present, else the monograph title.
func (r Reference) Title() string {
	if r.AnalyticTitle != "" {
		return r.AnalyticTitle
	}
	return r.MonogrTitle
}

// Empty reports whether the reference carries no title, DOI, URL, or
// author; such stubs are dropped rather than emitted.
func (r Reference) Empty() bool {
	return r.AnalyticTitle == "" && r.MonogrTitle == "" && r.DOI == "" &&
		len(r.URLs) == 0 && len(r.Authors) == 0
}
