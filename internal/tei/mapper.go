// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tei

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/pdiddy/harvest-engine/pkg/types"
)

// Map converts a raw TEI XML string into a PaperDocument. Blank input
// yields a minimal document with one empty BODY section and doc type
// NO_CONTENT; malformed XML is an error (the caller treats it as a
// permanent per-record failure).
func Map(sourceID, oaiIdentifier, teiXML string) (*types.PaperDocument, error) {
	if strings.TrimSpace(teiXML) == "" {
		return &types.PaperDocument{
			SourceID:      sourceID,
			OAIIdentifier: oaiIdentifier,
			Sections:      []types.Section{{Title: "BODY", Level: 1, Text: ""}},
			TEIXML:        teiXML,
			DocType:       types.DocTypeNoContent,
		}, nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(teiXML); err != nil {
		return nil, fmt.Errorf("parsing TEI: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("parsing TEI: no root element")
	}

	title := fullText(findFirstPath(root, "teiHeader", "titleStmt", "title"))
	if title == "" {
		title = fullText(findFirstPath(root, "teiHeader", "sourceDesc", "biblStruct", "analytic", "title"))
	}

	abstract := fullText(findFirstPath(root, "teiHeader", "profileDesc", "abstract"))

	sections := extractSections(root)
	if allBlank(sections) {
		bodyText := fullText(findFirstPath(root, "text", "body"))
		sections = []types.Section{{Title: "BODY", Level: 1, Text: bodyText}}
	}

	return &types.PaperDocument{
		SourceID:      sourceID,
		OAIIdentifier: oaiIdentifier,
		Title:         title,
		AbstractText:  abstract,
		Sections:      sections,
		TEIXML:        teiXML,
		RawContent:    plainText(root),
		Keywords:      extractKeywords(root),
		Affiliations:  extractAffiliations(root),
		ClassCodes:    extractClassCodes(root),
		References:    extractReferences(root),
		DocType:       extractDocType(root),
	}, nil
}

func allBlank(sections []types.Section) bool {
	for _, s := range sections {
		if strings.TrimSpace(s.Text) != "" {
			return false
		}
	}
	return true
}

func extractKeywords(root *etree.Element) []string {
	keywords := findFirstPath(root, "teiHeader", "profileDesc", "textClass", "keywords")
	var out []string
	seen := make(map[string]bool)
	for _, term := range findAll(keywords, "term") {
		t := fullText(term)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// extractAffiliations joins each affiliation's orgName parts in
// department, institution, other order; an affiliation without orgName
// children contributes its raw text instead.
func extractAffiliations(root *etree.Element) []string {
	header := findFirst(root, "teiHeader")
	var out []string
	seen := make(map[string]bool)

	for _, aff := range findAll(header, "affiliation") {
		var parts []string
		orgs := findAll(aff, "orgName")
		for _, wantType := range []string{"department", "institution"} {
			for _, org := range orgs {
				if org.SelectAttrValue("type", "") == wantType {
					if t := fullText(org); t != "" {
						parts = append(parts, t)
					}
				}
			}
		}
		for _, org := range orgs {
			switch org.SelectAttrValue("type", "") {
			case "department", "institution":
			default:
				if t := fullText(org); t != "" {
					parts = append(parts, t)
				}
			}
		}

		joined := normalizeWS(strings.Join(parts, ", "))
		if joined == "" {
			joined = fullText(aff)
		}
		if joined == "" || seen[joined] {
			continue
		}
		seen[joined] = true
		out = append(out, joined)
	}
	return out
}

var classCodeSeparators = func(r rune) bool {
	return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func extractClassCodes(root *etree.Element) []string {
	textClass := findFirstPath(root, "teiHeader", "profileDesc", "textClass")
	var out []string
	seen := make(map[string]bool)
	for _, cc := range findAll(textClass, "classCode") {
		for _, token := range strings.FieldsFunc(fullText(cc), classCodeSeparators) {
			if token == "" || seen[token] {
				continue
			}
			seen[token] = true
			out = append(out, token)
		}
	}
	return out
}

// extractDocType prefers text/@type, then TEI/@subtype.
func extractDocType(root *etree.Element) string {
	if text := firstChild(root, "text"); text != nil {
		if t := normalizeWS(text.SelectAttrValue("type", "")); t != "" {
			return t
		}
	}
	return normalizeWS(root.SelectAttrValue("subtype", ""))
}
