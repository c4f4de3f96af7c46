// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oai

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/harvest-engine/internal/license"
	"github.com/pdiddy/harvest-engine/pkg/types"
)

// arxivParser streams the flat arXiv metadata schema. The state machine
// tracks header/metadata scope plus the current field tag instead of
// building a DOM; ListRecords pages run to megabytes.
type arxivParser struct {
	policy license.Policy
}

// NewArxivParser returns the parser for the arXiv ListRecords schema.
func NewArxivParser() MetadataParser {
	return &arxivParser{policy: license.ArxivPolicy}
}

func (p *arxivParser) Name() string { return "arXiv" }

func (p *arxivParser) ParsePage(body []byte) (Page, error) {
	d := xml.NewDecoder(bytes.NewReader(body))

	var (
		page       Page
		cur        *types.Record
		inHeader   bool
		inMetadata bool
		tag        string
	)

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Page{}, fmt.Errorf("parsing arXiv OAI page: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch name := t.Name.Local; name {
			case "record":
				cur = &types.Record{}
			case "header":
				inHeader = true
			case "metadata":
				inMetadata = true
			case "resumptionToken":
				tag = "token"
			case "identifier", "datestamp":
				if inHeader {
					tag = name
				}
			case "id", "categories", "comments", "journal-ref", "doi", "license",
				"keyname", "forenames":
				if inMetadata {
					tag = name
				}
			case "author":
				if inMetadata && cur != nil {
					cur.Authors = append(cur.Authors, types.Author{})
				}
			}

		case xml.CharData:
			if tag == "" {
				continue
			}
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			if cur == nil && tag != "token" {
				continue
			}

			switch tag {
			case "identifier":
				cur.OAIIdentifier = text
			case "datestamp":
				cur.Datestamp = text
			case "categories":
				cur.Categories = append(cur.Categories, strings.Fields(text)...)
			case "comments":
				cur.Comments = text
			case "journal-ref":
				cur.JournalRef = text
			case "doi":
				cur.DOI = text
			case "license":
				cur.License = text
			case "keyname":
				if a := cur.LastAuthor(); a != nil {
					a.LastName = text
				}
			case "forenames":
				if a := cur.LastAuthor(); a != nil {
					a.FirstName = text
				}
			case "id":
				cur.SourceID = text
			case "token":
				page.ResumptionToken = text
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "header":
				inHeader = false
			case "metadata":
				inMetadata = false
			case "record":
				if cur != nil && license.Eligible(cur, p.policy) {
					page.Records = append(page.Records, cur)
				}
				cur = nil
			}

			if tag == "token" && t.Name.Local == "resumptionToken" {
				tag = ""
			} else if tag == t.Name.Local {
				tag = ""
			}
		}
	}

	return page, nil
}
