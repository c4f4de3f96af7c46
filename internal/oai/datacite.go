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

// dataciteParser streams the DataCite schema Zenodo serves under
// metadataPrefix=oai_datacite. Creators need local buffering because a
// name may arrive either as given/family elements or as one creatorName
// to be split; descriptions accumulate across character chunks.
type dataciteParser struct {
	policy license.Policy
}

// NewDataCiteParser returns the parser for Zenodo's DataCite schema.
func NewDataCiteParser() MetadataParser {
	return &dataciteParser{policy: license.ZenodoPolicy}
}

func (p *dataciteParser) Name() string { return "DataCite" }

func (p *dataciteParser) ParsePage(body []byte) (Page, error) {
	d := xml.NewDecoder(bytes.NewReader(body))

	var (
		page       Page
		cur        *types.Record
		inHeader   bool
		inMetadata bool
		inCreator  bool
		tag        string

		creatorName    string
		givenName      string
		familyName     string
		identifierType string

		description strings.Builder
	)

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Page{}, fmt.Errorf("parsing DataCite OAI page: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "record":
				cur = &types.Record{}
				description.Reset()
			case "header":
				inHeader = true
			case "metadata":
				inMetadata = true
			case "resumptionToken":
				tag = "token"
			case "identifier":
				if inHeader {
					tag = "headerIdentifier"
				} else if inMetadata {
					identifierType = attrValue(t, "identifierType")
					tag = "dataciteIdentifier"
				}
			case "datestamp":
				if inHeader {
					tag = "datestamp"
				}
			case "creator":
				if inMetadata && cur != nil {
					inCreator = true
					creatorName, givenName, familyName = "", "", ""
				}
			case "creatorName":
				if inCreator {
					tag = "creatorName"
				}
			case "givenName":
				if inCreator {
					tag = "givenName"
				}
			case "familyName":
				if inCreator {
					tag = "familyName"
				}
			case "subject":
				if inMetadata {
					tag = "subject"
				}
			case "rights":
				if inMetadata && cur != nil {
					// Prefer rightsURI over the rights element text.
					if uri := attrValue(t, "rightsURI"); uri != "" && cur.License == "" {
						cur.License = uri
					}
					tag = "rightsText"
				}
			case "description":
				if inMetadata {
					tag = "description"
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
			case "token":
				page.ResumptionToken = text
			case "headerIdentifier":
				cur.OAIIdentifier = text
			case "datestamp":
				cur.Datestamp = text
			case "creatorName":
				creatorName = text
			case "givenName":
				givenName = text
			case "familyName":
				familyName = text
			case "subject":
				cur.Categories = append(cur.Categories, text)
			case "rightsText":
				if cur.License == "" {
					cur.License = text
				}
			case "dataciteIdentifier":
				if strings.EqualFold(identifierType, "DOI") {
					cur.DOI = text
				}
			case "description":
				description.WriteString(text)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "header":
				inHeader = false
			case "metadata":
				inMetadata = false
			case "identifier":
				identifierType = ""
				if tag == "dataciteIdentifier" || tag == "headerIdentifier" {
					tag = ""
				}
			case "creator":
				if inCreator {
					inCreator = false
					if cur != nil {
						cur.Authors = append(cur.Authors, splitCreator(creatorName, givenName, familyName))
					}
					if tag == "creatorName" || tag == "givenName" || tag == "familyName" {
						tag = ""
					}
				}
			case "record":
				if cur != nil {
					if cur.Comments == "" && description.Len() > 0 {
						cur.Comments = description.String()
					}
					cur.License = license.Normalize(cur.License)
					if license.Eligible(cur, p.policy) {
						page.Records = append(page.Records, cur)
					}
				}
				cur = nil
				description.Reset()
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

// splitCreator builds an Author from whichever name parts the creator
// element carried. Explicit given/family names win; otherwise a single
// creatorName splits on ", " (family, given), and failing that the last
// whitespace-separated token is taken as the family name.
func splitCreator(creatorName, givenName, familyName string) types.Author {
	if familyName != "" || givenName != "" {
		return types.Author{FirstName: givenName, LastName: familyName}
	}
	if creatorName == "" {
		return types.Author{}
	}

	if family, given, ok := strings.Cut(creatorName, ","); ok {
		return types.Author{
			FirstName: strings.TrimSpace(given),
			LastName:  strings.TrimSpace(family),
		}
	}

	tokens := strings.Fields(creatorName)
	if len(tokens) == 1 {
		return types.Author{LastName: creatorName}
	}
	return types.Author{
		FirstName: strings.Join(tokens[:len(tokens)-1], " "),
		LastName:  tokens[len(tokens)-1],
	}
}

// attrValue returns the named attribute's value, matching by local name
// so namespaced attributes still resolve.
func attrValue(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
