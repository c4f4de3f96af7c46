// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/harvest-engine/pkg/types"
)

const datacitePage = `<?xml version="1.0" encoding="UTF-8"?>
<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/">
  <ListRecords>
    <record>
      <header>
        <identifier>oai:zenodo.org:7654321</identifier>
        <datestamp>2026-03-14T08:00:00Z</datestamp>
      </header>
      <metadata>
        <resource xmlns="http://datacite.org/schema/kernel-4">
          <identifier identifierType="DOI">10.5281/zenodo.7654321</identifier>
          <creators>
            <creator>
              <creatorName>Hamilton, Margaret</creatorName>
            </creator>
            <creator>
              <creatorName>ignored when parts present</creatorName>
              <givenName>Katherine</givenName>
              <familyName>Johnson</familyName>
            </creator>
          </creators>
          <subjects>
            <subject>software engineering</subject>
            <subject>guidance systems</subject>
          </subjects>
          <rightsList>
            <rights rightsURI="https://creativecommons.org/licenses/by/4.0/legalcode">Creative Commons Attribution 4.0</rights>
          </rightsList>
          <descriptions>
            <description descriptionType="Abstract">We describe the flight software.</description>
          </descriptions>
        </resource>
      </metadata>
    </record>
    <record>
      <header>
        <identifier>oai:zenodo.org:1111111</identifier>
        <datestamp>2026-03-14T09:00:00Z</datestamp>
      </header>
      <metadata>
        <resource xmlns="http://datacite.org/schema/kernel-4">
          <identifier identifierType="DOI">10.5281/zenodo.1111111</identifier>
          <creators>
            <creator><creatorName>Solo, Author</creatorName></creator>
          </creators>
          <rightsList>
            <rights rightsURI="https://creativecommons.org/licenses/by/4.0/legalcode">CC BY 4.0</rights>
          </rightsList>
        </resource>
      </metadata>
    </record>
    <resumptionToken>page-2-token</resumptionToken>
  </ListRecords>
</OAI-PMH>`

func TestDataCiteParserParsePage(t *testing.T) {
	page, err := NewDataCiteParser().ParsePage([]byte(datacitePage))
	require.NoError(t, err)

	// The second record has no subjects and fails the scholarly check.
	require.Len(t, page.Records, 1)
	assert.Equal(t, "page-2-token", page.ResumptionToken)

	rec := page.Records[0]
	assert.Equal(t, "oai:zenodo.org:7654321", rec.OAIIdentifier)
	assert.Equal(t, "2026-03-14T08:00:00Z", rec.Datestamp)
	assert.Equal(t, "10.5281/zenodo.7654321", rec.DOI)
	assert.Equal(t, []string{"software engineering", "guidance systems"}, rec.Categories)
	assert.Equal(t, "https://creativecommons.org/licenses/by/4.0/legalcode", rec.License)
	assert.Equal(t, "We describe the flight software.", rec.Comments)

	require.Len(t, rec.Authors, 2)
	assert.Equal(t, types.Author{FirstName: "Margaret", LastName: "Hamilton"}, rec.Authors[0])
	assert.Equal(t, types.Author{FirstName: "Katherine", LastName: "Johnson"}, rec.Authors[1])
}

func TestDataCiteParserNoRecordsMatch(t *testing.T) {
	const page = `<?xml version="1.0"?>
<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/">
  <error code="noRecordsMatch">No matching records</error>
</OAI-PMH>`

	p, err := NewDataCiteParser().ParsePage([]byte(page))
	require.NoError(t, err)
	assert.Empty(t, p.Records)
	assert.Empty(t, p.ResumptionToken)
}

func TestSplitCreator(t *testing.T) {
	tests := []struct {
		name    string
		creator string
		given   string
		family  string
		want    types.Author
	}{
		{"explicit parts win", "Someone Else", "Ada", "Lovelace", types.Author{FirstName: "Ada", LastName: "Lovelace"}},
		{"family comma given", "Hopper, Grace", "", "", types.Author{FirstName: "Grace", LastName: "Hopper"}},
		{"plain name", "Alan Mathison Turing", "", "", types.Author{FirstName: "Alan Mathison", LastName: "Turing"}},
		{"single token", "Avicenna", "", "", types.Author{LastName: "Avicenna"}},
		{"empty", "", "", "", types.Author{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitCreator(tt.creator, tt.given, tt.family))
		})
	}
}
