// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const arxivPage = `<?xml version="1.0" encoding="UTF-8"?>
<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/">
  <responseDate>2026-03-15T00:00:01Z</responseDate>
  <ListRecords>
    <record>
      <header>
        <identifier>oai:arXiv.org:2301.07041</identifier>
        <datestamp>2026-03-14</datestamp>
      </header>
      <metadata>
        <arXiv xmlns="http://arxiv.org/OAI/arXiv/">
          <id>2301.07041</id>
          <categories>cs.LG stat.ML</categories>
          <comments>17 pages, 4 figures</comments>
          <journal-ref>JMLR 2026</journal-ref>
          <doi>10.1234/example.doi</doi>
          <license>http://creativecommons.org/licenses/by/4.0/</license>
          <authors>
            <author><keyname>Curie</keyname><forenames>Marie</forenames></author>
            <author><keyname>Noether</keyname><forenames>Emmy</forenames></author>
          </authors>
        </arXiv>
      </metadata>
    </record>
    <record>
      <header>
        <identifier>oai:arXiv.org:2301.09999</identifier>
        <datestamp>2026-03-14</datestamp>
      </header>
      <metadata>
        <arXiv xmlns="http://arxiv.org/OAI/arXiv/">
          <id>2301.09999</id>
          <categories>cs.LG</categories>
          <license>http://creativecommons.org/licenses/by-nc/4.0/</license>
          <authors>
            <author><keyname>Body</keyname><forenames>Some</forenames></author>
          </authors>
        </arXiv>
      </metadata>
    </record>
    <resumptionToken cursor="0" completeListSize="240">7041396|1001</resumptionToken>
  </ListRecords>
</OAI-PMH>`

func TestArxivParserParsePage(t *testing.T) {
	page, err := NewArxivParser().ParsePage([]byte(arxivPage))
	require.NoError(t, err)

	// The CC-BY-NC record is filtered out.
	require.Len(t, page.Records, 1)
	assert.Equal(t, "7041396|1001", page.ResumptionToken)

	rec := page.Records[0]
	assert.Equal(t, "oai:arXiv.org:2301.07041", rec.OAIIdentifier)
	assert.Equal(t, "2301.07041", rec.SourceID)
	assert.Equal(t, "2026-03-14", rec.Datestamp)
	assert.Equal(t, []string{"cs.LG", "stat.ML"}, rec.Categories)
	assert.Equal(t, "17 pages, 4 figures", rec.Comments)
	assert.Equal(t, "JMLR 2026", rec.JournalRef)
	assert.Equal(t, "10.1234/example.doi", rec.DOI)
	assert.Equal(t, "http://creativecommons.org/licenses/by/4.0/", rec.License)

	require.Len(t, rec.Authors, 2)
	assert.Equal(t, "Marie", rec.Authors[0].FirstName)
	assert.Equal(t, "Curie", rec.Authors[0].LastName)
	assert.Equal(t, "Emmy", rec.Authors[1].FirstName)
	assert.Equal(t, "Noether", rec.Authors[1].LastName)
}

func TestArxivParserLastPageHasNoToken(t *testing.T) {
	const page = `<?xml version="1.0"?>
<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/">
  <ListRecords>
    <record>
      <header>
        <identifier>oai:arXiv.org:2302.00001</identifier>
        <datestamp>2026-03-14</datestamp>
      </header>
      <metadata>
        <arXiv xmlns="http://arxiv.org/OAI/arXiv/">
          <id>2302.00001</id>
          <categories>math.CO</categories>
          <license>http://creativecommons.org/publicdomain/zero/1.0/</license>
        </arXiv>
      </metadata>
    </record>
  </ListRecords>
</OAI-PMH>`

	p, err := NewArxivParser().ParsePage([]byte(page))
	require.NoError(t, err)
	assert.Empty(t, p.ResumptionToken)
	require.Len(t, p.Records, 1)
}

func TestArxivParserMalformedXML(t *testing.T) {
	_, err := NewArxivParser().ParsePage([]byte(`<OAI-PMH><ListRecords><record>`))
	assert.Error(t, err)
}

func TestArxivParserEmptyPage(t *testing.T) {
	const page = `<?xml version="1.0"?>
<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/">
  <error code="noRecordsMatch">No matching records</error>
</OAI-PMH>`

	p, err := NewArxivParser().ParsePage([]byte(page))
	require.NoError(t, err)
	assert.Empty(t, p.Records)
	assert.Empty(t, p.ResumptionToken)
}
