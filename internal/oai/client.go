// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package oai fetches and parses OAI-PMH ListRecords feeds. Pages are
// fetched one at a time through resumption tokens; each page is parsed
// by a per-source streaming MetadataParser.
package oai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// dateFormat is the day-granularity form OAI-PMH date parameters use.
const dateFormat = "2006-01-02"

// Client issues ListRecords page requests against one OAI-PMH endpoint.
type Client struct {
	HTTP           *http.Client
	BaseURL        string
	MetadataPrefix string
	UserAgent      string

	// TolerateNoRecords treats an HTTP 422 whose body carries an OAI
	// noRecordsMatch error as a valid empty page. Zenodo answers empty
	// windows this way; the body still parses to zero records.
	TolerateNoRecords bool
}

// ListRecords fetches one page. Exactly one of (from/until) and token is
// sent: the OAI-PMH protocol forbids combining a resumption token with
// date-range parameters.
func (c *Client) ListRecords(ctx context.Context, from, until time.Time, token string) ([]byte, error) {
	params := url.Values{}
	params.Set("verb", "ListRecords")
	if token != "" {
		params.Set("resumptionToken", token)
	} else {
		params.Set("metadataPrefix", c.MetadataPrefix)
		params.Set("from", from.UTC().Format(dateFormat))
		params.Set("until", until.UTC().Format(dateFormat))
	}

	reqURL := c.BaseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OAI request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading OAI response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	if c.TolerateNoRecords && resp.StatusCode == http.StatusUnprocessableEntity &&
		bytes.Contains(body, []byte("noRecordsMatch")) {
		return body, nil
	}
	return nil, fmt.Errorf("OAI request failed: HTTP %d from %s", resp.StatusCode, reqURL)
}
