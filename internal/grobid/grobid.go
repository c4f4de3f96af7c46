// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package grobid calls the GROBID fulltext service to convert PDF bytes
// into TEI XML.
package grobid

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/pdiddy/harvest-engine/internal/httputil"
	"github.com/pdiddy/harvest-engine/pkg/types"
)

const (
	defaultEndpoint     = "/api/processFulltextDocument"
	defaultMaxAttempts  = 3
	defaultRetryBackoff = 250 * time.Millisecond
)

// Client converts PDFs through a GROBID instance.
type Client struct {
	http        *http.Client
	baseURL     string
	endpoint    string
	maxAttempts int
	backoff     time.Duration
}

// NewClient builds a Client from config, filling in the standard
// fulltext endpoint and attempt count when unset.
func NewClient(cfg types.GrobidConfig) *Client {
	endpoint := cfg.FulltextEndpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		http:        &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		endpoint:    endpoint,
		maxAttempts: attempts,
		backoff:     backoff,
	}
}

// ProcessPDF uploads the PDF and returns the TEI XML produced by the
// fulltext endpoint. Transient failures (connection errors, 429, 5xx)
// are retried with linearly growing backoff; any other non-2xx status
// fails immediately. The upload is re-encoded per attempt because the
// multipart body is consumed by the request.
func (c *Client) ProcessPDF(ctx context.Context, sourceID string, pdf []byte) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt-1)):
			}
		}

		tei, retryable, err := c.attempt(ctx, sourceID, pdf)
		if err == nil {
			return tei, nil
		}
		if !retryable {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("converting %s after %d attempts: %w", sourceID, c.maxAttempts, lastErr)
}

func (c *Client) attempt(ctx context.Context, sourceID string, pdf []byte) (tei string, retryable bool, err error) {
	body, contentType, err := encodeRequest(sourceID, pdf)
	if err != nil {
		return "", false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.endpoint, body)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("posting to grobid: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("reading grobid response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", httputil.Retryable(resp.StatusCode),
			fmt.Errorf("grobid returned %s: %s", resp.Status, truncate(string(data), 200))
	}
	return string(data), false, nil
}

// encodeRequest builds the multipart form GROBID expects: the PDF as the
// input part plus the consolidation and segmentation flags.
func encodeRequest(sourceID string, pdf []byte) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="input"; filename="%s.pdf"`, sourceID))
	header.Set("Content-Type", "application/pdf")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(pdf); err != nil {
		return nil, "", err
	}

	for _, field := range []struct{ name, value string }{
		{"consolidateHeader", "1"},
		{"consolidateCitations", "1"},
		{"segmentSentences", "1"},
		{"includeRawCitations", "1"},
		{"includeRawAffiliations", "1"},
	} {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
