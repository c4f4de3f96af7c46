// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/harvest-engine/internal/httputil"
	"github.com/pdiddy/harvest-engine/internal/oai"
	"github.com/pdiddy/harvest-engine/pkg/types"
)

// arxivPDFBaseURL is swappable for tests.
var arxivPDFBaseURL = "https://arxiv.org/pdf"

// ArxivHandler harvests the arXiv OAI feed and fetches PDFs from the
// arXiv export mirror.
type ArxivHandler struct {
	harvester *oai.Harvester
	http      *http.Client
}

func NewArxivHandler(cfg types.OAISourceConfig, httpCfg types.HTTPConfig) *ArxivHandler {
	timeout := httpCfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := &oai.Client{
		HTTP:           &http.Client{Timeout: timeout},
		BaseURL:        cfg.BaseURL,
		MetadataPrefix: cfg.MetadataPrefix,
		UserAgent:      httpCfg.UserAgent,
	}
	return &ArxivHandler{
		harvester: oai.NewHarvester(client, oai.NewArxivParser(), cfg.PageDelay),
		http:      &http.Client{Timeout: timeout},
	}
}

func (h *ArxivHandler) Source() types.DataSource { return types.SourceArxiv }

func (h *ArxivHandler) HarvestWindow(ctx context.Context, window types.Tracker) ([]*types.Record, error) {
	return h.harvester.Collect(ctx, window.DateStart, window.DateEnd)
}

// FetchPDF downloads the paper from the arXiv PDF endpoint, retrying
// rate limits and server errors. A 404 means the paper has no PDF
// variant and the record proceeds metadata-only.
func (h *ArxivHandler) FetchPDF(ctx context.Context, rec *types.Record) ([]byte, string, error) {
	pdfURL := fmt.Sprintf("%s/%s.pdf", arxivPDFBaseURL, rec.SourceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := httputil.DoWithRetry(ctx, h.http, req, 0)
	if err != nil {
		return nil, "", fmt.Errorf("downloading %s: %w", pdfURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pdfURL, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("downloading %s: HTTP %d", pdfURL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", pdfURL, err)
	}
	return data, pdfURL, nil
}
