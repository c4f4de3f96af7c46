// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/harvest-engine/internal/httputil"
	"github.com/pdiddy/harvest-engine/internal/oai"
	"github.com/pdiddy/harvest-engine/pkg/types"
)

// zenodoRecordsBaseURL is swappable for tests.
var zenodoRecordsBaseURL = "https://zenodo.org/api/records"

// minPDFSize rejects stub uploads; anything under 40 KB is not worth
// converting.
const minPDFSize = 40_000

// ZenodoHandler harvests the Zenodo OAI feed (DataCite schema) and
// resolves PDFs through the Zenodo records API.
type ZenodoHandler struct {
	harvester *oai.Harvester
	http      *http.Client
}

func NewZenodoHandler(cfg types.OAISourceConfig, httpCfg types.HTTPConfig) *ZenodoHandler {
	timeout := httpCfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := &oai.Client{
		HTTP:              &http.Client{Timeout: timeout},
		BaseURL:           cfg.BaseURL,
		MetadataPrefix:    cfg.MetadataPrefix,
		UserAgent:         httpCfg.UserAgent,
		TolerateNoRecords: true,
	}
	return &ZenodoHandler{
		harvester: oai.NewHarvester(client, oai.NewDataCiteParser(), cfg.PageDelay),
		http:      &http.Client{Timeout: timeout},
	}
}

func (h *ZenodoHandler) Source() types.DataSource { return types.SourceZenodo }

func (h *ZenodoHandler) HarvestWindow(ctx context.Context, window types.Tracker) ([]*types.Record, error) {
	return h.harvester.Collect(ctx, window.DateStart, window.DateEnd)
}

// zenodoRecord is the trimmed records-API response: just the fields the
// file picker and language fill-in need.
type zenodoRecord struct {
	Files    []zenodoFile `json:"files"`
	Metadata struct {
		Language     string `json:"language"`
		ResourceType struct {
			Type    string `json:"type"`
			Subtype string `json:"subtype"`
		} `json:"resource_type"`
	} `json:"metadata"`
}

type zenodoFile struct {
	Key   string `json:"key"`
	Size  int64  `json:"size"`
	Links struct {
		Self string `json:"self"`
	} `json:"links"`
}

// pickPDF selects the largest PDF file that has a self download link.
func pickPDF(rec *zenodoRecord) *zenodoFile {
	var best *zenodoFile
	for i := range rec.Files {
		f := &rec.Files[i]
		if !strings.HasSuffix(strings.ToLower(f.Key), ".pdf") {
			continue
		}
		if strings.TrimSpace(f.Links.Self) == "" {
			continue
		}
		if best == nil || f.Size > best.Size {
			best = f
		}
	}
	return best
}

// acceptForConversion decides whether the deposit's PDF is worth
// sending through TEI conversion: publications only, a real PDF of at
// least minPDFSize bytes, and none of the non-paper subtypes (posters,
// slides, presentations, taxonomic treatments).
func acceptForConversion(rec *zenodoRecord) bool {
	if rec.Metadata.ResourceType.Type != "" &&
		!strings.EqualFold(rec.Metadata.ResourceType.Type, "publication") {
		return false
	}

	pdf := pickPDF(rec)
	if pdf == nil || pdf.Size < minPDFSize {
		return false
	}

	subtype := strings.ToLower(rec.Metadata.ResourceType.Subtype)
	for _, reject := range []string{"taxonomictreatment", "poster", "presentation", "slides"} {
		if strings.Contains(subtype, reject) {
			return false
		}
	}
	return true
}

// FetchPDF looks the deposit up in the records API, applies the
// conversion filter, and downloads the chosen file. Records that fail
// the filter proceed metadata-only.
func (h *ZenodoHandler) FetchPDF(ctx context.Context, rec *types.Record) ([]byte, string, error) {
	zr, err := h.getRecord(ctx, rec.SourceID)
	if err != nil {
		return nil, "", err
	}

	if rec.Language == "" {
		rec.Language = zr.Metadata.Language
	}

	if !acceptForConversion(zr) {
		return nil, "", nil
	}
	pdf := pickPDF(zr)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdf.Links.Self, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := httputil.DoWithRetry(ctx, h.http, req, 0)
	if err != nil {
		return nil, "", fmt.Errorf("downloading %s: %w", pdf.Links.Self, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("downloading %s: HTTP %d", pdf.Links.Self, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", pdf.Links.Self, err)
	}
	return data, pdf.Links.Self, nil
}

func (h *ZenodoHandler) getRecord(ctx context.Context, recordID string) (*zenodoRecord, error) {
	url := fmt.Sprintf("%s/%s", zenodoRecordsBaseURL, recordID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httputil.DoWithRetry(ctx, h.http, req, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}
	var zr zenodoRecord
	if err := json.NewDecoder(resp.Body).Decode(&zr); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", url, err)
	}
	return &zr, nil
}
