// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/harvest-engine/internal/embed"
	"github.com/pdiddy/harvest-engine/internal/grobid"
	"github.com/pdiddy/harvest-engine/internal/store"
	"github.com/pdiddy/harvest-engine/internal/vector"
	"github.com/pdiddy/harvest-engine/pkg/types"
)

const stubTEI = `<TEI xmlns="http://www.tei-c.org/ns/1.0">
  <teiHeader><fileDesc><titleStmt><title>Stub</title></titleStmt></fileDesc></teiHeader>
  <text><body><div><head>Intro</head><p>Stub body.</p></div></body></text>
</TEI>`

// stubHandler serves canned records and PDFs.
type stubHandler struct {
	source  types.DataSource
	records []*types.Record
	pdfs    map[string][]byte
	pdfErr  map[string]error
}

func (h *stubHandler) Source() types.DataSource { return h.source }

func (h *stubHandler) HarvestWindow(context.Context, types.Tracker) ([]*types.Record, error) {
	// Fresh copies; the orchestrator mutates records in place.
	out := make([]*types.Record, len(h.records))
	for i, r := range h.records {
		cp := *r
		out[i] = &cp
	}
	return out, nil
}

func (h *stubHandler) FetchPDF(_ context.Context, rec *types.Record) ([]byte, string, error) {
	if err := h.pdfErr[rec.SourceID]; err != nil {
		return nil, "", err
	}
	pdf := h.pdfs[rec.SourceID]
	url := ""
	if len(pdf) > 0 {
		url = "https://example.org/" + rec.SourceID + ".pdf"
	}
	return pdf, url, nil
}

// failingConverter fails for the configured ids and succeeds otherwise.
type failingConverter struct {
	failFor map[string]bool
}

func (c failingConverter) ProcessPDF(_ context.Context, sourceID string, _ []byte) (string, error) {
	if c.failFor[sourceID] {
		return "", fmt.Errorf("conversion broke for %s", sourceID)
	}
	return stubTEI, nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, text string) (*embed.Response, error) {
	if text == "" {
		return &embed.Response{}, nil
	}
	return &embed.Response{
		Model:      "embedder-v1",
		Dim:        2,
		Chunks:     []string{text},
		Spans:      [][]int{{0, len(text)}},
		Embeddings: [][]float32{{0.1, 0.2}},
	}, nil
}

type recordingVectors struct {
	mu     sync.Mutex
	points []vector.Point
}

func (v *recordingVectors) Upsert(_ context.Context, points []vector.Point) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.points = append(v.points, points...)
	return nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "harvest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func record(sourceID string) *types.Record {
	return &types.Record{
		OAIIdentifier: "oai:arXiv.org:" + sourceID,
		SourceID:      sourceID,
		Datestamp:     "2026-03-14",
		License:       "https://creativecommons.org/licenses/by/4.0/",
		Categories:    []string{"cs.LG"},
		Authors:       []types.Author{{LastName: "Curie"}},
	}
}

func TestProcessWindowOutcomes(t *testing.T) {
	st := newTestStore(t)
	handler := &stubHandler{
		source: types.SourceArxiv,
		records: []*types.Record{
			record("2301.00001"), // no PDF: skipped
			record("2301.00002"), // succeeds
			record("2301.00003"), // conversion fails
		},
		pdfs: map[string][]byte{
			"2301.00002": []byte("pdf-2"),
			"2301.00003": []byte("pdf-3"),
		},
	}

	var progress bytes.Buffer
	svc := grobid.NewService(failingConverter{failFor: map[string]bool{"2301.00003": true}}, &progress)
	vectors := &recordingVectors{}
	orch := NewOrchestrator(st, svc, stubEmbedder{}, vectors,
		NewRegistry(handler), 2, &progress)

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	result, err := orch.ProcessWindow(context.Background(), types.SourceArxiv, day, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Discovered)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Failed)
	assert.True(t, result.HasFailures())

	// Every attempt advanced the tracker, so the window is complete and
	// a second run does nothing.
	window := types.NewDayWindow(day, types.SourceArxiv)
	tr, err := st.GetOrCreateWindow(context.Background(), window)
	require.NoError(t, err)
	assert.Nil(t, tr)

	again, err := orch.ProcessWindow(context.Background(), types.SourceArxiv, day, nil)
	require.NoError(t, err)
	assert.Zero(t, again.Total())

	// The skipped and succeeded papers are persisted; the failed one is
	// not.
	ids, err := st.ProcessedSourceIDs(context.Background(), window)
	require.NoError(t, err)
	assert.True(t, ids["2301.00001"])
	assert.True(t, ids["2301.00002"])
	assert.False(t, ids["2301.00003"])

	// One embedded paper, one point upserted with a stable id.
	require.Len(t, vectors.points, 1)
	assert.Equal(t, vector.PointID(types.SourceArxiv, "2301.00002", 0), vectors.points[0].ID)
	assert.Equal(t, "2301.00002", vectors.points[0].Payload["sourceId"])
}

func TestProcessWindowSkipsAlreadyProcessed(t *testing.T) {
	st := newTestStore(t)
	handler := &stubHandler{
		source:  types.SourceArxiv,
		records: []*types.Record{record("2301.00001"), record("2301.00002")},
		pdfs: map[string][]byte{
			"2301.00001": []byte("pdf-1"),
			"2301.00002": []byte("pdf-2"),
		},
	}

	svc := grobid.NewService(failingConverter{}, nil)
	orch := NewOrchestrator(st, svc, nil, nil, NewRegistry(handler), 1, nil)

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	// Pretend an earlier partial run persisted the first paper but
	// crashed before advancing the tracker for the second.
	require.NoError(t, st.PersistRecord(context.Background(), record("2301.00001"), types.SourceArxiv, "", nil))

	result, err := orch.ProcessWindow(context.Background(), types.SourceArxiv, day, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Discovered)
	assert.Equal(t, 1, result.Succeeded, "only the unprocessed paper runs")
}

func TestProcessWindowBackfill(t *testing.T) {
	st := newTestStore(t)
	handler := &stubHandler{
		source:  types.SourceArxiv,
		records: []*types.Record{record("2301.00001"), record("2301.00002")},
		pdfs: map[string][]byte{
			"2301.00001": []byte("pdf-1"),
			"2301.00002": []byte("pdf-2"),
		},
	}

	svc := grobid.NewService(failingConverter{}, nil)
	orch := NewOrchestrator(st, svc, nil, nil, NewRegistry(handler), 1, nil)

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	first, err := orch.ProcessWindow(ctx, types.SourceArxiv, day, nil)
	require.NoError(t, err)
	require.Equal(t, 2, first.Succeeded)

	// The window is now complete; a backfill still re-runs its target
	// and leaves the tracker counts alone.
	bf, err := orch.ProcessWindow(ctx, types.SourceArxiv, day, []string{"2301.00002"})
	require.NoError(t, err)
	assert.Equal(t, 1, bf.Succeeded)

	trackers, err := st.ListTrackers(ctx, types.SourceArxiv)
	require.NoError(t, err)
	require.Len(t, trackers, 1)
	assert.Equal(t, 2, trackers[0].AllPapersForPeriod)
	assert.Equal(t, 2, trackers[0].ProcessedPapersForPeriod)
}

func TestProcessWindowUnknownSource(t *testing.T) {
	st := newTestStore(t)
	orch := NewOrchestrator(st, grobid.NewService(failingConverter{}, nil), nil, nil, NewRegistry(), 1, nil)

	_, err := orch.ProcessWindow(context.Background(), types.SourceArxiv, time.Now(), nil)
	assert.Error(t, err)
}

func TestScanWalksHorizonOldestFirst(t *testing.T) {
	st := newTestStore(t)
	handler := &stubHandler{
		source:  types.SourceArxiv,
		records: []*types.Record{record("2301.00001")},
		pdfs:    map[string][]byte{"2301.00001": []byte("pdf")},
	}

	svc := grobid.NewService(failingConverter{}, nil)
	orch := NewOrchestrator(st, svc, nil, nil, NewRegistry(handler), 1, nil)

	now := time.Date(2026, 3, 16, 12, 0, 0, 0, time.UTC)
	result, err := orch.Scan(context.Background(), map[types.DataSource]int{types.SourceArxiv: 3}, now)
	require.NoError(t, err)

	require.Len(t, result.Windows, 3)
	assert.Equal(t, time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC), result.Windows[0].DateStart)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), result.Windows[2].DateStart)
}
