// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pdiddy/harvest-engine/internal/embed"
	"github.com/pdiddy/harvest-engine/internal/grobid"
	"github.com/pdiddy/harvest-engine/internal/store"
	"github.com/pdiddy/harvest-engine/internal/vector"
	"github.com/pdiddy/harvest-engine/pkg/types"
)

const defaultWorkers = 2

// Embedder produces chunk vectors for a document's text. Satisfied by
// *embed.Client; tests substitute a stub. Nil disables embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) (*embed.Response, error)
}

// VectorWriter upserts chunk points. Satisfied by *vector.Client; nil
// disables vector writes.
type VectorWriter interface {
	Upsert(ctx context.Context, points []vector.Point) error
}

// WindowResult summarizes one processed window.
type WindowResult struct {
	Source     types.DataSource
	DateStart  time.Time
	Discovered int
	Succeeded  int
	Skipped    int
	Failed     int
}

// Total returns how many records were attempted this run.
func (r WindowResult) Total() int {
	return r.Succeeded + r.Skipped + r.Failed
}

// HasFailures reports whether any record failed permanently this run.
func (r WindowResult) HasFailures() bool {
	return r.Failed > 0
}

// Orchestrator runs the per-window pipeline with a bounded worker pool.
// Record failures are isolated: one paper failing never aborts its
// siblings, and the tracker advances for every attempted record.
type Orchestrator struct {
	store    *store.Store
	grobid   *grobid.Service
	embedder Embedder
	vectors  VectorWriter
	registry Registry
	workers  int
	progress io.Writer
}

func NewOrchestrator(st *store.Store, svc *grobid.Service, embedder Embedder, vectors VectorWriter, registry Registry, workers int, progress io.Writer) *Orchestrator {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Orchestrator{
		store:    st,
		grobid:   svc,
		embedder: embedder,
		vectors:  vectors,
		registry: registry,
		workers:  workers,
		progress: progress,
	}
}

// ProcessWindow harvests one day window for a source and runs every
// unprocessed record through the pipeline.
//
// onlyIDs, when non-empty, switches to backfill semantics: the run is
// restricted to those source ids, already-persisted papers are re-run
// rather than excluded, the window's completeness is ignored, and the
// tracker does not advance (those papers were already counted).
func (o *Orchestrator) ProcessWindow(ctx context.Context, source types.DataSource, day time.Time, onlyIDs []string) (*WindowResult, error) {
	handler, err := o.registry.Get(source)
	if err != nil {
		return nil, err
	}

	backfill := len(onlyIDs) > 0
	window := types.NewDayWindow(day, source)
	result := &WindowResult{Source: source, DateStart: window.DateStart}

	tracker, err := o.store.GetOrCreateWindow(ctx, window)
	if err != nil {
		return nil, err
	}
	if tracker == nil {
		if !backfill {
			fmt.Fprintf(o.progress, "%s %s: window already complete, skipping\n",
				source, window.DateStart.Format("2006-01-02"))
			return result, nil
		}
		// Backfill targets papers in completed windows too.
		t := window
		tracker = &t
	}

	processed := map[string]bool{}
	if !backfill {
		if processed, err = o.store.ProcessedSourceIDs(ctx, window); err != nil {
			return nil, err
		}
	}

	records, err := handler.HarvestWindow(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("harvesting %s window %s: %w",
			source, window.DateStart.Format("2006-01-02"), err)
	}
	result.Discovered = len(records)
	if !backfill {
		if err := o.store.SetDiscovered(ctx, tracker.ID, len(records)); err != nil {
			return nil, err
		}
	}

	allow := make(map[string]bool, len(onlyIDs))
	for _, id := range onlyIDs {
		allow[id] = true
	}

	var pending []*types.Record
	for _, rec := range records {
		if rec.SourceID == "" {
			rec.SourceID = types.ExtractSourceID(rec.OAIIdentifier)
		}
		if rec.SourceID == "" || processed[rec.SourceID] {
			continue
		}
		if backfill && !allow[rec.SourceID] {
			continue
		}
		pending = append(pending, rec)
	}

	fmt.Fprintf(o.progress, "%s %s: %d discovered, %d to process\n",
		source, window.DateStart.Format("2006-01-02"), len(records), len(pending))

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, o.workers)
		mu  sync.Mutex
	)
	for _, rec := range pending {
		wg.Add(1)
		sem <- struct{}{}
		go func(rec *types.Record) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := o.processOne(ctx, handler, tracker, rec, !backfill)

			mu.Lock()
			switch outcome {
			case outcomeOK:
				result.Succeeded++
			case outcomeSkipped:
				result.Skipped++
			default:
				result.Failed++
			}
			mu.Unlock()
		}(rec)
	}
	wg.Wait()

	return result, nil
}

type outcome int

const (
	outcomeOK outcome = iota
	outcomeSkipped
	outcomeFailed
)

// processOne runs one record through fetch, convert, embed, and
// persist. Whatever happens, the tracker advances (unless this is a
// backfill re-run): failed papers count as attempted, and because they
// are never persisted they stay eligible for a later retry.
func (o *Orchestrator) processOne(ctx context.Context, handler SourceHandler, tracker *types.Tracker, rec *types.Record, advance bool) outcome {
	defer func() {
		if !advance {
			return
		}
		if err := o.store.AdvanceProcessed(ctx, tracker.ID); err != nil {
			fmt.Fprintf(o.progress, "warning: advancing tracker for %s: %v\n", rec.SourceID, err)
		}
	}()

	pdf, pdfURL, err := handler.FetchPDF(ctx, rec)
	if err != nil {
		fmt.Fprintf(o.progress, "failed %s: %v\n", rec.SourceID, err)
		return outcomeFailed
	}

	if len(pdf) == 0 {
		// No usable PDF: keep the metadata so the paper is not
		// re-fetched on the next scan.
		if err := o.store.PersistRecord(ctx, rec, tracker.DataSource, pdfURL, nil); err != nil {
			fmt.Fprintf(o.progress, "failed %s: %v\n", rec.SourceID, err)
			return outcomeFailed
		}
		fmt.Fprintf(o.progress, "skipped %s: no usable PDF\n", rec.SourceID)
		return outcomeSkipped
	}

	doc, err := o.grobid.Convert(ctx, rec, pdf)
	if err != nil {
		fmt.Fprintf(o.progress, "failed %s: %v\n", rec.SourceID, err)
		return outcomeFailed
	}
	rec.Document = doc

	var chunks []store.Chunk
	var emb *embed.Response
	if o.embedder != nil {
		emb, err = o.embedder.Embed(ctx, doc.RawContent)
		if err != nil {
			fmt.Fprintf(o.progress, "failed %s: %v\n", rec.SourceID, err)
			return outcomeFailed
		}
		chunks = toChunks(emb)
	}

	if err := o.store.PersistRecord(ctx, rec, tracker.DataSource, pdfURL, chunks); err != nil {
		fmt.Fprintf(o.progress, "failed %s: %v\n", rec.SourceID, err)
		return outcomeFailed
	}

	// Vector writes happen after the commit. Point ids are stable, so a
	// re-run overwrites rather than duplicates; a write failure here
	// leaves the paper persisted and is surfaced as a warning only.
	if o.vectors != nil && emb != nil && len(emb.Embeddings) > 0 {
		points := vector.BuildPoints(rec, tracker.DataSource, emb)
		if err := o.vectors.Upsert(ctx, points); err != nil {
			fmt.Fprintf(o.progress, "warning: vector upsert for %s: %v\n", rec.SourceID, err)
		}
	}

	fmt.Fprintf(o.progress, "processed %s: %d sections, %d references, %d chunks\n",
		rec.SourceID, len(doc.Sections), len(doc.References), len(chunks))
	return outcomeOK
}

func toChunks(emb *embed.Response) []store.Chunk {
	if emb == nil {
		return nil
	}
	chunks := make([]store.Chunk, 0, len(emb.Embeddings))
	for i := range emb.Embeddings {
		c := store.Chunk{Index: i, Model: emb.Model, Dim: emb.Dim}
		if i < len(emb.Chunks) {
			c.Text = emb.Chunks[i]
		}
		if i < len(emb.Spans) && len(emb.Spans[i]) == 2 {
			c.SpanStart = emb.Spans[i][0]
			c.SpanEnd = emb.Spans[i][1]
		}
		chunks = append(chunks, c)
	}
	return chunks
}
