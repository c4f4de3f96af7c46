// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives the per-window harvest: metadata discovery,
// PDF fetch, TEI conversion, embedding, and persistence.
package pipeline

import (
	"context"
	"fmt"

	"github.com/pdiddy/harvest-engine/pkg/types"
)

// SourceHandler adapts one repository feed to the orchestrator: it
// discovers a window's records and fetches the PDF for a record.
type SourceHandler interface {
	// Source identifies the feed.
	Source() types.DataSource

	// HarvestWindow returns every eligible record whose datestamp falls
	// in [window.DateStart, window.DateEnd).
	HarvestWindow(ctx context.Context, window types.Tracker) ([]*types.Record, error)

	// FetchPDF downloads the record's PDF. A nil or empty slice with a
	// nil error means the record has no usable PDF and should be
	// persisted metadata-only.
	FetchPDF(ctx context.Context, rec *types.Record) (pdf []byte, pdfURL string, err error)
}

// Registry maps data sources to their handlers.
type Registry map[types.DataSource]SourceHandler

func NewRegistry(handlers ...SourceHandler) Registry {
	r := make(Registry, len(handlers))
	for _, h := range handlers {
		r[h.Source()] = h
	}
	return r
}

func (r Registry) Get(source types.DataSource) (SourceHandler, error) {
	h, ok := r[source]
	if !ok {
		return nil, fmt.Errorf("no handler registered for source %s", source)
	}
	return h, nil
}

// Sources lists the registered sources in a stable order.
func (r Registry) Sources() []types.DataSource {
	var out []types.DataSource
	for _, s := range []types.DataSource{types.SourceArxiv, types.SourceZenodo} {
		if _, ok := r[s]; ok {
			out = append(out, s)
		}
	}
	for s := range r {
		if s != types.SourceArxiv && s != types.SourceZenodo {
			out = append(out, s)
		}
	}
	return out
}
