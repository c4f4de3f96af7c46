// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oai

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/harvest-engine/pkg/types"
)

// Page is one parsed ListRecords response: the eligible records plus
// the resumption token, empty when no pages remain.
type Page struct {
	Records         []*types.Record
	ResumptionToken string
}

// MetadataParser turns one raw ListRecords page into records. Each
// source schema (arXiv, DataCite) has its own implementation; a parse
// failure aborts the whole window so the caller never mistakes a
// truncated page for a complete one.
type MetadataParser interface {
	Name() string
	ParsePage(body []byte) (Page, error)
}

// Harvester drives the resumption-token loop for one source. Pages are
// fetched strictly one at a time; the caller can abort between pages by
// returning an error from the page callback.
type Harvester struct {
	Client *Client
	Parser MetadataParser

	// limiter paces page fetches; nil means no pacing.
	limiter *rate.Limiter
}

// NewHarvester builds a harvester. A non-zero pageDelay paces
// consecutive page fetches at one request per pageDelay.
func NewHarvester(client *Client, parser MetadataParser, pageDelay time.Duration) *Harvester {
	h := &Harvester{Client: client, Parser: parser}
	if pageDelay > 0 {
		h.limiter = rate.NewLimiter(rate.Every(pageDelay), 1)
	}
	return h
}

// Harvest fetches every page in [from, until) and hands each to fn in
// order. It stops when a response carries no resumption token. Any
// fetch error, parse error, or fn error aborts the harvest.
func (h *Harvester) Harvest(ctx context.Context, from, until time.Time, fn func(Page) error) error {
	token := ""
	for {
		if h.limiter != nil {
			if err := h.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		body, err := h.Client.ListRecords(ctx, from, until, token)
		if err != nil {
			return err
		}

		page, err := h.Parser.ParsePage(body)
		if err != nil {
			return err
		}

		if err := fn(page); err != nil {
			return err
		}

		token = strings.TrimSpace(page.ResumptionToken)
		if token == "" {
			return nil
		}
	}
}

// Collect harvests the whole window into memory.
func (h *Harvester) Collect(ctx context.Context, from, until time.Time) ([]*types.Record, error) {
	var all []*types.Record
	err := h.Harvest(ctx, from, until, func(p Page) error {
		all = append(all, p.Records...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}
