// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grobid

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/harvest-engine/internal/tei"
	"github.com/pdiddy/harvest-engine/pkg/types"
)

// Converter turns PDF bytes into TEI XML. Satisfied by *Client;
// pipeline tests substitute a stub.
type Converter interface {
	ProcessPDF(ctx context.Context, sourceID string, pdf []byte) (string, error)
}

// Service couples PDF conversion with TEI mapping and reports per-paper
// timings to the progress writer.
type Service struct {
	converter Converter
	progress  io.Writer
}

func NewService(converter Converter, progress io.Writer) *Service {
	if progress == nil {
		progress = io.Discard
	}
	return &Service{converter: converter, progress: progress}
}

// Convert runs the PDF through GROBID and maps the TEI into a
// PaperDocument. An empty PDF skips conversion and yields the minimal
// NO_CONTENT document.
func (s *Service) Convert(ctx context.Context, rec *types.Record, pdf []byte) (*types.PaperDocument, error) {
	if len(pdf) == 0 {
		return tei.Map(rec.SourceID, rec.OAIIdentifier, "")
	}

	start := time.Now()
	teiXML, err := s.converter.ProcessPDF(ctx, rec.SourceID, pdf)
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", rec.SourceID, err)
	}
	convertDur := time.Since(start)

	start = time.Now()
	doc, err := tei.Map(rec.SourceID, rec.OAIIdentifier, teiXML)
	if err != nil {
		return nil, fmt.Errorf("mapping %s: %w", rec.SourceID, err)
	}
	fmt.Fprintf(s.progress, "converted %s: grobid %s, mapping %s\n",
		rec.SourceID, convertDur.Round(time.Millisecond), time.Since(start).Round(time.Millisecond))
	return doc, nil
}
