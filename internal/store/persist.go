// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/harvest-engine/pkg/types"
)

// Chunk is one persisted embedding chunk.
type Chunk struct {
	Index     int
	Model     string
	Dim       int
	Text      string
	SpanStart int
	SpanEnd   int
}

// PersistRecord writes the record, its authors, its mapped document
// with sections and references, and its embedding chunks in a single
// transaction. Re-persisting the same paper replaces the previous rows,
// so a re-run after a partial failure converges instead of duplicating.
func (s *Store) PersistRecord(ctx context.Context, rec *types.Record, source types.DataSource, pdfURL string, chunks []Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Replace any earlier row for this paper. Child rows cascade.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM records WHERE oai_identifier = ? OR (source_id = ? AND data_source = ?)`,
		rec.OAIIdentifier, rec.SourceID, string(source),
	); err != nil {
		return fmt.Errorf("clearing previous record: %w", err)
	}

	categories, err := json.Marshal(dedupe(rec.Categories))
	if err != nil {
		return fmt.Errorf("encoding categories: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO records (oai_identifier, source_id, data_source, datestamp,
			comments, journal_ref, doi, license, language, categories, pdf_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.OAIIdentifier, rec.SourceID, string(source), rec.Datestamp,
		rec.Comments, rec.JournalRef, rec.DOI, rec.License, rec.Language,
		string(categories), pdfURL,
	)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	recordID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading record id: %w", err)
	}

	for pos, a := range rec.Authors {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO authors (record_id, pos, first_name, last_name) VALUES (?, ?, ?, ?)`,
			recordID, pos, a.FirstName, a.LastName,
		); err != nil {
			return fmt.Errorf("inserting author: %w", err)
		}
	}

	if rec.Document != nil {
		if err := insertDocument(ctx, tx, recordID, rec.Document); err != nil {
			return err
		}
	}

	for _, c := range chunks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (record_id, idx, model, dim, chunk, span_start, span_end)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			recordID, c.Index, c.Model, c.Dim, c.Text, c.SpanStart, c.SpanEnd,
		); err != nil {
			return fmt.Errorf("inserting chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing record: %w", err)
	}
	return nil
}

// dedupe drops repeated values, keeping first occurrence order.
func dedupe(in []string) []string {
	if len(in) == 0 {
		return in
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func insertDocument(ctx context.Context, tx *sql.Tx, recordID int64, doc *types.PaperDocument) error {
	keywords, err := json.Marshal(doc.Keywords)
	if err != nil {
		return fmt.Errorf("encoding keywords: %w", err)
	}
	affiliations, err := json.Marshal(doc.Affiliations)
	if err != nil {
		return fmt.Errorf("encoding affiliations: %w", err)
	}
	classCodes, err := json.Marshal(doc.ClassCodes)
	if err != nil {
		return fmt.Errorf("encoding class codes: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (record_id, title, abstract, tei_xml, raw_content,
			keywords, affiliations, class_codes, doc_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recordID, doc.Title, doc.AbstractText, doc.TEIXML, doc.RawContent,
		string(keywords), string(affiliations), string(classCodes), doc.DocType,
	); err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}

	for pos, sec := range doc.Sections {
		title := sec.Title
		if title == "" {
			title = types.UntitledSection
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sections (record_id, pos, title, level, content) VALUES (?, ?, ?, ?, ?)`,
			recordID, pos, title, sec.Level, sec.Text,
		); err != nil {
			return fmt.Errorf("inserting section: %w", err)
		}
	}

	for _, ref := range doc.References {
		urls, err := json.Marshal(ref.URLs)
		if err != nil {
			return fmt.Errorf("encoding reference urls: %w", err)
		}
		authors, err := json.Marshal(ref.Authors)
		if err != nil {
			return fmt.Errorf("encoding reference authors: %w", err)
		}
		idnos, err := json.Marshal(ref.Idnos)
		if err != nil {
			return fmt.Errorf("encoding reference idnos: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO refs (record_id, idx, analytic_title, monogr_title, doi,
				urls, authors, year, venue, idnos)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			recordID, ref.Index, ref.AnalyticTitle, ref.MonogrTitle, ref.DOI,
			string(urls), string(authors), ref.Year, ref.Venue, string(idnos),
		); err != nil {
			return fmt.Errorf("inserting reference: %w", err)
		}
	}
	return nil
}
