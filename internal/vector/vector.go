// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vector upserts chunk embeddings into a Qdrant collection over
// its REST API.
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/harvest-engine/internal/embed"
	"github.com/pdiddy/harvest-engine/pkg/types"
)

// Point is one chunk vector plus its payload.
type Point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type upsertRequest struct {
	Points []Point `json:"points"`
}

// Client writes points into a fixed Qdrant collection.
type Client struct {
	http       *http.Client
	baseURL    string
	apiKey     string
	collection string
}

func NewClient(cfg types.VectorConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:       &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
	}
}

// PointID derives a stable point identity from the paper and chunk
// index, so re-running an upsert overwrites rather than duplicates.
func PointID(source types.DataSource, sourceID string, chunk int) string {
	return uuid.NewMD5(uuid.Nil, []byte(pointKey(source, sourceID, chunk))).String()
}

func pointKey(source types.DataSource, sourceID string, chunk int) string {
	return fmt.Sprintf("%s-%s-%d", source, sourceID, chunk)
}

// BuildPoints expands an embedding response into one point per chunk.
func BuildPoints(rec *types.Record, source types.DataSource, emb *embed.Response) []Point {
	points := make([]Point, 0, len(emb.Embeddings))
	for i, vec := range emb.Embeddings {
		payload := map[string]any{
			"chunkIndex": i,
			"pointKey":   pointKey(source, rec.SourceID, i),
			"sourceId":   rec.SourceID,
			"dataSource": string(source),
			"model":      emb.Model,
			"dim":        emb.Dim,
		}
		if rec.Document != nil {
			payload["title"] = rec.Document.Title
		}
		if i < len(emb.Chunks) {
			payload["chunk"] = emb.Chunks[i]
		}
		if i < len(emb.Spans) {
			payload["span"] = emb.Spans[i]
		}
		points = append(points, Point{
			ID:      PointID(source, rec.SourceID, i),
			Vector:  vec,
			Payload: payload,
		})
	}
	return points
}

// Upsert writes the points with wait semantics. An empty slice is a
// no-op.
func (c *Client) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	body, err := json.Marshal(upsertRequest{Points: points})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("qdrant returned %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	return nil
}
