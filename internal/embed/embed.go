// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed talks to the embedding service: it chunks a document's
// text server-side and returns one vector per chunk.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/harvest-engine/pkg/types"
)

const (
	defaultTask         = "retrieval.passage"
	defaultChunkTokens  = 1024
	defaultChunkOverlap = 128
)

// Request is the embedding service contract: the full text plus the
// chunking parameters applied server-side.
type Request struct {
	Text         string `json:"text"`
	Task         string `json:"task"`
	ChunkTokens  int    `json:"chunk_tokens"`
	ChunkOverlap int    `json:"chunk_overlap"`
	Normalize    bool   `json:"normalize"`
}

// Response carries the model identity, the produced chunks with their
// character spans, and one embedding per chunk.
type Response struct {
	Model      string      `json:"model"`
	Dim        int         `json:"dim"`
	Chunks     []string    `json:"chunks"`
	Spans      [][]int     `json:"spans"`
	Embeddings [][]float32 `json:"embeddings"`
}

// Client calls the embedding REST endpoint.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	task    string
	tokens  int
	overlap int
	norm    bool
}

func NewClient(cfg types.EmbeddingConfig) *Client {
	task := cfg.Task
	if task == "" {
		task = defaultTask
	}
	tokens := cfg.ChunkTokens
	if tokens <= 0 {
		tokens = defaultChunkTokens
	}
	overlap := cfg.ChunkOverlap
	if overlap <= 0 {
		overlap = defaultChunkOverlap
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		task:    task,
		tokens:  tokens,
		overlap: overlap,
		norm:    cfg.Normalize,
	}
}

// Embed submits the text and returns chunk vectors. An empty or
// whitespace-only text yields an empty response without a network call.
func (c *Client) Embed(ctx context.Context, text string) (*Response, error) {
	if strings.TrimSpace(text) == "" {
		return &Response{}, nil
	}

	body, err := json.Marshal(Request{
		Text:         text,
		Task:         c.task,
		ChunkTokens:  c.tokens,
		ChunkOverlap: c.overlap,
		Normalize:    c.norm,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed_transcript", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling embedding service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("embedding service returned %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding embedding response: %w", err)
	}
	if len(out.Embeddings) != len(out.Chunks) {
		return nil, fmt.Errorf("embedding service returned %d embeddings for %d chunks",
			len(out.Embeddings), len(out.Chunks))
	}
	return &out, nil
}
