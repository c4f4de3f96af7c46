// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/harvest-engine/internal/embed"
	"github.com/pdiddy/harvest-engine/pkg/types"
)

func TestPointIDStable(t *testing.T) {
	a := PointID(types.SourceArxiv, "2301.07041", 0)
	b := PointID(types.SourceArxiv, "2301.07041", 0)
	assert.Equal(t, a, b, "same identity yields the same point id")

	assert.NotEqual(t, a, PointID(types.SourceArxiv, "2301.07041", 1))
	assert.NotEqual(t, a, PointID(types.SourceZenodo, "2301.07041", 0))
	assert.Len(t, a, 36, "uuid string form")
}

func TestBuildPoints(t *testing.T) {
	rec := &types.Record{
		SourceID: "2301.07041",
		Document: &types.PaperDocument{Title: "A Paper"},
	}
	emb := &embed.Response{
		Model:      "embedder-v1",
		Dim:        2,
		Chunks:     []string{"first", "second"},
		Spans:      [][]int{{0, 5}, {5, 11}},
		Embeddings: [][]float32{{0.1, 0.2}, {0.3, 0.4}},
	}

	points := BuildPoints(rec, types.SourceArxiv, emb)
	require.Len(t, points, 2)

	first := points[0]
	assert.Equal(t, PointID(types.SourceArxiv, "2301.07041", 0), first.ID)
	assert.Equal(t, []float32{0.1, 0.2}, first.Vector)
	assert.Equal(t, 0, first.Payload["chunkIndex"])
	assert.Equal(t, "2301.07041", first.Payload["sourceId"])
	assert.Equal(t, "ARXIV-2301.07041-0", first.Payload["pointKey"])
	assert.Equal(t, "ARXIV", first.Payload["dataSource"])
	assert.Equal(t, "A Paper", first.Payload["title"])
	assert.Equal(t, "embedder-v1", first.Payload["model"])
	assert.Equal(t, "first", first.Payload["chunk"])
	assert.Equal(t, []int{0, 5}, first.Payload["span"])
}

func TestUpsert(t *testing.T) {
	var got upsertRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/collections/papers/points", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		assert.Equal(t, "sekrit", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer ts.Close()

	c := NewClient(types.VectorConfig{BaseURL: ts.URL, APIKey: "sekrit", Collection: "papers"})

	points := []Point{{
		ID:      PointID(types.SourceArxiv, "x", 0),
		Vector:  []float32{0.1},
		Payload: map[string]any{"chunkIndex": 0},
	}}
	require.NoError(t, c.Upsert(context.Background(), points))
	require.Len(t, got.Points, 1)
	assert.Equal(t, points[0].ID, got.Points[0].ID)

	// Empty input never reaches the server.
	require.NoError(t, c.Upsert(context.Background(), nil))
}

func TestUpsertErrorSurfacesBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"status":{"error":"collection not found"}}`, http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClient(types.VectorConfig{BaseURL: ts.URL, Collection: "missing"})
	err := c.Upsert(context.Background(), []Point{{ID: "id", Vector: []float32{0.1}}})
	require.Error(t, err)
	assert.ErrorContains(t, err, "collection not found")
}
