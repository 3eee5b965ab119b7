package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	assert.Equal(t, 64, e.Dimension())
	assert.Equal(t, "hash-64", e.ModelName())

	a, err := e.Embed(context.Background(), []string{"The capital of France is Paris.", "The capital of France is Paris."})
	require.NoError(t, err)
	require.Len(t, a, 2)
	assert.Equal(t, a[0], a[1])

	var norm float64
	for _, v := range a[0] {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestHashEmbedder_SimilarTextsAreCloser(t *testing.T) {
	e := NewHashEmbedder(384)
	vecs, err := e.Embed(context.Background(), []string{
		"What is the capital of France?",
		"Paris is the capital of France.",
		"Photosynthesis converts light into chemical energy.",
	})
	require.NoError(t, err)

	dot := func(a, b []float32) float64 {
		var s float64
		for i := range a {
			s += float64(a[i]) * float64(b[i])
		}
		return s
	}
	assert.Greater(t, dot(vecs[0], vecs[1]), dot(vecs[0], vecs[2]))
}

func TestHashEmbedder_EmptyText(t *testing.T) {
	vecs, err := NewHashEmbedder(8).Embed(context.Background(), []string{"the of and"})
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), vecs[0])
}

func TestOllamaEmbedder_Batches(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		calls++

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-minilm", req.Model)

		resp := embeddingResponse{}
		// Answer out of order to check that results are placed by index.
		for i := len(req.Input) - 1; i >= 0; i-- {
			vec := make([]float32, 384)
			vec[0] = float32(len(req.Input[i]))
			resp.Data = append(resp.Data, embeddingData{Embedding: vec, Index: i})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("all-minilm", srv.URL+"/v1", 0, 2)
	assert.Equal(t, 384, e.Dimension())

	vecs, err := e.Embed(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, 2, calls)
	assert.Equal(t, float32(1), vecs[0][0])
	assert.Equal(t, float32(2), vecs[1][0])
	assert.Equal(t, float32(3), vecs[2][0])
}

func TestOpenAIEmbedder_Errors(t *testing.T) {
	t.Setenv("DOCQA_TEST_KEY", "")
	_, err := NewOpenAIEmbedder("DOCQA_TEST_KEY", "text-embedding-3-small", "", 0)
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[{"embedding":[0.1,0.2],"index":0}]}`))
	}))
	defer srv.Close()

	t.Setenv("DOCQA_TEST_KEY", "k")
	e, err := NewOpenAIEmbedder("DOCQA_TEST_KEY", "text-embedding-3-small", srv.URL, 0)
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), []string{"x"})
	assert.ErrorContains(t, err, "dimension")

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer failing.Close()

	e, err = NewOpenAIEmbedder("DOCQA_TEST_KEY", "text-embedding-3-small", failing.URL, 0)
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), []string{"x"})
	assert.ErrorContains(t, err, "502")
}

func TestOllamaEmbedder_RateLimit(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"data":[{"embedding":[1,0],"index":0}]}`))
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("tiny", srv.URL, 2, 1)
	e.SetRateLimit(1000, 1)

	_, err := e.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Embed(ctx, []string{"b"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)

	e.SetRateLimit(0, 0)
	_, err = e.Embed(context.Background(), []string{"c"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
