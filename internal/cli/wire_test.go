package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"docqa/config"
	"docqa/internal/adapter/memstore"
	"docqa/internal/adapter/store"
	"docqa/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedder(t *testing.T) {
	c := config.DefaultConfig().Embedding

	e, err := newEmbedder(c)
	require.NoError(t, err)
	assert.Equal(t, "all-minilm", e.ModelName())
	assert.Equal(t, 384, e.Dimension())

	c.Provider = "hash"
	c.Dimension = 128
	e, err = newEmbedder(c)
	require.NoError(t, err)
	assert.Equal(t, "hash-128", e.ModelName())

	c.Provider = "openai"
	c.APIKeyEnv = "DOCQA_WIRE_TEST_KEY"
	t.Setenv("DOCQA_WIRE_TEST_KEY", "")
	_, err = newEmbedder(c)
	assert.Error(t, err)

	c.Provider = "word2vec"
	_, err = newEmbedder(c)
	assert.ErrorContains(t, err, "unsupported embedding provider")
}

func TestNewLLM(t *testing.T) {
	c := config.DefaultConfig().LLM

	m, err := newLLM(c)
	require.NoError(t, err)
	assert.Equal(t, "llama3", m.ModelName())

	c.Provider = "openai"
	c.APIKeyEnv = "DOCQA_WIRE_TEST_KEY"
	t.Setenv("DOCQA_WIRE_TEST_KEY", "")
	_, err = newLLM(c)
	assert.ErrorContains(t, err, "DOCQA_WIRE_TEST_KEY")

	t.Setenv("DOCQA_WIRE_TEST_KEY", "sk-test")
	c.Model = "gpt-4o-mini"
	m, err = newLLM(c)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", m.ModelName())
}

func TestNewExtractor(t *testing.T) {
	_, err := newExtractor(config.IngestConfig{Extractor: "native"})
	assert.NoError(t, err)
	_, err = newExtractor(config.IngestConfig{Extractor: "pdftotext"})
	assert.NoError(t, err)
	_, err = newExtractor(config.IngestConfig{Extractor: "ocr"})
	assert.Error(t, err)
}

func TestNewBackend(t *testing.T) {
	root := t.TempDir()
	c := config.DefaultConfig()

	disk, ok := newBackend(c, root).(*store.DiskBackend)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, ".docqa", "index", "index.db"), disk.Path())

	c.Workspace.InMemory = true
	_, ok = newBackend(c, root).(*memstore.Backend)
	assert.True(t, ok)
}

func TestBuildPipelineWithoutIndex(t *testing.T) {
	root := t.TempDir()
	c := config.DefaultConfig()
	c.Embedding.Provider = "hash"

	p, err := buildPipeline(context.Background(), c, root, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, domain.StateEmpty, p.Status().State)
	_, err = p.Answer(context.Background(), nil, "anything?")
	assert.ErrorIs(t, err, domain.ErrNotReady)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	newLogger(&buf, "warn", false).Info("hidden")
	assert.Empty(t, buf.String())

	newLogger(&buf, "warn", true).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}
