package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"docqa/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaLLM_Generate(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: chatMessage{Role: "assistant", Content: "  Paris is the capital.\n"},
			Done:    true,
		})
	}))
	defer srv.Close()

	l := NewOllamaLLM(Config{BaseURL: srv.URL, Model: "llama3", Temperature: 0.1, NumCtx: 4096})

	answer, err := l.Generate(context.Background(), "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital.", answer)

	assert.Equal(t, "llama3", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	require.NotNil(t, got.Options)
	assert.Equal(t, 0.1, got.Options.Temperature)
	assert.Equal(t, 4096, got.Options.NumCtx)
}

func TestOllamaLLM_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{"error":"model not found"}`, nil},
		{"empty answer", http.StatusOK, `{"message":{"role":"assistant","content":"   "},"done":true}`, domain.ErrEmptyAnswer},
		{"error field", http.StatusOK, `{"error":"out of memory"}`, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewOllamaLLM(Config{BaseURL: srv.URL, Model: "m"}).Generate(context.Background(), "q")
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestOllamaLLM_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewOllamaLLM(Config{BaseURL: srv.URL, Model: "m"}).Generate(ctx, "q")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpenAILLM_Generate(t *testing.T) {
	var got chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Berlin"}}]}`))
	}))
	defer srv.Close()

	l, err := NewOpenAILLM(Config{BaseURL: srv.URL + "/", Model: "gpt-4o-mini", APIKey: "secret", Temperature: 0.1})
	require.NoError(t, err)

	answer, err := l.Generate(context.Background(), "capital of Germany?")
	require.NoError(t, err)
	assert.Equal(t, "Berlin", answer)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 0.1, got.Temperature)
}

func TestOpenAILLM_Errors(t *testing.T) {
	_, err := NewOpenAILLM(Config{Model: "m"})
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	l, err := NewOpenAILLM(Config{BaseURL: srv.URL, Model: "m", APIKey: "k"})
	require.NoError(t, err)
	_, err = l.Generate(context.Background(), "q")
	assert.ErrorIs(t, err, domain.ErrEmptyAnswer)

	apiErr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer apiErr.Close()

	l, err = NewOpenAILLM(Config{BaseURL: apiErr.URL, Model: "m", APIKey: "k"})
	require.NoError(t, err)
	_, err = l.Generate(context.Background(), "q")
	assert.ErrorContains(t, err, "bad key")
}
