package chatgpt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSendsPromptAndReadsUsage(t *testing.T) {
	var got ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"- Kyoto"}}],"usage":{"prompt_tokens":4,"completion_tokens":3,"total_tokens":7}}`))
	}))
	defer srv.Close()

	client, err := NewClient(Options{APIKey: "sk-test", BaseURL: srv.URL + "/v1/", Model: "gpt-4o-mini", Temperature: 0.7, MaxOutputTokens: 256}, nil)
	require.NoError(t, err)

	gen, err := client.Generate(context.Background(), "suggest trips")
	require.NoError(t, err)
	require.Equal(t, "- Kyoto", gen.Text)
	require.Equal(t, 7, gen.Usage.TotalTokens)
	require.Equal(t, "gpt-4o-mini", got.Model)
	require.Equal(t, int32(256), got.MaxTokens)
	require.Equal(t, []Message{{Role: "user", Content: "suggest trips"}}, got.Messages)
}

func TestGenerateErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewClient(Options{APIKey: "k", BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	_, err = client.Generate(context.Background(), "x")
	require.ErrorContains(t, err, "status=429")

	_, err = NewClient(Options{}, nil)
	require.Error(t, err)
}

func TestGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Options{APIKey: "k", BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	_, err = client.Generate(context.Background(), "x")
	require.ErrorContains(t, err, "no choices")
}
