package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IrfanArv/dms-ai/internal/domain/entity"
)

func TestEmbedDocuments_EmptyInputSkipsRemoteCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := NewEmbeddingClient(srv.URL, "llama3")
	vectors, err := c.EmbedDocuments(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Zero(t, calls)
}

func TestEmbedQuery_EmptyInputSkipsRemoteCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := NewEmbeddingClient(srv.URL, "llama3")
	vector, err := c.EmbedQuery(context.Background(), "")

	require.NoError(t, err)
	assert.Nil(t, vector)
	assert.Zero(t, calls)
}

func TestEmbedDocuments_OneCallPerText(t *testing.T) {
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompts = append(prompts, req.Prompt)
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	c := NewEmbeddingClient(srv.URL, "llama3")
	vectors, err := c.EmbedDocuments(context.Background(), []string{"alpha", "beta"})

	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vectors[0])
	assert.Equal(t, []string{"alpha", "beta"}, prompts)
}

func TestEmbedDocuments_EmptyEmbeddingIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{}})
	}))
	defer srv.Close()

	c := NewEmbeddingClient(srv.URL, "llama3")
	_, err := c.EmbedDocuments(context.Background(), []string{"alpha"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty embedding")
}

func TestEmbedQuery_EmptyEmbeddingIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer srv.Close()

	c := NewEmbeddingClient(srv.URL, "llama3")
	_, err := c.EmbedQuery(context.Background(), "anything")

	require.Error(t, err)
}

func TestGenerate_StreamsFragmentsAndSkipsMalformedLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"response":"Hello"}`)
		fmt.Fprintln(w, `this is not json`)
		fmt.Fprintln(w, `{"unrelated":true}`)
		fmt.Fprintln(w, `{"response":" world"}`)
		fmt.Fprintln(w, `{"done":true}`)
	}))
	defer srv.Close()

	c := NewGenerateClient(srv.URL, "llama3")
	fragments, err := c.Generate(context.Background(), "hi", 0.7)
	require.NoError(t, err)

	var texts []string
	for f := range fragments {
		require.NoError(t, f.Err)
		texts = append(texts, f.Text)
	}
	assert.Equal(t, []string{"Hello", " world"}, texts)
}

func TestGenerate_SetupFailureReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewGenerateClient(srv.URL, "llama3")
	_, err := c.Generate(context.Background(), "hi", 0.7)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestGenerate_MidStreamFailureYieldsErrorFragment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, _, err := hj.Hijack()
		require.NoError(t, err)
		// advertise a longer body, then cut the connection mid-stream
		fmt.Fprintf(conn, "HTTP/1.1 200 OK\r\nContent-Type: application/x-ndjson\r\nContent-Length: 4096\r\n\r\n")
		fmt.Fprintf(conn, "{\"response\":\"partial\"}\n{\"response\":\" answer\"}\n")
		conn.Close()
	}))
	defer srv.Close()

	c := NewGenerateClient(srv.URL, "llama3")
	fragments, err := c.Generate(context.Background(), "hi", 0.7)
	require.NoError(t, err)

	var got []entity.Fragment
	for f := range fragments {
		got = append(got, f)
	}
	require.Len(t, got, 3)
	assert.Equal(t, "partial", got[0].Text)
	assert.Equal(t, " answer", got[1].Text)
	assert.Error(t, got[2].Err)
}
