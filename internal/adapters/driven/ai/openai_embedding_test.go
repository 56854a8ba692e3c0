package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
)

func embeddingServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewOpenAIEmbedding(t *testing.T) {
	if _, err := NewOpenAIEmbedding("", "text-embedding-ada-002", ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("missing API key error = %v, want ErrInvalidArgument", err)
	}

	svc, err := NewOpenAIEmbedding("sk-test", "", "")
	if err != nil {
		t.Fatalf("NewOpenAIEmbedding() error = %v", err)
	}
	if svc.Model() != "text-embedding-ada-002" {
		t.Errorf("default Model() = %s", svc.Model())
	}
	if svc.Dimensions() != 1536 {
		t.Errorf("default Dimensions() = %d, want 1536", svc.Dimensions())
	}
}

func TestOpenAIEmbedding_Embed(t *testing.T) {
	srv := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %s, want /embeddings", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Input) != 2 {
			t.Errorf("got %d inputs, want 2", len(req.Input))
		}

		// Respond out of order; the client must reorder by index.
		json.NewEncoder(w).Encode(map[string]any{
			"model": req.Model,
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{0, 1}},
				{"index": 0, "embedding": []float32{1, 0}},
			},
		})
	})

	svc, err := NewOpenAIEmbedding("sk-test", "text-embedding-ada-002", srv.URL)
	if err != nil {
		t.Fatalf("NewOpenAIEmbedding() error = %v", err)
	}

	vectors, err := svc.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Errorf("vectors not reordered by index: %v", vectors)
	}
}

func TestOpenAIEmbedding_EmbedEmptyInput(t *testing.T) {
	svc, _ := NewOpenAIEmbedding("sk-test", "", "http://127.0.0.1:1")

	vectors, err := svc.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed(nil) error = %v", err)
	}
	if vectors != nil {
		t.Errorf("Embed(nil) = %v, want nil", vectors)
	}
}

func TestOpenAIEmbedding_APIError(t *testing.T) {
	srv := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"message": "rate limit exceeded",
				"type":    "rate_limit_error",
			},
		})
	})

	svc, _ := NewOpenAIEmbedding("sk-test", "", srv.URL)
	_, err := svc.Embed(context.Background(), []string{"text"})
	if !errors.Is(err, domain.ErrEmbeddingService) {
		t.Errorf("Embed() error = %v, want ErrEmbeddingService", err)
	}
}

func TestOpenAIEmbedding_ConnectionFailure(t *testing.T) {
	svc, _ := NewOpenAIEmbedding("sk-test", "", "http://127.0.0.1:1")

	_, err := svc.EmbedQuery(context.Background(), "text")
	if !errors.Is(err, domain.ErrEmbeddingService) {
		t.Errorf("EmbedQuery() error = %v, want ErrEmbeddingService", err)
	}
}
