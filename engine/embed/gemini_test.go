package embed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/domain"
)

func embedServer(t *testing.T, status int, values []float32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		var req geminiEmbedReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.WriteHeader(status)
		if status == http.StatusOK {
			json.NewEncoder(w).Encode(map[string]any{
				"embedding": map[string]any{"values": values},
			})
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiEmbed_Success(t *testing.T) {
	srv := embedServer(t, http.StatusOK, []float32{0.1, 0.2, 0.3})
	c := NewGemini(srv.URL, "key", "text-embedding-004", 3)

	vec, err := c.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Errorf("unexpected vector: %v", vec)
	}
}

func TestGeminiEmbed_DimensionMismatchIsPermanent(t *testing.T) {
	srv := embedServer(t, http.StatusOK, []float32{0.1, 0.2})
	c := NewGemini(srv.URL, "key", "text-embedding-004", 3)

	_, err := c.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
	if !domain.IsPermanent(err) {
		t.Error("dimension mismatch must be permanent")
	}
}

func TestGeminiEmbed_ServerErrorIsTransient(t *testing.T) {
	srv := embedServer(t, http.StatusBadGateway, nil)
	c := NewGemini(srv.URL, "key", "text-embedding-004", 0)

	_, err := c.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
	if domain.IsPermanent(err) {
		t.Error("5xx should be retryable")
	}
}

func TestGeminiEmbed_AuthErrorIsPermanent(t *testing.T) {
	srv := embedServer(t, http.StatusForbidden, nil)
	c := NewGemini(srv.URL, "bad-key", "text-embedding-004", 0)

	_, err := c.Embed(context.Background(), "hello")
	if !domain.IsPermanent(err) {
		t.Error("auth failure must be permanent")
	}
}

func TestGeminiEmbed_RateLimitedIsTransient(t *testing.T) {
	srv := embedServer(t, http.StatusTooManyRequests, nil)
	c := NewGemini(srv.URL, "key", "text-embedding-004", 0)

	_, err := c.Embed(context.Background(), "hello")
	if err == nil || domain.IsPermanent(err) {
		t.Errorf("429 should be transient, got %v", err)
	}
}

func TestGeminiEmbed_EmptyVector(t *testing.T) {
	srv := embedServer(t, http.StatusOK, []float32{})
	c := NewGemini(srv.URL, "key", "text-embedding-004", 0)

	_, err := c.Embed(context.Background(), "hello")
	if !domain.IsPermanent(err) {
		t.Errorf("empty vector should be permanent, got %v", err)
	}
}
