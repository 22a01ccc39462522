package generate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/domain"
)

func generateServer(t *testing.T, status int, parts []string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiGenerateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.WriteHeader(status)
		if status != http.StatusOK {
			return
		}
		ps := make([]map[string]string, len(parts))
		for i, p := range parts {
			ps[i] = map[string]string{"text": p}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": ps}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiGenerate_Success(t *testing.T) {
	srv := generateServer(t, http.StatusOK, []string{"  The refund policy ", "is 30 days.\n"})
	c := NewGemini(srv.URL, "key", "")

	got, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Trimmed at the edges only; inner whitespace preserved.
	if got != "The refund policy is 30 days." {
		t.Errorf("unexpected answer: %q", got)
	}
}

func TestGeminiGenerate_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	t.Cleanup(srv.Close)
	c := NewGemini(srv.URL, "key", "")

	_, err := c.Generate(context.Background(), "prompt")
	if !errors.Is(err, domain.ErrGeneration) {
		t.Errorf("expected ErrGeneration, got %v", err)
	}
}

func TestGeminiGenerate_ErrorClassification(t *testing.T) {
	tests := []struct {
		status    int
		permanent bool
	}{
		{http.StatusBadRequest, true},
		{http.StatusUnauthorized, true},
		{http.StatusTooManyRequests, false},
		{http.StatusInternalServerError, false},
		{http.StatusServiceUnavailable, false},
	}
	for _, tt := range tests {
		srv := generateServer(t, tt.status, nil)
		c := NewGemini(srv.URL, "key", "")

		_, err := c.Generate(context.Background(), "prompt")
		if !errors.Is(err, domain.ErrGeneration) {
			t.Errorf("status %d: expected ErrGeneration, got %v", tt.status, err)
		}
		if domain.IsPermanent(err) != tt.permanent {
			t.Errorf("status %d: permanent = %v, want %v", tt.status, domain.IsPermanent(err), tt.permanent)
		}
	}
}
