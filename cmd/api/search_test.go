package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/answer"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/domain"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/pkg/metrics"
)

type stubService struct {
	resp *domain.QueryResponse
	err  error
	last domain.Query
}

func (s *stubService) AnswerQuery(_ context.Context, q domain.Query) (*domain.QueryResponse, error) {
	s.last = q
	return s.resp, s.err
}

func doSearch(t *testing.T, svc queryService, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := handleSearch(svc, nil, metrics.New(), slog.Default())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body)))
	return rec
}

func TestHandleSearch_Success(t *testing.T) {
	svc := &stubService{resp: &domain.QueryResponse{
		Results: domain.RetrievalResult{
			{Record: domain.Record{ID: "rec1", Metadata: map[string]string{domain.SearchableTextKey: "Alice"}}, Score: 0.92},
		},
		AIResponse: "Alice is the best match.",
	}}

	rec := doSearch(t, svc, `{"query":"who is alice?","top_k":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response json: %v", err)
	}
	if resp.TotalResults != 1 || len(resp.Results) != 1 {
		t.Errorf("unexpected result count: %+v", resp)
	}
	if resp.Results[0].ID != "rec1" || resp.Results[0].Score != 0.92 {
		t.Errorf("unexpected result: %+v", resp.Results[0])
	}
	if resp.Results[0].Metadata[domain.SearchableTextKey] != "Alice" {
		t.Errorf("metadata missing searchable_text: %+v", resp.Results[0].Metadata)
	}
	if resp.Query != "who is alice?" {
		t.Errorf("query not echoed: %q", resp.Query)
	}
	if resp.AIResponse != "Alice is the best match." {
		t.Errorf("unexpected ai_response: %q", resp.AIResponse)
	}
	if svc.last.TopK != 3 {
		t.Errorf("top_k not forwarded: %d", svc.last.TopK)
	}
}

func TestHandleSearch_DegradedIsStill200(t *testing.T) {
	svc := &stubService{resp: &domain.QueryResponse{
		Results: domain.RetrievalResult{
			{Record: domain.Record{ID: "rec1"}, Score: 0.5},
		},
		AIResponse: answer.DegradedResponse(1),
		Degraded:   true,
	}}

	reg := metrics.New()
	h := handleSearch(svc, nil, reg, slog.Default())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query":"q"}`)))

	if rec.Code != http.StatusOK {
		t.Errorf("degraded generation should still be 200, got %d", rec.Code)
	}
	if !strings.Contains(reg.Render(), "nexus_queries_degraded_total 1") {
		t.Errorf("degraded counter not incremented:\n%s", reg.Render())
	}
}

func TestHandleSearch_FailureStillObservedInLatency(t *testing.T) {
	reg := metrics.New()
	h := handleSearch(&stubService{err: domain.ErrEmbedding}, nil, reg, slog.Default())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query":"q"}`)))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	out := reg.Render()
	if !strings.Contains(out, "nexus_query_duration_seconds_count 1") {
		t.Errorf("failed request missing from latency histogram:\n%s", out)
	}
	if !strings.Contains(out, "nexus_query_failures_total 1") {
		t.Errorf("failure counter not incremented:\n%s", out)
	}
}

func TestStageObserver(t *testing.T) {
	reg := metrics.New()
	observe := stageObserver(reg)
	observe("embed", 30*time.Millisecond)
	observe("embed", 40*time.Millisecond)
	observe("generate", 100*time.Millisecond)

	out := reg.Render()
	if !strings.Contains(out, `nexus_stage_duration_seconds_count{stage="embed"} 2`) {
		t.Errorf("embed stage series missing:\n%s", out)
	}
	if !strings.Contains(out, `nexus_stage_duration_seconds_count{stage="generate"} 1`) {
		t.Errorf("generate stage series missing:\n%s", out)
	}
}

func TestHandleSearch_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid query", domain.ErrInvalidQuery, http.StatusBadRequest},
		{"index unavailable", domain.ErrIndexUnavailable, http.StatusServiceUnavailable},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"embedding", domain.ErrEmbedding, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doSearch(t, &stubService{err: tt.err}, `{"query":"q"}`)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
			var er errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil || er.Error == "" {
				t.Errorf("error body should carry a message: %s", rec.Body.String())
			}
		})
	}
}

func TestHandleSearch_MalformedBody(t *testing.T) {
	rec := doSearch(t, &stubService{}, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	ok := handleHealth(func(context.Context) error { return nil })
	rec := httptest.NewRecorder()
	ok.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if !strings.Contains(rec.Body.String(), `"status":"healthy"`) {
		t.Errorf("unexpected health body: %s", rec.Body.String())
	}

	bad := handleHealth(func(context.Context) error { return domain.ErrIndexUnavailable })
	rec = httptest.NewRecorder()
	bad.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if !strings.Contains(rec.Body.String(), `"status":"degraded"`) {
		t.Errorf("unexpected health body: %s", rec.Body.String())
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := loadConfig()
	if cfg.Port != "8080" {
		t.Errorf("unexpected default port: %s", cfg.Port)
	}
	if cfg.IndexBackend != "qdrant" {
		t.Errorf("unexpected default backend: %s", cfg.IndexBackend)
	}
	if cfg.EmbedDimension != 768 {
		t.Errorf("unexpected default dimension: %d", cfg.EmbedDimension)
	}
	if cfg.RetryAttempts != 3 {
		t.Errorf("unexpected default retries: %d", cfg.RetryAttempts)
	}
}
