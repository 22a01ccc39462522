package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/domain"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/events"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/pkg/metrics"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/pkg/mid"
)

// queryService is what the search handler needs from the engine.
type queryService interface {
	AnswerQuery(ctx context.Context, q domain.Query) (*domain.QueryResponse, error)
}

// SearchRequest is the JSON body for POST /search.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// SearchResult is one ranked hit in the response.
type SearchResult struct {
	ID       string            `json:"id"`
	Score    float32           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

// SearchResponse is the JSON response for POST /search.
type SearchResponse struct {
	Results      []SearchResult `json:"results"`
	Query        string         `json:"query"`
	TotalResults int            `json:"total_results"`
	AIResponse   string         `json:"ai_response"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// stageObserver feeds pipeline stage durations into per-stage histograms.
func stageObserver(reg *metrics.Registry) func(stage string, d time.Duration) {
	return func(stage string, d time.Duration) {
		name := metrics.WithLabels("nexus_stage_duration_seconds", "stage", stage)
		reg.Histogram(name, "Pipeline stage latency.", nil).Observe(d.Seconds())
	}
}

func handleSearch(svc queryService, publisher *events.Publisher, reg *metrics.Registry, logger *slog.Logger) http.HandlerFunc {
	queries := reg.Counter("nexus_queries_total", "Total search queries handled.")
	failures := reg.Counter("nexus_query_failures_total", "Search queries that failed.")
	degraded := reg.Counter("nexus_queries_degraded_total", "Queries answered without AI generation.")
	latency := reg.Histogram("nexus_query_duration_seconds", "End-to-end search latency.", nil)

	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		queries.Inc()

		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			failures.Inc()
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := svc.AnswerQuery(r.Context(), domain.Query{Text: req.Query, TopK: req.TopK})
		latency.Since(start)
		if err != nil {
			failures.Inc()
			logger.Error("search failed", "err", err, "request_id", mid.RequestIDFrom(r.Context()))
			writeError(w, statusFor(err), messageFor(err))
			return
		}

		if resp.Degraded {
			degraded.Inc()
		}

		publisher.Publish(r.Context(), events.QueryEvent{
			RequestID:  mid.RequestIDFrom(r.Context()),
			QueryChars: len(req.Query),
			TopK:       domain.ClampTopK(req.TopK),
			Results:    len(resp.Results),
			Degraded:   resp.Degraded,
			Duration:   time.Since(start),
			At:         start.UTC(),
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(toSearchResponse(req.Query, resp))
	}
}

func toSearchResponse(query string, resp *domain.QueryResponse) SearchResponse {
	results := make([]SearchResult, len(resp.Results))
	for i, sr := range resp.Results {
		results[i] = SearchResult{
			ID:       sr.Record.ID,
			Score:    sr.Score,
			Metadata: sr.Record.Metadata,
		}
	}
	return SearchResponse{
		Results:      results,
		Query:        query,
		TotalResults: len(results),
		AIResponse:   resp.AIResponse,
	}
}

// statusFor maps pipeline failures onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrIndexUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// messageFor keeps provider internals out of client-facing errors.
func messageFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		return "query cannot be empty"
	case errors.Is(err, domain.ErrIndexUnavailable):
		return "vector index unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "upstream timeout"
	case errors.Is(err, domain.ErrEmbedding):
		return "embedding provider failure"
	default:
		return "upstream failure"
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
