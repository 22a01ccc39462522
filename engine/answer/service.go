// Package answer orchestrates the query pipeline: validate the query, embed
// it, retrieve the closest records, compose a grounding prompt, and call the
// generator for the final answer. Each external call gets its own timeout
// and bounded retries; generation failures degrade instead of failing the
// whole request.
package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/domain"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/embed"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/generate"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/prompt"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/pkg/fn"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/pkg/resilience"
)

// Retriever abstracts ranked vector retrieval.
type Retriever interface {
	Retrieve(ctx context.Context, vector []float32, topK int) (domain.RetrievalResult, error)
}

// Options configures pipeline timeouts and retry behaviour.
type Options struct {
	EmbedTimeout    time.Duration
	SearchTimeout   time.Duration
	GenerateTimeout time.Duration
	Retry           fn.RetryOpts
	// ObserveStage, when set, receives the wall-clock duration of each
	// pipeline stage ("embed", "search", "generate"), retries included,
	// whether the stage succeeded or failed.
	ObserveStage func(stage string, d time.Duration)
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		EmbedTimeout:    10 * time.Second,
		SearchTimeout:   5 * time.Second,
		GenerateTimeout: 30 * time.Second,
		Retry:           fn.DefaultRetry,
	}
}

// Service is the query orchestration service.
type Service struct {
	embedder  embed.Embedder
	retriever Retriever
	composer  *prompt.Composer
	generator generate.Generator
	breaker   *resilience.Breaker
	opts      Options
	logger    *slog.Logger
}

// New creates a Service. breaker may be nil to disable circuit breaking
// around the generator.
func New(embedder embed.Embedder, retriever Retriever, composer *prompt.Composer, generator generate.Generator, breaker *resilience.Breaker, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if composer == nil {
		composer = prompt.New(0)
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = fn.DefaultRetry
	}
	// Permanent failures (bad input, dimension mismatch, auth) and an open
	// circuit are never worth a second attempt.
	opts.Retry.RetryIf = func(err error) bool {
		return !domain.IsPermanent(err) && !errors.Is(err, resilience.ErrCircuitOpen)
	}
	return &Service{
		embedder:  embedder,
		retriever: retriever,
		composer:  composer,
		generator: generator,
		breaker:   breaker,
		opts:      opts,
		logger:    logger,
	}
}

// DegradedResponse is the ai_response returned when generation fails after
// all retries. Retrieval results are still returned in that case.
func DegradedResponse(resultCount int) string {
	return fmt.Sprintf("I found %d relevant results, but encountered an error generating a detailed response. Please check the individual results below.", resultCount)
}

var tracer = otel.Tracer("engine/answer")

// AnswerQuery runs the full pipeline for a query. Embedding or retrieval
// failure fails the request; generation failure degrades to a sentinel
// ai_response with the retrieval results intact.
func (s *Service) AnswerQuery(ctx context.Context, q domain.Query) (*domain.QueryResponse, error) {
	if err := domain.ValidateQuery(q); err != nil {
		return nil, err
	}
	topK := domain.ClampTopK(q.TopK)

	s.logger.Info("query start", "query_len", len(q.Text), "top_k", topK)

	vector, err := s.embedQuery(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("answer: embed query: %w", err)
	}

	results, err := s.retrieve(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("answer: retrieve: %w", err)
	}
	s.logger.Info("retrieval done", "results", len(results))

	p := s.composer.Compose(q.Text, results)

	text, err := s.generateAnswer(ctx, p)
	if err != nil {
		s.logger.Warn("generation failed, degrading", "err", err)
		return &domain.QueryResponse{
			Results:    results,
			AIResponse: DegradedResponse(len(results)),
			Degraded:   true,
		}, nil
	}

	return &domain.QueryResponse{Results: results, AIResponse: text}, nil
}

func (s *Service) observeStage(stage string, start time.Time) {
	if s.opts.ObserveStage != nil {
		s.opts.ObserveStage(stage, time.Since(start))
	}
}

func (s *Service) embedQuery(ctx context.Context, text string) ([]float32, error) {
	ctx, span := tracer.Start(ctx, "answer.embed")
	defer span.End()
	defer s.observeStage("embed", time.Now())

	r := fn.Retry(ctx, s.opts.Retry, func(ctx context.Context) fn.Result[[]float32] {
		callCtx, cancel := context.WithTimeout(ctx, s.opts.EmbedTimeout)
		defer cancel()
		return fn.FromPair(s.embedder.Embed(callCtx, text))
	})
	v, err := r.Unwrap()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return v, err
}

func (s *Service) retrieve(ctx context.Context, vector []float32, topK int) (domain.RetrievalResult, error) {
	ctx, span := tracer.Start(ctx, "answer.retrieve")
	defer span.End()
	defer s.observeStage("search", time.Now())

	r := fn.Retry(ctx, s.opts.Retry, func(ctx context.Context) fn.Result[domain.RetrievalResult] {
		callCtx, cancel := context.WithTimeout(ctx, s.opts.SearchTimeout)
		defer cancel()
		return fn.FromPair(s.retriever.Retrieve(callCtx, vector, topK))
	})
	v, err := r.Unwrap()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return v, err
}

func (s *Service) generateAnswer(ctx context.Context, p string) (string, error) {
	ctx, span := tracer.Start(ctx, "answer.generate")
	defer span.End()
	defer s.observeStage("generate", time.Now())

	r := fn.Retry(ctx, s.opts.Retry, func(ctx context.Context) fn.Result[string] {
		callCtx, cancel := context.WithTimeout(ctx, s.opts.GenerateTimeout)
		defer cancel()
		if s.breaker == nil {
			return fn.FromPair(s.generator.Generate(callCtx, p))
		}
		return resilience.CallResult(s.breaker, callCtx, func(ctx context.Context) fn.Result[string] {
			return fn.FromPair(s.generator.Generate(ctx, p))
		})
	})
	v, err := r.Unwrap()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return v, err
}
