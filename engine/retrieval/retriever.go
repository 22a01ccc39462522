// Package retrieval turns a query vector into a ranked, size-bounded result
// set. It delegates nearest-neighbor search to the configured index and
// enforces deterministic ordering regardless of backend.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/domain"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/semantic"
)

// Retriever produces RetrievalResults from an Index.
type Retriever struct {
	index  semantic.Index
	logger *slog.Logger
}

// New creates a Retriever over the given index.
func New(index semantic.Index, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{index: index, logger: logger}
}

// Retrieve returns up to topK records ranked by cosine similarity to the
// query vector: score descending, ties broken by record ID ascending. An
// empty index yields an empty result, not an error. The index is never
// mutated.
func (r *Retriever) Retrieve(ctx context.Context, vector []float32, topK int) (domain.RetrievalResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	hits, err := r.index.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieval: %w", err)
	}

	// Backends return score-ordered hits but leave tie order unspecified,
	// so the deterministic ordering is re-established here.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Record.ID < hits[j].Record.ID
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}

	r.logger.Debug("retrieval done", "requested", topK, "returned", len(hits))
	return domain.RetrievalResult(hits), nil
}
