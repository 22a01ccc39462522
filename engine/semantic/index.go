// Package semantic provides read access to the precomputed vector index.
// Two implementations exist: a Qdrant-backed store for production and an
// immutable in-memory snapshot for local mode and tests.
package semantic

import (
	"context"
	"sort"

	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/domain"
)

// Index is the nearest-neighbor query primitive over stored records.
// Implementations must be safe for concurrent use and must never mutate
// stored records.
type Index interface {
	// Search returns up to limit records scored by cosine similarity to
	// the query vector. An unreachable backend yields an error wrapping
	// domain.ErrIndexUnavailable; an empty index yields an empty slice.
	Search(ctx context.Context, vector []float32, limit int) ([]domain.ScoredRecord, error)
}

// rankCut sorts scored records by score descending with ties broken by ID
// ascending, then truncates to limit. Both backends funnel through this so
// the membership of the returned set is deterministic, not just its order.
func rankCut(scored []domain.ScoredRecord, limit int) []domain.ScoredRecord {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Record.ID < scored[j].Record.ID
	})
	if limit > len(scored) {
		limit = len(scored)
	}
	return scored[:limit]
}
