// Package embed converts free text into fixed-dimension vectors via an
// external embedding provider.
package embed

import "context"

// Embedder produces a fixed-dimension embedding for a piece of text.
// Implementations do not retry internally; retry policy belongs to the
// caller so backoff is uniform and observable in one place.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
