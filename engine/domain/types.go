// Package domain defines the core types, validation, and error taxonomy for
// the Cosmos Nexus query pipeline. It acts as the validation gate at pipeline
// entry points.
package domain

// SearchableTextKey is the metadata field every ingested record carries.
// It holds the display/grounding text for the record.
const SearchableTextKey = "searchable_text"

// Record is a single entry in the vector index: an opaque ID, a
// fixed-dimension embedding, and string-keyed metadata. Records are
// immutable after ingestion and owned by the index.
type Record struct {
	ID       string            `json:"id"`
	Vector   []float32         `json:"vector"`
	Metadata map[string]string `json:"metadata"`
}

// SearchableText returns the record's grounding text, or "" if absent.
func (r Record) SearchableText() string {
	return r.Metadata[SearchableTextKey]
}

// Query is a user search query. Ephemeral, created per request.
type Query struct {
	Text string `json:"text"`
	TopK int    `json:"top_k"`
}

// ScoredRecord pairs a record with its cosine similarity to the query
// vector. Score is in [-1, 1].
type ScoredRecord struct {
	Record Record  `json:"record"`
	Score  float32 `json:"score"`
}

// RetrievalResult is an ordered set of scored records, length ≤ topK,
// sorted by score descending with ties broken by Record.ID ascending.
type RetrievalResult []ScoredRecord

// QueryResponse is the final pipeline output: the ranked records plus the
// synthesized answer. Degraded marks responses whose AIResponse is a
// fallback because generation failed. Transient, never stored.
type QueryResponse struct {
	Results    RetrievalResult `json:"results"`
	AIResponse string          `json:"ai_response"`
	Degraded   bool            `json:"degraded"`
}

const (
	// DefaultTopK is used when a query does not specify top_k.
	DefaultTopK = 5
	// MaxTopK caps the requested result count.
	MaxTopK = 20
)

// ClampTopK normalizes a requested top_k: zero/negative falls back to the
// default, anything above the cap is clamped.
func ClampTopK(k int) int {
	if k <= 0 {
		return DefaultTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}
