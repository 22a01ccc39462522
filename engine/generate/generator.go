// Package generate invokes an external LLM to synthesize a natural-language
// answer from a composed prompt.
package generate

import "context"

// Generator turns a grounding prompt into an answer. The answer is passed
// through unmodified apart from whitespace trimming. Implementations do
// not retry internally.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
