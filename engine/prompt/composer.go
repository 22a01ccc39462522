// Package prompt assembles the grounding prompt handed to the generator.
// Composition is a pure function of its inputs: identical inputs always
// produce byte-identical prompts.
package prompt

import (
	"fmt"
	"strings"

	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/domain"
)

// TruncationMarker is appended whenever a record's text exceeds the budget.
const TruncationMarker = " [truncated]"

// DefaultMaxRecordRunes caps how much of a record's text enters the prompt.
const DefaultMaxRecordRunes = 2000

const header = `You are a helpful assistant that answers questions based on the provided search results from a user information database.`

const instructions = `Please provide a comprehensive, human-readable answer to the original query based on the search results above.
- Be specific and cite relevant details from the results
- If the results don't contain enough information to fully answer the query, mention this
- Keep the response informative but concise
- Use a professional, helpful tone

Answer:`

const noContext = `No search results were found in the database for this query.
Tell the user that no relevant records were found, and do not invent an answer.`

// Composer builds grounding prompts with a per-record length budget.
type Composer struct {
	maxRecordRunes int
}

// New creates a Composer. maxRecordRunes <= 0 selects the default budget.
func New(maxRecordRunes int) *Composer {
	if maxRecordRunes <= 0 {
		maxRecordRunes = DefaultMaxRecordRunes
	}
	return &Composer{maxRecordRunes: maxRecordRunes}
}

// Compose builds the prompt: the query verbatim, then each result's text
// and score in retrieval order. Over-budget text is cut with an explicit
// marker, never dropped. An empty result set produces a prompt that tells
// the generator no grounding context exists.
func (c *Composer) Compose(queryText string, results domain.RetrievalResult) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\nOriginal Query: ")
	b.WriteString(queryText)
	b.WriteString("\n\nSearch Results:\n")

	if len(results) == 0 {
		b.WriteString(noContext)
		b.WriteString("\n\n")
		b.WriteString(instructions)
		return b.String()
	}

	for i, r := range results {
		fmt.Fprintf(&b, "Result %d (Score: %.3f):\n%s\n\n", i+1, r.Score, c.truncate(r.Record.SearchableText()))
	}
	b.WriteString(instructions)
	return b.String()
}

func (c *Composer) truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= c.maxRecordRunes {
		return text
	}
	return string(runes[:c.maxRecordRunes]) + TruncationMarker
}
