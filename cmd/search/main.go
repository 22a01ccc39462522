// Package main implements a command-line query tool for Cosmos Nexus.
// It wires the query engine directly, without going through the HTTP API:
// useful for smoke-testing an index and for one-off questions.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/answer"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/domain"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/embed"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/generate"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/prompt"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/retrieval"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/semantic"
)

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func main() {
	godotenv.Load()

	var (
		query    = flag.String("q", "", "query to run once; empty starts interactive mode")
		topK     = flag.Int("k", domain.DefaultTopK, "number of results")
		snapshot = flag.String("snapshot", "", "JSONL snapshot path; empty uses Qdrant")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "GEMINI_API_KEY is not set")
		os.Exit(1)
	}

	var index semantic.Index
	if *snapshot != "" {
		snap, err := semantic.LoadSnapshot(*snapshot)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load snapshot: %v\n", err)
			os.Exit(1)
		}
		index = snap
	} else {
		q, err := semantic.NewQdrant(envOr("QDRANT_URL", "localhost:6334"), envOr("QDRANT_COLLECTION", "cosmos"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "qdrant connect: %v\n", err)
			os.Exit(1)
		}
		defer q.Close()
		index = q
	}

	embedder := embed.NewGemini("", apiKey, envOr("EMBED_MODEL", "text-embedding-004"), 0)
	generator := generate.NewGemini("", apiKey, envOr("CHAT_MODEL", generate.DefaultModel))

	svc := answer.New(embedder, retrieval.New(index, logger), prompt.New(0), generator, nil, answer.DefaultOptions(), logger)

	if *query != "" {
		if err := runQuery(svc, *query, *topK); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	interactive(svc, *topK)
}

func interactive(svc *answer.Service, topK int) {
	fmt.Println("Cosmos Nexus query interface (type 'quit' to exit)")
	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nquery> ")
		if !sc.Scan() {
			return
		}
		text := strings.TrimSpace(sc.Text())
		switch strings.ToLower(text) {
		case "quit", "exit", "q":
			return
		case "":
			continue
		}
		if err := runQuery(svc, text, topK); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

func runQuery(svc *answer.Service, text string, topK int) error {
	resp, err := svc.AnswerQuery(context.Background(), domain.Query{Text: text, TopK: topK})
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 60))
	fmt.Printf("RESULTS for: %q\n%s\n", text, strings.Repeat("=", 60))
	if len(resp.Results) == 0 {
		fmt.Println("No results found.")
	}
	for i, r := range resp.Results {
		text := r.Record.SearchableText()
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		fmt.Printf("\n%d. Score: %.4f\n   ID: %s\n   Text: %s\n", i+1, r.Score, r.Record.ID, text)
	}
	fmt.Printf("\n%s\nAI response:\n%s\n", strings.Repeat("-", 60), resp.AIResponse)
	return nil
}
