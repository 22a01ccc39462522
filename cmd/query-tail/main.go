// Command query-tail follows the query event stream and logs each event,
// for watching live search traffic without touching the API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/events"
)

func main() {
	godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("query-tail exited with error", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	url := os.Getenv("NATS_URL")
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url)
	if err != nil {
		return fmt.Errorf("nats connect %s: %w", url, err)
	}
	defer nc.Drain()

	sub, err := events.Consume(nc, func(_ context.Context, ev events.QueryEvent) {
		logger.Info("query",
			"request_id", ev.RequestID,
			"query_chars", ev.QueryChars,
			"top_k", ev.TopK,
			"results", ev.Results,
			"degraded", ev.Degraded,
			"duration", ev.Duration,
			"at", ev.At,
		)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", events.Subject, err)
	}
	defer sub.Unsubscribe()

	logger.Info("tailing query events", "subject", events.Subject, "nats", url)
	<-ctx.Done()
	return nil
}
