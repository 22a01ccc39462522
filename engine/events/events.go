// Package events publishes per-query telemetry to NATS for downstream
// analytics. Publishing is best-effort and never affects the request path.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/pkg/natsutil"
)

// Subject is the NATS subject query events are published to.
const Subject = "nexus.queries"

// QueryEvent describes one completed search request.
type QueryEvent struct {
	RequestID  string        `json:"request_id"`
	QueryChars int           `json:"query_chars"`
	TopK       int           `json:"top_k"`
	Results    int           `json:"results"`
	Degraded   bool          `json:"degraded"`
	Duration   time.Duration `json:"duration_ns"`
	At         time.Time     `json:"at"`
}

// Publisher emits QueryEvents. A nil Publisher is a no-op, so wiring stays
// unconditional at call sites.
type Publisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewPublisher creates a Publisher over an established NATS connection.
func NewPublisher(nc *nats.Conn, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{nc: nc, logger: logger}
}

// Publish emits the event. Failures are logged and swallowed.
func (p *Publisher) Publish(ctx context.Context, ev QueryEvent) {
	if p == nil || p.nc == nil {
		return
	}
	if err := natsutil.Publish(ctx, p.nc, Subject, ev); err != nil {
		p.logger.Warn("query event publish failed", "err", err)
	}
}

// Consume invokes handler for every QueryEvent published on Subject. The
// handler context carries any trace propagated by the publisher.
func Consume(nc *nats.Conn, handler func(context.Context, QueryEvent)) (*nats.Subscription, error) {
	return natsutil.Subscribe(nc, Subject, handler)
}
