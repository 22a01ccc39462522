package natsutil

import (
	"context"
	"testing"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestNatsHeaderCarrier(t *testing.T) {
	msg := &nats.Msg{}
	carrier := (*natsHeaderCarrier)(msg)

	carrier.Set("traceparent", "00-abc-def-01")
	if got := carrier.Get("traceparent"); got != "00-abc-def-01" {
		t.Fatalf("expected traceparent, got %q", got)
	}

	keys := carrier.Keys()
	if len(keys) != 1 || keys[0] != "traceparent" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestNatsHeaderCarrierNilHeader(t *testing.T) {
	msg := &nats.Msg{}
	carrier := (*natsHeaderCarrier)(msg)

	if got := carrier.Get("missing"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if keys := carrier.Keys(); keys != nil {
		t.Fatalf("expected nil keys, got %v", keys)
	}
}

func TestNatsHeaderCarrierCarriesTraceContext(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10},
		SpanID:     trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	prop := propagation.TraceContext{}
	msg := &nats.Msg{}
	prop.Inject(ctx, (*natsHeaderCarrier)(msg))

	if msg.Header.Get("traceparent") == "" {
		t.Fatal("traceparent header should be injected")
	}

	extracted := prop.Extract(context.Background(), (*natsHeaderCarrier)(msg))
	got := trace.SpanContextFromContext(extracted)
	if got.TraceID() != sc.TraceID() {
		t.Errorf("trace ID lost in transit: got %s, want %s", got.TraceID(), sc.TraceID())
	}
}

func TestPublishMarshalFailure(t *testing.T) {
	// Channels are not serializable; Publish must fail before touching the
	// connection, so a nil conn is safe here.
	err := Publish(context.Background(), nil, "subj", make(chan int))
	if err == nil {
		t.Fatal("expected marshal error")
	}
}
