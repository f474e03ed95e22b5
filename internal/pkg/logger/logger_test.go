package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := RequestID(ctx); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}

	ctx = WithRequestID(ctx, "req-42")
	if got := RequestID(ctx); got != "req-42" {
		t.Fatalf("expected req-42, got %q", got)
	}
}

func TestFromContextTagsRequestID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Environment: "test", Output: &buf})
	defer Init(Config{Level: "info", Environment: "test"})

	ctx := WithRequestID(context.Background(), "req-7")
	FromContext(ctx).Info().Msg("hello")

	if !strings.Contains(buf.String(), `"request_id":"req-7"`) {
		t.Fatalf("expected request id in log line, got %s", buf.String())
	}
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	if FromContext(context.Background()) != &log.Logger {
		t.Fatal("expected global logger")
	}
}
