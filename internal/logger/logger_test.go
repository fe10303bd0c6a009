package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
)

func TestNewRequestID(t *testing.T) {
	a, b := NewRequestID(), NewRequestID()
	if len(a) != 8 || len(b) != 8 {
		t.Fatalf("expected 8-character IDs, got %q and %q", a, b)
	}
	if a == b {
		t.Errorf("expected distinct IDs, got %q twice", a)
	}
}

func TestForMatch(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(&buf)
	defer func() { log.Logger = log.Output(&bytes.Buffer{}) }()

	ctx := WithMatchID(context.Background(), "m-42")
	if got := MatchIDFromContext(ctx); got != "m-42" {
		t.Fatalf("expected m-42, got %q", got)
	}

	l := ForMatch(ctx)
	l.Info().Msg("Turn submitted")
	if !strings.Contains(buf.String(), "m-42") {
		t.Errorf("expected match ID in output, got %q", buf.String())
	}

	if MatchIDFromContext(context.Background()) != "" {
		t.Error("expected empty match ID on bare context")
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	if RequestIDFromContext(ctx) != "abc" {
		t.Errorf("expected abc, got %q", RequestIDFromContext(ctx))
	}
}
