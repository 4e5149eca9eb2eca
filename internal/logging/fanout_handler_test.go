package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner); h != inner {
		t.Fatal("expected single handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsLevels(t *testing.T) {
	var info, debug bytes.Buffer
	h := newFanoutHandler(
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug to be enabled through the second handler")
	}

	logger := slog.New(h).With(String(FieldComponent, "resolver"))
	logger.Debug("debug only")
	logger.Info("both")

	if strings.Contains(info.String(), "debug only") {
		t.Fatalf("info handler received debug record: %q", info.String())
	}
	if !strings.Contains(info.String(), "both") || !strings.Contains(debug.String(), "both") {
		t.Fatal("expected info record in both handlers")
	}
	if !strings.Contains(debug.String(), `"component":"resolver"`) {
		t.Fatalf("attrs not propagated: %q", debug.String())
	}
}
