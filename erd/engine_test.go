package erd

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestDefaultConfigJSON(t *testing.T) {
	data, err := DefaultConfig().JSON()
	if err != nil {
		t.Fatalf("JSON failed: %v", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if doc["theme"] != "default" || doc["securityLevel"] != "loose" {
		t.Errorf("Unexpected top level config: %v", doc)
	}

	er, ok := doc["er"].(map[string]interface{})
	if !ok {
		t.Fatalf("Missing er section: %s", data)
	}
	expected := map[string]interface{}{
		"diagramPadding":  float64(20),
		"entityPadding":   float64(15),
		"useMaxWidth":     true,
		"layoutDirection": "TB",
		"minEntityWidth":  float64(100),
		"minEntityHeight": float64(75),
		"fontSize":        float64(12),
	}
	for k, v := range expected {
		if er[k] != v {
			t.Errorf("er.%s = %v, want %v", k, er[k], v)
		}
	}
	if _, ok := doc["Format"]; ok {
		t.Error("Output format should not be part of the engine document")
	}
}

func TestSourceEngine(t *testing.T) {
	out, err := SourceEngine{}.Render(context.Background(), "erDiagram\n", DefaultConfig())
	if err != nil || string(out) != "erDiagram\n" {
		t.Errorf("Unexpected result %q, %v", out, err)
	}

	if _, err := (SourceEngine{}).Render(context.Background(), "  ", DefaultConfig()); !errors.Is(err, ErrEmptyDiagram) {
		t.Errorf("Expected ErrEmptyDiagram, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (SourceEngine{}).Render(ctx, "erDiagram\n", DefaultConfig()); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestEngineFunc(t *testing.T) {
	called := false
	var e Engine = EngineFunc(func(ctx context.Context, source string, cfg Config) ([]byte, error) {
		called = true
		return []byte("<svg/>"), nil
	})
	out, err := e.Render(context.Background(), "erDiagram", DefaultConfig())
	if err != nil || string(out) != "<svg/>" || !called {
		t.Errorf("EngineFunc did not forward the call: %q, %v", out, err)
	}
}

func TestCLIEngineUnavailable(t *testing.T) {
	e := NewCLIEngine(CLIEngineConfig{
		Path:        "schemaviz-no-such-binary",
		Timeout:     time.Second,
		MaxFailures: 2,
		Cooldown:    time.Minute,
	}, zaptest.NewLogger(t))

	for i := 0; i < 4; i++ {
		_, err := e.Render(context.Background(), "erDiagram\n", DefaultConfig())
		if !errors.Is(err, ErrEngineUnavailable) {
			t.Fatalf("Attempt %d: expected ErrEngineUnavailable, got %v", i+1, err)
		}
	}
	if e.State() != "open" {
		t.Errorf("Breaker should be open after repeated failures, got %s", e.State())
	}

	if _, err := e.Render(context.Background(), "", DefaultConfig()); !errors.Is(err, ErrEmptyDiagram) {
		t.Errorf("Expected ErrEmptyDiagram, got %v", err)
	}
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": OutputSVG, "SVG": OutputSVG, "png": OutputPNG} {
		if got, err := ParseOutputFormat(in); err != nil || got != want {
			t.Errorf("ParseOutputFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseOutputFormat("gif"); err == nil {
		t.Error("Expected error for unknown format")
	}
}
