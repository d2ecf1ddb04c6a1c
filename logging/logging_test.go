package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level       string
		development bool
		enabled     zapcore.Level
		disabled    zapcore.Level
	}{
		{"debug", true, zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"info", false, zapcore.InfoLevel, zapcore.DebugLevel},
		{"WARN", false, zapcore.WarnLevel, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := New(tt.level, tt.development)
			if err != nil {
				t.Fatalf("New(%q) returned error: %v", tt.level, err)
			}
			core := logger.Core()
			if !core.Enabled(tt.enabled) {
				t.Errorf("level %v should be enabled", tt.enabled)
			}
			if core.Enabled(tt.disabled) {
				t.Errorf("level %v should be disabled", tt.disabled)
			}
		})
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New("loud", false); err == nil {
		t.Error("expected error for unknown level")
	}
}
