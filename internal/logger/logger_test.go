package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name  string
		json  bool
		debug bool
	}{
		{name: "console info"},
		{name: "json debug", json: true, debug: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New("coldmail", tt.json, tt.debug)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got := logger.Core().Enabled(zapcore.DebugLevel); got != tt.debug {
				t.Fatalf("debug enabled = %v, want %v", got, tt.debug)
			}
			if !logger.Core().Enabled(zapcore.InfoLevel) {
				t.Fatal("info must always be enabled")
			}
		})
	}
}
