package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestSetupLevels(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"garbage", slog.LevelInfo},
	}

	ctx := context.Background()
	for _, tt := range tests {
		logger := Setup(tt.in)
		if !logger.Enabled(ctx, tt.want) {
			t.Errorf("Setup(%q) does not enable %v", tt.in, tt.want)
		}
		if below := tt.want - 4; tt.want > slog.LevelDebug && logger.Enabled(ctx, below) {
			t.Errorf("Setup(%q) enables %v below its level", tt.in, below)
		}
	}
}
