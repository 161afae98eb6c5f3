package observability_test

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/kmenon/spendlens-go/internal/infra/observability"
)

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", ""} {
		logger := observability.NewLogger(level)
		if logger == nil {
			t.Fatalf("expected a logger for level %q", level)
		}
	}
}

func TestNewLoggerDebugEnablesDebug(t *testing.T) {
	logger := observability.NewLogger("debug")
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug level enabled")
	}

	logger = observability.NewLogger("info")
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug level disabled at info")
	}
}
