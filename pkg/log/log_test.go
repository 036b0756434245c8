package log

import (
	"context"
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
)

// TestLoggerInterface tests the Logger interface implementation
func TestLoggerInterface(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	// Test Debug logging
	testLogger.Debug("debug message", FoldKey, 2, RMSEKey, 0.93)

	// Test Info logging
	testLogger.Info("info message", OperationKey, OperationFit)

	// Test Warn logging
	testLogger.Warn("warning message", ErrorCodeKey, ErrorConvergence)

	// Test Error logging
	testErr := fmt.Errorf("test error")
	testLogger.Error("error message", ErrAttrKey, testErr, ErrorCodeKey, ErrorDegenerateFold)

	// Verify output was captured
	output := buffer.String()
	if output == "" {
		t.Fatal("Expected log output, got empty string")
	}

	// Verify all log levels were captured
	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		if !testLogger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}

	// Verify structured fields
	if !testLogger.ContainsField(OperationKey, OperationFit) {
		t.Errorf("Expected field %s=%s not found", OperationKey, OperationFit)
	}

	if !testLogger.ContainsField(FoldKey, 2.0) { // JSON unmarshaling converts numbers to float64
		t.Errorf("Expected field %s=2 not found", FoldKey)
	}
}

// TestLoggerWith tests the With method for context-aware logging
func TestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	// Create contextual logger
	contextLogger := testLogger.With(
		ModelNameKey, "PLR",
		ScoreKey, "partialling out",
		TreatmentKey, "d",
	)

	// Log with context
	contextLogger.Info("contextual message", OperationKey, OperationFit)

	// Verify context fields are included
	if !testLogger.ContainsField(ModelNameKey, "PLR") {
		t.Error("Model name context not found")
	}

	if !testLogger.ContainsField(ScoreKey, "partialling out") {
		t.Error("Score context not found")
	}

	if !testLogger.ContainsField(OperationKey, OperationFit) {
		t.Error("Operation field not found")
	}
}

// TestLoggerEnabled tests the Enabled method
func TestLoggerEnabled(t *testing.T) {
	// Create logger with Info level
	testLogger, _ := NewTestLogger(LevelInfo)
	ctx := context.Background()

	// Test level checking
	if !testLogger.Enabled(ctx, LevelInfo) {
		t.Error("Logger should be enabled for Info level")
	}

	if !testLogger.Enabled(ctx, LevelError) {
		t.Error("Logger should be enabled for Error level")
	}

	if testLogger.Enabled(ctx, LevelDebug) {
		t.Error("Logger should not be enabled for Debug level")
	}

	// Test that disabled logs don't appear
	testLogger.Debug("this should not appear")
	testLogger.Info("this should appear")

	if testLogger.ContainsMessage("this should not appear") {
		t.Error("Debug message should not appear when level is Info")
	}

	if !testLogger.ContainsMessage("this should appear") {
		t.Error("Info message should appear when level is Info")
	}
}

// TestLevelString tests the Level.String representation
func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %s, want %s", tt.level, got, tt.want)
		}
	}
}

// TestPackageLevelProvider tests the package-level GetLogger functions
// together with a swapped-in test provider.
func TestPackageLevelProvider(t *testing.T) {
	testProvider, _ := NewTestLoggerProvider(LevelDebug)
	SetLoggerProvider(testProvider)
	defer SetLoggerProvider(nil)

	logger := GetLoggerWithName("dml.plr")
	logger.Info("cross-fitting started", FoldsKey, 5, RepetitionsKey, 3)

	captured := testProvider.logger
	if !captured.ContainsMessage("cross-fitting started") {
		t.Error("Expected message via package-level logger")
	}
	if !captured.ContainsField(ComponentKey, "dml.plr") {
		t.Error("Expected component name from GetLoggerWithName")
	}
	if !captured.ContainsField(FoldsKey, 5.0) {
		t.Error("Expected folds field in captured entry")
	}

	// After restoring the default provider, GetLogger must still hand out
	// a usable logger.
	SetLoggerProvider(nil)
	if GetLogger() == nil {
		t.Fatal("Default provider should return a logger")
	}
}

// TestExtractStacktrace tests stack extraction from cockroachdb errors
func TestExtractStacktrace(t *testing.T) {
	err := errors.WithStack(fmt.Errorf("boom"))

	trace := extractStacktrace(err)
	if trace == "" {
		t.Fatal("Expected non-empty stacktrace from cockroachdb error")
	}

	// Errors without stack information yield an empty string.
	if got := extractStacktrace(fmt.Errorf("plain")); got != "" {
		t.Errorf("Expected empty stacktrace for plain error, got %q", got)
	}
}

// TestToLogLevel tests log level parsing, including the invalid-level panic
func TestToLogLevel(t *testing.T) {
	valid := map[string]string{
		"debug": "DEBUG",
		"info":  "INFO",
		"warn":  "WARN",
		"error": "ERROR",
	}
	for in, want := range valid {
		if got := ToLogLevel(in).String(); got != want {
			t.Errorf("ToLogLevel(%q) = %s, want %s", in, got, want)
		}
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for invalid log level")
		}
	}()
	ToLogLevel("nonsense")
}
