// Package log provides a structured logging interface for godml estimation runs.
//
// The package defines a small, slog-compatible Logger interface so the
// estimation code logs against an abstraction rather than a concrete
// backend. The default provider adapts the process-wide slog logger;
// tests swap in an in-memory implementation via SetLoggerProvider.
//
// What the interface gives estimation code:
//   - structured attributes for the domain (scores, folds, repetitions,
//     coefficients) under stable key names
//   - contextual loggers through With, so per-model fields ride along
//     automatically
//   - level gating through Enabled for log lines that are expensive to
//     assemble
//
// Typical use:
//
//	logger := log.GetLogger().With(
//	    log.ModelNameKey, "PLR",
//	    log.ScoreKey, "partialling out",
//	)
//	logger.Info("Cross-fitting started",
//	    log.OperationKey, log.OperationFit,
//	    log.FoldsKey, 5,
//	    log.RepetitionsKey, 3,
//	)
package log

import (
	"context"
)

// Logger is the structured logging interface used throughout the library.
// Fields are alternating key/value pairs, as in log/slog. Implementations
// must be safe for use from concurrent fold goroutines.
type Logger interface {
	// Debug logs detailed diagnostic information, such as per-fold
	// nuisance loss values.
	//
	// Example:
	//   logger.Debug("Fold fitted",
	//       log.FoldKey, 2,
	//       log.RMSEKey, 0.93,
	//   )
	Debug(msg string, fields ...any)

	// Info logs general operational information about the estimation
	// flow.
	//
	// Example:
	//   logger.Info("Estimation completed",
	//       log.DurationMsKey, 841,
	//       log.CoefKey, 0.73,
	//   )
	Info(msg string, fields ...any)

	// Warn logs conditions that do not stop the estimation but deserve
	// attention, such as a nuisance learner that did not converge.
	Warn(msg string, fields ...any)

	// Error logs error conditions. When an error value is passed as the
	// first field, implementations may expand it into error and
	// stacktrace attributes.
	//
	// Example:
	//   logger.Error("Cross-fitting failed", err,
	//       log.OperationKey, log.OperationFit,
	//       log.FoldKey, 3,
	//   )
	Error(msg string, fields ...any)

	// With returns a Logger that includes the given fields in every
	// subsequent entry.
	//
	// Example:
	//   plrLog := logger.With(
	//       log.ModelNameKey, "PLR",
	//       log.TreatmentKey, "d",
	//   )
	//   plrLog.Info("Starting cross-fitting")
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given
	// level, letting callers skip expensive message assembly.
	//
	// Example:
	//   if logger.Enabled(ctx, log.LevelDebug) {
	//       logger.Debug("Score elements", "psi_a_mean", meanPsiA(psi))
	//   }
	Enabled(ctx context.Context, level Level) bool
}

// Level is a logging level. The numeric values match slog.Level, so the
// two can be converted directly.
type Level int

// Standard logging levels.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the level name in the form used by log output.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates and configures loggers. Swapping the provider is
// how tests capture the library's log output.
type LoggerProvider interface {
	// GetLogger returns the provider's default logger.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum level for loggers from this provider.
	SetLevel(level Level)
}
