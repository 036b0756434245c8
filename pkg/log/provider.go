package log

import (
	"context"
	"log/slog"
	"sync"
)

// defaultProvider backs the package-level GetLogger functions.
// It adapts the process-wide slog default, so SetupLogger configuration
// (JSON output, stacktrace expansion) applies to every logger it hands out.
type defaultProvider struct {
	mu    sync.RWMutex
	level Level
}

func (p *defaultProvider) GetLogger() Logger {
	return &slogAdapter{logger: slog.Default(), provider: p}
}

func (p *defaultProvider) GetLoggerWithName(name string) Logger {
	return &slogAdapter{logger: slog.Default().With(ComponentKey, name), provider: p}
}

func (p *defaultProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
}

func (p *defaultProvider) minLevel() Level {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.level
}

var (
	providerMu sync.RWMutex
	provider   LoggerProvider = &defaultProvider{level: LevelInfo}
)

// SetLoggerProvider replaces the package-level logger provider.
// Passing nil restores the default slog-backed provider.
func SetLoggerProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	if p == nil {
		p = &defaultProvider{level: LevelInfo}
	}
	provider = p
}

// SetLevel sets the minimum level on the current provider. Loggers already
// handed out by the default provider pick the change up immediately.
func SetLevel(level Level) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	provider.SetLevel(level)
}

// GetLogger returns the default logger from the current provider.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLogger()
}

// GetLoggerWithName returns a named logger from the current provider.
// The name identifies the component emitting the logs, e.g. "dml.plr"
// or "learner.boosting".
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLoggerWithName(name)
}

// slogAdapter implements Logger on top of a *slog.Logger.
type slogAdapter struct {
	logger   *slog.Logger
	provider *defaultProvider
}

func (s *slogAdapter) Debug(msg string, fields ...any) {
	if s.provider == nil || s.provider.minLevel() <= LevelDebug {
		s.logger.Debug(msg, normalizeFields(fields)...)
	}
}

func (s *slogAdapter) Info(msg string, fields ...any) {
	if s.provider == nil || s.provider.minLevel() <= LevelInfo {
		s.logger.Info(msg, normalizeFields(fields)...)
	}
}

func (s *slogAdapter) Warn(msg string, fields ...any) {
	if s.provider == nil || s.provider.minLevel() <= LevelWarn {
		s.logger.Warn(msg, normalizeFields(fields)...)
	}
}

func (s *slogAdapter) Error(msg string, fields ...any) {
	s.logger.Error(msg, normalizeFields(fields)...)
}

func (s *slogAdapter) With(fields ...any) Logger {
	return &slogAdapter{logger: s.logger.With(normalizeFields(fields)...), provider: s.provider}
}

func (s *slogAdapter) Enabled(ctx context.Context, level Level) bool {
	if s.provider != nil && s.provider.minLevel() > level {
		return false
	}
	return s.logger.Enabled(ctx, slog.Level(level))
}

// normalizeFields rewrites a bare leading error into the error attribute so
// ErrFmtHandler can pick up its stacktrace.
func normalizeFields(fields []any) []any {
	if len(fields) == 0 {
		return fields
	}
	if err, ok := fields[0].(error); ok {
		normalized := make([]any, 0, len(fields)+1)
		normalized = append(normalized, ErrAttr(err))
		normalized = append(normalized, fields[1:]...)
		return normalized
	}
	return fields
}
