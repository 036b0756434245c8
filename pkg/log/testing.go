// Test doubles for the log package.
//
// TestLogger captures structured output as JSON lines in memory, so tests
// can assert on messages and fields without touching process-wide slog
// state.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// TestLogger is an in-memory Logger for tests. Entries are encoded as JSON
// lines into a buffer shared by every derived (With) logger, so assertions
// on the root logger see the output of the whole tree.
type TestLogger struct {
	buffer *bytes.Buffer
	level  Level
	bound  map[string]interface{}
}

// NewTestLogger returns a TestLogger capturing entries at or above level,
// together with the buffer it writes to.
//
// Example:
//
//	tl, buf := log.NewTestLogger(log.LevelDebug)
//	tl.Info("cross-fitting started", log.FoldsKey, 5)
//	lines := buf.String()
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	return &TestLogger{
		buffer: buffer,
		level:  level,
		bound:  map[string]interface{}{},
	}, buffer
}

// Debug implements Logger.
func (t *TestLogger) Debug(msg string, fields ...any) { t.emit(LevelDebug, msg, fields) }

// Info implements Logger.
func (t *TestLogger) Info(msg string, fields ...any) { t.emit(LevelInfo, msg, fields) }

// Warn implements Logger.
func (t *TestLogger) Warn(msg string, fields ...any) { t.emit(LevelWarn, msg, fields) }

// Error implements Logger.
func (t *TestLogger) Error(msg string, fields ...any) { t.emit(LevelError, msg, fields) }

// With returns a derived logger whose entries carry the given fields on top
// of the parent's. The derived logger writes into the parent's buffer.
func (t *TestLogger) With(fields ...any) Logger {
	bound := make(map[string]interface{}, len(t.bound)+len(fields)/2)
	for k, v := range t.bound {
		bound[k] = v
	}
	flattenInto(bound, fields)
	return &TestLogger{buffer: t.buffer, level: t.level, bound: bound}
}

// Enabled implements Logger.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return t.level <= level
}

// emit encodes one entry as a JSON line carrying the bound fields plus the
// per-call ones.
func (t *TestLogger) emit(level Level, msg string, fields []any) {
	if level < t.level {
		return
	}

	entry := map[string]interface{}{
		"level":   level.String(),
		"message": msg,
	}
	for k, v := range t.bound {
		entry[k] = v
	}
	flattenInto(entry, fields)

	data, _ := json.Marshal(entry)
	t.buffer.Write(data)
	t.buffer.WriteByte('\n')
}

// flattenInto folds key/value pairs into dst, stringifying error values so
// they stay comparable after the JSON round-trip. A dangling key without a
// value is dropped.
func flattenInto(dst map[string]interface{}, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		if err, ok := fields[i+1].(error); ok {
			dst[key] = err.Error()
			continue
		}
		dst[key] = fields[i+1]
	}
}

// GetLogEntries parses the captured JSON lines into maps for programmatic
// assertions.
func (t *TestLogger) GetLogEntries() ([]map[string]interface{}, error) {
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(t.buffer.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage reports whether any captured entry contains message.
func (t *TestLogger) ContainsMessage(message string) bool {
	return strings.Contains(t.buffer.String(), message)
}

// ContainsField reports whether any captured entry carries the field key
// with exactly the given value. Numeric values arrive as float64 after the
// JSON round-trip.
//
// Example:
//
//	if !tl.ContainsField(log.OperationKey, log.OperationFit) {
//	    t.Error("fit operation was not logged")
//	}
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if got, ok := entry[key]; ok && got == value {
			return true
		}
	}
	return false
}

// Clear resets the captured output between test cases.
func (t *TestLogger) Clear() {
	t.buffer.Reset()
}

// TestLoggerProvider is a LoggerProvider handing out one shared TestLogger,
// meant to be swapped in via SetLoggerProvider during tests.
type TestLoggerProvider struct {
	logger *TestLogger
	buffer *bytes.Buffer
}

// NewTestLoggerProvider returns a provider together with the buffer its
// logger writes to.
func NewTestLoggerProvider(level Level) (*TestLoggerProvider, *bytes.Buffer) {
	logger, buffer := NewTestLogger(level)
	return &TestLoggerProvider{logger: logger, buffer: buffer}, buffer
}

// GetLogger implements LoggerProvider.
func (p *TestLoggerProvider) GetLogger() Logger {
	return p.logger
}

// GetLoggerWithName implements LoggerProvider.
func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.logger.With(ComponentKey, name)
}

// SetLevel implements LoggerProvider.
func (p *TestLoggerProvider) SetLevel(level Level) {
	p.logger.level = level
}
