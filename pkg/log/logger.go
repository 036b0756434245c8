package log

import (
	"fmt"
	"log/slog"
	"os"
)

// Keys for the error attribute and for the stacktrace attribute that
// ErrFmtHandler appends alongside it.
const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// SetupLogger installs the library's JSON logger as the process-wide slog
// default. Attribute names follow the CloudLogging schema, and errors
// carrying a cockroachdb/errors stack get a companion stacktrace attribute.
func SetupLogger(loglevel string) {
	opts := slog.HandlerOptions{
		AddSource:   true,
		Level:       ToLogLevel(loglevel),
		ReplaceAttr: renameForCloudLogging,
	}
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(os.Stdout, &opts))
	slog.SetDefault(slog.New(handler))
}

// renameForCloudLogging maps slog's built-in keys onto the CloudLogging
// field names.
func renameForCloudLogging(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.LevelKey:
		attr.Key = "severity"
	case slog.MessageKey:
		attr.Key = "message"
	case slog.SourceKey:
		attr.Key = "logging.googleapis.com/sourceLocation"
	}
	return attr
}

// ToLogLevel parses a level name into its slog.Level. Unknown names panic;
// level strings are expected to come from configuration validated at
// startup.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level: %q", level))
	}
}

// ErrAttr wraps err as the error attribute ErrFmtHandler looks for.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
