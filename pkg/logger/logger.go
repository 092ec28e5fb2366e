// Package logger provides the application's slog construction and
// common attribute helpers.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"go.uber.org/fx"
)

// Module provides the root *slog.Logger.
var Module = fx.Module("logger",
	fx.Provide(NewLogger),
)

// NewLogger builds the root logger from LOG_LEVEL and ENVIRONMENT,
// the same variables the config layer reads. Production gets JSON
// output; everything else gets text.
func NewLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	case "info":
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if os.Getenv("ENVIRONMENT") == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// Scope returns the standard scope attribute used to namespace log
// lines per component (e.g. "actions.svc").
func Scope(scope string) slog.Attr {
	return slog.Attr{Key: "scope", Value: slog.StringValue(scope)}
}

// Error returns the standard error attribute.
func Error(err error) slog.Attr {
	return slog.Attr{Key: "error", Value: slog.AnyValue(err)}
}
