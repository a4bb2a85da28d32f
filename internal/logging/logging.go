// Package logging holds the process-wide logger used by the qrexec-frame tool.
//
// Frames travel on standard output, so log records always go to standard
// error unless Options.Output says otherwise.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
)

// Environment variables read by FromEnv.
const (
	EnvLevel = "QREXEC_LOG_LEVEL"
	EnvJSON  = "QREXEC_LOG_JSON"
)

// Options selects the handler for the default logger.
type Options struct {
	// Level is one of debug, info, warn or error. Anything else selects info.
	Level string

	// JSON selects slog's JSON handler instead of the text handler.
	JSON bool

	// Output receives log records. Defaults to os.Stderr.
	Output io.Writer
}

var def atomic.Pointer[slog.Logger]

func init() {
	Configure(Options{})
}

// Configure replaces the default logger.
func Configure(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	cfg := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(out, cfg)
	} else {
		h = slog.NewTextHandler(out, cfg)
	}

	def.Store(slog.New(h))
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// L returns the default logger.
func L() *slog.Logger {
	return def.Load()
}

// FromEnv returns the Options described by the environment.
func FromEnv() Options {
	opts := Options{Level: os.Getenv(EnvLevel)}

	if b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvJSON))); err == nil {
		opts.JSON = b
	}

	return opts
}
