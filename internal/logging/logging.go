package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the level and destination of the logger.
type Options struct {
	// Level accepts "debug", "info", "warn", "error" (case-insensitive).
	Level string
	// File, when set, also writes logs to a size-rotated file.
	File string
	// JSON switches from the text handler to the JSON handler.
	JSON bool
}

// ParseLevel maps a level name to a slog.Level. Defaults to info if the
// level string is unrecognized.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup creates a configured *slog.Logger, sets it as the default, and returns
// it with a closer for the log file (a no-op when logging only to stderr).
func Setup(opts Options) (*slog.Logger, io.Closer) {
	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename: opts.File,
			MaxSize:  50, // megabytes
			MaxAge:   30, // days
			Compress: true,
		}
		w = io.MultiWriter(os.Stderr, file)
		closer = file
	}

	logger := slog.New(newHandler(w, opts))
	slog.SetDefault(logger)
	return logger, closer
}

func newHandler(w io.Writer, opts Options) slog.Handler {
	ho := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	if opts.JSON {
		return slog.NewJSONHandler(w, ho)
	}
	return slog.NewTextHandler(w, ho)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
