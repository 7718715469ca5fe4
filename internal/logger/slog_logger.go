package logger

import (
	"io"
	"log/slog"
	"time"
)

// NewSlogLogger returns a JSON Logger writing to w, without module routing.
// A nil writer discards output, which suits tests and library defaults.
func NewSlogLogger(w io.Writer, level LogLevel, tz *time.Location) Logger {
	if w == nil {
		w = io.Discard
	}
	if tz == nil {
		tz = time.UTC
	}
	lvl := parseSlogLevel(level)
	return &moduleLogger{
		logger: slog.New(newJSONHandler(w, lvl, tz)),
		level:  lvl,
	}
}

// NewNopLogger returns a Logger that drops every record.
func NewNopLogger() Logger {
	return NewSlogLogger(io.Discard, LogLevelError, nil)
}
