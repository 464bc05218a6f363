// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Options configures New.
type Options struct {
	// Level is debug, info, warn, or error.
	Level string

	// Format is text or json.
	Format string

	// Path is the log file. Empty writes to Writer instead.
	Path string

	// Writer receives output when Path is empty. Nil discards.
	Writer io.Writer

	// MaxSize rotates the file at this many bytes; zero uses
	// DefaultMaxFileSize and a negative value disables rotation.
	MaxSize int64
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a redacting logger. The returned closer releases the log
// file and is safe to call when no file was opened.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		out    io.Writer = io.Discard
		closer io.Closer = nopCloser{}
	)
	switch {
	case opts.Path != "":
		maxSize := opts.MaxSize
		if maxSize == 0 {
			maxSize = DefaultMaxFileSize
		}
		f, err := OpenRotatingFile(opts.Path, maxSize)
		if err != nil {
			return nil, nil, err
		}
		out, closer = f, f
	case opts.Writer != nil:
		out = opts.Writer
	}

	return slog.New(NewHandler(out, opts.Format, level)), closer, nil
}

// NewHandler returns a text or JSON handler with the redaction hook.
func NewHandler(w io.Writer, format string, level slog.Leveler) slog.Handler {
	hopts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: ReplaceAttr(),
	}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, hopts)
	}
	return slog.NewTextHandler(w, hopts)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
