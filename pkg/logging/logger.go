// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging builds the process logger for the ontology server and CLI.
//
// Console output goes to stderr so `ontology query` can keep stdout for the
// tool result. A daily JSON log file is added when a directory is
// configured:
//
//	logger := logging.New(logging.Config{
//	    Level:   slog.LevelInfo,
//	    Dir:     "~/.aleutian/logs",
//	    Service: "ontology",
//	})
//	defer logger.Close()
//	slog.SetDefault(logger.Slog())
//
// Logger is safe for concurrent use. Nothing is redacted; log concept ids
// and counts, not document bodies.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ParseLevel maps "debug", "info", "warn" (or "warning") and "error" onto
// slog levels, ignoring case. An empty name is Info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// Config configures New. The zero value logs Info and above to stderr as
// text.
type Config struct {
	Level slog.Level

	// Dir enables a JSON log file "{Service}_{YYYY-MM-DD}.log" in this
	// directory. A leading ~ is expanded.
	Dir string

	// Service is attached to every entry as "service".
	Service string

	// JSON switches the console output to JSON.
	JSON bool

	// Output replaces stderr as the console destination.
	Output io.Writer
}

// Logger is a *slog.Logger that owns its log file.
type Logger struct {
	*slog.Logger

	mu   sync.Mutex
	file *os.File
}

// New creates a Logger. A log directory that cannot be created or opened is
// skipped and the console keeps working.
func New(cfg Config) *Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	var console slog.Handler
	if cfg.JSON {
		console = slog.NewJSONHandler(out, opts)
	} else {
		console = slog.NewTextHandler(out, opts)
	}

	l := &Logger{}
	handler := console
	if cfg.Dir != "" {
		if f, err := openLogFile(cfg.Dir, cfg.Service); err == nil {
			l.file = f
			handler = fanout{console, slog.NewJSONHandler(f, opts)}
		}
	}
	if cfg.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", cfg.Service)})
	}
	l.Logger = slog.New(handler)
	return l
}

func openLogFile(dir, service string) (*os.File, error) {
	dir = expandHome(dir)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, err
	}
	if service == "" {
		service = "ontology"
	}
	name := fmt.Sprintf("%s_%s.log", service, time.Now().Format("2006-01-02"))
	return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
}

// Slog returns the logger for components that take a *slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.Logger
}

// Close syncs and closes the log file, if any. Safe to call twice.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := errors.Join(l.file.Sync(), l.file.Close())
	l.file = nil
	if err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return path
}
