// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrNoQuerier is returned by Logger.Query when no sink supports queries.
var ErrNoQuerier = errors.New("no queryable audit sink configured")

// ToolCall describes one tool invocation for the audit trail.
type ToolCall struct {
	Tool      string
	Arguments map[string]any
	RequestID string
	Success   bool
	Duration  time.Duration
	Error     string
}

// Logger fans audit events out to its sinks.
type Logger struct {
	sinks  []Sink
	logger *slog.Logger
	now    func() time.Time
}

// NewLogger creates an audit logger. With no sinks, events only reach the
// process log at Debug level.
func NewLogger(logger *slog.Logger, sinks ...Sink) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{
		sinks:  sinks,
		logger: logger.With(slog.String("component", "audit")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ToolCall records a tool invocation.
func (l *Logger) ToolCall(ctx context.Context, call ToolCall) {
	details := map[string]any{
		"tool_name":         call.Tool,
		"arguments":         call.Arguments,
		"success":           call.Success,
		"execution_time_ms": float64(call.Duration.Microseconds()) / 1000,
	}
	if call.Error != "" {
		details["error"] = call.Error
	}
	l.record(ctx, EventToolCall, call.RequestID, details)
}

// RateLimitExceeded records a call the rate limiter rejected.
func (l *Logger) RateLimitExceeded(ctx context.Context, tool, requestID string) {
	l.record(ctx, EventRateLimitExceeded, requestID, map[string]any{"tool_name": tool})
}

// SecurityEvent records rejected malicious-looking input.
//
// extra is merged into the details; kind and severity take precedence.
func (l *Logger) SecurityEvent(ctx context.Context, kind string, severity Severity, requestID string, extra map[string]any) {
	details := make(map[string]any, len(extra)+2)
	for k, v := range extra {
		details[k] = v
	}
	details["kind"] = kind
	details["severity"] = string(severity)
	l.record(ctx, EventSecurity, requestID, details)
}

// Reload records an administrative reload.
func (l *Logger) Reload(ctx context.Context, recordsPath string, concepts int, err error) {
	details := map[string]any{
		"records_path": recordsPath,
		"concepts":     concepts,
		"success":      err == nil,
	}
	if err != nil {
		details["error"] = err.Error()
	}
	l.record(ctx, EventReload, "", details)
}

// Query lists events from the first sink that supports queries, newest first.
func (l *Logger) Query(ctx context.Context, filter Filter) ([]Event, error) {
	for _, s := range l.sinks {
		if q, ok := s.(Querier); ok {
			return q.Query(ctx, filter)
		}
	}
	return nil, ErrNoQuerier
}

// Close closes every sink and returns the first error.
func (l *Logger) Close() error {
	var first error
	for _, s := range l.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (l *Logger) record(ctx context.Context, typ EventType, requestID string, details map[string]any) {
	event := Event{
		ID:        uuid.NewString(),
		Timestamp: l.now(),
		Type:      typ,
		RequestID: requestID,
		Details:   details,
	}

	l.logger.Debug("audit event",
		slog.String("event_type", string(typ)),
		slog.String("event_id", event.ID))

	for _, s := range l.sinks {
		if err := s.Write(ctx, event); err != nil {
			l.logger.Error("audit sink write failed",
				slog.String("event_type", string(typ)),
				slog.String("error", err.Error()))
		}
	}
}
