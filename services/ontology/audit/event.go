// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package audit records tool calls, rate-limit rejections and security
// events for later review.
//
// # Architecture
//
//	Logger ──► Sink (JSON lines file)
//	       └─► Sink (BadgerDB, queryable newest first)
//
// Sink failures are logged and never fail the audited operation.
//
// # Thread Safety
//
// Logger and the bundled sinks are safe for concurrent use.
package audit

import (
	"context"
	"time"
)

// EventType categorizes an audit event.
type EventType string

const (
	// EventToolCall records one tool invocation and its outcome.
	EventToolCall EventType = "tool_call"

	// EventRateLimitExceeded records a call rejected by the rate limiter.
	EventRateLimitExceeded EventType = "rate_limit_exceeded"

	// EventSecurity records input rejected as a prompt injection or path
	// traversal attempt.
	EventSecurity EventType = "security_event"

	// EventReload records an administrative reload of the concept records.
	EventReload EventType = "reload"
)

// Severity grades security events.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Event is one audit record.
type Event struct {
	// ID is unique per event (UUID).
	ID string `json:"id"`

	// Timestamp is when the event occurred, in UTC.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type EventType `json:"event_type"`

	// RequestID ties the event to a request, if there was one.
	RequestID string `json:"request_id,omitempty"`

	// Details holds event-specific data. Keys per type:
	//   tool_call: tool_name, arguments, success, execution_time_ms, error
	//   rate_limit_exceeded: tool_name
	//   security_event: kind, severity, plus caller-supplied keys
	//   reload: records_path, concepts, success, error
	Details map[string]any `json:"details"`
}

// Filter selects events from a queryable sink.
type Filter struct {
	// Types limits results to these event types. Empty means all.
	Types []EventType

	// Since excludes events before this time. Zero means no bound.
	Since time.Time

	// Limit caps the number of events returned. 0 means DefaultQueryLimit.
	Limit int
}

// DefaultQueryLimit is the result cap when a Filter leaves Limit at 0.
const DefaultQueryLimit = 100

func (f Filter) matches(e *Event) bool {
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if e.Type == t {
			return true
		}
	}
	return false
}

// Sink persists audit events.
type Sink interface {
	// Write persists one event.
	Write(ctx context.Context, event Event) error

	// Close flushes and releases the sink.
	Close() error
}

// Querier is implemented by sinks that can list stored events.
type Querier interface {
	// Query returns events matching filter, newest first.
	Query(ctx context.Context, filter Filter) ([]Event, error)
}
