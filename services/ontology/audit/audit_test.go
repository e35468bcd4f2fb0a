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
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ontobadger "github.com/AleutianAI/AleutianOntology/services/ontology/storage/badger"
)

// memorySink collects events for assertions.
type memorySink struct {
	mu     sync.Mutex
	events []Event
	err    error
	closed bool
}

func (s *memorySink) Write(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

func (s *memorySink) Close() error {
	s.closed = true
	return nil
}

// fixedClock returns timestamps one second apart.
func fixedClock() func() time.Time {
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestLogger_ToolCall(t *testing.T) {
	sink := &memorySink{}
	l := NewLogger(nil, sink)

	l.ToolCall(context.Background(), ToolCall{
		Tool:      "search_concepts",
		Arguments: map[string]any{"query": "regression"},
		RequestID: "req-1",
		Success:   false,
		Duration:  1500 * time.Microsecond,
		Error:     "invalid argument",
	})

	require.Len(t, sink.events, 1)
	e := sink.events[0]
	assert.Equal(t, EventToolCall, e.Type)
	assert.Equal(t, "req-1", e.RequestID)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "search_concepts", e.Details["tool_name"])
	assert.Equal(t, false, e.Details["success"])
	assert.Equal(t, 1.5, e.Details["execution_time_ms"])
	assert.Equal(t, "invalid argument", e.Details["error"])
}

func TestLogger_SecurityAndRateLimit(t *testing.T) {
	sink := &memorySink{}
	l := NewLogger(nil, sink)

	l.RateLimitExceeded(context.Background(), "get_concept", "req-2")
	l.SecurityEvent(context.Background(), "prompt_injection", SeverityHigh, "req-3",
		map[string]any{"tool_name": "search_concepts", "kind": "overridden"})

	require.Len(t, sink.events, 2)
	assert.Equal(t, EventRateLimitExceeded, sink.events[0].Type)
	assert.Equal(t, EventSecurity, sink.events[1].Type)
	assert.Equal(t, "prompt_injection", sink.events[1].Details["kind"])
	assert.Equal(t, "high", sink.events[1].Details["severity"])
	assert.Equal(t, "search_concepts", sink.events[1].Details["tool_name"])
}

func TestLogger_SinkFailureDoesNotPropagate(t *testing.T) {
	failing := &memorySink{err: errors.New("disk full")}
	healthy := &memorySink{}
	l := NewLogger(nil, failing, healthy)

	l.Reload(context.Background(), "/data", 12, nil)

	assert.Len(t, healthy.events, 1)
	assert.Equal(t, true, healthy.events[0].Details["success"])

	require.NoError(t, l.Close())
	assert.True(t, failing.closed)
	assert.True(t, healthy.closed)
}

func TestLogger_QueryWithoutQuerier(t *testing.T) {
	l := NewLogger(nil, &memorySink{})
	_, err := l.Query(context.Background(), Filter{})
	assert.ErrorIs(t, err, ErrNoQuerier)
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.log")
	sink, err := NewFileSink(path)
	require.NoError(t, err)

	l := NewLogger(nil, sink)
	l.ToolCall(context.Background(), ToolCall{Tool: "get_statistics", Success: true})
	l.RateLimitExceeded(context.Background(), "get_concept", "")
	require.NoError(t, l.Close())
	require.NoError(t, sink.Close(), "second close is a no-op")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var types []EventType
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		types = append(types, e.Type)
	}
	assert.Equal(t, []EventType{EventToolCall, EventRateLimitExceeded}, types)

	assert.Error(t, sink.Write(context.Background(), Event{}), "write after close fails")
}

func TestBadgerSink_QueryNewestFirst(t *testing.T) {
	sink, err := OpenBadgerSink(ontobadger.InMemoryConfig())
	require.NoError(t, err)
	defer sink.Close()

	l := NewLogger(nil, sink)
	l.now = fixedClock()
	ctx := context.Background()

	l.ToolCall(ctx, ToolCall{Tool: "get_concept", Success: true})
	l.RateLimitExceeded(ctx, "get_concept", "")
	l.ToolCall(ctx, ToolCall{Tool: "search_concepts", Success: true})
	l.SecurityEvent(ctx, "path_traversal", SeverityMedium, "", nil)

	recent, err := sink.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, EventSecurity, recent[0].Type)
	assert.Equal(t, EventToolCall, recent[1].Type)
	assert.Equal(t, "search_concepts", recent[1].Details["tool_name"])

	calls, err := l.Query(ctx, Filter{Types: []EventType{EventToolCall}})
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, "search_concepts", calls[0].Details["tool_name"])
	assert.Equal(t, "get_concept", calls[1].Details["tool_name"])

	since, err := sink.Query(ctx, Filter{Since: time.Date(2025, 1, 1, 0, 0, 3, 0, time.UTC)})
	require.NoError(t, err)
	assert.Len(t, since, 2)
}

func TestBadgerSink_SharedDB(t *testing.T) {
	db, err := ontobadger.OpenDB(ontobadger.InMemoryConfig())
	require.NoError(t, err)
	defer db.Close()

	sink := NewBadgerSink(db)
	require.NoError(t, sink.Write(context.Background(), Event{ID: "x", Timestamp: time.Now().UTC(), Type: EventReload}))
	require.NoError(t, sink.Close())

	events, err := sink.Recent(context.Background(), 10)
	require.NoError(t, err, "closing a sink must not close a shared database")
	assert.Len(t, events, 1)
}
