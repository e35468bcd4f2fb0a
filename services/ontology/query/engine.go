// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package query answers lookups, searches, context expansions and shortest
// path queries over a concept graph and its index.
//
// An Engine refuses to run against an index built from an older graph
// version (ErrStaleIndex). It does no locking of its own; the ontology
// service holds a reader lock for the duration of each query.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AleutianAI/AleutianOntology/services/ontology/concept"
	"github.com/AleutianAI/AleutianOntology/services/ontology/graph"
	"github.com/AleutianAI/AleutianOntology/services/ontology/index"
)

// Query configuration limits.
const (
	// DefaultMaxDepth caps context expansion depth.
	DefaultMaxDepth = 3

	// DefaultExpandDepth is the expansion depth when the caller gives none.
	DefaultExpandDepth = 2

	// DefaultMaxLimit caps search result counts.
	DefaultMaxLimit = 100

	// DefaultSearchLimit is the search limit when the caller gives none.
	DefaultSearchLimit = 10

	// DefaultMaxVisited caps the concepts one expansion may discover.
	DefaultMaxVisited = 10_000

	// contextCheckInterval is how often to check context during traversal.
	contextCheckInterval = 100
)

// EngineOptions configures query limits.
type EngineOptions struct {
	// MaxDepth caps expansion depth. Larger requests are clamped.
	MaxDepth int

	// MaxLimit caps search limits. Larger requests are clamped.
	MaxLimit int

	// MaxVisited stops an expansion after this many discoveries.
	MaxVisited int

	// Timeout is the per-query deadline (0 = use the context deadline only).
	Timeout time.Duration
}

// DefaultEngineOptions returns sensible defaults.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		MaxDepth:   DefaultMaxDepth,
		MaxLimit:   DefaultMaxLimit,
		MaxVisited: DefaultMaxVisited,
	}
}

// EngineOption is a functional option for configuring Engine.
type EngineOption func(*EngineOptions)

// WithMaxDepth sets the expansion depth cap. Values below 0 are ignored.
func WithMaxDepth(d int) EngineOption {
	return func(o *EngineOptions) {
		if d >= 0 {
			o.MaxDepth = d
		}
	}
}

// WithMaxLimit sets the search limit cap. Values below 1 are ignored.
func WithMaxLimit(n int) EngineOption {
	return func(o *EngineOptions) {
		if n > 0 {
			o.MaxLimit = n
		}
	}
}

// WithMaxVisited sets the expansion visit cap. Values below 1 are ignored.
func WithMaxVisited(n int) EngineOption {
	return func(o *EngineOptions) {
		if n > 0 {
			o.MaxVisited = n
		}
	}
}

// WithTimeout sets the per-query deadline.
func WithTimeout(d time.Duration) EngineOption {
	return func(o *EngineOptions) {
		o.Timeout = d
	}
}

// Engine answers queries against one graph and its index.
//
// Thread Safety:
//
//	Safe for concurrent queries as long as nothing mutates the graph or
//	rebuilds the index at the same time.
type Engine struct {
	graph   *graph.Graph
	index   *index.Index
	options EngineOptions
}

// NewEngine creates an engine over idx and the graph it indexes.
//
// Outputs:
//
//	*Engine - The engine.
//	error - ErrNilIndex if idx is nil.
func NewEngine(idx *index.Index, opts ...EngineOption) (*Engine, error) {
	if idx == nil {
		return nil, ErrNilIndex
	}

	options := DefaultEngineOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Engine{
		graph:   idx.Graph(),
		index:   idx,
		options: options,
	}, nil
}

// Options returns the engine limits.
func (e *Engine) Options() EngineOptions {
	return e.options
}

// checkFresh returns ErrStaleIndex if the graph changed since the last rebuild.
func (e *Engine) checkFresh() error {
	if e.index.IsStale() {
		return fmt.Errorf("%w: index at version %d, graph at version %d",
			ErrStaleIndex, e.index.BuiltVersion(), e.graph.Version())
	}
	return nil
}

// withDeadline applies the configured per-query timeout.
func (e *Engine) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.options.Timeout > 0 {
		return context.WithTimeout(ctx, e.options.Timeout)
	}
	return context.WithCancel(ctx)
}

// Get returns the concept record with the given id.
//
// Errors:
//
//	ErrConceptNotFound if no concept has this id.
//	ErrStaleIndex if the index is out of date.
func (e *Engine) Get(id string) (*concept.Record, error) {
	if err := e.checkFresh(); err != nil {
		return nil, err
	}
	node, ok := e.graph.GetNode(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConceptNotFound, id)
	}
	return node.Record, nil
}

// Resolve finds a concept by id, then by prefLabel, alt label and notation.
// As a last step it retries the id lookup with concept.Slugify(key), so
// "ML_Basics" reaches the stored id "ml_basics".
//
// Outputs:
//
//	*concept.Record - The concept.
//	string - Which lookup matched: "id", "label", "alt_label" or "notation".
//	error - ErrConceptNotFound if nothing matched.
func (e *Engine) Resolve(key string) (*concept.Record, string, error) {
	if err := e.checkFresh(); err != nil {
		return nil, "", err
	}

	if node, ok := e.graph.GetNode(key); ok {
		return node.Record, "id", nil
	}

	lookups := []struct {
		via  string
		find func(string) (string, bool)
	}{
		{"label", e.index.FindByLabel},
		{"alt_label", e.index.FindByAltLabel},
		{"notation", e.index.FindByNotation},
	}
	for _, l := range lookups {
		if id, ok := l.find(key); ok {
			if node, ok := e.graph.GetNode(id); ok {
				return node.Record, l.via, nil
			}
		}
	}
	if slug := concept.Slugify(key); slug != key {
		if node, ok := e.graph.GetNode(slug); ok {
			return node.Record, "id", nil
		}
	}
	return nil, "", fmt.Errorf("%w: %s", ErrConceptNotFound, key)
}

// Search runs a text search and hydrates each hit, preserving rank order.
//
// Inputs:
//
//	ctx - Context for cancellation and deadline.
//	text - Search text. Must not be blank.
//	limit - Maximum results. Must be positive; values above MaxLimit are clamped.
//
// Errors:
//
//	ErrInvalidArgument for blank text or non-positive limit.
//	ErrStaleIndex if the index is out of date.
func (e *Engine) Search(ctx context.Context, text string, limit int) (*SearchResult, error) {
	if err := e.checkFresh(); err != nil {
		return nil, err
	}
	if limit > e.options.MaxLimit {
		limit = e.options.MaxLimit
	}

	ctx, cancel := e.withDeadline(ctx)
	defer cancel()
	start := time.Now()

	found, err := e.index.SearchByText(ctx, text, limit)
	if err != nil {
		if errors.Is(err, index.ErrEmptyQuery) || errors.Is(err, index.ErrInvalidLimit) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		return nil, err
	}

	result := &SearchResult{
		Query:     text,
		Results:   make([]SearchHit, 0, len(found.Hits)),
		Truncated: found.Truncated,
	}
	for _, hit := range found.Hits {
		node, ok := e.graph.GetNode(hit.ID)
		if !ok {
			continue
		}
		rec := node.Record
		result.Results = append(result.Results, SearchHit{
			ID:         rec.ID,
			URI:        rec.ResolvedURI(),
			PrefLabel:  rec.PrefLabel,
			Definition: rec.Definition,
			FilePath:   rec.FilePath,
			Score:      hit.Score,
		})
	}
	result.Count = len(result.Results)

	recordQueryMetrics(ctx, "search", time.Since(start), result.Count)
	return result, nil
}

// Statistics returns node and edge counts.
func (e *Engine) Statistics() Statistics {
	return Statistics{
		TotalConcepts:  e.graph.NodeCount(),
		TotalRelations: e.graph.EdgeCount(),
	}
}
