// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package index derives lookup structures from a concept graph.
//
// An Index holds four structures computed by a full scan of the graph:
//
//   - label index: lower-cased prefLabel -> concept id
//   - alt-label index: lower-cased altLabel -> concept id
//   - notation index: exact notation -> concept id, with a lower-cased
//     companion map used when the exact lookup misses
//   - relation index: per relation type, source id -> target ids in edge
//     insertion order
//
// The index is a derived artifact. It records the graph version it was built
// from, and IsStale reports whether the graph has changed since. Nothing here
// rebuilds automatically; callers call Rebuild, or use the ontology service,
// which does it for them.
//
// # Collisions
//
// When two concepts share a label (case-insensitively), an alt label or a
// notation, the concept later in graph node order wins the slot. Every such
// overwrite is recorded and available from Collisions.
//
// # Thread Safety
//
// Index is NOT safe for concurrent mutation. Lookups may run concurrently
// with each other once Rebuild has returned.
package index

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianOntology/services/ontology/concept"
	"github.com/AleutianAI/AleutianOntology/services/ontology/graph"
)

// Sentinel errors for index operations.
var (
	// ErrNilGraph is returned when an index is created without a graph.
	ErrNilGraph = errors.New("graph must not be nil")

	// ErrInvalidLimit is returned when a search limit is not positive.
	ErrInvalidLimit = errors.New("limit must be positive")

	// ErrEmptyQuery is returned when a search query is blank.
	ErrEmptyQuery = errors.New("query must not be empty")
)

// CollisionKind names the index a collision happened in.
type CollisionKind string

const (
	CollisionLabel    CollisionKind = "label"
	CollisionAltLabel CollisionKind = "alt_label"
	CollisionNotation CollisionKind = "notation"
)

// Collision records one key that was claimed by more than one concept.
type Collision struct {
	Kind       CollisionKind `json:"kind"`
	Key        string        `json:"key"`
	PreviousID string        `json:"previous_id"`
	NewID      string        `json:"new_id"`
}

// Options configures an Index.
type Options struct {
	// Logger receives rebuild diagnostics. Default: slog.Default().
	Logger *slog.Logger
}

// Option is a functional option for configuring Index.
type Option func(*Options)

// WithLogger sets the index logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// Index holds the lookup structures for one graph.
type Index struct {
	graph  *graph.Graph
	logger *slog.Logger

	labels    map[string]string
	altLabels map[string]string
	notations map[string]string
	relations [concept.NumRelationTypes]map[string][]string

	// notationsFold is keyed by lower-cased notation. Last writer wins and
	// no collision is recorded.
	notationsFold map[string]string

	collisions   []Collision
	builtVersion uint64
	builtAt      time.Time
}

// New creates an index over g and builds it.
//
// Outputs:
//
//	*Index - The built index.
//	error - ErrNilGraph if g is nil.
func New(ctx context.Context, g *graph.Graph, opts ...Option) (*Index, error) {
	if g == nil {
		return nil, ErrNilGraph
	}

	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	x := &Index{
		graph:  g,
		logger: logger.With("component", "ontology_index"),
	}
	x.Rebuild(ctx)
	return x, nil
}

// Rebuild clears and recomputes every structure from the current graph.
//
// Description:
//
//	Deterministic: two rebuilds with no graph mutation in between produce
//	identical contents, including the collision list.
//
// Thread Safety:
//
//	Requires exclusive access to both the index and the graph.
func (x *Index) Rebuild(ctx context.Context) {
	ctx, span := startRebuildSpan(ctx, x.graph.NodeCount(), x.graph.EdgeCount())
	defer span.End()
	start := time.Now()

	x.labels = make(map[string]string, x.graph.NodeCount())
	x.altLabels = make(map[string]string)
	x.notations = make(map[string]string)
	x.notationsFold = make(map[string]string)
	for _, t := range concept.AllRelationTypes {
		x.relations[t] = make(map[string][]string)
	}
	x.collisions = nil

	for id, node := range x.graph.Nodes() {
		rec := node.Record
		if rec.PrefLabel != "" {
			x.claim(x.labels, CollisionLabel, strings.ToLower(rec.PrefLabel), id)
		}
		for _, alt := range rec.AltLabels {
			if alt != "" {
				x.claim(x.altLabels, CollisionAltLabel, strings.ToLower(alt), id)
			}
		}
		if rec.Notation != "" {
			x.claim(x.notations, CollisionNotation, rec.Notation, id)
			x.notationsFold[strings.ToLower(rec.Notation)] = id
		}
	}

	for _, e := range x.graph.Edges() {
		x.relations[e.Type][e.FromID] = append(x.relations[e.Type][e.FromID], e.ToID)
	}

	x.builtVersion = x.graph.Version()
	x.builtAt = time.Now()

	if len(x.collisions) > 0 {
		x.logger.Warn("index key collisions, later concepts won",
			slog.Int("collisions", len(x.collisions)))
	}

	setRebuildSpanResult(span, len(x.labels), len(x.collisions))
	recordRebuildMetrics(ctx, time.Since(start), len(x.collisions))
}

// claim writes key -> id, recording a collision if another concept held it.
func (x *Index) claim(m map[string]string, kind CollisionKind, key, id string) {
	if prev, ok := m[key]; ok && prev != id {
		x.collisions = append(x.collisions, Collision{Kind: kind, Key: key, PreviousID: prev, NewID: id})
		x.logger.Debug("index key collision",
			slog.String("kind", string(kind)),
			slog.String("key", key),
			slog.String("previous_id", prev),
			slog.String("new_id", id))
	}
	m[key] = id
}

// Graph returns the graph this index was built over.
func (x *Index) Graph() *graph.Graph {
	return x.graph
}

// BuiltVersion returns the graph version at the last rebuild.
func (x *Index) BuiltVersion() uint64 {
	return x.builtVersion
}

// BuiltAt returns the time of the last rebuild.
func (x *Index) BuiltAt() time.Time {
	return x.builtAt
}

// IsStale reports whether the graph was mutated after the last rebuild.
func (x *Index) IsStale() bool {
	return x.builtVersion != x.graph.Version()
}

// FindByLabel returns the concept whose prefLabel matches, ignoring case.
func (x *Index) FindByLabel(label string) (string, bool) {
	id, ok := x.labels[strings.ToLower(label)]
	return id, ok
}

// FindByAltLabel returns the concept with a matching alt label, ignoring case.
func (x *Index) FindByAltLabel(label string) (string, bool) {
	id, ok := x.altLabels[strings.ToLower(label)]
	return id, ok
}

// FindByNotation returns the concept with exactly this notation. When no
// notation matches exactly, it retries ignoring case.
func (x *Index) FindByNotation(notation string) (string, bool) {
	if id, ok := x.notations[notation]; ok {
		return id, true
	}
	id, ok := x.notationsFold[strings.ToLower(notation)]
	return id, ok
}

// Related returns the direct successors of id for one relation type, in
// edge insertion order.
//
// The returned slice is the index's own storage and must not be modified.
func (x *Index) Related(id string, relType concept.RelationType) []string {
	if !relType.Valid() {
		return nil
	}
	return x.relations[relType][id]
}

// Collisions returns the key collisions seen by the last rebuild, in the
// order they happened.
func (x *Index) Collisions() []Collision {
	out := make([]Collision, len(x.collisions))
	copy(out, x.collisions)
	return out
}

// Stats contains index sizes.
type Stats struct {
	Labels     int            `json:"labels"`
	AltLabels  int            `json:"alt_labels"`
	Notations  int            `json:"notations"`
	Relations  map[string]int `json:"relations"`
	Collisions int            `json:"collisions"`
	Stale      bool           `json:"stale"`
}

// Stats returns the number of keys in each structure. Relations counts
// source ids per relation type.
func (x *Index) Stats() Stats {
	relations := make(map[string]int, len(concept.AllRelationTypes))
	for _, t := range concept.AllRelationTypes {
		relations[t.String()] = len(x.relations[t])
	}
	return Stats{
		Labels:     len(x.labels),
		AltLabels:  len(x.altLabels),
		Notations:  len(x.notations),
		Relations:  relations,
		Collisions: len(x.collisions),
		Stale:      x.IsStale(),
	}
}

// Snapshot is a serializable copy of the index contents.
type Snapshot struct {
	Labels     map[string]string              `json:"labels"`
	AltLabels  map[string]string              `json:"alt_labels"`
	Notations  map[string]string              `json:"notations"`
	Relations  map[string]map[string][]string `json:"relations"`
	Collisions []Collision                    `json:"collisions"`
	Version    uint64                         `json:"version"`
}

// Snapshot copies the index contents. Encoding a snapshot with
// encoding/json gives a canonical byte form, since map keys are sorted.
func (x *Index) Snapshot() Snapshot {
	relations := make(map[string]map[string][]string, len(concept.AllRelationTypes))
	for _, t := range concept.AllRelationTypes {
		byType := make(map[string][]string, len(x.relations[t]))
		for src, targets := range x.relations[t] {
			byType[src] = append([]string(nil), targets...)
		}
		relations[t.String()] = byType
	}
	return Snapshot{
		Labels:     copyMap(x.labels),
		AltLabels:  copyMap(x.altLabels),
		Notations:  copyMap(x.notations),
		Relations:  relations,
		Collisions: x.Collisions(),
		Version:    x.builtVersion,
	}
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
