// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianOntology/services/ontology/concept"
)

// BuilderOptions configures Builder behavior.
type BuilderOptions struct {
	// MaxNodes is passed to every graph the builder creates.
	MaxNodes int

	// MaxEdges is passed to every graph the builder creates.
	MaxEdges int

	// Logger receives build diagnostics. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultBuilderOptions returns sensible defaults.
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		MaxNodes: DefaultMaxNodes,
		MaxEdges: DefaultMaxEdges,
	}
}

// BuilderOption is a functional option for configuring Builder.
type BuilderOption func(*BuilderOptions)

// WithBuilderMaxNodes sets the node capacity of built graphs.
func WithBuilderMaxNodes(n int) BuilderOption {
	return func(o *BuilderOptions) {
		o.MaxNodes = n
	}
}

// WithBuilderMaxEdges sets the edge capacity of built graphs.
func WithBuilderMaxEdges(n int) BuilderOption {
	return func(o *BuilderOptions) {
		o.MaxEdges = n
	}
}

// WithLogger sets the builder logger.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(o *BuilderOptions) {
		o.Logger = logger
	}
}

// Builder constructs concept graphs from records and applies targeted
// updates to existing graphs.
//
// Thread Safety:
//
//	Builder holds no per-build state and is safe for concurrent use. The
//	graphs it mutates are not; see the package documentation.
type Builder struct {
	options BuilderOptions
	logger  *slog.Logger
}

// NewBuilder creates a new Builder with the given options.
func NewBuilder(opts ...BuilderOption) *Builder {
	options := DefaultBuilderOptions()
	for _, opt := range opts {
		opt(&options)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Builder{
		options: options,
		logger:  logger.With("component", "graph_builder"),
	}
}

// Build constructs a graph from concept records.
//
// Description:
//
//	Two phases. The node phase inserts every valid record, so relation
//	resolution does not depend on record order. A repeated id overwrites the
//	earlier attributes. The edge phase resolves each surviving record's
//	relation lists:
//	  - broader B:      A -broader-> B and B -narrower-> A
//	  - narrower N:     A -narrower-> N and N -broader-> A
//	  - related R:      A -related-> R and R -related-> A
//	  - prerequisite P: A -prerequisite-> P only
//	References to ids that are not in the graph are dropped silently.
//
// Inputs:
//
//	ctx - Context for cancellation. Checked once per record.
//	records - Concept records. Nil entries and records without an id are
//	          reported in RecordErrors and skipped.
//
// Outputs:
//
//	*BuildResult - Never nil. Incomplete is set on cancellation or when a
//	               capacity limit stops the build.
//	error - Non-nil only if ctx is nil.
func (b *Builder) Build(ctx context.Context, records []*concept.Record) (*BuildResult, error) {
	if ctx == nil {
		return nil, errors.New("ctx must not be nil")
	}

	ctx, span := startBuildSpan(ctx, len(records))
	defer span.End()

	start := time.Now()
	g := NewGraph(WithMaxNodes(b.options.MaxNodes), WithMaxEdges(b.options.MaxEdges))
	result := &BuildResult{
		Graph:        g,
		RecordErrors: make([]RecordError, 0),
		EdgeErrors:   make([]EdgeError, 0),
	}

	finish := func(success bool) *BuildResult {
		duration := time.Since(start)
		result.Stats.DurationMicro = duration.Microseconds()
		result.Stats.NodesCreated = g.NodeCount()
		result.Stats.EdgesCreated = g.EdgeCount()
		setBuildSpanResult(span, g.NodeCount(), g.EdgeCount(), result.Incomplete)
		recordBuildMetrics(ctx, duration, g.NodeCount(), g.EdgeCount(), success)
		return result
	}

	// Phase 1: nodes
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			result.Incomplete = true
			b.logger.Warn("graph build cancelled in node phase", slog.Int("position", i), slog.String("error", err.Error()))
			return finish(false), nil
		}
		result.Stats.RecordsProcessed++

		_, created, err := g.PutNode(rec)
		if err != nil {
			recErr := RecordError{Position: i, Err: err}
			if rec != nil {
				recErr.ConceptID = rec.ID
			}
			result.RecordErrors = append(result.RecordErrors, recErr)
			if errors.Is(err, ErrMaxNodesExceeded) {
				result.Incomplete = true
				return finish(false), nil
			}
			continue
		}
		if !created {
			result.Stats.NodesOverwritten++
			b.logger.Debug("concept id repeated in build input, attributes overwritten",
				slog.String("concept_id", rec.ID), slog.Int("position", i))
		}
	}

	// Phase 2: edges, only from the record that won each id
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			result.Incomplete = true
			b.logger.Warn("graph build cancelled in edge phase", slog.String("error", err.Error()))
			return finish(false), nil
		}
		if rec == nil {
			continue
		}
		node, ok := g.GetNode(rec.ID)
		if !ok || node.Record != rec {
			continue
		}

		edgeErrs := b.linkRecord(g, rec)
		if len(edgeErrs) > 0 {
			result.EdgeErrors = append(result.EdgeErrors, edgeErrs...)
			if errors.Is(edgeErrs[len(edgeErrs)-1].Err, ErrMaxEdgesExceeded) {
				result.Incomplete = true
				return finish(false), nil
			}
		}
	}

	b.logger.Debug("graph built",
		slog.Int("nodes", g.NodeCount()),
		slog.Int("edges", g.EdgeCount()),
		slog.Int("record_errors", len(result.RecordErrors)))

	return finish(true), nil
}

// Upsert inserts a concept or replaces an existing one.
//
// Description:
//
//	If the id exists, every edge incident to it is removed first, in both
//	directions and of all relation types. The record is then written and its
//	own relation lists are resolved into edges as in Build.
//
//	Edges that other concepts derived from their own lists and that pointed
//	at this concept are gone after the cleanup and are NOT re-created here.
//	They come back when those concepts are upserted again or the graph is
//	rebuilt from records.
//
// Inputs:
//
//	ctx - Context for tracing.
//	g - The graph to mutate. Must not be nil.
//	record - The new concept record.
//
// Outputs:
//
//	error - ErrInvalidNode for invalid records, capacity errors, or an
//	        EdgeError wrapping ErrMaxEdgesExceeded.
func (b *Builder) Upsert(ctx context.Context, g *Graph, record *concept.Record) (err error) {
	id := ""
	if record != nil {
		id = record.ID
	}
	ctx, span := startMutationSpan(ctx, "Upsert", id)
	defer span.End()
	defer func() { recordMutationMetrics(ctx, "upsert", err == nil) }()

	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidNode, err)
	}

	if g.HasNode(record.ID) {
		removed := g.RemoveIncidentEdges(record.ID)
		b.logger.Debug("upsert removed incident edges",
			slog.String("concept_id", record.ID), slog.Int("edges_removed", removed))
	}

	if _, _, err := g.PutNode(record); err != nil {
		return err
	}

	if edgeErrs := b.linkRecord(g, record); len(edgeErrs) > 0 {
		return edgeErrs[0]
	}
	return nil
}

// Remove deletes a concept and every incident edge.
//
// Description:
//
//	Relation lists stored on other concepts' records are data and stay as
//	they are.
//
// Outputs:
//
//	bool - False if the concept did not exist.
func (b *Builder) Remove(ctx context.Context, g *Graph, id string) bool {
	ctx, span := startMutationSpan(ctx, "Remove", id)
	defer span.End()

	removed := g.RemoveNode(id)
	recordMutationMetrics(ctx, "remove", removed)
	if removed {
		b.logger.Debug("concept removed", slog.String("concept_id", id))
	}
	return removed
}

// linkRecord resolves one record's relation lists into edges.
//
// It stops at the first capacity error.
func (b *Builder) linkRecord(g *Graph, rec *concept.Record) []EdgeError {
	var errs []EdgeError

	for _, relType := range concept.AllRelationTypes {
		for _, target := range rec.Relations(relType) {
			if !g.HasNode(target) {
				continue
			}

			if _, err := g.AddEdge(rec.ID, target, relType); err != nil {
				errs = append(errs, EdgeError{FromID: rec.ID, ToID: target, Type: relType, Err: err})
				return errs
			}

			inverse, ok := relType.Inverse()
			if !ok {
				continue
			}
			if _, err := g.AddEdge(target, rec.ID, inverse); err != nil {
				errs = append(errs, EdgeError{FromID: target, ToID: rec.ID, Type: inverse, Err: err})
				return errs
			}
		}
	}
	return errs
}
