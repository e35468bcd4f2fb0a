// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ontology provides the ontology service: a concept graph, its
// index and query engine behind one reader-writer lock, plus the ops HTTP
// handlers.
//
// The service exposes:
//   - Loading and reloading concept records into a fresh graph
//   - Single-concept upsert and removal with transactional reindexing
//   - The five query operations used by the tool layer
//   - Health, readiness, statistics and admin reload endpoints
package ontology

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/AleutianOntology/services/ontology/audit"
	"github.com/AleutianAI/AleutianOntology/services/ontology/concept"
	"github.com/AleutianAI/AleutianOntology/services/ontology/config"
	"github.com/AleutianAI/AleutianOntology/services/ontology/graph"
	"github.com/AleutianAI/AleutianOntology/services/ontology/index"
	"github.com/AleutianAI/AleutianOntology/services/ontology/query"
	"github.com/AleutianAI/AleutianOntology/services/ontology/records"
	"github.com/AleutianAI/AleutianOntology/services/ontology/sanitize"
)

// freshAttempts bounds how often a reader retries after a writer slipped in
// between a lazy rebuild and the reader lock.
const freshAttempts = 3

// ServiceOption is a functional option for configuring Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAuditLogger records reloads in the audit trail.
func WithAuditLogger(a *audit.Logger) ServiceOption {
	return func(s *Service) {
		s.audit = a
	}
}

// WithRecordsLoader replaces the default records loader.
func WithRecordsLoader(l *records.Loader) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.loader = l
		}
	}
}

// Service owns the serving graph, its index and query engine.
//
// Description:
//
//	The {graph, index, engine} triple is guarded by one RWMutex. Queries
//	hold the read lock for their whole run; Upsert, Remove and Reindex hold
//	the write lock. Loads build a new graph without the lock and swap it in.
//
//	In eager mode every mutation rebuilds the index before releasing the
//	write lock. In lazy mode a mutation only bumps the graph version; the
//	next query sees the stale index, rebuilds it under the write lock (shared
//	by concurrent readers via singleflight) and then runs.
//
// Thread Safety:
//
//	Safe for concurrent use.
type Service struct {
	config    config.Config
	logger    *slog.Logger
	audit     *audit.Logger
	builder   *graph.Builder
	loader    *records.Loader
	sanitizer *sanitize.Sanitizer

	mu       sync.RWMutex
	graph    *graph.Graph
	index    *index.Index
	engine   *query.Engine
	loaded   bool
	loadedAt time.Time
	build    graph.BuildStats

	flight singleflight.Group
}

// NewService creates a service with an empty graph.
//
// Inputs:
//
//	cfg - Validated configuration.
//	opts - Optional logger, audit logger and records loader.
//
// Outputs:
//
//	*Service - The service. Not ready until Load or Reload succeeds.
//	error - config.ErrInvalidConfig if cfg fails validation.
func NewService(cfg config.Config, opts ...ServiceOption) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		config: cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "ontology_service"))
	if s.loader == nil {
		s.loader = records.NewLoader(records.WithLogger(s.logger))
	}
	s.builder = graph.NewBuilder(
		graph.WithBuilderMaxNodes(cfg.Graph.MaxNodes),
		graph.WithBuilderMaxEdges(cfg.Graph.MaxEdges),
		graph.WithLogger(s.logger),
	)
	s.sanitizer = sanitize.New(sanitize.Limits{
		MaxQueryLength:   cfg.Security.MaxQueryLength,
		MaxContextDepth:  cfg.Security.MaxContextDepth,
		MaxResults:       cfg.Security.MaxResultsPerQuery,
		MaxContentLength: cfg.Security.MaxContentLength,
	}, s.logger)

	g := graph.NewGraph(graph.WithMaxNodes(cfg.Graph.MaxNodes), graph.WithMaxEdges(cfg.Graph.MaxEdges))
	if err := s.install(context.Background(), g); err != nil {
		return nil, err
	}
	return s, nil
}

// install builds an index and engine over g and swaps all three in.
func (s *Service) install(ctx context.Context, g *graph.Graph) error {
	idx, err := index.New(ctx, g, index.WithLogger(s.logger))
	if err != nil {
		return err
	}
	engine, err := query.NewEngine(idx,
		query.WithMaxDepth(s.config.Security.MaxContextDepth),
		query.WithMaxLimit(s.config.Security.MaxResultsPerQuery),
		query.WithMaxVisited(s.config.Query.MaxVisited),
		query.WithTimeout(s.config.Query.Timeout),
	)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.graph = g
	s.index = idx
	s.engine = engine
	s.mu.Unlock()
	return nil
}

// Config returns the service configuration.
func (s *Service) Config() config.Config {
	return s.config
}

// Sanitizer returns the input sanitizer built from the security limits.
func (s *Service) Sanitizer() *sanitize.Sanitizer {
	return s.sanitizer
}

// Ready reports whether records have been loaded.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Load builds a graph from recs and makes it the serving graph.
//
// Description:
//
//	The build runs without holding the service lock, so queries keep being
//	answered from the previous graph. Record-level problems are reported in
//	the result and do not fail the load. An incomplete build (cancellation
//	or capacity limit) is not installed. Mutations applied to the previous
//	graph while the build runs are discarded by the swap.
//
// Outputs:
//
//	*graph.BuildResult - The build result, also on ErrBuildIncomplete.
//	error - ErrBuildIncomplete, or an index construction error.
func (s *Service) Load(ctx context.Context, recs []*concept.Record) (result *graph.BuildResult, err error) {
	ctx, span := startOperationSpan(ctx, "Load", attribute.Int("ontology.records", len(recs)))
	start := time.Now()
	defer func() {
		endOperationSpan(span, err)
		recordOperationMetrics(ctx, "load", time.Since(start), err)
	}()

	result, err = s.builder.Build(ctx, recs)
	if err != nil {
		return nil, err
	}
	if result.Incomplete {
		return result, fmt.Errorf("%w: %d nodes, %d record errors, %d edge errors",
			ErrBuildIncomplete, result.Stats.NodesCreated, len(result.RecordErrors), len(result.EdgeErrors))
	}
	if err := s.install(ctx, result.Graph); err != nil {
		return result, err
	}

	s.mu.Lock()
	s.loaded = true
	s.loadedAt = time.Now()
	s.build = result.Stats
	s.mu.Unlock()

	for _, recErr := range result.RecordErrors {
		s.logger.Warn("record skipped", slog.String("error", recErr.Error()))
	}
	s.logger.Info("ontology loaded",
		slog.Int("concepts", result.Stats.NodesCreated),
		slog.Int("relations", result.Stats.EdgesCreated),
		slog.Int("record_errors", len(result.RecordErrors)),
		slog.Int64("duration_us", result.Stats.DurationMicro))
	recordLoadedConcepts(ctx, result.Stats.NodesCreated)
	return result, nil
}

// Reload reads the configured records path and loads it.
//
// Concurrent reloads share one read and build.
//
// Errors:
//
//	ErrNoRecordsPath if no records path is configured.
//	Any records loader error, or a Load error.
func (s *Service) Reload(ctx context.Context) (*graph.BuildResult, error) {
	path := s.config.Records.Path
	if path == "" {
		return nil, ErrNoRecordsPath
	}

	v, err, shared := s.flight.Do("reload", func() (interface{}, error) {
		recs, err := s.loader.Load(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("load records: %w", err)
		}
		return s.Load(ctx, recs)
	})

	var result *graph.BuildResult
	if v != nil {
		result = v.(*graph.BuildResult)
	}
	if !shared && s.audit != nil {
		concepts := 0
		if result != nil {
			concepts = result.Stats.NodesCreated
		}
		s.audit.Reload(ctx, path, concepts, err)
	}
	return result, err
}

// Upsert inserts or replaces one concept.
//
// Edges that other concepts derived from their own relation lists and that
// pointed at this concept are removed and not re-created; see
// graph.Builder.Upsert.
func (s *Service) Upsert(ctx context.Context, rec *concept.Record) (err error) {
	id := ""
	if rec != nil {
		id = rec.ID
	}
	ctx, span := startOperationSpan(ctx, "Upsert", attribute.String("ontology.concept_id", id))
	start := time.Now()
	defer func() {
		endOperationSpan(span, err)
		recordOperationMetrics(ctx, "upsert", time.Since(start), err)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.builder.Upsert(ctx, s.graph, rec); err != nil {
		return err
	}
	s.afterMutationLocked(ctx)
	return nil
}

// Remove deletes one concept and its incident edges. It reports whether the
// concept existed.
func (s *Service) Remove(ctx context.Context, id string) bool {
	ctx, span := startOperationSpan(ctx, "Remove", attribute.String("ontology.concept_id", id))
	start := time.Now()

	s.mu.Lock()
	removed := s.builder.Remove(ctx, s.graph, id)
	if removed {
		s.afterMutationLocked(ctx)
	}
	s.mu.Unlock()

	span.SetAttributes(attribute.Bool("ontology.removed", removed))
	endOperationSpan(span, nil)
	recordOperationMetrics(ctx, "remove", time.Since(start), nil)
	return removed
}

// afterMutationLocked applies the reindex mode. Caller holds the write lock.
func (s *Service) afterMutationLocked(ctx context.Context) {
	if s.config.Index.ReindexMode != config.ReindexEager {
		s.logger.Debug("index marked stale",
			slog.Uint64("graph_version", s.graph.Version()),
			slog.Uint64("index_version", s.index.BuiltVersion()))
		return
	}
	s.index.Rebuild(ctx)
	recordReindex(ctx, "eager")
}

// Reindex rebuilds the index now, whether or not it is stale.
func (s *Service) Reindex(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index.Rebuild(ctx)
	recordReindex(ctx, "manual")
}

// refresh rebuilds a stale index. Concurrent callers share one rebuild.
func (s *Service) refresh(ctx context.Context) {
	_, _, _ = s.flight.Do("reindex", func() (interface{}, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.index.IsStale() {
			s.logger.Debug("rebuilding stale index before query",
				slog.Uint64("graph_version", s.graph.Version()),
				slog.Uint64("index_version", s.index.BuiltVersion()))
			s.index.Rebuild(ctx)
			recordReindex(ctx, "lazy")
		}
		return nil, nil
	})
}

// withEngine runs fn under the read lock against a fresh index.
func (s *Service) withEngine(ctx context.Context, fn func(e *query.Engine) error) error {
	for attempt := 0; attempt < freshAttempts; attempt++ {
		s.mu.RLock()
		if !s.index.IsStale() {
			err := fn(s.engine)
			s.mu.RUnlock()
			return err
		}
		s.mu.RUnlock()
		s.refresh(ctx)
	}
	return fmt.Errorf("%w: writers kept invalidating the index", query.ErrStaleIndex)
}
