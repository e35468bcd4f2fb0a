// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ontology

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/AleutianOntology/services/ontology/concept"
	"github.com/AleutianAI/AleutianOntology/services/ontology/query"
)

// GetConcept looks a concept up by id, then by label, alt label and notation.
//
// Inputs:
//
//	ctx - Context for tracing.
//	key - Concept id, prefLabel, alt label or notation.
//	includeRelations - When false, the four relation lists are cleared.
//
// Outputs:
//
//	*ConceptResult - The concept and the lookup that matched.
//	error - *ConceptNotFoundError (matches ErrConceptNotFound) if nothing matched.
func (s *Service) GetConcept(ctx context.Context, key string, includeRelations bool) (result *ConceptResult, err error) {
	ctx, span := startOperationSpan(ctx, "GetConcept", attribute.String("ontology.key", key))
	start := time.Now()
	defer func() {
		endOperationSpan(span, err)
		recordOperationMetrics(ctx, "get_concept", time.Since(start), err)
	}()

	err = s.withEngine(ctx, func(e *query.Engine) error {
		rec, via, err := e.Resolve(key)
		if err != nil {
			if errors.Is(err, ErrConceptNotFound) {
				return &ConceptNotFoundError{Key: key, AvailableCount: e.Statistics().TotalConcepts}
			}
			return err
		}

		var out *concept.Record
		if includeRelations {
			clone := *rec
			out = &clone
		} else {
			out = rec.WithoutRelations()
		}
		out.Content = s.sanitizer.Truncate(out.Content)
		result = &ConceptResult{Concept: out, MatchedBy: via}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SearchConcepts runs a ranked text search over labels and definitions.
//
// Errors:
//
//	ErrInvalidArgument for a blank query or a limit below 1.
func (s *Service) SearchConcepts(ctx context.Context, text string, limit int) (result *query.SearchResult, err error) {
	ctx, span := startOperationSpan(ctx, "SearchConcepts",
		attribute.String("ontology.query", text),
		attribute.Int("ontology.limit", limit))
	start := time.Now()
	defer func() {
		endOperationSpan(span, err)
		recordOperationMetrics(ctx, "search_concepts", time.Since(start), err)
	}()

	err = s.withEngine(ctx, func(e *query.Engine) error {
		var err error
		result, err = e.Search(ctx, text, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExpandContext gathers the neighborhood of a concept.
//
// Relation names are parsed here; an unknown name is ErrInvalidArgument.
// Document bodies in the result are truncated to the configured maximum.
//
// Errors:
//
//	ErrConceptNotFound if the concept does not exist.
//	ErrInvalidArgument for unknown relation names or a negative depth.
func (s *Service) ExpandContext(ctx context.Context, req ExpandRequest) (result *query.ContextResult, err error) {
	ctx, span := startOperationSpan(ctx, "ExpandContext",
		attribute.String("ontology.concept_id", req.ConceptID),
		attribute.Int("ontology.depth", req.MaxDepth))
	start := time.Now()
	defer func() {
		endOperationSpan(span, err)
		recordOperationMetrics(ctx, "expand_context", time.Since(start), err)
	}()

	types, err := concept.ParseRelationTypes(req.RelationTypes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	err = s.withEngine(ctx, func(e *query.Engine) error {
		var err error
		result, err = e.ExpandContext(ctx, req.ConceptID,
			query.WithRelationTypes(types...),
			query.WithDepth(req.MaxDepth),
			query.WithContent(req.IncludeContent),
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.Focus.Content != nil {
		truncated := s.sanitizer.Truncate(*result.Focus.Content)
		result.Focus.Content = &truncated
	}
	for i := range result.ContextNotes {
		result.ContextNotes[i].Content = s.sanitizer.Truncate(result.ContextNotes[i].Content)
	}
	return result, nil
}

// GetConceptPath finds a shortest path between two concepts, ignoring
// relation type and direction.
//
// Outputs:
//
//	*query.PathResult - The path. Found() is false when both concepts
//	                    exist but are not connected.
//	error - ErrConceptNotFound if either endpoint is missing.
func (s *Service) GetConceptPath(ctx context.Context, from, to string) (result *query.PathResult, err error) {
	ctx, span := startOperationSpan(ctx, "GetConceptPath",
		attribute.String("ontology.from", from),
		attribute.String("ontology.to", to))
	start := time.Now()
	defer func() {
		endOperationSpan(span, err)
		recordOperationMetrics(ctx, "get_concept_path", time.Since(start), err)
	}()

	err = s.withEngine(ctx, func(e *query.Engine) error {
		var err error
		result, err = e.Path(ctx, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetStatistics returns concept and relation counts with service metadata.
//
// It reads the graph directly and does not trigger a lazy rebuild, so
// IndexStale reports pending mutations honestly.
func (s *Service) GetStatistics(ctx context.Context) *Statistics {
	_, span := startOperationSpan(ctx, "GetStatistics")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := s.engine.Statistics()
	return &Statistics{
		TotalConcepts:  counts.TotalConcepts,
		TotalRelations: counts.TotalRelations,
		ServerName:     s.config.Server.Name,
		ServerVersion:  s.config.Server.Version,
		RecordsPath:    s.config.Records.Path,
		GraphVersion:   s.graph.Version(),
		IndexStale:     s.index.IsStale(),
		Collisions:     len(s.index.Collisions()),
		LoadedAt:       s.loadedAt,
	}
}

// DebugStats returns builder-level graph statistics, index sizes and the
// collision list.
func (s *Service) DebugStats() *DebugStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &DebugStats{
		Graph:      s.graph.Stats(),
		Index:      s.index.Stats(),
		LastBuild:  s.build,
		Collisions: s.index.Collisions(),
		IndexedAt:  s.index.BuiltAt(),
	}
}
