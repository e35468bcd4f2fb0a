// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package query

import (
	"context"
	"fmt"
	"time"

	"github.com/AleutianAI/AleutianOntology/services/ontology/concept"
)

// ExpandOptions configures one context expansion.
type ExpandOptions struct {
	// RelationTypes are followed in this order. Default: broader, narrower, related.
	RelationTypes []concept.RelationType

	// Depth is the traversal depth. Default: 2. Clamped to the engine MaxDepth.
	Depth int

	// IncludeContent adds document bodies to the focus and the context notes.
	// Default: true.
	IncludeContent bool
}

// DefaultExpandOptions returns the expansion defaults.
func DefaultExpandOptions() ExpandOptions {
	return ExpandOptions{
		RelationTypes:  concept.DefaultExpandRelationTypes,
		Depth:          DefaultExpandDepth,
		IncludeContent: true,
	}
}

// ExpandOption is a functional option for configuring ExpandContext.
type ExpandOption func(*ExpandOptions)

// WithRelationTypes sets the relation types to follow. An empty list keeps
// the default.
func WithRelationTypes(types ...concept.RelationType) ExpandOption {
	return func(o *ExpandOptions) {
		if len(types) > 0 {
			o.RelationTypes = types
		}
	}
}

// WithDepth sets the traversal depth.
func WithDepth(d int) ExpandOption {
	return func(o *ExpandOptions) {
		o.Depth = d
	}
}

// WithContent sets whether document bodies are included.
func WithContent(include bool) ExpandOption {
	return func(o *ExpandOptions) {
		o.IncludeContent = include
	}
}

type queueItem struct {
	id    string
	depth int
}

// ExpandContext gathers the neighborhood of a concept by breadth-first search.
//
// Description:
//
//	The frontier starts at (id, 0) and the visited set at {id}. A dequeued
//	concept at depth >= Depth is not expanded. Otherwise, for each relation
//	type in order, each unvisited successor from the relation index is
//	marked visited, recorded as direct (found from depth 0) or transitive,
//	and enqueued at depth+1. From then on all configured relation types are
//	followed from it, not only the one that found it. Each concept is
//	recorded once, under the relation type that found it first. Cycles are
//	harmless because of the visited set.
//
// Inputs:
//
//	ctx - Checked every 100 dequeues. Cancellation returns a partial result
//	      marked Truncated.
//	id - Focus concept id.
//	opts - Relation types, depth, content flag.
//
// Outputs:
//
//	*ContextResult - Focus summary plus direct and transitive relations.
//	error - ErrConceptNotFound, ErrInvalidArgument for a negative depth or an
//	        invalid relation type, ErrStaleIndex.
func (e *Engine) ExpandContext(ctx context.Context, id string, opts ...ExpandOption) (*ContextResult, error) {
	if err := e.checkFresh(); err != nil {
		return nil, err
	}

	options := DefaultExpandOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.Depth < 0 {
		return nil, fmt.Errorf("%w: depth %d is negative", ErrInvalidArgument, options.Depth)
	}
	if options.Depth > e.options.MaxDepth {
		options.Depth = e.options.MaxDepth
	}
	for _, t := range options.RelationTypes {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: relation type %q", ErrInvalidArgument, t.String())
		}
	}

	focusNode, ok := e.graph.GetNode(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConceptNotFound, id)
	}

	ctx, cancel := e.withDeadline(ctx)
	defer cancel()
	ctx, span := startExpandSpan(ctx, id, options.Depth)
	defer span.End()
	start := time.Now()

	focus := focusNode.Record
	result := &ContextResult{
		Focus: FocusConcept{
			ID:         focus.ID,
			URI:        focus.ResolvedURI(),
			PrefLabel:  focus.PrefLabel,
			Definition: focus.Definition,
			FilePath:   focus.FilePath,
		},
		DirectRelations:     make(map[string][]Summary, len(options.RelationTypes)),
		TransitiveRelations: make(map[string][]Summary, len(options.RelationTypes)),
	}
	for _, t := range options.RelationTypes {
		result.DirectRelations[t.String()] = []Summary{}
		result.TransitiveRelations[t.String()] = []Summary{}
	}
	if options.IncludeContent {
		content := focus.Content
		result.Focus.Content = &content
		result.ContextNotes = []ContextNote{}
	}

	visited := map[string]bool{id: true}
	queue := []queueItem{{id: id, depth: 0}}

traversal:
	for head := 0; head < len(queue); head++ {
		if head%contextCheckInterval == 0 {
			if ctx.Err() != nil {
				result.Truncated = true
				break
			}
		}

		item := queue[head]
		if item.depth >= options.Depth {
			continue
		}

		for _, relType := range options.RelationTypes {
			for _, next := range e.index.Related(item.id, relType) {
				if visited[next] {
					continue
				}
				if result.Visited >= e.options.MaxVisited {
					result.Truncated = true
					break traversal
				}

				node, ok := e.graph.GetNode(next)
				if !ok {
					continue
				}
				visited[next] = true
				result.Visited++

				summary := summarize(node.Record)
				if item.depth == 0 {
					result.DirectRelations[relType.String()] = append(result.DirectRelations[relType.String()], summary)
				} else {
					result.TransitiveRelations[relType.String()] = append(result.TransitiveRelations[relType.String()], summary)
				}

				if options.IncludeContent {
					result.ContextNotes = append(result.ContextNotes, ContextNote{
						ID:       node.Record.ID,
						Label:    node.Record.PrefLabel,
						Content:  node.Record.Content,
						FilePath: node.Record.FilePath,
					})
				}

				queue = append(queue, queueItem{id: next, depth: item.depth + 1})
			}
		}
	}

	setExpandSpanResult(span, result.Visited, result.Truncated)
	recordQueryMetrics(ctx, "expand_context", time.Since(start), result.Visited)
	return result, nil
}
