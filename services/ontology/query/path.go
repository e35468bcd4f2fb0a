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
)

// Path finds a shortest path between two concepts, ignoring edge direction.
//
// Description:
//
//	Breadth-first search over the undirected view of the graph. Neighbors
//	are visited in the order the graph reports them (outgoing targets, then
//	incoming sources), which makes the chosen path deterministic when
//	several shortest paths exist.
//
// Inputs:
//
//	ctx - Checked every 100 dequeues.
//	from, to - Concept ids. Equal ids give a zero-length path.
//
// Outputs:
//
//	*PathResult - Path with Length = hops, or Length -1 and an empty Path
//	              when the concepts are disconnected.
//	error - ErrConceptNotFound if either endpoint is missing (checked before
//	        reachability), ErrStaleIndex, or the context error.
func (e *Engine) Path(ctx context.Context, from, to string) (*PathResult, error) {
	if err := e.checkFresh(); err != nil {
		return nil, err
	}
	if !e.graph.HasNode(from) {
		return nil, fmt.Errorf("%w: %s", ErrConceptNotFound, from)
	}
	if !e.graph.HasNode(to) {
		return nil, fmt.Errorf("%w: %s", ErrConceptNotFound, to)
	}

	ctx, cancel := e.withDeadline(ctx)
	defer cancel()
	ctx, span := startPathSpan(ctx, from, to)
	defer span.End()
	start := time.Now()

	result := &PathResult{From: from, To: to, Length: -1, Path: []PathStep{}}

	parent := map[string]string{from: ""}
	queue := []string{from}
	found := from == to

	for head := 0; head < len(queue) && !found; head++ {
		if head%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("path search cancelled: %w", err)
			}
		}

		current := queue[head]
		for _, next := range e.graph.Neighbors(current) {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = current
			if next == to {
				found = true
				break
			}
			queue = append(queue, next)
		}
	}

	if found {
		var ids []string
		for id := to; ; id = parent[id] {
			ids = append(ids, id)
			if id == from {
				break
			}
		}
		for i := len(ids) - 1; i >= 0; i-- {
			node, _ := e.graph.GetNode(ids[i])
			result.Path = append(result.Path, PathStep{ID: node.ID, PrefLabel: node.Record.PrefLabel})
		}
		result.Length = len(result.Path) - 1
	}

	setPathSpanResult(span, result.Length)
	recordQueryMetrics(ctx, "path", time.Since(start), len(result.Path))
	return result, nil
}
