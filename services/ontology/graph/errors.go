// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the concept relationship graph and its builder.
//
// Nodes are concepts keyed by concept id, edges are (source, target,
// relation type) triples. The graph is an explicit node arena: a map from id
// to Node, an insertion-ordered id list, and per-node Outgoing/Incoming edge
// lists.
//
// # Ownership Model
//
// The graph stores pointers to concept records but does NOT own them:
//   - Records MUST NOT be mutated after being handed to the builder
//   - Upsert replaces the pointer; it never edits the old record in place
//
// # Thread Safety
//
// Graph is NOT safe for concurrent use. Callers that share a graph between
// goroutines hold an external reader/writer lock around it (see the ontology
// service), so every traversal sees either the state before a mutation or
// the state after it.
//
// # Lifecycle
//
//  1. Build a graph from records with Builder.Build
//  2. Apply Builder.Upsert / Builder.Remove for targeted changes
//  3. Rebuild derived indexes, which compare Graph.Version to detect staleness
package graph

import "errors"

// Sentinel errors for graph operations.
var (
	// ErrNodeNotFound is returned when an edge references a non-existent node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidNode is returned when a record is nil or has no id.
	ErrInvalidNode = errors.New("invalid node")

	// ErrInvalidRelation is returned when an edge uses a relation type that
	// cannot be stored.
	ErrInvalidRelation = errors.New("invalid relation type")

	// ErrMaxNodesExceeded is returned when the graph has reached its
	// configured maximum node capacity.
	ErrMaxNodesExceeded = errors.New("maximum node count exceeded")

	// ErrMaxEdgesExceeded is returned when the graph has reached its
	// configured maximum edge capacity.
	ErrMaxEdgesExceeded = errors.New("maximum edge count exceeded")

	// ErrBuildCancelled is returned when a build is cancelled via context.
	ErrBuildCancelled = errors.New("build cancelled")
)
