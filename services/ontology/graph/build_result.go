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
	"fmt"

	"github.com/AleutianAI/AleutianOntology/services/ontology/concept"
)

// BuildResult contains the result of a graph build operation.
type BuildResult struct {
	// Graph is the constructed graph. Never nil, even on partial failure.
	Graph *Graph

	// RecordErrors contains records that were rejected in the node phase.
	RecordErrors []RecordError

	// EdgeErrors contains edges that could not be stored, typically because
	// the edge capacity was reached.
	EdgeErrors []EdgeError

	// Stats contains build statistics.
	Stats BuildStats

	// Incomplete is true if the build stopped early because of cancellation
	// or a capacity limit.
	Incomplete bool
}

// HasErrors returns true if any records or edges failed.
func (r *BuildResult) HasErrors() bool {
	return len(r.RecordErrors) > 0 || len(r.EdgeErrors) > 0
}

// TotalErrors returns the total count of record and edge errors.
func (r *BuildResult) TotalErrors() int {
	return len(r.RecordErrors) + len(r.EdgeErrors)
}

// RecordError represents a record rejected during the node phase.
type RecordError struct {
	// Position is the index of the record in the build input.
	Position int

	// ConceptID is the record id, empty if the record had none.
	ConceptID string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e RecordError) Error() string {
	if e.ConceptID == "" {
		return fmt.Sprintf("record[%d]: %v", e.Position, e.Err)
	}
	return fmt.Sprintf("record[%d] %s: %v", e.Position, e.ConceptID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e RecordError) Unwrap() error {
	return e.Err
}

// EdgeError represents a failure to create a single edge.
type EdgeError struct {
	// FromID is the source concept ID.
	FromID string

	// ToID is the target concept ID.
	ToID string

	// Type is the relation type of the edge.
	Type concept.RelationType

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e EdgeError) Error() string {
	return fmt.Sprintf("edge %s -[%s]-> %s: %v", e.FromID, e.Type, e.ToID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e EdgeError) Unwrap() error {
	return e.Err
}

// BuildStats contains statistics about a build operation.
type BuildStats struct {
	// RecordsProcessed is the number of input records examined.
	RecordsProcessed int

	// NodesCreated is the number of distinct concepts in the graph.
	NodesCreated int

	// NodesOverwritten counts records that reused an id seen earlier in the
	// same build.
	NodesOverwritten int

	// EdgesCreated is the number of edges stored.
	EdgesCreated int

	// DurationMicro is the build duration in microseconds.
	DurationMicro int64
}
