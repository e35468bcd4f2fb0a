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
	"time"

	"github.com/AleutianAI/AleutianOntology/services/ontology/concept"
	"github.com/AleutianAI/AleutianOntology/services/ontology/graph"
	"github.com/AleutianAI/AleutianOntology/services/ontology/index"
)

// =============================================================================
// Operation Types
// =============================================================================

// ConceptResult is the response of GetConcept.
type ConceptResult struct {
	// Concept is a copy of the stored record with content truncated to the
	// configured maximum.
	Concept *concept.Record `json:"concept"`

	// MatchedBy names the lookup that found it: "id", "label", "alt_label"
	// or "notation".
	MatchedBy string `json:"matchedBy"`
}

// ExpandRequest holds the arguments of ExpandContext.
type ExpandRequest struct {
	ConceptID string

	// RelationTypes are relation names to follow, in order. Empty means
	// broader, narrower and related.
	RelationTypes []string

	// MaxDepth is the traversal depth. Negative is invalid; values above the
	// configured maximum are clamped.
	MaxDepth int

	IncludeContent bool
}

// Statistics is the response of GetStatistics.
type Statistics struct {
	TotalConcepts  int `json:"totalConcepts"`
	TotalRelations int `json:"totalRelations"`

	ServerName    string    `json:"serverName"`
	ServerVersion string    `json:"serverVersion"`
	RecordsPath   string    `json:"recordsPath,omitempty"`
	GraphVersion  uint64    `json:"graphVersion"`
	IndexStale    bool      `json:"indexStale"`
	Collisions    int       `json:"indexCollisions"`
	LoadedAt      time.Time `json:"loadedAt,omitempty"`
}

// DebugStats is the builder-level view served on the debug endpoint.
type DebugStats struct {
	Graph      graph.GraphStats  `json:"graph"`
	Index      index.Stats       `json:"index"`
	LastBuild  graph.BuildStats  `json:"last_build"`
	Collisions []index.Collision `json:"collisions"`
	IndexedAt  time.Time         `json:"indexed_at"`
}

// =============================================================================
// HTTP Types
// =============================================================================

// ErrorResponse is the error body of every ops endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is the response for GET /v1/ontology/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse is the response for GET /v1/ontology/ready.
type ReadyResponse struct {
	Ready    bool `json:"ready"`
	Concepts int  `json:"concepts"`
}

// ConceptMutationResponse is the response for the admin concept endpoints
// and POST /v1/ontology/admin/reindex.
type ConceptMutationResponse struct {
	ID           string `json:"id,omitempty"`
	Concepts     int    `json:"concepts"`
	Relations    int    `json:"relations"`
	GraphVersion uint64 `json:"graph_version"`
	IndexStale   bool   `json:"index_stale"`
}

// ReloadResponse is the response for POST /v1/ontology/admin/reload.
type ReloadResponse struct {
	Concepts     int   `json:"concepts"`
	Relations    int   `json:"relations"`
	RecordErrors int   `json:"record_errors"`
	EdgeErrors   int   `json:"edge_errors"`
	DurationUs   int64 `json:"duration_us"`
}
