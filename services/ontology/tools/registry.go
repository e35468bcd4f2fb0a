// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tools exposes the ontology operations as named tools with JSON
// arguments, for tool-calling clients.
//
// A Dispatcher decodes and validates arguments, applies the rate limit and
// input sanitizer, calls the ontology service, writes an audit event and
// returns a structured Result. Domain outcomes such as a missing concept are
// results with ok=false, never Go errors.
package tools

import (
	"strconv"

	"github.com/AleutianAI/AleutianOntology/services/ontology/config"
)

// Tool names.
const (
	ToolGetConcept     = "get_concept"
	ToolSearchConcepts = "search_concepts"
	ToolExpandContext  = "expand_context"
	ToolGetConceptPath = "get_concept_path"
	ToolGetStatistics  = "get_statistics"
)

// ToolParam represents a parameter in a tool definition.
type ToolParam struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Default     string   `json:"default,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// ToolDefinition represents a tool available to clients.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []ToolParam `json:"parameters"`
	Returns     string      `json:"returns"`
}

// Registry provides tool definitions for discovery.
//
// Thread Safety:
//
//	Registry is immutable after initialization and safe for concurrent use.
type Registry struct {
	tools  []ToolDefinition
	byName map[string]int
}

// NewRegistry creates a registry with all five tools. Defaults shown in the
// definitions come from cfg.
func NewRegistry(cfg config.Config) *Registry {
	tools := allToolDefinitions(cfg)
	byName := make(map[string]int, len(tools))
	for i, t := range tools {
		byName[t.Name] = i
	}
	return &Registry{tools: tools, byName: byName}
}

// GetTools returns all tool definitions.
func (r *Registry) GetTools() []ToolDefinition {
	return r.tools
}

// Lookup returns the definition of one tool.
func (r *Registry) Lookup(name string) (ToolDefinition, bool) {
	i, ok := r.byName[name]
	if !ok {
		return ToolDefinition{}, false
	}
	return r.tools[i], true
}

func allToolDefinitions(cfg config.Config) []ToolDefinition {
	relationEnum := []string{"broader", "narrower", "related", "prerequisite"}
	return []ToolDefinition{
		{
			Name:        ToolGetConcept,
			Description: "Retrieve a SKOS concept by ID or preferred label.",
			Parameters: []ToolParam{
				{Name: "concept_id", Type: "string", Description: "Concept identifier or preferred label", Required: true},
				{Name: "include_relations", Type: "boolean", Description: "Include broader, narrower, related and prerequisite lists", Default: "true"},
			},
			Returns: "The concept record, or NOT_FOUND with the number of available concepts",
		},
		{
			Name:        ToolSearchConcepts,
			Description: "Search for concepts by label, alternative label or definition.",
			Parameters: []ToolParam{
				{Name: "query", Type: "string", Description: "Search text", Required: true},
				{Name: "limit", Type: "integer", Description: "Maximum results (max " + strconv.Itoa(cfg.Security.MaxResultsPerQuery) + ")", Default: strconv.Itoa(cfg.Query.DefaultLimit)},
			},
			Returns: "Ranked concepts with scores",
		},
		{
			Name:        ToolExpandContext,
			Description: "Expand context around a concept by breadth-first traversal. The primary tool for gathering related concepts and their notes.",
			Parameters: []ToolParam{
				{Name: "concept_id", Type: "string", Description: "Starting concept identifier", Required: true},
				{Name: "relation_types", Type: "array", Description: "Relation types to follow, in order (default: broader, narrower, related)", Enum: relationEnum},
				{Name: "max_depth", Type: "integer", Description: "Traversal depth (max " + strconv.Itoa(cfg.Security.MaxContextDepth) + ")", Default: strconv.Itoa(cfg.Query.DefaultDepth)},
				{Name: "include_content", Type: "boolean", Description: "Include note content", Default: "true"},
			},
			Returns: "Focus concept, direct and transitive relations by type, and context notes",
		},
		{
			Name:        ToolGetConceptPath,
			Description: "Find the shortest path between two concepts, ignoring relation type and direction.",
			Parameters: []ToolParam{
				{Name: "from_concept", Type: "string", Description: "Source concept identifier", Required: true},
				{Name: "to_concept", Type: "string", Description: "Target concept identifier", Required: true},
			},
			Returns: "Ordered concepts on the path and its length, or NO_PATH",
		},
		{
			Name:        ToolGetStatistics,
			Description: "Get knowledge graph statistics and server information.",
			Parameters:  []ToolParam{},
			Returns:     "Concept and relation counts, records path and server version",
		},
	}
}
