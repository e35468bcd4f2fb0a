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
	"github.com/AleutianAI/AleutianOntology/services/ontology/concept"
)

// Summary is the short form of a concept used in relation lists.
type Summary struct {
	ID         string `json:"id"`
	PrefLabel  string `json:"prefLabel"`
	Definition string `json:"definition,omitempty"`
}

// FocusConcept describes the concept a context expansion started from.
type FocusConcept struct {
	ID         string `json:"id"`
	URI        string `json:"uri"`
	PrefLabel  string `json:"prefLabel"`
	Definition string `json:"definition,omitempty"`
	FilePath   string `json:"filePath,omitempty"`

	// Content is set only when content was requested.
	Content *string `json:"content,omitempty"`
}

// ContextNote is a discovered concept together with its document body.
type ContextNote struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Content  string `json:"content"`
	FilePath string `json:"filePath"`
}

// ContextResult is the outcome of a context expansion.
type ContextResult struct {
	Focus FocusConcept `json:"focus"`

	// DirectRelations holds concepts found one hop from the focus, keyed by
	// the relation type that found them. Every requested type has a key.
	DirectRelations map[string][]Summary `json:"directRelations"`

	// TransitiveRelations holds concepts found two or more hops away, keyed
	// by the relation type of the hop that found them.
	TransitiveRelations map[string][]Summary `json:"transitiveRelations"`

	// ContextNotes lists every discovered concept with its content, in
	// discovery order. Nil when content was not requested.
	ContextNotes []ContextNote `json:"contextNotes,omitempty"`

	// Visited is the number of concepts discovered, excluding the focus.
	Visited int `json:"visited"`

	// Truncated is true if the traversal stopped early on the visit cap or
	// context cancellation.
	Truncated bool `json:"truncated,omitempty"`
}

// SearchHit is one ranked concept in a search response.
type SearchHit struct {
	ID         string `json:"id"`
	URI        string `json:"uri"`
	PrefLabel  string `json:"prefLabel"`
	Definition string `json:"definition,omitempty"`
	FilePath   string `json:"filePath,omitempty"`
	Score      int    `json:"score"`
}

// SearchResult is the outcome of a text search.
type SearchResult struct {
	Query     string      `json:"query"`
	Count     int         `json:"count"`
	Results   []SearchHit `json:"results"`
	Truncated bool        `json:"truncated,omitempty"`
}

// PathStep is one concept on a path.
type PathStep struct {
	ID        string `json:"id"`
	PrefLabel string `json:"prefLabel"`
}

// PathResult is the outcome of a shortest path query.
//
// When both endpoints exist but are disconnected, Path is empty, Length is
// -1 and Found reports false.
type PathResult struct {
	From   string     `json:"from"`
	To     string     `json:"to"`
	Length int        `json:"length"`
	Path   []PathStep `json:"path"`
}

// Found reports whether a path exists.
func (r *PathResult) Found() bool {
	return r.Length >= 0
}

// Statistics is the query-level statistics contract: counts only.
//
// The builder-level statistics (density, weak connectivity, per-type counts)
// live in graph.GraphStats.
type Statistics struct {
	TotalConcepts  int `json:"totalConcepts"`
	TotalRelations int `json:"totalRelations"`
}

func summarize(rec *concept.Record) Summary {
	return Summary{ID: rec.ID, PrefLabel: rec.PrefLabel, Definition: rec.Definition}
}
