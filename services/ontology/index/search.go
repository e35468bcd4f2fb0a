// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package index

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianOntology/services/ontology/concept"
)

// Text search scores.
const (
	scoreLabelSubstring = 10
	scoreLabelExact     = 20
	scoreAltLabel       = 5
	scoreDefinition     = 3

	// contextCheckInterval is how often to check context during the scan.
	contextCheckInterval = 100
)

// Hit is one scored search match.
type Hit struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
}

// SearchResult contains ranked matches.
type SearchResult struct {
	// Hits are ordered by descending score. Equal scores keep graph node order.
	Hits []Hit

	// Scanned is the number of nodes examined.
	Scanned int

	// Truncated is true if the scan stopped early on context cancellation.
	Truncated bool
}

// IDs returns the hit ids in rank order.
func (r *SearchResult) IDs() []string {
	ids := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.ID
	}
	return ids
}

// ScoreRecord computes the text score of one record for a lower-cased query.
//
//	+10 if the query is a substring of the prefLabel
//	+20 more if the prefLabel equals the query
//	+5  for each alt label containing the query
//	+3  if the definition contains the query
//
// All comparisons ignore case.
func ScoreRecord(rec *concept.Record, lowerQuery string) int {
	score := 0

	label := strings.ToLower(rec.PrefLabel)
	if strings.Contains(label, lowerQuery) {
		score += scoreLabelSubstring
		if label == lowerQuery {
			score += scoreLabelExact
		}
	}

	for _, alt := range rec.AltLabels {
		if strings.Contains(strings.ToLower(alt), lowerQuery) {
			score += scoreAltLabel
		}
	}

	if rec.Definition != "" && strings.Contains(strings.ToLower(rec.Definition), lowerQuery) {
		score += scoreDefinition
	}

	return score
}

// SearchByText scores every concept against query and returns the best.
//
// Description:
//
//	A full linear scan over graph nodes in node order. Concepts scoring 0
//	are excluded. Results are stable-sorted by descending score, so ties
//	keep node order, then cut to limit.
//
// Inputs:
//
//	ctx - Checked every 100 nodes. On cancellation the nodes scanned so far
//	      are ranked and the result is marked Truncated.
//	query - Search text. Surrounding whitespace is ignored.
//	limit - Maximum number of hits. Must be positive.
//
// Outputs:
//
//	*SearchResult - Ranked hits.
//	error - ErrEmptyQuery or ErrInvalidLimit.
func (x *Index) SearchByText(ctx context.Context, query string, limit int) (*SearchResult, error) {
	lowerQuery := strings.ToLower(strings.TrimSpace(query))
	if lowerQuery == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	ctx, span := startSearchSpan(ctx, limit)
	defer span.End()
	start := time.Now()

	result := &SearchResult{Hits: make([]Hit, 0)}
	for id, node := range x.graph.Nodes() {
		if result.Scanned%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				result.Truncated = true
				break
			}
		}
		result.Scanned++

		if score := ScoreRecord(node.Record, lowerQuery); score > 0 {
			result.Hits = append(result.Hits, Hit{ID: id, Score: score})
		}
	}

	sort.SliceStable(result.Hits, func(i, j int) bool {
		return result.Hits[i].Score > result.Hits[j].Score
	})
	matched := len(result.Hits)
	if len(result.Hits) > limit {
		result.Hits = result.Hits[:limit]
	}

	setSearchSpanResult(span, result.Scanned, matched, result.Truncated)
	recordSearchMetrics(ctx, time.Since(start), len(result.Hits))
	return result, nil
}
