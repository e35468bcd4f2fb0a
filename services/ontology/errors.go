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
	"errors"
	"fmt"

	"github.com/AleutianAI/AleutianOntology/services/ontology/query"
)

// Sentinel errors for the ontology service.
//
// ErrConceptNotFound and ErrInvalidArgument are the query engine's own
// sentinels, so errors.Is matches across both layers.
var (
	// ErrConceptNotFound indicates an id or label does not resolve to a concept.
	ErrConceptNotFound = query.ErrConceptNotFound

	// ErrInvalidArgument indicates a malformed relation type, negative depth,
	// blank query or non-positive limit.
	ErrInvalidArgument = query.ErrInvalidArgument

	// ErrNoRecordsPath indicates a reload was requested without a records path.
	ErrNoRecordsPath = errors.New("no records path configured")

	// ErrBuildIncomplete indicates a load stopped early on cancellation or a
	// graph capacity limit. The previous graph stays in service.
	ErrBuildIncomplete = errors.New("graph build incomplete")
)

// ConceptNotFoundError is returned by GetConcept when nothing matches.
//
// It carries the number of concepts that are loaded so callers can tell an
// empty ontology from a typo.
type ConceptNotFoundError struct {
	Key            string
	AvailableCount int
}

// Error implements the error interface.
func (e *ConceptNotFoundError) Error() string {
	return fmt.Sprintf("concept %q not found (%d concepts available)", e.Key, e.AvailableCount)
}

// Unwrap returns ErrConceptNotFound for errors.Is support.
func (e *ConceptNotFoundError) Unwrap() error {
	return ErrConceptNotFound
}
