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

import "errors"

// Sentinel errors for query operations.
//
// ErrConceptNotFound and ErrInvalidArgument are ordinary outcomes that
// callers translate into structured responses. A disconnected pair of
// concepts is not an error at all; see PathResult.Found.
var (
	// ErrConceptNotFound is returned when an id does not resolve to a concept.
	ErrConceptNotFound = errors.New("concept not found")

	// ErrInvalidArgument is returned for negative depths, unknown relation
	// types, blank queries and non-positive limits.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStaleIndex is returned when the index was built from an older graph
	// version than the one being queried.
	ErrStaleIndex = errors.New("index is stale, rebuild required")

	// ErrNilIndex is returned when an engine is created without an index.
	ErrNilIndex = errors.New("index must not be nil")
)
