// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package concept

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RelationType is the kind of a directed relationship between two concepts.
//
// broader and narrower are mutual inverses, related is symmetric and
// prerequisite is one-directional.
type RelationType int

const (
	// RelationUnknown is the zero value and is never stored on an edge.
	RelationUnknown RelationType = iota

	// RelationBroader points from a concept to a more general concept.
	RelationBroader

	// RelationNarrower points from a concept to a more specific concept.
	RelationNarrower

	// RelationRelated links two concepts with no hierarchy between them.
	RelationRelated

	// RelationPrerequisite points from a concept to one that must be
	// understood first.
	RelationPrerequisite

	// NumRelationTypes is the number of relation types, including unknown.
	// Used to size arrays indexed by RelationType.
	NumRelationTypes
)

var relationTypeNames = map[RelationType]string{
	RelationUnknown:      "unknown",
	RelationBroader:      "broader",
	RelationNarrower:     "narrower",
	RelationRelated:      "related",
	RelationPrerequisite: "prerequisite",
}

// AllRelationTypes lists the storable relation types in canonical order.
var AllRelationTypes = []RelationType{
	RelationBroader,
	RelationNarrower,
	RelationRelated,
	RelationPrerequisite,
}

// DefaultExpandRelationTypes are the relation types followed by context
// expansion when the caller does not name any.
var DefaultExpandRelationTypes = []RelationType{
	RelationBroader,
	RelationNarrower,
	RelationRelated,
}

// String returns the lower-case name of the relation type.
func (t RelationType) String() string {
	if name, ok := relationTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether t can be stored on an edge.
func (t RelationType) Valid() bool {
	return t > RelationUnknown && t < NumRelationTypes
}

// Inverse returns the relation type the builder adds in the opposite
// direction, and false when no inverse edge is created.
func (t RelationType) Inverse() (RelationType, bool) {
	switch t {
	case RelationBroader:
		return RelationNarrower, true
	case RelationNarrower:
		return RelationBroader, true
	case RelationRelated:
		return RelationRelated, true
	default:
		return RelationUnknown, false
	}
}

// ParseRelationType converts a relation name into a RelationType.
//
// Matching is case-insensitive and ignores surrounding whitespace.
//
// Errors:
//
//	ErrUnknownRelationType if the name is not one of the four relation types.
func ParseRelationType(name string) (RelationType, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, t := range AllRelationTypes {
		if relationTypeNames[t] == normalized {
			return t, nil
		}
	}
	return RelationUnknown, fmt.Errorf("%w: %q", ErrUnknownRelationType, name)
}

// ParseRelationTypes converts a list of names, preserving order and
// dropping repeats.
func ParseRelationTypes(names []string) ([]RelationType, error) {
	types := make([]RelationType, 0, len(names))
	seen := make(map[RelationType]bool, len(names))
	for _, name := range names {
		t, err := ParseRelationType(name)
		if err != nil {
			return nil, err
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		types = append(types, t)
	}
	return types, nil
}

// MarshalJSON encodes the relation type as its name.
func (t RelationType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a relation name.
func (t *RelationType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseRelationType(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
