// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package concept defines the concept record consumed by the ontology graph.
//
// A Record is produced outside this module by the extraction pipeline, one per
// source document, with every reference already resolved to a concept id slug.
// Nothing in this module parses document text.
//
// # Ownership Model
//
// Records are treated as immutable values once handed to the graph builder.
// The graph stores the pointer and does NOT copy it, so callers MUST NOT
// mutate a Record after passing it in. To change a concept, build a new
// Record and upsert it.
package concept

import (
	"errors"
	"fmt"
	"strings"
)

// URIPrefix is prepended to the concept id when a record has no URI.
const URIPrefix = "vault://concepts#"

// Sentinel errors for concept records.
var (
	// ErrInvalidRecord is returned for nil records or records without an id.
	ErrInvalidRecord = errors.New("invalid concept record")

	// ErrUnknownRelationType is returned when a relation name does not parse.
	ErrUnknownRelationType = errors.New("unknown relation type")
)

// SchemaMeta is the schema.org style metadata block of a concept.
//
// The graph carries it through untouched.
type SchemaMeta struct {
	Type                 string   `json:"type,omitempty" yaml:"type,omitempty"`
	About                string   `json:"about,omitempty" yaml:"about,omitempty"`
	Teaches              []string `json:"teaches,omitempty" yaml:"teaches,omitempty"`
	EducationalLevel     string   `json:"educationalLevel,omitempty" yaml:"educationalLevel,omitempty"`
	LearningResourceType string   `json:"learningResourceType,omitempty" yaml:"learningResourceType,omitempty"`
}

// AcademicMeta is the course-level metadata block of a concept.
//
// Prerequisite here is free text from the source document and is distinct
// from the resolved Record.Prerequisite relation list.
type AcademicMeta struct {
	Course       string   `json:"course,omitempty" yaml:"course,omitempty"`
	LectureWeek  int      `json:"lectureWeek,omitempty" yaml:"lectureWeek,omitempty"`
	Prerequisite []string `json:"prerequisite,omitempty" yaml:"prerequisite,omitempty"`
}

// Record is a single concept as produced by the extraction pipeline.
//
// The four relation lists hold concept ids. They are weak references: the
// builder resolves them against the nodes that exist at build time and drops
// the rest.
type Record struct {
	// ID is the stable slug that uniquely identifies the concept.
	ID string `json:"id" yaml:"id"`

	// URI defaults to URIPrefix + ID when empty.
	URI string `json:"uri,omitempty" yaml:"uri,omitempty"`

	// PrefLabel is the preferred human-readable label.
	PrefLabel string `json:"prefLabel" yaml:"prefLabel"`

	// AltLabels are alternative labels in source order. Duplicates are kept.
	AltLabels []string `json:"altLabels,omitempty" yaml:"altLabels,omitempty"`

	Definition string `json:"definition,omitempty" yaml:"definition,omitempty"`
	Notation   string `json:"notation,omitempty" yaml:"notation,omitempty"`
	InScheme   string `json:"inScheme,omitempty" yaml:"inScheme,omitempty"`

	Broader      []string `json:"broader,omitempty" yaml:"broader,omitempty"`
	Narrower     []string `json:"narrower,omitempty" yaml:"narrower,omitempty"`
	Related      []string `json:"related,omitempty" yaml:"related,omitempty"`
	Prerequisite []string `json:"prerequisite,omitempty" yaml:"prerequisite,omitempty"`

	Schema   *SchemaMeta   `json:"schema,omitempty" yaml:"schema,omitempty"`
	Academic *AcademicMeta `json:"academic,omitempty" yaml:"academic,omitempty"`

	// FilePath is the source document path, relative to the collection root.
	FilePath string `json:"filePath,omitempty" yaml:"filePath,omitempty"`

	// Content is the raw document body.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

// Validate checks the fields the graph relies on.
func (r *Record) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: empty id (label %q)", ErrInvalidRecord, r.PrefLabel)
	}
	return nil
}

// ResolvedURI returns the record URI, falling back to URIPrefix + ID.
func (r *Record) ResolvedURI() string {
	if r.URI != "" {
		return r.URI
	}
	return URIPrefix + r.ID
}

// Relations returns the declared targets for one relation type.
//
// The returned slice is the record's own storage and must not be modified.
func (r *Record) Relations(t RelationType) []string {
	switch t {
	case RelationBroader:
		return r.Broader
	case RelationNarrower:
		return r.Narrower
	case RelationRelated:
		return r.Related
	case RelationPrerequisite:
		return r.Prerequisite
	default:
		return nil
	}
}

// WithoutRelations returns a shallow copy with all four relation lists cleared.
func (r *Record) WithoutRelations() *Record {
	clone := *r
	clone.Broader = nil
	clone.Narrower = nil
	clone.Related = nil
	clone.Prerequisite = nil
	return &clone
}

var slugReplacer = strings.NewReplacer(" ", "_", "-", "_")

// Slugify converts a label into the concept id scheme: lower case, with each
// space and hyphen replaced by an underscore.
//
// Example:
//
//	Slugify("Logistic Regression") // "logistic_regression"
//	Slugify("k-Means")             // "k_means"
func Slugify(label string) string {
	return slugReplacer.Replace(strings.ToLower(strings.TrimSpace(label)))
}
