// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrBadArguments is returned when tool arguments cannot be decoded or fail
// validation.
var ErrBadArguments = errors.New("bad tool arguments")

// Optional fields are pointers so an omitted value can take the configured
// default while an explicit zero is still validated.

// GetConceptArgs are the arguments of get_concept.
type GetConceptArgs struct {
	ConceptID        string `json:"concept_id" validate:"required"`
	IncludeRelations *bool  `json:"include_relations"`
}

// SearchConceptsArgs are the arguments of search_concepts.
type SearchConceptsArgs struct {
	Query string `json:"query" validate:"required"`
	Limit *int   `json:"limit"`
}

// ExpandContextArgs are the arguments of expand_context.
type ExpandContextArgs struct {
	ConceptID      string   `json:"concept_id" validate:"required"`
	RelationTypes  []string `json:"relation_types" validate:"omitempty,max=8,dive,required"`
	MaxDepth       *int     `json:"max_depth"`
	IncludeContent *bool    `json:"include_content"`
}

// GetConceptPathArgs are the arguments of get_concept_path.
type GetConceptPathArgs struct {
	FromConcept string `json:"from_concept" validate:"required"`
	ToConcept   string `json:"to_concept" validate:"required"`
}

// GetStatisticsArgs are the arguments of get_statistics. There are none.
type GetStatisticsArgs struct{}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeArgs strictly decodes raw into dst and validates it. Empty input is
// treated as an empty object.
func decodeArgs(raw json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadArguments, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after arguments object", ErrBadArguments)
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrBadArguments, strings.Join(msgs, ", "))
		}
		return fmt.Errorf("%w: %v", ErrBadArguments, err)
	}
	return nil
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
