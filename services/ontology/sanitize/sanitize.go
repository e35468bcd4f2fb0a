// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sanitize validates and normalizes client input before it reaches
// the ontology service.
//
// Rejections come in two flavors. Malformed input (blank query, bad id
// charset, negative depth) is an invalid argument. Input that matches a
// prompt-injection or path-traversal pattern is additionally a security
// violation; callers audit those (see IsSecurityViolation).
package sanitize

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"
)

// TruncationMarker is appended to content cut at the length limit.
const TruncationMarker = "\n[... content truncated ...]"

var (
	// ErrRejected is the parent of every sanitizer error.
	ErrRejected = errors.New("input rejected")

	// ErrEmptyQuery is returned for a query that is blank after cleanup.
	ErrEmptyQuery = fmt.Errorf("%w: query is empty", ErrRejected)

	// ErrQueryTooLong is returned for a query over the length limit.
	ErrQueryTooLong = fmt.Errorf("%w: query too long", ErrRejected)

	// ErrInvalidConceptID is returned for ids outside [a-zA-Z0-9_-].
	ErrInvalidConceptID = fmt.Errorf("%w: concept id contains invalid characters", ErrRejected)

	// ErrEmptyLookupKey is returned for a concept lookup key that is blank.
	ErrEmptyLookupKey = fmt.Errorf("%w: lookup key is empty", ErrRejected)

	// ErrInvalidDepth is returned for a negative depth.
	ErrInvalidDepth = fmt.Errorf("%w: depth must be non-negative", ErrRejected)

	// ErrInvalidLimit is returned for a limit below 1.
	ErrInvalidLimit = fmt.Errorf("%w: limit must be positive", ErrRejected)

	// ErrSecurityViolation is the parent of injection and traversal errors.
	ErrSecurityViolation = fmt.Errorf("%w: potentially malicious content", ErrRejected)

	// ErrPromptInjection is returned when a query matches an injection pattern.
	ErrPromptInjection = fmt.Errorf("%w (prompt injection)", ErrSecurityViolation)

	// ErrPathTraversal is returned when an id matches a traversal pattern.
	ErrPathTraversal = fmt.Errorf("%w (path traversal)", ErrSecurityViolation)
)

var (
	injectionPatterns = compileAll(
		`(?i)ignore\s+(previous|above|all)\s+instructions`,
		`(?i)disregard\s+(previous|above|all)`,
		`(?i)forget\s+(previous|above|all)`,
		`(?i)system\s*:\s*you\s+are`,
		`(?i)<\s*script`,
		`(?i)javascript\s*:`,
		`(?i)on(load|error|click)\s*=`,
	)

	traversalPatterns = compileAll(
		`\.\.`,
		`~/`,
		`/etc/`,
		`/proc/`,
		`(?i)%2e%2e`,
	)

	conceptIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	htmlTagPattern   = regexp.MustCompile(`<[^>]+>`)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// IsSecurityViolation reports whether err is an injection or traversal
// rejection.
func IsSecurityViolation(err error) bool {
	return errors.Is(err, ErrSecurityViolation)
}

// Limits are the input caps the sanitizer enforces.
type Limits struct {
	MaxQueryLength   int
	MaxContextDepth  int
	MaxResults       int
	MaxContentLength int
}

// DefaultLimits returns the standard caps.
func DefaultLimits() Limits {
	return Limits{
		MaxQueryLength:   1000,
		MaxContextDepth:  3,
		MaxResults:       100,
		MaxContentLength: 50_000,
	}
}

// Sanitizer validates and normalizes input. It is stateless apart from its
// limits and safe for concurrent use.
type Sanitizer struct {
	limits Limits
	logger *slog.Logger
}

// New creates a Sanitizer. A nil logger uses slog.Default().
func New(limits Limits, logger *slog.Logger) *Sanitizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sanitizer{
		limits: limits,
		logger: logger.With(slog.String("component", "sanitizer")),
	}
}

// Limits returns the configured caps.
func (s *Sanitizer) Limits() Limits {
	return s.limits
}

// Query checks a search query and returns its cleaned form.
//
// Length is checked on the raw input, then injection patterns, then HTML
// tags are stripped and whitespace trimmed. A query that is blank after
// cleanup is rejected.
func (s *Sanitizer) Query(query string) (string, error) {
	if n := utf8.RuneCountInString(query); n > s.limits.MaxQueryLength {
		return "", fmt.Errorf("%w: %d characters, max %d", ErrQueryTooLong, n, s.limits.MaxQueryLength)
	}
	for _, p := range injectionPatterns {
		if p.MatchString(query) {
			s.logger.Warn("prompt injection attempt detected",
				slog.String("query_prefix", prefix(query, 50)))
			return "", ErrPromptInjection
		}
	}

	cleaned := strings.TrimSpace(htmlTagPattern.ReplaceAllString(query, ""))
	if cleaned == "" {
		return "", ErrEmptyQuery
	}
	return cleaned, nil
}

// ConceptID checks a concept id and returns it lower-cased.
func (s *Sanitizer) ConceptID(id string) (string, error) {
	for _, p := range traversalPatterns {
		if p.MatchString(id) {
			s.logger.Warn("path traversal attempt", slog.String("concept_id", prefix(id, 50)))
			return "", ErrPathTraversal
		}
	}
	if !conceptIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidConceptID, prefix(id, 50))
	}
	return strings.ToLower(id), nil
}

// LookupKey checks a get_concept key: an id, prefLabel, alt label or
// notation. Unlike ConceptID it allows spaces and dots and keeps the
// caller's case. The result is trimmed.
func (s *Sanitizer) LookupKey(key string) (string, error) {
	for _, p := range traversalPatterns {
		if p.MatchString(key) {
			s.logger.Warn("path traversal attempt", slog.String("concept_id", prefix(key, 50)))
			return "", ErrPathTraversal
		}
	}
	if n := utf8.RuneCountInString(key); n > s.limits.MaxQueryLength {
		return "", fmt.Errorf("%w: %d characters, max %d", ErrQueryTooLong, n, s.limits.MaxQueryLength)
	}
	for _, p := range injectionPatterns {
		if p.MatchString(key) {
			s.logger.Warn("prompt injection attempt detected",
				slog.String("query_prefix", prefix(key, 50)))
			return "", ErrPromptInjection
		}
	}
	cleaned := strings.TrimSpace(key)
	if cleaned == "" {
		return "", ErrEmptyLookupKey
	}
	return cleaned, nil
}

// Depth rejects negative depths and clamps large ones to MaxContextDepth.
func (s *Sanitizer) Depth(depth int) (int, error) {
	if depth < 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidDepth, depth)
	}
	if depth > s.limits.MaxContextDepth {
		s.logger.Debug("depth capped",
			slog.Int("requested", depth),
			slog.Int("max", s.limits.MaxContextDepth))
		return s.limits.MaxContextDepth, nil
	}
	return depth, nil
}

// Limit rejects limits below 1 and clamps large ones to MaxResults.
func (s *Sanitizer) Limit(limit int) (int, error) {
	if limit < 1 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}
	if limit > s.limits.MaxResults {
		s.logger.Debug("limit capped",
			slog.Int("requested", limit),
			slog.Int("max", s.limits.MaxResults))
		return s.limits.MaxResults, nil
	}
	return limit, nil
}

// Truncate cuts content to MaxContentLength characters and appends
// TruncationMarker. Shorter content is returned unchanged.
func (s *Sanitizer) Truncate(content string) string {
	limit := s.limits.MaxContentLength
	if utf8.RuneCountInString(content) <= limit {
		return content
	}
	return prefix(content, limit) + TruncationMarker
}

// prefix returns the first n characters of s.
func prefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
