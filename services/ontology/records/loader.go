// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package records loads concept records from JSON and YAML files.
//
// A path may be a single file or a directory. Directories are walked
// recursively; hidden entries are skipped. Each file holds either one
// record or a list of records. Results are returned in sorted path order,
// then file order, so the same input always yields the same record
// sequence.
package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianOntology/services/ontology/concept"
)

var (
	// ErrUnsupportedFormat is returned for a file that is not .json, .yaml or .yml.
	ErrUnsupportedFormat = errors.New("unsupported record file format")

	// ErrEmptyPath is returned when no records path is configured.
	ErrEmptyPath = errors.New("records path is empty")
)

// Format is a record file encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON
	FormatYAML
)

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// Options configures a Loader.
type Options struct {
	// Concurrency caps parallel file parsing. Default: GOMAXPROCS.
	Concurrency int

	// Logger receives per-file debug logs. Default: slog.Default().
	Logger *slog.Logger
}

// Option is a functional option for configuring Loader.
type Option func(*Options)

// WithConcurrency sets the parse concurrency. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// Loader reads concept records from disk.
type Loader struct {
	options Options
	logger  *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	options := Options{
		Concurrency: runtime.GOMAXPROCS(0),
		Logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Loader{
		options: options,
		logger:  options.Logger.With(slog.String("component", "records_loader")),
	}
}

// Load reads every record under path.
//
// Outputs:
//
//	[]*concept.Record - Records in deterministic order. Records are not
//	                    validated here; the graph builder reports invalid ones.
//	error - ErrEmptyPath, a filesystem error, or the first parse failure
//	        (wrapped with the offending file path).
func (l *Loader) Load(ctx context.Context, path string) ([]*concept.Record, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat records path: %w", err)
	}
	if !info.IsDir() {
		return l.loadFile(path)
	}

	files, err := collectFiles(path)
	if err != nil {
		return nil, err
	}

	results := make([][]*concept.Record, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.options.Concurrency)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			recs, err := l.loadFile(file)
			if err != nil {
				return err
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, r := range results {
		total += len(r)
	}
	out := make([]*concept.Record, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}

	l.logger.Info("records loaded",
		slog.String("path", path),
		slog.Int("files", len(files)),
		slog.Int("records", len(out)))
	return out, nil
}

func collectFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && FormatOf(p) != FormatUnknown {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk records directory: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func (l *Loader) loadFile(path string) ([]*concept.Record, error) {
	format := FormatOf(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	recs, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	l.logger.Debug("record file parsed", slog.String("file", path), slog.Int("records", len(recs)))
	return recs, nil
}

// Decode parses one record or a list of records.
//
// Ids and relation references are normalized with concept.Slugify, so
// "ML_Basics" and "ml basics" both become "ml_basics". A record without an
// id gets concept.Slugify(prefLabel) as its id.
func Decode(data []byte, format Format) ([]*concept.Record, error) {
	var (
		recs []*concept.Record
		err  error
	)
	switch format {
	case FormatJSON:
		recs, err = decodeJSON(data)
	case FormatYAML:
		recs, err = decodeYAML(data)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	for _, r := range recs {
		if r != nil {
			Normalize(r)
		}
	}
	return recs, nil
}

// Normalize rewrites r.ID and the four relation lists with concept.Slugify.
// An empty id is derived from the prefLabel.
func Normalize(r *concept.Record) {
	switch {
	case strings.TrimSpace(r.ID) != "":
		r.ID = concept.Slugify(r.ID)
	case r.PrefLabel != "":
		r.ID = concept.Slugify(r.PrefLabel)
	}
	for _, refs := range [][]string{r.Broader, r.Narrower, r.Related, r.Prerequisite} {
		for i, ref := range refs {
			refs[i] = concept.Slugify(ref)
		}
	}
}

func decodeJSON(data []byte) ([]*concept.Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var recs []*concept.Record
		if err := json.Unmarshal(trimmed, &recs); err != nil {
			return nil, err
		}
		return recs, nil
	}
	var rec concept.Record
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return nil, err
	}
	return []*concept.Record{&rec}, nil
}

func decodeYAML(data []byte) ([]*concept.Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var recs []*concept.Record
		if err := root.Decode(&recs); err != nil {
			return nil, err
		}
		return recs, nil
	case yaml.MappingNode:
		var rec concept.Record
		if err := root.Decode(&rec); err != nil {
			return nil, err
		}
		return []*concept.Record{&rec}, nil
	default:
		return nil, fmt.Errorf("expected a record or a list of records, got YAML node kind %d", root.Kind)
	}
}
