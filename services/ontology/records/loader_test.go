// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package records

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianOntology/services/ontology/concept"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func ids(recs []*concept.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func TestDecode_JSON(t *testing.T) {
	recs, err := Decode([]byte(`[{"id":"a","prefLabel":"A","broader":["b"]},{"prefLabel":"Logistic Regression"}]`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "logistic_regression"}, ids(recs))
	assert.Equal(t, []string{"b"}, recs[0].Broader)

	recs, err = Decode([]byte(` {"id":"single","prefLabel":"Single"} `), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"single"}, ids(recs))

	recs, err = Decode([]byte("  "), FormatJSON)
	require.NoError(t, err)
	assert.Empty(t, recs)

	_, err = Decode([]byte(`{"id":`), FormatJSON)
	assert.Error(t, err)
}

func TestDecode_NormalizesIDs(t *testing.T) {
	data := `[
		{"id":"ML_Basics","notation":"ML101","related":["Stats"],"prerequisite":["Linear Algebra"]},
		{"id":"Stats","broader":["ML-Basics"],"narrower":["Hypothesis Testing"]}
	]`
	recs, err := Decode([]byte(data), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"ml_basics", "stats"}, ids(recs))
	assert.Equal(t, []string{"stats"}, recs[0].Related)
	assert.Equal(t, []string{"linear_algebra"}, recs[0].Prerequisite)
	assert.Equal(t, []string{"ml_basics"}, recs[1].Broader)
	assert.Equal(t, []string{"hypothesis_testing"}, recs[1].Narrower)
	assert.Equal(t, "ML101", recs[0].Notation, "notation keeps its case")
}

func TestDecode_YAML(t *testing.T) {
	list := `
- id: regression
  prefLabel: Regression
  narrower: [logistic_regression]
- id: logistic_regression
  prefLabel: Logistic Regression
  altLabels: [Logit]
`
	recs, err := Decode([]byte(list), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []string{"regression", "logistic_regression"}, ids(recs))
	assert.Equal(t, []string{"Logit"}, recs[1].AltLabels)

	recs, err = Decode([]byte("prefLabel: Decision Tree\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []string{"decision_tree"}, ids(recs))

	_, err = Decode([]byte("just a scalar"), FormatYAML)
	assert.Error(t, err)

	_, err = Decode([]byte("{}"), FormatUnknown)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoader_File(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "concepts.json", `[{"id":"a","prefLabel":"A"}]`)

	recs, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(recs))

	txt := writeFile(t, dir, "notes.txt", "x")
	_, err = NewLoader().Load(context.Background(), txt)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoader_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", "- id: b1\n  prefLabel: B1\n- id: b2\n  prefLabel: B2\n")
	writeFile(t, dir, "a.json", `{"id":"a1","prefLabel":"A1"}`)
	writeFile(t, dir, "sub/c.yml", "id: c1\nprefLabel: C1\n")
	writeFile(t, dir, "readme.md", "# ignored")
	writeFile(t, dir, ".hidden/d.json", `{"id":"hidden","prefLabel":"H"}`)

	for _, concurrency := range []int{1, 4} {
		recs, err := NewLoader(WithConcurrency(concurrency)).Load(context.Background(), dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"a1", "b1", "b2", "c1"}, ids(recs), "concurrency %d", concurrency)
	}
}

func TestLoader_Errors(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	dir := t.TempDir()
	writeFile(t, dir, "good.json", `{"id":"ok","prefLabel":"OK"}`)
	bad := writeFile(t, dir, "bad.json", `{"id":`)
	_, err = NewLoader().Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
}

func TestLoader_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{"id":"a","prefLabel":"A"}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLoader().Load(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}
