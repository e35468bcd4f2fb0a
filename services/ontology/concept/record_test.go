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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRecord_Validate(t *testing.T) {
	var nilRecord *Record
	assert.ErrorIs(t, nilRecord.Validate(), ErrInvalidRecord)
	assert.ErrorIs(t, (&Record{PrefLabel: "x"}).Validate(), ErrInvalidRecord)
	assert.ErrorIs(t, (&Record{ID: "  "}).Validate(), ErrInvalidRecord)
	assert.NoError(t, (&Record{ID: "regression"}).Validate())
}

func TestRecord_ResolvedURI(t *testing.T) {
	assert.Equal(t, "vault://concepts#regression", (&Record{ID: "regression"}).ResolvedURI())
	assert.Equal(t, "urn:x", (&Record{ID: "regression", URI: "urn:x"}).ResolvedURI())
}

func TestRecord_Relations(t *testing.T) {
	r := &Record{
		ID:           "a",
		Broader:      []string{"b"},
		Narrower:     []string{"c"},
		Related:      []string{"d"},
		Prerequisite: []string{"e"},
	}
	assert.Equal(t, []string{"b"}, r.Relations(RelationBroader))
	assert.Equal(t, []string{"c"}, r.Relations(RelationNarrower))
	assert.Equal(t, []string{"d"}, r.Relations(RelationRelated))
	assert.Equal(t, []string{"e"}, r.Relations(RelationPrerequisite))
	assert.Nil(t, r.Relations(RelationUnknown))

	stripped := r.WithoutRelations()
	assert.Nil(t, stripped.Broader)
	assert.Nil(t, stripped.Prerequisite)
	assert.Equal(t, []string{"b"}, r.Broader, "original must be untouched")
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Logistic Regression": "logistic_regression",
		"k-Means":             "k_means",
		"  Trimmed ":          "trimmed",
		"a - b":               "a___b",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestParseRelationType(t *testing.T) {
	t.Run("known names", func(t *testing.T) {
		for _, rt := range AllRelationTypes {
			got, err := ParseRelationType(" " + rt.String() + " ")
			require.NoError(t, err)
			assert.Equal(t, rt, got)
		}
		got, err := ParseRelationType("BROADER")
		require.NoError(t, err)
		assert.Equal(t, RelationBroader, got)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := ParseRelationType("sibling")
		assert.ErrorIs(t, err, ErrUnknownRelationType)
		_, err = ParseRelationType("unknown")
		assert.ErrorIs(t, err, ErrUnknownRelationType)
	})

	t.Run("list keeps order and drops repeats", func(t *testing.T) {
		got, err := ParseRelationTypes([]string{"related", "broader", "related"})
		require.NoError(t, err)
		assert.Equal(t, []RelationType{RelationRelated, RelationBroader}, got)

		_, err = ParseRelationTypes([]string{"related", "bogus"})
		assert.ErrorIs(t, err, ErrUnknownRelationType)
	})
}

func TestRelationType_Inverse(t *testing.T) {
	inv, ok := RelationBroader.Inverse()
	assert.True(t, ok)
	assert.Equal(t, RelationNarrower, inv)

	inv, ok = RelationNarrower.Inverse()
	assert.True(t, ok)
	assert.Equal(t, RelationBroader, inv)

	inv, ok = RelationRelated.Inverse()
	assert.True(t, ok)
	assert.Equal(t, RelationRelated, inv)

	_, ok = RelationPrerequisite.Inverse()
	assert.False(t, ok)
}

func TestRelationType_JSON(t *testing.T) {
	data, err := json.Marshal(map[string]RelationType{"t": RelationPrerequisite})
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"prerequisite"}`, string(data))

	var rt RelationType
	require.NoError(t, json.Unmarshal([]byte(`"narrower"`), &rt))
	assert.Equal(t, RelationNarrower, rt)
	assert.Error(t, json.Unmarshal([]byte(`"nope"`), &rt))
}

func TestRecord_DecodeYAML(t *testing.T) {
	doc := `
id: logistic_regression
prefLabel: Logistic Regression
altLabels: [Logit Model]
broader: [regression]
schema:
  type: DefinedTerm
  teaches: [classification]
academic:
  course: ML101
  lectureWeek: 4
`
	var r Record
	require.NoError(t, yaml.Unmarshal([]byte(doc), &r))
	assert.Equal(t, "logistic_regression", r.ID)
	assert.Equal(t, []string{"Logit Model"}, r.AltLabels)
	assert.Equal(t, []string{"regression"}, r.Broader)
	require.NotNil(t, r.Schema)
	assert.Equal(t, "DefinedTerm", r.Schema.Type)
	require.NotNil(t, r.Academic)
	assert.Equal(t, 4, r.Academic.LectureWeek)
}
