// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"errors"
	"math"
	"testing"

	"github.com/AleutianAI/AleutianOntology/services/ontology/concept"
)

func newTestGraph(t *testing.T, ids ...string) *Graph {
	t.Helper()
	g := NewGraph()
	for _, id := range ids {
		if _, _, err := g.PutNode(testRecord(id, id)); err != nil {
			t.Fatalf("PutNode(%s) failed: %v", id, err)
		}
	}
	return g
}

func TestGraph_AddEdge(t *testing.T) {
	t.Run("missing endpoints", func(t *testing.T) {
		g := newTestGraph(t, "a")
		if _, err := g.AddEdge("a", "x", concept.RelationRelated); !errors.Is(err, ErrNodeNotFound) {
			t.Errorf("expected ErrNodeNotFound for target, got %v", err)
		}
		if _, err := g.AddEdge("x", "a", concept.RelationRelated); !errors.Is(err, ErrNodeNotFound) {
			t.Errorf("expected ErrNodeNotFound for source, got %v", err)
		}
	})

	t.Run("invalid relation type", func(t *testing.T) {
		g := newTestGraph(t, "a", "b")
		if _, err := g.AddEdge("a", "b", concept.RelationUnknown); !errors.Is(err, ErrInvalidRelation) {
			t.Errorf("expected ErrInvalidRelation, got %v", err)
		}
	})

	t.Run("duplicate triple is a no-op", func(t *testing.T) {
		g := newTestGraph(t, "a", "b")
		added, err := g.AddEdge("a", "b", concept.RelationRelated)
		if err != nil || !added {
			t.Fatalf("expected first add to succeed, got added=%v err=%v", added, err)
		}
		added, err = g.AddEdge("a", "b", concept.RelationRelated)
		if err != nil || added {
			t.Errorf("expected duplicate to be ignored, got added=%v err=%v", added, err)
		}
		if g.EdgeCount() != 1 {
			t.Errorf("expected 1 edge, got %d", g.EdgeCount())
		}
	})

	t.Run("different types between same pair", func(t *testing.T) {
		g := newTestGraph(t, "a", "b")
		_, _ = g.AddEdge("a", "b", concept.RelationRelated)
		_, _ = g.AddEdge("a", "b", concept.RelationPrerequisite)
		if g.EdgeCount() != 2 {
			t.Errorf("expected 2 edges, got %d", g.EdgeCount())
		}
		if g.EdgeCountByType(concept.RelationPrerequisite) != 1 {
			t.Errorf("expected 1 prerequisite edge, got %d", g.EdgeCountByType(concept.RelationPrerequisite))
		}
	})
}

func TestGraph_Version(t *testing.T) {
	g := NewGraph()
	v0 := g.Version()
	_, _, _ = g.PutNode(testRecord("a", "A"))
	v1 := g.Version()
	if v1 <= v0 {
		t.Errorf("expected version to grow after PutNode, %d -> %d", v0, v1)
	}
	_, _, _ = g.PutNode(testRecord("b", "B"))
	_, _ = g.AddEdge("a", "b", concept.RelationRelated)
	v2 := g.Version()
	_, _ = g.AddEdge("a", "b", concept.RelationRelated)
	if g.Version() != v2 {
		t.Error("duplicate edge must not change the version")
	}
	g.RemoveNode("b")
	if g.Version() <= v2 {
		t.Error("expected version to grow after RemoveNode")
	}
}

func TestGraph_RemoveIncidentEdges(t *testing.T) {
	g := newTestGraph(t, "a", "b", "c")
	_, _ = g.AddEdge("a", "b", concept.RelationBroader)
	_, _ = g.AddEdge("b", "a", concept.RelationNarrower)
	_, _ = g.AddEdge("b", "c", concept.RelationRelated)
	_, _ = g.AddEdge("c", "b", concept.RelationRelated)
	_, _ = g.AddEdge("a", "c", concept.RelationPrerequisite)

	removed := g.RemoveIncidentEdges("b")
	if removed != 4 {
		t.Errorf("expected 4 edges removed, got %d", removed)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("expected 1 edge left, got %d", g.EdgeCount())
	}
	a, _ := g.GetNode("a")
	if len(a.Outgoing) != 1 || a.Outgoing[0].ToID != "c" {
		t.Errorf("expected a to keep only a->c, got %v", a.Outgoing)
	}
	if len(a.Incoming) != 0 {
		t.Errorf("expected a to have no incoming edges, got %d", len(a.Incoming))
	}
	if g.EdgeCountByType(concept.RelationRelated) != 0 {
		t.Error("expected related counter to drop to 0")
	}
	if err := g.Validate(); err != nil {
		t.Errorf("graph invalid: %v", err)
	}
	if g.RemoveIncidentEdges("missing") != 0 {
		t.Error("expected 0 for missing node")
	}
}

func TestGraph_SelfLoop(t *testing.T) {
	g := newTestGraph(t, "a")
	_, _ = g.AddEdge("a", "a", concept.RelationRelated)
	if g.EdgeCount() != 1 {
		t.Fatalf("expected 1 edge, got %d", g.EdgeCount())
	}
	if !g.RemoveNode("a") {
		t.Fatal("expected removal")
	}
	if g.EdgeCount() != 0 {
		t.Errorf("expected 0 edges, got %d", g.EdgeCount())
	}
	if err := g.Validate(); err != nil {
		t.Errorf("graph invalid: %v", err)
	}
}

func TestGraph_NodesOrder(t *testing.T) {
	g := newTestGraph(t, "c", "a", "b")
	g.RemoveNode("a")
	_, _, _ = g.PutNode(testRecord("a", "A"))

	var got []string
	for id := range g.Nodes() {
		got = append(got, id)
	}
	want := []string{"c", "b", "a"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestGraph_Neighbors(t *testing.T) {
	g := newTestGraph(t, "a", "b", "c", "d")
	_, _ = g.AddEdge("a", "b", concept.RelationBroader)
	_, _ = g.AddEdge("b", "a", concept.RelationNarrower)
	_, _ = g.AddEdge("c", "a", concept.RelationPrerequisite)

	got := g.Neighbors("a")
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("expected [b c], got %v", got)
	}
	if len(g.Neighbors("d")) != 0 {
		t.Error("expected no neighbors for isolated node")
	}
	if g.Neighbors("missing") != nil {
		t.Error("expected nil for missing node")
	}
}

func TestGraph_Stats(t *testing.T) {
	t.Run("empty graph", func(t *testing.T) {
		stats := NewGraph().Stats()
		if stats.NodeCount != 0 || stats.EdgeCount != 0 {
			t.Errorf("expected empty stats, got %+v", stats)
		}
		if stats.WeaklyConnected {
			t.Error("empty graph should not be connected")
		}
		if stats.Density != 0 {
			t.Errorf("expected density 0, got %f", stats.Density)
		}
	})

	t.Run("single node", func(t *testing.T) {
		stats := newTestGraph(t, "a").Stats()
		if !stats.WeaklyConnected {
			t.Error("single node should be connected")
		}
	})

	t.Run("density and connectivity", func(t *testing.T) {
		g := newTestGraph(t, "a", "b", "c")
		_, _ = g.AddEdge("a", "b", concept.RelationPrerequisite)
		stats := g.Stats()
		if stats.WeaklyConnected {
			t.Error("c is isolated, graph should not be connected")
		}
		if math.Abs(stats.Density-1.0/6.0) > 1e-9 {
			t.Errorf("expected density 1/6, got %f", stats.Density)
		}

		_, _ = g.AddEdge("c", "b", concept.RelationPrerequisite)
		stats = g.Stats()
		if !stats.WeaklyConnected {
			t.Error("edge direction must be ignored for weak connectivity")
		}
		if stats.EdgesByType["prerequisite"] != 2 {
			t.Errorf("expected 2 prerequisite edges, got %d", stats.EdgesByType["prerequisite"])
		}
	})
}

func TestGraph_Clone(t *testing.T) {
	g := newTestGraph(t, "a", "b")
	_, _ = g.AddEdge("a", "b", concept.RelationRelated)

	clone := g.Clone()
	if clone.Version() != g.Version() {
		t.Error("clone should keep the version")
	}
	if err := clone.Validate(); err != nil {
		t.Fatalf("clone invalid: %v", err)
	}

	_, _, _ = clone.PutNode(testRecord("c", "C"))
	_, _ = clone.AddEdge("c", "a", concept.RelationRelated)
	clone.RemoveIncidentEdges("b")

	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Errorf("original changed: nodes=%d edges=%d", g.NodeCount(), g.EdgeCount())
	}
	if !g.HasEdge("a", "b", concept.RelationRelated) {
		t.Error("original lost its edge")
	}
	a, _ := g.GetNode("a")
	if len(a.Outgoing) != 1 {
		t.Errorf("original adjacency changed: %d outgoing", len(a.Outgoing))
	}
}

func TestGraph_PutNodeCapacity(t *testing.T) {
	g := NewGraph(WithMaxNodes(1))
	if _, _, err := g.PutNode(testRecord("a", "A")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, created, err := g.PutNode(testRecord("a", "A2")); err != nil || created {
		t.Errorf("update at capacity should succeed without creating, got created=%v err=%v", created, err)
	}
	if _, _, err := g.PutNode(testRecord("b", "B")); !errors.Is(err, ErrMaxNodesExceeded) {
		t.Errorf("expected ErrMaxNodesExceeded, got %v", err)
	}
}
