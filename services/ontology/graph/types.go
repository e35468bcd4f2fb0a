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
	"fmt"

	"github.com/AleutianAI/AleutianOntology/services/ontology/concept"
)

// Graph configuration limits.
const (
	// DefaultMaxNodes is the default maximum number of concepts.
	DefaultMaxNodes = 1_000_000

	// DefaultMaxEdges is the default maximum number of edges.
	DefaultMaxEdges = 10_000_000
)

// Edge represents a directed, typed relationship between two concepts.
//
// Edge identity is the (FromID, ToID, Type) triple. The graph holds at most
// one edge per triple, so a relation declared on both ends (A broader B and
// B narrower A) yields exactly one edge in each direction.
type Edge struct {
	// FromID is the ID of the source concept.
	FromID string

	// ToID is the ID of the target concept.
	ToID string

	// Type is the relation type.
	Type concept.RelationType
}

// String renders the edge as "from -[type]-> to".
func (e *Edge) String() string {
	return fmt.Sprintf("%s -[%s]-> %s", e.FromID, e.Type, e.ToID)
}

// Node is a concept in the graph with its relationships.
//
// The Record pointer is NOT owned by the Node.
type Node struct {
	// ID is the concept id, same as Record.ID.
	ID string

	// Record is the concept record the node was last written from.
	Record *concept.Record

	// Outgoing contains edges where this node is the source, in insertion order.
	Outgoing []*Edge

	// Incoming contains edges where this node is the target, in insertion order.
	Incoming []*Edge
}

// GraphOptions configures Graph limits.
type GraphOptions struct {
	// MaxNodes is the maximum number of nodes the graph can hold.
	// Default: 1,000,000
	MaxNodes int

	// MaxEdges is the maximum number of edges the graph can hold.
	// Default: 10,000,000
	MaxEdges int
}

// DefaultGraphOptions returns sensible defaults for graph configuration.
func DefaultGraphOptions() GraphOptions {
	return GraphOptions{
		MaxNodes: DefaultMaxNodes,
		MaxEdges: DefaultMaxEdges,
	}
}

// GraphOption is a functional option for configuring Graph.
type GraphOption func(*GraphOptions)

// WithMaxNodes sets the maximum number of nodes the graph can hold.
func WithMaxNodes(n int) GraphOption {
	return func(o *GraphOptions) {
		o.MaxNodes = n
	}
}

// WithMaxEdges sets the maximum number of edges the graph can hold.
func WithMaxEdges(n int) GraphOption {
	return func(o *GraphOptions) {
		o.MaxEdges = n
	}
}

type edgeKey struct {
	from string
	to   string
	typ  concept.RelationType
}

// Graph is the concept relationship graph.
//
// Thread Safety:
//
//	Graph is NOT safe for concurrent use. Concurrent readers are fine as
//	long as no goroutine mutates the graph at the same time.
type Graph struct {
	// nodes maps concept id to Node.
	nodes map[string]*Node

	// order holds node ids in first-insertion order. Iteration, search tie
	// breaking and label last-writer-wins all follow this order.
	order []string

	// edges contains all edges in insertion order.
	edges []*Edge

	// edgeSet deduplicates edges by triple.
	edgeSet map[edgeKey]*Edge

	// edgesByType counts edges per relation type.
	edgesByType [concept.NumRelationTypes]int

	// version increments on every mutation. Derived indexes record the
	// version they were built from.
	version uint64

	options GraphOptions
}

// NewGraph creates a new empty graph.
//
// Example:
//
//	g := NewGraph()
//	g := NewGraph(WithMaxNodes(10_000), WithMaxEdges(100_000))
func NewGraph(opts ...GraphOption) *Graph {
	options := DefaultGraphOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Graph{
		nodes:   make(map[string]*Node),
		order:   make([]string, 0),
		edges:   make([]*Edge, 0),
		edgeSet: make(map[edgeKey]*Edge),
		options: options,
	}
}

// NodeCount returns the number of concepts in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Version returns the mutation counter of the graph.
func (g *Graph) Version() uint64 {
	return g.version
}

// GetNode returns the node with the given id.
func (g *Graph) GetNode(id string) (*Node, bool) {
	node, ok := g.nodes[id]
	return node, ok
}

// HasNode reports whether a concept with the given id exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// PutNode inserts a concept or replaces the record of an existing one.
//
// Description:
//
//	A new id is appended to the node order. An existing id keeps its position
//	and its edges; only the record pointer is replaced. Edge maintenance on
//	update is the builder's job.
//
// Outputs:
//
//	*Node - The inserted or updated node.
//	bool - True if the node was created.
//	error - ErrInvalidNode for nil or id-less records, ErrMaxNodesExceeded at capacity.
func (g *Graph) PutNode(record *concept.Record) (*Node, bool, error) {
	if err := record.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidNode, err)
	}

	if node, ok := g.nodes[record.ID]; ok {
		node.Record = record
		g.version++
		return node, false, nil
	}

	if len(g.nodes) >= g.options.MaxNodes {
		return nil, false, ErrMaxNodesExceeded
	}

	node := &Node{
		ID:       record.ID,
		Record:   record,
		Outgoing: make([]*Edge, 0),
		Incoming: make([]*Edge, 0),
	}
	g.nodes[record.ID] = node
	g.order = append(g.order, record.ID)
	g.version++
	return node, true, nil
}

// AddEdge adds a directed edge between two existing concepts.
//
// Description:
//
//	Adding a triple that already exists is a no-op and reports false.
//
// Outputs:
//
//	bool - True if a new edge was stored.
//	error - ErrInvalidRelation, ErrNodeNotFound or ErrMaxEdgesExceeded.
func (g *Graph) AddEdge(fromID, toID string, relType concept.RelationType) (bool, error) {
	if !relType.Valid() {
		return false, fmt.Errorf("%w: %d", ErrInvalidRelation, int(relType))
	}

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return false, fmt.Errorf("%w: source %s", ErrNodeNotFound, fromID)
	}
	toNode, ok := g.nodes[toID]
	if !ok {
		return false, fmt.Errorf("%w: target %s", ErrNodeNotFound, toID)
	}

	key := edgeKey{from: fromID, to: toID, typ: relType}
	if _, exists := g.edgeSet[key]; exists {
		return false, nil
	}

	if len(g.edges) >= g.options.MaxEdges {
		return false, ErrMaxEdgesExceeded
	}

	edge := &Edge{FromID: fromID, ToID: toID, Type: relType}
	g.edges = append(g.edges, edge)
	g.edgeSet[key] = edge
	g.edgesByType[relType]++
	fromNode.Outgoing = append(fromNode.Outgoing, edge)
	toNode.Incoming = append(toNode.Incoming, edge)
	g.version++
	return true, nil
}

// HasEdge reports whether the exact triple exists.
func (g *Graph) HasEdge(fromID, toID string, relType concept.RelationType) bool {
	_, ok := g.edgeSet[edgeKey{from: fromID, to: toID, typ: relType}]
	return ok
}

// RemoveIncidentEdges deletes every edge that starts or ends at id.
//
// Description:
//
//	Removes edges in both directions and of all relation types, including
//	the matching entries in the other endpoints' Outgoing/Incoming lists.
//	The node itself stays.
//
// Outputs:
//
//	int - Number of edges removed. Zero if the node does not exist.
func (g *Graph) RemoveIncidentEdges(id string) int {
	node, ok := g.nodes[id]
	if !ok {
		return 0
	}

	removed := make(map[*Edge]bool, len(node.Outgoing)+len(node.Incoming))
	for _, e := range node.Outgoing {
		removed[e] = true
	}
	for _, e := range node.Incoming {
		removed[e] = true
	}
	if len(removed) == 0 {
		return 0
	}

	for e := range removed {
		delete(g.edgeSet, edgeKey{from: e.FromID, to: e.ToID, typ: e.Type})
		g.edgesByType[e.Type]--

		if e.FromID != id {
			if other, ok := g.nodes[e.FromID]; ok {
				other.Outgoing = filterEdges(other.Outgoing, removed)
			}
		}
		if e.ToID != id {
			if other, ok := g.nodes[e.ToID]; ok {
				other.Incoming = filterEdges(other.Incoming, removed)
			}
		}
	}

	g.edges = filterEdges(g.edges, removed)
	node.Outgoing = make([]*Edge, 0)
	node.Incoming = make([]*Edge, 0)
	g.version++
	return len(removed)
}

// RemoveNode deletes a concept and all incident edges.
//
// Outputs:
//
//	bool - False if no such node existed.
func (g *Graph) RemoveNode(id string) bool {
	if _, ok := g.nodes[id]; !ok {
		return false
	}

	g.RemoveIncidentEdges(id)
	delete(g.nodes, id)
	for i, nodeID := range g.order {
		if nodeID == id {
			g.order = append(g.order[:i:i], g.order[i+1:]...)
			break
		}
	}
	g.version++
	return true
}

// filterEdges returns edges without the ones in removed, preserving order.
func filterEdges(edges []*Edge, removed map[*Edge]bool) []*Edge {
	kept := make([]*Edge, 0, len(edges))
	for _, e := range edges {
		if !removed[e] {
			kept = append(kept, e)
		}
	}
	return kept
}

// Nodes returns an iterator over nodes in insertion order.
//
// Example:
//
//	for id, node := range g.Nodes() {
//	    fmt.Println(id, node.Record.PrefLabel)
//	}
func (g *Graph) Nodes() func(yield func(string, *Node) bool) {
	return func(yield func(string, *Node) bool) {
		for _, id := range g.order {
			if !yield(id, g.nodes[id]) {
				return
			}
		}
	}
}

// NodeIDs returns a copy of the node ids in insertion order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.order))
	copy(ids, g.order)
	return ids
}

// Edges returns all edges in insertion order.
//
// The returned slice is the graph's own storage and must not be modified.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// EdgeCountByType returns the number of edges of one relation type.
func (g *Graph) EdgeCountByType(relType concept.RelationType) int {
	if !relType.Valid() {
		return 0
	}
	return g.edgesByType[relType]
}

// Neighbors returns the ids adjacent to id in the undirected projection of
// the graph: outgoing targets first, then incoming sources, each listed once.
//
// Relation type and direction are ignored.
func (g *Graph) Neighbors(id string) []string {
	node, ok := g.nodes[id]
	if !ok {
		return nil
	}

	seen := make(map[string]bool, len(node.Outgoing)+len(node.Incoming))
	neighbors := make([]string, 0, len(node.Outgoing)+len(node.Incoming))
	for _, e := range node.Outgoing {
		if !seen[e.ToID] {
			seen[e.ToID] = true
			neighbors = append(neighbors, e.ToID)
		}
	}
	for _, e := range node.Incoming {
		if !seen[e.FromID] {
			seen[e.FromID] = true
			neighbors = append(neighbors, e.FromID)
		}
	}
	return neighbors
}

// Validate checks that every edge references existing nodes and that the
// edge set, counters and adjacency lists agree.
func (g *Graph) Validate() error {
	if len(g.edgeSet) != len(g.edges) {
		return fmt.Errorf("edge set has %d entries, edge list has %d", len(g.edgeSet), len(g.edges))
	}
	if len(g.order) != len(g.nodes) {
		return fmt.Errorf("node order has %d entries, node map has %d", len(g.order), len(g.nodes))
	}

	adjacency := 0
	for i, e := range g.edges {
		if _, ok := g.nodes[e.FromID]; !ok {
			return fmt.Errorf("edge %d %s: %w: source", i, e, ErrNodeNotFound)
		}
		if _, ok := g.nodes[e.ToID]; !ok {
			return fmt.Errorf("edge %d %s: %w: target", i, e, ErrNodeNotFound)
		}
	}
	for _, node := range g.nodes {
		adjacency += len(node.Outgoing)
	}
	if adjacency != len(g.edges) {
		return fmt.Errorf("outgoing lists hold %d edges, edge list has %d", adjacency, len(g.edges))
	}
	return nil
}

// GraphStats contains builder-level statistics about the graph.
//
// This is a richer contract than the query engine's statistics, which only
// report node and edge counts.
type GraphStats struct {
	// NodeCount is the total number of concepts.
	NodeCount int `json:"node_count"`

	// EdgeCount is the total number of edges.
	EdgeCount int `json:"edge_count"`

	// EdgesByType maps each relation type name to its edge count.
	EdgesByType map[string]int `json:"edges_by_type"`

	// Density is EdgeCount / (NodeCount * (NodeCount - 1)), the ratio of
	// observed edges to the maximum possible directed edges between distinct
	// nodes. Zero for fewer than two nodes. Can exceed 1 because two concepts
	// may be linked by several relation types.
	Density float64 `json:"density"`

	// WeaklyConnected is true iff the undirected projection is a single
	// connected component. False for an empty graph.
	WeaklyConnected bool `json:"weakly_connected"`

	// MaxNodes is the configured maximum node capacity.
	MaxNodes int `json:"max_nodes"`

	// MaxEdges is the configured maximum edge capacity.
	MaxEdges int `json:"max_edges"`

	// Version is the graph mutation counter.
	Version uint64 `json:"version"`
}

// Stats returns statistics about the graph.
//
// Complexity:
//
//	O(V + E) for the connectivity check, O(T) for everything else.
func (g *Graph) Stats() GraphStats {
	edgesByType := make(map[string]int)
	for _, t := range concept.AllRelationTypes {
		if count := g.edgesByType[t]; count > 0 {
			edgesByType[t.String()] = count
		}
	}

	n := len(g.nodes)
	density := 0.0
	if n > 1 {
		density = float64(len(g.edges)) / float64(n*(n-1))
	}

	return GraphStats{
		NodeCount:       n,
		EdgeCount:       len(g.edges),
		EdgesByType:     edgesByType,
		Density:         density,
		WeaklyConnected: g.isWeaklyConnected(),
		MaxNodes:        g.options.MaxNodes,
		MaxEdges:        g.options.MaxEdges,
		Version:         g.version,
	}
}

// isWeaklyConnected runs a BFS over the undirected projection from the first
// node and checks that it reaches every node.
func (g *Graph) isWeaklyConnected() bool {
	if len(g.order) == 0 {
		return false
	}

	start := g.order[0]
	visited := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.Neighbors(current) {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return len(visited) == len(g.nodes)
}

// Clone creates a deep copy of the graph.
//
// Description:
//
//	Creates an independent copy that can be mutated without affecting the
//	original. Nodes and edges are new structs; record pointers are shared.
//	The version is preserved so an index built on the original is also
//	current for the clone until the clone is mutated.
//
// Thread Safety:
//
//	The returned graph is independent and can be modified without synchronization.
func (g *Graph) Clone() *Graph {
	clone := &Graph{
		nodes:       make(map[string]*Node, len(g.nodes)),
		order:       make([]string, len(g.order)),
		edges:       make([]*Edge, 0, len(g.edges)),
		edgeSet:     make(map[edgeKey]*Edge, len(g.edgeSet)),
		edgesByType: g.edgesByType,
		version:     g.version,
		options:     g.options,
	}
	copy(clone.order, g.order)

	for id, node := range g.nodes {
		clone.nodes[id] = &Node{
			ID:       node.ID,
			Record:   node.Record,
			Outgoing: make([]*Edge, 0, len(node.Outgoing)),
			Incoming: make([]*Edge, 0, len(node.Incoming)),
		}
	}

	for _, e := range g.edges {
		edgeCopy := &Edge{FromID: e.FromID, ToID: e.ToID, Type: e.Type}
		clone.edges = append(clone.edges, edgeCopy)
		clone.edgeSet[edgeKey{from: e.FromID, to: e.ToID, typ: e.Type}] = edgeCopy
	}

	// Rebuild adjacency in each original node's list order.
	cloned := make(map[*Edge]*Edge, len(g.edges))
	for i, e := range g.edges {
		cloned[e] = clone.edges[i]
	}
	for id, node := range g.nodes {
		target := clone.nodes[id]
		for _, e := range node.Outgoing {
			target.Outgoing = append(target.Outgoing, cloned[e])
		}
		for _, e := range node.Incoming {
			target.Incoming = append(target.Incoming, cloned[e])
		}
	}

	return clone
}
