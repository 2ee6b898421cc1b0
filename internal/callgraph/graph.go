// Package callgraph reconstructs the dynamic call graph from a loaded
// profile.Set (component D) and computes the hot-edge cutoff over it
// (component E).
package callgraph

import (
	"github.com/lipo-groupgen/internal/keyedset"
	"github.com/lipo-groupgen/internal/profile"
)

// Edge is a single caller→callee arc, carrying the weight (count) that
// produced it and whether it came from an indirect-call counter.
type Edge struct {
	Caller   *Node
	Callee   *Node
	Weight   int64
	Indirect bool
}

// Node is one function's call-graph presence. Callees and Callers are kept
// as plain slices rather than linked lists — idiomatic Go, equivalent
// ownership semantics to the doubly-indexed list the spec describes, since
// every edge is reachable from exactly one Callees slice and one Callers
// slice.
type Node struct {
	GUID        profile.GUID
	ModuleID    uint32
	FunctionID  uint32
	Callees     []*Edge
	Callers     []*Edge
	SumInCount  int64
	Visited     bool
}

func guidHash(g profile.GUID) uint64 { return keyedset.Uint64Hash(uint64(g)) }

func nodeKey(n *Node) profile.GUID { return n.GUID }

// Graph is the full call graph plus the builder's diagnostic counters. The
// node table is the function table spec.md's container section names: keyed
// by GUID identity, same as every other "table keyed by a value's own
// identity" in this pass.
type Graph struct {
	nodes *keyedset.Set[profile.GUID, *Node]

	// Diagnostic counters, visible in the optional dump.
	TotalInsaneCount    int64
	TotalZeroCount      int64
	NumNodesExecuted    int64
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: keyedset.New[profile.GUID, *Node](nodeKey, guidHash)}
}

// Node looks up a node by GUID.
func (g *Graph) Node(guid profile.GUID) (*Node, bool) {
	return g.nodes.Get(guid)
}

// Nodes returns every node. Order is unspecified.
func (g *Graph) Nodes() []*Node {
	return g.nodes.Values()
}

// getOrCreateNode returns the node for guid, creating an empty one if
// absent. Used both by the builder (which always creates nodes up front)
// and defensively by edge construction.
func (g *Graph) getOrCreateNode(guid profile.GUID) *Node {
	if n, ok := g.nodes.Get(guid); ok {
		return n
	}
	n := &Node{GUID: guid, ModuleID: guid.ModuleID(), FunctionID: guid.FunctionID()}
	g.nodes.Insert(n)
	return n
}

// addEdge links a new edge into both endpoints' lists. Edges are never
// shared or merged at this level: two counters producing the same
// (caller,callee) pair yield two distinct Edge values, as specified.
func (g *Graph) addEdge(caller, callee *Node, weight int64, indirect bool) *Edge {
	e := &Edge{Caller: caller, Callee: callee, Weight: weight, Indirect: indirect}
	caller.Callees = append(caller.Callees, e)
	callee.Callers = append(callee.Callers, e)
	return e
}

// AllEdges collects every edge in the graph, each appearing exactly once
// (iterated via callee lists only, since every edge lives in exactly one).
func (g *Graph) AllEdges() []*Edge {
	var edges []*Edge
	for _, n := range g.nodes.Values() {
		edges = append(edges, n.Callees...)
	}
	return edges
}
