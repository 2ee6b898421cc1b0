package grouping

import (
	"github.com/lipo-groupgen/internal/callgraph"
	"github.com/lipo-groupgen/internal/profile"
	"github.com/lipo-groupgen/pkg/collections"
)

// Eager implements the eager-propagation grouping algorithm (component F).
type Eager struct {
	// ImportScale is the percent scale applied when a propagated weight
	// crosses a module boundary (lipo_propagate_scale, default 50).
	ImportScale int
}

// frame is one explicit-stack entry for the iterative post-order DFS. The
// open design question about recursion depth is resolved here by walking
// with this work-stack instead of the Go call stack, so depth is bounded
// only by heap, not goroutine stack size.
type frame struct {
	node    *callgraph.Node
	edgeIdx int
}

// Run walks every node's callees in post order, propagating scaled
// imported-module weights up through hot edges, then unions the per-node
// sets into per-module groups and marks exported modules.
func (e *Eager) Run(g *callgraph.Graph, set *profile.Set, cutoff int64) Result {
	sumIn := make(map[profile.GUID]int64)
	for _, n := range g.Nodes() {
		var s int64
		for _, edge := range n.Callers {
			s += edge.Weight
		}
		sumIn[n.GUID] = s
	}

	nodeImports := make(map[profile.GUID]map[uint32]int64)

	for _, root := range g.Nodes() {
		if root.Visited {
			continue
		}
		e.walk(root, g, sumIn, nodeImports, cutoff)
	}

	moduleIDs := make([]uint32, 0, set.ModuleCount())
	for _, m := range set.Modules() {
		moduleIDs = append(moduleIDs, m.ModuleID)
	}
	result := newResult(moduleIDs)

	for _, m := range set.Modules() {
		group := result[m.ModuleID]
		for _, fn := range m.Functions {
			guid := fn.GUID(m.ModuleID)
			for modID, w := range nodeImports[guid] {
				if modID == m.ModuleID {
					continue
				}
				group.accumulate(modID, w)
			}
		}
	}

	for _, m := range set.Modules() {
		group := result[m.ModuleID]
		group.Imports.Traverse(func(imp Import) bool {
			if imp.ModuleID == m.ModuleID {
				return true
			}
			if other, ok := result[imp.ModuleID]; ok {
				other.ExportedTo[m.ModuleID] = true
			}
			return true
		})
	}

	return result
}

// walk performs the iterative post-order DFS rooted at root, setting the
// visited bit before recursing into callees so cycles are tolerated: the
// first visitor of a node "owns" the computation of its imported set, and
// later arrivals via a cycle see whatever partial (possibly still-empty)
// set exists at that point, exactly mirroring the recursive source's
// visited-before-recursion behaviour.
func (e *Eager) walk(root *callgraph.Node, g *callgraph.Graph, sumIn map[profile.GUID]int64, nodeImports map[profile.GUID]map[uint32]int64, cutoff int64) {
	stack := collections.NewStack[*frame](16)
	stack.Push(&frame{node: root})
	root.Visited = true

	for !stack.IsEmpty() {
		top, _ := stack.Peek()
		n := top.node

		advanced := false
		for top.edgeIdx < len(n.Callees) {
			edge := n.Callees[top.edgeIdx]
			if !callgraph.IsHot(edge.Weight, cutoff) {
				top.edgeIdx++
				continue
			}
			c := edge.Callee
			if !c.Visited {
				c.Visited = true
				stack.Push(&frame{node: c})
				advanced = true
				break
			}
			top.edgeIdx++
		}
		if advanced {
			continue
		}

		nodeImports[n.GUID] = e.computeImports(n, sumIn, nodeImports, cutoff)
		stack.Pop()
	}
}

func (e *Eager) computeImports(n *callgraph.Node, sumIn map[profile.GUID]int64, nodeImports map[profile.GUID]map[uint32]int64, cutoff int64) map[uint32]int64 {
	mySet := map[uint32]int64{}
	for _, edge := range n.Callees {
		if !callgraph.IsHot(edge.Weight, cutoff) {
			continue
		}
		c := edge.Callee
		denom := sumIn[c.GUID]
		if denom == 0 {
			mySet[c.ModuleID] += edge.Weight
			continue
		}
		s := float64(edge.Weight) / float64(denom)
		if c.ModuleID != n.ModuleID {
			s = s * float64(e.ImportScale) / 100.0
		}
		var scaledSum int64
		for modID, w := range nodeImports[c.GUID] {
			scaled := int64(float64(w) * s)
			mySet[modID] += scaled
			scaledSum += scaled
		}
		// The direct callee's own module weight is the edge count plus the
		// scaled weights just propagated from its imported-module set: it
		// doesn't make sense to import those modules before the callee's
		// module itself is imported.
		mySet[c.ModuleID] += edge.Weight + scaledSum
	}
	return mySet
}
