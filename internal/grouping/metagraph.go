package grouping

import (
	"math"

	"github.com/lipo-groupgen/internal/callgraph"
)

// MetaEdge mirrors the function-level graph at module granularity: at most
// one meta-edge per (caller module, callee module) pair when edges are
// coalesced, accumulating sum_count and n_edges from every contributing
// function-level edge.
type MetaEdge struct {
	CallerModule uint32
	CalleeModule uint32
	SumCount     int64
	NEdges       int
	visited      bool
}

// buildMetaGraph implements step 1 of §4.G: drop same-module edges, and
// either coalesce same-endpoint edges into one MetaEdge (mergeEdges=true)
// or keep every contributing edge as its own MetaEdge entry.
func buildMetaGraph(g *callgraph.Graph, cutoff int64, mergeEdges bool) []*MetaEdge {
	var edges []*MetaEdge
	byKey := map[uint64]*MetaEdge{}

	for _, edge := range g.AllEdges() {
		if !callgraph.IsHot(edge.Weight, cutoff) {
			continue
		}
		caller, callee := edge.Caller.ModuleID, edge.Callee.ModuleID
		if caller == callee {
			continue
		}
		if mergeEdges {
			key := uint64(caller)<<32 | uint64(callee)
			me, ok := byKey[key]
			if !ok {
				me = &MetaEdge{CallerModule: caller, CalleeModule: callee}
				byKey[key] = me
				edges = append(edges, me)
			}
			if edge.Weight > 0 && me.SumCount > math.MaxInt64-edge.Weight {
				me.SumCount = math.MaxInt64
			} else {
				me.SumCount += edge.Weight
			}
			me.NEdges++
		} else {
			edges = append(edges, &MetaEdge{
				CallerModule: caller,
				CalleeModule: callee,
				SumCount:     edge.Weight,
				NEdges:       1,
			})
		}
	}
	return edges
}
