package grouping

import (
	"github.com/lipo-groupgen/internal/callgraph"
	"github.com/lipo-groupgen/internal/fibheap"
	"github.com/lipo-groupgen/internal/profile"
)

// Inclusion implements the inclusion-priority grouping algorithm
// (component G): a Fibonacci-heap-driven consumption of the module
// meta-graph under a memory budget, maintaining the strict- or
// weak-inclusion invariant.
type Inclusion struct {
	MergeModuleEdges bool
	WeakInclusion    bool
	// MemBudgetKB is the effective budget (already ×1.25'd by the caller);
	// zero means unlimited.
	MemBudgetKB uint32
}

// Run executes steps 2-5 of §4.G over the meta-graph built from g's hot
// edges.
func (in *Inclusion) Run(g *callgraph.Graph, set *profile.Set, cutoff int64) Result {
	moduleIDs := make([]uint32, 0, set.ModuleCount())
	for _, m := range set.Modules() {
		moduleIDs = append(moduleIDs, m.ModuleID)
	}
	result := newResult(moduleIDs)

	metaEdges := buildMetaGraph(g, cutoff, in.MergeModuleEdges)

	heap := fibheap.New[*MetaEdge]()
	for _, me := range metaEdges {
		heap.Insert(-me.SumCount, me)
	}

	for heap.Len() > 0 {
		me, ok := heap.ExtractMin()
		if !ok {
			break
		}
		if me.visited {
			continue
		}
		me.visited = true
		in.consume(me, set, result)
	}

	return result
}

func (in *Inclusion) consume(me *MetaEdge, set *profile.Set, result Result) {
	M, Mp := me.CallerModule, me.CalleeModule
	groupM, ok := result[M]
	if !ok {
		return
	}
	groupMp, ok := result[Mp]
	if !ok {
		return
	}

	if in.overBudget(set, groupM) {
		return
	}
	if groupM.Contains(Mp) {
		return
	}

	newEntries := in.proposedEntries(Mp, me.SumCount, groupMp)
	prospective := unionKeys(groupM, newEntries)
	if in.exceedsBudget(set, prospective) {
		return
	}

	// Determine which currently-importing modules (X such that M ∈
	// imports(X)) can also accept newEntries within budget.
	type candidate struct {
		id         uint32
		group      *Group
		prospective map[uint32]struct{}
	}
	var fitting []candidate
	var failing []uint32
	for x := range groupM.ExportedTo {
		gx, ok := result[x]
		if !ok {
			continue
		}
		px := unionKeys(gx, newEntries)
		if in.exceedsBudget(set, px) {
			failing = append(failing, x)
			continue
		}
		fitting = append(fitting, candidate{id: x, group: gx, prospective: px})
	}

	if len(failing) > 0 && !in.WeakInclusion {
		return
	}

	applyEntries(groupM, newEntries, result, M)
	for _, c := range fitting {
		applyEntries(c.group, newEntries, result, c.id)
	}
	// Under weak inclusion, failing X modules are silently left behind;
	// the strict-inclusion invariant becomes best-effort for them.
}

// proposedEntries is the new-entries set added by importing Mp: Mp itself
// at the meta-edge's weight, plus every module Mp already imports, carried
// over at its existing weight in Mp's set.
func (in *Inclusion) proposedEntries(mp uint32, weight int64, groupMp *Group) map[uint32]int64 {
	entries := map[uint32]int64{mp: weight}
	groupMp.Imports.Traverse(func(imp Import) bool {
		if imp.ModuleID == mp {
			return true
		}
		entries[imp.ModuleID] += imp.Weight
		return true
	})
	return entries
}

func applyEntries(g *Group, entries map[uint32]int64, result Result, selfID uint32) {
	for modID, w := range entries {
		if modID == selfID {
			continue
		}
		g.accumulate(modID, w)
		if target, ok := result[modID]; ok {
			target.ExportedTo[selfID] = true
		}
	}
}

func unionKeys(a *Group, b map[uint32]int64) map[uint32]struct{} {
	out := make(map[uint32]struct{}, a.Imports.Len()+len(b))
	a.Imports.Traverse(func(imp Import) bool {
		out[imp.ModuleID] = struct{}{}
		return true
	})
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

func (in *Inclusion) ggcSizeOf(set *profile.Set, keys map[uint32]struct{}) uint32 {
	return set.GGCSize(keys)
}

func (in *Inclusion) overBudget(set *profile.Set, g *Group) bool {
	if in.MemBudgetKB == 0 {
		return false
	}
	keys := make(map[uint32]struct{}, g.Imports.Len())
	g.Imports.Traverse(func(imp Import) bool {
		keys[imp.ModuleID] = struct{}{}
		return true
	})
	return set.GGCSize(keys) >= in.MemBudgetKB
}

func (in *Inclusion) exceedsBudget(set *profile.Set, keys map[uint32]struct{}) bool {
	if in.MemBudgetKB == 0 {
		return false
	}
	return set.GGCSize(keys) > in.MemBudgetKB
}
