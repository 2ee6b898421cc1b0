package callgraph

import (
	"github.com/lipo-groupgen/internal/comdat"
	"github.com/lipo-groupgen/internal/profile"
)

// Builder walks a loaded profile.Set and materialises the call graph
// (component D).
type Builder struct {
	aliases *comdat.AliasTable
}

// NewBuilder returns a Builder that will populate aliases (pass nil to skip
// checksum-alias registration entirely, e.g. when neither COMDAT pass is
// enabled for this run) as it walks arcs counters.
func NewBuilder(aliases *comdat.AliasTable) *Builder {
	return &Builder{aliases: aliases}
}

// Build implements the three-step algorithm of spec §4.D: allocate nodes,
// walk each function's active counters creating edges (dropping malformed
// or zero-count entries into the diagnostic counters), and register every
// function with an arcs counter in the checksum-alias table, flagging the
// zero-count copies for fixup.
func (b *Builder) Build(set *profile.Set) *Graph {
	g := NewGraph()

	// Step 1: allocate a node per function up front so edge construction
	// never needs to create nodes lazily.
	for _, m := range set.Modules() {
		for _, fn := range m.Functions {
			g.getOrCreateNode(fn.GUID(m.ModuleID))
		}
	}

	// Step 2: walk counters.
	for _, m := range set.Modules() {
		for _, fn := range m.Functions {
			callerGUID := fn.GUID(m.ModuleID)
			caller := g.getOrCreateNode(callerGUID)

			if c, ok := fn.Counter(profile.KindDirectCall); ok {
				b.processDirectCall(g, set, caller, c.Values)
			}
			if c, ok := fn.Counter(profile.KindIndirectCall); ok {
				b.processIndirectCall(g, set, caller, c.Values)
			}
			if c, ok := fn.Counter(profile.KindArcs); ok {
				b.processArcs(g, callerGUID, fn, c.Values)
			}
		}
	}

	return g
}

// resolveTarget validates a raw GUID against the loaded module set,
// returning the target node and whether it is sane. A target is insane if
// its module_id is out of range or its function_id exceeds that module's
// max registered function id (spec §4.D step 2).
func resolveTarget(g *Graph, set *profile.Set, guid profile.GUID) (*Node, bool) {
	m, ok := set.Module(guid.ModuleID())
	if !ok {
		return nil, false
	}
	if guid.FunctionID() == 0 || guid.FunctionID() > m.MaxFunctionID() {
		return nil, false
	}
	return g.getOrCreateNode(guid), true
}

func (b *Builder) processDirectCall(g *Graph, set *profile.Set, caller *Node, values []int64) {
	n := len(values) / 2 * 2
	for i := 0; i+1 < n; i += 2 {
		calleeGUID := profile.GUID(values[i])
		count := values[i+1]
		if count == 0 {
			g.TotalZeroCount++
			continue
		}
		callee, ok := resolveTarget(g, set, calleeGUID)
		if !ok {
			g.TotalInsaneCount++
			continue
		}
		g.addEdge(caller, callee, count, false)
	}
}

// processIndirectCall walks a top-N block, skipping the first "eviction"
// entry as spec §4.D directs, and builds one edge per remaining (guid,
// count) pair. This also implements the fake-indirect-call insertion pass:
// it is the same code path, distinguished only by the Indirect bit.
func (b *Builder) processIndirectCall(g *Graph, set *profile.Set, caller *Node, values []int64) {
	if len(values) < 1 {
		return
	}
	entries := values[1:] // skip the single eviction scalar
	n := len(entries) / 2 * 2
	for i := 0; i+1 < n; i += 2 {
		calleeGUID := profile.GUID(entries[i])
		count := entries[i+1]
		if count == 0 {
			g.TotalZeroCount++
			continue
		}
		callee, ok := resolveTarget(g, set, calleeGUID)
		if !ok {
			g.TotalInsaneCount++
			continue
		}
		g.addEdge(caller, callee, count, true)
	}
}

func (b *Builder) processArcs(g *Graph, callerGUID profile.GUID, fn *profile.Function, values []int64) {
	var sum int64
	for _, v := range values {
		sum += v
	}
	if sum != 0 {
		g.NumNodesExecuted++
	}
	if b.aliases != nil {
		b.aliases.Register(callerGUID, fn, sum == 0)
	}
}
