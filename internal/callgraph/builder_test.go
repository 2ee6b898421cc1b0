package callgraph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lipo-groupgen/internal/comdat"
	"github.com/lipo-groupgen/internal/profile"
)

func oneFnModule(id uint32, ggc uint32, fnID uint32, counters ...profile.Counter) *profile.Module {
	m := profile.NewModule(id, "m.c", ggc)
	fn := &profile.Function{FunctionID: fnID, Counters: counters}
	m.AddFunction(fn)
	for _, c := range counters {
		if !m.HasKind(c.Kind) {
			m.ActiveKinds = append(m.ActiveKinds, c.Kind)
		}
	}
	return m
}

func TestBuildDirectCallEdge(t *testing.T) {
	m1 := oneFnModule(1, 100, 1, profile.Counter{
		Kind:   profile.KindDirectCall,
		Values: []int64{int64(profile.MakeGUID(2, 1)), 1000},
	})
	m2 := oneFnModule(2, 100, 1)
	set := profile.NewSet([]*profile.Module{m1, m2})

	g := NewBuilder(nil).Build(set)
	edges := g.AllEdges()
	require.Len(t, edges, 1)
	require.Equal(t, int64(1000), edges[0].Weight)
	require.False(t, edges[0].Indirect)
	require.Equal(t, uint32(1), edges[0].Caller.ModuleID)
	require.Equal(t, uint32(2), edges[0].Callee.ModuleID)
}

func TestBuildZeroCountDropped(t *testing.T) {
	m1 := oneFnModule(1, 100, 1, profile.Counter{
		Kind:   profile.KindDirectCall,
		Values: []int64{int64(profile.MakeGUID(2, 1)), 0},
	})
	m2 := oneFnModule(2, 100, 1)
	set := profile.NewSet([]*profile.Module{m1, m2})

	g := NewBuilder(nil).Build(set)
	require.Empty(t, g.AllEdges())
	require.EqualValues(t, 1, g.TotalZeroCount)
}

func TestBuildInsaneTargetDropped(t *testing.T) {
	m1 := oneFnModule(1, 100, 1, profile.Counter{
		Kind:   profile.KindDirectCall,
		Values: []int64{int64(profile.MakeGUID(99, 1)), 5},
	})
	m2 := oneFnModule(2, 100, 1)
	set := profile.NewSet([]*profile.Module{m1, m2})

	g := NewBuilder(nil).Build(set)
	require.Empty(t, g.AllEdges())
	require.EqualValues(t, 1, g.TotalInsaneCount)
}

func TestBuildIndirectCallSkipsEvictionScalar(t *testing.T) {
	m1 := oneFnModule(1, 100, 1, profile.Counter{
		Kind: profile.KindIndirectCall,
		// slot 0 is the eviction scalar; the (guid, count) pair starts at slot 1.
		Values: []int64{0, int64(profile.MakeGUID(2, 1)), 42},
	})
	m2 := oneFnModule(2, 100, 1)
	set := profile.NewSet([]*profile.Module{m1, m2})

	g := NewBuilder(nil).Build(set)
	edges := g.AllEdges()
	require.Len(t, edges, 1)
	require.Equal(t, int64(42), edges[0].Weight)
	require.True(t, edges[0].Indirect)
	require.Equal(t, uint32(2), edges[0].Callee.ModuleID)
}

func TestBuildArcsRegistersZeroCountAlias(t *testing.T) {
	m1 := oneFnModule(1, 100, 1, profile.Counter{Kind: profile.KindArcs, Values: []int64{0, 0, 0}})
	m1.Functions[0].LinenoChecksum = 7
	m1.Functions[0].CFGChecksum = 9
	set := profile.NewSet([]*profile.Module{m1})

	aliases := comdat.NewAliasTable()
	g := NewBuilder(aliases).Build(set)
	require.EqualValues(t, 0, g.NumNodesExecuted)

	class := aliases.Class(7, 9)
	require.Len(t, class, 1)
	require.True(t, class[0].ZeroCountFixup)
}

func TestCutoffMonotonicity(t *testing.T) {
	edges := []*Edge{
		{Weight: 100}, {Weight: 90}, {Weight: 50}, {Weight: 10}, {Weight: 1},
	}
	low := Cutoff(edges, CutoffParams{PCut: 10, PMin: 0})
	high := Cutoff(edges, CutoffParams{PCut: 90, PMin: 0})
	require.GreaterOrEqual(t, low, high)
}

func TestCutoffEmpty(t *testing.T) {
	require.Equal(t, int64(0), Cutoff(nil, CutoffParams{PCut: 80, PMin: 50}))
}
