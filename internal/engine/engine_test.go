package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lipo-groupgen/internal/groupingctx"
	"github.com/lipo-groupgen/internal/profile"
)

func twoModuleDirectCallSet(weight int64) *profile.Set {
	m1 := profile.NewModule(1, "m1.c", 100)
	m1.AddFunction(&profile.Function{FunctionID: 1, Counters: []profile.Counter{{
		Kind:   profile.KindDirectCall,
		Values: []int64{int64(profile.MakeGUID(2, 1)), weight},
	}}})
	m2 := profile.NewModule(2, "m2.c", 100)
	m2.AddFunction(&profile.Function{FunctionID: 1})
	return profile.NewSet([]*profile.Module{m1, m2})
}

func TestRunEagerEndToEnd(t *testing.T) {
	set := twoModuleDirectCallSet(1000)
	cctx := groupingctx.Default()

	out, err := New(nil).Run(context.Background(), set, cctx)
	require.NoError(t, err)
	require.Len(t, out.Modules, 2)
	// No checksum-alias classes or indirect-call counters exist in this
	// fixture, so neither COMDAT pass has anything to mutate.
	require.False(t, out.Mutated)
}

func TestRunInclusionPriorityEndToEnd(t *testing.T) {
	set := twoModuleDirectCallSet(1000)
	cctx := groupingctx.Default()
	cctx.GroupingAlgorithm = groupingctx.AlgorithmInclusionPriority

	out, err := New(nil).Run(context.Background(), set, cctx)
	require.NoError(t, err)

	m1, ok := out.Module(1)
	require.True(t, ok)
	require.Len(t, m1.Aux, 1)
	require.Equal(t, uint32(2), m1.Aux[0].ModuleID)
	require.True(t, m1.IncludeAllAux)
}

func TestRunRespectsMemoryBudget(t *testing.T) {
	set := twoModuleDirectCallSet(1000)
	cctx := groupingctx.Default()
	cctx.GroupingAlgorithm = groupingctx.AlgorithmInclusionPriority
	cctx.MaxMemKB = 10 // far below either module's own 100kB size

	out, err := New(nil).Run(context.Background(), set, cctx)
	require.NoError(t, err)

	m1, ok := out.Module(1)
	require.True(t, ok)
	require.Empty(t, m1.Aux)
}

func TestRunWithComdatDisabledStillGroups(t *testing.T) {
	set := twoModuleDirectCallSet(1000)
	cctx := groupingctx.Default()
	cctx.ComdatAlgorithm = 0

	out, err := New(nil).Run(context.Background(), set, cctx)
	require.NoError(t, err)
	require.False(t, out.Mutated)
}
