package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lipo-groupgen/internal/grouping"
	"github.com/lipo-groupgen/internal/keyedset"
	"github.com/lipo-groupgen/internal/profile"
)

func imports(weights map[uint32]int64) *keyedset.Set[uint32, grouping.Import] {
	s := keyedset.New[uint32, grouping.Import](
		func(imp grouping.Import) uint32 { return imp.ModuleID },
		func(id uint32) uint64 { return keyedset.Uint64Hash(uint64(id)) },
	)
	for id, w := range weights {
		s.Insert(grouping.Import{ModuleID: id, Weight: w})
	}
	return s
}

func buildTwoModuleSet() *profile.Set {
	m1 := profile.NewModule(1, "a.c", 100)
	m1.AddFunction(&profile.Function{FunctionID: 1})
	m2 := profile.NewModule(2, "b.c", 200)
	m2.AddFunction(&profile.Function{FunctionID: 1})
	return profile.NewSet([]*profile.Module{m1, m2})
}

func TestSerializeSortsByWeightThenModuleID(t *testing.T) {
	set := buildTwoModuleSet()
	m3 := profile.NewModule(3, "c.c", 50)
	set = profile.NewSet(append(set.Modules(), m3))

	result := grouping.Result{
		1: {ModuleID: 1, Imports: imports(map[uint32]int64{1: 0, 2: 500, 3: 500}), ExportedTo: map[uint32]bool{}},
		2: {ModuleID: 2, Imports: imports(map[uint32]int64{2: 0}), ExportedTo: map[uint32]bool{1: true}},
		3: {ModuleID: 3, Imports: imports(map[uint32]int64{3: 0}), ExportedTo: map[uint32]bool{1: true}},
	}

	out := Serialize(set, result, false, true)
	m1, ok := out.Module(1)
	require.True(t, ok)
	require.Len(t, m1.Aux, 2)
	require.Equal(t, uint32(2), m1.Aux[0].ModuleID) // tie broken by module id ascending
	require.Equal(t, uint32(3), m1.Aux[1].ModuleID)
}

func TestTextWriterFormat(t *testing.T) {
	set := buildTwoModuleSet()
	result := grouping.Result{
		1: {ModuleID: 1, Imports: imports(map[uint32]int64{1: 0, 2: 10}), ExportedTo: map[uint32]bool{}},
		2: {ModuleID: 2, Imports: imports(map[uint32]int64{2: 0}), ExportedTo: map[uint32]bool{1: true}},
	}
	out := Serialize(set, result, false, false)

	var buf bytes.Buffer
	require.NoError(t, TextWriter{}.WriteModule(out, 1, &buf))
	require.Equal(t, "b.c\n", buf.String())
}

func TestGroupsAdapter(t *testing.T) {
	result := grouping.Result{
		1: {ModuleID: 1, Imports: imports(map[uint32]int64{1: 0, 2: 10}), ExportedTo: map[uint32]bool{}},
	}
	g := Adapt(result)
	require.True(t, g.InGroup(1, 2))
	require.False(t, g.InGroup(1, 3))
	require.False(t, g.InGroup(99, 1))
}
