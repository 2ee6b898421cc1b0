package comdat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lipo-groupgen/internal/profile"
)

func TestFixupMergesNonZeroIntoZero(t *testing.T) {
	m1 := profile.NewModule(1, "m1.c", 100)
	f1 := &profile.Function{FunctionID: 1, LinenoChecksum: 7, CFGChecksum: 9,
		Counters: []profile.Counter{{Kind: profile.KindArcs, Values: []int64{0, 0, 0}}}}
	m1.AddFunction(f1)

	m2 := profile.NewModule(2, "m2.c", 100)
	f2 := &profile.Function{FunctionID: 1, LinenoChecksum: 7, CFGChecksum: 9,
		Counters: []profile.Counter{{Kind: profile.KindArcs, Values: []int64{3, 5, 2}}}}
	m2.AddFunction(f2)

	set := profile.NewSet([]*profile.Module{m1, m2})
	aliases := NewAliasTable()
	aliases.Register(f1.GUID(1), f1, true)
	aliases.Register(f2.GUID(2), f2, false)

	fixup := NewFixup(set, aliases)
	mutated := fixup.Run()
	require.True(t, mutated)

	c, ok := f1.Counter(profile.KindArcs)
	require.True(t, ok)
	require.Equal(t, []int64{3, 5, 2}, c.Values)
}

func TestFixupIdempotent(t *testing.T) {
	m1 := profile.NewModule(1, "m1.c", 100)
	f1 := &profile.Function{FunctionID: 1, LinenoChecksum: 7, CFGChecksum: 9,
		Counters: []profile.Counter{{Kind: profile.KindArcs, Values: []int64{0, 0, 0}}}}
	m1.AddFunction(f1)
	m2 := profile.NewModule(2, "m2.c", 100)
	f2 := &profile.Function{FunctionID: 1, LinenoChecksum: 7, CFGChecksum: 9,
		Counters: []profile.Counter{{Kind: profile.KindArcs, Values: []int64{3, 5, 2}}}}
	m2.AddFunction(f2)
	set := profile.NewSet([]*profile.Module{m1, m2})
	aliases := NewAliasTable()
	aliases.Register(f1.GUID(1), f1, true)
	aliases.Register(f2.GUID(2), f2, false)

	fixup := NewFixup(set, aliases)
	fixup.Run()
	before, _ := f1.Counter(profile.KindArcs)
	beforeValues := append([]int64(nil), before.Values...)

	fixup.Run()
	after, _ := f1.Counter(profile.KindArcs)
	require.Equal(t, beforeValues, after.Values)
}

type fakeGroups struct {
	groups map[uint32]map[uint32]bool
}

func (f *fakeGroups) InGroup(moduleID, otherModuleID uint32) bool {
	return f.groups[moduleID][otherModuleID]
}

func TestRetargetRewritesUniqueAlias(t *testing.T) {
	m1 := profile.NewModule(1, "m1.c", 100)
	f1 := &profile.Function{
		FunctionID: 1,
		Counters: []profile.Counter{{
			Kind:   profile.KindIndirectCall,
			Values: []int64{0, int64(profile.MakeGUID(3, 1)), 20}, // slot 0 is the eviction scalar
		}},
	}
	m1.AddFunction(f1)

	m2 := profile.NewModule(2, "m2.c", 100)
	f2 := &profile.Function{FunctionID: 1, LinenoChecksum: 11, CFGChecksum: 22}
	m2.AddFunction(f2)

	m3 := profile.NewModule(3, "m3.c", 100)
	f3 := &profile.Function{FunctionID: 1, LinenoChecksum: 11, CFGChecksum: 22}
	m3.AddFunction(f3)

	set := profile.NewSet([]*profile.Module{m1, m2, m3})
	aliases := NewAliasTable()
	aliases.Register(f2.GUID(2), f2, false)
	aliases.Register(f3.GUID(3), f3, false)

	groups := &fakeGroups{groups: map[uint32]map[uint32]bool{
		1: {1: true, 2: true},
	}}

	mutated := NewRetargeter(set, aliases, groups).Run()
	require.True(t, mutated)

	c, _ := f1.Counter(profile.KindIndirectCall)
	require.Equal(t, int64(profile.MakeGUID(2, 1)), c.Values[1])
	require.Equal(t, int64(20), c.Values[2])
}

func TestRetargetSkipsWhenAmbiguous(t *testing.T) {
	m1 := profile.NewModule(1, "m1.c", 100)
	f1 := &profile.Function{
		FunctionID: 1,
		Counters: []profile.Counter{{
			Kind:   profile.KindIndirectCall,
			Values: []int64{0, int64(profile.MakeGUID(3, 1)), 20}, // slot 0 is the eviction scalar
		}},
	}
	m1.AddFunction(f1)
	m2 := profile.NewModule(2, "m2.c", 100)
	f2a := &profile.Function{FunctionID: 1, LinenoChecksum: 11, CFGChecksum: 22}
	f2b := &profile.Function{FunctionID: 2, LinenoChecksum: 11, CFGChecksum: 22}
	m2.AddFunction(f2a)
	m2.AddFunction(f2b)
	m3 := profile.NewModule(3, "m3.c", 100)
	f3 := &profile.Function{FunctionID: 1, LinenoChecksum: 11, CFGChecksum: 22}
	m3.AddFunction(f3)

	set := profile.NewSet([]*profile.Module{m1, m2, m3})
	aliases := NewAliasTable()
	aliases.Register(f2a.GUID(2), f2a, false)
	aliases.Register(f2b.GUID(2), f2b, false)
	aliases.Register(f3.GUID(3), f3, false)

	groups := &fakeGroups{groups: map[uint32]map[uint32]bool{
		1: {1: true, 2: true},
	}}

	mutated := NewRetargeter(set, aliases, groups).Run()
	require.False(t, mutated)
}
