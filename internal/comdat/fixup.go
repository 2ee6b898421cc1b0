package comdat

import "github.com/lipo-groupgen/internal/profile"

// Fixup implements H1, the zero-count counter fixup: for every checksum
// equivalence class, merge the non-zero copies' counters and overwrite
// every zero-count copy with the merged result.
type Fixup struct {
	set     *profile.Set
	aliases *AliasTable
}

// NewFixup returns a Fixup bound to set and the alias table the call-graph
// builder populated while walking arcs counters.
func NewFixup(set *profile.Set, aliases *AliasTable) *Fixup {
	return &Fixup{set: set, aliases: aliases}
}

// Run walks every equivalence class once. It is idempotent: each
// overwritten copy has its ZeroCountFixup flag cleared, so a second call
// finds no zero-count copies left and changes nothing, per invariant 9.
func (f *Fixup) Run() (mutated bool) {
	if f.aliases == nil {
		return false
	}
	seen := map[*aliasClass]bool{}
	f.aliases.classes.Traverse(func(class *aliasClass) bool {
		if seen[class] {
			return true
		}
		seen[class] = true
		if f.fixupClass(class.entries) {
			mutated = true
		}
		return true
	})
	return mutated
}

func (f *Fixup) fixupClass(entries []*AliasEntry) bool {
	var nonZero []*AliasEntry
	var zero []*AliasEntry
	for _, e := range entries {
		if e.ZeroCountFixup {
			zero = append(zero, e)
		} else {
			nonZero = append(nonZero, e)
		}
	}
	if len(zero) == 0 || len(nonZero) == 0 {
		return false
	}

	merged := map[profile.Kind][]int64{}
	for _, e := range nonZero {
		for _, c := range e.Function.Counters {
			existing, ok := merged[c.Kind]
			if !ok {
				merged[c.Kind] = append([]int64(nil), c.Values...)
				continue
			}
			merged[c.Kind] = c.Kind.Merge(existing, c.Values)
		}
	}

	mutated := false
	for _, e := range zero {
		for kind, values := range merged {
			cp := append([]int64(nil), values...)
			f.set.OverwriteCounter(e.Function, kind, cp)
			mutated = true
		}
		e.ZeroCountFixup = false
	}
	return mutated
}
