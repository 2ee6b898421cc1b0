package profile

// Set is the loaded in-memory profile: the full module list plus the
// read-only and mutating accessors the rest of the pipeline needs. It is
// immutable except for the flag bitfield, the counter arrays (mutated only
// by the COMDAT fixup and the retargeter), and each function's dirty bit.
type Set struct {
	modules   []*Module
	byModule  map[uint32]*Module
	malformed int // modules skipped by the loader before reaching the Set
}

// NewSet builds a Set from a module list. Module ids are assumed unique;
// callers (normally internal/loader) are responsible for deduplication
// before constructing the Set.
func NewSet(modules []*Module) *Set {
	s := &Set{
		modules:  modules,
		byModule: make(map[uint32]*Module, len(modules)),
	}
	for _, m := range modules {
		s.byModule[m.ModuleID] = m
	}
	return s
}

// Modules returns every loaded module, in load order.
func (s *Set) Modules() []*Module { return s.modules }

// Module looks up a module by id.
func (s *Set) Module(id uint32) (*Module, bool) {
	m, ok := s.byModule[id]
	return m, ok
}

// ModuleCount returns the number of loaded modules.
func (s *Set) ModuleCount() int { return len(s.modules) }

// MarkMalformed records that the loader dropped a malformed module
// descriptor before it reached the Set; exposed so the loader's stats show
// up alongside the builder's.
func (s *Set) MarkMalformed() { s.malformed++ }

// MalformedModules returns the count recorded via MarkMalformed.
func (s *Set) MalformedModules() int { return s.malformed }

// CounterArray fetches the counter array for (fn, kind), if present.
func (s *Set) CounterArray(fn *Function, kind Kind) ([]int64, bool) {
	c, ok := fn.Counter(kind)
	if !ok {
		return nil, false
	}
	return c.Values, true
}

// OverwriteCounter replaces fn's counter array for kind and marks fn dirty.
// This is the mutating half of the model, used by the COMDAT fixup (H) and
// the indirect-call retargeter (I).
func (s *Set) OverwriteCounter(fn *Function, kind Kind, values []int64) {
	c, ok := fn.Counter(kind)
	if !ok {
		fn.Counters = append(fn.Counters, Counter{Kind: kind, Values: values})
	} else {
		c.Values = values
	}
	fn.markDirty()
}

// AnyDirty reports whether any function in the set was mutated, the single
// boolean the external interface returns so a loader knows whether to
// re-emit data files.
func (s *Set) AnyDirty() bool {
	for _, m := range s.modules {
		for _, fn := range m.Functions {
			if fn.Dirty() {
				return true
			}
		}
	}
	return false
}

// GGCSize computes the total GGC-memory estimate of a set of module ids,
// the sole capacity metric used by the inclusion-priority budget check.
func (s *Set) GGCSize(moduleIDs map[uint32]struct{}) uint32 {
	var total uint32
	for id := range moduleIDs {
		if m, ok := s.byModule[id]; ok {
			total += m.GGCMemoryKB
		}
	}
	return total
}
