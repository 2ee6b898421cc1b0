// Package grouping implements the two dynamic module-grouping algorithms:
// eager propagation (component F) and inclusion-priority (component G).
// Both produce the same output shape so downstream export stays
// algorithm-agnostic.
package grouping

import "github.com/lipo-groupgen/internal/keyedset"

// Import is one entry of a module's imported-module set: the imported
// module's id and the accumulated weight it was imported with. This is the
// element type of Group.Imports, a keyed set rather than a plain map:
// insertion with an existing key accumulates the weight, it does not
// replace it.
type Import struct {
	ModuleID uint32
	Weight   int64
}

func importKey(imp Import) uint32 { return imp.ModuleID }

func moduleIDHash(id uint32) uint64 { return keyedset.Uint64Hash(uint64(id)) }

// Group is one module's grouping result: its imported-module set and
// whether any other module exports to it.
type Group struct {
	ModuleID   uint32
	Imports    *keyedset.Set[uint32, Import] // self included at weight 0
	ExportedTo map[uint32]bool               // modules that import this one
}

func newGroup(moduleID uint32) *Group {
	g := &Group{
		ModuleID:   moduleID,
		Imports:    keyedset.New[uint32, Import](importKey, moduleIDHash),
		ExportedTo: map[uint32]bool{},
	}
	g.Imports.Insert(Import{ModuleID: moduleID, Weight: 0})
	return g
}

// IsExported reports whether any other module imports this group's module.
func (g *Group) IsExported() bool { return len(g.ExportedTo) > 0 }

// accumulate adds weight to the entry for moduleID, creating it if absent.
// This is the "insertion with an existing key accumulates" rule the spec
// attaches to imported-module entries.
func (g *Group) accumulate(moduleID uint32, weight int64) {
	existing, _ := g.Imports.Get(moduleID)
	existing.ModuleID = moduleID
	existing.Weight += weight
	g.Imports.Insert(existing)
}

// Weight returns the accumulated weight for moduleID, if present.
func (g *Group) Weight(moduleID uint32) (int64, bool) {
	imp, ok := g.Imports.Get(moduleID)
	return imp.Weight, ok
}

// Contains reports whether moduleID is present in this group's import set.
func (g *Group) Contains(moduleID uint32) bool {
	return g.Imports.Contains(moduleID)
}

// Result is the full grouping output: one Group per loaded module.
type Result map[uint32]*Group

func newResult(moduleIDs []uint32) Result {
	r := make(Result, len(moduleIDs))
	for _, id := range moduleIDs {
		r[id] = newGroup(id)
	}
	return r
}
