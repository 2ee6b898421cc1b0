// Package export implements component J: flattening each module's
// grouping result into the sorted per-module aux list the rest of a build
// system consumes, plus the textual/DOT/JSON dump writers.
package export

import (
	"sort"

	"github.com/lipo-groupgen/internal/grouping"
	"github.com/lipo-groupgen/internal/profile"
)

// AuxModule is one entry of a module's sorted auxiliary-module list.
type AuxModule struct {
	ModuleID       uint32 `json:"module_id"`
	SourceFilename string `json:"source_filename"`
	Weight         int64  `json:"weight"`
}

// ModuleExport is the finished per-module view: the primary module plus
// its ordered aux list and inclusion flags.
type ModuleExport struct {
	ModuleID       uint32      `json:"module_id"`
	SourceFilename string      `json:"source_filename"`
	IsExported     bool        `json:"is_exported"`
	IncludeAllAux  bool        `json:"include_all_aux"`
	Aux            []AuxModule `json:"aux"`
}

// Result is the full export: one ModuleExport per loaded module, plus the
// single mutated bit the external interface returns.
type Result struct {
	Modules []ModuleExport `json:"modules"`
	Mutated bool           `json:"mutated"`
}

// Groups satisfies comdat.ModuleGroups over a grouping.Result, the adapter
// that lets the retargeter consult "is otherModuleID in moduleID's group"
// without internal/comdat needing to import internal/grouping.
type Groups struct {
	result grouping.Result
}

// Adapt wraps a grouping.Result as a Groups value.
func Adapt(result grouping.Result) Groups { return Groups{result: result} }

// InGroup reports whether otherModuleID is in moduleID's import set.
func (g Groups) InGroup(moduleID, otherModuleID uint32) bool {
	grp, ok := g.result[moduleID]
	if !ok {
		return false
	}
	return grp.Contains(otherModuleID)
}

// Serialize flattens a grouping.Result into the sorted per-module view
// (spec §4.J): weight descending, ties broken by module id ascending, self
// excluded from Aux (it is implicit as ModuleExport.ModuleID), and the
// include-all-aux bit set on every module when the inclusion-priority
// algorithm produced the result.
func Serialize(set *profile.Set, result grouping.Result, mutated bool, isInclusionPriority bool) Result {
	out := Result{Mutated: mutated}
	for _, m := range set.Modules() {
		g, ok := result[m.ModuleID]
		if !ok {
			continue
		}
		me := ModuleExport{
			ModuleID:       m.ModuleID,
			SourceFilename: m.SourceFilename,
			IsExported:     g.IsExported(),
			IncludeAllAux:  isInclusionPriority,
		}
		g.Imports.Traverse(func(imp grouping.Import) bool {
			if imp.ModuleID == m.ModuleID {
				return true
			}
			src := ""
			if other, ok := set.Module(imp.ModuleID); ok {
				src = other.SourceFilename
			}
			me.Aux = append(me.Aux, AuxModule{ModuleID: imp.ModuleID, SourceFilename: src, Weight: imp.Weight})
			return true
		})
		sort.Slice(me.Aux, func(i, j int) bool {
			if me.Aux[i].Weight != me.Aux[j].Weight {
				return me.Aux[i].Weight > me.Aux[j].Weight
			}
			return me.Aux[i].ModuleID < me.Aux[j].ModuleID
		})
		out.Modules = append(out.Modules, me)
	}
	sort.Slice(out.Modules, func(i, j int) bool { return out.Modules[i].ModuleID < out.Modules[j].ModuleID })
	return out
}

// Module looks up one module's export by id.
func (r Result) Module(id uint32) (ModuleExport, bool) {
	for _, m := range r.Modules {
		if m.ModuleID == id {
			return m, true
		}
	}
	return ModuleExport{}, false
}
