// Package stats ranks a finished export.Result by edge weight and by
// group size, the LIPO analogue of the teacher's internal/statistics
// top-N sort-and-truncate shape, re-targeted from sample counts to
// aux-module weights.
package stats

import (
	"sort"

	"github.com/lipo-groupgen/internal/export"
)

// EdgeEntry is one (module, aux-module) pair ranked by weight.
type EdgeEntry struct {
	ModuleID    uint32
	AuxModuleID uint32
	SourceFile  string
	Weight      int64
}

// ModuleEntry is one module ranked by the size of its aux list.
type ModuleEntry struct {
	ModuleID       uint32
	SourceFilename string
	AuxCount       int
	TotalWeight    int64
}

// Calculator ranks a Result's edges and modules, analogous to the
// teacher's TopFuncsCalculator.
type Calculator struct {
	topN int
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithTopN sets how many entries TopEdges/TopModules return.
func WithTopN(n int) Option {
	return func(c *Calculator) { c.topN = n }
}

// NewCalculator creates a Calculator defaulting to the top 15 entries.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{topN: 15}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TopEdges returns the topN heaviest (module, aux) edges across result,
// sorted by weight descending, ties broken by module id then aux id
// ascending.
func (c *Calculator) TopEdges(result *export.Result) []EdgeEntry {
	entries := make([]EdgeEntry, 0)
	if result == nil {
		return entries
	}
	for _, m := range result.Modules {
		for _, aux := range m.Aux {
			entries = append(entries, EdgeEntry{
				ModuleID:    m.ModuleID,
				AuxModuleID: aux.ModuleID,
				SourceFile:  aux.SourceFilename,
				Weight:      aux.Weight,
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Weight != entries[j].Weight {
			return entries[i].Weight > entries[j].Weight
		}
		if entries[i].ModuleID != entries[j].ModuleID {
			return entries[i].ModuleID < entries[j].ModuleID
		}
		return entries[i].AuxModuleID < entries[j].AuxModuleID
	})
	if len(entries) > c.topN {
		entries = entries[:c.topN]
	}
	return entries
}

// TopModules returns the topN modules by aux-list size (ties broken by
// total aux weight, then module id ascending).
func (c *Calculator) TopModules(result *export.Result) []ModuleEntry {
	entries := make([]ModuleEntry, 0)
	if result == nil {
		return entries
	}
	for _, m := range result.Modules {
		var total int64
		for _, aux := range m.Aux {
			total += aux.Weight
		}
		entries = append(entries, ModuleEntry{
			ModuleID:       m.ModuleID,
			SourceFilename: m.SourceFilename,
			AuxCount:       len(m.Aux),
			TotalWeight:    total,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AuxCount != entries[j].AuxCount {
			return entries[i].AuxCount > entries[j].AuxCount
		}
		if entries[i].TotalWeight != entries[j].TotalWeight {
			return entries[i].TotalWeight > entries[j].TotalWeight
		}
		return entries[i].ModuleID < entries[j].ModuleID
	})
	if len(entries) > c.topN {
		entries = entries[:c.topN]
	}
	return entries
}
