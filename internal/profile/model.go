package profile

// GUID is the global function identity: module_id in the high 32 bits,
// function_id in the low 32 bits.
type GUID int64

// MakeGUID builds a GUID from a module id and an intra-module function id.
func MakeGUID(moduleID, functionID uint32) GUID {
	return GUID(int64(moduleID)<<32 | int64(functionID))
}

// ModuleID extracts the module id half of the GUID.
func (g GUID) ModuleID() uint32 { return uint32(int64(g) >> 32) }

// FunctionID extracts the function id half of the GUID.
func (g GUID) FunctionID() uint32 { return uint32(int64(g)) }

// Language tags the source language of a module, used only for diagnostics.
type Language int

const (
	LanguageUnknown Language = iota
	LanguageC
	LanguageCPP
)

// Flags is the module flag bitfield.
type Flags uint32

const (
	FlagIsPrimary Flags = 1 << iota
	FlagIsExported
	FlagIncludeAllAux
	FlagContainsASM
)

// Counter is one counter array belonging to a function, tagged by kind.
type Counter struct {
	Kind   Kind
	Values []int64
}

// Function is one function inside a module, addressed within the module by
// a dense 1-based FunctionID.
type Function struct {
	FunctionID     uint32
	LinenoChecksum uint32
	CFGChecksum    uint32
	Counters       []Counter

	dirty bool
}

// GUID returns this function's global identity within moduleID.
func (f *Function) GUID(moduleID uint32) GUID { return MakeGUID(moduleID, f.FunctionID) }

// Counter returns the counter array of the given kind, if present.
func (f *Function) Counter(kind Kind) (*Counter, bool) {
	for i := range f.Counters {
		if f.Counters[i].Kind == kind {
			return &f.Counters[i], true
		}
	}
	return nil, false
}

// Dirty reports whether this function's counters were mutated since load.
func (f *Function) Dirty() bool { return f.dirty }

// markDirty records that a rewriter mutated this function's counters.
func (f *Function) markDirty() { f.dirty = true }

// Module is one compilation module: a source file's worth of functions plus
// the merge-discipline vector describing which counter kinds it carries.
type Module struct {
	ModuleID       uint32
	SourceFilename string
	Flags          Flags
	Language       Language
	GGCMemoryKB    uint32
	ActiveKinds    []Kind
	Functions      []*Function

	maxFunctionID uint32
}

// NewModule constructs an empty module, computing MaxFunctionID as
// functions are added via AddFunction.
func NewModule(id uint32, sourceFilename string, ggcMemoryKB uint32) *Module {
	return &Module{
		ModuleID:       id,
		SourceFilename: sourceFilename,
		GGCMemoryKB:    ggcMemoryKB,
	}
}

// AddFunction appends fn to the module and tracks the running max function
// id, used by the builder's "function_id too high" sanity check.
func (m *Module) AddFunction(fn *Function) {
	m.Functions = append(m.Functions, fn)
	if fn.FunctionID > m.maxFunctionID {
		m.maxFunctionID = fn.FunctionID
	}
}

// MaxFunctionID returns the largest function id registered in this module.
func (m *Module) MaxFunctionID() uint32 { return m.maxFunctionID }

// HasKind reports whether kind is active (present) in this module.
func (m *Module) HasKind(kind Kind) bool {
	for _, k := range m.ActiveKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Function looks up a function by its intra-module id.
func (m *Module) Function(functionID uint32) (*Function, bool) {
	for _, fn := range m.Functions {
		if fn.FunctionID == functionID {
			return fn, true
		}
	}
	return nil, false
}

func (m *Module) IsPrimary() bool       { return m.Flags&FlagIsPrimary != 0 }
func (m *Module) IsExported() bool      { return m.Flags&FlagIsExported != 0 }
func (m *Module) IncludeAllAux() bool   { return m.Flags&FlagIncludeAllAux != 0 }
func (m *Module) SetExported()          { m.Flags |= FlagIsExported }
func (m *Module) SetIncludeAllAux()     { m.Flags |= FlagIncludeAllAux }
