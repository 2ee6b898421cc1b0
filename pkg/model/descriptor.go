// Package model defines the wire-level descriptors exchanged across the
// loader boundary: the JSON shape a profile-data producer emits and
// internal/loader consumes to build an internal/profile.Set.
package model

// CounterKind names one of the merge disciplines a counter descriptor
// belongs to, using the same vocabulary as internal/profile.Kind so the
// loader can translate directly.
type CounterKind string

const (
	CounterArcs         CounterKind = "arcs"
	CounterPrefetch     CounterKind = "prefetch"
	CounterIO           CounterKind = "io"
	CounterIOR          CounterKind = "ior"
	CounterSingleValue  CounterKind = "single_value"
	CounterDelta        CounterKind = "delta"
	CounterDirectCall   CounterKind = "direct_call"
	CounterIndirectCall CounterKind = "indirect_call"
	CounterTimeProfile  CounterKind = "time_profile"
)

// Language tags a module's source language.
type Language string

const (
	LanguageC       Language = "c"
	LanguageCPP     Language = "cpp"
	LanguageUnknown Language = "unknown"
)

// CounterDescriptor is one counter array belonging to a function.
type CounterDescriptor struct {
	Kind   CounterKind `json:"kind"`
	Values []int64     `json:"values"`
}

// FunctionDescriptor is one function inside a module, identified within it
// by a dense 1-based ident.
type FunctionDescriptor struct {
	Ident          uint32              `json:"ident"`
	LinenoChecksum uint32              `json:"lineno_checksum"`
	CFGChecksum    uint32              `json:"cfg_checksum"`
	Counters       []CounterDescriptor `json:"counters"`
}

// ModuleDescriptor is one compilation module as emitted by the loader's
// producer.
type ModuleDescriptor struct {
	SourceFilename string               `json:"source_filename"`
	Ident          uint32               `json:"ident"`
	IsPrimary      bool                 `json:"is_primary,omitempty"`
	IsExported     bool                 `json:"is_exported,omitempty"`
	IncludeAllAux  bool                 `json:"include_all_aux,omitempty"`
	ContainsASM    bool                 `json:"contains_asm,omitempty"`
	Language       Language             `json:"language,omitempty"`
	GGCMemoryKB    uint32               `json:"ggc_memory_kb"`
	Functions      []FunctionDescriptor `json:"functions"`
}

// Params is the parameter block of spec §6, u32-valued tunables supplied
// alongside the module list.
type Params struct {
	LipoCutoff            int  `json:"lipo_cutoff"`
	LipoRandomSeed        int64 `json:"lipo_random_seed"`
	LipoRandomGroupSize   int  `json:"lipo_random_group_size"`
	LipoPropagateScale    int  `json:"lipo_propagate_scale"`
	LipoMaxMemKB          uint32 `json:"lipo_max_mem"`
	LipoComdatAlgorithm   int  `json:"lipo_comdat_algorithm"`
	LipoGroupingAlgorithm int  `json:"lipo_grouping_algorithm"`
	LipoMergeModuleEdges  bool `json:"lipo_merge_modu_edges"`
	LipoWeakInclusion     bool `json:"lipo_weak_inclusion"`
	LipoDumpCGraph        int  `json:"lipo_dump_cgraph"`
}

// Document is the single-file loader input: a module list plus the
// parameter block, the shape `lipo-cli group -i descriptors.json` expects.
type Document struct {
	Modules []ModuleDescriptor `json:"modules"`
	Params  Params             `json:"params,omitempty"`
}
