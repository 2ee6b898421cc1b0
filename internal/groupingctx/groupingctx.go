// Package groupingctx packages the tunables that the legacy
// implementation kept as module-level globals into a
// single value threaded through every pipeline entry point, per the
// "Global mutable state" design note.
package groupingctx

import (
	"os"
	"strconv"
	"strings"
)

// Algorithm selects which grouping strategy (component F or G) runs.
type Algorithm int

const (
	AlgorithmEager Algorithm = iota
	AlgorithmInclusionPriority
)

func (a Algorithm) String() string {
	if a == AlgorithmInclusionPriority {
		return "inclusion-priority"
	}
	return "eager"
}

// ComdatMode is the two-bit mode gating component H's two independent
// passes.
type ComdatMode int

const (
	ComdatRetarget      ComdatMode = 1
	ComdatZeroCountFixup ComdatMode = 2
)

// DumpMode records the requested textual/DOT dump of the call graph
// (GCOV_DYN_CGRAPH_DUMP). internal/engine does not read it and writes no
// call-graph dump.
type DumpMode int

const (
	DumpNone DumpMode = iota
	DumpText
	DumpDOT
)

// RandomGrouping holds the parsed LIPO_RANDOM_GROUPING override (seed and
// group size). internal/engine does not read it: grouping always runs the
// profile-driven algorithm selected by GroupingAlgorithm.
type RandomGrouping struct {
	Seed int64
	Size int
}

// Enabled reports whether a non-zero random group size was configured.
func (r RandomGrouping) Enabled() bool { return r.Size > 0 }

// Context is the single value carrying every tunable named in spec §6,
// replacing the C implementation's weak global symbols.
type Context struct {
	Cutoff             int // lipo_cutoff, 0-100; 100 means "use env or default 80"
	PMin               int // minimum-edge-count percentage paired with Cutoff
	PropagateScale     int // lipo_propagate_scale, percent, default 50
	MaxMemKB           uint32 // lipo_max_mem, kB; 0 means unlimited
	ComdatAlgorithm    ComdatMode
	GroupingAlgorithm  Algorithm
	MergeModuleEdges   bool
	WeakInclusion      bool
	DumpCGraph         DumpMode
	Random             RandomGrouping
}

// Default returns the parameter block's documented defaults.
func Default() *Context {
	return &Context{
		Cutoff:            80,
		PMin:              0,
		PropagateScale:    50,
		MaxMemKB:          0,
		ComdatAlgorithm:   ComdatRetarget | ComdatZeroCountFixup,
		GroupingAlgorithm: AlgorithmEager,
		DumpCGraph:        DumpNone,
	}
}

// ApplyEnvOverrides mutates c according to the environment-variable
// overrides documented in spec §6. Each variable only takes effect when
// present; absent variables leave the existing field (set from the
// parameter block or Default) untouched.
func (c *Context) ApplyEnvOverrides(getenv func(string) string) {
	if v := getenv("GCOV_DYN_ALG"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			if n == 1 {
				c.GroupingAlgorithm = AlgorithmInclusionPriority
			} else {
				c.GroupingAlgorithm = AlgorithmEager
			}
		}
	}
	if v := getenv("GCOV_DYN_MERGE_EDGES"); v != "" {
		c.MergeModuleEdges = v != "0"
	}
	if v := getenv("GCOV_DYN_WEAK_INCLUSION"); v != "" {
		c.WeakInclusion = v != "0"
	}
	if v := getenv("GCOV_DYN_IMPORT_SCALE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PropagateScale = n
		}
	}
	if v := getenv("GCOV_DYN_CGRAPH_CUTOFF"); v != "" {
		parts := strings.SplitN(v, ":", 2)
		if n, err := strconv.Atoi(parts[0]); err == nil {
			c.Cutoff = n
		}
		if len(parts) == 2 {
			if n, err := strconv.Atoi(parts[1]); err == nil {
				c.PMin = n
			}
		}
	}
	if v := getenv("GCOV_DYN_CGRAPH_DUMP"); v != "" {
		switch v {
		case "1":
			c.DumpCGraph = DumpText
		case "2":
			c.DumpCGraph = DumpDOT
		default:
			c.DumpCGraph = DumpNone
		}
	}
	if v := getenv("LIPO_RANDOM_GROUPING"); v != "" {
		parts := strings.SplitN(v, ":", 2)
		if len(parts) == 2 {
			seed, errSeed := strconv.ParseInt(parts[0], 10, 64)
			size, errSize := strconv.Atoi(parts[1])
			if errSeed == nil && errSize == nil {
				c.Random = RandomGrouping{Seed: seed, Size: size}
			}
		}
	}
	if v := getenv("GCOV_DYN_DO_FIXUP"); v != "" {
		if v == "0" {
			c.ComdatAlgorithm &^= ComdatZeroCountFixup
		} else {
			c.ComdatAlgorithm |= ComdatZeroCountFixup
		}
	}
}

// ApplyOSEnv is a convenience wrapper around ApplyEnvOverrides using the
// real process environment.
func (c *Context) ApplyOSEnv() { c.ApplyEnvOverrides(os.Getenv) }

// ResolvedCutoff returns the effective cutoff percentage: the documented
// sentinel value 100 means "use env or default 80".
func (c *Context) ResolvedCutoff() int {
	if c.Cutoff == 100 {
		return 80
	}
	return c.Cutoff
}

// EffectiveMemBudget returns MaxMemKB multiplied by 1.25, matching the
// "multiplied by 1.25 in practice" note in spec §4.G. A zero MaxMemKB means
// unlimited and is returned unchanged.
func (c *Context) EffectiveMemBudget() uint32 {
	if c.MaxMemKB == 0 {
		return 0
	}
	return c.MaxMemKB * 5 / 4
}

// DoZeroCountFixup reports whether H1 should run.
func (c *Context) DoZeroCountFixup() bool { return c.ComdatAlgorithm&ComdatZeroCountFixup != 0 }

// DoRetarget reports whether H2/I should run.
func (c *Context) DoRetarget() bool { return c.ComdatAlgorithm&ComdatRetarget != 0 }
