package comdat

import "github.com/lipo-groupgen/internal/profile"

// ModuleGroups answers "which modules are in module id's group", the only
// fact the retargeter needs from the grouping output. internal/engine
// adapts a grouping.Result to this interface so this package never needs
// to import internal/grouping.
type ModuleGroups interface {
	InGroup(moduleID, otherModuleID uint32) bool
}

// Retargeter implements H2 / component I: rewriting indirect-call top-N
// entries whose target left the caller's module group, when exactly one
// same-checksum alias exists inside that group.
type Retargeter struct {
	set     *profile.Set
	aliases *AliasTable
	groups  ModuleGroups
}

// NewRetargeter returns a Retargeter bound to set, the alias table the
// builder populated, and the finalised grouping output.
func NewRetargeter(set *profile.Set, aliases *AliasTable, groups ModuleGroups) *Retargeter {
	return &Retargeter{set: set, aliases: aliases, groups: groups}
}

// Run must be called after grouping is finalised, since it consults each
// caller's module group.
func (r *Retargeter) Run() (mutated bool) {
	if r.aliases == nil {
		return false
	}
	for _, m := range r.set.Modules() {
		for _, fn := range m.Functions {
			c, ok := fn.Counter(profile.KindIndirectCall)
			if !ok {
				continue
			}
			if r.retargetFunction(m.ModuleID, c) {
				mutated = true
				fn.Counters = replaceCounter(fn.Counters, *c)
			}
		}
	}
	return mutated
}

func replaceCounter(counters []profile.Counter, updated profile.Counter) []profile.Counter {
	for i := range counters {
		if counters[i].Kind == updated.Kind {
			counters[i] = updated
		}
	}
	return counters
}

func (r *Retargeter) retargetFunction(callerModuleID uint32, c *profile.Counter) bool {
	if len(c.Values) < 1 {
		return false
	}
	entries := c.Values[1:] // skip the single eviction scalar
	n := len(entries) / 2 * 2
	mutated := false
	for i := 0; i+1 < n; i += 2 {
		guid := profile.GUID(entries[i])
		if guid == 0 {
			continue
		}
		if r.groups.InGroup(callerModuleID, guid.ModuleID()) {
			continue
		}
		target, ok := r.uniqueAliasInGroup(guid, callerModuleID)
		if !ok {
			continue
		}
		entries[i] = int64(target)
		mutated = true
	}
	return mutated
}

// uniqueAliasInGroup looks up guid's checksum-alias class and returns the
// single member whose module is now part of callerModuleID's group (the
// set of modules C can call into directly post-grouping), if exactly one
// exists (invariant 8).
func (r *Retargeter) uniqueAliasInGroup(guid profile.GUID, callerModuleID uint32) (profile.GUID, bool) {
	m, ok := r.set.Module(guid.ModuleID())
	if !ok {
		return 0, false
	}
	fn, ok := m.Function(guid.FunctionID())
	if !ok {
		return 0, false
	}
	class := r.aliases.ClassOf(fn)

	var found profile.GUID
	count := 0
	for _, entry := range class {
		if r.groups.InGroup(callerModuleID, entry.GUID.ModuleID()) {
			found = entry.GUID
			count++
		}
	}
	if count != 1 {
		return 0, false
	}
	return found, true
}
