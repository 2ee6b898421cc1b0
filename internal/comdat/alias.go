// Package comdat implements the COMDAT counter fixup (component H) and the
// indirect-call retargeter (component I): the two post-grouping passes
// that keep profile counters and indirect-call targets consistent when the
// same source function appears as multiple linker-selected copies across
// modules.
package comdat

import (
	"github.com/lipo-groupgen/internal/keyedset"
	"github.com/lipo-groupgen/internal/profile"
)

// checksumKey identifies an equivalence class of functions that are
// semantically the same source function emitted into multiple modules.
type checksumKey struct {
	lineno uint32
	cfg    uint32
}

// AliasEntry is one member of a checksum-equivalence class.
type AliasEntry struct {
	GUID         profile.GUID
	Function     *profile.Function
	ZeroCountFixup bool // set by the builder when this copy's arcs sum to zero
}

// AliasTable is the two-level checksum-alias map of spec §3: lineno
// checksum to cfg checksum to the list of equivalent copies. It is
// populated while the call graph is built (component D, step 2's arcs
// handling) and consumed by the COMDAT fixup and the indirect-call
// retargeter.
type AliasTable struct {
	classes *keyedset.Set[uint64, *aliasClass]
}

type aliasClass struct {
	key     checksumKey
	entries []*AliasEntry
}

func classKeyOf(c *aliasClass) uint64 {
	return uint64(c.key.lineno)<<32 | uint64(c.key.cfg)
}

// NewAliasTable returns an empty table.
func NewAliasTable() *AliasTable {
	return &AliasTable{classes: keyedset.New[uint64, *aliasClass](classKeyOf, keyedset.Uint64Hash)}
}

// Register adds fn (identified by guid) to the equivalence class keyed by
// its (lineno, cfg) checksums, creating the class if needed.
func (t *AliasTable) Register(guid profile.GUID, fn *profile.Function, zeroCount bool) *AliasEntry {
	key := checksumKey{lineno: fn.LinenoChecksum, cfg: fn.CFGChecksum}
	k := uint64(key.lineno)<<32 | uint64(key.cfg)
	class, ok := t.classes.Get(k)
	if !ok {
		class = &aliasClass{key: key}
		t.classes.Insert(class)
	}
	entry := &AliasEntry{GUID: guid, Function: fn, ZeroCountFixup: zeroCount}
	class.entries = append(class.entries, entry)
	return entry
}

// Class returns every registered entry with the given (lineno, cfg)
// checksums.
func (t *AliasTable) Class(lineno, cfg uint32) []*AliasEntry {
	k := uint64(lineno)<<32 | uint64(cfg)
	class, ok := t.classes.Get(k)
	if !ok {
		return nil
	}
	return class.entries
}

// ClassOf is a convenience wrapper keyed by GUID lookup result's checksums.
func (t *AliasTable) ClassOf(fn *profile.Function) []*AliasEntry {
	return t.Class(fn.LinenoChecksum, fn.CFGChecksum)
}
