// Package loader parses module/function descriptors — the documented
// substitute for the out-of-scope .gcda/.gcno codec — into an
// internal/profile.Set. It is deliberately tolerant: a single malformed
// module is skipped and counted rather than aborting the whole load,
// matching the data-error policy the core itself follows.
package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/lipo-groupgen/internal/profile"
	"github.com/lipo-groupgen/pkg/errors"
	"github.com/lipo-groupgen/pkg/model"
)

// Load reads a Document from r and builds a profile.Set plus the
// resolved Params.
func Load(r io.Reader) (*profile.Set, model.Params, error) {
	var doc model.Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, model.Params{}, errors.Wrap(errors.CodeParseError, "loader: decode document", err)
	}
	return FromDocument(doc)
}

// LoadFile opens path and loads a Document from it.
func LoadFile(path string) (*profile.Set, model.Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, model.Params{}, errors.Wrap(errors.CodeNotFound, "loader: open "+path, err)
	}
	defer f.Close()
	return Load(f)
}

// FromDocument converts a decoded Document into a profile.Set, skipping
// (and counting) any module descriptor whose ident is zero — the
// "module_id 0 is reserved/invalid" rule from spec §3.
func FromDocument(doc model.Document) (*profile.Set, model.Params, error) {
	var modules []*profile.Module
	skipped := 0
	for _, md := range doc.Modules {
		m, err := convertModule(md)
		if err != nil {
			skipped++
			continue
		}
		modules = append(modules, m)
	}
	set := profile.NewSet(modules)
	for i := 0; i < skipped; i++ {
		set.MarkMalformed()
	}
	return set, doc.Params, nil
}

func convertModule(md model.ModuleDescriptor) (*profile.Module, error) {
	if md.Ident == 0 {
		return nil, fmt.Errorf("loader: module %q has reserved ident 0", md.SourceFilename)
	}
	m := profile.NewModule(md.Ident, md.SourceFilename, md.GGCMemoryKB)
	m.Language = convertLanguage(md.Language)
	if md.IsPrimary {
		m.Flags |= profile.FlagIsPrimary
	}
	if md.IsExported {
		m.Flags |= profile.FlagIsExported
	}
	if md.IncludeAllAux {
		m.Flags |= profile.FlagIncludeAllAux
	}
	if md.ContainsASM {
		m.Flags |= profile.FlagContainsASM
	}

	kindSeen := map[profile.Kind]bool{}
	for _, fd := range md.Functions {
		fn := &profile.Function{
			FunctionID:     fd.Ident,
			LinenoChecksum: fd.LinenoChecksum,
			CFGChecksum:    fd.CFGChecksum,
		}
		for _, cd := range fd.Counters {
			kind, ok := convertKind(cd.Kind)
			if !ok {
				continue
			}
			fn.Counters = append(fn.Counters, profile.Counter{Kind: kind, Values: append([]int64(nil), cd.Values...)})
			kindSeen[kind] = true
		}
		m.AddFunction(fn)
	}
	for kind := range kindSeen {
		m.ActiveKinds = append(m.ActiveKinds, kind)
	}
	return m, nil
}

func convertLanguage(l model.Language) profile.Language {
	switch l {
	case model.LanguageC:
		return profile.LanguageC
	case model.LanguageCPP:
		return profile.LanguageCPP
	default:
		return profile.LanguageUnknown
	}
}

func convertKind(k model.CounterKind) (profile.Kind, bool) {
	switch k {
	case model.CounterArcs:
		return profile.KindArcs, true
	case model.CounterPrefetch:
		return profile.KindPrefetch, true
	case model.CounterIO:
		return profile.KindIO, true
	case model.CounterIOR:
		return profile.KindIOR, true
	case model.CounterSingleValue:
		return profile.KindSingleValue, true
	case model.CounterDelta:
		return profile.KindDelta, true
	case model.CounterDirectCall:
		return profile.KindDirectCall, true
	case model.CounterIndirectCall:
		return profile.KindIndirectCall, true
	case model.CounterTimeProfile:
		return profile.KindTimeProfile, true
	default:
		return 0, false
	}
}
