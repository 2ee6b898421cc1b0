// Package importtree renders a finished export.Result as a bounded-depth
// nested tree (primary module -> its aux modules -> each aux's own aux
// list, and so on), the LIPO analogue of the teacher's internal/flamegraph
// Node tree, re-targeted from stack-sample time to module-import weight.
package importtree

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/lipo-groupgen/internal/export"
)

// Node is one entry of the rendered tree: a module plus the subtree of
// modules it imports.
type Node struct {
	ModuleID       uint32  `json:"module_id"`
	SourceFilename string  `json:"source_filename"`
	Weight         int64   `json:"weight,omitempty"`
	Children       []*Node `json:"children,omitempty"`
}

// Options configures tree generation.
type Options struct {
	// MaxDepth bounds how many aux levels are expanded below the root;
	// 0 means unbounded (guarded internally against cycles by the per-path
	// visiting set).
	MaxDepth int
}

// DefaultOptions returns the documented default: 4 levels deep, matching
// the teacher's flamegraph generator defaulting to a handful of
// top-N/depth-bounding knobs rather than unbounded expansion.
func DefaultOptions() Options { return Options{MaxDepth: 4} }

// Build renders the import tree rooted at rootModuleID. Because group
// membership is not itself a tree (a module can appear as an aux of many
// roots, and eager-propagation groups can contain cycles collapsed by the
// checksum pass), a module already on the current path is rendered as a
// leaf with no further children to guarantee termination.
func Build(result *export.Result, rootModuleID uint32, opts Options) *Node {
	if result == nil {
		return nil
	}
	byID := make(map[uint32]export.ModuleExport, len(result.Modules))
	for _, m := range result.Modules {
		byID[m.ModuleID] = m
	}
	root, ok := byID[rootModuleID]
	if !ok {
		return nil
	}
	visiting := map[uint32]bool{rootModuleID: true}
	return buildNode(byID, root, 0, 0, opts, visiting)
}

func buildNode(byID map[uint32]export.ModuleExport, m export.ModuleExport, weight int64, depth int, opts Options, visiting map[uint32]bool) *Node {
	node := &Node{ModuleID: m.ModuleID, SourceFilename: m.SourceFilename, Weight: weight}
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		return node
	}

	aux := make([]export.AuxModule, len(m.Aux))
	copy(aux, m.Aux)
	sort.Slice(aux, func(i, j int) bool {
		if aux[i].Weight != aux[j].Weight {
			return aux[i].Weight > aux[j].Weight
		}
		return aux[i].ModuleID < aux[j].ModuleID
	})

	for _, a := range aux {
		if visiting[a.ModuleID] {
			node.Children = append(node.Children, &Node{
				ModuleID:       a.ModuleID,
				SourceFilename: a.SourceFilename,
				Weight:         a.Weight,
			})
			continue
		}
		child, ok := byID[a.ModuleID]
		if !ok {
			node.Children = append(node.Children, &Node{
				ModuleID:       a.ModuleID,
				SourceFilename: a.SourceFilename,
				Weight:         a.Weight,
			})
			continue
		}
		visiting[a.ModuleID] = true
		node.Children = append(node.Children, buildNode(byID, child, a.Weight, depth+1, opts, visiting))
		delete(visiting, a.ModuleID)
	}
	return node
}

// BuildAll renders one tree per exported module in result, sorted by
// module id ascending.
func BuildAll(result *export.Result, opts Options) []*Node {
	if result == nil {
		return nil
	}
	ids := make([]uint32, 0, len(result.Modules))
	for _, m := range result.Modules {
		if m.IsExported {
			ids = append(ids, m.ModuleID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	trees := make([]*Node, 0, len(ids))
	for _, id := range ids {
		if n := Build(result, id, opts); n != nil {
			trees = append(trees, n)
		}
	}
	return trees
}

// WriteJSON writes nodes as pretty-printed JSON to w.
func WriteJSON(nodes []*Node, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(nodes)
}
