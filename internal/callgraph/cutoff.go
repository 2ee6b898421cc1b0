package callgraph

import "sort"

// CutoffParams holds the two percentages the hot-edge cutoff is computed
// from: PCut is the cumulative-weight cutoff percentage, PMin the
// minimum-edge-count percentage.
type CutoffParams struct {
	PCut int // 0..100
	PMin int // 0..100
}

// Cutoff computes the minimum edge weight an edge must have to count as
// "hot", per spec §4.E: sort edges descending by weight, walk the
// cumulative sum, and stop at the first edge where both the cumulative
// fraction and the positional fraction thresholds are met. Ties at the
// cutoff favour inclusion, which falls out naturally from using >= weight
// comparisons everywhere a caller applies the result.
func Cutoff(edges []*Edge, params CutoffParams) int64 {
	if len(edges) == 0 {
		return 0
	}
	sorted := make([]*Edge, len(edges))
	copy(sorted, edges)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Weight > sorted[j].Weight })

	var total int64
	for _, e := range sorted {
		total += e.Weight
	}
	cumCutoff := total * int64(params.PCut) / 100
	nEdges := int64(len(sorted))

	var cum int64
	for i, e := range sorted {
		cum += e.Weight
		if cum >= cumCutoff && int64(i+1)*100 >= nEdges*int64(params.PMin) {
			return e.Weight
		}
	}
	return 0
}

// IsHot reports whether weight meets or exceeds the cutoff.
func IsHot(weight, cutoff int64) bool { return weight >= cutoff }
