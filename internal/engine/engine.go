// Package engine wires components C through J into the single pipeline a
// caller invokes once per loaded profile.Set: build the call graph, compute
// the hot-edge cutoff, run the selected grouping algorithm, apply the
// COMDAT passes, and serialise the result.
package engine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lipo-groupgen/internal/callgraph"
	"github.com/lipo-groupgen/internal/comdat"
	"github.com/lipo-groupgen/internal/export"
	"github.com/lipo-groupgen/internal/grouping"
	"github.com/lipo-groupgen/internal/groupingctx"
	"github.com/lipo-groupgen/internal/profile"
	"github.com/lipo-groupgen/pkg/utils"
)

var tracer = otel.Tracer("lipo-groupgen/engine")

// Engine runs the full grouping pipeline over a loaded profile.Set.
type Engine struct {
	log utils.Logger
}

// New returns an Engine that logs through log. A nil log falls back to a
// NullLogger.
func New(log utils.Logger) *Engine {
	if log == nil {
		log = &utils.NullLogger{}
	}
	return &Engine{log: log}
}

// Run executes components D through J in sequence and returns the final
// export.Result. set is mutated in place by the COMDAT passes (H, I) when
// cctx enables them.
func (e *Engine) Run(ctx context.Context, set *profile.Set, cctx *groupingctx.Context) (*export.Result, error) {
	if cctx == nil {
		cctx = groupingctx.Default()
	}

	ctx, span := tracer.Start(ctx, "engine.run")
	defer span.End()
	span.SetAttributes(
		attribute.Int("lipo.module_count", set.ModuleCount()),
		attribute.String("lipo.grouping_algorithm", cctx.GroupingAlgorithm.String()),
	)

	aliases := comdat.NewAliasTable()
	var useAliases *comdat.AliasTable
	if cctx.DoZeroCountFixup() || cctx.DoRetarget() {
		useAliases = aliases
	}

	graph := e.buildGraph(ctx, set, useAliases)
	cutoff := e.computeCutoff(ctx, graph, cctx)
	result := e.runGrouping(ctx, graph, set, cctx, cutoff)

	mutated := false
	if cctx.DoZeroCountFixup() {
		if e.runFixup(ctx, set, aliases) {
			mutated = true
		}
	}
	if cctx.DoRetarget() {
		if e.runRetarget(ctx, set, aliases, result) {
			mutated = true
		}
	}

	out := e.serialize(ctx, set, result, mutated, cctx.GroupingAlgorithm == groupingctx.AlgorithmInclusionPriority)
	e.log.WithFields(map[string]interface{}{
		"modules": set.ModuleCount(),
		"edges":   len(graph.AllEdges()),
		"cutoff":  cutoff,
		"mutated": mutated,
	}).Info("grouping run complete")
	return out, nil
}

func (e *Engine) buildGraph(ctx context.Context, set *profile.Set, aliases *comdat.AliasTable) *callgraph.Graph {
	_, span := tracer.Start(ctx, "callgraph.build")
	defer span.End()
	builder := callgraph.NewBuilder(aliases)
	g := builder.Build(set)
	span.SetAttributes(
		attribute.Int64("lipo.zero_count_edges", g.TotalZeroCount),
		attribute.Int64("lipo.insane_edges", g.TotalInsaneCount),
	)
	return g
}

func (e *Engine) computeCutoff(ctx context.Context, g *callgraph.Graph, cctx *groupingctx.Context) int64 {
	_, span := tracer.Start(ctx, "cutoff.compute")
	defer span.End()
	edges := g.AllEdges()
	cutoff := callgraph.Cutoff(edges, callgraph.CutoffParams{PCut: cctx.ResolvedCutoff(), PMin: cctx.PMin})
	span.SetAttributes(attribute.Int64("lipo.cutoff", cutoff))
	return cutoff
}

func (e *Engine) runGrouping(ctx context.Context, g *callgraph.Graph, set *profile.Set, cctx *groupingctx.Context, cutoff int64) grouping.Result {
	_, span := tracer.Start(ctx, "grouping.run", trace.WithAttributes(
		attribute.String("lipo.algorithm", cctx.GroupingAlgorithm.String()),
	))
	defer span.End()

	if cctx.GroupingAlgorithm == groupingctx.AlgorithmInclusionPriority {
		in := &grouping.Inclusion{
			MergeModuleEdges: cctx.MergeModuleEdges,
			WeakInclusion:    cctx.WeakInclusion,
			MemBudgetKB:      cctx.EffectiveMemBudget(),
		}
		return in.Run(g, set, cutoff)
	}
	eager := &grouping.Eager{ImportScale: cctx.PropagateScale}
	return eager.Run(g, set, cutoff)
}

func (e *Engine) runFixup(ctx context.Context, set *profile.Set, aliases *comdat.AliasTable) bool {
	_, span := tracer.Start(ctx, "comdat.fixup")
	defer span.End()
	mutated := comdat.NewFixup(set, aliases).Run()
	span.SetAttributes(attribute.Bool("lipo.mutated", mutated))
	return mutated
}

func (e *Engine) runRetarget(ctx context.Context, set *profile.Set, aliases *comdat.AliasTable, result grouping.Result) bool {
	_, span := tracer.Start(ctx, "comdat.retarget")
	defer span.End()
	groups := export.Adapt(result)
	mutated := comdat.NewRetargeter(set, aliases, groups).Run()
	span.SetAttributes(attribute.Bool("lipo.mutated", mutated))
	return mutated
}

func (e *Engine) serialize(ctx context.Context, set *profile.Set, result grouping.Result, mutated, isInclusionPriority bool) *export.Result {
	_, span := tracer.Start(ctx, "export.serialize")
	defer span.End()
	out := export.Serialize(set, result, mutated, isInclusionPriority)
	return &out
}
