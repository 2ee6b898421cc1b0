package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lipo-groupgen/internal/engine"
	"github.com/lipo-groupgen/internal/export"
	"github.com/lipo-groupgen/internal/groupingctx"
	"github.com/lipo-groupgen/internal/loader"
	"github.com/lipo-groupgen/pkg/parallel"
	"github.com/lipo-groupgen/pkg/utils"
)

var (
	groupInput         string
	groupOutput        string
	groupAlgorithm     string
	groupCutoff        int
	groupMaxMemKB      uint32
	groupWeakInclusion bool
	groupDump          string
	groupBatchDir      string
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Build a dynamic call graph and group modules for cross-module inlining",
	Long: `group loads a module/function descriptor document, reconstructs the
dynamic call graph from its profile counters, and groups compilation
modules under a memory budget for cross-module inlining.`,
	RunE: runGroup,
}

func init() {
	rootCmd.AddCommand(groupCmd)

	groupCmd.Flags().StringVarP(&groupInput, "input", "i", "", "Input descriptor document (JSON)")
	groupCmd.Flags().StringVarP(&groupOutput, "output", "o", "./out", "Output directory for the export result and dumps")
	groupCmd.Flags().StringVar(&groupAlgorithm, "algorithm", "eager", "Grouping algorithm: eager or inclusion")
	groupCmd.Flags().IntVar(&groupCutoff, "cutoff", 0, "Hot-edge cumulative-weight cutoff percentage (0 keeps the document/default value)")
	groupCmd.Flags().Uint32Var(&groupMaxMemKB, "max-mem", 0, "Per-group memory budget in kB (0 keeps the document's value; unlimited if that is also 0)")
	groupCmd.Flags().BoolVar(&groupWeakInclusion, "weak-inclusion", false, "Allow the inclusion-priority algorithm's weaker budget invariant")
	groupCmd.Flags().StringVar(&groupDump, "dump", "", "Additional dump format: text, dot, or json")
	groupCmd.Flags().StringVar(&groupBatchDir, "batch", "", "Directory of descriptor documents to group concurrently instead of a single --input")
}

func runGroup(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	if groupBatchDir != "" {
		return runGroupBatch(cmd.Context(), log)
	}

	if groupInput == "" {
		return fmt.Errorf("group: --input is required (or use --batch)")
	}
	if err := os.MkdirAll(groupOutput, 0755); err != nil {
		return fmt.Errorf("group: create output dir: %w", err)
	}

	result, err := groupOne(cmd.Context(), groupInput)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(groupInput), filepath.Ext(groupInput))
	return writeGroupOutputs(result, base)
}

func runGroupBatch(ctx context.Context, log utils.Logger) error {
	entries, err := os.ReadDir(groupBatchDir)
	if err != nil {
		return fmt.Errorf("group: read batch dir: %w", err)
	}
	var inputs []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		inputs = append(inputs, filepath.Join(groupBatchDir, e.Name()))
	}
	if len(inputs) == 0 {
		return fmt.Errorf("group: no .json descriptor documents found in %s", groupBatchDir)
	}
	if err := os.MkdirAll(groupOutput, 0755); err != nil {
		return fmt.Errorf("group: create output dir: %w", err)
	}

	pool := parallel.NewWorkerPool[string, *export.Result](parallel.DefaultPoolConfig())
	results := pool.ExecuteFunc(ctx, inputs, func(ctx context.Context, input string) (*export.Result, error) {
		return groupOne(ctx, input)
	})

	var failures int
	for i, r := range results {
		base := strings.TrimSuffix(filepath.Base(inputs[i]), filepath.Ext(inputs[i]))
		if r.Error != nil {
			log.Info("group: %s failed: %v", base, r.Error)
			failures++
			continue
		}
		if err := writeGroupOutputs(r.Result, base); err != nil {
			log.Info("group: %s: write outputs failed: %v", base, err)
			failures++
		}
	}
	if failures > 0 {
		return fmt.Errorf("group: %d of %d documents failed", failures, len(inputs))
	}
	return nil
}

func groupOne(ctx context.Context, path string) (*export.Result, error) {
	set, params, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("group: load %s: %w", path, err)
	}

	cctx := groupingctx.Default()
	if params.LipoCutoff != 0 {
		cctx.Cutoff = params.LipoCutoff
	}
	if groupCutoff != 0 {
		cctx.Cutoff = groupCutoff
	}
	if params.LipoMaxMemKB != 0 {
		cctx.MaxMemKB = params.LipoMaxMemKB
	}
	if groupMaxMemKB != 0 {
		cctx.MaxMemKB = groupMaxMemKB
	}
	switch strings.ToLower(groupAlgorithm) {
	case "inclusion", "inclusion_priority", "inclusion-priority":
		cctx.GroupingAlgorithm = groupingctx.AlgorithmInclusionPriority
	default:
		cctx.GroupingAlgorithm = groupingctx.AlgorithmEager
	}
	cctx.WeakInclusion = cctx.WeakInclusion || groupWeakInclusion || params.LipoWeakInclusion
	cctx.ApplyOSEnv()

	eng := engine.New(GetLogger())
	return eng.Run(ctx, set, cctx)
}

func writeGroupOutputs(result *export.Result, base string) error {
	jsonPath := filepath.Join(groupOutput, base+".json")
	if err := export.NewPrettyJSONWriter().WriteToFile(*result, jsonPath); err != nil {
		return fmt.Errorf("group: write %s: %w", jsonPath, err)
	}

	switch strings.ToLower(groupDump) {
	case "dot":
		dotPath := filepath.Join(groupOutput, base+".dot")
		if err := (export.DOTWriter{}).WriteToFile(*result, dotPath); err != nil {
			return fmt.Errorf("group: write %s: %w", dotPath, err)
		}
	case "text":
		for _, m := range result.Modules {
			textPath := filepath.Join(groupOutput, m.SourceFilename+".gcda.imports")
			if err := (export.TextWriter{}).WriteModuleToFile(*result, m.ModuleID, textPath); err != nil {
				return fmt.Errorf("group: write %s: %w", textPath, err)
			}
		}
	case "json", "":
		// already written above
	default:
		return fmt.Errorf("group: unknown --dump format %q", groupDump)
	}
	return nil
}
