// Package service wires the ambient stack (database, artifact storage,
// logging) around a single internal/engine invocation — the LIPO analogue
// of the teacher's internal/service, minus the polling task-scheduler
// machinery a synchronous, single-invocation grouping run has no use for.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lipo-groupgen/internal/artifact"
	"github.com/lipo-groupgen/internal/engine"
	"github.com/lipo-groupgen/internal/export"
	"github.com/lipo-groupgen/internal/groupingctx"
	"github.com/lipo-groupgen/internal/loader"
	"github.com/lipo-groupgen/internal/runstore"
	"github.com/lipo-groupgen/pkg/config"
	"github.com/lipo-groupgen/pkg/model"
	"github.com/lipo-groupgen/pkg/utils"
)

// Service is the application service: a configured engine plus the
// run-history database and artifact store it records each run against.
type Service struct {
	config  *config.Config
	logger  utils.Logger
	engine  *engine.Engine
	runs    *runstore.Store
	dumps   artifact.Store
	running bool
}

// New creates a new Service instance.
func New(cfg *config.Config, logger utils.Logger) (*Service, error) {
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}
	return &Service{
		config: cfg,
		logger: logger,
		engine: engine.New(logger),
	}, nil
}

// Initialize connects the run-history database and the artifact store.
func (s *Service) Initialize(ctx context.Context) error {
	s.logger.Info("Initializing service components...")

	runs, err := runstore.Open(&s.config.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize run store: %w", err)
	}
	s.runs = runs

	dumps, err := artifact.NewStore(&s.config.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize artifact store: %w", err)
	}
	s.dumps = dumps

	s.running = true
	s.logger.Info("Service components initialized successfully")
	return nil
}

// GroupingContextFromParams resolves a groupingctx.Context from a decoded
// document's Params block, the config defaults, and the process
// environment, in that priority order (document overrides config defaults;
// env vars override both, per spec §6).
func GroupingContextFromParams(cfg *config.Config, params model.Params) *groupingctx.Context {
	cctx := groupingctx.Default()
	if cfg != nil {
		cctx.Cutoff = cfg.Grouping.Cutoff
		cctx.PMin = cfg.Grouping.MinEdgePercent
		cctx.PropagateScale = cfg.Grouping.PropagateScale
		cctx.MaxMemKB = cfg.Grouping.MaxMemKB
		if cfg.Grouping.GroupingAlgorithm == "inclusion_priority" {
			cctx.GroupingAlgorithm = groupingctx.AlgorithmInclusionPriority
		}
		cctx.MergeModuleEdges = cfg.Grouping.MergeModuleEdges
		cctx.WeakInclusion = cfg.Grouping.WeakInclusion
	}
	if params.LipoCutoff != 0 {
		cctx.Cutoff = params.LipoCutoff
	}
	if params.LipoPropagateScale != 0 {
		cctx.PropagateScale = params.LipoPropagateScale
	}
	if params.LipoMaxMemKB != 0 {
		cctx.MaxMemKB = params.LipoMaxMemKB
	}
	if params.LipoGroupingAlgorithm == 1 {
		cctx.GroupingAlgorithm = groupingctx.AlgorithmInclusionPriority
	}
	cctx.MergeModuleEdges = cctx.MergeModuleEdges || params.LipoMergeModuleEdges
	cctx.WeakInclusion = cctx.WeakInclusion || params.LipoWeakInclusion
	if params.LipoComdatAlgorithm != 0 {
		cctx.ComdatAlgorithm = groupingctx.ComdatMode(params.LipoComdatAlgorithm)
	}
	if params.LipoRandomGroupSize != 0 {
		cctx.Random = groupingctx.RandomGrouping{Seed: params.LipoRandomSeed, Size: params.LipoRandomGroupSize}
	}
	switch params.LipoDumpCGraph {
	case 1:
		cctx.DumpCGraph = groupingctx.DumpText
	case 2:
		cctx.DumpCGraph = groupingctx.DumpDOT
	}
	cctx.ApplyOSEnv()
	return cctx
}

// RunResult bundles a single grouping invocation's output with the
// run-history id it was recorded under.
type RunResult struct {
	Export *export.Result
	RunID  uint
}

// RunDocument loads a model.Document, runs the grouping pipeline, and
// persists a run-history record plus (when artifactKey is non-empty) a
// dump of the export result.
func (s *Service) RunDocument(ctx context.Context, doc model.Document, artifactKey string) (*RunResult, error) {
	set, params, err := loader.FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	cctx := GroupingContextFromParams(s.config, params)
	result, err := s.engine.Run(ctx, set, cctx)
	if err != nil {
		return nil, fmt.Errorf("grouping run failed: %w", err)
	}

	run := &runstore.Run{
		CreatedAt:         time.Now(),
		ModuleCount:       set.ModuleCount(),
		Cutoff:            int64(cctx.ResolvedCutoff()),
		GroupingAlgorithm: cctx.GroupingAlgorithm.String(),
		Mutated:           result.Mutated,
		ArtifactPath:      artifactKey,
	}
	for _, m := range result.Modules {
		run.EdgeCount += len(m.Aux)
	}

	if s.runs != nil {
		if err := s.runs.Save(ctx, run); err != nil {
			s.logger.Error("failed to record run history: %v", err)
		}
	}

	if artifactKey != "" && s.dumps != nil {
		if err := artifact.SaveDump(ctx, s.dumps, artifactKey, result); err != nil {
			s.logger.Error("failed to save dump artifact: %v", err)
		}
	}

	return &RunResult{Export: result, RunID: run.ID}, nil
}

// IsRunning reports whether Initialize has completed successfully.
func (s *Service) IsRunning() bool { return s.running }

// HealthCheck verifies the run-history database connection is alive.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.runs == nil {
		return nil
	}
	if _, err := s.runs.Recent(ctx, 1); err != nil {
		return fmt.Errorf("run store health check failed: %w", err)
	}
	return nil
}

// Stop releases the run-history database connection.
func (s *Service) Stop() error {
	s.logger.Info("Stopping service...")
	if s.runs != nil {
		if err := s.runs.Close(); err != nil {
			s.logger.Error("failed to close run store: %v", err)
		}
	}
	s.running = false
	return nil
}
