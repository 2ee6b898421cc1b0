package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lipo-groupgen/internal/service"
	"github.com/lipo-groupgen/pkg/config"
	"github.com/lipo-groupgen/pkg/model"
	"github.com/lipo-groupgen/pkg/utils"
)

var (
	configPath = flag.String("c", "", "Path to configuration file")
	version    = flag.Bool("v", false, "Print version and exit")
)

// Version information (set by build flags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("lipo-analyzer version %s (commit: %s, built: %s)\n", Version, GitCommit, BuildTime)
		os.Exit(0)
	}

	logger := utils.NewDefaultLogger(utils.LevelInfo, os.Stdout)
	utils.SetGlobalLogger(logger)

	logger.Info("Starting lipo-analyzer watch daemon...")
	logger.Info("Version: %s, Commit: %s, Built: %s", Version, GitCommit, BuildTime)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	logger.Info("Configuration loaded successfully")
	logger.Info("Grouping algorithm: %s, cutoff: %d", cfg.Grouping.GroupingAlgorithm, cfg.Grouping.Cutoff)
	logger.Info("Database: %s", cfg.Database.Type)
	logger.Info("Storage: %s", cfg.Storage.Type)
	logger.Info("Watching: %s (poll every %ds)", cfg.Batch.WatchDir, cfg.Batch.PollInterval)

	if err := os.MkdirAll(cfg.Batch.WatchDir, 0755); err != nil {
		logger.Error("Failed to create watch directory: %v", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.Batch.ProcessedDir, 0755); err != nil {
		logger.Error("Failed to create processed directory: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	svc, err := service.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to create service: %v", err)
		os.Exit(1)
	}
	if err := svc.Initialize(ctx); err != nil {
		logger.Error("Failed to initialize service: %v", err)
		os.Exit(1)
	}

	logger.Info("Service initialized, entering watch loop...")

	ticker := time.NewTicker(time.Duration(cfg.Batch.PollInterval) * time.Second)
	defer ticker.Stop()

loop:
	for {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal %v, shutting down...", sig)
			cancel()
			break loop
		case <-ticker.C:
			processWatchDir(ctx, svc, cfg, logger)
		}
	}

	if err := svc.Stop(); err != nil {
		logger.Error("Error during shutdown: %v", err)
	}
	logger.Info("Service stopped")
}

// processWatchDir runs every pending descriptor document in cfg.Batch.WatchDir
// through a single RunDocument call, then moves it to ProcessedDir. Unlike
// the teacher's multi-source aggregator and priority task queue, there is no
// ordering or priority concept here: a grouping run is a single,
// self-contained unit of work per document.
func processWatchDir(ctx context.Context, svc *service.Service, cfg *config.Config, logger utils.Logger) {
	entries, err := os.ReadDir(cfg.Batch.WatchDir)
	if err != nil {
		logger.Error("Failed to list watch directory: %v", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(cfg.Batch.WatchDir, entry.Name())
		if err := processDocument(ctx, svc, cfg, logger, path); err != nil {
			logger.Error("Failed to process %s: %v", path, err)
			continue
		}
	}
}

func processDocument(ctx context.Context, svc *service.Service, cfg *config.Config, logger utils.Logger, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	base := filepath.Base(path)
	artifactKey := base[:len(base)-len(filepath.Ext(base))] + ".result.json"

	result, err := svc.RunDocument(ctx, doc, artifactKey)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	logger.Info("Processed %s: run #%d, mutated=%v, modules=%d", base, result.RunID, result.Export.Mutated, len(result.Export.Modules))

	dest := filepath.Join(cfg.Batch.ProcessedDir, base)
	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("move to processed: %w", err)
	}
	return nil
}
