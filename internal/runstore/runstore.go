// Package runstore persists a one-line record of every grouping run
// against the run-history database, the LIPO analogue of the teacher's
// internal/repository task-result tables: not the call graph or group
// membership itself (that belongs in internal/artifact's dump files), just
// enough to list and look up past runs.
package runstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/lipo-groupgen/pkg/config"
	"github.com/lipo-groupgen/pkg/errors"
	"github.com/lipo-groupgen/pkg/telemetry"
)

// Run is one persisted grouping-run record.
type Run struct {
	ID                uint      `gorm:"primaryKey"`
	CreatedAt         time.Time `gorm:"index"`
	ModuleCount       int
	EdgeCount         int
	Cutoff            int64
	GroupingAlgorithm string
	Mutated           bool
	ArtifactPath      string `gorm:"size:512"`
}

// TableName pins the GORM table name independent of struct renames.
func (Run) TableName() string { return "lipo_runs" }

// Store is the run-history repository.
type Store struct {
	db *gorm.DB
}

// Open opens a GORM connection per cfg.Type (postgres, mysql, or sqlite)
// and auto-migrates the Run table, mirroring the teacher's
// repository.NewGormDB dialector switch.
func Open(cfg *config.DatabaseConfig) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case "postgres", "postgresql":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database)
		dialector = postgres.Open(dsn)
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
		dialector = mysql.Open(dsn)
	case "sqlite":
		path := cfg.Database
		if path == "" {
			path = "lipo_runs.db"
		}
		dialector = sqlite.Open(path)
	default:
		return nil, errors.Wrap(errors.CodeConfigError, "runstore: unsupported database type "+cfg.Type, nil)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, errors.Wrap(errors.CodeDatabaseError, "runstore: open", err)
	}

	if telemetry.Enabled() {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			return nil, errors.Wrap(errors.CodeDatabaseError, "runstore: enable tracing", err)
		}
	}

	if cfg.Type != "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(errors.CodeDatabaseError, "runstore: underlying sql.DB", err)
		}
		maxConns := cfg.MaxConns
		if maxConns <= 0 {
			maxConns = 10
		}
		sqlDB.SetMaxOpenConns(maxConns)
		sqlDB.SetMaxIdleConns(maxConns / 2)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, errors.Wrap(errors.CodeDatabaseError, "runstore: migrate", err)
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an already-open *gorm.DB, the seam the package tests use
// with an in-memory sqlite database.
func NewWithDB(db *gorm.DB) *Store { return &Store{db: db} }

// Save inserts a run record.
func (s *Store) Save(ctx context.Context, r *Run) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return errors.Wrap(errors.CodeDatabaseError, "runstore: save run", err)
	}
	return nil
}

// Recent returns the most recent limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Run, error) {
	var runs []*Run
	err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeDatabaseError, "runstore: list recent", err)
	}
	return runs, nil
}

// Get looks up a run by id.
func (s *Store) Get(ctx context.Context, id uint) (*Run, error) {
	var r Run
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, errors.Wrap(errors.CodeNotFound, "runstore: get run", err)
	}
	return &r, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
