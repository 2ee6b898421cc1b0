// Package config provides configuration management for the lipo-groupgen
// service.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Grouping  GroupingConfig  `mapstructure:"grouping"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Log       LogConfig       `mapstructure:"log"`
}

// GroupingConfig holds the tunables of the dynamic module-grouping engine,
// the defaults for internal/groupingctx.Context absent an override from the
// input document's own Params block.
type GroupingConfig struct {
	Cutoff            int    `mapstructure:"cutoff"`
	MinEdgePercent    int    `mapstructure:"min_edge_percent"`
	PropagateScale    int    `mapstructure:"propagate_scale"`
	MaxMemKB          uint32 `mapstructure:"max_mem_kb"`
	ComdatAlgorithm   int    `mapstructure:"comdat_algorithm"`
	GroupingAlgorithm string `mapstructure:"grouping_algorithm"` // "eager" or "inclusion_priority"
	MergeModuleEdges  bool   `mapstructure:"merge_module_edges"`
	WeakInclusion     bool   `mapstructure:"weak_inclusion"`
	DumpCGraph        string `mapstructure:"dump_cgraph"` // "none", "text", "dot"
	RandomSeed        int64  `mapstructure:"random_seed"`
	RandomGroupSize   int    `mapstructure:"random_group_size"`
}

// DatabaseConfig holds run-history database connection configuration.
type DatabaseConfig struct {
	Type     string `mapstructure:"type"` // postgres, mysql, or sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// StorageConfig holds dump-artifact object storage configuration.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`
	Scheme    string `mapstructure:"scheme"`
	LocalPath string `mapstructure:"local_path"`
}

// TelemetryConfig holds OpenTelemetry exporter configuration.
type TelemetryConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
	Enabled     bool   `mapstructure:"enabled"`
	Insecure    bool   `mapstructure:"insecure"`
}

// BatchConfig holds the worker-pool configuration for batch-mode grouping
// runs (one run per profile-data document, fanned across pkg/parallel),
// plus the watch-directory settings for the long-running daemon entrypoint.
type BatchConfig struct {
	WorkerCount   int    `mapstructure:"worker_count"`
	QueueCapacity int    `mapstructure:"queue_capacity"`
	WatchDir      string `mapstructure:"watch_dir"`
	ProcessedDir  string `mapstructure:"processed_dir"`
	PollInterval  int    `mapstructure:"poll_interval_seconds"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"` // json or text
}

// Load reads configuration from the specified file path.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/lipo-groupgen")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults")
		} else if os.IsNotExist(err) {
			fmt.Printf("Config file %s not found, using defaults\n", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("LIPO")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from an io.Reader (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Grouping defaults, matching internal/groupingctx.Default().
	v.SetDefault("grouping.cutoff", 80)
	v.SetDefault("grouping.min_edge_percent", 0)
	v.SetDefault("grouping.propagate_scale", 50)
	v.SetDefault("grouping.max_mem_kb", 0)
	v.SetDefault("grouping.comdat_algorithm", 3)
	v.SetDefault("grouping.grouping_algorithm", "eager")
	v.SetDefault("grouping.merge_module_edges", false)
	v.SetDefault("grouping.weak_inclusion", false)
	v.SetDefault("grouping.dump_cgraph", "none")
	v.SetDefault("grouping.random_seed", 0)
	v.SetDefault("grouping.random_group_size", 0)

	// Database defaults.
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "lipo_runs.db")
	v.SetDefault("database.max_conns", 10)

	// Storage defaults.
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./dumps")

	// Telemetry defaults.
	v.SetDefault("telemetry.service_name", "lipo-groupgen")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.insecure", true)

	// Batch defaults.
	v.SetDefault("batch.worker_count", 4)
	v.SetDefault("batch.queue_capacity", 64)
	v.SetDefault("batch.watch_dir", "./incoming")
	v.SetDefault("batch.processed_dir", "./processed")
	v.SetDefault("batch.poll_interval_seconds", 5)

	// Log defaults.
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "./logs")
	v.SetDefault("log.format", "text")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	switch c.Storage.Type {
	case "cos", "local":
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	switch c.Grouping.GroupingAlgorithm {
	case "eager", "inclusion_priority":
	default:
		return fmt.Errorf("unsupported grouping algorithm: %s", c.Grouping.GroupingAlgorithm)
	}

	if c.Grouping.Cutoff < 0 || c.Grouping.Cutoff > 100 {
		return fmt.Errorf("grouping cutoff must be in [0, 100]")
	}

	if c.Batch.WorkerCount < 1 {
		return fmt.Errorf("batch worker count must be at least 1")
	}

	if c.Batch.PollInterval < 1 {
		return fmt.Errorf("batch poll interval must be at least 1 second")
	}

	return nil
}
