// Package config loads gotn's runtime configuration: environment-variable
// overrides on top of an optional workspace-relative YAML file, following
// the teacher's split between a simple env-var Load() for process
// bootstrap and a richer YAML profile loader for versioned settings.
package config

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Config is gotn's resolved runtime configuration.
type Config struct {
	WorkspaceDir    string  `yaml:"workspace_dir" json:"workspace_dir"`
	SchemaVersion   string  `yaml:"schema_version" json:"schema_version"`
	SoftK           int     `yaml:"soft_k" json:"soft_k"`
	SoftThreshold   float64 `yaml:"soft_threshold" json:"soft_threshold"`
	EmbedderURL     string  `yaml:"embedder_url" json:"embedder_url"`
	EmbedderDim     int     `yaml:"embedder_dim" json:"embedder_dim"`
	VectorRedisAddr string  `yaml:"vector_redis_addr" json:"vector_redis_addr"`
	DatabaseURL     string  `yaml:"database_url" json:"database_url"`
	OTLPEndpoint    string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	ArchiveBackend  string  `yaml:"archive_backend" json:"archive_backend"` // "", "s3", "gcs"
	ArchiveBucket   string  `yaml:"archive_bucket" json:"archive_bucket"`
	LogLevel        string  `yaml:"log_level" json:"log_level"`
}

// SupportedSchemaRange is the semver constraint this binary accepts for a
// workspace's Meta.schema_version.
const SupportedSchemaRange = ">=1.0.0, <2.0.0"

// Default returns the hardcoded defaults, overridden by LoadFile and Load.
func Default() *Config {
	return &Config{
		WorkspaceDir:  ".gotn",
		SchemaVersion: "1.0.0",
		SoftK:         5,
		SoftThreshold: 0.75,
		EmbedderDim:   768,
		LogLevel:      "info",
	}
}

// LoadFile merges a YAML config file at path over cfg's current values.
// A missing file is not an error; it simply leaves cfg unchanged.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// LoadEnv overlays environment-variable overrides onto cfg, matching the
// GOTN_* naming the teacher's config.Load() uses for its own prefix-free
// variables (PORT, LOG_LEVEL, DATABASE_URL, ...).
func LoadEnv(cfg *Config) {
	if v := os.Getenv("GOTN_WORKSPACE_DIR"); v != "" {
		cfg.WorkspaceDir = v
	}
	if v := os.Getenv("GOTN_EMBEDDER_URL"); v != "" {
		cfg.EmbedderURL = v
	}
	if v := os.Getenv("GOTN_VECTOR_REDIS_ADDR"); v != "" {
		cfg.VectorRedisAddr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTLPEndpoint = v
	}
	if v := os.Getenv("GOTN_ARCHIVE_BACKEND"); v != "" {
		cfg.ArchiveBackend = v
	}
	if v := os.Getenv("GOTN_ARCHIVE_BUCKET"); v != "" {
		cfg.ArchiveBucket = v
	}
	if v := os.Getenv("GOTN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Load builds a Config from defaults, an optional YAML file at
// <workspaceDir>/config.yaml, then environment overrides, and validates
// SchemaVersion against SupportedSchemaRange.
func Load(workspaceDir string) (*Config, error) {
	cfg := Default()
	if workspaceDir != "" {
		cfg.WorkspaceDir = workspaceDir
	}
	if err := LoadFile(cfg, cfg.WorkspaceDir+"/config.yaml"); err != nil {
		return nil, err
	}
	LoadEnv(cfg)

	constraint, err := semver.NewConstraint(SupportedSchemaRange)
	if err != nil {
		return nil, fmt.Errorf("config: invalid supported range: %w", err)
	}
	version, err := semver.NewVersion(cfg.SchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("config: invalid schema_version %q: %w", cfg.SchemaVersion, err)
	}
	if !constraint.Check(version) {
		return nil, fmt.Errorf("config: schema_version %q not in supported range %s", cfg.SchemaVersion, SupportedSchemaRange)
	}
	return cfg, nil
}
