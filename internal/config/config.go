// Package config loads engine settings from YAML/JSON files and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the top-level configuration.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after creation.
type Config struct {
	Database    DatabaseConfig    `json:"database" yaml:"database"`
	Enrichment  EnrichmentConfig  `json:"enrichment" yaml:"enrichment"`
	Query       QueryConfig       `json:"query" yaml:"query"`
	Pathfinding PathfindingConfig `json:"pathfinding" yaml:"pathfinding"`
	Influence   InfluenceConfig   `json:"influence" yaml:"influence"`
	Analysis    AnalysisConfig    `json:"analysis" yaml:"analysis"`
	Server      ServerConfig      `json:"server" yaml:"server"`
	Logging     LoggingConfig     `json:"logging" yaml:"logging"`
}

// DatabaseConfig points at the SQLite registry/grants store.
type DatabaseConfig struct {
	Path string `json:"path" yaml:"path"`
}

// EnrichmentConfig controls registry lookups during the build.
type EnrichmentConfig struct {
	Enabled        bool          `json:"enabled" yaml:"enabled"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout"`
	MaxConcurrency int           `json:"max_concurrency" yaml:"max_concurrency"`
	EnrichGrantees bool          `json:"enrich_grantees" yaml:"enrich_grantees"`
}

// QueryConfig bounds the raw path primitive.
type QueryConfig struct {
	MaxFundingPaths int `json:"max_funding_paths" yaml:"max_funding_paths"`
	DefaultMaxHops  int `json:"default_max_hops" yaml:"default_max_hops"`
	MaxHopsLimit    int `json:"max_hops_limit" yaml:"max_hops_limit"` // ceiling on caller-supplied hops
}

// PathfindingConfig controls board pathway discovery and scoring.
type PathfindingConfig struct {
	MaxHops       int     `json:"max_hops" yaml:"max_hops"`
	MaxCandidates int     `json:"max_candidates" yaml:"max_candidates"`
	TopPaths      int     `json:"top_paths" yaml:"top_paths"`
	AverageWeight float64 `json:"average_weight" yaml:"average_weight"`
	MinimumWeight float64 `json:"minimum_weight" yaml:"minimum_weight"`
}

// InfluenceConfig holds centrality parameters and tier thresholds.
type InfluenceConfig struct {
	DampingFactor      float64 `json:"damping_factor" yaml:"damping_factor"`
	MaxIterations      int     `json:"max_iterations" yaml:"max_iterations"`
	Tolerance          float64 `json:"tolerance" yaml:"tolerance"`
	HighDegree         float64 `json:"high_degree" yaml:"high_degree"`
	HighPageRank       float64 `json:"high_pagerank" yaml:"high_pagerank"`
	MediumDegree       float64 `json:"medium_degree" yaml:"medium_degree"`
	MediumPageRank     float64 `json:"medium_pagerank" yaml:"medium_pagerank"`
	KeyConnections     int     `json:"key_connections" yaml:"key_connections"`
	BetweennessScaling float64 `json:"betweenness_scaling" yaml:"betweenness_scaling"`
}

// AnalysisConfig holds parameters of the supplementary network reports.
type AnalysisConfig struct {
	HubThreshold  int     `json:"hub_threshold" yaml:"hub_threshold"`
	TopN          int     `json:"top_n" yaml:"top_n"`
	LapseYears    int     `json:"lapse_years" yaml:"lapse_years"`
	MinSimilarity float64 `json:"min_similarity" yaml:"min_similarity"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "text" or "json"
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Enrichment: EnrichmentConfig{
			Enabled:        true,
			Timeout:        2 * time.Second,
			MaxConcurrency: 8,
			EnrichGrantees: true,
		},
		Query: QueryConfig{
			MaxFundingPaths: 10,
			DefaultMaxHops:  3,
			MaxHopsLimit:    4,
		},
		Pathfinding: PathfindingConfig{
			MaxHops:       3,
			MaxCandidates: 20,
			TopPaths:      5,
			AverageWeight: 0.7,
			MinimumWeight: 0.3,
		},
		Influence: InfluenceConfig{
			DampingFactor:      0.85,
			MaxIterations:      100,
			Tolerance:          1e-6,
			HighDegree:         0.7,
			HighPageRank:       0.05,
			MediumDegree:       0.4,
			MediumPageRank:     0.02,
			KeyConnections:     5,
			BetweennessScaling: 0.5,
		},
		Analysis: AnalysisConfig{
			HubThreshold:  10,
			TopN:          10,
			LapseYears:    2,
			MinSimilarity: 0.1,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration with priority: env > file > defaults.
//
// A missing file is not an error; an unreadable or unparsable one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	loadEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("GRANTNET_DB"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("GRANTNET_ENRICHMENT_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Enrichment.Enabled = b
		}
	}
	if v := os.Getenv("GRANTNET_ENRICHMENT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Enrichment.Timeout = d
		}
	}
	if v := os.Getenv("GRANTNET_ENRICHMENT_CONCURRENCY"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Enrichment.MaxConcurrency = i
		}
	}
	if v := os.Getenv("GRANTNET_MAX_HOPS_LIMIT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Query.MaxHopsLimit = i
		}
	}
	if v := os.Getenv("GRANTNET_PAGERANK_MAX_ITERATIONS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Influence.MaxIterations = i
		}
	}
	if v := os.Getenv("GRANTNET_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("GRANTNET_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("GRANTNET_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	if c.Enrichment.MaxConcurrency < 1 {
		return fmt.Errorf("%w: enrichment.max_concurrency must be >= 1", ErrInvalidConfig)
	}
	if c.Enrichment.Timeout <= 0 {
		return fmt.Errorf("%w: enrichment.timeout must be positive", ErrInvalidConfig)
	}
	if c.Query.MaxFundingPaths < 1 || c.Query.DefaultMaxHops < 1 {
		return fmt.Errorf("%w: query limits must be >= 1", ErrInvalidConfig)
	}
	if c.Query.MaxHopsLimit < c.Query.DefaultMaxHops {
		return fmt.Errorf("%w: query.max_hops_limit must be >= default_max_hops", ErrInvalidConfig)
	}
	p := c.Pathfinding
	if p.MaxHops < 1 || p.MaxCandidates < 1 || p.TopPaths < 1 {
		return fmt.Errorf("%w: pathfinding limits must be >= 1", ErrInvalidConfig)
	}
	if p.AverageWeight < 0 || p.MinimumWeight < 0 {
		return fmt.Errorf("%w: pathfinding weights must be non-negative", ErrInvalidConfig)
	}
	in := c.Influence
	if in.DampingFactor <= 0 || in.DampingFactor >= 1 {
		return fmt.Errorf("%w: influence.damping_factor must be in (0, 1)", ErrInvalidConfig)
	}
	if in.MaxIterations < 1 || in.Tolerance <= 0 {
		return fmt.Errorf("%w: influence.max_iterations and tolerance must be positive", ErrInvalidConfig)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: logging.format must be text or json, got %q", ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}
