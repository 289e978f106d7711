// Package config provides YAML configuration for the memory graph.
// Thresholds and weights are tunable here rather than hardcoded; the
// defaults match the values the system was tuned with.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete configuration tree.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Quality   QualityConfig   `yaml:"quality"`
	Conflict  ConflictConfig  `yaml:"conflict"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	Cache     CacheConfig     `yaml:"cache"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StoreConfig locates the graph store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// QualityConfig holds scoring weights and decay settings.
// Weights are fixed configuration, not computed.
type QualityConfig struct {
	ConfidenceWeight  float64 `yaml:"confidence_weight"`
	ValidationWeight  float64 `yaml:"validation_weight"`
	RecencyWeight     float64 `yaml:"recency_weight"`
	ConsensusWeight   float64 `yaml:"consensus_weight"`
	SpecificityWeight float64 `yaml:"specificity_weight"`
	ImpactWeight      float64 `yaml:"impact_weight"`
	DecayRate         float64 `yaml:"decay_rate"`     // monthly decay applied to recency
	// ValidationAlpha is the EMA weight of a single feedback sample. The
	// very first sample seeds the ratio directly rather than being damped
	// against the zero default, which would undercount validation for the
	// first ~10 samples; damping applies from the second sample onward,
	// once there is history worth protecting.
	ValidationAlpha float64 `yaml:"validation_alpha"`
}

// ConflictConfig holds detection and resolution thresholds.
type ConflictConfig struct {
	SubjectSimilarity  float64       `yaml:"subject_similarity"`   // min content similarity to consider two memories related
	ContextSimilarity  float64       `yaml:"context_similarity"`   // below this, contexts are distinct (contextual non-conflict)
	TemporalWindow     time.Duration `yaml:"-"`                    // creations further apart than this are temporal, not direct
	TemporalQualityGap float64       `yaml:"temporal_quality_gap"` // quality gap required for temporal supersession
	TemporalMinQuality float64       `yaml:"temporal_min_quality"` // floor the newer memory must meet to supersede
	QualityGap         float64       `yaml:"quality_gap"`          // gap for automatic direct resolution
	DebateSize         int           `yaml:"debate_size"`          // fixed odd evaluator count
}

// UnmarshalYAML parses the temporal window from a Go duration string; the
// yaml decoder cannot fill time.Duration fields on its own.
func (c *ConflictConfig) UnmarshalYAML(value *yaml.Node) error {
	type raw ConflictConfig
	r := raw(*c)
	if err := value.Decode(&r); err != nil {
		return err
	}
	*c = ConflictConfig(r)

	var aux struct {
		TemporalWindow string `yaml:"temporal_window"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	if aux.TemporalWindow != "" {
		d, err := time.ParseDuration(aux.TemporalWindow)
		if err != nil {
			return fmt.Errorf("temporal_window: %w", err)
		}
		c.TemporalWindow = d
	}
	return nil
}

// BridgeConfig holds cross-subgraph link settings.
type BridgeConfig struct {
	PromotionMinProjects int `yaml:"promotion_min_projects"`
}

// CacheConfig controls the read-through existence cache.
type CacheConfig struct {
	ExistenceTTL time.Duration `yaml:"-"`
}

func (c *CacheConfig) UnmarshalYAML(value *yaml.Node) error {
	var aux struct {
		ExistenceTTL string `yaml:"existence_ttl"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	if aux.ExistenceTTL != "" {
		d, err := time.ParseDuration(aux.ExistenceTTL)
		if err != nil {
			return fmt.Errorf("existence_ttl: %w", err)
		}
		c.ExistenceTTL = d
	}
	return nil
}

// EmbeddingConfig selects the embedding provider for the vector classifier.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // none, hash, ollama
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	Dims     int    `yaml:"dims"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Format  string `yaml:"format"` // console, json
	Verbose bool   `yaml:"verbose"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Store: StoreConfig{
			Path: filepath.Join(home, ".agentgraph", "graph.db"),
		},
		Quality: QualityConfig{
			ConfidenceWeight:  0.25,
			ValidationWeight:  0.20,
			RecencyWeight:     0.15,
			ConsensusWeight:   0.20,
			SpecificityWeight: 0.10,
			ImpactWeight:      0.10,
			DecayRate:         0.01,
			ValidationAlpha:   0.1,
		},
		Conflict: ConflictConfig{
			SubjectSimilarity:  0.5,
			ContextSimilarity:  0.3,
			TemporalWindow:     72 * time.Hour,
			TemporalQualityGap: 0.1,
			TemporalMinQuality: 0.5,
			QualityGap:         0.15,
			DebateSize:         3,
		},
		Bridge: BridgeConfig{
			PromotionMinProjects: 3,
		},
		Cache: CacheConfig{
			ExistenceTTL: 5 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider: "none",
			BaseURL:  "http://localhost:11434",
			Model:    "nomic-embed-text",
			Dims:     768,
		},
		Logging: LoggingConfig{
			Format: "console",
		},
	}
}

// Load reads a YAML config file, layering it over the defaults.
// A missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
