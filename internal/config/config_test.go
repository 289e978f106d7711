package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Conflict.SubjectSimilarity != 0.5 {
		t.Errorf("expected subject similarity 0.5, got %f", cfg.Conflict.SubjectSimilarity)
	}
	if cfg.Conflict.TemporalWindow != 72*time.Hour {
		t.Errorf("expected 72h temporal window, got %v", cfg.Conflict.TemporalWindow)
	}
	if cfg.Conflict.DebateSize%2 == 0 {
		t.Errorf("debate size must be odd, got %d", cfg.Conflict.DebateSize)
	}

	sum := cfg.Quality.ConfidenceWeight + cfg.Quality.ValidationWeight +
		cfg.Quality.RecencyWeight + cfg.Quality.ConsensusWeight +
		cfg.Quality.SpecificityWeight + cfg.Quality.ImpactWeight
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("expected quality weights to sum to 1, got %f", sum)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Conflict.QualityGap != Default().Conflict.QualityGap {
		t.Error("expected defaults for missing file")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
conflict:
  subject_similarity: 0.7
  temporal_window: 24h
embedding:
  provider: hash
  dims: 128
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Conflict.SubjectSimilarity != 0.7 {
		t.Errorf("expected override 0.7, got %f", cfg.Conflict.SubjectSimilarity)
	}
	if cfg.Conflict.TemporalWindow != 24*time.Hour {
		t.Errorf("expected 24h window, got %v", cfg.Conflict.TemporalWindow)
	}
	if cfg.Embedding.Provider != "hash" || cfg.Embedding.Dims != 128 {
		t.Errorf("expected embedding override, got %+v", cfg.Embedding)
	}
	// Untouched sections keep their defaults.
	if cfg.Conflict.QualityGap != 0.15 {
		t.Errorf("expected default quality gap preserved, got %f", cfg.Conflict.QualityGap)
	}
	if cfg.Quality.ConfidenceWeight != 0.25 {
		t.Errorf("expected default quality weights preserved, got %f", cfg.Quality.ConfidenceWeight)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("conflict: ["), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
