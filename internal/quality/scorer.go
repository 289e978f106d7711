// Package quality computes and decays the multidimensional quality score
// that gates how a memory surfaces in retrieval.
package quality

import (
	"context"
	"time"

	"github.com/davidhsu/agentgraph/internal/config"
	"github.com/davidhsu/agentgraph/internal/model"
	"github.com/davidhsu/agentgraph/internal/repo"
)

// Band describes how retrieval should treat a memory at a given score.
type Band string

const (
	BandRecommend Band = "recommend" // >= 0.8: recommend proactively
	BandAvailable Band = "available" // 0.6-0.79
	BandCaution   Band = "caution"   // 0.4-0.59: available with caution flag
	BandWarned    Band = "warned"    // 0.2-0.39: available but warned
	BandArchived  Band = "archived"  // < 0.2: excluded from default retrieval, not deleted
)

// Scorer computes composite quality scores. Weights and decay rate are fixed
// configuration; scoring itself is pure arithmetic.
type Scorer struct {
	cfg config.QualityConfig
}

// New creates a scorer from configuration.
func New(cfg config.QualityConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Recency returns the time-decayed recency sub-score at now. The basis is
// the later of creation and last access, so a surfaced memory stays fresh.
// Decays monotonically, clamped at zero.
func (s *Scorer) Recency(m *model.Memory, now time.Time) float64 {
	basis := m.CreatedAt
	if m.LastAccessedAt != nil && m.LastAccessedAt.After(basis) {
		basis = *m.LastAccessedAt
	}
	ageDays := now.Sub(basis).Hours() / 24.0
	if ageDays < 0 {
		ageDays = 0
	}
	r := 1 - (ageDays/30.0)*s.cfg.DecayRate
	if r < 0 {
		return 0
	}
	return r
}

// Score computes the weighted composite in [0,1] at now.
func (s *Scorer) Score(m *model.Memory, now time.Time) float64 {
	c := s.cfg
	score := m.Quality.Confidence*c.ConfidenceWeight +
		m.Quality.Validation*c.ValidationWeight +
		s.Recency(m, now)*c.RecencyWeight +
		m.Quality.Consensus*c.ConsensusWeight +
		m.Quality.Specificity*c.SpecificityWeight +
		m.Quality.Impact*c.ImpactWeight
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Initial fills in the composite for a freshly created memory whose
// sub-scores were seeded by the caller (agent confidence, fact confidence).
func (s *Scorer) Initial(q model.Quality, createdAt time.Time) model.Quality {
	m := model.Memory{Quality: q, CreatedAt: createdAt}
	q.Score = s.Score(&m, createdAt)
	return q
}

// Band maps a composite score to its retrieval band.
func (s *Scorer) Band(score float64) Band {
	switch {
	case score >= 0.8:
		return BandRecommend
	case score >= 0.6:
		return BandAvailable
	case score >= 0.4:
		return BandCaution
	case score >= 0.2:
		return BandWarned
	default:
		return BandArchived
	}
}

// Rescore recomputes and persists a memory's composite at now. Used by the
// decay pass; the stored score only moves down over time absent validation.
func (s *Scorer) Rescore(ctx context.Context, r *repo.Repo, id string, now time.Time) (float64, error) {
	var score float64
	err := r.UpdateMemory(ctx, id, func(m *model.Memory) error {
		score = s.Score(m, now)
		m.Quality.Score = score
		return nil
	})
	return score, err
}

// RecordValidation folds one use outcome into the running validation ratio
// as an exponential moving average, so a single bad outcome cannot erase a
// long history of good ones. The first sample seeds the ratio directly
// (see config.QualityConfig.ValidationAlpha); damping starts at the
// second. Feedback is clamped to [0,1].
func (s *Scorer) RecordValidation(ctx context.Context, r *repo.Repo, id string, success bool, feedback float64) error {
	if feedback < 0 {
		feedback = 0
	}
	if feedback > 1 {
		feedback = 1
	}
	if !success && feedback > 0.5 {
		feedback = 0.5
	}
	alpha := s.cfg.ValidationAlpha
	now := time.Now().UTC()
	return r.UpdateMemory(ctx, id, func(m *model.Memory) error {
		if m.Quality.ValidationCount == 0 {
			m.Quality.Validation = feedback
		} else {
			m.Quality.Validation = alpha*feedback + (1-alpha)*m.Quality.Validation
		}
		m.Quality.ValidationCount++
		m.Quality.Score = s.Score(m, now)
		return nil
	})
}
