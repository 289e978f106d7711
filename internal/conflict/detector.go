package conflict

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/davidhsu/agentgraph/internal/config"
	"github.com/davidhsu/agentgraph/internal/model"
	"github.com/davidhsu/agentgraph/internal/repo"
)

// CandidateFinder produces existing memories that may conflict with a new
// one. Implementations must only return memories of the same agent type
// with overlapping scope.
type CandidateFinder interface {
	Candidates(ctx context.Context, m *model.Memory) ([]model.Memory, error)
}

// ScopeFinder scans the agent type's memory set directly. Works without
// embeddings; cost is linear in the agent's memory count.
type ScopeFinder struct {
	Repo *repo.Repo
}

func (f ScopeFinder) Candidates(ctx context.Context, m *model.Memory) ([]model.Memory, error) {
	shared, err := f.Repo.MemoriesForAgent(ctx, m.AgentTypeID)
	if err != nil {
		return nil, err
	}
	var out []model.Memory
	for _, c := range shared {
		if c.ID == m.ID || c.Status == model.StatusSuperseded {
			continue
		}
		if !scopeOverlaps(m, &c) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// scopeOverlaps reports whether two memories can be visible to the same
// caller: one of them global, or both scoped to the same project.
func scopeOverlaps(a, b *model.Memory) bool {
	return a.Global() || b.Global() || a.ProjectID == b.ProjectID
}

// Detector finds the best candidate conflict for a newly created memory
// and classifies the pair.
type Detector struct {
	repo   *repo.Repo
	finder CandidateFinder
	cls    Classifier
	cfg    config.ConflictConfig
}

// NewDetector wires a detector from its collaborators.
func NewDetector(r *repo.Repo, finder CandidateFinder, cls Classifier, cfg config.ConflictConfig) *Detector {
	return &Detector{repo: r, finder: finder, cls: cls, cfg: cfg}
}

// Detect returns the most similar overlapping memory whose subject
// similarity meets the detection threshold, or nil when the new memory is
// unrelated to everything already recorded.
func (d *Detector) Detect(ctx context.Context, m *model.Memory) (*model.Memory, float64, error) {
	candidates, err := d.finder.Candidates(ctx, m)
	if err != nil {
		return nil, 0, fmt.Errorf("detect: %w", err)
	}

	type match struct {
		id  string
		sim float64
	}
	var matches []match
	for i := range candidates {
		sim, err := d.cls.Similarity(ctx, m.Content, candidates[i].Content)
		if err != nil {
			return nil, 0, fmt.Errorf("detect: similarity: %w", err)
		}
		if sim >= d.cfg.SubjectSimilarity {
			matches = append(matches, match{id: candidates[i].ID, sim: sim})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].sim > matches[j].sim })

	// Re-fetch so resolution sees current quality and status, not whatever
	// the finder indexed. A finder may serve stale entries: candidates
	// deleted or superseded since indexing are skipped in favor of the next
	// best, never surfaced as a write failure.
	for _, mt := range matches {
		full, err := d.repo.Get(ctx, mt.id)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				continue
			}
			return nil, 0, fmt.Errorf("detect: %w", err)
		}
		if full.Status == model.StatusSuperseded {
			continue
		}
		return full, mt.sim, nil
	}
	return nil, 0, nil
}

// Classify buckets a candidate pair into exactly one class.
//
// Contexts that differ beyond the similarity threshold mean both memories
// are independently valid. Otherwise the pair addresses the same subject:
// creations far enough apart are a temporal succession, near-simultaneous
// ones a direct contradiction.
func (d *Detector) Classify(ctx context.Context, a, b *model.Memory) (model.ConflictClass, error) {
	ctxSim, err := d.cls.Similarity(ctx, contextDescriptor(a), contextDescriptor(b))
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}
	if ctxSim < d.cfg.ContextSimilarity {
		return model.ClassContextual, nil
	}

	gap := a.CreatedAt.Sub(b.CreatedAt)
	if gap < 0 {
		gap = -gap
	}
	if gap > d.cfg.TemporalWindow {
		return model.ClassTemporal, nil
	}
	return model.ClassDirect, nil
}

// contextDescriptor flattens a memory's applicability context for the
// classifier: scope, discriminator, and the normalized pattern signature.
func contextDescriptor(m *model.Memory) string {
	scope := "global"
	if m.ProjectID != "" {
		scope = "project " + m.ProjectID
	}
	parts := []string{scope, string(m.Type)}
	if m.PatternSig != "" {
		parts = append(parts, m.PatternSig)
	}
	return strings.Join(parts, " ")
}
