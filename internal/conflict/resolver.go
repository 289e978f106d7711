package conflict

import (
	"context"
	"fmt"
	"time"

	"github.com/davidhsu/agentgraph/internal/config"
	"github.com/davidhsu/agentgraph/internal/graph"
	"github.com/davidhsu/agentgraph/internal/model"
	"github.com/davidhsu/agentgraph/internal/quality"
	"github.com/davidhsu/agentgraph/internal/repo"
)

// Resolver runs the resolution pipeline over a classified pair. It operates
// on copies and writes outcomes back through the repository; it never holds
// locks on unrelated memories while a debate runs.
type Resolver struct {
	repo   *repo.Repo
	scorer *quality.Scorer
	panel  Panel
	store  *Store
	cfg    config.ConflictConfig
	now    func() time.Time
}

// NewResolver wires a resolver from its collaborators.
func NewResolver(r *repo.Repo, s *quality.Scorer, panel Panel, store *Store, cfg config.ConflictConfig) *Resolver {
	return &Resolver{repo: r, scorer: s, panel: panel, store: store, cfg: cfg, now: time.Now}
}

// Resolve settles a classified pair and persists the audit record.
// Superseded memories are retained and stay fetchable by id; only their
// status changes.
func (r *Resolver) Resolve(ctx context.Context, class model.ConflictClass, a, b *model.Memory) (*model.Conflict, error) {
	now := r.now().UTC()
	c := &model.Conflict{
		MemoryA:        a.ID,
		MemoryB:        b.ID,
		Classification: class,
		Strategy:       model.StrategyNone,
		Status:         model.ConflictArchived,
		DetectedAt:     now,
	}

	switch class {
	case model.ClassContextual:
		// Both independently valid; record and move on.
		c.Note = "non-conflict, contextual"
		c.ResolvedAt = &now

	case model.ClassTemporal:
		if err := r.resolveTemporal(ctx, c, a, b, now); err != nil {
			return nil, err
		}

	case model.ClassDirect:
		if err := r.resolveDirect(ctx, c, a, b, now); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("resolve: unknown classification %q", class)
	}

	if err := r.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// resolveTemporal marks the newer memory superseding when it is clearly
// better; otherwise both remain valid for time-scoped retrieval.
func (r *Resolver) resolveTemporal(ctx context.Context, c *model.Conflict, a, b *model.Memory, now time.Time) error {
	newer, older := a, b
	if b.CreatedAt.After(a.CreatedAt) {
		newer, older = b, a
	}
	newerScore := r.scorer.Score(newer, now)
	olderScore := r.scorer.Score(older, now)

	if newerScore-olderScore > r.cfg.TemporalQualityGap && newerScore >= r.cfg.TemporalMinQuality {
		if err := supersede(ctx, r.repo, newer.ID, older.ID); err != nil {
			return err
		}
		c.Strategy = model.StrategyQualityGap
		c.WinnerID = newer.ID
		c.Note = "temporal supersession; older retained for history"
	} else {
		c.Note = "temporal, no supersession: quality gap below threshold"
	}
	c.ResolvedAt = &now
	return nil
}

// resolveDirect runs the three tiers: quality gap, debate, human escalation.
func (r *Resolver) resolveDirect(ctx context.Context, c *model.Conflict, a, b *model.Memory, now time.Time) error {
	sa := r.scorer.Score(a, now)
	sb := r.scorer.Score(b, now)

	diff := sa - sb
	if diff < 0 {
		diff = -diff
	}
	if diff > r.cfg.QualityGap {
		winner, loser := a, b
		if sb > sa {
			winner, loser = b, a
		}
		if err := supersede(ctx, r.repo, winner.ID, loser.ID); err != nil {
			return err
		}
		c.Strategy = model.StrategyQualityGap
		c.WinnerID = winner.ID
		c.ResolvedAt = &now
		return nil
	}

	result, err := r.panel.Debate(ctx, *a, *b)
	if err != nil {
		// Debate mechanism unavailable: fail open to human escalation,
		// never to silently picking a winner.
		return r.escalate(ctx, c, a, b, "debate unavailable: "+err.Error())
	}
	c.DebateID = result.ID
	c.Transcript = result.Transcript

	if result.WinnerID == "" {
		return r.escalate(ctx, c, a, b, "debate reached no clear majority")
	}

	winner, loser := a, b
	if result.WinnerID == b.ID {
		winner, loser = b, a
	}
	consensus, err := r.synthesize(ctx, winner, loser, result)
	if err != nil {
		return err
	}
	if err := supersede(ctx, r.repo, consensus.ID, a.ID); err != nil {
		return err
	}
	if err := supersede(ctx, r.repo, consensus.ID, b.ID); err != nil {
		return err
	}
	c.Strategy = model.StrategyDebate
	c.WinnerID = winner.ID
	c.ConsensusID = consensus.ID
	c.ResolvedAt = &now
	return nil
}

// synthesize creates the consensus memory a majority debate produces,
// linked to both originals via derived_from edges. Scope is the originals'
// shared project, or global when they disagree.
func (r *Resolver) synthesize(ctx context.Context, winner, loser *model.Memory, result *DebateResult) (*model.Memory, error) {
	content := result.Consensus
	if content == "" {
		content = winner.Content
	}
	projectID := ""
	if winner.ProjectID == loser.ProjectID {
		projectID = winner.ProjectID
	}

	q := winner.Quality
	q.Consensus = voteShare(result, winner.ID)
	q = r.scorer.Initial(q, r.now().UTC())

	consensus, err := r.repo.Create(ctx, repo.CreateParams{
		Content:     content,
		Type:        winner.Type,
		AgentTypeID: winner.AgentTypeID,
		ProjectID:   projectID,
		PatternSig:  winner.PatternSig,
		Quality:     q,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize consensus: %w", err)
	}

	for _, origin := range []string{winner.ID, loser.ID} {
		err := r.repo.Graph().CreateEdge(ctx, graph.EdgeSpec{
			FromID: consensus.ID,
			ToID:   origin,
			Rel:    model.RelDerivedFrom,
		})
		if err != nil {
			return nil, fmt.Errorf("link consensus: %w", err)
		}
	}
	return consensus, nil
}

func voteShare(result *DebateResult, winnerID string) float64 {
	if len(result.Transcript) == 0 {
		return 0
	}
	var won int
	for _, e := range result.Transcript {
		if e.Vote == winnerID {
			won++
		}
	}
	return float64(won) / float64(len(result.Transcript))
}

// escalate parks the conflict in the human-review queue. Both memories
// stay independently retrievable, flagged, until a decision is recorded.
func (r *Resolver) escalate(ctx context.Context, c *model.Conflict, a, b *model.Memory, note string) error {
	for _, id := range []string{a.ID, b.ID} {
		err := r.repo.UpdateMemory(ctx, id, func(m *model.Memory) error {
			m.ConflictFlag = true
			return nil
		})
		if err != nil {
			return err
		}
	}
	c.Strategy = model.StrategyHuman
	c.Status = model.ConflictEscalated
	c.Note = note
	return nil
}

// supersede marks loser superseded by winner. The loser is retained, not
// deleted; history stays queryable by id.
func supersede(ctx context.Context, r *repo.Repo, winnerID, loserID string) error {
	err := r.UpdateMemory(ctx, loserID, func(m *model.Memory) error {
		m.Status = model.StatusSuperseded
		m.ConflictFlag = false
		return nil
	})
	if err != nil {
		return err
	}
	return r.Graph().CreateEdge(ctx, graph.EdgeSpec{
		FromID: winnerID,
		ToID:   loserID,
		Rel:    model.RelSupersedes,
	})
}
