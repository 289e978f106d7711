// Package retrieval computes the multi-level visibility of the memory set
// for an (agent type, project) pair and ranks the result. Global memories
// rank in tier 1, project-scoped in tier 2; within a tier recency wins,
// then composite quality.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/davidhsu/agentgraph/internal/model"
	"github.com/davidhsu/agentgraph/internal/quality"
	"github.com/davidhsu/agentgraph/internal/repo"
)

// Query selects and filters memories for one caller.
type Query struct {
	AgentTypeID string
	ProjectID   string
	Type        model.MemoryType // optional discriminator filter
	Concept     string           // optional substring filter on content
	Limit       int

	// IncludeArchived lifts the default exclusion of the archived band.
	IncludeArchived bool
	// IncludeSuperseded includes memories that lost a conflict. Off by
	// default so only current claims surface.
	IncludeSuperseded bool
}

const (
	priorityGlobal  = 1
	priorityProject = 2
)

// Result is a visible memory with its priority tier and quality band.
type Result struct {
	model.Memory
	Priority int          `json:"priority"`
	Band     quality.Band `json:"band"`
}

// Engine executes priority retrieval queries.
type Engine struct {
	repo   *repo.Repo
	scorer *quality.Scorer
	now    func() time.Time
}

// New creates a retrieval engine.
func New(r *repo.Repo, s *quality.Scorer) *Engine {
	return &Engine{repo: r, scorer: s, now: time.Now}
}

// Retrieve returns the ordered memory set visible to (agent type, project).
// A memory is visible iff it is shared by the agent type and either has no
// project scope or is scoped to exactly this project. Every returned memory
// has its access count incremented and last-accessed updated; that side
// effect is the system's only signal that a memory was worth surfacing.
func (e *Engine) Retrieve(ctx context.Context, q Query) ([]Result, error) {
	if q.AgentTypeID == "" {
		return nil, fmt.Errorf("%w: empty agent type id", model.ErrInvalidAgentType)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	shared, err := e.repo.MemoriesForAgent(ctx, q.AgentTypeID)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	now := e.now().UTC()
	var results []Result
	for i := range shared {
		m := shared[i]

		// Isolation: the scoped_to edge is authoritative, not the mirrored
		// field, so a corrupted property can never leak across projects.
		scope, err := e.repo.ScopeProject(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("retrieve: %w", err)
		}
		prio := priorityGlobal
		if scope != "" {
			if scope != q.ProjectID {
				continue
			}
			prio = priorityProject
		}

		if q.Type != "" && m.Type != q.Type {
			continue
		}
		if q.Concept != "" && !strings.Contains(strings.ToLower(m.Content), strings.ToLower(q.Concept)) {
			continue
		}
		if !q.IncludeSuperseded && m.Status == model.StatusSuperseded {
			continue
		}

		score := e.scorer.Score(&m, now)
		band := e.scorer.Band(score)
		if band == quality.BandArchived && !q.IncludeArchived {
			continue
		}
		m.Quality.Score = score
		results = append(results, Result{Memory: m, Priority: prio, Band: band})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Priority != results[j].Priority {
			return results[i].Priority < results[j].Priority
		}
		ri, rj := accessTime(&results[i].Memory), accessTime(&results[j].Memory)
		if !ri.Equal(rj) {
			return ri.After(rj)
		}
		return results[i].Quality.Score > results[j].Quality.Score
	})

	if len(results) > limit {
		results = results[:limit]
	}

	// Side effect after selection so a timeout mid-scan never reports a
	// truncated list as complete.
	for i := range results {
		if err := e.repo.Touch(ctx, results[i].ID, now); err != nil {
			return nil, fmt.Errorf("retrieve: touch %s: %w", results[i].ID, err)
		}
		results[i].AccessCount++
		t := now
		results[i].LastAccessedAt = &t
	}

	return results, nil
}

func accessTime(m *model.Memory) time.Time {
	if m.LastAccessedAt != nil {
		return *m.LastAccessedAt
	}
	return m.CreatedAt
}
