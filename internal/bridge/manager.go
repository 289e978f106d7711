// Package bridge creates and maintains the cross-subgraph relationships
// linking memories to externally-produced code and knowledge nodes, and
// reacts to external change signals without breaking existing links.
package bridge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/davidhsu/agentgraph/internal/embedding"
	"github.com/davidhsu/agentgraph/internal/model"
	"github.com/davidhsu/agentgraph/internal/repo"
)

// Manager owns bridge edges and the cross-project promotion path.
type Manager struct {
	repo *repo.Repo

	// promotionMin is the distinct-project count at which a pattern
	// qualifies for global promotion.
	promotionMin int
}

// NewManager creates a bridge manager.
func NewManager(r *repo.Repo, promotionMin int) *Manager {
	if promotionMin <= 0 {
		promotionMin = 3
	}
	return &Manager{repo: r, promotionMin: promotionMin}
}

// Link connects a memory to an external node. Bridges are additive only.
func (m *Manager) Link(ctx context.Context, memoryID, externalID, relationKind string) error {
	if _, err := m.repo.Get(ctx, memoryID); err != nil {
		return err
	}
	return m.repo.LinkReference(ctx, memoryID, externalID, relationKind)
}

// OnExternalNodeUpdated reacts to a change signal from the external
// extractor. Existing memory edges are preserved; memories whose claims may
// now be stale get an explicit invalidation timestamp, and a change episode
// is recorded per affected agent type. Nothing is cascade-deleted: the
// edges are historical traceability downstream queries depend on.
func (m *Manager) OnExternalNodeUpdated(ctx context.Context, externalID string) ([]string, error) {
	edges, err := m.repo.Graph().EdgesTo(ctx, externalID, model.RelReferences)
	if err != nil {
		return nil, fmt.Errorf("external update: %w", err)
	}

	now := time.Now().UTC()
	var stale []string
	agents := map[string]int{}
	for _, e := range edges {
		mem, err := m.repo.Get(ctx, e.FromID)
		if err != nil {
			// Episodes also hold reference edges; only memories get staled.
			continue
		}
		err = m.repo.UpdateMemory(ctx, mem.ID, func(mm *model.Memory) error {
			if mm.InvalidatedAt == nil {
				t := now
				mm.InvalidatedAt = &t
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		stale = append(stale, mem.ID)
		agents[mem.AgentTypeID]++
	}

	for agentTypeID, count := range agents {
		_, err := m.repo.CreateEpisode(ctx, repo.EpisodeParams{
			AgentTypeID: agentTypeID,
			Kind:        model.EpisodeCodeChange,
			Rationale:   fmt.Sprintf("external element %s changed; %d memories flagged stale", externalID, count),
		})
		if err != nil {
			return nil, err
		}
	}
	return stale, nil
}

// PromoteCrossProject scans for pattern signatures observed in memories
// scoped to promotionMin or more distinct projects of one agent type and
// removes their project-scope edges. This is the only sanctioned path by
// which a project-scoped memory becomes global.
func (m *Manager) PromoteCrossProject(ctx context.Context) ([]string, error) {
	nodes, err := m.repo.Graph().NodesByLabel(ctx, model.LabelMemory)
	if err != nil {
		return nil, fmt.Errorf("promote: %w", err)
	}

	type group struct {
		projects map[string]bool
		members  []model.Memory
	}
	groups := map[string]*group{}
	for _, n := range nodes {
		mem, err := m.repo.Get(ctx, n.ID)
		if err != nil {
			return nil, err
		}
		if mem.PatternSig == "" || mem.Status == model.StatusSuperseded {
			continue
		}
		scope, err := m.repo.ScopeProject(ctx, mem.ID)
		if err != nil {
			return nil, err
		}
		if scope == "" {
			continue
		}
		key := mem.AgentTypeID + "\x00" + mem.PatternSig
		g := groups[key]
		if g == nil {
			g = &group{projects: map[string]bool{}}
			groups[key] = g
		}
		g.projects[scope] = true
		mem.ProjectID = scope
		g.members = append(g.members, *mem)
	}

	var promoted []string
	for _, g := range groups {
		if len(g.projects) < m.promotionMin {
			continue
		}
		for _, mem := range g.members {
			if err := m.repo.Graph().DeleteEdge(ctx, mem.ID, mem.ProjectID, model.RelScopedTo); err != nil {
				return nil, err
			}
			err := m.repo.UpdateMemory(ctx, mem.ID, func(mm *model.Memory) error {
				mm.ProjectID = ""
				return nil
			})
			if err != nil {
				return nil, err
			}
			promoted = append(promoted, mem.ID)
		}
	}
	sort.Strings(promoted)
	return promoted, nil
}

// NormalizeSignature derives a stable pattern signature from free text:
// unique lowercase tokens, sorted. Equal claims phrased with the same
// vocabulary normalize to the same signature across projects.
func NormalizeSignature(content string) string {
	seen := map[string]bool{}
	var toks []string
	for _, t := range embedding.Tokenize(content) {
		if !seen[t] {
			seen[t] = true
			toks = append(toks, t)
		}
	}
	sort.Strings(toks)
	return strings.Join(toks, "-")
}
