package conflict

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/davidhsu/agentgraph/internal/graph"
	"github.com/davidhsu/agentgraph/internal/model"
	"github.com/davidhsu/agentgraph/internal/repo"
)

// Store persists conflict audit records as graph nodes with involves and
// resolves_to edges. Resolved conflicts are archived in place, never
// deleted.
type Store struct {
	g graph.Store
}

// NewStore creates a conflict store over the graph.
func NewStore(g graph.Store) *Store {
	return &Store{g: g}
}

// Save persists a new conflict record. The id is assigned here.
func (s *Store) Save(ctx context.Context, c *model.Conflict) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	edges := []graph.EdgeSpec{
		{ToID: c.MemoryA, Rel: model.RelInvolves},
		{ToID: c.MemoryB, Rel: model.RelInvolves},
	}
	if c.ConsensusID != "" {
		edges = append(edges, graph.EdgeSpec{ToID: c.ConsensusID, Rel: model.RelResolvesTo})
	}
	_, err := s.g.CreateNodeWithEdges(ctx, graph.NodeSpec{
		ID:    c.ID,
		Label: model.LabelConflict,
		Props: c,
	}, edges)
	if err != nil {
		return fmt.Errorf("save conflict: %w", err)
	}
	return nil
}

// Get fetches a conflict by id.
func (s *Store) Get(ctx context.Context, id string) (*model.Conflict, error) {
	n, err := s.g.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Label != model.LabelConflict {
		return nil, fmt.Errorf("%w: %s is not a conflict", model.ErrNotFound, id)
	}
	var c model.Conflict
	if err := json.Unmarshal(n.Props, &c); err != nil {
		return nil, fmt.Errorf("decode conflict %s: %w", id, err)
	}
	c.ID = id
	return &c, nil
}

// List returns conflicts, optionally filtered by status. Status
// "escalated" is the human-review queue.
func (s *Store) List(ctx context.Context, status model.ConflictStatus) ([]model.Conflict, error) {
	nodes, err := s.g.NodesByLabel(ctx, model.LabelConflict)
	if err != nil {
		return nil, err
	}
	var out []model.Conflict
	for _, n := range nodes {
		var c model.Conflict
		if err := json.Unmarshal(n.Props, &c); err != nil {
			return nil, fmt.Errorf("decode conflict %s: %w", n.ID, err)
		}
		c.ID = n.ID
		if status != "" && c.Status != status {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// RecordHumanDecision closes an escalated conflict with the reviewer's
// pick. The winner stays active, the loser is marked superseded, both lose
// their conflict flag, and the record is archived.
func (s *Store) RecordHumanDecision(ctx context.Context, r *repo.Repo, conflictID, winnerID, note string) (*model.Conflict, error) {
	c, err := s.Get(ctx, conflictID)
	if err != nil {
		return nil, err
	}
	if c.Status != model.ConflictEscalated {
		return nil, fmt.Errorf("conflict %s is not awaiting human review (status %s)", conflictID, c.Status)
	}
	if winnerID != c.MemoryA && winnerID != c.MemoryB {
		return nil, fmt.Errorf("%w: %s is not involved in conflict %s", model.ErrNotFound, winnerID, conflictID)
	}
	loserID := c.MemoryA
	if loserID == winnerID {
		loserID = c.MemoryB
	}

	if err := supersede(ctx, r, winnerID, loserID); err != nil {
		return nil, err
	}
	if err := r.UpdateMemory(ctx, winnerID, func(m *model.Memory) error {
		m.ConflictFlag = false
		return nil
	}); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c.WinnerID = winnerID
	c.Strategy = model.StrategyHuman
	c.Status = model.ConflictArchived
	c.Note = note
	c.ResolvedAt = &now
	if err := s.update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) update(ctx context.Context, c *model.Conflict) error {
	return s.g.MutateNode(ctx, c.ID, func(json.RawMessage) (any, error) {
		return c, nil
	})
}
