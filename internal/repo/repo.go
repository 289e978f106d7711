// Package repo implements the memory repository. It owns the node and
// relationship schema and enforces the structural invariants on write:
// every memory carries exactly one shared_by edge and at most one
// scoped_to edge, checked at the transaction boundary.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/davidhsu/agentgraph/internal/graph"
	"github.com/davidhsu/agentgraph/internal/model"
)

// Repo mediates all memory, episode and fact writes to the graph store.
type Repo struct {
	g graph.Store
	// existence is a short-TTL read-through cache of AgentType/Project
	// lookups. Memory rows themselves are never cached: the access-count
	// side effect must hit the store on every retrieval.
	existence *gocache.Cache
}

// New creates a repository over the given graph store.
func New(g graph.Store, existenceTTL time.Duration) *Repo {
	if existenceTTL <= 0 {
		existenceTTL = 5 * time.Second
	}
	return &Repo{
		g:         g,
		existence: gocache.New(existenceTTL, 2*existenceTTL),
	}
}

// Graph exposes the underlying store to cooperating engines.
func (r *Repo) Graph() graph.Store { return r.g }

// RegisterAgentType upserts an agent type node. Idempotent; called once at
// bootstrap per role.
func (r *Repo) RegisterAgentType(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty agent type id", model.ErrInvalidAgentType)
	}
	at := model.AgentType{ID: id, CreatedAt: time.Now().UTC()}
	if err := r.g.UpsertNode(ctx, id, model.LabelAgentType, at); err != nil {
		return fmt.Errorf("register agent type: %w", err)
	}
	r.existence.Set(existenceKey(model.LabelAgentType, id), true, gocache.DefaultExpiration)
	return nil
}

// RegisterProject upserts a project node and refreshes its last-active
// timestamp. Called whenever an agent first acts within a project.
func (r *Repo) RegisterProject(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty project id", model.ErrInvalidScope)
	}
	p := model.Project{ID: id, LastActive: time.Now().UTC()}
	if err := r.g.UpsertNode(ctx, id, model.LabelProject, p); err != nil {
		return fmt.Errorf("register project: %w", err)
	}
	r.existence.Set(existenceKey(model.LabelProject, id), true, gocache.DefaultExpiration)
	return nil
}

func existenceKey(label, id string) string { return label + "/" + id }

// nodeExists checks that a node with the given id and label exists, going
// through the read-through cache.
func (r *Repo) nodeExists(ctx context.Context, label, id string) (bool, error) {
	key := existenceKey(label, id)
	if _, found := r.existence.Get(key); found {
		return true, nil
	}
	n, err := r.g.GetNode(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if n.Label != label {
		return false, nil
	}
	r.existence.Set(key, true, gocache.DefaultExpiration)
	return true, nil
}

// CreateParams holds the input for creating a memory.
type CreateParams struct {
	Content     string
	Type        model.MemoryType
	AgentTypeID string
	ProjectID   string // empty means global
	PatternSig  string
	Quality     model.Quality // initial sub-scores, composite already computed
}

// Create validates scope and persists a memory with its sharing and scope
// edges in one transaction.
func (r *Repo) Create(ctx context.Context, p CreateParams) (*model.Memory, error) {
	if p.Content == "" {
		return nil, fmt.Errorf("create: content is required")
	}
	if p.Type == "" {
		p.Type = model.TypeConversational
	}
	if !model.ValidMemoryTypes[p.Type] {
		return nil, fmt.Errorf("create: invalid memory type %q", p.Type)
	}

	ok, err := r.nodeExists(ctx, model.LabelAgentType, p.AgentTypeID)
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidAgentType, p.AgentTypeID)
	}
	if p.ProjectID != "" {
		ok, err := r.nodeExists(ctx, model.LabelProject, p.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("create: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %q", model.ErrInvalidScope, p.ProjectID)
		}
	}

	m := model.Memory{
		AgentTypeID: p.AgentTypeID,
		ProjectID:   p.ProjectID,
		Type:        p.Type,
		Content:     p.Content,
		PatternSig:  p.PatternSig,
		Status:      model.StatusActive,
		Quality:     p.Quality,
		CreatedAt:   time.Now().UTC(),
	}

	edges := []graph.EdgeSpec{
		{ToID: p.AgentTypeID, Rel: model.RelSharedBy},
	}
	if p.ProjectID != "" {
		edges = append(edges, graph.EdgeSpec{ToID: p.ProjectID, Rel: model.RelScopedTo})
	}

	id, err := r.g.CreateNodeWithEdges(ctx, graph.NodeSpec{Label: model.LabelMemory, Props: m}, edges)
	if err != nil {
		return nil, fmt.Errorf("create memory: %w", err)
	}
	m.ID = id
	return &m, nil
}

// Get fetches a memory by id.
func (r *Repo) Get(ctx context.Context, id string) (*model.Memory, error) {
	n, err := r.g.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Label != model.LabelMemory {
		return nil, fmt.Errorf("%w: %s is not a memory", model.ErrNotFound, id)
	}
	var m model.Memory
	if err := json.Unmarshal(n.Props, &m); err != nil {
		return nil, fmt.Errorf("decode memory %s: %w", id, err)
	}
	m.ID = id
	return &m, nil
}

// UpdateMemory applies an atomic read-modify-write to a memory's properties.
func (r *Repo) UpdateMemory(ctx context.Context, id string, fn func(*model.Memory) error) error {
	return r.g.MutateNode(ctx, id, func(props json.RawMessage) (any, error) {
		var m model.Memory
		if err := json.Unmarshal(props, &m); err != nil {
			return nil, fmt.Errorf("decode memory %s: %w", id, err)
		}
		m.ID = id
		if err := fn(&m); err != nil {
			return nil, err
		}
		return m, nil
	})
}

// Touch records a retrieval: access count incremented, last-accessed bumped.
// Applied read-modify-write so concurrent retrievals both land.
func (r *Repo) Touch(ctx context.Context, id string, now time.Time) error {
	return r.UpdateMemory(ctx, id, func(m *model.Memory) error {
		m.AccessCount++
		t := now.UTC()
		m.LastAccessedAt = &t
		return nil
	})
}

// Delete removes a memory and all its edges atomically. Unconditional;
// auditability is the conflict record's job, not deletion's.
func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	return r.g.DeleteNodeDetach(ctx, id)
}

// MemoriesForAgent returns every memory shared by the agent type, in edge
// creation order.
func (r *Repo) MemoriesForAgent(ctx context.Context, agentTypeID string) ([]model.Memory, error) {
	edges, err := r.g.EdgesTo(ctx, agentTypeID, model.RelSharedBy)
	if err != nil {
		return nil, err
	}
	memories := make([]model.Memory, 0, len(edges))
	for _, e := range edges {
		m, err := r.Get(ctx, e.FromID)
		if err != nil {
			return nil, err
		}
		memories = append(memories, *m)
	}
	return memories, nil
}

// ScopeProject resolves a memory's project edge, if any. The edge is the
// authoritative source of isolation level.
func (r *Repo) ScopeProject(ctx context.Context, memoryID string) (string, error) {
	edges, err := r.g.EdgesFrom(ctx, memoryID, model.RelScopedTo)
	if err != nil {
		return "", err
	}
	if len(edges) == 0 {
		return "", nil
	}
	return edges[0].ToID, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}
