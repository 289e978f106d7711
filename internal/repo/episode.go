package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/davidhsu/agentgraph/internal/graph"
	"github.com/davidhsu/agentgraph/internal/model"
)

// EpisodeParams holds the input for recording an episode.
type EpisodeParams struct {
	AgentTypeID string
	ProjectID   string
	Kind        model.EpisodeKind
	Outcome     string
	Rationale   string
}

// CreateEpisode appends an episode. Episodes are attributed to exactly one
// agent type and optionally one project; they are never mutated afterwards
// except through AttachResolution.
func (r *Repo) CreateEpisode(ctx context.Context, p EpisodeParams) (*model.Episode, error) {
	ok, err := r.nodeExists(ctx, model.LabelAgentType, p.AgentTypeID)
	if err != nil {
		return nil, fmt.Errorf("create episode: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidAgentType, p.AgentTypeID)
	}
	if p.ProjectID != "" {
		ok, err := r.nodeExists(ctx, model.LabelProject, p.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("create episode: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %q", model.ErrInvalidScope, p.ProjectID)
		}
	}

	ep := model.Episode{
		AgentTypeID: p.AgentTypeID,
		ProjectID:   p.ProjectID,
		Kind:        p.Kind,
		Outcome:     p.Outcome,
		Rationale:   p.Rationale,
		OccurredAt:  time.Now().UTC(),
	}

	edges := []graph.EdgeSpec{
		{ToID: p.AgentTypeID, Rel: model.RelPerformedBy},
	}
	if p.ProjectID != "" {
		edges = append(edges, graph.EdgeSpec{ToID: p.ProjectID, Rel: model.RelOccursWithin})
	}

	id, err := r.g.CreateNodeWithEdges(ctx, graph.NodeSpec{Label: model.LabelEpisode, Props: ep}, edges)
	if err != nil {
		return nil, fmt.Errorf("create episode: %w", err)
	}
	ep.ID = id
	return &ep, nil
}

// GetEpisode fetches an episode by id.
func (r *Repo) GetEpisode(ctx context.Context, id string) (*model.Episode, error) {
	n, err := r.g.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Label != model.LabelEpisode {
		return nil, fmt.Errorf("%w: %s is not an episode", model.ErrNotFound, id)
	}
	var ep model.Episode
	if err := json.Unmarshal(n.Props, &ep); err != nil {
		return nil, fmt.Errorf("decode episode %s: %w", id, err)
	}
	ep.ID = id
	return &ep, nil
}

// AttachResolution records the resolution outcome on an episode. This is the
// only sanctioned episode mutation.
func (r *Repo) AttachResolution(ctx context.Context, id, outcome, resolution string) error {
	return r.g.MutateNode(ctx, id, func(props json.RawMessage) (any, error) {
		var ep model.Episode
		if err := json.Unmarshal(props, &ep); err != nil {
			return nil, fmt.Errorf("decode episode %s: %w", id, err)
		}
		ep.ID = id
		ep.Outcome = outcome
		ep.Resolution = resolution
		return ep, nil
	})
}
