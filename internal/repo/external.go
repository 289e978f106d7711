package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/davidhsu/agentgraph/internal/graph"
	"github.com/davidhsu/agentgraph/internal/model"
)

// This file is the ingest boundary for externally-produced nodes. The core
// never validates or drives the pipelines that produce knowledge facts and
// code elements; it only records their existence so memories can link to them.

// IngestFact upserts a knowledge fact triple produced by the extraction
// pipeline. Facts are read-only inputs.
func (r *Repo) IngestFact(ctx context.Context, f model.KnowledgeFact) (string, error) {
	if f.Subject == "" || f.Predicate == "" || f.Object == "" {
		return "", fmt.Errorf("ingest fact: subject, predicate and object are required")
	}
	id := f.ID
	if id == "" {
		id = "fact:" + f.Subject + "/" + f.Predicate + "/" + f.Object
	}
	f.ID = id
	if err := r.g.UpsertNode(ctx, id, model.LabelKnowledgeFact, f); err != nil {
		return "", fmt.Errorf("ingest fact: %w", err)
	}
	return id, nil
}

// IngestCodeElement records a code element reported by the external
// code-structure extractor. The core never creates these of its own accord.
func (r *Repo) IngestCodeElement(ctx context.Context, e model.CodeElement) (string, error) {
	if e.ID == "" {
		return "", fmt.Errorf("ingest code element: id is required")
	}
	if err := r.g.UpsertNode(ctx, e.ID, model.LabelCodeElement, e); err != nil {
		return "", fmt.Errorf("ingest code element: %w", err)
	}
	return e.ID, nil
}

// GetFact fetches a knowledge fact by id.
func (r *Repo) GetFact(ctx context.Context, id string) (*model.KnowledgeFact, error) {
	n, err := r.g.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Label != model.LabelKnowledgeFact {
		return nil, fmt.Errorf("%w: %s is not a knowledge fact", model.ErrNotFound, id)
	}
	var f model.KnowledgeFact
	if err := json.Unmarshal(n.Props, &f); err != nil {
		return nil, fmt.Errorf("decode fact %s: %w", id, err)
	}
	return &f, nil
}

// LinkReference connects a memory or episode to an externally-produced node.
// The target must already exist; the core links by reference only.
func (r *Repo) LinkReference(ctx context.Context, fromID, externalID, kind string) error {
	target, err := r.g.GetNode(ctx, externalID)
	if err != nil {
		return fmt.Errorf("link reference: %w", err)
	}
	if target.Label != model.LabelCodeElement && target.Label != model.LabelKnowledgeFact {
		return fmt.Errorf("link reference: %w: %s is not an external node", model.ErrNotFound, externalID)
	}
	err = r.g.CreateEdge(ctx, graph.EdgeSpec{
		FromID: fromID,
		ToID:   externalID,
		Rel:    model.RelReferences,
		Props:  map[string]string{"kind": kind},
	})
	if err != nil {
		return fmt.Errorf("link reference: %w", err)
	}
	return nil
}
