package conflict

import (
	"context"
	"fmt"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/davidhsu/agentgraph/internal/embedding"
	"github.com/davidhsu/agentgraph/internal/model"
)

// VectorIndex is a chromem-backed candidate finder. Memories are indexed
// per agent type so candidate queries never cross the sharing boundary.
// The index is a rebuildable acceleration structure, not a source of
// truth; the graph store stays authoritative.
type VectorIndex struct {
	db   *chromem.DB
	emb  embedding.Embedder
	topK int

	mu   sync.Mutex
	cols map[string]*chromem.Collection
}

// NewVectorIndex creates an in-memory vector index over the given embedder.
func NewVectorIndex(emb embedding.Embedder, topK int) *VectorIndex {
	if topK <= 0 {
		topK = 10
	}
	return &VectorIndex{
		db:   chromem.NewDB(),
		emb:  emb,
		topK: topK,
		cols: make(map[string]*chromem.Collection),
	}
}

func (ix *VectorIndex) collection(agentTypeID string) (*chromem.Collection, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if col, ok := ix.cols[agentTypeID]; ok {
		return col, nil
	}
	col, err := ix.db.CreateCollection("agent_"+agentTypeID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	ix.cols[agentTypeID] = col
	return col, nil
}

// Add indexes a memory. Called after every successful create.
func (ix *VectorIndex) Add(ctx context.Context, m *model.Memory) error {
	col, err := ix.collection(m.AgentTypeID)
	if err != nil {
		return err
	}
	vec, err := ix.emb.Embed(ctx, m.Content)
	if err != nil {
		return fmt.Errorf("index memory %s: %w", m.ID, err)
	}
	return col.AddDocument(ctx, chromem.Document{
		ID:        m.ID,
		Content:   m.Content,
		Embedding: vec,
		Metadata: map[string]string{
			"project": m.ProjectID,
			"type":    string(m.Type),
			"created": m.CreatedAt.Format(time.RFC3339Nano),
		},
	})
}

// Remove drops a memory from its agent type's collection. Removing an id
// that was never indexed, or whose collection does not exist yet, is a
// no-op: the index is allowed to lag the store.
func (ix *VectorIndex) Remove(ctx context.Context, agentTypeID, id string) error {
	ix.mu.Lock()
	col, ok := ix.cols[agentTypeID]
	ix.mu.Unlock()
	if !ok {
		return nil
	}
	if err := col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("unindex memory %s: %w", id, err)
	}
	return nil
}

// Candidates returns the nearest indexed memories with overlapping scope.
// The returned records carry id, content and scope only; the detector
// re-fetches the winner from the repository.
func (ix *VectorIndex) Candidates(ctx context.Context, m *model.Memory) ([]model.Memory, error) {
	col, err := ix.collection(m.AgentTypeID)
	if err != nil {
		return nil, err
	}
	n := ix.topK
	if count := col.Count(); count < n {
		n = count
	}
	if n == 0 {
		return nil, nil
	}

	vec, err := ix.emb.Embed(ctx, m.Content)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := col.QueryEmbedding(ctx, vec, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	var out []model.Memory
	for _, h := range hits {
		if h.ID == m.ID {
			continue
		}
		c := model.Memory{
			ID:          h.ID,
			AgentTypeID: m.AgentTypeID,
			ProjectID:   h.Metadata["project"],
			Type:        model.MemoryType(h.Metadata["type"]),
			Content:     h.Content,
		}
		if created, err := time.Parse(time.RFC3339Nano, h.Metadata["created"]); err == nil {
			c.CreatedAt = created
		}
		if !scopeOverlaps(m, &c) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
