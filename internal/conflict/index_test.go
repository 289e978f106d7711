package conflict

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidhsu/agentgraph/internal/embedding"
	"github.com/davidhsu/agentgraph/internal/model"
)

func TestVectorIndexCandidates(t *testing.T) {
	ctx := context.Background()
	ix := NewVectorIndex(embedding.NewHash(256), 5)

	mems := []*model.Memory{
		{ID: "m1", AgentTypeID: "developer", Content: "use redis for the session cache"},
		{ID: "m2", AgentTypeID: "developer", Content: "the parser handles unicode tokens"},
		{ID: "m3", AgentTypeID: "architect", Content: "use redis for the session cache"},
	}
	for _, m := range mems {
		require.NoError(t, ix.Add(ctx, m))
	}

	query := &model.Memory{ID: "q", AgentTypeID: "developer", Content: "session cache should use redis"}
	out, err := ix.Candidates(ctx, query)
	require.NoError(t, err)

	got := map[string]bool{}
	for _, c := range out {
		got[c.ID] = true
	}
	assert.True(t, got["m1"], "same-agent near neighbor expected")
	assert.False(t, got["m3"], "other agent types never cross the sharing boundary")
	assert.False(t, got["q"], "the query memory is not its own candidate")
}

func TestVectorIndexScopeFilter(t *testing.T) {
	ctx := context.Background()
	ix := NewVectorIndex(embedding.NewHash(256), 5)

	require.NoError(t, ix.Add(ctx, &model.Memory{
		ID: "p2", AgentTypeID: "developer", ProjectID: "proj-2",
		Content: "use redis for the session cache",
	}))

	query := &model.Memory{ID: "q", AgentTypeID: "developer", ProjectID: "proj-1",
		Content: "use redis for the session cache"}
	out, err := ix.Candidates(ctx, query)
	require.NoError(t, err)
	assert.Empty(t, out, "disjoint project scopes cannot conflict")
}

func TestVectorIndexRemove(t *testing.T) {
	ctx := context.Background()
	ix := NewVectorIndex(embedding.NewHash(256), 5)

	require.NoError(t, ix.Add(ctx, &model.Memory{
		ID: "m1", AgentTypeID: "developer", Content: "use redis for the session cache",
	}))
	require.NoError(t, ix.Remove(ctx, "developer", "m1"))

	query := &model.Memory{ID: "q", AgentTypeID: "developer", Content: "use redis for the session cache"}
	out, err := ix.Candidates(ctx, query)
	require.NoError(t, err)
	assert.Empty(t, out, "removed memories must not come back as candidates")
}

func TestVectorIndexRemoveUnknownCollection(t *testing.T) {
	ix := NewVectorIndex(embedding.NewHash(256), 5)
	assert.NoError(t, ix.Remove(context.Background(), "never-seen", "m1"))
}

func TestVectorIndexEmpty(t *testing.T) {
	ix := NewVectorIndex(embedding.NewHash(256), 5)
	out, err := ix.Candidates(context.Background(), &model.Memory{ID: "q", AgentTypeID: "developer", Content: "anything"})
	require.NoError(t, err)
	assert.Empty(t, out)
}
