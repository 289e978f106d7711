package conflict

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidhsu/agentgraph/internal/config"
	"github.com/davidhsu/agentgraph/internal/embedding"
	"github.com/davidhsu/agentgraph/internal/graph"
	"github.com/davidhsu/agentgraph/internal/model"
	"github.com/davidhsu/agentgraph/internal/repo"
)

func newTestRepo(t *testing.T) *repo.Repo {
	t.Helper()
	g, err := graph.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return repo.New(g, time.Second)
}

func seedScopes(t *testing.T, r *repo.Repo) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, r.RegisterAgentType(ctx, "developer"))
	require.NoError(t, r.RegisterProject(ctx, "proj-1"))
	require.NoError(t, r.RegisterProject(ctx, "proj-2"))
}

func newTestDetector(r *repo.Repo) *Detector {
	cfg := config.Default().Conflict
	return NewDetector(r, ScopeFinder{Repo: r}, LexicalClassifier{}, cfg)
}

func TestDetectFindsRestatement(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	seedScopes(t, r)
	d := newTestDetector(r)

	existing, err := r.Create(ctx, repo.CreateParams{
		Content: "use basic auth for the admin api", AgentTypeID: "developer"})
	require.NoError(t, err)
	_, err = r.Create(ctx, repo.CreateParams{
		Content: "the weather is nice today", AgentTypeID: "developer"})
	require.NoError(t, err)

	incoming, err := r.Create(ctx, repo.CreateParams{
		Content: "use jwt auth for the admin api", AgentTypeID: "developer"})
	require.NoError(t, err)

	found, sim, err := d.Detect(ctx, incoming)
	require.NoError(t, err)
	require.NotNil(t, found, "expected the related memory detected")
	assert.Equal(t, existing.ID, found.ID)
	assert.GreaterOrEqual(t, sim, 0.5)
}

func TestDetectNothingForUnrelated(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	seedScopes(t, r)
	d := newTestDetector(r)

	_, err := r.Create(ctx, repo.CreateParams{
		Content: "prefer table driven tests", AgentTypeID: "developer"})
	require.NoError(t, err)

	incoming, err := r.Create(ctx, repo.CreateParams{
		Content: "database migrations run at startup", AgentTypeID: "developer"})
	require.NoError(t, err)

	found, _, err := d.Detect(ctx, incoming)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestDetectIgnoresOtherProjects(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	seedScopes(t, r)
	d := newTestDetector(r)

	_, err := r.Create(ctx, repo.CreateParams{
		Content: "use basic auth for the admin api", AgentTypeID: "developer", ProjectID: "proj-2"})
	require.NoError(t, err)

	incoming, err := r.Create(ctx, repo.CreateParams{
		Content: "use jwt auth for the admin api", AgentTypeID: "developer", ProjectID: "proj-1"})
	require.NoError(t, err)

	found, _, err := d.Detect(ctx, incoming)
	require.NoError(t, err)
	assert.Nil(t, found, "memories scoped to disjoint projects never conflict")
}

func TestDetectGlobalOverlapsScoped(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	seedScopes(t, r)
	d := newTestDetector(r)

	existing, err := r.Create(ctx, repo.CreateParams{
		Content: "use basic auth for the admin api", AgentTypeID: "developer"})
	require.NoError(t, err)

	incoming, err := r.Create(ctx, repo.CreateParams{
		Content: "use jwt auth for the admin api", AgentTypeID: "developer", ProjectID: "proj-1"})
	require.NoError(t, err)

	found, _, err := d.Detect(ctx, incoming)
	require.NoError(t, err)
	require.NotNil(t, found, "a global memory overlaps every project scope")
	assert.Equal(t, existing.ID, found.ID)
}

func TestDetectSkipsSuperseded(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	seedScopes(t, r)
	d := newTestDetector(r)

	old, err := r.Create(ctx, repo.CreateParams{
		Content: "use basic auth for the admin api", AgentTypeID: "developer"})
	require.NoError(t, err)
	require.NoError(t, r.UpdateMemory(ctx, old.ID, func(m *model.Memory) error {
		m.Status = model.StatusSuperseded
		return nil
	}))

	incoming, err := r.Create(ctx, repo.CreateParams{
		Content: "use jwt auth for the admin api", AgentTypeID: "developer"})
	require.NoError(t, err)

	found, _, err := d.Detect(ctx, incoming)
	require.NoError(t, err)
	assert.Nil(t, found, "superseded memories are settled claims, not conflict candidates")
}

func TestDetectToleratesDeletedIndexEntries(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	seedScopes(t, r)
	ix := NewVectorIndex(embedding.NewHash(256), 5)
	d := NewDetector(r, ix, LexicalClassifier{}, config.Default().Conflict)

	old, err := r.Create(ctx, repo.CreateParams{
		Content: "use basic auth for the admin api", AgentTypeID: "developer"})
	require.NoError(t, err)
	require.NoError(t, ix.Add(ctx, old))

	// Deleted behind the index's back: the entry is now stale.
	existed, err := r.Delete(ctx, old.ID)
	require.NoError(t, err)
	require.True(t, existed)

	incoming, err := r.Create(ctx, repo.CreateParams{
		Content: "use jwt auth for the admin api", AgentTypeID: "developer"})
	require.NoError(t, err)

	found, _, err := d.Detect(ctx, incoming)
	require.NoError(t, err, "a stale index entry must not fail the write")
	assert.Nil(t, found)
}

func TestDetectFallsBackPastStaleEntries(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	seedScopes(t, r)
	ix := NewVectorIndex(embedding.NewHash(256), 5)
	d := NewDetector(r, ix, LexicalClassifier{}, config.Default().Conflict)

	settled, err := r.Create(ctx, repo.CreateParams{
		Content: "use basic auth for the admin api", AgentTypeID: "developer"})
	require.NoError(t, err)
	require.NoError(t, ix.Add(ctx, settled))
	require.NoError(t, r.UpdateMemory(ctx, settled.ID, func(m *model.Memory) error {
		m.Status = model.StatusSuperseded
		return nil
	}))

	active, err := r.Create(ctx, repo.CreateParams{
		Content: "prefer basic auth on the admin api", AgentTypeID: "developer"})
	require.NoError(t, err)
	require.NoError(t, ix.Add(ctx, active))

	incoming, err := r.Create(ctx, repo.CreateParams{
		Content: "use jwt auth for the admin api", AgentTypeID: "developer"})
	require.NoError(t, err)

	found, _, err := d.Detect(ctx, incoming)
	require.NoError(t, err)
	require.NotNil(t, found, "the next best active memory should win")
	assert.Equal(t, active.ID, found.ID)
}

func TestClassifyContextual(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	d := newTestDetector(r)

	a := &model.Memory{ProjectID: "proj-1", Type: model.TypePattern, PatternSig: "caching redis"}
	b := &model.Memory{Type: model.TypeTask, PatternSig: "wholly unrelated signature"}

	class, err := d.Classify(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, model.ClassContextual, class)
}

func TestClassifyTemporal(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	d := newTestDetector(r)

	now := time.Now().UTC()
	a := &model.Memory{Type: model.TypePattern, CreatedAt: now}
	b := &model.Memory{Type: model.TypePattern, CreatedAt: now.Add(-30 * 24 * time.Hour)}

	class, err := d.Classify(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, model.ClassTemporal, class)
}

func TestClassifyDirect(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	d := newTestDetector(r)

	now := time.Now().UTC()
	a := &model.Memory{Type: model.TypePattern, CreatedAt: now}
	b := &model.Memory{Type: model.TypePattern, CreatedAt: now.Add(-time.Hour)}

	class, err := d.Classify(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, model.ClassDirect, class)
}
