package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/davidhsu/agentgraph/internal/graph"
	"github.com/davidhsu/agentgraph/internal/model"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	dir := t.TempDir()
	g, err := graph.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open graph: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return New(g, time.Second)
}

func seed(t *testing.T, r *Repo, agents, projects []string) {
	t.Helper()
	ctx := context.Background()
	for _, a := range agents {
		if err := r.RegisterAgentType(ctx, a); err != nil {
			t.Fatalf("register agent type %s: %v", a, err)
		}
	}
	for _, p := range projects {
		if err := r.RegisterProject(ctx, p); err != nil {
			t.Fatalf("register project %s: %v", p, err)
		}
	}
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	seed(t, r, []string{"architect"}, []string{"proj-1"})

	m, err := r.Create(ctx, CreateParams{
		Content:     "prefer repository pattern for data access",
		Type:        model.TypePattern,
		AgentTypeID: "architect",
		ProjectID:   "proj-1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.ID == "" {
		t.Fatal("expected non-empty id")
	}
	if m.Status != model.StatusActive {
		t.Errorf("expected active status, got %q", m.Status)
	}

	got, err := r.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content != m.Content {
		t.Errorf("expected content to round-trip, got %q", got.Content)
	}
	if got.AgentTypeID != "architect" || got.ProjectID != "proj-1" {
		t.Errorf("expected mirrored scope fields, got %q/%q", got.AgentTypeID, got.ProjectID)
	}
}

func TestCreateUnknownAgentType(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	_, err := r.Create(ctx, CreateParams{Content: "x", AgentTypeID: "ghost"})
	if !errors.Is(err, model.ErrInvalidAgentType) {
		t.Errorf("expected ErrInvalidAgentType, got %v", err)
	}
}

func TestCreateUnknownProject(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	seed(t, r, []string{"architect"}, nil)

	_, err := r.Create(ctx, CreateParams{Content: "x", AgentTypeID: "architect", ProjectID: "ghost"})
	if !errors.Is(err, model.ErrInvalidScope) {
		t.Errorf("expected ErrInvalidScope, got %v", err)
	}
}

func TestCreateInvalidType(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	seed(t, r, []string{"architect"}, nil)

	_, err := r.Create(ctx, CreateParams{Content: "x", AgentTypeID: "architect", Type: "dream"})
	if err == nil {
		t.Error("expected error for invalid memory type")
	}
}

func TestCreateEdges(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	seed(t, r, []string{"architect"}, []string{"proj-1"})

	scoped, _ := r.Create(ctx, CreateParams{Content: "a", AgentTypeID: "architect", ProjectID: "proj-1"})
	global, _ := r.Create(ctx, CreateParams{Content: "b", AgentTypeID: "architect"})

	p, err := r.ScopeProject(ctx, scoped.ID)
	if err != nil {
		t.Fatalf("scope project: %v", err)
	}
	if p != "proj-1" {
		t.Errorf("expected scope proj-1, got %q", p)
	}

	p, err = r.ScopeProject(ctx, global.ID)
	if err != nil {
		t.Fatalf("scope project: %v", err)
	}
	if p != "" {
		t.Errorf("expected global memory to have no scope edge, got %q", p)
	}
}

func TestTouch(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	seed(t, r, []string{"architect"}, nil)

	m, _ := r.Create(ctx, CreateParams{Content: "x", AgentTypeID: "architect"})
	now := time.Now().UTC()
	if err := r.Touch(ctx, m.ID, now); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if err := r.Touch(ctx, m.ID, now.Add(time.Minute)); err != nil {
		t.Fatalf("second touch: %v", err)
	}

	got, _ := r.Get(ctx, m.ID)
	if got.AccessCount != 2 {
		t.Errorf("expected access count 2, got %d", got.AccessCount)
	}
	if got.LastAccessedAt == nil || !got.LastAccessedAt.After(now) {
		t.Errorf("expected last accessed bumped past %v, got %v", now, got.LastAccessedAt)
	}
}

func TestDeleteDetaches(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	seed(t, r, []string{"architect"}, []string{"proj-1"})

	m, _ := r.Create(ctx, CreateParams{Content: "x", AgentTypeID: "architect", ProjectID: "proj-1"})
	ok, err := r.Delete(ctx, m.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !ok {
		t.Fatal("expected delete to find the memory")
	}

	if _, err := r.Get(ctx, m.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	mems, _ := r.MemoriesForAgent(ctx, "architect")
	if len(mems) != 0 {
		t.Errorf("expected no memories after delete, got %d", len(mems))
	}
}

func TestMemoriesForAgent(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	seed(t, r, []string{"architect", "developer"}, nil)

	r.Create(ctx, CreateParams{Content: "a", AgentTypeID: "architect"})
	r.Create(ctx, CreateParams{Content: "b", AgentTypeID: "architect"})
	r.Create(ctx, CreateParams{Content: "c", AgentTypeID: "developer"})

	mems, err := r.MemoriesForAgent(ctx, "architect")
	if err != nil {
		t.Fatalf("memories for agent: %v", err)
	}
	if len(mems) != 2 {
		t.Errorf("expected 2 architect memories, got %d", len(mems))
	}
}

func TestEpisodeLifecycle(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	seed(t, r, []string{"developer"}, []string{"proj-1"})

	ep, err := r.CreateEpisode(ctx, EpisodeParams{
		AgentTypeID: "developer",
		ProjectID:   "proj-1",
		Kind:        model.EpisodeError,
		Outcome:     "failure",
		Rationale:   "migration failed on startup",
	})
	if err != nil {
		t.Fatalf("create episode: %v", err)
	}

	if err := r.AttachResolution(ctx, ep.ID, "success", "pinned driver version"); err != nil {
		t.Fatalf("attach resolution: %v", err)
	}

	got, err := r.GetEpisode(ctx, ep.ID)
	if err != nil {
		t.Fatalf("get episode: %v", err)
	}
	if got.Resolution != "pinned driver version" {
		t.Errorf("expected resolution recorded, got %q", got.Resolution)
	}
	if got.Outcome != "success" {
		t.Errorf("expected outcome updated, got %q", got.Outcome)
	}
	if got.Kind != model.EpisodeError {
		t.Errorf("expected kind preserved, got %q", got.Kind)
	}
}

func TestEpisodeUnknownAgent(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	_, err := r.CreateEpisode(ctx, EpisodeParams{AgentTypeID: "ghost", Kind: model.EpisodeDecision})
	if !errors.Is(err, model.ErrInvalidAgentType) {
		t.Errorf("expected ErrInvalidAgentType, got %v", err)
	}
}

func TestIngestFact(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	id, err := r.IngestFact(ctx, model.KnowledgeFact{
		Subject:    "auth-service",
		Predicate:  "depends_on",
		Object:     "token-store",
		Confidence: 0.9,
	})
	if err != nil {
		t.Fatalf("ingest fact: %v", err)
	}

	f, err := r.GetFact(ctx, id)
	if err != nil {
		t.Fatalf("get fact: %v", err)
	}
	if f.Object != "token-store" {
		t.Errorf("expected object round-trip, got %q", f.Object)
	}

	// Same triple upserts, no duplicate.
	id2, err := r.IngestFact(ctx, model.KnowledgeFact{
		Subject: "auth-service", Predicate: "depends_on", Object: "token-store", Confidence: 0.95,
	})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if id2 != id {
		t.Errorf("expected same id for same triple, got %q vs %q", id2, id)
	}
}

func TestIngestFactIncomplete(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.IngestFact(context.Background(), model.KnowledgeFact{Subject: "a"})
	if err == nil {
		t.Error("expected error for incomplete triple")
	}
}

func TestLinkReference(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	seed(t, r, []string{"developer"}, nil)

	m, _ := r.Create(ctx, CreateParams{Content: "auth handler is fragile", AgentTypeID: "developer"})
	elemID, err := r.IngestCodeElement(ctx, model.CodeElement{ID: "fn:auth.Login", Kind: "function", Path: "auth/login.go"})
	if err != nil {
		t.Fatalf("ingest element: %v", err)
	}

	if err := r.LinkReference(ctx, m.ID, elemID, "mentions"); err != nil {
		t.Fatalf("link reference: %v", err)
	}

	edges, err := r.Graph().EdgesFrom(ctx, m.ID, model.RelReferences)
	if err != nil {
		t.Fatalf("edges: %v", err)
	}
	if len(edges) != 1 || edges[0].ToID != elemID {
		t.Errorf("expected one reference edge to %s, got %v", elemID, edges)
	}
}

func TestLinkReferenceNonExternalTarget(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	seed(t, r, []string{"developer"}, nil)

	a, _ := r.Create(ctx, CreateParams{Content: "a", AgentTypeID: "developer"})
	b, _ := r.Create(ctx, CreateParams{Content: "b", AgentTypeID: "developer"})

	if err := r.LinkReference(ctx, a.ID, b.ID, "mentions"); err == nil {
		t.Error("expected error linking to a non-external node")
	}
}
