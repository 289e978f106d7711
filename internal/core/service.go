// Package core wires the memory components together and orchestrates the
// write path (persist, score, detect, resolve, link) and the read path.
// This is the surface agent runtimes call.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/davidhsu/agentgraph/internal/bridge"
	"github.com/davidhsu/agentgraph/internal/config"
	"github.com/davidhsu/agentgraph/internal/conflict"
	"github.com/davidhsu/agentgraph/internal/embedding"
	"github.com/davidhsu/agentgraph/internal/graph"
	"github.com/davidhsu/agentgraph/internal/metrics"
	"github.com/davidhsu/agentgraph/internal/model"
	"github.com/davidhsu/agentgraph/internal/observe"
	"github.com/davidhsu/agentgraph/internal/quality"
	"github.com/davidhsu/agentgraph/internal/repo"
	"github.com/davidhsu/agentgraph/internal/retrieval"
)

// Service is the composed memory core.
type Service struct {
	Repo      *repo.Repo
	Engine    *retrieval.Engine
	Scorer    *quality.Scorer
	Detector  *conflict.Detector
	Resolver  *conflict.Resolver
	Conflicts *conflict.Store
	Bridge    *bridge.Manager

	g     graph.Store
	index *conflict.VectorIndex
	obs   *observe.Observer
}

// Open builds a service over the configured graph store.
func Open(cfg *config.Config, obs *observe.Observer) (*Service, error) {
	g, err := graph.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	return build(cfg, g, obs)
}

// NewWithStore builds a service over an existing graph store. Used by tests
// and embedders that manage the store lifecycle themselves.
func NewWithStore(cfg *config.Config, g graph.Store, obs *observe.Observer) (*Service, error) {
	return build(cfg, g, obs)
}

func build(cfg *config.Config, g graph.Store, obs *observe.Observer) (*Service, error) {
	r := repo.New(g, cfg.Cache.ExistenceTTL)
	scorer := quality.New(cfg.Quality)
	engine := retrieval.New(r, scorer)
	conflicts := conflict.NewStore(g)

	var (
		cls    conflict.Classifier
		finder conflict.CandidateFinder
		index  *conflict.VectorIndex
	)
	switch cfg.Embedding.Provider {
	case "", "none":
		cls = conflict.LexicalClassifier{}
		finder = conflict.ScopeFinder{Repo: r}
	default:
		emb, err := newEmbedder(cfg.Embedding)
		if err != nil {
			g.Close()
			return nil, err
		}
		cls = conflict.VectorClassifier{Emb: emb}
		index = conflict.NewVectorIndex(emb, 10)
		finder = index
	}

	detector := conflict.NewDetector(r, finder, cls, cfg.Conflict)
	panel := conflict.DefaultPanel(cfg.Conflict.DebateSize)
	resolver := conflict.NewResolver(r, scorer, panel, conflicts, cfg.Conflict)
	br := bridge.NewManager(r, cfg.Bridge.PromotionMinProjects)

	s := &Service{
		Repo:      r,
		Engine:    engine,
		Scorer:    scorer,
		Detector:  detector,
		Resolver:  resolver,
		Conflicts: conflicts,
		Bridge:    br,
		g:         g,
		index:     index,
		obs:       obs,
	}
	if index != nil {
		if err := s.rebuildIndex(context.Background()); err != nil {
			g.Close()
			return nil, fmt.Errorf("rebuild vector index: %w", err)
		}
	}
	return s, nil
}

func newEmbedder(cfg config.EmbeddingConfig) (embedding.Embedder, error) {
	switch cfg.Provider {
	case "hash":
		return embedding.NewHash(cfg.Dims), nil
	case "ollama":
		return embedding.NewOllama(cfg.BaseURL, cfg.Model, cfg.Dims), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// rebuildIndex repopulates the in-memory vector index from the store. The
// index is acceleration only; the graph stays authoritative.
func (s *Service) rebuildIndex(ctx context.Context) error {
	nodes, err := s.g.NodesByLabel(ctx, model.LabelMemory)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		m, err := s.Repo.Get(ctx, n.ID)
		if err != nil {
			return err
		}
		if err := s.index.Add(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying store.
func (s *Service) Close() error {
	return s.g.Close()
}

// SetPanel swaps the debate panel, rebuilding the resolver. Deployments
// with real evaluator agents plug them in here.
func (s *Service) SetPanel(panel conflict.Panel, cfg config.ConflictConfig) {
	s.Resolver = conflict.NewResolver(s.Repo, s.Scorer, panel, s.Conflicts, cfg)
}

// Ref names an external node a new memory should link to.
type Ref struct {
	ExternalID string
	Kind       string
}

// CreateMemoryParams is the caller-facing write request.
type CreateMemoryParams struct {
	Content     string
	Type        model.MemoryType
	AgentTypeID string
	ProjectID   string
	Confidence  float64 // agent-reported, seeds the confidence sub-score
	Specificity float64
	Impact      float64
	PatternSig  string
	Refs        []Ref
}

// CreateMemory runs the full write flow: validate and persist, score,
// scan for conflicts, resolve, then opportunistically bridge references.
// The returned conflict is nil when the write was unrelated to everything
// already recorded.
func (s *Service) CreateMemory(ctx context.Context, p CreateMemoryParams) (*model.Memory, *model.Conflict, error) {
	ctx, span := s.obs.StartSpan(ctx, "core.CreateMemory")
	defer span.End()

	q := model.Quality{
		Confidence:  clamp01(p.Confidence),
		Specificity: clamp01(p.Specificity),
		Impact:      clamp01(p.Impact),
	}

	m, err := s.Repo.Create(ctx, repo.CreateParams{
		Content:     p.Content,
		Type:        p.Type,
		AgentTypeID: p.AgentTypeID,
		ProjectID:   p.ProjectID,
		PatternSig:  p.PatternSig,
		Quality:     s.Scorer.Initial(q, time.Now().UTC()),
	})
	if err != nil {
		return nil, nil, err
	}
	metrics.MemoriesCreated.Inc()

	var resolved *model.Conflict
	other, sim, err := s.Detector.Detect(ctx, m)
	if err != nil {
		return nil, nil, err
	}
	if other != nil {
		class, err := s.Detector.Classify(ctx, m, other)
		if err != nil {
			return nil, nil, err
		}
		metrics.ConflictsDetected.WithLabelValues(string(class)).Inc()
		s.obs.Log().Info().
			Str("memory", m.ID).
			Str("other", other.ID).
			Str("class", string(class)).
			Float64("similarity", sim).
			Msg("conflict detected")

		resolved, err = s.Resolver.Resolve(ctx, class, m, other)
		if err != nil {
			return nil, nil, err
		}
		metrics.Resolutions.WithLabelValues(string(resolved.Strategy)).Inc()
	}

	if s.index != nil {
		if err := s.index.Add(ctx, m); err != nil {
			s.obs.Log().Warn().Str("memory", m.ID).Err(err).Msg("vector index add failed")
		}
	}

	// Bridge links are opportunistic: a broken reference is logged, not a
	// write failure.
	for _, ref := range p.Refs {
		if err := s.Bridge.Link(ctx, m.ID, ref.ExternalID, ref.Kind); err != nil {
			s.obs.Log().Warn().
				Str("memory", m.ID).
				Str("ref", ref.ExternalID).
				Err(err).
				Msg("bridge link failed")
		}
	}

	// Reload so the caller sees post-resolution status.
	final, err := s.Repo.Get(ctx, m.ID)
	if err != nil {
		return nil, nil, err
	}
	return final, resolved, nil
}

// Retrieve answers a priority retrieval query.
func (s *Service) Retrieve(ctx context.Context, q retrieval.Query) ([]retrieval.Result, error) {
	ctx, span := s.obs.StartSpan(ctx, "core.Retrieve")
	defer span.End()

	results, err := s.Engine.Retrieve(ctx, q)
	if err != nil {
		return nil, err
	}
	metrics.RetrievalsServed.Inc()
	return results, nil
}

// RetrieveOrEmpty is the degrade-gracefully boundary: memory is advisory,
// so retrieval failure yields an empty context instead of blocking the
// caller's primary task.
func (s *Service) RetrieveOrEmpty(ctx context.Context, q retrieval.Query) []retrieval.Result {
	results, err := s.Retrieve(ctx, q)
	if err != nil {
		s.obs.Log().Warn().Err(err).Msg("retrieval failed; no memory context available")
		return nil
	}
	return results
}

// DeleteMemory removes a memory, its edges, and its vector index entry.
// Index pruning is best-effort: a failed unindex is logged, not returned,
// because the detector tolerates stale entries.
func (s *Service) DeleteMemory(ctx context.Context, id string) (bool, error) {
	var agentTypeID string
	if m, err := s.Repo.Get(ctx, id); err == nil {
		agentTypeID = m.AgentTypeID
	}
	existed, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if existed && s.index != nil && agentTypeID != "" {
		if err := s.index.Remove(ctx, agentTypeID, id); err != nil {
			s.obs.Log().Warn().Str("memory", id).Err(err).Msg("vector index remove failed")
		}
	}
	return existed, nil
}

// RecordValidation folds use feedback into a memory's validation ratio.
func (s *Service) RecordValidation(ctx context.Context, memoryID string, success bool, feedback float64) error {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	if err := s.Scorer.RecordValidation(ctx, s.Repo, memoryID, success, feedback); err != nil {
		return err
	}
	metrics.Validations.WithLabelValues(outcome).Inc()
	return nil
}

// DecayPass recomputes every memory's composite score at now. Run on a
// schedule by the embedding process; scores only fall without validation.
func (s *Service) DecayPass(ctx context.Context) (int, error) {
	nodes, err := s.g.NodesByLabel(ctx, model.LabelMemory)
	if err != nil {
		return 0, err
	}
	for _, n := range nodes {
		if _, err := s.Scorer.Rescore(ctx, s.Repo, n.ID, time.Now().UTC()); err != nil {
			return 0, err
		}
	}
	return len(nodes), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
