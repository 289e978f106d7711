package conflict

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/davidhsu/agentgraph/internal/model"
)

// Vote is one evaluator's pick.
type Vote struct {
	MemoryID string // must be one of the two debated ids; empty abstains
	Argument string
}

// Evaluator argues for one side of a contradiction.
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, a, b model.Memory) (Vote, error)
}

// DebateResult is the structured outcome the resolver consumes. The core
// only needs winner / tie / unavailable, not the debate's internal
// mechanics.
type DebateResult struct {
	ID         string
	WinnerID   string // empty means tie or no clear majority
	Consensus  string // optional synthesized content; winner content if empty
	Transcript []model.DebateEntry
}

// Panel runs a bounded, cancellable debate between two memories.
type Panel interface {
	Debate(ctx context.Context, a, b model.Memory) (*DebateResult, error)
}

// EvaluatorPanel polls a fixed odd number of independent evaluators and
// requires a strict majority of the full panel. Evaluator failures count
// as abstentions, so a flaky pool degrades toward escalation instead of
// silently picking a winner.
type EvaluatorPanel struct {
	evals []Evaluator
}

// NewPanel builds a panel. The evaluator count must be odd so a fully
// responsive panel cannot tie.
func NewPanel(evals ...Evaluator) *EvaluatorPanel {
	return &EvaluatorPanel{evals: evals}
}

func (p *EvaluatorPanel) Debate(ctx context.Context, a, b model.Memory) (*DebateResult, error) {
	if len(p.evals) == 0 {
		return nil, fmt.Errorf("%w: evaluator pool empty", model.ErrResolverUnavailable)
	}
	if len(p.evals)%2 == 0 {
		return nil, fmt.Errorf("%w: evaluator count %d is not odd", model.ErrResolverUnavailable, len(p.evals))
	}

	result := &DebateResult{ID: uuid.NewString()}
	votes := map[string]int{}
	for _, ev := range p.evals {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: debate cancelled: %v", model.ErrResolverUnavailable, err)
		}
		entry := model.DebateEntry{Evaluator: ev.Name()}
		vote, err := ev.Evaluate(ctx, a, b)
		if err == nil && (vote.MemoryID == a.ID || vote.MemoryID == b.ID) {
			entry.Vote = vote.MemoryID
			entry.Argument = vote.Argument
			votes[vote.MemoryID]++
		} else if err != nil {
			entry.Argument = "abstained: " + err.Error()
		}
		result.Transcript = append(result.Transcript, entry)
	}

	majority := len(p.evals)/2 + 1
	switch {
	case votes[a.ID] >= majority:
		result.WinnerID = a.ID
	case votes[b.ID] >= majority:
		result.WinnerID = b.ID
	}
	return result, nil
}

// qualityEvaluator votes for the memory with the stronger value in one
// quality dimension. A panel of these over distinct dimensions gives a
// deterministic default debate; production deployments plug in richer
// evaluators.
type qualityEvaluator struct {
	name string
	dim  func(model.Quality) float64
}

func (e qualityEvaluator) Name() string { return e.name }

func (e qualityEvaluator) Evaluate(_ context.Context, a, b model.Memory) (Vote, error) {
	va, vb := e.dim(a.Quality), e.dim(b.Quality)
	switch {
	case va > vb:
		return Vote{MemoryID: a.ID, Argument: fmt.Sprintf("%s %.2f vs %.2f", e.name, va, vb)}, nil
	case vb > va:
		return Vote{MemoryID: b.ID, Argument: fmt.Sprintf("%s %.2f vs %.2f", e.name, vb, va)}, nil
	default:
		return Vote{}, nil // abstain on a dead heat
	}
}

// DefaultPanel returns an odd panel of quality-dimension evaluators.
// Size is clamped to the available dimensions and forced odd.
func DefaultPanel(size int) *EvaluatorPanel {
	dims := []qualityEvaluator{
		{"confidence", func(q model.Quality) float64 { return q.Confidence }},
		{"validation", func(q model.Quality) float64 { return q.Validation }},
		{"impact", func(q model.Quality) float64 { return q.Impact }},
		{"specificity", func(q model.Quality) float64 { return q.Specificity }},
		{"consensus", func(q model.Quality) float64 { return q.Consensus }},
	}
	if size <= 0 || size > len(dims) {
		size = 3
	}
	if size%2 == 0 {
		size--
	}
	evals := make([]Evaluator, 0, size)
	for _, d := range dims[:size] {
		evals = append(evals, d)
	}
	return NewPanel(evals...)
}
