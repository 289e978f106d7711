package conflict

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidhsu/agentgraph/internal/model"
)

type fixedEvaluator struct {
	name string
	pick func(a, b model.Memory) (Vote, error)
}

func (e fixedEvaluator) Name() string { return e.name }
func (e fixedEvaluator) Evaluate(_ context.Context, a, b model.Memory) (Vote, error) {
	return e.pick(a, b)
}

func votesFor(side string) fixedEvaluator {
	return fixedEvaluator{name: "votes-" + side, pick: func(a, b model.Memory) (Vote, error) {
		if side == "a" {
			return Vote{MemoryID: a.ID}, nil
		}
		return Vote{MemoryID: b.ID}, nil
	}}
}

func failing(name string) fixedEvaluator {
	return fixedEvaluator{name: name, pick: func(a, b model.Memory) (Vote, error) {
		return Vote{}, fmt.Errorf("evaluator offline")
	}}
}

func TestDebateMajorityWins(t *testing.T) {
	p := NewPanel(votesFor("a"), votesFor("a"), votesFor("b"))
	a := model.Memory{ID: "mem-a"}
	b := model.Memory{ID: "mem-b"}

	result, err := p.Debate(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, "mem-a", result.WinnerID)
	assert.Len(t, result.Transcript, 3)
	assert.NotEmpty(t, result.ID)
}

func TestDebateFailuresAbstain(t *testing.T) {
	// Two of three evaluators down: one vote is not a strict majority.
	p := NewPanel(votesFor("a"), failing("e1"), failing("e2"))
	result, err := p.Debate(context.Background(), model.Memory{ID: "a"}, model.Memory{ID: "b"})
	require.NoError(t, err)
	assert.Empty(t, result.WinnerID, "a degraded panel must not pick a winner")
	assert.Len(t, result.Transcript, 3)
}

func TestDebateEmptyPoolUnavailable(t *testing.T) {
	p := NewPanel()
	_, err := p.Debate(context.Background(), model.Memory{ID: "a"}, model.Memory{ID: "b"})
	assert.True(t, errors.Is(err, model.ErrResolverUnavailable))
}

func TestDebateEvenPoolUnavailable(t *testing.T) {
	p := NewPanel(votesFor("a"), votesFor("b"))
	_, err := p.Debate(context.Background(), model.Memory{ID: "a"}, model.Memory{ID: "b"})
	assert.True(t, errors.Is(err, model.ErrResolverUnavailable))
}

func TestDebateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPanel(votesFor("a"), votesFor("a"), votesFor("a"))
	_, err := p.Debate(ctx, model.Memory{ID: "a"}, model.Memory{ID: "b"})
	assert.True(t, errors.Is(err, model.ErrResolverUnavailable))
}

func TestDefaultPanelVotesOnQuality(t *testing.T) {
	p := DefaultPanel(3)
	a := model.Memory{ID: "a", Quality: model.Quality{Confidence: 0.9, Validation: 0.8, Impact: 0.7}}
	b := model.Memory{ID: "b", Quality: model.Quality{Confidence: 0.2, Validation: 0.1, Impact: 0.1}}

	result, err := p.Debate(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, "a", result.WinnerID)
}

func TestDefaultPanelTieAbstains(t *testing.T) {
	p := DefaultPanel(3)
	q := model.Quality{Confidence: 0.5, Validation: 0.5, Impact: 0.5}
	result, err := p.Debate(context.Background(),
		model.Memory{ID: "a", Quality: q}, model.Memory{ID: "b", Quality: q})
	require.NoError(t, err)
	assert.Empty(t, result.WinnerID, "identical quality is a tie, not a winner")
}
