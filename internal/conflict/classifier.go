// Package conflict classifies pairs of contradicting memories and drives
// the three-tier resolution pipeline: automatic quality gap, bounded
// multi-evaluator debate, human escalation.
package conflict

import (
	"context"
	"math"

	"github.com/davidhsu/agentgraph/internal/embedding"
)

// Classifier is the pluggable similarity capability the detector depends
// on. The matching mechanism is deliberately not hardcoded into the
// pipeline's control flow.
type Classifier interface {
	// Similarity returns a score in [0,1]; 1 means the same subject.
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// LexicalClassifier scores similarity as term-frequency cosine over word
// tokens. Zero-dependency default; good enough to catch restatements of
// the same claim.
type LexicalClassifier struct{}

func (LexicalClassifier) Similarity(_ context.Context, a, b string) (float64, error) {
	ta, tb := termFreq(a), termFreq(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0, nil
	}
	var dot, na, nb float64
	for tok, fa := range ta {
		na += fa * fa
		if fb, ok := tb[tok]; ok {
			dot += fa * fb
		}
	}
	for _, fb := range tb {
		nb += fb * fb
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

func termFreq(text string) map[string]float64 {
	freq := make(map[string]float64)
	for _, tok := range embedding.Tokenize(text) {
		freq[tok]++
	}
	return freq
}

// VectorClassifier scores similarity as cosine distance between embeddings.
type VectorClassifier struct {
	Emb embedding.Embedder
}

func (v VectorClassifier) Similarity(ctx context.Context, a, b string) (float64, error) {
	va, err := v.Emb.Embed(ctx, a)
	if err != nil {
		return 0, err
	}
	vb, err := v.Emb.Embed(ctx, b)
	if err != nil {
		return 0, err
	}
	return embedding.CosineSimilarity(va, vb), nil
}
