package reranker

import (
	"math/rand"
	"testing"
)

func TestCrossValidatePicksAFiniteBestScore(t *testing.T) {
	train := syntheticCorpus()
	dev := syntheticCorpus()
	cfg := CVConfig{
		Loss: LogLoss{}, Classes: NewFeatureClasses(), Power: 2,
		Scale: 1, C0: 1, Tol: 1e-4, OptFScore: true, MaxRounds: 5,
		Rand: rand.New(rand.NewSource(3)),
	}
	result, err := CrossValidate(train, dev, cfg)
	if err != nil {
		t.Fatalf("CrossValidate: %v", err)
	}
	if result.Weights == nil {
		t.Fatal("expected a non-nil weight vector from cross-validation")
	}
	if result.Rounds == 0 {
		t.Fatal("expected at least one cross-validation round to run")
	}
	if result.DevScore < 0 || result.DevScore > 1 {
		t.Fatalf("expected DevScore in [0,1] for a 1-FScore objective, got %v", result.DevScore)
	}
}
