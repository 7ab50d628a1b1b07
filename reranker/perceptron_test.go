package reranker

import (
	"math/rand"
	"testing"
)

func TestTrainPerceptronReturnsOneWeightPerFeature(t *testing.T) {
	corpus := syntheticCorpus()
	classes := NewFeatureClasses()
	cfg := PerceptronConfig{
		Classes: classes,
		Epochs:  50,
		Rand:    rand.New(rand.NewSource(7)),
	}
	w := TrainPerceptron(corpus, cfg)
	if len(w) != int(corpus.NFeatures) {
		t.Fatalf("expected weight vector of length %d, got %d", corpus.NFeatures, len(w))
	}
	for i := range corpus.Sentences {
		sent := &corpus.Sentences[i]
		best, bestScore := -1, negInf
		for j := range sent.Parses {
			sc := sent.Parses[j].Score(w)
			if sc > bestScore {
				bestScore, best = sc, j
			}
		}
		if best != sent.Correct {
			t.Logf("sentence %d: perceptron winner %d != gold %d (not guaranteed on tiny data, just observing)", i, best, sent.Correct)
		}
	}
}

func TestTrainPerceptronOnEmptyCorpusReturnsZeroVector(t *testing.T) {
	corpus := &Corpus{NFeatures: 3}
	w := TrainPerceptron(corpus, PerceptronConfig{Classes: NewFeatureClasses(), Epochs: 1})
	if len(w) != 3 {
		t.Fatalf("expected a zero vector of length 3, got %v", w)
	}
	for _, v := range w {
		if v != 0 {
			t.Fatalf("expected all-zero weights for an empty corpus, got %v", w)
		}
	}
}
