package reranker

import (
	"math"
	"math/rand"
)

// PerceptronConfig configures the averaged-perceptron inner training path
// (spec.md §4.3 "Averaged-perceptron variant"), grounded on
// wlle/wavper.cc and eval-weights/lmdata.c's wap_sentence()/ap_update1().
// Unlike the Loss-gradient path, this one never calls Loss.Evaluate: it
// walks randomly drawn sentences, compares the single best-scoring parse
// against the single best-scoring parse with Pyx>0, and nudges w by their
// feature-count difference.
type PerceptronConfig struct {
	Classes    *FeatureClasses
	ClassCoeff []float64 // per-class step-size multiplier, linear space
	Burnin     float64   // epochs run before averaging starts
	Epochs     float64   // averaged training epochs run after Burnin (fractional allowed)
	Reduce     float64   // per-epoch learning-rate discount, 0 disables
	Rand       *rand.Rand
}

// TrainPerceptron runs the averaged perceptron over corpus and returns the
// time-averaged weight vector (spec.md: "the returned weights are the
// time-averaged weights"). Sentences with Px<=0 are skipped, matching the
// original's gating.
func TrainPerceptron(corpus *Corpus, cfg PerceptronConfig) []float64 {
	n := len(corpus.Sentences)
	nfeatures := int(corpus.NFeatures)
	w := make([]float64, nfeatures)
	if n == 0 || nfeatures == 0 {
		return w
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	classCoeff := cfg.ClassCoeff
	if classCoeff == nil {
		classCoeff = make([]float64, cfg.Classes.NumClasses())
		for i := range classCoeff {
			classCoeff[i] = 1
		}
	}

	sumW := make([]float64, nfeatures)
	changed := make([]int64, nfeatures)
	dw := 1.0
	ddw := 1.0
	if cfg.Reduce != 0 {
		ddw = math.Pow(1.0-cfg.Reduce, 1.0/float64(n))
	}

	apply := func(it int64, idx int) {
		perceptronStep(&corpus.Sentences[idx], w, dw, cfg.Classes, classCoeff, sumW, it, changed)
	}

	if cfg.Burnin > 0 {
		burninIters := int64(cfg.Burnin * float64(n))
		for it := int64(0); it < burninIters; it++ {
			idx := rng.Intn(n)
			if corpus.Sentences[idx].Px > 0 {
				apply(it, idx)
			}
			dw *= ddw
		}
		for j := range sumW {
			sumW[j] = 0
			changed[j] = 0
		}
	}

	totalIters := int64(cfg.Epochs * float64(n))
	var it int64
	for it = 0; it < totalIters; it++ {
		idx := rng.Intn(n)
		dw *= ddw
		if corpus.Sentences[idx].Px > 0 {
			apply(it, idx)
		}
	}

	if it == 0 {
		return w
	}
	for j := range w {
		sumW[j] += float64(it-changed[j]) * w[j]
		w[j] = sumW[j] / float64(it)
	}
	return w
}

// perceptronStep is one round of wap_sentence(): find the sentence's
// best-scoring parse and its best-scoring parse with Pyx>0; if the
// correct one isn't already winning, move w toward the correct parse's
// features and away from the winner's, scaled by how much more correct
// the gold parse is (|Pyx_correct - Pyx_winner| / Pyx_correct).
func perceptronStep(sent *Sentence, w []float64, dw float64, classes *FeatureClasses, classCoeff []float64, sumW []float64, it int64, changed []int64) {
	if len(sent.Parses) == 0 {
		return
	}
	bestScore := negInf
	bestIdx := 0
	bestCorrectScore := negInf
	bestCorrectIdx := -1
	for i := range sent.Parses {
		sc := sent.Parses[i].Score(w)
		if sc >= bestScore {
			bestScore = sc
			bestIdx = i
		}
		if sent.Parses[i].Pyx > 0 && (bestCorrectIdx < 0 || sc >= bestCorrectScore) {
			bestCorrectScore = sc
			bestCorrectIdx = i
		}
	}
	if bestCorrectIdx < 0 || bestCorrectScore > bestScore {
		return
	}
	correct := &sent.Parses[bestCorrectIdx]
	winner := &sent.Parses[bestIdx]
	if winner.Pyx >= correct.Pyx {
		return
	}

	step := dw * sent.Px * math.Abs(correct.Pyx-winner.Pyx) / correct.Pyx
	winner.ForEachFeature(func(f int32, count float64) {
		apUpdate1(f, w, -step*count*classCoeff[classes.ClassOf(f)], sumW, it, changed)
	})
	correct.ForEachFeature(func(f int32, count float64) {
		apUpdate1(f, w, step*count*classCoeff[classes.ClassOf(f)], sumW, it, changed)
	})
}

// apUpdate1 applies a delayed-averaging update to w[j]: before changing
// w[j], it folds in the time it spent at its old value since it was last
// touched, so the final pass can recover the true time average without
// updating every feature at every iteration.
func apUpdate1(j int32, w []float64, update float64, sumW []float64, it int64, changed []int64) {
	if int(j) >= len(w) {
		return
	}
	sumW[j] += float64(it-changed[j]) * w[j]
	changed[j] = it
	w[j] += update
}
