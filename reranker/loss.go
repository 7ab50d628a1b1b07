package reranker

import "math"

// PrStats accumulates the running sums a loss reports alongside its value
// and gradient (spec.md §4.3 "Each loss reports (L, ∂L/∂w, running sums of
// g, p, w)"), the aggregate precision/recall/accuracy bookkeeping
// corpus_stats() returns in eval-weights/data.c.
type PrStats struct {
	SumGold    float64 // Σ g over every sentence, including those with Px == 0
	SumP       float64 // Σ (winner's proposed-edge count)
	SumW       float64 // Σ (winner's correct-edge count)
	NCorrect   int     // number of sentences where the highest-scoring parse is the gold one
	NSentences int     // number of sentences with Px > 0 actually scored
}

// FScore reports 2·SumW / (SumP + SumGold), the aggregate expected F-score
// corpus_stats()-style callers derive from PrStats.
func (s *PrStats) FScore() float64 {
	if s.SumP+s.SumGold == 0 {
		return 0
	}
	return 2 * s.SumW / (s.SumP + s.SumGold)
}

// Accuracy reports the fraction of scored sentences whose top-scoring
// parse was the gold one.
func (s *PrStats) Accuracy() float64 {
	if s.NSentences == 0 {
		return 0
	}
	return float64(s.NCorrect) / float64(s.NSentences)
}

// Loss is the shared contract every loss variant implements (spec.md §9
// "Model as a Loss trait with a single method... the outer optimizer
// depends only on the trait"): evaluate the (unregularized) loss and its
// gradient at w over an entire corpus in one pass, accumulating PrStats as
// a side effect.
type Loss interface {
	// Evaluate returns this loss's value over corpus, adds its gradient
	// into grad (grad must be len(w)) and its counters into stats; the
	// returned value does not depend on what stats already held, so
	// callers can add regularization on top.
	Evaluate(corpus *Corpus, w []float64, grad []float64, stats *PrStats) float64
}

// scoreParses scores every parse of a sentence under w, tracking the
// highest-scoring index (spec.md §4.3's "soft-max uses max-subtraction"
// numerical care starts from here: every loss below builds its own
// partition function from these raw scores plus maxScore).
func scoreParses(sent *Sentence, w []float64) (scores []float64, maxScore float64, argmax int) {
	scores = make([]float64, len(sent.Parses))
	maxScore = negInf
	for i := range sent.Parses {
		scores[i] = sent.Parses[i].Score(w)
		if scores[i] > maxScore {
			maxScore = scores[i]
			argmax = i
		}
	}
	return scores, maxScore, argmax
}

// addFeatures adds coeff·f_j(x,y) to grad for every feature parse p carries
// (spec.md §4.3's per-sentence feature-expectation accumulation, the
// shared inner loop every *_sentence_stats() function in
// eval-weights/lmdata.c repeats).
func addFeatures(grad []float64, p *Parse, coeff float64) {
	if coeff == 0 {
		return
	}
	for _, f := range p.Features {
		if int(f) < len(grad) {
			grad[f] += coeff
		}
	}
	for _, fc := range p.FeatureCounts {
		if int(fc.Feature) < len(grad) {
			grad[fc.Feature] += coeff * fc.Count
		}
	}
}

// sigmoid is the standard logistic function, computed the numerically
// stable way (never evaluates exp of a large positive argument).
func sigmoid(x float64) float64 {
	if x >= 0 {
		z := math.Exp(-x)
		return 1 / (1 + z)
	}
	z := math.Exp(x)
	return z / (1 + z)
}

// softplus(x) = log(1+exp(x)), computed without overflowing for large x.
func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

const negInf = -1e300
