package reranker

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/optimize"
)

// CVConfig configures the outer cross-validation loop (spec.md §4.3
// "Outer cross-validation loop"): it tunes one regularizer coefficient per
// feature class on held-out dev-set loss, wrapping repeated inner L-BFGS
// solves, grounded on cvlm-lbfgs.cc's Estimator1.
type CVConfig struct {
	Loss      Loss    // training loss, e.g. LogLoss{}
	Classes   *FeatureClasses
	Power     float64 // regularizer power p
	Scale     float64 // objective scale s
	C0        float64 // initial regularizer constant
	C00       float64 // multiplier applied to class 0's coefficient
	Tol       float64 // inner L-BFGS gradient tolerance
	RandInit  float64 // if nonzero, randomize w0 in [-RandInit,+RandInit]
	OptFScore bool    // true: tune against dev 1-Fscore; false: dev neglogP
	MaxRounds int     // cap on outer Nelder-Mead function evaluations
	Rand      *rand.Rand
}

// CVResult is the outcome of one CrossValidate call: the best weight
// vector seen on dev data, and the regularizer coefficients that produced
// it (cvlm-lbfgs.cc persists "the best weight vector seen on dev" across
// rounds — spec.md §4.3 — rather than trusting the outer optimizer's
// final point, since Nelder-Mead can wander past the optimum on its way
// to convergence).
type CVResult struct {
	Weights    []float64
	ClassCoeff []float64
	Rounds     int
	DevStats   PrStats
	DevScore   float64 // the quantity minimized: 1-Fscore or neglogP
}

// CrossValidate runs the outer Nelder-Mead simplex over log regularizer
// coefficients, each round re-solving the inner regularized objective to
// convergence on train and scoring the result on dev.
func CrossValidate(train, dev *Corpus, cfg CVConfig) (*CVResult, error) {
	nc := cfg.Classes.NumClasses()
	if nc == 0 {
		nc = 1
	}
	lcs0 := make([]float64, nc)
	for i := range lcs0 {
		lcs0[i] = math.Log(cfg.C0)
	}
	if cfg.C00 != 0 {
		lcs0[0] += math.Log(cfg.C00)
	}

	nx := int(train.NFeatures)
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	best := &CVResult{DevScore: math.Inf(1)}

	round := func(lccs []float64) float64 {
		ccs := make([]float64, len(lccs))
		for i, l := range lccs {
			ccs[i] = math.Exp(l)
		}
		obj := &Objective{
			Loss: cfg.Loss, Corpus: train, Classes: cfg.Classes,
			ClassCoeff: ccs, Power: cfg.Power, Scale: cfg.Scale,
		}
		w0 := make([]float64, nx)
		if cfg.RandInit != 0 {
			for i := range w0 {
				w0[i] = cfg.RandInit * (2*rng.Float64() - 1)
			}
		}
		w, _, err := obj.Minimize(w0, cfg.Tol)
		if err != nil {
			T().Errorf("reranker: inner solve failed: %v", err)
			return math.Inf(1)
		}

		devGrad := make([]float64, nx)
		devObj := &Objective{Loss: LogLoss{}, Corpus: dev, Classes: cfg.Classes}
		neglogP, devStats := devObj.Eval(w, devGrad)

		var score float64
		if cfg.OptFScore {
			score = 1 - devStats.FScore()
		} else {
			score = neglogP
		}

		best.Rounds++
		if score < best.DevScore {
			best.DevScore = score
			best.Weights = w
			best.ClassCoeff = ccs
			best.DevStats = devStats
		}
		T().Debugf("reranker: cv round %d: dev score=%f f=%f", best.Rounds, score, devStats.FScore())
		return score
	}

	p := optimize.Problem{Func: round}
	settings := &optimize.Settings{}
	if cfg.MaxRounds > 0 {
		settings.FuncEvaluations = cfg.MaxRounds
	}
	_, err := optimize.Minimize(p, lcs0, settings, &optimize.NelderMead{})
	if err != nil && best.Weights == nil {
		return nil, err
	}
	return best, nil
}
