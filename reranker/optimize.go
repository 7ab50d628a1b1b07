package reranker

import (
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Objective bundles a Loss with its regularizer into the single scalar
// function cvlm-lbfgs.cc's LossFn::Eval computes:
//
//	Q(w) = s·(L(w) + Σ_j c_{class(j)}·|w_j|^p)
//
// (spec.md §4.3, §9). ClassCoeff holds one linear-space regularizer
// coefficient per feature class, as tuned by the outer cross-validation
// loop in cv.go.
type Objective struct {
	Loss       Loss
	Corpus     *Corpus
	Classes    *FeatureClasses
	ClassCoeff []float64 // class -> c_k, linear space
	Power      float64   // p, the regularizer power (1 is plain L1)
	Scale      float64   // s, defaults to 1
}

// Eval computes Q(w) and ∂Q/∂w into grad (len(w)), and returns the
// running PrStats the loss accumulated so callers can report F-score or
// accuracy without a second pass over the corpus.
func (o *Objective) Eval(w, grad []float64) (float64, PrStats) {
	for i := range grad {
		grad[i] = 0
	}
	var stats PrStats
	l := o.Loss.Evaluate(o.Corpus, w, grad, &stats)

	scale := o.Scale
	if scale == 0 {
		scale = 1
	}
	if scale != 1 {
		l *= scale
		for i := range grad {
			grad[i] *= scale
		}
	}

	var r float64
	if len(o.ClassCoeff) > 0 {
		for j, wj := range w {
			c := o.ClassCoeff[o.Classes.ClassOf(int32(j))]
			r += c * math.Pow(math.Abs(wj), o.Power)
		}
		r *= scale
		sp := scale * o.Power
		for j, wj := range w {
			c := o.ClassCoeff[o.Classes.ClassOf(int32(j))]
			var sign float64
			switch {
			case wj > 0:
				sign = 1
			case wj < 0:
				sign = -1
			}
			grad[j] += sp * c * math.Pow(math.Abs(wj), o.Power-1) * sign
		}
	}
	return l + r, stats
}

// Minimize runs an L-BFGS inner solve over w0 (modified in place is not
// required; a copy is returned), grounded on cvlm-lbfgs.cc's use of
// liblbfgs to drive the same Q(w) this Objective computes. lastStats
// reports the PrStats from the final evaluation, for convergence logging.
func (o *Objective) Minimize(w0 []float64, tol float64) (w []float64, lastStats PrStats, err error) {
	p := optimize.Problem{
		Func: func(x []float64) float64 {
			grad := make([]float64, len(x))
			v, stats := o.Eval(x, grad)
			lastStats = stats
			return v
		},
		Grad: func(grad, x []float64) {
			o.Eval(x, grad)
		},
	}
	settings := &optimize.Settings{}
	if tol > 0 {
		settings.GradientThreshold = tol
	}
	result, err := optimize.Minimize(p, w0, settings, &optimize.LBFGS{})
	if err != nil && result == nil {
		return nil, lastStats, err
	}
	return result.X, lastStats, nil
}
