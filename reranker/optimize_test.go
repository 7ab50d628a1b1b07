package reranker

import (
	"math"
	"testing"
)

func TestObjectiveAddsL2RegularizerAndGradient(t *testing.T) {
	corpus := syntheticCorpus()
	obj := &Objective{
		Loss: LogLoss{}, Corpus: corpus, Classes: NewFeatureClasses(),
		ClassCoeff: []float64{2}, Power: 2, Scale: 1,
	}
	w := make([]float64, int(corpus.NFeatures))
	w[0] = 3
	grad := make([]float64, len(w))
	q, _ := obj.Eval(w, grad)

	var pureGrad = make([]float64, len(w))
	var stats PrStats
	l := (LogLoss{}).Evaluate(cloneCorpusForFD(corpus), w, pureGrad, &stats)
	wantR := 2 * math.Pow(math.Abs(w[0]), 2)
	if math.Abs(q-(l+wantR)) > 1e-9 {
		t.Fatalf("Q = %v, want L+R = %v", q, l+wantR)
	}
	wantGrad0 := pureGrad[0] + 2*2*math.Abs(w[0])
	if math.Abs(grad[0]-wantGrad0) > 1e-6 {
		t.Fatalf("grad[0] = %v, want %v", grad[0], wantGrad0)
	}
}

func TestObjectiveAddsL1RegularizerAndGradient(t *testing.T) {
	corpus := syntheticCorpus()
	obj := &Objective{
		Loss: LogLoss{}, Corpus: corpus, Classes: NewFeatureClasses(),
		ClassCoeff: []float64{2}, Power: 1, Scale: 1,
	}
	w := make([]float64, int(corpus.NFeatures))
	w[0] = 3
	grad := make([]float64, len(w))
	q, _ := obj.Eval(w, grad)

	var pureGrad = make([]float64, len(w))
	var stats PrStats
	l := (LogLoss{}).Evaluate(cloneCorpusForFD(corpus), w, pureGrad, &stats)
	wantR := 2 * math.Abs(w[0])
	if math.Abs(q-(l+wantR)) > 1e-9 {
		t.Fatalf("Q = %v, want L+R = %v", q, l+wantR)
	}
	wantGrad0 := pureGrad[0] + 2*1
	if math.Abs(grad[0]-wantGrad0) > 1e-6 {
		t.Fatalf("grad[0] = %v, want %v", grad[0], wantGrad0)
	}
}

func TestObjectiveMinimizeReducesLoss(t *testing.T) {
	corpus := syntheticCorpus()
	obj := &Objective{
		Loss: LogLoss{}, Corpus: corpus, Classes: NewFeatureClasses(),
		ClassCoeff: []float64{0.01}, Power: 2, Scale: 1,
	}
	w0 := make([]float64, int(corpus.NFeatures))
	grad0 := make([]float64, len(w0))
	before, _ := obj.Eval(w0, grad0)

	w, _, err := obj.Minimize(w0, 1e-6)
	if err != nil {
		t.Fatalf("Minimize: %v", err)
	}
	gradAfter := make([]float64, len(w))
	after, _ := obj.Eval(w, gradAfter)
	if after > before {
		t.Fatalf("expected Minimize to reduce Q: before=%v after=%v", before, after)
	}
}
