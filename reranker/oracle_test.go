package reranker

import "testing"

func TestOracleEvaluateComputesUpperBoundFScore(t *testing.T) {
	corpus := syntheticCorpus()
	stats := OracleEvaluate(corpus)
	if stats.NSentences != 2 {
		t.Fatalf("expected 2 sentences, got %d", stats.NSentences)
	}
	if stats.NParsed != 2 {
		t.Fatalf("expected both sentences to have a Pyx==1 parse, got %d", stats.NParsed)
	}
	if f := stats.FScore(); f <= 0 || f > 1 {
		t.Fatalf("expected a sane oracle f-score in (0,1], got %v", f)
	}
}

func TestOracleBestPrefersAssignedCorrectIndex(t *testing.T) {
	corpus := syntheticCorpus()
	for i := range corpus.Sentences {
		sent := &corpus.Sentences[i]
		if got := OracleBest(sent); got != sent.Correct {
			t.Fatalf("sentence %d: OracleBest = %d, want %d", i, got, sent.Correct)
		}
	}
}
