package reranker

// OracleStats reports how well a corpus's own gold labeling (Pyx, not any
// trained model) does, grounded on oracle.cc: the upper bound a reranker
// could ever reach on this N-best data. No uniform-weight or logprob-only
// baseline is scored.
type OracleStats struct {
	NSentences  int
	NParsed     int // sentences with at least one parse carrying Pyx==1
	SumNParses  int
	SumGold     float64
	SumProposed float64 // Σ p over oracle-selected parses
	SumCorrect  float64 // Σ w over oracle-selected parses
}

// Precision, Recall and FScore report the oracle reranker's aggregate
// bracketing accuracy: the best attainable score given this N-best list,
// since OracleBest always picks the Pyx==1 parse when one exists.
func (s *OracleStats) Precision() float64 {
	if s.SumProposed == 0 {
		return 0
	}
	return s.SumCorrect / s.SumProposed
}

func (s *OracleStats) Recall() float64 {
	if s.SumGold == 0 {
		return 0
	}
	return s.SumCorrect / s.SumGold
}

func (s *OracleStats) FScore() float64 {
	if s.SumProposed+s.SumGold == 0 {
		return 0
	}
	return 2 * s.SumCorrect / (s.SumProposed + s.SumGold)
}

// OracleEvaluate computes OracleStats over corpus (spec.md/SPEC_FULL.md's
// supplemented "pick the corpus parse maximizing sentence-level F-score,
// ignoring the model" oracle feature, grounded on oracle.cc's main loop).
func OracleEvaluate(corpus *Corpus) *OracleStats {
	stats := &OracleStats{NSentences: len(corpus.Sentences)}
	for i := range corpus.Sentences {
		sent := &corpus.Sentences[i]
		stats.SumGold += sent.Gold
		stats.SumNParses += len(sent.Parses)
		for j := range sent.Parses {
			if sent.Parses[j].Pyx == 1 {
				stats.NParsed++
				stats.SumProposed += sent.Parses[j].ProposedEdges
				stats.SumCorrect += sent.Parses[j].CorrectEdges
				break
			}
		}
	}
	return stats
}

// OracleBest returns the index of the sentence's highest-Pyx parse (ties
// broken by the first occurrence), ignoring any trained weight vector —
// the parse assignGold already determined to be the best available.
func OracleBest(sent *Sentence) int {
	if sent.Correct >= 0 {
		return sent.Correct
	}
	best, bestPyx := 0, -1.0
	for i := range sent.Parses {
		if sent.Parses[i].Pyx > bestPyx {
			bestPyx = sent.Parses[i].Pyx
			best = i
		}
	}
	return best
}
