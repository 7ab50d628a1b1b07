/*
Package reranker implements C3, the discriminative reranker trainer
(spec.md §4.3): a regularized loss minimizer over a sparse feature matrix
extracted from N-best lists, sharing one corpus layout and one outer
cross-validation loop across several loss variants.
*/
package reranker

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
)

func T() tracing.Trace {
	return gtrace.SyntaxTracer
}

// FeatureCount is a (feature id, count) pair, the non-unit-count half of a
// parse's feature vector (spec.md §6 "Reranker corpus format").
type FeatureCount struct {
	Feature int32
	Count   float64
}

// Parse is one candidate derivation of a sentence, carrying its sparse
// feature vector and the bookkeeping the loss functions need (spec.md §3
// "Reranker corpus"): features with implicit count 1 are kept separate
// from features with an explicit count, mirroring the source's f[]/fc[]
// split (eval-weights/data.h's parse_type) rather than folding everything
// into one (id, count) slice.
type Parse struct {
	Features      []int32        // unit-count feature ids
	FeatureCounts []FeatureCount // (feature id, count) pairs, count != 1
	Pyx           float64        // target probability this parse is correct; 0 if not a winner
	ProposedEdges float64        // P: proposed-edge count
	CorrectEdges  float64        // W: correct-edge count
}

// ForEachFeature calls fn once per feature the parse carries, unit-count
// features first, with count 1.0 for those.
func (p *Parse) ForEachFeature(fn func(feature int32, count float64)) {
	for _, f := range p.Features {
		fn(f, 1.0)
	}
	for _, fc := range p.FeatureCounts {
		fn(fc.Feature, fc.Count)
	}
}

// Score computes Σ_j w[j]·f_j(x, y) for this parse under weight vector w.
func (p *Parse) Score(w []float64) float64 {
	var s float64
	for _, f := range p.Features {
		if int(f) < len(w) {
			s += w[f]
		}
	}
	for _, fc := range p.FeatureCounts {
		if int(fc.Feature) < len(w) {
			s += w[fc.Feature] * fc.Count
		}
	}
	return s
}

// Sentence is one training instance: a set of candidate parses plus the
// sentence-level weight and gold-edge count (spec.md §3, §6).
type Sentence struct {
	Parses []Parse
	Px     float64 // sentence weight; Px = 0 means this sentence is ignored by the loss
	Gold   float64 // G: number of gold-standard edges
	// Correct is the index of the parse with Pyx > 0, or -1 if none (a
	// "loser-only" sentence, spec.md §4.3 invariant).
	Correct int
}

// Corpus is a sequence of sentences, each a sequence of parses (spec.md
// §3 "Reranker corpus").
type Corpus struct {
	Sentences  []Sentence
	NFeatures  int32
	MaxNParses int
}

// LoadCorpus reads a reranker corpus from path, transparently decompressing
// a .gz or .bz2 suffix (spec.md §6 "optional .gz/.bz2 transparent read").
func LoadCorpus(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reranker: opening corpus %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("reranker: gzip corpus %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(path, ".bz2"):
		r = bzip2.NewReader(f)
	}
	c, err := ReadCorpus(r)
	if err != nil {
		return nil, fmt.Errorf("reranker: reading corpus %s: %w", path, err)
	}
	return c, nil
}

// tokenScanner walks the corpus's whitespace-separated token stream,
// exactly as second-stage/programs/wlle/lm.cc's read_corpus() does (the
// format is free-form across lines, not line-structured): a <Data> is
// [S=<NS>] <Sentence>*, a <Sentence> is [G=<G>] N=<N> <Parse>*, a <Parse>
// is [P=<P>] [W=<W>] <FC>* followed by a bare comma.
type tokenScanner struct {
	sc *bufio.Scanner
	tk string
	ok bool
}

func newTokenScanner(r io.Reader) *tokenScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)
	return &tokenScanner{sc: sc}
}

func (s *tokenScanner) next() (string, bool) {
	if s.sc.Scan() {
		return s.sc.Text(), true
	}
	return "", false
}

func (s *tokenScanner) peek() (string, bool) {
	if !s.ok {
		s.tk, s.ok = s.next()
	}
	return s.tk, s.ok
}

func (s *tokenScanner) take() (string, bool) {
	if s.ok {
		s.ok = false
		return s.tk, true
	}
	return s.next()
}

// takeKV consumes the peeked token if it has the form "<key>=<value>",
// returning its value and true; otherwise leaves the stream untouched.
func (s *tokenScanner) takeKV(key string) (string, bool) {
	tok, ok := s.peek()
	if !ok || !strings.HasPrefix(tok, key+"=") {
		return "", false
	}
	s.ok = false
	return strings.TrimPrefix(tok, key+"="), true
}

// ReadCorpus parses the text format spec.md §6 defines:
//
//	S=<nsentences>
//	G=<ngold> N=<nparses>
//	P=<nedges> W=<ncorrect> <f>[=<c>] <f>[=<c>] ... ,
//	...
//
// with defaults G=1, P=1, W=0, c=1, mirroring the grammar
// second-stage/programs/wlle/lm.cc's usage banner documents.
func ReadCorpus(r io.Reader) (*Corpus, error) {
	s := newTokenScanner(r)
	c := &Corpus{}

	if v, ok := s.takeKV("S"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("bad S= count: %w", err)
		}
		c.Sentences = make([]Sentence, 0, n)
	}

	var maxFeature int32 = -1
	for {
		if _, ok := s.peek(); !ok {
			break
		}
		sent, err := readSentence(s, &maxFeature)
		if err != nil {
			return nil, err
		}
		if len(sent.Parses) > c.MaxNParses {
			c.MaxNParses = len(sent.Parses)
		}
		c.Sentences = append(c.Sentences, sent)
	}
	c.NFeatures = maxFeature + 1
	T().Infof("reranker: loaded corpus: %d sentences, %d features", len(c.Sentences), c.NFeatures)
	return c, nil
}

func readSentence(s *tokenScanner, maxFeature *int32) (Sentence, error) {
	sent := Sentence{Px: 1, Gold: 1, Correct: -1}
	if v, ok := s.takeKV("G"); ok {
		g, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return sent, fmt.Errorf("bad G= value: %w", err)
		}
		sent.Gold = g
	}
	v, ok := s.takeKV("N")
	if !ok {
		return sent, fmt.Errorf("expected N=<nparses>")
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return sent, fmt.Errorf("bad N= value: %w", err)
	}
	sent.Parses = make([]Parse, n)
	for i := 0; i < n; i++ {
		p, err := readParse(s, maxFeature)
		if err != nil {
			return sent, fmt.Errorf("sentence parse %d: %w", i, err)
		}
		sent.Parses[i] = p
	}
	assignGold(&sent, 0)
	return sent, nil
}

// assignGold computes each parse's Pyx and the sentence's Px/Correct from
// its (proposed, correct) edge counts, mirroring
// eval-weights/data.c's read_sentence(): the F-score
// fscore = 2·w/(p+g) picks a winner, ties broken by feature 0 (the
// first-stage log probability, spec.md §6 "conventionally the first-stage
// log probability... used by the tie-breaker"). pyxFactor > 1 spreads Pyx
// over every parse in proportion to pyxFactor^(fscore - best fscore);
// 0 < pyxFactor <= 1 splits Pyx equally over the near-tied winners
// (data.c's Pyx_factor knob); pyxFactor == 0 reproduces the hard
// single-winner assignment the CLI uses by default.
func assignGold(sent *Sentence, pyxFactor float64) {
	n := len(sent.Parses)
	if n == 0 {
		sent.Px = 0
		return
	}
	const eps = 1e-7
	bestFscore := -1.0
	bestLogprob := -1e300
	bestIdx := -1
	for i := range sent.Parses {
		p := &sent.Parses[i]
		fscore := 2 * p.CorrectEdges / (p.ProposedEdges + sent.Gold)
		if fscore+eps < bestFscore {
			continue
		}
		logprob := featureValue(p, 0)
		if fscore > bestFscore+eps {
			bestFscore, bestLogprob, bestIdx = fscore, logprob, i
			continue
		}
		// tied on F-score: prefer the higher feature-0 value
		if logprob > bestLogprob {
			bestFscore, bestLogprob, bestIdx = fscore, logprob, i
		}
	}
	if bestIdx < 0 {
		sent.Px = 0
		return
	}
	sent.Px = 1
	sent.Correct = bestIdx
	switch {
	case pyxFactor > 1:
		z := 0.0
		fscores := make([]float64, n)
		for i := range sent.Parses {
			fscores[i] = 2 * sent.Parses[i].CorrectEdges / (sent.Parses[i].ProposedEdges + sent.Gold)
			z += math.Pow(pyxFactor, fscores[i]-bestFscore)
		}
		for i := range sent.Parses {
			sent.Parses[i].Pyx = math.Pow(pyxFactor, fscores[i]-bestFscore) / z
		}
	case pyxFactor > 0:
		nwinners := 0
		for i := range sent.Parses {
			fscore := 2 * sent.Parses[i].CorrectEdges / (sent.Parses[i].ProposedEdges + sent.Gold)
			if math.Abs(fscore-bestFscore) < 2*eps {
				nwinners++
			}
		}
		for i := range sent.Parses {
			fscore := 2 * sent.Parses[i].CorrectEdges / (sent.Parses[i].ProposedEdges + sent.Gold)
			if math.Abs(fscore-bestFscore) < 2*eps {
				sent.Parses[i].Pyx = 1.0 / float64(nwinners)
			}
		}
	default:
		sent.Parses[bestIdx].Pyx = 1
	}
}

// featureValue returns the value the parse carries for feature id, or 0 if
// the parse does not mention it — feature 0 is conventionally the
// first-stage log probability (spec.md §6).
func featureValue(p *Parse, feature int32) float64 {
	for _, f := range p.Features {
		if f == feature {
			return 1
		}
	}
	for _, fc := range p.FeatureCounts {
		if fc.Feature == feature {
			return fc.Count
		}
	}
	return 0
}

func readParse(s *tokenScanner, maxFeature *int32) (Parse, error) {
	p := Parse{ProposedEdges: 1, CorrectEdges: 0}
	if v, ok := s.takeKV("P"); ok {
		pv, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("bad P= value: %w", err)
		}
		p.ProposedEdges = pv
	}
	if v, ok := s.takeKV("W"); ok {
		wv, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("bad W= value: %w", err)
		}
		p.CorrectEdges = wv
	}
	for {
		tok, ok := s.peek()
		if !ok {
			return p, fmt.Errorf("unexpected end of input inside a parse")
		}
		if tok == "," {
			s.take()
			break
		}
		s.take()
		fid, count, err := parseFeatureToken(tok)
		if err != nil {
			return p, err
		}
		if fid > *maxFeature {
			*maxFeature = fid
		}
		if count == 1 {
			p.Features = append(p.Features, fid)
		} else {
			p.FeatureCounts = append(p.FeatureCounts, FeatureCount{Feature: fid, Count: count})
		}
	}
	return p, nil
}

// parseFeatureToken parses one "<f>[=<c>]" token, default count 1 (spec.md
// §6).
func parseFeatureToken(tok string) (feature int32, count float64, err error) {
	idPart, countPart, hasCount := strings.Cut(tok, "=")
	id, err := strconv.ParseInt(idPart, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("bad feature id %q: %w", idPart, err)
	}
	if !hasCount {
		return int32(id), 1, nil
	}
	c, err := strconv.ParseFloat(countPart, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad feature count %q: %w", countPart, err)
	}
	return int32(id), c, nil
}
