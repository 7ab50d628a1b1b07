package reranker

import (
	"bytes"
	"compress/gzip"
	"os"
	"strings"
	"testing"
)

const toyCorpusText = `
S=2
G=2 N=2
P=2 W=2 0=1.5 1 ,
P=2 W=0 0=0.1 2 ,
N=1
P=1 W=1 0=2.0 3=2 ,
`

func TestReadCorpusParsesTokenGrammar(t *testing.T) {
	c, err := ReadCorpus(strings.NewReader(toyCorpusText))
	if err != nil {
		t.Fatalf("ReadCorpus: %v", err)
	}
	if len(c.Sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(c.Sentences))
	}
	s0 := c.Sentences[0]
	if len(s0.Parses) != 2 {
		t.Fatalf("expected 2 parses in sentence 0, got %d", len(s0.Parses))
	}
	if s0.Gold != 2 {
		t.Fatalf("expected G=2, got %v", s0.Gold)
	}
	if s0.Correct != 0 {
		t.Fatalf("expected parse 0 to win on f-score, got %d", s0.Correct)
	}
	if s0.Parses[0].Pyx != 1 {
		t.Fatalf("expected winner Pyx=1, got %v", s0.Parses[0].Pyx)
	}
	if s0.Parses[1].Pyx != 0 {
		t.Fatalf("expected loser Pyx=0, got %v", s0.Parses[1].Pyx)
	}

	s1 := c.Sentences[1]
	if len(s1.Parses) != 1 {
		t.Fatalf("expected 1 parse in sentence 1, got %d", len(s1.Parses))
	}
	if s1.Gold != 1 {
		t.Fatalf("expected default G=1, got %v", s1.Gold)
	}
	if len(s1.Parses[0].FeatureCounts) != 2 || s1.Parses[0].FeatureCounts[1].Feature != 3 || s1.Parses[0].FeatureCounts[1].Count != 2 {
		t.Fatalf("unexpected feature counts: %+v", s1.Parses[0].FeatureCounts)
	}

	if c.NFeatures != 4 {
		t.Fatalf("expected NFeatures=4 (max feature id 3 + 1), got %d", c.NFeatures)
	}
}

func TestLoadCorpusDecompressesGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(toyCorpusText)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	gz.Close()

	dir := t.TempDir()
	path := dir + "/corpus.txt.gz"
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing gz corpus: %v", err)
	}
	c, err := LoadCorpus(path)
	if err != nil {
		t.Fatalf("LoadCorpus: %v", err)
	}
	if len(c.Sentences) != 2 {
		t.Fatalf("expected 2 sentences from decompressed corpus, got %d", len(c.Sentences))
	}
}

func TestAssignGoldSoftSpreadsTiesEqually(t *testing.T) {
	sent := Sentence{
		Gold: 2,
		Parses: []Parse{
			{ProposedEdges: 2, CorrectEdges: 2},
			{ProposedEdges: 2, CorrectEdges: 2},
			{ProposedEdges: 2, CorrectEdges: 0},
		},
	}
	assignGold(&sent, 1)
	if sent.Parses[0].Pyx != 0.5 || sent.Parses[1].Pyx != 0.5 {
		t.Fatalf("expected tied winners to split Pyx equally, got %v %v", sent.Parses[0].Pyx, sent.Parses[1].Pyx)
	}
	if sent.Parses[2].Pyx != 0 {
		t.Fatalf("expected loser Pyx=0, got %v", sent.Parses[2].Pyx)
	}
}

func TestParseScoreSumsFeaturesAndCounts(t *testing.T) {
	p := Parse{Features: []int32{0, 2}, FeatureCounts: []FeatureCount{{Feature: 1, Count: 3}}}
	w := []float64{1, 2, 0.5}
	if got := p.Score(w); got != 1+2*3+0.5 {
		t.Fatalf("Score() = %v, want %v", got, 1+2*3+0.5)
	}
}
