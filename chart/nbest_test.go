package chart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bfchart/bfchart/config"
	"github.com/bfchart/bfchart/lexicon"
	"github.com/bfchart/bfchart/model"
	"github.com/bfchart/bfchart/symbol"
)

// writeFile is a small test helper to stage one file inside dir.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// buildToyParser wires a two-rule grammar ("a dog" -> DT NN -> NP -> S1)
// end to end through the public loaders, exactly as a real model directory
// would be assembled (spec.md §6).
func buildToyParser(t *testing.T) (*Parser, symbol.Sentence, *symbol.Table) {
	t.Helper()
	dir := t.TempDir()

	termsPath := writeFile(t, dir, "terms.txt", "S1 0\nNP 0\nDT 1\nNN 2\n")
	symbols := symbol.NewTable()
	if err := symbols.Load(termsPath); err != nil {
		t.Fatalf("loading terms: %v", err)
	}
	np := symbols.Lookup("NP").ID
	dt := symbols.Lookup("DT").ID
	nn := symbols.Lookup("NN").ID
	s1 := symbols.Lookup("S1").ID

	grammar := NewGrammar()
	grammar.AddBinary(np, dt, nn)
	grammar.AddUnary(s1, np)

	ruleEv := ruleEvent(np, dt, nn)
	unaryEv := unaryEvent(s1, np)
	writeFile(t, dir, "rule.g", "0 -1 -1 1 L "+itoa(ruleEv)+" 0.9\n")
	writeFile(t, dir, "rule.lambdas", "0 0 1.0\n")
	writeFile(t, dir, "unary.g", "0 -1 -1 1 L "+itoa(unaryEv)+" 0.8\n")
	writeFile(t, dir, "unary.lambdas", "0 0 1.0\n")

	m := model.New()
	if err := m.Load(dir); err != nil {
		t.Fatalf("loading model: %v", err)
	}

	vocabDir := t.TempDir()
	pSgT := writeFile(t, vocabDir, "pSgT.txt", "2\na "+itoa32(int32(dt))+" 0.5\ndog "+itoa32(int32(nn))+" 0.4\n")
	vocab := lexicon.New()
	if err := vocab.LoadPSgT(pSgT); err != nil {
		t.Fatalf("loading vocab: %v", err)
	}

	cfg := config.Defaults()
	cfg.Nth = 5
	cfg.EdgeHeapCapacity = 1000
	cfg.RuleCountTimeout = 1000
	cfg.MaxNumThreads = 1
	rt := config.NewRuntime(cfg)

	parser := NewParser(symbols, m, vocab, grammar, rt)
	sentence := symbol.NewSentence("t", []string{"a", "dog"})
	return parser, sentence, symbols
}

func itoa(v int32) string { return itoa32(v) }

func itoa32(v int32) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [12]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func TestParseProducesRootDerivation(t *testing.T) {
	parser, sentence, symbols := buildToyParser(t)
	result, err := parser.Parse(sentence, nil, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(result) == 0 {
		t.Fatal("expected at least one derivation")
	}
	if result[0].Tree.Symbol.ID != symbols.Lookup("S1").ID {
		t.Fatalf("expected root S1 at top, got %s", result[0].Tree.Symbol.Name)
	}
	yield := result[0].Tree.Yield()
	if len(yield) != 2 || yield[0] != "a" || yield[1] != "dog" {
		t.Fatalf("unexpected yield: %v", yield)
	}
}

func TestNBestListIsDescendingAndUnique(t *testing.T) {
	parser, sentence, _ := buildToyParser(t)
	result, err := parser.Parse(sentence, nil, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	seen := map[string]bool{}
	for i, st := range result {
		if i > 0 && st.LogProb > result[i-1].LogProb {
			t.Fatalf("N-best list not descending at index %d: %v > %v", i, st.LogProb, result[i-1].LogProb)
		}
		b := st.Tree.Bracketed()
		if seen[b] {
			t.Fatalf("duplicate bracketing in N-best list: %s", b)
		}
		seen[b] = true
	}
}

func TestParseRejectsOversizedSentence(t *testing.T) {
	parser, sentence, _ := buildToyParser(t)
	parser.Runtime.Config.MaxSentenceLength = 1
	_, err := parser.Parse(sentence, nil, nil)
	if err == nil {
		t.Fatal("expected InputError for a sentence exceeding MaxSentenceLength")
	}
	if _, ok := err.(*InputError); !ok {
		t.Fatalf("expected *InputError, got %T: %v", err, err)
	}
}

func TestParseFailsWithoutPreterminalSeeds(t *testing.T) {
	parser, _, _ := buildToyParser(t)
	empty := symbol.NewSentence("empty-vocab", []string{"unseenword1", "unseenword2"})
	_, err := parser.Parse(empty, nil, nil)
	if err == nil {
		t.Fatal("expected ParseFailure when no preterminal tags can be resolved")
	}
}
