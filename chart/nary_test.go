package chart

import (
	"testing"

	"github.com/bfchart/bfchart/config"
	"github.com/bfchart/bfchart/lexicon"
	"github.com/bfchart/bfchart/model"
	"github.com/bfchart/bfchart/symbol"
)

// TestParseHandlesTernaryRuleExtension exercises the N-ary active-edge path
// end to end: a rule with three daughters (NP -> DT NN IN) can only
// complete once all three preterminal items exist, which requires
// predictMultiary/advanceActive/triggerNeeding to actually drive the
// extension rather than the binary/unary fast paths.
func TestParseHandlesTernaryRuleExtension(t *testing.T) {
	dir := t.TempDir()
	termsPath := writeFile(t, dir, "terms.txt", "S1 0\nNP 0\nDT 1\nNN 1\nIN 1\n")
	symbols := symbol.NewTable()
	if err := symbols.Load(termsPath); err != nil {
		t.Fatalf("loading terms: %v", err)
	}
	np := symbols.Lookup("NP").ID
	dt := symbols.Lookup("DT").ID
	nn := symbols.Lookup("NN").ID
	in := symbols.Lookup("IN").ID
	s1 := symbols.Lookup("S1").ID

	grammar := NewGrammar()
	grammar.AddRule(np, []symbol.ID{dt, nn, in}, 0)
	grammar.AddUnary(s1, np)

	if got := grammar.RulesStartingWith(dt); len(got) != 1 {
		t.Fatalf("expected one rule indexed under its first daughter, got %d", len(got))
	}
	if got := grammar.HeadIndex(np, []symbol.ID{dt, nn, in}); got != 0 {
		t.Fatalf("HeadIndex = %d, want 0", got)
	}

	ruleEv := ruleEventN(np, []symbol.ID{dt, nn, in})
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
	pSgT := writeFile(t, vocabDir, "pSgT.txt",
		"3\nthe "+itoa32(int32(dt))+" 0.5\ncat "+itoa32(int32(nn))+" 0.4\nsat "+itoa32(int32(in))+" 0.3\n")
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
	sentence := symbol.NewSentence("t", []string{"the", "cat", "sat"})

	result, err := parser.Parse(sentence, nil, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(result) == 0 {
		t.Fatal("expected at least one derivation to complete the ternary rule")
	}
	tree := result[0].Tree
	if tree.Symbol.ID != s1 {
		t.Fatalf("expected root S1 at top, got %s", tree.Symbol.Name)
	}
	if len(tree.Children) != 1 || tree.Children[0].Symbol.ID != np {
		t.Fatalf("expected S1 -> NP, got %s", tree.Bracketed())
	}
	npNode := tree.Children[0]
	if len(npNode.Children) != 3 {
		t.Fatalf("expected NP -> (DT NN IN), got %s", tree.Bracketed())
	}
	wantTags := []symbol.ID{dt, nn, in}
	for i, want := range wantTags {
		if npNode.Children[i].Symbol.ID != want {
			t.Fatalf("NP child %d = %s, want %s", i, npNode.Children[i].Symbol.Name, symbols.ByID(want).Name)
		}
	}
}
