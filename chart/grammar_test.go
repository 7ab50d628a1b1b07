package chart

import (
	"testing"

	"github.com/bfchart/bfchart/symbol"
)

func loadTestSymbols(t *testing.T, content string) *symbol.Table {
	t.Helper()
	path := writeFile(t, t.TempDir(), "terms.txt", content)
	symbols := symbol.NewTable()
	if err := symbols.Load(path); err != nil {
		t.Fatalf("loading terms: %v", err)
	}
	return symbols
}

func TestLoadHeadInfoPopulatesBinaryUnaryAndMultiaryTables(t *testing.T) {
	symbols := loadTestSymbols(t, "S1 0\nNP 0\nDT 1\nNN 1\nIN 1\n")
	path := writeFile(t, t.TempDir(), "headInfo.txt",
		"S1 0 NP\n"+
			"NP 1 DT NN\n"+
			"NP 0 DT NN IN\n")

	g := NewGrammar()
	if err := g.LoadHeadInfo(path, symbols); err != nil {
		t.Fatalf("LoadHeadInfo: %v", err)
	}

	np := symbols.Lookup("NP").ID
	dt := symbols.Lookup("DT").ID
	nn := symbols.Lookup("NN").ID
	in := symbols.Lookup("IN").ID
	s1 := symbols.Lookup("S1").ID

	if got := g.UnaryParents(np); len(got) != 1 || got[0] != s1 {
		t.Fatalf("UnaryParents(NP) = %v, want [S1]", got)
	}
	if got := g.BinaryParents(dt, nn); len(got) != 1 || got[0] != np {
		t.Fatalf("BinaryParents(DT,NN) = %v, want [NP]", got)
	}
	if got := g.HeadIndex(np, []symbol.ID{dt, nn}); got != 1 {
		t.Fatalf("HeadIndex(NP -> DT NN) = %d, want 1", got)
	}
	rules := g.RulesStartingWith(dt)
	if len(rules) != 1 || rules[0].Parent != np || rules[0].Head != 0 {
		t.Fatalf("RulesStartingWith(DT) = %+v, want one NP rule headed at 0", rules)
	}
	if got := g.HeadIndex(np, []symbol.ID{dt, nn, in}); got != 0 {
		t.Fatalf("HeadIndex(NP -> DT NN IN) = %d, want 0", got)
	}
}

func TestLoadNTTCountsFeedsGrammarCount(t *testing.T) {
	symbols := loadTestSymbols(t, "S1 0\nNP 0\nVP 0\n")
	path := writeFile(t, t.TempDir(), "nttCounts.txt", "NP 412\nVP 0\n")

	g := NewGrammar()
	np := symbols.Lookup("NP").ID
	vp := symbols.Lookup("VP").ID
	s1 := symbols.Lookup("S1").ID

	if got := g.Count(np); got != -1 {
		t.Fatalf("Count before load = %d, want -1 (no opinion)", got)
	}
	if err := g.LoadNTTCounts(path, symbols); err != nil {
		t.Fatalf("LoadNTTCounts: %v", err)
	}
	if got := g.Count(np); got != 412 {
		t.Fatalf("Count(NP) = %d, want 412", got)
	}
	if got := g.Count(vp); got != 0 {
		t.Fatalf("Count(VP) = %d, want 0", got)
	}
	if got := g.Count(s1); got != -1 {
		t.Fatalf("Count(S1) (never mentioned) = %d, want -1", got)
	}
}
