package symbol

import (
	"strings"
	"testing"
)

func TestTableLoad(t *testing.T) {
	tbl := NewTable()
	src := strings.NewReader("S1 0\nNP 0\nNN 1\n, 4\n")
	if err := tbl.load(src); err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.Lookup("NP") == nil {
		t.Fatalf("expected NP to be present")
	}
	nn := tbl.Lookup("NN")
	if nn.Class != PreterminalClosed {
		t.Errorf("NN class = %v, want PreterminalClosed", nn.Class)
	}
	if !tbl.Lookup(",").Class.IsPunctuation() {
		t.Errorf("comma should be punctuation")
	}
	if tbl.Root == nil || tbl.Root.Name != "S1" {
		t.Errorf("expected root symbol S1, got %v", tbl.Root)
	}
	if tbl.Start == nil || tbl.Stop == nil {
		t.Errorf("expected START/STOP sentinels to be added")
	}
}

func TestTableIDsAreSequential(t *testing.T) {
	tbl := NewTable()
	src := strings.NewReader("A 0\nB 0\nC 1\n")
	if err := tbl.load(src); err != nil {
		t.Fatalf("load: %v", err)
	}
	for i, s := range tbl.All()[:3] {
		if int(s.ID) != i {
			t.Errorf("symbol %s has id %d, want %d", s.Name, s.ID, i)
		}
	}
}

func TestTokenizeLine(t *testing.T) {
	sent, err := TokenizeLine("<s> The cat sat -LRB- down -RRB- . </s>")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := []string{"The", "cat", "sat", "(", "down", ")", "."}
	got := sent.Yield()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTokenizeNamedSentence(t *testing.T) {
	sent, err := TokenizeLine(`<s name="wsj_0001.1"> cat </s>`)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if sent.Name != "wsj_0001.1" {
		t.Errorf("name = %q, want wsj_0001.1", sent.Name)
	}
}

func TestUnescapePTBRoundTrip(t *testing.T) {
	for esc, plain := range ptbEscapes {
		if UnescapePTB(esc) != plain {
			t.Errorf("UnescapePTB(%q) = %q, want %q", esc, UnescapePTB(esc), plain)
		}
		if EscapePTB(plain) != esc {
			t.Errorf("EscapePTB(%q) = %q, want %q", plain, EscapePTB(plain), esc)
		}
	}
}
