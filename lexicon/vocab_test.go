package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bfchart/bfchart/symbol"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadPSgT(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pSgT.txt", "2\ncat 3 0.9 4 0.1 | 120\ndog 3 1.0 | 80\n")
	v := New()
	if err := v.LoadPSgT(path); err != nil {
		t.Fatalf("LoadPSgT: %v", err)
	}
	tags, ok := v.Resolve("cat")
	if !ok {
		t.Fatalf("expected cat to resolve")
	}
	if len(tags) != 2 || tags[0].Tag != 3 || tags[0].Prob != 0.9 {
		t.Errorf("unexpected tag distribution: %+v", tags)
	}
	if _, ok := v.Resolve("zzzznotaword"); ok {
		t.Errorf("expected OOV word to not resolve")
	}
}

func TestUnknownWordProbability(t *testing.T) {
	dir := t.TempDir()
	pugt := writeFile(t, dir, "pUgT.txt", "3 0.02 0.3 0.01\n")
	endings := writeFile(t, dir, "endings.txt", "ing 3 0.8\n")
	v := New()
	if err := v.LoadPUgT(pugt); err != nil {
		t.Fatalf("LoadPUgT: %v", err)
	}
	if err := v.LoadEndings(endings); err != nil {
		t.Fatalf("LoadEndings: %v", err)
	}
	p := v.UnknownWordProbability("Running", symbol.ID(3))
	if p <= 0 || p >= 0.02 {
		t.Errorf("expected a small positive composed probability, got %f", p)
	}
}

func TestNextOOVIDIsUnique(t *testing.T) {
	v := New()
	seen := make(map[symbol.VocabID]bool)
	for i := 0; i < 100; i++ {
		id := v.NextOOVID()
		if seen[id] {
			t.Fatalf("duplicate OOV id %d", id)
		}
		seen[id] = true
	}
}
