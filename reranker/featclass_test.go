package reranker

import (
	"strings"
	"testing"
)

func TestReadFeatureClassesBinsByColonPrefix(t *testing.T) {
	data := "0 Rule:S:NP some detail here\n1 Rule:S:VP more detail\n2 Rule:NP:DT other\n3 Word:dog extra\n"
	fc, err := ReadFeatureClasses(strings.NewReader(data), 1)
	if err != nil {
		t.Fatalf("ReadFeatureClasses: %v", err)
	}
	if fc.ClassOf(0) != fc.ClassOf(1) {
		t.Fatalf("expected features 0 and 1 (both Rule:S:*) to share a class at ns=1, got %d and %d", fc.ClassOf(0), fc.ClassOf(1))
	}
	if fc.ClassOf(0) == fc.ClassOf(2) {
		t.Fatalf("expected Rule:S:* and Rule:NP:* to differ at ns=1")
	}
	if fc.ClassOf(3) == fc.ClassOf(0) {
		t.Fatalf("expected Word:* to be its own class")
	}
	if fc.ClassOf(99) != 0 {
		t.Fatalf("expected an unmentioned feature to default to class 0, got %d", fc.ClassOf(99))
	}
}

func TestFeatureIdentifierPrefixTruncatesAtSeparatorLimit(t *testing.T) {
	if got := featureIdentifierPrefix("a:b:c:d", 2); got != "a:b:c" {
		t.Fatalf("featureIdentifierPrefix(ns=2) = %q, want %q", got, "a:b:c")
	}
	if got := featureIdentifierPrefix("a:b:c:d", -1); got != "a:b:c:d" {
		t.Fatalf("featureIdentifierPrefix(ns=-1) = %q, want whole identifier", got)
	}
}

func TestNewFeatureClassesDefaultsToSingleClass(t *testing.T) {
	fc := NewFeatureClasses()
	if fc.NumClasses() != 1 {
		t.Fatalf("expected exactly one default class, got %d", fc.NumClasses())
	}
	if fc.ClassOf(12345) != 0 {
		t.Fatalf("expected every feature to map to class 0 with no feat-file loaded")
	}
}
