package chart

import "testing"

func TestLoadExtPosConstraintsParsesPerSentenceBlocks(t *testing.T) {
	symbols := loadTestSymbols(t, "S1 0\nDT 1\nNN 1\nVB 1\n")
	path := writeFile(t, t.TempDir(), "extpos.txt",
		"the DT\n"+
			"dog NN VB\n"+
			"---\n"+
			"run VB\n")

	got, err := LoadExtPosConstraints(path, symbols)
	if err != nil {
		t.Fatalf("LoadExtPosConstraints: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(got))
	}
	dt := symbols.Lookup("DT").ID
	nn := symbols.Lookup("NN").ID
	vb := symbols.Lookup("VB").ID

	first := got[0]
	if len(first) != 2 {
		t.Fatalf("expected 2 tokens in first sentence, got %d", len(first))
	}
	if len(first[0]) != 1 || first[0][0] != dt {
		t.Fatalf("token 0 tags = %v, want [DT]", first[0])
	}
	if len(first[1]) != 2 || first[1][0] != nn || first[1][1] != vb {
		t.Fatalf("token 1 tags = %v, want [NN VB]", first[1])
	}

	second := got[1]
	if len(second) != 1 || len(second[0]) != 1 || second[0][0] != vb {
		t.Fatalf("second sentence = %v, want [[VB]]", second)
	}
}

func TestLoadExtPosConstraintsDropsUnknownTagsQuietly(t *testing.T) {
	symbols := loadTestSymbols(t, "S1 0\nDT 1\n")
	path := writeFile(t, t.TempDir(), "extpos.txt", "the DT MADEUP\n")

	got, err := LoadExtPosConstraints(path, symbols)
	if err != nil {
		t.Fatalf("LoadExtPosConstraints: %v", err)
	}
	dt := symbols.Lookup("DT").ID
	if len(got) != 1 || len(got[0]) != 1 || len(got[0][0]) != 1 || got[0][0][0] != dt {
		t.Fatalf("expected the unknown tag dropped, kept only DT: %v", got)
	}
}

func TestLoadExtPosConstraintsRejectsMalformedLine(t *testing.T) {
	symbols := loadTestSymbols(t, "S1 0\n")
	path := writeFile(t, t.TempDir(), "extpos.txt", "lonelyword\n")

	if _, err := LoadExtPosConstraints(path, symbols); err == nil {
		t.Fatal("expected an error for a line with no tag field")
	}
}
