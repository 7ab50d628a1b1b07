package chart

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/bfchart/bfchart/symbol"
)

// LoadExtPosConstraints reads an external-POS constraint file: one or more
// sentences, each a run of lines `<word> <tag> [<tag> ...]` giving the
// preterminal tags the parser is allowed to consider for that word, with
// sentences separated by a line containing exactly "---"
// (original_source/first-stage/PARSE/ExtPos.C's block format). The result is
// indexed [sentence][tokenPosition] -> allowed tag ids; a word naming a tag
// absent from the symbol table drops that tag rather than failing the load,
// since a stale constraint file should narrow less, not abort the parse.
func LoadExtPosConstraints(path string, symbols *symbol.Table) ([][][]symbol.ID, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("chart: opening extpos file: %w", err)
	}
	defer f.Close()

	var sentences [][][]symbol.ID
	var cur [][]symbol.ID
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "---" {
			sentences = append(sentences, cur)
			cur = nil
			continue
		}
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("chart: malformed extpos line %q", line)
		}
		var tags []symbol.ID
		for _, name := range fields[1:] {
			if s := symbols.Lookup(name); s != nil {
				tags = append(tags, s.ID)
			}
		}
		cur = append(cur, tags)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(cur) > 0 {
		sentences = append(sentences, cur)
	}
	return sentences, nil
}
