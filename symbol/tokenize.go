package symbol

import (
	"fmt"
	"strings"

	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// Tokenization and PTB-escape handling are, per spec.md §1, out of scope as
// a deeply-modeled component: the real bllip-parser tokenizer performs a
// great deal of Penn-Treebank-specific normalization we do not replicate.
// What follows is the thin, external-collaborator-shaped surface spec.md §6
// actually asks of us: split whitespace-tokenized input carrying <s>/</s>
// (or `<s name=...>`) sentinels into a Sentence, undoing the -LRB-/-RRB-
// paren escapes along the way.

const (
	tokWord = iota
	tokSentOpen
	tokSentClose
	tokSentOpenNamed
)

var ptbEscapes = map[string]string{
	"-LRB-": "(",
	"-RRB-": ")",
	"-LSB-": "[",
	"-RSB-": "]",
	"-LCB-": "{",
	"-RCB-": "}",
}

// UnescapePTB reverses the Penn-Treebank paren escaping described in
// spec.md §6 ("PTB parens inside tokens are escaped as -LRB-/-RRB-").
func UnescapePTB(tok string) string {
	if repl, ok := ptbEscapes[tok]; ok {
		return repl
	}
	return tok
}

// EscapePTB is the inverse of UnescapePTB, applied when emitting tokens that
// originated from bracket characters (e.g. when round-tripping a Sentence
// back out to text).
func EscapePTB(tok string) string {
	switch tok {
	case "(":
		return "-LRB-"
	case ")":
		return "-RRB-"
	case "[":
		return "-LSB-"
	case "]":
		return "-RSB-"
	case "{":
		return "-LCB-"
	case "}":
		return "-RCB-"
	default:
		return tok
	}
}

// tokenizer is a lexmachine-backed DFA scanner over whitespace-separated
// input, built the same way lr/scanner.LMAdapter wraps lexmachine.Lexer: add
// patterns, then Compile once.
var tokenizer *lexmachine.Lexer

func init() {
	tokenizer = lexmachine.NewLexer()
	tokenizer.Add([]byte(`<s( +name *= *[^>]+)?>`), func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return m, nil
	})
	tokenizer.Add([]byte(`</s>`), func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return m, nil
	})
	tokenizer.Add([]byte(`[^ \t\r\n]+`), func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return m, nil
	})
	tokenizer.Add([]byte(`[ \t\r\n]+`), lexmachine.Skip)
	if err := tokenizer.Compile(); err != nil {
		panic(fmt.Sprintf("symbol: tokenizer DFA failed to compile: %v", err))
	}
}

// TokenizeLine splits one whitespace/`<s>`…`</s>`-delimited line of input
// into a Sentence, as described in spec.md §6. A line without sentinels is
// treated as already being the bare token sequence.
func TokenizeLine(line string) (Sentence, error) {
	scan, err := tokenizer.Scanner([]byte(line))
	if err != nil {
		return Sentence{}, fmt.Errorf("symbol: scanning line: %w", err)
	}
	var name string
	var tokens []string
	for {
		tok, err, eof := scan.Next()
		if eof {
			break
		}
		if err != nil {
			return Sentence{}, fmt.Errorf("symbol: tokenizing: %w", err)
		}
		m := tok.(*machines.Match)
		text := string(m.Bytes)
		switch {
		case strings.HasPrefix(text, "<s"):
			if eq := strings.Index(text, "name"); eq >= 0 {
				rest := text[eq:]
				if q := strings.IndexByte(rest, '='); q >= 0 {
					name = strings.Trim(strings.TrimRight(rest[q+1:], ">"), " \"")
				}
			}
		case text == "</s>":
			// end of sentence; ignore, callers process one sentence per line
		default:
			tokens = append(tokens, UnescapePTB(text))
		}
	}
	return NewSentence(name, tokens), nil
}
