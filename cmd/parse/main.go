/*
Command parse is the CLI for C1, the best-first chart parser (spec.md §6
"CLI (representative)": `parse [-N nbest] [-T overparse] [-l maxlen]
[-L En|Ch|Ar] [-C] [-K] <modeldir> < sentences > nbest`).

It reads one sentence per line from stdin (or drives an interactive
readline shell with -i), parses each against a loaded model directory, and
writes an N-best list per sentence to stdout.
*/
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/bfchart/bfchart/chart"
	"github.com/bfchart/bfchart/config"
	"github.com/bfchart/bfchart/lexicon"
	"github.com/bfchart/bfchart/model"
	"github.com/bfchart/bfchart/span"
	"github.com/bfchart/bfchart/symbol"
	"github.com/chzyer/readline"
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{Text: "  >>", Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack)}
	pterm.Error.Prefix = pterm.Prefix{Text: "  Error", Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack)}
	pterm.Warning.Prefix = pterm.Prefix{Text: "  Warn", Style: pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)}
}

type parseFlags struct {
	nbest       int
	overparse   float64
	maxlen      int
	language    string
	constrained bool
	keepGoing   bool
	interactive bool
	traceLevel  string
	extpos      string
}

func main() {
	initDisplay()
	gtrace.SyntaxTracer = gologadapter.New()

	flags := &parseFlags{}
	root := &cobra.Command{
		Use:   "parse [flags] <modeldir>",
		Short: "Best-first N-best chart parser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(args[0], flags)
		},
	}
	root.Flags().IntVarP(&flags.nbest, "nbest", "N", 50, "size of the N-best list per sentence")
	root.Flags().Float64VarP(&flags.overparse, "overparse", "T", 1.3, "overparsing time factor")
	root.Flags().IntVarP(&flags.maxlen, "maxlen", "l", 400, "maximum sentence length")
	root.Flags().StringVarP(&flags.language, "language", "L", "En", "language: En|Ch|Ar")
	root.Flags().BoolVarP(&flags.constrained, "constrained", "C", false, "enable guided-mode span constraints")
	root.Flags().BoolVarP(&flags.keepGoing, "keep-going", "K", false, "continue past per-sentence parse failures")
	root.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "run an interactive readline shell instead of reading stdin")
	root.Flags().StringVar(&flags.traceLevel, "trace", "Info", "trace level: Debug|Info|Error")
	root.Flags().StringVar(&flags.extpos, "extpos", "", "path to an external-POS constraint file (spec.md §6)")

	if err := root.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

// parseContext bundles the loaded parser with the per-run inputs that vary
// per sentence rather than per model directory: external-POS constraints
// (-extpos) and whether guided-mode root-span constraints are active (-C).
type parseContext struct {
	parser    *chart.Parser
	extPos    [][][]symbol.ID // per sentence, per token position
	constrain bool
	sentence  int // index into extPos for the next line read
}

func runParse(modeldir string, flags *parseFlags) error {
	gtrace.SyntaxTracer.SetTraceLevel(traceLevel(flags.traceLevel))

	parser, err := loadParser(modeldir, flags)
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}
	pc := &parseContext{parser: parser, constrain: flags.constrained}
	if flags.extpos != "" {
		pc.extPos, err = chart.LoadExtPosConstraints(flags.extpos, parser.Symbols)
		if err != nil {
			return fmt.Errorf("loading extpos constraints: %w", err)
		}
	}

	if flags.interactive {
		return runInteractive(pc, flags)
	}
	return runBatch(pc, flags, os.Stdin, os.Stdout)
}

func loadParser(modeldir string, flags *parseFlags) (*chart.Parser, error) {
	symbols := symbol.NewTable()
	if err := symbols.Load(modeldir + "/terms.txt"); err != nil {
		return nil, err
	}
	m := model.New()
	if err := m.Load(modeldir); err != nil {
		return nil, err
	}
	vocab := lexicon.New()
	if err := vocab.LoadPSgT(modeldir + "/pSgT.txt"); err != nil {
		return nil, err
	}
	grammar := chart.NewGrammar()
	if err := grammar.LoadUnitRules(modeldir+"/unitRules.txt", symbols); err != nil {
		return nil, err
	}
	if err := grammar.LoadHeadInfo(modeldir+"/headInfo.txt", symbols); err != nil {
		return nil, err
	}
	if err := grammar.LoadNTTCounts(modeldir+"/nttCounts.txt", symbols); err != nil {
		return nil, err
	}

	cfg := config.Defaults()
	cfg.Nth = flags.nbest
	cfg.TimeFactor = flags.overparse
	cfg.MaxSentenceLength = flags.maxlen
	cfg.Language = config.Language(flags.language)
	cfg.LoadFromGConf()
	rt := config.NewRuntime(cfg)

	pterm.Info.Printfln("loaded model %s: %d symbols, Nth=%d", modeldir, symbols.Len(), cfg.Nth)
	return chart.NewParser(symbols, m, vocab, grammar, rt), nil
}

func runBatch(pc *parseContext, flags *parseFlags, in *os.File, out *os.File) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	w := bufio.NewWriter(out)
	defer w.Flush()

	var nfail int
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if err := parseOneLine(pc, line, w); err != nil {
			nfail++
			pterm.Warning.Printfln("sentence failed: %v", err)
			if !flags.keepGoing {
				return err
			}
		}
	}
	if nfail > 0 {
		pterm.Warning.Printfln("%d sentence(s) failed to parse", nfail)
	}
	return sc.Err()
}

// parseOneLine tokenizes and parses one input line, consuming the next
// per-sentence extPos block (if any were loaded) and, under -C, constraining
// the derivation to a single root spanning the whole sentence (spec.md §8
// scenario 5's guided-mode example).
func parseOneLine(pc *parseContext, line string, w *bufio.Writer) error {
	sentence, err := symbol.TokenizeLine(line)
	if err != nil {
		return err
	}
	var extPos [][]symbol.ID
	if pc.sentence < len(pc.extPos) {
		extPos = pc.extPos[pc.sentence]
	}
	pc.sentence++

	var constraints []chart.SpanConstraint
	if pc.constrain {
		constraints = []chart.SpanConstraint{
			{Span: span.New(0, sentence.Len()), LHS: pc.parser.Symbols.Root},
		}
	}

	result, err := pc.parser.Parse(sentence, extPos, constraints)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%d\n", len(result))
	for _, st := range result {
		fmt.Fprintf(w, "%g\t%s\n", st.LogProb, st.Tree.Bracketed())
	}
	return nil
}

func runInteractive(pc *parseContext, flags *parseFlags) error {
	rl, err := readline.New("parse> ")
	if err != nil {
		return err
	}
	defer rl.Close()
	pterm.Info.Println("Enter a sentence to parse, quit with <ctrl>D")
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for {
		line, err := rl.Readline()
		if err != nil {
			return nil
		}
		if line == "" {
			continue
		}
		if err := parseOneLine(pc, line, w); err != nil {
			pterm.Error.Printfln("%v", err)
			continue
		}
		w.Flush()
	}
}

func traceLevel(s string) tracing.TraceLevel {
	switch s {
	case "Debug":
		return tracing.LevelDebug
	case "Error":
		return tracing.LevelError
	default:
		return tracing.LevelInfo
	}
}
