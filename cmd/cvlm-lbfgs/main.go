/*
Command cvlm-lbfgs trains C3, the discriminative reranker (spec.md §6:
`cvlm-lbfgs [-l loss] [-c c0] [-p power] [-t tol] [-f featfile] [-o weights]
[-e eval] < train`). It reads a training corpus from stdin (or -train),
optionally cross-validates regularizer strengths against a dev corpus
(-e), and writes a sparse weights file.
*/
package main

import (
	"fmt"
	"os"

	"github.com/bfchart/bfchart/reranker"
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type trainFlags struct {
	lossID      int
	c0          float64
	c00         float64
	power       float64
	tol         float64
	featFile    string
	weightsFile string
	evalFile    string
	nseparators int
	trainFile   string
	perceptron  bool
	epochs      float64
	burnin      float64
	reduce      float64
	optFScore   bool
	maxRounds   int
	traceLevel  string
}

var lossByID = map[int]reranker.Loss{
	0: reranker.LogLoss{},
	1: reranker.EMLogLoss{},
	2: reranker.PairwiseLogLoss{},
	3: reranker.ExpLoss{},
	4: reranker.LogExpLoss{},
	5: reranker.FscoreLoss{},
}

var lossNames = map[int]string{
	0: "log loss", 1: "EM-style log loss", 2: "pairwise log loss",
	3: "exp loss", 4: "log exp loss", 5: "expected F-score loss",
}

func main() {
	gtrace.SyntaxTracer = gologadapter.New()
	flags := &trainFlags{}
	root := &cobra.Command{
		Use:   "cvlm-lbfgs [flags]",
		Short: "Cross-validating regularized reranker trainer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(flags)
		},
	}
	f := root.Flags()
	f.IntVarP(&flags.lossID, "loss", "l", 0, "loss function: 0=log 1=em-log 2=pairwise-log 3=exp 4=log-exp 5=fscore")
	f.Float64VarP(&flags.c0, "c0", "c", 1, "initial regularizer constant")
	f.Float64Var(&flags.c00, "c00", 1, "multiplier on the first feature class's regularizer constant")
	f.Float64VarP(&flags.power, "power", "p", 2, "regularizer power")
	f.Float64VarP(&flags.tol, "tol", "t", 1e-5, "L-BFGS stopping tolerance")
	f.StringVarP(&flags.featFile, "featfile", "f", "", "feature class file")
	f.IntVarP(&flags.nseparators, "nseparators", "n", 1, "max ':' separators used to bin feature classes (-1 keeps whole identifiers: one class per distinct feature name)")
	f.StringVarP(&flags.weightsFile, "out", "o", "", "output weights file (default stdout)")
	f.StringVarP(&flags.evalFile, "eval", "e", "", "dev corpus for cross-validation (defaults to training data)")
	f.StringVar(&flags.trainFile, "train", "", "training corpus (default stdin)")
	f.BoolVar(&flags.perceptron, "perceptron", false, "use the averaged-perceptron inner path instead of L-BFGS")
	f.Float64Var(&flags.epochs, "epochs", 10, "averaged-perceptron training epochs")
	f.Float64Var(&flags.burnin, "burnin", 0, "averaged-perceptron burn-in epochs")
	f.Float64Var(&flags.reduce, "reduce", 0, "averaged-perceptron per-epoch learning-rate reduction")
	f.BoolVar(&flags.optFScore, "opt-fscore", true, "tune regularizer constants against dev 1-Fscore rather than dev neglogP")
	f.IntVar(&flags.maxRounds, "max-rounds", 50, "maximum outer cross-validation rounds")
	f.StringVar(&flags.traceLevel, "trace", "Info", "trace level: Debug|Info|Error")

	if err := root.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func runTrain(flags *trainFlags) error {
	gtrace.SyntaxTracer.SetTraceLevel(parseTraceLevel(flags.traceLevel))

	train, err := loadTrainCorpus(flags)
	if err != nil {
		return fmt.Errorf("loading training corpus: %w", err)
	}
	dev := train
	if flags.evalFile != "" {
		dev, err = reranker.LoadCorpus(flags.evalFile)
		if err != nil {
			return fmt.Errorf("loading eval corpus: %w", err)
		}
	}

	classes := reranker.NewFeatureClasses()
	if flags.featFile != "" {
		classes, err = reranker.LoadFeatureClasses(flags.featFile, flags.nseparators)
		if err != nil {
			return fmt.Errorf("loading feature classes: %w", err)
		}
	}

	var weights []float64
	if flags.perceptron {
		weights = reranker.TrainPerceptron(train, reranker.PerceptronConfig{
			Classes: classes, Burnin: flags.burnin, Epochs: flags.epochs, Reduce: flags.reduce,
		})
		pterm.Info.Printfln("averaged perceptron: trained %d features over %g epochs", len(weights), flags.epochs)
	} else {
		loss, ok := lossByID[flags.lossID]
		if !ok {
			return fmt.Errorf("unrecognized loss id %d", flags.lossID)
		}
		pterm.Info.Printfln("training with %s, c0=%g power=%g", lossNames[flags.lossID], flags.c0, flags.power)
		result, err := reranker.CrossValidate(train, dev, reranker.CVConfig{
			Loss: loss, Classes: classes, Power: flags.power, Scale: 1,
			C0: flags.c0, C00: flags.c00, Tol: flags.tol,
			OptFScore: flags.optFScore, MaxRounds: flags.maxRounds,
		})
		if err != nil {
			return fmt.Errorf("cross-validation: %w", err)
		}
		weights = result.Weights
		pterm.Info.Printfln("cv: %d rounds, dev score=%g, dev f-score=%g", result.Rounds, result.DevScore, result.DevStats.FScore())
	}

	if flags.weightsFile == "" {
		return reranker.WriteWeights(os.Stdout, weights)
	}
	return reranker.WriteWeightsFile(flags.weightsFile, weights)
}

func loadTrainCorpus(flags *trainFlags) (*reranker.Corpus, error) {
	if flags.trainFile != "" {
		return reranker.LoadCorpus(flags.trainFile)
	}
	return reranker.ReadCorpus(os.Stdin)
}

func parseTraceLevel(s string) tracing.TraceLevel {
	switch s {
	case "Debug":
		return tracing.LevelDebug
	case "Error":
		return tracing.LevelError
	default:
		return tracing.LevelInfo
	}
}
