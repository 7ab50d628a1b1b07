/*
Package bfchart is a statistical constituency parser: a best-first chart
parser over a smoothed conditional rule-probability model, plus a
discriminative reranker trainer for its N-best output. Package structure
is as follows:

■ span: shared half-open token-range geometry.

■ symbol: the closed terminal/nonterminal inventory, words and sentences,
and the tokenizer that turns input lines into them.

■ lexicon: the vocabulary loader and unknown-word back-off the parser
consults before querying the model.

■ config: process-wide parser configuration and the per-thread slot pool.

■ model: the smoothed back-off trie and its probability queries (C2).

■ chart: the best-first chart parser and its N-best extractor (C1).

■ reranker: the discriminative reranker's corpus format, loss functions,
cross-validated trainer and averaged perceptron (C3).

■ cmd/parse, cmd/cvlm-lbfgs: the two command-line entry points.

*/
package bfchart
