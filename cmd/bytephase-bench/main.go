package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-bytephase"
	"github.com/jamesainslie/go-bytephase/internal/bench"
	"github.com/jamesainslie/go-bytephase/internal/envconfig"
	"github.com/jamesainslie/go-bytephase/internal/logutil"
	"github.com/jamesainslie/go-bytephase/tokenizer"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cobra.CheckErr(newCommand().ExecuteContext(context.Background()))
}

func newCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bytephase-bench",
		Short: "Measure vocabulary compression on a document corpus",
		Long: `Evaluates a saved vocabulary on every document of the corpus, or with
--sweep trains one vocabulary per size on the training split and ranks
them by bytes per token on the evaluation split.`,
		Version:      fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         run,
	}
	cmd.Flags().String("corpus", "testdata/gutenberg", "Directory containing document files")
	cmd.Flags().String("vocab", "", "Vocabulary file to evaluate")
	cmd.Flags().Bool("sweep", false, "Run a vocabulary size sweep")
	cmd.Flags().Int("sweep-min", 512, "Sweep minimum vocabulary size")
	cmd.Flags().Int("sweep-max", 4096, "Sweep maximum vocabulary size (exclusive)")
	cmd.Flags().Int("sweep-step", 512, "Sweep step size")
	cmd.Flags().Int("holdout", 5, "Every n-th document is held out for evaluation (1 uses all for both)")
	cmd.Flags().String("scheme", tokenizer.SchemeEOT.String(), "Special token scheme for sweep training")
	cmd.Flags().String("pattern", envconfig.Pattern, "Pretokenizer regular expression for sweep training")
	cmd.Flags().CountP("verbose", "v", "Increase log verbosity")
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	corpusDir, err := flags.GetString("corpus")
	if err != nil {
		return err
	}
	vocabPath, err := flags.GetString("vocab")
	if err != nil {
		return err
	}
	sweep, err := flags.GetBool("sweep")
	if err != nil {
		return err
	}
	verbosity, err := flags.GetCount("verbose")
	if err != nil {
		return err
	}

	if vocabPath == "" && !sweep {
		return errors.New("--vocab or --sweep required")
	}

	docs, err := bench.LoadCorpus(corpusDir)
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents in %s", corpusDir)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Loaded %d documents from %s\n\n", len(docs), corpusDir)

	logger := logutil.NewLogger(cmd.ErrOrStderr(), logutil.Level(verbosity))

	if sweep {
		return runSweep(cmd, docs, logger)
	}
	return runSingle(cmd, docs, vocabPath, logger)
}

func runSingle(cmd *cobra.Command, docs []*bench.Document, vocabPath string, logger *slog.Logger) error {
	tok, err := bytephase.New(bytephase.WithLogger(logger), bytephase.WithPoolSize(envconfig.PoolSize))
	if err != nil {
		return err
	}
	defer func() { _ = tok.Close() }()

	if err := tok.Load(vocabPath); err != nil {
		return err
	}

	m, err := bench.Evaluate(tok, docs)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d symbols, %s)\n", vocabPath, tok.VocabSize(), tok.Scheme())
	bench.WriteMetrics(cmd.OutOrStdout(), m)
	return nil
}

func runSweep(cmd *cobra.Command, docs []*bench.Document, logger *slog.Logger) error {
	flags := cmd.Flags()
	lo, err := flags.GetInt("sweep-min")
	if err != nil {
		return err
	}
	hi, err := flags.GetInt("sweep-max")
	if err != nil {
		return err
	}
	step, err := flags.GetInt("sweep-step")
	if err != nil {
		return err
	}
	holdout, err := flags.GetInt("holdout")
	if err != nil {
		return err
	}
	schemeName, err := flags.GetString("scheme")
	if err != nil {
		return err
	}
	pattern, err := flags.GetString("pattern")
	if err != nil {
		return err
	}

	scheme, err := tokenizer.ParseScheme(schemeName)
	if err != nil {
		return err
	}
	sizes := bench.SweepVocabSizes(lo, hi, step)
	if len(sizes) == 0 {
		return fmt.Errorf("empty sweep range [%d, %d) step %d", lo, hi, step)
	}

	train, eval := bench.Split(docs, holdout)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Vocabulary Sweep (%d train, %d eval documents)\n", len(train), len(eval))

	results, err := bench.Sweep(cmd.Context(), train, eval, sizes,
		bytephase.WithLogger(logger),
		bytephase.WithScheme(scheme),
		bytephase.WithPattern(pattern),
		bytephase.WithPoolSize(envconfig.PoolSize),
	)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	bench.WriteSweep(out, results)
	best := results[0]
	fmt.Fprintf(out, "\nBest: %d (%.3f bytes/token)\n", best.VocabSize, best.Metrics.BytesPerToken)
	return nil
}
