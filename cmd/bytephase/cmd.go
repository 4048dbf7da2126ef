package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jamesainslie/go-bytephase"
	"github.com/jamesainslie/go-bytephase/internal/envconfig"
	"github.com/jamesainslie/go-bytephase/internal/logutil"
	"github.com/jamesainslie/go-bytephase/tokenizer"
	"github.com/jamesainslie/go-bytephase/vocabfile"
)

const defaultVocabSize = 4096

var errNoInput = errors.New("no input: pass it as arguments or pipe it on stdin")

// NewCLI builds the bytephase command tree.
func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "bytephase",
		Short:   "Train and apply byte-level BPE vocabularies",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
		},
	}
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")

	trainCmd := &cobra.Command{
		Use:   "train CORPUS",
		Short: "Train a vocabulary from a text file",
		Args:  cobra.ExactArgs(1),
		RunE:  TrainHandler,
	}
	trainCmd.Flags().IntP("vocab", "n", defaultVocabSize, "Target vocabulary size")
	trainCmd.Flags().String("scheme", tokenizer.SchemeEOT.String(), "Special token scheme (eot, eot+pad)")
	trainCmd.Flags().String("pattern", envconfig.Pattern, "Pretokenizer regular expression (default GPT-2)")
	trainCmd.Flags().Int("read-buffer", envconfig.ReadBuffer, "Corpus read chunk size in bytes")
	trainCmd.Flags().StringP("out", "o", "vocab.bpe", "Output file; the extension selects the format")
	trainCmd.Flags().Bool("debug-vocab", envconfig.Debug, "Also write a human-readable _debug.bpe listing")
	appendEnvDocs(trainCmd, "BYTEPHASE_PATTERN", "BYTEPHASE_READ_BUFFER", "BYTEPHASE_DEBUG")

	encodeCmd := &cobra.Command{
		Use:   "encode VOCAB [TEXT...]",
		Short: "Encode text into token ids",
		Args:  cobra.MinimumNArgs(1),
		RunE:  EncodeHandler,
	}
	encodeCmd.Flags().String("mode", bytephase.ModeInference.String(), "Encoding mode (train, inference)")
	appendEnvDocs(encodeCmd, "BYTEPHASE_POOL_SIZE")

	decodeCmd := &cobra.Command{
		Use:   "decode VOCAB [ID...]",
		Short: "Decode token ids into text",
		Args:  cobra.MinimumNArgs(1),
		RunE:  DecodeHandler,
	}

	infoCmd := &cobra.Command{
		Use:   "info VOCAB",
		Short: "Show details of a vocabulary file",
		Args:  cobra.ExactArgs(1),
		RunE:  InfoHandler,
	}

	rootCmd.AddCommand(trainCmd, encodeCmd, decodeCmd, infoCmd)
	return rootCmd
}

func appendEnvDocs(cmd *cobra.Command, names ...string) {
	vars := envconfig.AsMap()
	var sb strings.Builder
	sb.WriteString("\nEnvironment Variables:\n")
	for _, name := range names {
		if v, ok := vars[name]; ok {
			fmt.Fprintf(&sb, "      %-24s %s\n", v.Name, v.Description)
		}
	}
	cmd.SetUsageTemplate(cmd.UsageTemplate() + sb.String())
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if envconfig.Debug && verbosity == 0 {
		verbosity = 1
	}
	return logutil.NewLogger(cmd.ErrOrStderr(), logutil.Level(verbosity))
}

func loadTokenizer(cmd *cobra.Command, path string) (*bytephase.Tokenizer, error) {
	tok, err := bytephase.New(
		bytephase.WithLogger(newLogger(cmd)),
		bytephase.WithPoolSize(envconfig.PoolSize),
	)
	if err != nil {
		return nil, err
	}
	if err := tok.Load(path); err != nil {
		_ = tok.Close()
		return nil, err
	}
	return tok, nil
}

// readInput joins args, or reads stdin when no args are given and stdin is
// not a terminal.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", errNoInput
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func debugPath(out string) string {
	return strings.TrimSuffix(out, filepath.Ext(out)) + "_debug.bpe"
}

func TrainHandler(cmd *cobra.Command, args []string) error {
	vocabSize, err := cmd.Flags().GetInt("vocab")
	if err != nil {
		return err
	}
	schemeName, err := cmd.Flags().GetString("scheme")
	if err != nil {
		return err
	}
	scheme, err := tokenizer.ParseScheme(schemeName)
	if err != nil {
		return err
	}
	pattern, err := cmd.Flags().GetString("pattern")
	if err != nil {
		return err
	}
	readBuffer, err := cmd.Flags().GetInt("read-buffer")
	if err != nil {
		return err
	}
	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	debugVocab, err := cmd.Flags().GetBool("debug-vocab")
	if err != nil {
		return err
	}
	if _, err := vocabfile.FormatFor(out); err != nil {
		return err
	}

	tok, err := bytephase.New(
		bytephase.WithLogger(newLogger(cmd)),
		bytephase.WithScheme(scheme),
		bytephase.WithPattern(pattern),
		bytephase.WithReadBuffer(readBuffer),
		bytephase.WithPoolSize(1),
	)
	if err != nil {
		return err
	}
	defer func() { _ = tok.Close() }()

	start := time.Now()
	if err := tok.Train(cmd.Context(), args[0], vocabSize); err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := tok.Save(out); err != nil {
		return err
	}
	if debugVocab {
		if err := tok.SaveDebug(debugPath(out)); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "trained %d symbols (%d merges) in %s, wrote %s\n",
		tok.VocabSize(), len(tok.Merges()), elapsed.Round(time.Millisecond), out)
	return nil
}

func EncodeHandler(cmd *cobra.Command, args []string) error {
	modeName, err := cmd.Flags().GetString("mode")
	if err != nil {
		return err
	}
	mode, err := bytephase.ParseMode(modeName)
	if err != nil {
		return err
	}

	text, err := readInput(cmd, args[1:])
	if err != nil {
		return err
	}

	tok, err := loadTokenizer(cmd, args[0])
	if err != nil {
		return err
	}
	defer func() { _ = tok.Close() }()

	ids, err := tok.Encode(text, mode)
	if err != nil {
		return err
	}

	fields := make([]string, len(ids))
	for i, id := range ids {
		fields[i] = strconv.FormatInt(int64(id), 10)
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(fields, " "))
	return nil
}

func DecodeHandler(cmd *cobra.Command, args []string) error {
	input, err := readInput(cmd, args[1:])
	if err != nil {
		return err
	}

	fields := strings.Fields(input)
	if len(fields) == 0 {
		return errNoInput
	}
	ids := make([]int32, len(fields))
	for i, f := range fields {
		id, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid token id %q", f)
		}
		ids[i] = int32(id)
	}

	tok, err := loadTokenizer(cmd, args[0])
	if err != nil {
		return err
	}
	defer func() { _ = tok.Close() }()

	text, err := tok.Decode(ids)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func InfoHandler(cmd *cobra.Command, args []string) error {
	path := args[0]
	format, err := vocabfile.FormatFor(path)
	if err != nil {
		return err
	}
	v, err := vocabfile.Load(path)
	if err != nil {
		return err
	}

	merges := v.Table.Len() - int(v.Scheme.FirstMergeID())
	longestID, longest := int32(-1), []byte(nil)
	for _, id := range v.Table.IDs() {
		if id < v.Scheme.FirstMergeID() {
			continue
		}
		if seq, _ := v.Table.Bytes(id); len(seq) > len(longest) {
			longestID, longest = id, seq
		}
	}

	specials := make([]string, 0, v.Scheme.Reserved())
	for _, s := range v.Scheme.Specials() {
		specials = append(specials, fmt.Sprintf("%d %s", s.ID, s.Text))
	}

	rows := [][]string{
		{"file", path},
		{"format", format.String()},
		{"version", v.Version},
		{"scheme", v.Scheme.String()},
		{"pattern", v.Pattern},
		{"vocab size", strconv.Itoa(v.Table.Len())},
		{"merges", strconv.Itoa(max(merges, 0))},
		{"specials", strings.Join(specials, ", ")},
	}
	if longestID >= 0 {
		text, err := tokenizer.Decode(v.Table, []int32{longestID})
		if err != nil {
			return err
		}
		rows = append(rows, []string{"longest token", fmt.Sprintf("%d %q (%d bytes)", longestID, text, len(longest))})
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(rows)
	table.Render()
	return nil
}
