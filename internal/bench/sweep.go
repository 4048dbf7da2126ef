package bench

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/jamesainslie/go-bytephase"
)

// SweepResult holds metrics for one vocabulary size.
type SweepResult struct {
	VocabSize int // requested
	Actual    int // reached; smaller when training stopped early
	TrainTime time.Duration
	Metrics   Metrics
}

// SweepVocabSizes generates vocabulary sizes from min up to but excluding max.
func SweepVocabSizes(min, max, step int) []int {
	if step <= 0 {
		return nil
	}
	var sizes []int
	for n := min; n < max; n += step {
		sizes = append(sizes, n)
	}
	return sizes
}

// Sweep trains one tokenizer per size on train, evaluates it on eval and
// returns results sorted by bytes per token, best compression first.
func Sweep(ctx context.Context, train, eval []*Document, sizes []int, opts ...bytephase.Option) ([]SweepResult, error) {
	text := Concat(train)
	var results []SweepResult

	for _, size := range sizes {
		tok, err := bytephase.New(opts...)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		if err := tok.TrainReader(ctx, strings.NewReader(text), size); err != nil {
			_ = tok.Close()
			return nil, fmt.Errorf("vocab %d: %w", size, err)
		}
		trainTime := time.Since(start)

		m, err := Evaluate(tok, eval)
		actual := tok.VocabSize()
		_ = tok.Close()
		if err != nil {
			return nil, fmt.Errorf("vocab %d: %w", size, err)
		}

		results = append(results, SweepResult{
			VocabSize: size,
			Actual:    actual,
			TrainTime: trainTime,
			Metrics:   m,
		})
	}

	// Sort by compression descending
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Metrics.BytesPerToken > results[j].Metrics.BytesPerToken
	})

	return results, nil
}

// WriteMetrics renders a single evaluation as a two-column table.
func WriteMetrics(w io.Writer, m Metrics) {
	table := newTable(w)
	table.SetHeader([]string{"METRIC", "VALUE"})
	table.AppendBulk([][]string{
		{"documents", strconv.Itoa(m.Documents)},
		{"bytes", strconv.Itoa(m.Bytes)},
		{"words", strconv.Itoa(m.Words)},
		{"tokens", strconv.Itoa(m.Tokens)},
		{"bytes/token", strconv.FormatFloat(m.BytesPerToken, 'f', 3, 64)},
		{"tokens/word", strconv.FormatFloat(m.TokensPerWord, 'f', 3, 64)},
		{"round trip failures", strconv.Itoa(m.RoundTripFailed)},
		{"encode (train)", m.TrainEncode.Round(time.Microsecond).String()},
		{"encode (inference)", m.InferenceEncode.Round(time.Microsecond).String()},
	})
	table.Render()
}

// WriteSweep renders sweep results, one row per vocabulary size.
func WriteSweep(w io.Writer, results []SweepResult) {
	table := newTable(w)
	table.SetHeader([]string{"VOCAB", "ACTUAL", "BYTES/TOKEN", "TOKENS/WORD", "TRAIN", "ENCODE"})
	for _, r := range results {
		table.Append([]string{
			strconv.Itoa(r.VocabSize),
			strconv.Itoa(r.Actual),
			strconv.FormatFloat(r.Metrics.BytesPerToken, 'f', 3, 64),
			strconv.FormatFloat(r.Metrics.TokensPerWord, 'f', 3, 64),
			r.TrainTime.Round(time.Millisecond).String(),
			r.Metrics.InferenceEncode.Round(time.Microsecond).String(),
		})
	}
	table.Render()
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}
