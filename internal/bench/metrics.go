package bench

import (
	"fmt"
	"time"

	"github.com/jamesainslie/go-bytephase"
	"github.com/jamesainslie/go-bytephase/corpus"
)

// Encoder is the part of a tokenizer the benchmarks exercise.
type Encoder interface {
	Encode(text string, mode bytephase.Mode) ([]int32, error)
	Decode(ids []int32) (string, error)
	Pattern() string
}

// Metrics holds compression results over one or more documents.
type Metrics struct {
	Documents       int
	Bytes           int
	Words           int
	Tokens          int
	BytesPerToken   float64
	TokensPerWord   float64
	RoundTripFailed int // documents whose decoded text differed from the input
	TrainEncode     time.Duration
	InferenceEncode time.Duration
}

// Add accumulates o into m and recomputes the ratios.
func (m *Metrics) Add(o Metrics) {
	m.Documents += o.Documents
	m.Bytes += o.Bytes
	m.Words += o.Words
	m.Tokens += o.Tokens
	m.RoundTripFailed += o.RoundTripFailed
	m.TrainEncode += o.TrainEncode
	m.InferenceEncode += o.InferenceEncode
	m.finish()
}

func (m *Metrics) finish() {
	m.BytesPerToken, m.TokensPerWord = 0, 0
	if m.Tokens > 0 {
		m.BytesPerToken = float64(m.Bytes) / float64(m.Tokens)
	}
	if m.Words > 0 {
		m.TokensPerWord = float64(m.Tokens) / float64(m.Words)
	}
}

// EvaluateDocument encodes doc in both modes, checks that they agree and that
// decoding restores the text.
func EvaluateDocument(tok Encoder, splitter *corpus.Splitter, doc *Document) (Metrics, error) {
	start := time.Now()
	lazy, err := tok.Encode(doc.Text, bytephase.ModeTrain)
	if err != nil {
		return Metrics{}, fmt.Errorf("%s: encode: %w", doc.ID, err)
	}
	trainDur := time.Since(start)

	start = time.Now()
	eager, err := tok.Encode(doc.Text, bytephase.ModeInference)
	if err != nil {
		return Metrics{}, fmt.Errorf("%s: encode: %w", doc.ID, err)
	}
	inferDur := time.Since(start)

	if len(lazy) != len(eager) {
		return Metrics{}, fmt.Errorf("%s: modes disagree: %d vs %d tokens", doc.ID, len(lazy), len(eager))
	}
	for i := range lazy {
		if lazy[i] != eager[i] {
			return Metrics{}, fmt.Errorf("%s: modes disagree at token %d", doc.ID, i)
		}
	}

	decoded, err := tok.Decode(eager)
	if err != nil {
		return Metrics{}, fmt.Errorf("%s: decode: %w", doc.ID, err)
	}

	m := Metrics{
		Documents:       1,
		Bytes:           len(doc.Text),
		Words:           len(splitter.Split(doc.Text)),
		Tokens:          len(eager),
		TrainEncode:     trainDur,
		InferenceEncode: inferDur,
	}
	if decoded != doc.Text {
		m.RoundTripFailed = 1
	}
	m.finish()
	return m, nil
}

// Evaluate aggregates EvaluateDocument over docs.
func Evaluate(tok Encoder, docs []*Document) (Metrics, error) {
	splitter, err := corpus.NewSplitter(tok.Pattern())
	if err != nil {
		return Metrics{}, err
	}
	var total Metrics
	for _, doc := range docs {
		m, err := EvaluateDocument(tok, splitter, doc)
		if err != nil {
			return Metrics{}, err
		}
		total.Add(m)
	}
	return total, nil
}
