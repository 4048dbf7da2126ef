package bench

import (
	"errors"
	"testing"

	"github.com/jamesainslie/go-bytephase"
	"github.com/jamesainslie/go-bytephase/corpus"
	"github.com/jamesainslie/go-bytephase/internal/logutil"
)

const sample = `It is a truth universally acknowledged, that a single man in possession
of a good fortune, must be in want of a wife. However little known the
feelings or views of such a man may be on his first entering a
neighbourhood, this truth is so well fixed in the minds of the
surrounding families, that he is considered the rightful property of
some one or other of their daughters.`

func trained(t *testing.T, vocabSize int) *bytephase.Tokenizer {
	t.Helper()
	tok, err := bytephase.New(bytephase.WithLogger(logutil.Discard()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = tok.Close() })

	freqs := map[string]int64{}
	for _, w := range corpus.MustSplitter("").Split(sample) {
		freqs[w]++
	}
	if err := tok.TrainCounts(freqs, vocabSize); err != nil {
		t.Fatalf("TrainCounts() error = %v", err)
	}
	return tok
}

func TestEvaluate(t *testing.T) {
	tok := trained(t, 320)
	docs := []*Document{
		{ID: "a", Text: sample},
		{ID: "b", Text: "a single man of good fortune"},
	}

	m, err := Evaluate(tok, docs)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if m.Documents != 2 {
		t.Errorf("Documents = %d, want 2", m.Documents)
	}
	if m.Bytes != len(sample)+len(docs[1].Text) {
		t.Errorf("Bytes = %d", m.Bytes)
	}
	if m.RoundTripFailed != 0 {
		t.Errorf("RoundTripFailed = %d, want 0", m.RoundTripFailed)
	}
	if m.Tokens == 0 || m.Tokens >= m.Bytes {
		t.Errorf("Tokens = %d for %d bytes, want compression", m.Tokens, m.Bytes)
	}
	if m.BytesPerToken <= 1 {
		t.Errorf("BytesPerToken = %v, want > 1", m.BytesPerToken)
	}
	if m.Words == 0 || m.TokensPerWord <= 0 {
		t.Errorf("Words = %d, TokensPerWord = %v", m.Words, m.TokensPerWord)
	}
}

func TestEvaluate_Untrained(t *testing.T) {
	tok, err := bytephase.New()
	if err != nil {
		t.Fatal(err)
	}
	defer tok.Close()

	_, err = Evaluate(tok, []*Document{{ID: "x", Text: "hello"}})
	if !errors.Is(err, bytephase.ErrNotTrained) {
		t.Errorf("Evaluate() error = %v, want ErrNotTrained", err)
	}
}

func TestMetrics_Add(t *testing.T) {
	var m Metrics
	m.Add(Metrics{Documents: 1, Bytes: 10, Words: 2, Tokens: 5})
	m.Add(Metrics{Documents: 1, Bytes: 20, Words: 3, Tokens: 5, RoundTripFailed: 1})

	if m.Documents != 2 || m.Bytes != 30 || m.Tokens != 10 || m.RoundTripFailed != 1 {
		t.Errorf("Add() = %+v", m)
	}
	if m.BytesPerToken != 3 {
		t.Errorf("BytesPerToken = %v, want 3", m.BytesPerToken)
	}
	if m.TokensPerWord != 2 {
		t.Errorf("TokensPerWord = %v, want 2", m.TokensPerWord)
	}
}

func TestMetrics_AddEmpty(t *testing.T) {
	var m Metrics
	m.Add(Metrics{})
	if m.BytesPerToken != 0 || m.TokensPerWord != 0 {
		t.Errorf("ratios on empty metrics = %v, %v; want 0, 0", m.BytesPerToken, m.TokensPerWord)
	}
}
