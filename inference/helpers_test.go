package inference

import (
	"testing"

	"github.com/jamesainslie/go-bytephase/corpus"
	"github.com/jamesainslie/go-bytephase/tokenizer"
)

// testTrie trains a small vocabulary and returns its trie and table.
func testTrie(t *testing.T) (*tokenizer.Trie, *tokenizer.SymbolTable, *corpus.Splitter) {
	t.Helper()
	splitter := corpus.MustSplitter("")
	freqs := make(map[string]int64)
	for _, w := range splitter.Split("the cat sat on the mat and the hat sat on the cat") {
		freqs[w]++
	}
	table := tokenizer.NewSymbolTable(tokenizer.SchemeEOT)
	if _, err := tokenizer.Train(table, freqs, 20, nil); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	trie, err := tokenizer.BuildTrie(table)
	if err != nil {
		t.Fatalf("BuildTrie() error = %v", err)
	}
	t.Cleanup(trie.Release)
	return trie, table, splitter
}
