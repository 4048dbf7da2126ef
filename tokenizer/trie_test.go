package tokenizer

import (
	"errors"
	"strings"
	"testing"
)

func greedyTable() (*SymbolTable, int32, int32) {
	table := NewSymbolTable(SchemeEOT)
	ab := table.Append([]byte("ab"))
	abc := table.Append([]byte("abc"))
	return table, ab, abc
}

func TestBuildTrie(t *testing.T) {
	table, ab, abc := greedyTable()
	trie, err := BuildTrie(table)
	if err != nil {
		t.Fatalf("BuildTrie() error = %v", err)
	}
	defer trie.Release()

	if trie.Len() != table.Len() {
		t.Errorf("Len() = %d, want %d", trie.Len(), table.Len())
	}

	tests := []struct {
		seq    string
		wantID int32
		wantOK bool
	}{
		{"a", 'a', true},
		{"ab", ab, true},
		{"abc", abc, true},
		{"abcd", noID, false},
		{EndOfText, EndOfTextID, true},
		{"<|endof", noID, false},
		{"", noID, false},
	}
	for _, tt := range tests {
		id, ok := trie.Lookup([]byte(tt.seq))
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("Lookup(%q) = %d, %v; want %d, %v", tt.seq, id, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestBuildTrie_DuplicateSequence(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SymbolTable)
	}{
		{"duplicate merge", func(s *SymbolTable) {
			s.Append([]byte("ab"))
			s.Append([]byte("ab"))
		}},
		{"merge equal to a byte", func(s *SymbolTable) {
			s.Set(300, []byte{'q'})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := NewSymbolTable(SchemeEOT)
			tt.mutate(table)
			_, err := BuildTrie(table)
			if !errors.Is(err, ErrDuplicateSequence) {
				t.Fatalf("BuildTrie() error = %v, want ErrDuplicateSequence", err)
			}
		})
	}
}

func TestBuildTrie_DuplicateNamesBothIDs(t *testing.T) {
	table := NewSymbolTable(SchemeEOT)
	table.Append([]byte("xy"))
	table.Append([]byte("xy"))
	_, err := BuildTrie(table)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "257") || !strings.Contains(err.Error(), "258") {
		t.Errorf("error %q should name ids 257 and 258", err)
	}
}

func TestBuildTrie_EmptySequence(t *testing.T) {
	table := NewSymbolTable(SchemeEOT)
	table.Set(270, []byte{})
	if _, err := BuildTrie(table); !errors.Is(err, ErrEmptySequence) {
		t.Errorf("BuildTrie() error = %v, want ErrEmptySequence", err)
	}
}

func TestTrie_WideFanOut(t *testing.T) {
	table := NewSymbolTable(SchemeEOT)
	for b := 'a'; b <= 'z'; b++ {
		table.Append([]byte{'x', byte(b)})
	}
	trie, err := BuildTrie(table)
	if err != nil {
		t.Fatalf("BuildTrie() error = %v", err)
	}
	for b := 'a'; b <= 'z'; b++ {
		id, ok := trie.Lookup([]byte{'x', byte(b)})
		if !ok || id != 257+int32(b-'a') {
			t.Errorf("Lookup(x%c) = %d, %v", b, id, ok)
		}
	}
}

func TestTrie_Release(t *testing.T) {
	table, _, _ := greedyTable()
	trie, err := BuildTrie(table)
	if err != nil {
		t.Fatalf("BuildTrie() error = %v", err)
	}

	trie.Release()
	trie.Release() // idempotent

	if !trie.Released() {
		t.Error("Released() = false after Release")
	}
	if trie.Len() != 0 {
		t.Errorf("Len() after release = %d, want 0", trie.Len())
	}
	if _, ok := trie.Lookup([]byte("ab")); ok {
		t.Error("Lookup succeeded on a released trie")
	}
	if _, err := EncodeInference([]string{"abc"}, trie); !errors.Is(err, ErrTrieReleased) {
		t.Errorf("EncodeInference() error = %v, want ErrTrieReleased", err)
	}

	var nilTrie *Trie
	nilTrie.Release()
}
