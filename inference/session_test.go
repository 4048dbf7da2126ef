package inference

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/jamesainslie/go-bytephase/tokenizer"
)

func TestNewSession_ReleasedTrie(t *testing.T) {
	trie, _, splitter := testTrie(t)
	trie.Release()

	_, err := NewSession(trie, splitter)
	if !errors.Is(err, tokenizer.ErrTrieReleased) {
		t.Errorf("expected ErrTrieReleased, got: %v", err)
	}
}

func TestNewSession_NilSplitter(t *testing.T) {
	trie, _, _ := testTrie(t)
	if _, err := NewSession(trie, nil); err == nil {
		t.Error("expected error for nil splitter")
	}
}

func TestSession_Encode(t *testing.T) {
	trie, table, splitter := testTrie(t)
	session, err := NewSession(trie, splitter)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	defer func() { _ = session.Close() }()

	ctx := context.Background()
	text := "the cat sat on the mat, twice!"

	lazy, err := session.Encode(ctx, text, ModeTrain)
	if err != nil {
		t.Fatalf("Encode(train) failed: %v", err)
	}
	eager, err := session.Encode(ctx, text, ModeInference)
	if err != nil {
		t.Fatalf("Encode(inference) failed: %v", err)
	}
	if !slices.Equal(lazy, eager) {
		t.Errorf("modes disagree:\ntrain     %v\ninference %v", lazy, eager)
	}
	if len(eager) >= len(text) {
		t.Errorf("expected merges to shorten %d bytes, got %d ids", len(text), len(eager))
	}

	decoded, err := tokenizer.Decode(table, eager)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded != text {
		t.Errorf("round trip = %q, want %q", decoded, text)
	}
}

func TestSession_OutputNotShared(t *testing.T) {
	trie, _, splitter := testTrie(t)
	session, err := NewSession(trie, splitter)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	first, err := session.Encode(context.Background(), "the cat", ModeTrain)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := slices.Clone(first)
	if _, err := session.Encode(context.Background(), "zzzzzzzzzzzz", ModeTrain); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !slices.Equal(first, want) {
		t.Errorf("second Encode overwrote the first result: %v, want %v", first, want)
	}
}

func TestSession_ContextCancelled(t *testing.T) {
	trie, _, splitter := testTrie(t)
	session, err := NewSession(trie, splitter)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := session.Encode(ctx, "the cat", ModeInference); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSession_Close(t *testing.T) {
	trie, _, splitter := testTrie(t)
	session, err := NewSession(trie, splitter)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	if err := session.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if _, err := session.Encode(context.Background(), "x", ModeTrain); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
	if trie.Released() {
		t.Error("closing a session must not release the shared trie")
	}
}

func TestSession_ReleasedTrieAfterCreate(t *testing.T) {
	trie, _, splitter := testTrie(t)
	session, err := NewSession(trie, splitter)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	trie.Release()

	if _, err := session.Encode(context.Background(), "x", ModeTrain); !errors.Is(err, tokenizer.ErrTrieReleased) {
		t.Errorf("expected ErrTrieReleased, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeTrain, ModeInference} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("fast"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
