// Package inference runs concurrent encodes over a shared, read-only trie.
package inference

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/jamesainslie/go-bytephase/corpus"
	"github.com/jamesainslie/go-bytephase/tokenizer"
)

// ErrSessionClosed indicates use of a session after Close.
var ErrSessionClosed = errors.New("inference: session is closed")

// Mode selects how a text is split before encoding. Both modes produce the
// same ids.
type Mode int

const (
	// ModeTrain draws words lazily from the splitter and keeps memory bounded.
	ModeTrain Mode = iota

	// ModeInference splits the whole text first and presizes the output.
	ModeInference
)

func (m Mode) String() string {
	switch m {
	case ModeTrain:
		return "train"
	case ModeInference:
		return "inference"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode is the inverse of Mode.String.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "train":
		return ModeTrain, nil
	case "inference":
		return ModeInference, nil
	default:
		return 0, fmt.Errorf("inference: unknown mode %q", name)
	}
}

// Session encodes text against a trie it does not own. The trie must outlive
// the session. A session reuses one output buffer and is used by a single
// goroutine at a time.
type Session struct {
	trie     *tokenizer.Trie
	splitter *corpus.Splitter
	buf      []int32
	mu       sync.Mutex
	closed   bool
}

// NewSession creates a session over trie and splitter.
func NewSession(trie *tokenizer.Trie, splitter *corpus.Splitter) (*Session, error) {
	if trie == nil || trie.Released() {
		return nil, tokenizer.ErrTrieReleased
	}
	if splitter == nil {
		return nil, fmt.Errorf("inference: nil splitter")
	}
	return &Session{trie: trie, splitter: splitter}, nil
}

// Encode splits text and greedily encodes every word. The returned slice is
// owned by the caller.
func (s *Session) Encode(ctx context.Context, text string, mode Mode) ([]int32, error) {
	// Check context before taking the buffer
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	var err error
	switch mode {
	case ModeTrain:
		s.buf, err = tokenizer.AppendEncode(s.buf[:0], s.splitter.Words(text), s.trie)
	case ModeInference:
		words := s.splitter.Split(text)
		s.buf = slices.Grow(s.buf[:0], len(text)/2+1)
		s.buf, err = tokenizer.AppendEncode(s.buf, slices.Values(words), s.trie)
	default:
		return nil, fmt.Errorf("inference: unknown mode %v", mode)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding: %w", err)
	}
	return slices.Clone(s.buf), nil
}

// Close drops the session's references. The trie is left untouched.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.trie = nil
	s.splitter = nil
	s.buf = nil
	return nil
}
