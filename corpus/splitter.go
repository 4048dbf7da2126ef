// Package corpus splits text into pretokenized words and counts word
// frequencies across large inputs read in fixed-size chunks.
package corpus

import (
	"errors"
	"fmt"
	"iter"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// GPT2Pattern is the default pretokenizer: contractions, letter runs, digit
// runs, punctuation runs and whitespace, each optionally led by one space.
const GPT2Pattern = `'(?:[sdmt]|ll|ve|re)| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`

// ErrInvalidPattern indicates a pattern regexp2 cannot compile.
var ErrInvalidPattern = errors.New("corpus: invalid pattern")

// Splitter cuts text into words with a compiled pattern. It is safe for
// concurrent use.
type Splitter struct {
	pattern string
	re      *regexp2.Regexp
}

// NewSplitter compiles pattern. An empty pattern selects GPT2Pattern.
func NewSplitter(pattern string) (*Splitter, error) {
	if pattern == "" {
		pattern = GPT2Pattern
	}
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
	}
	return &Splitter{pattern: pattern, re: re}, nil
}

// MustSplitter is like NewSplitter but panics on a bad pattern.
func MustSplitter(pattern string) *Splitter {
	s, err := NewSplitter(pattern)
	if err != nil {
		panic(err)
	}
	return s
}

// Pattern returns the source of the compiled pattern.
func (s *Splitter) Pattern() string { return s.pattern }

// scan calls fn with each match and its byte offset in text, in order, until
// fn returns false. Matches are sliced from text itself so invalid bytes are
// passed through untouched.
func (s *Splitter) scan(text string, fn func(word string, start int) bool) error {
	m, err := s.re.FindStringMatch(text)
	runePos, bytePos := 0, 0
	advance := func(to int) {
		for runePos < to && bytePos < len(text) {
			_, size := utf8.DecodeRuneInString(text[bytePos:])
			bytePos += size
			runePos++
		}
	}
	for m != nil && err == nil {
		advance(m.Index)
		start := bytePos
		advance(m.Index + m.Length)
		if m.Length > 0 && !fn(text[start:bytePos], start) {
			return nil
		}
		m, err = s.re.FindNextMatch(m)
	}
	if err != nil {
		return fmt.Errorf("corpus: matching: %w", err)
	}
	return nil
}

// Words lazily yields the words of text.
func (s *Splitter) Words(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		// scan only fails on a match timeout and none is set.
		_ = s.scan(text, func(word string, _ int) bool {
			return yield(word)
		})
	}
}

// Split returns every word of text.
func (s *Splitter) Split(text string) []string {
	var words []string
	// scan only fails on a match timeout and none is set.
	_ = s.scan(text, func(word string, _ int) bool {
		words = append(words, word)
		return true
	})
	return words
}
