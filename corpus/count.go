package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// DefaultBufferSize is the chunk size used when CountWords is given a
// non-positive size.
const DefaultBufferSize = 2 << 20

// holdBack is how far before the end of a chunk a match must start to be
// held back and matched again with the next chunk.
const holdBack = 4 * utf8.UTFMax

// CountWords reads r in chunks of bufSize bytes and counts how often each word
// occurs. Invalid UTF-8 is dropped. A multibyte character split by a read is
// completed from the next chunk. Every match starting within holdBack bytes of
// the chunk end, and always the last match, is matched again together with the
// text that follows, so chunking does not change the result for patterns whose
// matches depend on at most holdBack bytes of the following text. Text after the
// last counted match, including a chunk without any match, is carried over whole.
func CountWords(ctx context.Context, r io.Reader, s *Splitter, bufSize int) (map[string]int64, error) {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}

	counts := make(map[string]int64)
	buf := make([]byte, bufSize)
	var tail []byte
	carry := ""

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := io.ReadFull(r, buf)
		eof := errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
		if err != nil && !eof {
			return nil, fmt.Errorf("corpus: reading: %w", err)
		}

		chunk := append(tail, buf[:n]...)
		tail = nil
		if !eof {
			chunk, tail = cutIncomplete(chunk)
		}
		text := carry + dropInvalid(chunk)

		if eof {
			if err := countAll(text, s, counts); err != nil {
				return nil, err
			}
			return counts, nil
		}

		boundary := len(text) - holdBack
		cut := 0
		prevWord, prevStart := "", -1
		if err := s.scan(text, func(word string, start int) bool {
			if prevStart >= 0 {
				if prevStart >= boundary {
					return false
				}
				add(counts, prevWord)
				cut = prevStart + len(prevWord)
			}
			prevWord, prevStart = word, start
			return true
		}); err != nil {
			return nil, err
		}
		carry = strings.Clone(text[cut:])
	}
}

// CountFile counts the words of the file at path.
func CountFile(ctx context.Context, path string, s *Splitter, bufSize int) (map[string]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return CountWords(ctx, f, s, bufSize)
}

func countAll(text string, s *Splitter, counts map[string]int64) error {
	return s.scan(text, func(word string, _ int) bool {
		add(counts, word)
		return true
	})
}

// add counts word, copying it on first sight so the map does not pin chunk text.
func add(counts map[string]int64, word string) {
	if _, ok := counts[word]; ok {
		counts[word]++
		return
	}
	counts[strings.Clone(word)] = 1
}

// cutIncomplete splits off a trailing partial UTF-8 sequence.
func cutIncomplete(b []byte) ([]byte, []byte) {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax+1; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if !utf8.FullRune(b[i:]) {
			return b[:i], append([]byte(nil), b[i:]...)
		}
		break
	}
	return b, nil
}

// dropInvalid returns b as a string with every invalid UTF-8 byte removed.
func dropInvalid(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r != utf8.RuneError || size > 1 {
			sb.Write(b[:size])
		}
		b = b[size:]
	}
	return sb.String()
}
