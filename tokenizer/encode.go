package tokenizer

import (
	"iter"
	"slices"
)

// AppendEncode greedily tokenizes every word produced by words and appends the
// ids to dst. At each position the longest vocabulary entry prefixing the rest
// of the word is emitted and the walk resumes right after it.
//
// Both encoding modes are thin wrappers around this function, so they always
// produce identical ids for identical words.
func AppendEncode(dst []int32, words iter.Seq[string], t *Trie) ([]int32, error) {
	if t == nil || t.Released() {
		return dst, ErrTrieReleased
	}
	for w := range words {
		dst = t.appendWord(dst, w)
	}
	return dst, nil
}

// appendWord encodes a single word.
func (t *Trie) appendWord(dst []int32, w string) []int32 {
	for i := 0; i < len(w); {
		id, n := t.longestMatch(w[i:])
		if n == 0 {
			// Only reachable with a vocabulary missing a single-byte entry.
			dst = append(dst, int32(w[i]))
			i++
			continue
		}
		dst = append(dst, id)
		i += n
	}
	return dst
}

// EncodeTrain encodes words drawn one at a time from a lazy sequence. Memory use
// is bounded by the output, independent of how the words are produced.
func EncodeTrain(words iter.Seq[string], t *Trie) ([]int32, error) {
	return AppendEncode(nil, words, t)
}

// EncodeInference encodes a fully materialized list of words. The output is
// sized up front from the input length.
func EncodeInference(words []string, t *Trie) ([]int32, error) {
	total := 0
	for _, w := range words {
		total += len(w)
	}
	return AppendEncode(make([]int32, 0, total/2+1), slices.Values(words), t)
}

// EncodeWord encodes a single word.
func EncodeWord(word string, t *Trie) ([]int32, error) {
	if t == nil || t.Released() {
		return nil, ErrTrieReleased
	}
	return t.appendWord(nil, word), nil
}
