package bytephase

import "errors"

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrInvalidVocabSize indicates a vocabulary size that cannot hold the byte and special token range.
	ErrInvalidVocabSize = errors.New("bytephase: invalid vocabulary size")

	// ErrNotTrained indicates encoding or decoding before Train or Load.
	ErrNotTrained = errors.New("bytephase: tokenizer has no vocabulary")

	// ErrCorpusNotFound indicates the training file does not exist.
	ErrCorpusNotFound = errors.New("bytephase: corpus file not found")

	// ErrInvalidVocabulary indicates a vocabulary file that exists but cannot be used.
	ErrInvalidVocabulary = errors.New("bytephase: invalid vocabulary")

	// ErrClosed indicates use of a tokenizer after Close.
	ErrClosed = errors.New("bytephase: tokenizer is closed")
)
