// Package tokenizer implements byte-level BPE training and greedy trie encoding.
//
// The package is split along the data flow of a vocabulary:
//
//	word frequencies -> Train (pair counting + merging) -> SymbolTable
//	SymbolTable -> BuildTrie -> Trie -> EncodeTrain / EncodeInference
//	SymbolTable -> Decode
//
// Word chunking and file reading live in the corpus package.
package tokenizer

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrUnknownID indicates a token id that is not present in the symbol table.
	ErrUnknownID = errors.New("tokenizer: unknown token id")

	// ErrDuplicateSequence indicates two ids share the same byte sequence.
	ErrDuplicateSequence = errors.New("tokenizer: duplicate byte sequence")

	// ErrEmptySequence indicates an id mapped to an empty byte sequence.
	ErrEmptySequence = errors.New("tokenizer: empty byte sequence")

	// ErrInvalidTable indicates a symbol table violating the byte or special token layout.
	ErrInvalidTable = errors.New("tokenizer: invalid symbol table")

	// ErrTrieReleased indicates use of a trie after Release.
	ErrTrieReleased = errors.New("tokenizer: trie released")

	// ErrInvalidMergeCount indicates a negative number of requested merges.
	ErrInvalidMergeCount = errors.New("tokenizer: invalid merge count")
)

// NumBytes is the number of single-byte symbols. Ids 0-255 always map to their own byte.
const NumBytes = 256

const (
	// EndOfTextID is the id of the end-of-text special token in every scheme.
	EndOfTextID int32 = 256

	// PadID is the id of the pad special token in SchemeEOTPad.
	PadID int32 = 257

	// EndOfText is the byte content of the end-of-text token.
	EndOfText = "<|endoftext|>"

	// Pad is the byte content of the pad token.
	Pad = "<|pad|>"
)

// SpecialToken is a reserved id with fixed content.
type SpecialToken struct {
	ID   int32
	Text string
}

// Scheme selects which special tokens occupy the ids right after the byte range.
type Scheme int

const (
	// SchemeEOT reserves id 256 for end-of-text. Merges start at 257.
	SchemeEOT Scheme = iota + 1

	// SchemeEOTPad reserves id 256 for end-of-text and 257 for pad. Merges start at 258.
	SchemeEOTPad
)

// Specials returns the special tokens of the scheme in id order.
func (s Scheme) Specials() []SpecialToken {
	switch s {
	case SchemeEOTPad:
		return []SpecialToken{{EndOfTextID, EndOfText}, {PadID, Pad}}
	default:
		return []SpecialToken{{EndOfTextID, EndOfText}}
	}
}

// Reserved returns the number of special token ids.
func (s Scheme) Reserved() int {
	return len(s.Specials())
}

// FirstMergeID returns the id assigned to the first learned merge.
func (s Scheme) FirstMergeID() int32 {
	return int32(NumBytes + s.Reserved())
}

// NumMerges returns the number of merges needed to reach vocabSize,
// or -1 when vocabSize cannot hold the reserved range.
func (s Scheme) NumMerges(vocabSize int) int {
	if vocabSize <= 0 || vocabSize < NumBytes+s.Reserved() {
		return -1
	}
	return vocabSize - s.Reserved() - NumBytes
}

// Valid reports whether s is a known scheme.
func (s Scheme) Valid() bool {
	return s == SchemeEOT || s == SchemeEOTPad
}

func (s Scheme) String() string {
	switch s {
	case SchemeEOT:
		return "eot"
	case SchemeEOTPad:
		return "eot+pad"
	default:
		return "unknown"
	}
}

// ParseScheme is the inverse of Scheme.String.
func ParseScheme(name string) (Scheme, error) {
	switch name {
	case "eot":
		return SchemeEOT, nil
	case "eot+pad":
		return SchemeEOTPad, nil
	default:
		return 0, fmt.Errorf("tokenizer: unknown scheme %q", name)
	}
}
