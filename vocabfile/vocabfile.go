// Package vocabfile reads and writes trained vocabularies.
//
// Five formats are supported, chosen by file extension:
//
//	.bpe        line-oriented text, one "id b b b" line per symbol
//	_debug.bpe  the same header followed by "id text" lines (write-only)
//	.json       {"version", "pattern", "vocab": {"id": [bytes]}}
//	.bpeb       protobuf wire encoding
//	.cbor       CBOR map keyed by small integers
//
// The version line selects the special token scheme of the vocabulary.
package vocabfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/go-bytephase/tokenizer"
)

const (
	// VersionEOT identifies vocabularies using tokenizer.SchemeEOT.
	VersionEOT = "bytephase tokenizer by benjamin arnav v1"

	// VersionEOTPad identifies vocabularies using tokenizer.SchemeEOTPad.
	VersionEOTPad = "bytephase tokenizer by benjamin arnav v2"
)

var (
	// ErrMalformed indicates a vocabulary file that cannot be parsed.
	ErrMalformed = errors.New("vocabfile: malformed vocabulary")

	// ErrVersionMismatch indicates an unrecognized version header.
	ErrVersionMismatch = errors.New("vocabfile: version mismatch")

	// ErrUnknownFormat indicates a path whose extension maps to no format.
	ErrUnknownFormat = errors.New("vocabfile: unknown format")

	// ErrWriteOnly indicates an attempt to read the debug format.
	ErrWriteOnly = errors.New("vocabfile: format is write-only")
)

// Vocabulary is a symbol table together with the settings it was trained with.
type Vocabulary struct {
	Version string
	Pattern string
	Scheme  tokenizer.Scheme
	Table   *tokenizer.SymbolTable
}

// New returns a vocabulary for table with the version implied by scheme.
func New(scheme tokenizer.Scheme, pattern string, table *tokenizer.SymbolTable) (*Vocabulary, error) {
	version, err := VersionFor(scheme)
	if err != nil {
		return nil, err
	}
	return &Vocabulary{Version: version, Pattern: pattern, Scheme: scheme, Table: table}, nil
}

// VersionFor returns the version header written for scheme.
func VersionFor(scheme tokenizer.Scheme) (string, error) {
	switch scheme {
	case tokenizer.SchemeEOT:
		return VersionEOT, nil
	case tokenizer.SchemeEOTPad:
		return VersionEOTPad, nil
	default:
		return "", fmt.Errorf("vocabfile: no version for scheme %v", scheme)
	}
}

// SchemeFor returns the scheme identified by a version header.
func SchemeFor(version string) (tokenizer.Scheme, error) {
	switch version {
	case VersionEOT:
		return tokenizer.SchemeEOT, nil
	case VersionEOTPad:
		return tokenizer.SchemeEOTPad, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrVersionMismatch, version)
	}
}

// Validate checks that the version matches the scheme and that the table
// respects the layout of the scheme.
func (v *Vocabulary) Validate() error {
	if v.Table == nil {
		return fmt.Errorf("%w: no symbol table", ErrMalformed)
	}
	scheme, err := SchemeFor(v.Version)
	if err != nil {
		return err
	}
	if scheme != v.Scheme {
		return fmt.Errorf("%w: %q does not describe scheme %v", ErrVersionMismatch, v.Version, v.Scheme)
	}
	if err := v.Table.Validate(v.Scheme); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}

// Format is an on-disk vocabulary encoding.
type Format int

const (
	FormatText Format = iota + 1
	FormatDebug
	FormatJSON
	FormatBinary
	FormatCBOR
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatDebug:
		return "debug"
	case FormatJSON:
		return "json"
	case FormatBinary:
		return "binary"
	case FormatCBOR:
		return "cbor"
	default:
		return "unknown"
	}
}

// FormatFor picks the format from the extension of path.
func FormatFor(path string) (Format, error) {
	base := filepath.Base(path)
	switch {
	case strings.HasSuffix(base, "_debug.bpe"):
		return FormatDebug, nil
	case strings.HasSuffix(base, ".bpe"):
		return FormatText, nil
	case strings.HasSuffix(base, ".bpeb"):
		return FormatBinary, nil
	case strings.HasSuffix(base, ".json"):
		return FormatJSON, nil
	case strings.HasSuffix(base, ".cbor"):
		return FormatCBOR, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Write encodes v to w in format f. The vocabulary is validated first.
func Write(w io.Writer, f Format, v *Vocabulary) error {
	if err := v.Validate(); err != nil {
		return err
	}
	switch f {
	case FormatText:
		return writeText(w, v)
	case FormatDebug:
		return writeDebug(w, v)
	case FormatJSON:
		return writeJSON(w, v)
	case FormatBinary:
		return writeBinary(w, v)
	case FormatCBOR:
		return writeCBOR(w, v)
	default:
		return fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
}

// Read decodes a vocabulary in format f from r and validates it.
func Read(r io.Reader, f Format) (*Vocabulary, error) {
	var (
		v   *Vocabulary
		err error
	)
	switch f {
	case FormatText:
		v, err = readText(r)
	case FormatDebug:
		return nil, ErrWriteOnly
	case FormatJSON:
		v, err = readJSON(r)
	case FormatBinary:
		v, err = readBinary(r)
	case FormatCBOR:
		v, err = readCBOR(r)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
	if err != nil {
		return nil, err
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Save writes v to path in the format implied by its extension.
func Save(path string, v *Vocabulary) (err error) {
	f, err := FormatFor(path)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating vocabulary file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return Write(file, f, v)
}

// Load reads the vocabulary at path in the format implied by its extension.
func Load(path string) (*Vocabulary, error) {
	f, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening vocabulary file: %w", err)
	}
	defer file.Close()
	return Read(file, f)
}

// symbols collects the entries of a file before the table is built, so
// a bogus id cannot size the table.
type symbols map[int64][]byte

// add records seq for id, rejecting out-of-range, repeated and empty entries.
func (s symbols) add(id int64, seq []byte) error {
	if id < 0 || id > 1<<31-1 {
		return fmt.Errorf("id %d out of range", id)
	}
	if _, ok := s[id]; ok {
		return fmt.Errorf("id %d assigned twice", id)
	}
	if len(seq) == 0 {
		return fmt.Errorf("id %d has no bytes", id)
	}
	s[id] = bytes.Clone(seq)
	return nil
}

// table builds the symbol table. Ids must be dense: n entries use ids 0 to n-1.
func (s symbols) table() (*tokenizer.SymbolTable, error) {
	for id := range s {
		if id >= int64(len(s)) {
			return nil, fmt.Errorf("%w: id %d beyond %d entries", ErrMalformed, id, len(s))
		}
	}
	table := tokenizer.NewEmptySymbolTable()
	for id := range int64(len(s)) {
		table.Set(int32(id), s[id])
	}
	return table, nil
}
