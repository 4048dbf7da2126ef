package vocabfile

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

type jsonDocument struct {
	Version string           `json:"version"`
	Pattern string           `json:"pattern"`
	Vocab   map[string][]int `json:"vocab"`
}

func writeJSON(w io.Writer, v *Vocabulary) error {
	doc := jsonDocument{
		Version: v.Version,
		Pattern: v.Pattern,
		Vocab:   make(map[string][]int, v.Table.Len()),
	}
	for _, id := range v.Table.IDs() {
		seq, _ := v.Table.Bytes(id)
		ints := make([]int, len(seq))
		for i, b := range seq {
			ints[i] = int(b)
		}
		doc.Vocab[strconv.Itoa(int(id))] = ints
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

func readJSON(r io.Reader) (*Vocabulary, error) {
	var doc jsonDocument
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	scheme, err := SchemeFor(doc.Version)
	if err != nil {
		return nil, err
	}

	syms := make(symbols, len(doc.Vocab))
	for key, ints := range doc.Vocab {
		id, err := strconv.ParseInt(key, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: bad id %q", ErrMalformed, key)
		}
		seq := make([]byte, len(ints))
		for i, n := range ints {
			if n < 0 || n > 255 {
				return nil, fmt.Errorf("%w: id %d: byte %d out of range", ErrMalformed, id, n)
			}
			seq[i] = byte(n)
		}
		if err := syms.add(id, seq); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	table, err := syms.table()
	if err != nil {
		return nil, err
	}
	return &Vocabulary{Version: doc.Version, Pattern: doc.Pattern, Scheme: scheme, Table: table}, nil
}
