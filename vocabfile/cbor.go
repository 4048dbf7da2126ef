package vocabfile

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

type cborDocument struct {
	Version string           `cbor:"1,keyasint"`
	Pattern string           `cbor:"2,keyasint"`
	Tokens  map[int64][]byte `cbor:"3,keyasint"`
}

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	if cborEnc, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if cborDec, err = (cbor.DecOptions{DupMapKey: cbor.DupMapKeyEnforcedAPF}).DecMode(); err != nil {
		panic(err)
	}
}

func writeCBOR(w io.Writer, v *Vocabulary) error {
	doc := cborDocument{
		Version: v.Version,
		Pattern: v.Pattern,
		Tokens:  make(map[int64][]byte, v.Table.Len()),
	}
	for _, id := range v.Table.IDs() {
		seq, _ := v.Table.Bytes(id)
		doc.Tokens[int64(id)] = seq
	}
	return cborEnc.NewEncoder(w).Encode(doc)
}

func readCBOR(r io.Reader) (*Vocabulary, error) {
	var doc cborDocument
	if err := cborDec.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	scheme, err := SchemeFor(doc.Version)
	if err != nil {
		return nil, err
	}
	syms := make(symbols, len(doc.Tokens))
	for id, seq := range doc.Tokens {
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
