package vocabfile

import (
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the binary format.
//
//	message Vocabulary {
//	  string version = 1;
//	  string pattern = 2;
//	  repeated Token tokens = 3;
//	}
//	message Token {
//	  uint32 id = 1;
//	  bytes seq = 2;
//	}
const (
	fieldVersion protowire.Number = 1
	fieldPattern protowire.Number = 2
	fieldToken   protowire.Number = 3

	fieldTokenID  protowire.Number = 1
	fieldTokenSeq protowire.Number = 2
)

func writeBinary(w io.Writer, v *Vocabulary) error {
	var b, tok []byte
	b = protowire.AppendTag(b, fieldVersion, protowire.BytesType)
	b = protowire.AppendString(b, v.Version)
	b = protowire.AppendTag(b, fieldPattern, protowire.BytesType)
	b = protowire.AppendString(b, v.Pattern)
	for _, id := range v.Table.IDs() {
		seq, _ := v.Table.Bytes(id)
		tok = protowire.AppendTag(tok[:0], fieldTokenID, protowire.VarintType)
		tok = protowire.AppendVarint(tok, uint64(id))
		tok = protowire.AppendTag(tok, fieldTokenSeq, protowire.BytesType)
		tok = protowire.AppendBytes(tok, seq)
		b = protowire.AppendTag(b, fieldToken, protowire.BytesType)
		b = protowire.AppendBytes(b, tok)
	}
	_, err := w.Write(b)
	return err
}

func readBinary(r io.Reader) (*Vocabulary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}

	v := &Vocabulary{}
	syms := make(symbols)
	hasVersion := false
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, wireErr(protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldVersion && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, wireErr(protowire.ParseError(n))
			}
			v.Version, hasVersion = s, true
			data = data[n:]
		case num == fieldPattern && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, wireErr(protowire.ParseError(n))
			}
			v.Pattern = s
			data = data[n:]
		case num == fieldToken && typ == protowire.BytesType:
			msg, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, wireErr(protowire.ParseError(n))
			}
			if err := readToken(syms, msg); err != nil {
				return nil, err
			}
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, wireErr(protowire.ParseError(n))
			}
			data = data[n:]
		}
	}

	if !hasVersion {
		return nil, fmt.Errorf("%w: missing version", ErrMalformed)
	}
	scheme, err := SchemeFor(v.Version)
	if err != nil {
		return nil, err
	}
	v.Scheme = scheme
	if v.Table, err = syms.table(); err != nil {
		return nil, err
	}
	return v, nil
}

func readToken(syms symbols, msg []byte) error {
	var (
		id           uint64
		seq          []byte
		hasID, hasSq bool
	)
	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return wireErr(protowire.ParseError(n))
		}
		msg = msg[n:]
		switch {
		case num == fieldTokenID && typ == protowire.VarintType:
			id, n = protowire.ConsumeVarint(msg)
			hasID = true
		case num == fieldTokenSeq && typ == protowire.BytesType:
			seq, n = protowire.ConsumeBytes(msg)
			hasSq = true
		default:
			n = protowire.ConsumeFieldValue(num, typ, msg)
		}
		if n < 0 {
			return wireErr(protowire.ParseError(n))
		}
		msg = msg[n:]
	}
	if !hasID || !hasSq {
		return fmt.Errorf("%w: token without id or bytes", ErrMalformed)
	}
	if id > 1<<31-1 {
		return fmt.Errorf("%w: id %d out of range", ErrMalformed, id)
	}
	if err := syms.add(int64(id), seq); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func wireErr(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}
