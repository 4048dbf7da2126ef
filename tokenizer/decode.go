package tokenizer

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// DecodeBytes concatenates the byte sequences of ids.
func DecodeBytes(table *SymbolTable, ids []int32) ([]byte, error) {
	var buf []byte
	for _, id := range ids {
		seq, ok := table.Bytes(id)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownID, id)
		}
		buf = append(buf, seq...)
	}
	return buf, nil
}

// Decode concatenates the byte sequences of ids and decodes them as UTF-8,
// replacing invalid bytes with U+FFFD. An id missing from table is an error.
func Decode(table *SymbolTable, ids []int32) (string, error) {
	buf, err := DecodeBytes(table, ids)
	if err != nil {
		return "", err
	}
	out, err := unicode.UTF8.NewDecoder().Bytes(buf)
	if err != nil {
		return "", fmt.Errorf("decoding utf-8: %w", err)
	}
	return string(out), nil
}
