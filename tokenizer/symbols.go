package tokenizer

import (
	"bytes"
	"fmt"
)

// SymbolTable maps token ids to the byte sequences they represent.
// It is the single source of truth for a vocabulary.
type SymbolTable struct {
	seqs  [][]byte // id -> byte sequence, nil when the id is unassigned
	count int
}

// NewSymbolTable returns a table holding the 256 byte symbols and the special tokens of scheme.
func NewSymbolTable(scheme Scheme) *SymbolTable {
	t := &SymbolTable{seqs: make([][]byte, 0, NumBytes+scheme.Reserved())}
	for i := range NumBytes {
		t.Set(int32(i), []byte{byte(i)})
	}
	for _, sp := range scheme.Specials() {
		t.Set(sp.ID, []byte(sp.Text))
	}
	return t
}

// NewEmptySymbolTable returns a table with no symbols, for loaders that fill every id explicitly.
func NewEmptySymbolTable() *SymbolTable {
	return &SymbolTable{}
}

// Set assigns seq to id, replacing any previous sequence. The slice is copied.
func (t *SymbolTable) Set(id int32, seq []byte) {
	if id < 0 {
		panic(fmt.Sprintf("tokenizer: negative symbol id %d", id))
	}
	for int(id) >= len(t.seqs) {
		t.seqs = append(t.seqs, nil)
	}
	if t.seqs[id] == nil {
		t.count++
	}
	t.seqs[id] = bytes.Clone(seq)
	if t.seqs[id] == nil {
		t.seqs[id] = []byte{}
	}
}

// Append assigns seq to the next id after the highest assigned id and returns it.
func (t *SymbolTable) Append(seq []byte) int32 {
	id := int32(len(t.seqs))
	t.Set(id, seq)
	return id
}

// Bytes returns the byte sequence of id. The returned slice must not be modified.
func (t *SymbolTable) Bytes(id int32) ([]byte, bool) {
	if id < 0 || int(id) >= len(t.seqs) || t.seqs[id] == nil {
		return nil, false
	}
	return t.seqs[id], true
}

// Len returns the number of assigned ids.
func (t *SymbolTable) Len() int {
	return t.count
}

// MaxID returns the highest assigned id, or -1 for an empty table.
func (t *SymbolTable) MaxID() int32 {
	return int32(len(t.seqs)) - 1
}

// IDs returns all assigned ids in ascending order.
func (t *SymbolTable) IDs() []int32 {
	ids := make([]int32, 0, t.count)
	for id, seq := range t.seqs {
		if seq != nil {
			ids = append(ids, int32(id))
		}
	}
	return ids
}

// Validate checks the layout invariants: every byte id maps to its own byte,
// the special tokens of scheme are present and no assigned id is empty.
func (t *SymbolTable) Validate(scheme Scheme) error {
	for i := range NumBytes {
		seq, ok := t.Bytes(int32(i))
		if !ok || len(seq) != 1 || seq[0] != byte(i) {
			return fmt.Errorf("%w: id %d must map to byte %d", ErrInvalidTable, i, i)
		}
	}
	for _, sp := range scheme.Specials() {
		seq, ok := t.Bytes(sp.ID)
		if !ok || string(seq) != sp.Text {
			return fmt.Errorf("%w: id %d must be special token %q", ErrInvalidTable, sp.ID, sp.Text)
		}
	}
	for id, seq := range t.seqs {
		if seq != nil && len(seq) == 0 {
			return fmt.Errorf("%w: id %d", ErrEmptySequence, id)
		}
	}
	return nil
}

// Clone returns a deep copy of the table.
func (t *SymbolTable) Clone() *SymbolTable {
	c := &SymbolTable{seqs: make([][]byte, len(t.seqs)), count: t.count}
	for i, seq := range t.seqs {
		if seq != nil {
			c.seqs[i] = bytes.Clone(seq)
			if c.seqs[i] == nil {
				c.seqs[i] = []byte{}
			}
		}
	}
	return c
}
