package tokenizer

import (
	"fmt"
	"slices"
	"sync/atomic"
)

// noID marks a trie node that does not terminate a vocabulary entry.
const noID int32 = -1

type edge struct {
	label byte
	next  int32
}

type node struct {
	id    int32
	edges []edge // sorted by label
}

// Trie is an immutable prefix tree over the byte sequences of a symbol table.
// A built Trie is safe for concurrent reads. Release must not run concurrently
// with reads; callers swapping vocabularies are expected to quiesce encoders first.
type Trie struct {
	root     [NumBytes]int32 // first-byte edges out of the root, 0 when absent
	nodes    []node          // nodes[0] is the root
	terms    int
	released atomic.Bool
}

// BuildTrie builds a prefix tree in which every entry of table is a terminal node
// carrying its id. Two ids with the same byte sequence are rejected, since lookup
// is keyed on bytes. Build time is linear in the total length of all entries.
func BuildTrie(table *SymbolTable) (*Trie, error) {
	t := &Trie{nodes: make([]node, 1, table.Len()+1)}
	t.nodes[0].id = noID

	for _, id := range table.IDs() {
		seq, _ := table.Bytes(id)
		if len(seq) == 0 {
			return nil, fmt.Errorf("%w: id %d", ErrEmptySequence, id)
		}
		n := t.walkOrGrow(seq)
		if prev := t.nodes[n].id; prev != noID {
			return nil, fmt.Errorf("%w: ids %d and %d both map to %q", ErrDuplicateSequence, prev, id, seq)
		}
		t.nodes[n].id = id
		t.terms++
	}
	return t, nil
}

// walkOrGrow follows seq from the root, creating missing nodes, and returns the final node.
func (t *Trie) walkOrGrow(seq []byte) int32 {
	cur := t.root[seq[0]]
	if cur == 0 {
		cur = t.newNode()
		t.root[seq[0]] = cur
	}
	for _, b := range seq[1:] {
		edges := t.nodes[cur].edges
		i, found := slices.BinarySearchFunc(edges, b, func(e edge, b byte) int {
			return int(e.label) - int(b)
		})
		if found {
			cur = edges[i].next
			continue
		}
		next := t.newNode()
		t.nodes[cur].edges = slices.Insert(t.nodes[cur].edges, i, edge{label: b, next: next})
		cur = next
	}
	return cur
}

func (t *Trie) newNode() int32 {
	t.nodes = append(t.nodes, node{id: noID})
	return int32(len(t.nodes) - 1)
}

// child returns the node reached from n over label, or 0.
func (t *Trie) child(n int32, label byte) int32 {
	if n == 0 {
		return t.root[label]
	}
	edges := t.nodes[n].edges
	if len(edges) <= 8 {
		for _, e := range edges {
			if e.label == label {
				return e.next
			}
		}
		return 0
	}
	i, found := slices.BinarySearchFunc(edges, label, func(e edge, b byte) int {
		return int(e.label) - int(b)
	})
	if !found {
		return 0
	}
	return edges[i].next
}

// longestMatch returns the id of the longest vocabulary entry prefixing s and its
// length in bytes. It returns noID and 0 when no entry matches.
func (t *Trie) longestMatch(s string) (int32, int) {
	id, n := noID, 0
	cur := int32(0)
	for i := 0; i < len(s); i++ {
		cur = t.child(cur, s[i])
		if cur == 0 {
			break
		}
		if term := t.nodes[cur].id; term != noID {
			id, n = term, i+1
		}
	}
	return id, n
}

// Lookup returns the id whose byte sequence is exactly seq.
func (t *Trie) Lookup(seq []byte) (int32, bool) {
	if t.released.Load() || len(seq) == 0 {
		return noID, false
	}
	cur := int32(0)
	for _, b := range seq {
		if cur = t.child(cur, b); cur == 0 {
			return noID, false
		}
	}
	id := t.nodes[cur].id
	return id, id != noID
}

// Len returns the number of terminal entries.
func (t *Trie) Len() int {
	if t.released.Load() {
		return 0
	}
	return t.terms
}

// Nodes returns the number of nodes including the root.
func (t *Trie) Nodes() int {
	return len(t.nodes)
}

// Release drops every node of the trie. It is idempotent; encoding with a
// released trie fails with ErrTrieReleased.
func (t *Trie) Release() {
	if t == nil || !t.released.CompareAndSwap(false, true) {
		return
	}
	t.nodes = nil
	t.root = [NumBytes]int32{}
	t.terms = 0
}

// Released reports whether Release has been called.
func (t *Trie) Released() bool {
	return t.released.Load()
}
