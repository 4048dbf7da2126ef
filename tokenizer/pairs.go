package tokenizer

import "cmp"

// Pair is two adjacent symbol ids.
type Pair struct {
	Left, Right int32
}

// Compare orders pairs numerically by Left, then Right.
func (p Pair) Compare(q Pair) int {
	if c := cmp.Compare(p.Left, q.Left); c != 0 {
		return c
	}
	return cmp.Compare(p.Right, q.Right)
}

// forEachPair calls fn once per pair occurrence found by a single
// left-to-right non-overlapping scan of ids. A run of L identical ids
// yields floor(L/2) occurrences of (x, x), matching what a merge rewrite consumes.
func forEachPair(ids []int32, fn func(Pair)) {
	for i := 0; i+1 < len(ids); i++ {
		p := Pair{ids[i], ids[i+1]}
		fn(p)
		if p.Left == p.Right && i+2 < len(ids) && ids[i+2] == p.Left {
			i++
		}
	}
}

// containsPair reports whether p occurs in ids.
func containsPair(ids []int32, p Pair) bool {
	for i := 0; i+1 < len(ids); i++ {
		if ids[i] == p.Left && ids[i+1] == p.Right {
			return true
		}
	}
	return false
}

// mergePair rewrites ids in place, replacing every non-overlapping occurrence
// of p with id, and returns the shortened slice.
func mergePair(ids []int32, p Pair, id int32) []int32 {
	out := ids[:0]
	for i := 0; i < len(ids); {
		if i+1 < len(ids) && ids[i] == p.Left && ids[i+1] == p.Right {
			out = append(out, id)
			i += 2
			continue
		}
		out = append(out, ids[i])
		i++
	}
	return out
}

// CountPairs returns the aggregate frequency of every adjacent pair across words,
// where each word's occurrences are weighted by its count.
func CountPairs(words [][]int32, counts []int64) map[Pair]int64 {
	freq := make(map[Pair]int64)
	for i, ids := range words {
		c := counts[i]
		forEachPair(ids, func(p Pair) {
			freq[p] += c
		})
	}
	return freq
}
