package tokenizer

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	heap "github.com/emirpasic/gods/v2/trees/binaryheap"

	"github.com/jamesainslie/go-bytephase/internal/logutil"
)

// progressEvery is how many merges pass between debug progress records.
const progressEvery = 1000

// Merge is one training step: Pair was replaced everywhere by the new symbol ID.
type Merge struct {
	Pair
	ID    int32
	Bytes []byte // Bytes(Left) followed by Bytes(Right)
	Freq  int64  // aggregate pair frequency at selection time
}

// candidate is a queued pair. It is stale once freq no longer matches the live count.
type candidate struct {
	pair Pair
	freq int64
}

// compareCandidates orders the queue by frequency descending, then by the smallest pair.
func compareCandidates(a, b candidate) int {
	if c := cmp.Compare(b.freq, a.freq); c != 0 {
		return c
	}
	return a.pair.Compare(b.pair)
}

// trainer holds the mutable training state. Word i is words[i] weighted by counts[i].
type trainer struct {
	table  *SymbolTable
	words  [][]int32
	counts []int64
	freq   map[Pair]int64
	where  map[Pair]map[int32]struct{}
	queue  *heap.Heap[candidate]
	logger *slog.Logger
}

// Train learns up to numMerges merges from a word-frequency table and appends one
// symbol per merge to table, in creation order.
//
// Each step picks the pair with the highest aggregate frequency, preferring the
// numerically smallest (Left, Right) among ties, so identical input always yields
// an identical merge list. Training stops early without error once no adjacent
// pair remains. Only words holding the merged pair are recounted after each step.
func Train(table *SymbolTable, freqs map[string]int64, numMerges int, logger *slog.Logger) ([]Merge, error) {
	if numMerges < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMergeCount, numMerges)
	}
	if logger == nil {
		logger = slog.Default()
	}

	tr := newTrainer(table, freqs, logger)
	logger.Debug("training started", "words", len(tr.words), "pairs", len(tr.freq), "merges", numMerges)

	merges := make([]Merge, 0, min(numMerges, len(tr.freq)))
	for len(merges) < numMerges {
		best, ok := tr.next()
		if !ok {
			logger.Info("no pairs left, stopping early", "merges", len(merges), "requested", numMerges)
			break
		}

		m := tr.apply(best)
		merges = append(merges, m)

		if logger.Enabled(context.Background(), logutil.LevelTrace) {
			logger.Log(context.Background(), logutil.LevelTrace, "merge",
				"id", m.ID, "left", m.Left, "right", m.Right, "freq", m.Freq, "bytes", fmt.Sprintf("%q", m.Bytes))
		}
		if len(merges)%progressEvery == 0 {
			logger.Debug("training progress", "merges", len(merges), "requested", numMerges, "freq", m.Freq)
		}
	}

	logger.Debug("training finished", "merges", len(merges), "vocab", table.Len())
	return merges, nil
}

func newTrainer(table *SymbolTable, freqs map[string]int64, logger *slog.Logger) *trainer {
	tr := &trainer{
		table:  table,
		where:  make(map[Pair]map[int32]struct{}),
		queue:  heap.NewWith(compareCandidates),
		logger: logger,
	}

	// Sorted keys give stable word indices regardless of map iteration order.
	for _, w := range slices.Sorted(maps.Keys(freqs)) {
		c := freqs[w]
		if c <= 0 || len(w) < 2 {
			continue
		}
		ids := make([]int32, len(w))
		for i := 0; i < len(w); i++ {
			ids[i] = int32(w[i])
		}
		tr.words = append(tr.words, ids)
		tr.counts = append(tr.counts, c)
	}

	tr.freq = CountPairs(tr.words, tr.counts)
	for i, ids := range tr.words {
		forEachPair(ids, func(p Pair) {
			tr.post(p, int32(i))
		})
	}
	for p, c := range tr.freq {
		tr.queue.Push(candidate{p, c})
	}
	return tr
}

// post records that word i may contain p.
func (tr *trainer) post(p Pair, i int32) {
	set, ok := tr.where[p]
	if !ok {
		set = make(map[int32]struct{})
		tr.where[p] = set
	}
	set[i] = struct{}{}
}

// next pops the best live candidate, discarding stale entries.
func (tr *trainer) next() (candidate, bool) {
	for {
		c, ok := tr.queue.Pop()
		if !ok {
			return candidate{}, false
		}
		if c.freq > 0 && tr.freq[c.pair] == c.freq {
			return c, true
		}
	}
}

// apply mints the symbol for best, rewrites every word holding it and
// requeues the pairs whose counts moved.
func (tr *trainer) apply(best candidate) Merge {
	left, _ := tr.table.Bytes(best.pair.Left)
	right, _ := tr.table.Bytes(best.pair.Right)
	seq := make([]byte, 0, len(left)+len(right))
	seq = append(seq, left...)
	seq = append(seq, right...)
	id := tr.table.Append(seq)

	postings := slices.Sorted(maps.Keys(tr.where[best.pair]))
	delete(tr.where, best.pair)

	touched := make(map[Pair]struct{})
	for _, i := range postings {
		ids := tr.words[i]
		if !containsPair(ids, best.pair) {
			continue
		}
		c := tr.counts[i]
		forEachPair(ids, func(p Pair) {
			tr.freq[p] -= c
			touched[p] = struct{}{}
		})
		ids = mergePair(ids, best.pair, id)
		tr.words[i] = ids
		forEachPair(ids, func(p Pair) {
			tr.freq[p] += c
			touched[p] = struct{}{}
			tr.post(p, i)
		})
	}

	for p := range touched {
		if c := tr.freq[p]; c > 0 {
			tr.queue.Push(candidate{p, c})
			continue
		}
		delete(tr.freq, p)
		delete(tr.where, p)
	}

	return Merge{Pair: best.pair, ID: id, Bytes: seq, Freq: best.freq}
}
