package bytephase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/go-bytephase/corpus"
	"github.com/jamesainslie/go-bytephase/inference"
	"github.com/jamesainslie/go-bytephase/tokenizer"
	"github.com/jamesainslie/go-bytephase/vocabfile"
)

// Mode selects how text is split before encoding.
type Mode = inference.Mode

const (
	// ModeTrain splits lazily and keeps memory bounded.
	ModeTrain = inference.ModeTrain

	// ModeInference splits the whole text first; faster, uses more memory.
	ModeInference = inference.ModeInference
)

// ParseMode is the inverse of Mode.String.
func ParseMode(name string) (Mode, error) {
	return inference.ParseMode(name)
}

// Tokenizer trains, loads and applies a byte-level BPE vocabulary.
// It is safe for concurrent use.
type Tokenizer struct {
	mu       sync.RWMutex
	cfg      config
	splitter *corpus.Splitter
	scheme   tokenizer.Scheme
	table    *tokenizer.SymbolTable
	trie     *tokenizer.Trie
	pool     *inference.Pool
	merges   []tokenizer.Merge
	closed   bool
}

// New creates an untrained Tokenizer. Call Train or Load before encoding.
func New(opts ...Option) (*Tokenizer, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if !cfg.scheme.Valid() {
		return nil, fmt.Errorf("bytephase: unknown scheme %v", cfg.scheme)
	}
	splitter, err := corpus.NewSplitter(cfg.pattern)
	if err != nil {
		return nil, err
	}

	return &Tokenizer{
		cfg:      cfg,
		splitter: splitter,
		scheme:   cfg.scheme,
	}, nil
}

// numMerges converts vocabSize into a merge count for the configured scheme.
func (t *Tokenizer) numMerges(vocabSize int) (int, error) {
	n := t.cfg.scheme.NumMerges(vocabSize)
	if n < 0 {
		return 0, fmt.Errorf("%w: %d (minimum %d)", ErrInvalidVocabSize, vocabSize, t.cfg.scheme.FirstMergeID())
	}
	return n, nil
}

// Train learns a vocabulary of vocabSize symbols from the file at path.
// A corpus too small to reach vocabSize yields a smaller vocabulary.
func (t *Tokenizer) Train(ctx context.Context, path string, vocabSize int) error {
	n, err := t.numMerges(vocabSize)
	if err != nil {
		return err
	}

	start := time.Now()
	counts, err := corpus.CountFile(ctx, path, t.currentSplitter(), t.cfg.readBuffer)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrCorpusNotFound, path)
		}
		return fmt.Errorf("counting words: %w", err)
	}
	t.cfg.logger.Debug("corpus counted", "path", path, "words", len(counts), "elapsed", time.Since(start))

	return t.train(counts, n)
}

// TrainReader learns a vocabulary of vocabSize symbols from r.
func (t *Tokenizer) TrainReader(ctx context.Context, r io.Reader, vocabSize int) error {
	n, err := t.numMerges(vocabSize)
	if err != nil {
		return err
	}
	counts, err := corpus.CountWords(ctx, r, t.currentSplitter(), t.cfg.readBuffer)
	if err != nil {
		return fmt.Errorf("counting words: %w", err)
	}
	return t.train(counts, n)
}

// TrainCounts learns a vocabulary of vocabSize symbols from precomputed word frequencies.
func (t *Tokenizer) TrainCounts(freqs map[string]int64, vocabSize int) error {
	n, err := t.numMerges(vocabSize)
	if err != nil {
		return err
	}
	return t.train(freqs, n)
}

func (t *Tokenizer) train(freqs map[string]int64, numMerges int) error {
	start := time.Now()
	table := tokenizer.NewSymbolTable(t.cfg.scheme)
	merges, err := tokenizer.Train(table, freqs, numMerges, t.cfg.logger)
	if err != nil {
		return err
	}

	t.mu.RLock()
	splitter := t.splitter
	t.mu.RUnlock()

	if err := t.install(t.cfg.scheme, splitter, table, merges); err != nil {
		return err
	}
	t.cfg.logger.Info("vocabulary trained",
		"words", len(freqs), "merges", len(merges), "vocab", table.Len(), "elapsed", time.Since(start))
	return nil
}

// install builds the trie and session pool for table and swaps them in,
// retiring the previous ones.
func (t *Tokenizer) install(scheme tokenizer.Scheme, splitter *corpus.Splitter, table *tokenizer.SymbolTable, merges []tokenizer.Merge) error {
	trie, err := tokenizer.BuildTrie(table)
	if err != nil {
		return fmt.Errorf("building trie: %w", err)
	}
	pool, err := inference.NewPool(trie, splitter, t.cfg.poolSize)
	if err != nil {
		trie.Release()
		return fmt.Errorf("creating session pool: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		_ = pool.Close()
		trie.Release()
		return ErrClosed
	}

	oldPool, oldTrie := t.pool, t.trie
	t.scheme = scheme
	t.splitter = splitter
	t.table = table
	t.trie = trie
	t.pool = pool
	t.merges = merges

	if oldPool != nil {
		_ = oldPool.Close()
	}
	oldTrie.Release()
	return nil
}

func (t *Tokenizer) currentSplitter() *corpus.Splitter {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.splitter
}

// ready reports the state error for encode and decode calls. Callers hold t.mu.
func (t *Tokenizer) ready() error {
	if t.closed {
		return ErrClosed
	}
	if t.table == nil {
		return ErrNotTrained
	}
	return nil
}

// Encode converts text into token ids.
func (t *Tokenizer) Encode(text string, mode Mode) ([]int32, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if err := t.ready(); err != nil {
		return nil, err
	}
	return t.pool.Encode(context.Background(), text, mode)
}

// EncodeBatch encodes texts concurrently, at most one per pooled session.
// Results are in input order.
func (t *Tokenizer) EncodeBatch(ctx context.Context, texts []string, mode Mode) ([][]int32, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if err := t.ready(); err != nil {
		return nil, err
	}

	out := make([][]int32, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(t.pool.Size())
	for i, text := range texts {
		g.Go(func() error {
			ids, err := t.pool.Encode(ctx, text, mode)
			if err != nil {
				return fmt.Errorf("text %d: %w", i, err)
			}
			out[i] = ids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Decode converts token ids back into text. Invalid UTF-8 is replaced with U+FFFD.
func (t *Tokenizer) Decode(ids []int32) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if err := t.ready(); err != nil {
		return "", err
	}
	return tokenizer.Decode(t.table, ids)
}

// vocabulary snapshots the current state for saving. Callers hold t.mu.
func (t *Tokenizer) vocabulary() (*vocabfile.Vocabulary, error) {
	if err := t.ready(); err != nil {
		return nil, err
	}
	return vocabfile.New(t.scheme, t.splitter.Pattern(), t.table)
}

// Save writes the vocabulary to path. The extension selects the format.
func (t *Tokenizer) Save(path string) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, err := t.vocabulary()
	if err != nil {
		return err
	}
	if err := vocabfile.Save(path, v); err != nil {
		return fmt.Errorf("saving vocabulary: %w", err)
	}
	t.cfg.logger.Debug("vocabulary saved", "path", path, "vocab", v.Table.Len())
	return nil
}

// SaveDebug writes a human-readable "id text" listing of the vocabulary to path.
func (t *Tokenizer) SaveDebug(path string) (err error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, err := t.vocabulary()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating debug file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return vocabfile.Write(f, vocabfile.FormatDebug, v)
}

// Load replaces the vocabulary with the one stored at path. The stored
// pattern, when present, replaces the configured one.
func (t *Tokenizer) Load(path string) error {
	v, err := vocabfile.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrInvalidVocabulary, err)
	}

	splitter := t.currentSplitter()
	if v.Pattern != "" && v.Pattern != splitter.Pattern() {
		if splitter, err = corpus.NewSplitter(v.Pattern); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidVocabulary, err)
		}
	}

	if err := t.install(v.Scheme, splitter, v.Table, nil); err != nil {
		if errors.Is(err, ErrClosed) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrInvalidVocabulary, err)
	}
	t.cfg.logger.Debug("vocabulary loaded", "path", path, "vocab", v.Table.Len(), "scheme", v.Scheme)
	return nil
}

// VocabSize returns the number of symbols, or 0 before Train or Load.
func (t *Tokenizer) VocabSize() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.table == nil {
		return 0
	}
	return t.table.Len()
}

// Pattern returns the pretokenizer pattern in use.
func (t *Tokenizer) Pattern() string {
	return t.currentSplitter().Pattern()
}

// Scheme returns the special token layout of the current vocabulary.
func (t *Tokenizer) Scheme() tokenizer.Scheme {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.scheme
}

// Merges returns the merges learned by the last Train, in creation order.
// It is empty after Load.
func (t *Tokenizer) Merges() []tokenizer.Merge {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.merges)
}

// Close releases the session pool and the trie. It is idempotent.
func (t *Tokenizer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	var errs []error
	if t.pool != nil {
		if err := t.pool.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	t.trie.Release()
	t.pool, t.trie = nil, nil

	return errors.Join(errs...)
}
