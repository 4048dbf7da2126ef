package inference

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jamesainslie/go-bytephase/tokenizer"
)

func TestNewPool_InvalidSize(t *testing.T) {
	trie, _, splitter := testTrie(t)

	for _, size := range []int{0, -5} {
		pool, err := NewPool(trie, splitter, size)
		if err != nil {
			t.Fatalf("NewPool failed: %v", err)
		}
		if pool.Size() != 1 {
			t.Errorf("expected size 1 for input %d, got %d", size, pool.Size())
		}
		_ = pool.Close()
	}
}

func TestNewPool_ReleasedTrie(t *testing.T) {
	trie, _, splitter := testTrie(t)
	trie.Release()

	_, err := NewPool(trie, splitter, 2)
	if !errors.Is(err, tokenizer.ErrTrieReleased) {
		t.Errorf("expected ErrTrieReleased, got %v", err)
	}
}

func TestPool_AcquireRelease(t *testing.T) {
	trie, _, splitter := testTrie(t)
	pool, err := NewPool(trie, splitter, 2)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	defer func() { _ = pool.Close() }()

	ctx := context.Background()

	s1, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire 1 failed: %v", err)
	}
	s2, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire 2 failed: %v", err)
	}

	// Third acquire should block - test with timeout
	ctx3, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	_, err = pool.Acquire(ctx3)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}

	pool.Release(s1)

	s3, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire 3 failed: %v", err)
	}

	pool.Release(s2)
	pool.Release(s3)
}

func TestPool_ReleaseNil(t *testing.T) {
	trie, _, splitter := testTrie(t)
	pool, err := NewPool(trie, splitter, 1)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	defer func() { _ = pool.Close() }()

	pool.Release(nil)
}

func TestPool_Close_Idempotent(t *testing.T) {
	trie, _, splitter := testTrie(t)
	pool, err := NewPool(trie, splitter, 2)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	if err := pool.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if _, err := pool.Acquire(context.Background()); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
}

func TestPool_ReleaseAfterClose(t *testing.T) {
	trie, _, splitter := testTrie(t)
	pool, err := NewPool(trie, splitter, 1)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	session, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if err := pool.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Release should close the session instead of returning it to the pool
	pool.Release(session)
	if _, err := session.Encode(context.Background(), "x", ModeTrain); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}

func TestPool_AcquireContextCancellation(t *testing.T) {
	trie, _, splitter := testTrie(t)
	pool, err := NewPool(trie, splitter, 1)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	defer func() { _ = pool.Close() }()

	ctx := context.Background()

	s1, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire 1 failed: %v", err)
	}
	defer pool.Release(s1)

	cancelledCtx, cancel := context.WithCancel(ctx)
	cancel()

	_, err = pool.Acquire(cancelledCtx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPool_ConcurrentEncode(t *testing.T) {
	trie, _, splitter := testTrie(t)
	pool, err := NewPool(trie, splitter, 3)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	defer func() { _ = pool.Close() }()

	ctx := context.Background()
	want := make(map[string][]int32)
	texts := make([]string, 8)
	for i := range texts {
		texts[i] = fmt.Sprintf("the cat %d sat on the mat %d times", i, i*i)
		ids, err := pool.Encode(ctx, texts[i], ModeInference)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		want[texts[i]] = ids
	}

	var wg sync.WaitGroup
	var mismatches int64
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				text := texts[(i+j)%len(texts)]
				mode := Mode(j % 2)
				ids, err := pool.Encode(ctx, text, mode)
				if err != nil || !slices.Equal(ids, want[text]) {
					atomic.AddInt64(&mismatches, 1)
				}
			}
		}(i)
	}
	wg.Wait()

	if mismatches != 0 {
		t.Errorf("%d concurrent encodes differed from the sequential result", mismatches)
	}
}

func TestPool_Size(t *testing.T) {
	trie, _, splitter := testTrie(t)

	for _, size := range []int{1, 2, 5} {
		pool, err := NewPool(trie, splitter, size)
		if err != nil {
			t.Fatalf("NewPool failed for size %d: %v", size, err)
		}
		if got := pool.Size(); got != size {
			t.Errorf("Size() = %d, want %d", got, size)
		}
		_ = pool.Close()
	}
}
