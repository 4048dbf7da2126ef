package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jamesainslie/go-bytephase/corpus"
	"github.com/jamesainslie/go-bytephase/tokenizer"
)

// ErrPoolClosed indicates Acquire on a closed pool.
var ErrPoolClosed = errors.New("inference: pool is closed")

// Pool manages a fixed set of sessions over one trie for concurrent encoding.
type Pool struct {
	sessions chan *Session
	size     int
	mu       sync.Mutex
	closed   bool
}

// NewPool creates a pool of size sessions sharing trie and splitter.
func NewPool(trie *tokenizer.Trie, splitter *corpus.Splitter, size int) (*Pool, error) {
	if size <= 0 {
		size = 1
	}

	pool := &Pool{
		sessions: make(chan *Session, size),
		size:     size,
	}

	// Pre-create all sessions
	for i := 0; i < size; i++ {
		session, err := NewSession(trie, splitter)
		if err != nil {
			_ = pool.Close() // original error takes precedence
			return nil, fmt.Errorf("creating session %d: %w", i, err)
		}
		pool.sessions <- session
	}

	return pool, nil
}

// Acquire gets a session from the pool, blocking if none available.
// Respects context cancellation. Returns ErrPoolClosed if the pool is closed.
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	select {
	case session, ok := <-p.sessions:
		if !ok {
			return nil, ErrPoolClosed
		}
		return session, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a session to the pool.
func (p *Pool) Release(s *Session) {
	if s == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = s.Close()
		return
	}

	select {
	case p.sessions <- s:
	default:
		_ = s.Close() // pool full
	}
}

// Encode acquires a session, encodes text and releases the session.
func (p *Pool) Encode(ctx context.Context, text string, mode Mode) ([]int32, error) {
	s, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(s)
	return s.Encode(ctx, text, mode)
}

// Close closes all idle sessions. Sessions still checked out are closed on Release.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sessions)
	p.mu.Unlock()

	var errs []error
	for session := range p.sessions {
		if err := session.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Size returns the pool size.
func (p *Pool) Size() int {
	return p.size
}
