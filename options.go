package bytephase

import (
	"log/slog"
	"runtime"

	"github.com/jamesainslie/go-bytephase/corpus"
	"github.com/jamesainslie/go-bytephase/tokenizer"
)

// Option configures a Tokenizer.
type Option func(*config)

type config struct {
	pattern    string
	readBuffer int
	scheme     tokenizer.Scheme
	poolSize   int
	logger     *slog.Logger
}

func defaultConfig() config {
	return config{
		pattern:    corpus.GPT2Pattern,
		readBuffer: corpus.DefaultBufferSize,
		scheme:     tokenizer.SchemeEOT,
		poolSize:   runtime.NumCPU(),
		logger:     slog.Default(),
	}
}

// WithPattern sets the pretokenizer regular expression (default: corpus.GPT2Pattern).
func WithPattern(p string) Option {
	return func(c *config) {
		if p != "" {
			c.pattern = p
		}
	}
}

// WithReadBuffer sets the chunk size used to read training files (default: 2 MiB).
func WithReadBuffer(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.readBuffer = n
		}
	}
}

// WithScheme sets the special token layout used by Train (default: tokenizer.SchemeEOT).
func WithScheme(s tokenizer.Scheme) Option {
	return func(c *config) {
		c.scheme = s
	}
}

// WithPoolSize sets the encoding session pool size (default: runtime.NumCPU()).
func WithPoolSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
