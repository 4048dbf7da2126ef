package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sample = "It was the best of times, it was the worst of times; " +
	"it was the age of wisdom   and   foolishness.\n\n" +
	"Naïve café owners said: \"we'll see\" 1,234 times, 日本語 テキスト ✓✓ done  \n"

func wholeCount(s *Splitter, text string) map[string]int64 {
	counts := make(map[string]int64)
	for _, w := range s.Split(text) {
		counts[w]++
	}
	return counts
}

func TestCountWords_ChunkingInvariant(t *testing.T) {
	s := MustSplitter("")
	want := wholeCount(s, sample)

	for _, size := range []int{1, 2, 3, 5, 7, 16, 64, 4096} {
		got, err := CountWords(context.Background(), strings.NewReader(sample), s, size)
		if err != nil {
			t.Fatalf("size %d: CountWords() error = %v", size, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("size %d: counts differ from whole-text count (-want +got):\n%s", size, diff)
		}
	}
}

func TestCountWords_ContractionsAcrossReads(t *testing.T) {
	s := MustSplitter("")
	text := "we'll see, they've said you're sure it's fine; I'd've gone"
	want := wholeCount(s, text)

	for size := 1; size <= len(text); size++ {
		got, err := CountWords(context.Background(), strings.NewReader(text), s, size)
		if err != nil {
			t.Fatalf("size %d: CountWords() error = %v", size, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("size %d: counts mismatch (-want +got):\n%s", size, diff)
		}
	}
}

func TestCountWords_ChunksWithoutMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		text    string
	}{
		{"match longer than chunk", `"[^"]*"`, `plain "a quoted string longer than any chunk" and "x" tail`},
		{"long gap between matches", `\d+`, "abc 12 defghijklmnopqrstuvwxyz 345 uvw 6"},
		{"no match at all", `\d+`, "no digits anywhere in here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := MustSplitter(tt.pattern)
			want := wholeCount(s, tt.text)
			for _, size := range []int{1, 2, 3, 5, 8, 13} {
				got, err := CountWords(context.Background(), strings.NewReader(tt.text), s, size)
				if err != nil {
					t.Fatalf("size %d: CountWords() error = %v", size, err)
				}
				if diff := cmp.Diff(want, got); diff != "" {
					t.Errorf("size %d: counts mismatch (-want +got):\n%s", size, diff)
				}
			}
		})
	}
}

func TestCountWords_FinalWordCounted(t *testing.T) {
	s := MustSplitter("")
	got, err := CountWords(context.Background(), strings.NewReader("to be or not to be"), s, 4)
	if err != nil {
		t.Fatalf("CountWords() error = %v", err)
	}
	if got[" be"] != 2 {
		t.Errorf("count(\" be\") = %d, want 2", got[" be"])
	}
}

func TestCountWords_DropsInvalidUTF8(t *testing.T) {
	s := MustSplitter("")
	got, err := CountWords(context.Background(), strings.NewReader("ab\xffcd ef"), s, 3)
	if err != nil {
		t.Fatalf("CountWords() error = %v", err)
	}
	want := map[string]int64{"abcd": 1, " ef": 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestCountWords_Empty(t *testing.T) {
	got, err := CountWords(context.Background(), strings.NewReader(""), MustSplitter(""), 8)
	if err != nil {
		t.Fatalf("CountWords() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("counts = %v, want empty", got)
	}
}

func TestCountWords_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CountWords(ctx, strings.NewReader(sample), MustSplitter(""), 4)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("CountWords() error = %v, want context.Canceled", err)
	}
}

func TestCountFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.txt")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	s := MustSplitter("")
	got, err := CountFile(context.Background(), path, s, 10)
	if err != nil {
		t.Fatalf("CountFile() error = %v", err)
	}
	if diff := cmp.Diff(wholeCount(s, sample), got); diff != "" {
		t.Errorf("CountFile() mismatch (-want +got):\n%s", diff)
	}

	if _, err := CountFile(context.Background(), filepath.Join(t.TempDir(), "missing"), s, 10); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("CountFile(missing) error = %v, want os.ErrNotExist", err)
	}
}

func TestCutIncomplete(t *testing.T) {
	check := []byte("a✓") // ✓ is e2 9c 93
	tests := []struct {
		in       []byte
		wantHead string
		wantTail string
	}{
		{check, "a✓", ""},
		{check[:3], "a", "\xe2\x9c"},
		{check[:2], "a", "\xe2"},
		{[]byte("ab\xff"), "ab\xff", ""},
	}
	for _, tt := range tests {
		head, tail := cutIncomplete(tt.in)
		if string(head) != tt.wantHead || string(tail) != tt.wantTail {
			t.Errorf("cutIncomplete(%q) = %q, %q; want %q, %q", tt.in, head, tail, tt.wantHead, tt.wantTail)
		}
	}
}
