package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const document = `# Title: Pride and Prejudice
# Author: Jane Austen
# Source: https://www.gutenberg.org/ebooks/1342

It is a truth universally acknowledged, that a single man in possession
of a good fortune, must be in want of a wife.`

func runBench(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func corpusDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pride.txt"), []byte(document), 0o644))
	return dir
}

func TestSweepCommand(t *testing.T) {
	out, err := runBench(t, "--corpus", corpusDir(t), "--sweep",
		"--sweep-min", "260", "--sweep-max", "300", "--sweep-step", "20", "--holdout", "1")
	require.NoError(t, err)
	require.Contains(t, out, "Loaded 1 documents")
	require.Contains(t, out, "VOCAB")
	require.Contains(t, out, "Best:")
}

func TestCommandErrors(t *testing.T) {
	dir := corpusDir(t)
	tests := []struct {
		name string
		args []string
	}{
		{"no mode", []string{"--corpus", dir}},
		{"missing corpus", []string{"--corpus", filepath.Join(dir, "missing"), "--sweep"}},
		{"empty range", []string{"--corpus", dir, "--sweep", "--sweep-min", "300", "--sweep-max", "300"}},
		{"bad scheme", []string{"--corpus", dir, "--sweep", "--scheme", "bogus"}},
		{"missing vocab", []string{"--corpus", dir, "--vocab", filepath.Join(dir, "none.bpe")}},
		{"bad flag value", []string{"--corpus", dir, "--sweep", "--holdout", "many"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runBench(t, tt.args...)
			require.Error(t, err)
		})
	}
}
