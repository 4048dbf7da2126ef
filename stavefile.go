//go:build stave

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/yaklabco/stave/pkg/sh"
	"github.com/yaklabco/stave/pkg/st"
	"github.com/yaklabco/stave/pkg/target"
)

// Default target when running `stave` with no arguments.
var Default = All

// Aliases for common targets.
var Aliases = map[string]interface{}{
	"b": Build,
	"t": Test,
	"l": Lint,
	"c": Clean,
}

// All runs the complete build pipeline: lint, test, and build.
func All() error {
	st.Deps(Init)
	st.Deps(Lint, Test)
	st.Deps(Build)
	return nil
}

// Init ensures the module dependencies are up to date.
func Init() error {
	return sh.Run("go", "mod", "tidy")
}

// Build compiles both bytephase and bytephase-bench binaries.
func Build() error {
	st.Deps(Init)
	st.Deps(Build_CLI, Build_Bench)
	return nil
}

// Build_CLI compiles the bytephase binary with version information.
func Build_CLI() error {
	return buildBinary("bytephase")
}

// Build_Bench compiles the bytephase-bench binary with version information.
func Build_Bench() error {
	return buildBinary("bytephase-bench")
}

func buildBinary(name string) error {
	st.Deps(Init)

	out := "bin/" + name
	rebuild, err := target.Glob(out, "**/*.go", "go.mod", "go.sum")
	if err != nil {
		return fmt.Errorf("checking rebuild: %w", err)
	}
	if !rebuild {
		if st.Verbose() {
			fmt.Printf("%s is up to date\n", name)
		}
		return nil
	}

	return sh.RunV("go", "build", "-ldflags", buildLdflags(), "-o", out, "./cmd/"+name)
}

// buildLdflags returns ldflags for version injection.
func buildLdflags() string {
	version, _ := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	commit, _ := sh.Output("git", "rev-parse", "--short", "HEAD")
	date := time.Now().Format(time.RFC3339)

	return fmt.Sprintf(
		"-X main.version=%s -X main.commit=%s -X main.date=%s",
		strings.TrimSpace(version),
		strings.TrimSpace(commit),
		date,
	)
}

// Test runs all tests with race detection and coverage.
func Test() error {
	st.Deps(Init)
	return sh.RunV("go", "test", "-race", "-cover", "./...")
}

// TestShort runs tests in short mode (skips long-running tests).
func TestShort() error {
	st.Deps(Init)
	return sh.RunV("go", "test", "-short", "-race", "./...")
}

// TestVerbose runs tests with verbose output.
func TestVerbose() error {
	st.Deps(Init)
	return sh.RunV("go", "test", "-race", "-cover", "-v", "./...")
}

// Lint runs golangci-lint on the codebase.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// LintFix runs golangci-lint with auto-fix enabled.
func LintFix() error {
	return sh.RunV("golangci-lint", "run", "--fix", "./...")
}

// Fmt formats all Go code using gofmt and goimports.
func Fmt() error {
	if err := sh.Run("gofmt", "-w", "."); err != nil {
		return fmt.Errorf("gofmt: %w", err)
	}
	if err := sh.Run("goimports", "-w", "."); err != nil {
		return fmt.Errorf("goimports: %w", err)
	}
	return nil
}

// Vet runs go vet on all packages.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	artifacts := []string{
		"bin/",
		"bytephase",
		"bytephase-bench",
		"coverage.out",
		"coverage.html",
	}
	for _, a := range artifacts {
		if err := sh.Rm(a); err != nil {
			return fmt.Errorf("removing %s: %w", a, err)
		}
	}
	return nil
}

// Install builds and installs the binaries to GOBIN.
func Install() error {
	st.Deps(Build)

	gocmd := st.GoCmd()
	bin, err := sh.Output(gocmd, "env", "GOBIN")
	if err != nil {
		return fmt.Errorf("determining GOBIN: %w", err)
	}
	if bin == "" {
		gopath, err := sh.Output(gocmd, "env", "GOPATH")
		if err != nil {
			return fmt.Errorf("determining GOPATH: %w", err)
		}
		bin = gopath + "/bin"
	}

	binaries := []string{"bytephase", "bytephase-bench"}
	for _, name := range binaries {
		src := "bin/" + name
		dst := bin + "/" + name
		if runtime.GOOS == "windows" {
			dst += ".exe"
		}
		if err := sh.Copy(dst, src); err != nil {
			return fmt.Errorf("installing %s: %w", name, err)
		}
		if st.Verbose() {
			fmt.Printf("Installed %s to %s\n", name, dst)
		}
	}
	return nil
}

// Corpus namespace for corpus preparation targets.
type Corpus st.Namespace

// Gutenberg converts testdata/gutenberg/*_raw.txt downloads into corpus documents.
func (Corpus) Gutenberg() error {
	return sh.RunV("go", "run", "./scripts/process-gutenberg.go", "-dir", corpusDir())
}

// Bench namespace for benchmark-related targets.
type Bench st.Namespace

// Vocab trains testdata/vocab.bpe from the prepared corpus documents.
func (Bench) Vocab() error {
	st.Deps(Build_CLI)

	docs, err := filepath.Glob(filepath.Join(corpusDir(), "*.txt"))
	if err != nil {
		return err
	}
	var raw []string
	for _, d := range docs {
		if !strings.HasSuffix(d, "_raw.txt") {
			raw = append(raw, d)
		}
	}
	if len(raw) == 0 {
		return fmt.Errorf("no corpus documents in %s; run stave corpus:gutenberg", corpusDir())
	}

	// bytephase trains from a single file
	merged := filepath.Join(os.TempDir(), "bytephase-corpus.txt")
	var sb strings.Builder
	for _, d := range raw {
		data, err := os.ReadFile(d)
		if err != nil {
			return err
		}
		sb.Write(data)
		sb.WriteString("\n")
	}
	if err := os.WriteFile(merged, []byte(sb.String()), 0o644); err != nil {
		return err
	}
	defer os.Remove(merged)

	size := os.Getenv("BYTEPHASE_BENCH_VOCAB_SIZE")
	if size == "" {
		size = "4096"
	}
	return sh.RunV("./bin/bytephase", "train", merged, "--vocab", size, "--out", benchVocab())
}

// Run evaluates the benchmark vocabulary against the test corpus.
func (Bench) Run() error {
	st.Deps(Build_Bench)

	if _, err := os.Stat(benchVocab()); os.IsNotExist(err) {
		return fmt.Errorf("vocabulary not found: %s (run stave bench:vocab)", benchVocab())
	}
	return sh.RunV("./bin/bytephase-bench",
		"--vocab", benchVocab(),
		"--corpus", corpusDir(),
	)
}

// Sweep trains one vocabulary per size and ranks them by compression.
func (Bench) Sweep() error {
	st.Deps(Build_Bench)

	return sh.RunV("./bin/bytephase-bench",
		"--corpus", corpusDir(),
		"--sweep",
	)
}

func corpusDir() string {
	if dir := os.Getenv("BYTEPHASE_CORPUS"); dir != "" {
		return dir
	}
	return "testdata/gutenberg"
}

func benchVocab() string {
	if path := os.Getenv("BYTEPHASE_BENCH_VOCAB"); path != "" {
		return path
	}
	return "testdata/vocab.bpe"
}

// CI runs the full CI pipeline (lint, test, build).
func CI() error {
	st.Deps(Init)
	st.SerialDeps(Lint, Test, Build)
	return nil
}

// Check runs quick validation (vet, lint, short tests).
func Check() error {
	st.Deps(Vet, Lint, TestShort)
	return nil
}

// Coverage generates a coverage report.
func Coverage() error {
	st.Deps(Init)
	if err := sh.RunV("go", "test", "-race", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-html=coverage.out", "-o", "coverage.html")
}

// Tidy runs go mod tidy and verifies the go.sum is clean.
func Tidy() error {
	if err := sh.Run("go", "mod", "tidy"); err != nil {
		return err
	}
	// Verify no changes to go.sum (useful for CI)
	output, err := sh.Output("git", "diff", "--exit-code", "go.sum")
	if err != nil {
		if output != "" {
			return fmt.Errorf("go.sum is not clean:\n%s", output)
		}
	}
	return nil
}
