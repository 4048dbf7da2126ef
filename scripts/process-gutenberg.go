//go:build ignore

// Process raw Project Gutenberg downloads into bytephase corpus documents.
// Usage: go run ./scripts/process-gutenberg.go [-dir testdata/gutenberg] [-max 200000]
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Book metadata
var books = map[string]struct {
	Title  string
	Author string
	ID     int // Gutenberg ebook number
}{
	"pride_and_prejudice": {"Pride and Prejudice", "Jane Austen", 1342},
	"moby_dick":           {"Moby Dick", "Herman Melville", 2701},
	"great_expectations":  {"Great Expectations", "Charles Dickens", 1400},
	"origin_of_species":   {"On the Origin of Species", "Charles Darwin", 1228},
	"tom_sawyer":          {"The Adventures of Tom Sawyer", "Mark Twain", 74},
	"jane_eyre":           {"Jane Eyre", "Charlotte Brontë", 1260},
	"faust":               {"Faust", "Johann Wolfgang von Goethe", 2229},
	"les_miserables":      {"Les Misérables", "Victor Hugo", 17489},
}

var (
	startMarkers = []string{
		"*** START OF THE PROJECT GUTENBERG EBOOK",
		"*** START OF THIS PROJECT GUTENBERG EBOOK",
		"*END*THE SMALL PRINT",
	}
	endMarkers = []string{
		"*** END OF THE PROJECT GUTENBERG EBOOK",
		"*** END OF THIS PROJECT GUTENBERG EBOOK",
		"End of Project Gutenberg",
		"End of the Project Gutenberg",
	}
	illustrationRe = regexp.MustCompile(`\[Illustration[^\]]*\]`)
	multiBlankRe   = regexp.MustCompile(`\n{3,}`)
)

func main() {
	dir := flag.String("dir", "testdata/gutenberg", "Directory holding *_raw.txt downloads")
	maxBytes := flag.Int("max", 200000, "Truncate bodies to about this many bytes (0 keeps everything)")
	flag.Parse()

	files, err := filepath.Glob(filepath.Join(*dir, "*_raw.txt"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No raw files found in %s.\n", *dir)
		os.Exit(1)
	}

	for _, rawFile := range files {
		name := strings.TrimSuffix(filepath.Base(rawFile), "_raw.txt")
		meta, ok := books[name]
		if !ok {
			fmt.Printf("Skipping unknown book: %s\n", name)
			continue
		}

		outFile := filepath.Join(*dir, name+".txt")
		source := fmt.Sprintf("https://www.gutenberg.org/ebooks/%d", meta.ID)
		if err := processBook(rawFile, outFile, meta.Title, meta.Author, source, *maxBytes); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", name, err)
			continue
		}
		fmt.Printf("%s -> %s\n", name, outFile)
	}
}

func processBook(inPath, outPath, title, author, source string, maxBytes int) error {
	content, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	if !utf8.Valid(content) {
		return fmt.Errorf("%s is not UTF-8; download the UTF-8 edition", inPath)
	}

	body := clean(extractBody(string(content)))
	if maxBytes > 0 && len(body) > maxBytes {
		body = truncate(body, maxBytes)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "# Title: %s\n", title)
	fmt.Fprintf(w, "# Author: %s\n", author)
	fmt.Fprintf(w, "# Source: %s\n", source)
	fmt.Fprintf(w, "\n")
	w.WriteString(body)
	w.WriteString("\n")

	return w.Flush()
}

// extractBody strips the Project Gutenberg license header and footer.
func extractBody(text string) string {
	start := 0
	for _, marker := range startMarkers {
		if idx := strings.Index(text, marker); idx != -1 {
			if eol := strings.Index(text[idx:], "\n"); eol != -1 {
				start = idx + eol + 1
			}
			break
		}
	}

	end := len(text)
	for _, marker := range endMarkers {
		if idx := strings.Index(text, marker); idx != -1 && idx >= start {
			end = idx
			break
		}
	}
	return text[start:end]
}

// clean normalizes line endings and drops illustration markers. Line breaks
// inside paragraphs are kept; they are part of what the tokenizer learns.
func clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = illustrationRe.ReplaceAllString(text, "")
	text = multiBlankRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// truncate cuts text at the first paragraph break after limit bytes.
func truncate(text string, limit int) string {
	if idx := strings.Index(text[limit:], "\n\n"); idx != -1 {
		return text[:limit+idx]
	}
	return text
}
