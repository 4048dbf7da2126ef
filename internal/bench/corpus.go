// Package bench measures tokenizer compression on prepared text corpora.
package bench

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Header contains metadata parsed from a document header.
type Header struct {
	Source string
	Author string
	Title  string
}

// ParseHeader extracts metadata from document header comments.
// Returns the header, remaining text after header, and any error.
func ParseHeader(text string) (Header, string, error) {
	var h Header
	scanner := bufio.NewScanner(strings.NewReader(text))
	bodyStart := len(text)
	lineEnd := 0

	for scanner.Scan() {
		line := scanner.Text()
		lineEnd += len(line) + 1 // +1 for newline

		if !strings.HasPrefix(line, "#") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			bodyStart = lineEnd - len(line) - 1
			break
		}

		line = strings.TrimPrefix(line, "# ")
		if value, ok := strings.CutPrefix(line, "Source:"); ok {
			h.Source = strings.TrimSpace(value)
		} else if value, ok := strings.CutPrefix(line, "Author:"); ok {
			h.Author = strings.TrimSpace(value)
		} else if value, ok := strings.CutPrefix(line, "Title:"); ok {
			h.Title = strings.TrimSpace(value)
		}
	}

	if err := scanner.Err(); err != nil {
		return Header{}, "", fmt.Errorf("scan header: %w", err)
	}

	if h.Source == "" {
		return Header{}, "", errors.New("missing Source in header")
	}

	body := strings.TrimSpace(text[min(bodyStart, len(text)):])
	return h, body, nil
}

// Document is a loaded corpus file.
type Document struct {
	ID     string // filename without extension
	Source string
	Author string
	Title  string
	Text   string // body text
}

// LoadDocument loads and parses a corpus file.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	header, body, err := ParseHeader(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	base := filepath.Base(path)
	id := strings.TrimSuffix(base, filepath.Ext(base))

	return &Document{
		ID:     id,
		Source: header.Source,
		Author: header.Author,
		Title:  header.Title,
		Text:   body,
	}, nil
}

// LoadCorpus loads all .txt documents from a directory.
func LoadCorpus(dir string) ([]*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var docs []*Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) != ".txt" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		doc, err := LoadDocument(path)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", entry.Name(), err)
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Split partitions docs into a training and an evaluation set. Every n-th
// document goes to evaluation; n <= 1 uses every document for both.
func Split(docs []*Document, n int) (train, eval []*Document) {
	if n <= 1 {
		return docs, docs
	}
	for i, d := range docs {
		if i%n == n-1 {
			eval = append(eval, d)
		} else {
			train = append(train, d)
		}
	}
	return train, eval
}

// Concat joins the bodies of docs, separated by blank lines.
func Concat(docs []*Document) string {
	var sb strings.Builder
	for i, d := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(d.Text)
	}
	return sb.String()
}
