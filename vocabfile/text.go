package vocabfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jamesainslie/go-bytephase/tokenizer"
)

const patternPrefix = "regex pattern: "

// maxLine bounds a single text line. A symbol of n bytes needs at most 4n+11 characters.
const maxLine = 1 << 20

func writeHeader(bw *bufio.Writer, v *Vocabulary) {
	bw.WriteString(v.Version)
	bw.WriteByte('\n')
	bw.WriteString(patternPrefix)
	bw.WriteString(v.Pattern)
	bw.WriteByte('\n')
}

func writeText(w io.Writer, v *Vocabulary) error {
	bw := bufio.NewWriter(w)
	writeHeader(bw, v)
	var line []byte
	for _, id := range v.Table.IDs() {
		seq, _ := v.Table.Bytes(id)
		line = strconv.AppendInt(line[:0], int64(id), 10)
		for _, b := range seq {
			line = append(line, ' ')
			line = strconv.AppendUint(line, uint64(b), 10)
		}
		line = append(line, '\n')
		bw.Write(line)
	}
	return bw.Flush()
}

func writeDebug(w io.Writer, v *Vocabulary) error {
	bw := bufio.NewWriter(w)
	writeHeader(bw, v)
	for _, id := range v.Table.IDs() {
		text, err := tokenizer.Decode(v.Table, []int32{id})
		if err != nil {
			return err
		}
		fmt.Fprintf(bw, "%d %s\n", id, text)
	}
	return bw.Flush()
}

func readText(r io.Reader) (*Vocabulary, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	lineNo := 0
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		lineNo++
		return strings.TrimSuffix(sc.Text(), "\r"), true
	}

	version, ok := next()
	if !ok {
		return nil, scanErr(sc, "missing version line")
	}
	version = strings.TrimSpace(version)
	scheme, err := SchemeFor(version)
	if err != nil {
		return nil, fmt.Errorf("line 1: %w", err)
	}

	header, ok := next()
	if !ok {
		return nil, scanErr(sc, "missing pattern line")
	}
	fields := strings.Fields(header)
	if len(fields) == 0 || fields[0] != "regex" {
		return nil, fmt.Errorf("%w: line 2: expected pattern header, got %q", ErrMalformed, header)
	}
	pattern := ""
	if i := strings.Index(header, ": "); i >= 0 {
		pattern = header[i+2:]
	}

	syms := make(symbols)
	var seq []byte
	for {
		line, ok := next()
		if !ok {
			break
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		id, err := strconv.ParseInt(fields[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad id %q", ErrMalformed, lineNo, fields[0])
		}
		seq = seq[:0]
		for _, f := range fields[1:] {
			b, err := strconv.ParseUint(f, 10, 8)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: bad byte %q", ErrMalformed, lineNo, f)
			}
			seq = append(seq, byte(b))
		}
		if err := syms.add(id, seq); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, lineNo+1, err)
	}
	table, err := syms.table()
	if err != nil {
		return nil, err
	}

	return &Vocabulary{Version: version, Pattern: pattern, Scheme: scheme, Table: table}, nil
}

func scanErr(sc *bufio.Scanner, msg string) error {
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, msg, err)
	}
	return fmt.Errorf("%w: %s", ErrMalformed, msg)
}
