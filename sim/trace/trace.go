package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMalformed is wrapped by every line that is not "cycle:process".
var ErrMalformed = errors.New("malformed trace line")

// LineError locates a malformed line in its input.
type LineError struct {
	Line int    // 1-based line number
	Text string // the offending line, trimmed
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// ParseLine decodes a single trace line. The cycle may be negative; judging
// it is left to the caller.
func ParseLine(line string) (Record, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Record{}, fmt.Errorf("%w: empty line", ErrMalformed)
	}
	cycle, name, ok := strings.Cut(line, ":")
	if !ok {
		return Record{}, fmt.Errorf("%w: missing ':' separator", ErrMalformed)
	}
	if name == "" || strings.Contains(name, ":") {
		return Record{}, fmt.Errorf("%w: bad process field %q", ErrMalformed, name)
	}
	n, err := strconv.ParseInt(cycle, 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: bad cycle %q", ErrMalformed, cycle)
	}
	return Record{Cycle: n, Process: name}, nil
}

// Reader decodes trace lines one at a time.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next record. It returns io.EOF once input is exhausted and
// a *LineError for a malformed line.
func (r *Reader) Next() (Record, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return Record{}, fmt.Errorf("reading trace: %w", err)
		}
		return Record{}, io.EOF
	}
	r.line++
	text := r.scanner.Text()
	rec, err := ParseLine(text)
	if err != nil {
		return Record{}, &LineError{Line: r.line, Text: strings.TrimSpace(text), Err: err}
	}
	return rec, nil
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

// Write encodes records, one per line.
func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		if _, err := bw.WriteString(rec.String()); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	return nil
}

// WriteFile writes records to path, replacing any existing file.
func WriteFile(path string, records []Record) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trace file: %w", err)
	}
	if err := Write(file, records); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
