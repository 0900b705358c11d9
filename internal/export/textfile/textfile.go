// Package textfile provides an export.Sink that writes one sentence per line
// of text.
package textfile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dekarrin/sentgen/internal/export"
)

// Stdout is the path that Open treats as standard output.
const Stdout = "-"

// Sink writes the text of each record followed by a newline.
type Sink struct {
	w      *bufio.Writer
	closer io.Closer
	count  int
}

// New returns a Sink that writes to w. Closing the Sink flushes it but does
// not close w.
func New(w io.Writer) *Sink {
	return &Sink{w: bufio.NewWriter(w)}
}

// Open creates or truncates the file at path and returns a Sink that writes
// to it. If path is Stdout, records are written to standard output instead.
func Open(path string) (*Sink, error) {
	if path == Stdout {
		return New(os.Stdout), nil
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0770); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	s := New(f)
	s.closer = f
	return s, nil
}

func (s *Sink) Write(ctx context.Context, r export.Record) (export.Record, error) {
	if err := ctx.Err(); err != nil {
		return export.Record{}, err
	}

	r, err := export.Prepare(r)
	if err != nil {
		return export.Record{}, err
	}

	if _, err := s.w.WriteString(r.Text + "\n"); err != nil {
		return export.Record{}, err
	}
	s.count++

	return r, nil
}

// Count returns the number of records written so far.
func (s *Sink) Count() int {
	return s.count
}

func (s *Sink) Close() error {
	flushErr := s.w.Flush()
	if s.closer == nil {
		return flushErr
	}

	closeErr := s.closer.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
