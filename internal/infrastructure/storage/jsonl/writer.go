// Package jsonl writes normalized documents as JSON lines.
package jsonl

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/turtacn/patent-normalizer/pkg/errors"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

// Stdout is the path that selects standard output.
const Stdout = "-"

// Writer appends one document per line.  It is safe for concurrent use;
// lines are never interleaved.
type Writer struct {
	mu     sync.Mutex
	buf    *bufio.Writer
	enc    *json.Encoder
	closer io.Closer
	path   string
	count  int64
}

// Open appends to the file at path, creating it and its directory when
// missing.  Stdout writes to the process standard output.
func Open(path string) (*Writer, error) {
	if path == Stdout || path == "" {
		return New(os.Stdout), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeInternal, "failed to create directory for %s", path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeInternal, "failed to open %s", path)
	}
	w := New(f)
	w.closer = f
	w.path = path
	return w, nil
}

// New writes to w.  Closing the Writer flushes but does not close w.
func New(w io.Writer) *Writer {
	buf := bufio.NewWriterSize(w, 64<<10)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &Writer{buf: buf, enc: enc, path: Stdout}
}

// Path is the file written to, or Stdout.
func (w *Writer) Path() string { return w.path }

// Write appends doc as one line.
func (w *Writer) Write(doc *dto.Document) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(doc); err != nil {
		return errors.Wrapf(err, errors.ErrCodeSerialization, "failed to write document %s", doc.ID.ID)
	}
	w.count++
	return nil
}

// Count is the number of lines written.
func (w *Writer) Count() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Flush writes buffered lines through.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.buf.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to flush json lines")
	}
	return nil
}

// Close flushes and closes the file Open created.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

// Read decodes every line of r, calling fn for each document in order.
func Read(r io.Reader, fn func(*dto.Document) error) error {
	dec := json.NewDecoder(r)
	for line := 1; dec.More(); line++ {
		var doc dto.Document
		if err := dec.Decode(&doc); err != nil {
			return errors.Wrapf(err, errors.ErrCodeSerialization, "line %d is not a document", line)
		}
		if err := fn(&doc); err != nil {
			return err
		}
	}
	return nil
}

//Personal.AI order the ending
