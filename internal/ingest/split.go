package ingest

import (
	"bufio"
	"bytes"
	"io"

	"github.com/turtacn/patent-normalizer/internal/parser/format"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// splitBufferSize is the read buffer of the splitter; lines longer than it
// are still assembled whole.
const splitBufferSize = 256 << 10

// Split cuts the concatenated records of one member stream and calls emit
// for each, in order.
//
// XML and SGML records start at an XML declaration or DOCTYPE once the
// current record holds an element; SGML records may also start at a bare
// PATDOC.  Greenbook records start at every PATN header line and text ahead
// of the first header is discarded.
//
// When maxBytes is positive a record is buffered up to maxBytes+1 bytes and
// the rest of it is dropped, so the parser size guard still rejects it
// without the splitter holding the whole record.
func Split(r io.Reader, f format.Format, maxBytes int64, emit func([]byte) error) error {
	s := splitter{format: f, max: maxBytes, emit: emit}
	br := bufio.NewReaderSize(r, splitBufferSize)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			if ferr := s.line(line); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeRecordSplitFailed, "failed to read records")
		}
	}
	return s.flush()
}

type splitter struct {
	format format.Format
	max    int64
	emit   func([]byte) error

	cur  bytes.Buffer
	body bool
}

func (s *splitter) line(line []byte) error {
	if s.boundary(line) {
		if err := s.flush(); err != nil {
			return err
		}
	}
	if s.opensBody(line) {
		s.body = true
	}
	if s.max > 0 {
		room := s.max + 1 - int64(s.cur.Len())
		if room <= 0 {
			return nil
		}
		if int64(len(line)) > room {
			line = line[:room]
		}
	}
	s.cur.Write(line)
	return nil
}

func (s *splitter) boundary(line []byte) bool {
	t := bytes.TrimLeft(line, " \t\r\ufeff")
	if s.format == format.Greenbook {
		return isHeader(t)
	}
	if !s.body {
		return false
	}
	if bytes.HasPrefix(t, []byte("<?xml")) || bytes.HasPrefix(t, []byte("<!DOCTYPE")) {
		return true
	}
	return s.format == format.SGML && bytes.HasPrefix(t, []byte("<PATDOC"))
}

func (s *splitter) opensBody(line []byte) bool {
	t := bytes.TrimLeft(line, " \t\r\ufeff")
	if s.format == format.Greenbook {
		return isHeader(t)
	}
	for {
		switch {
		case bytes.HasPrefix(t, []byte("<?")):
			i := bytes.Index(t, []byte("?>"))
			if i < 0 {
				return false
			}
			t = bytes.TrimLeft(t[i+2:], " \t\r")
		case bytes.HasPrefix(t, []byte("<!")):
			i := bytes.IndexByte(t, '>')
			if i < 0 {
				return false
			}
			t = bytes.TrimLeft(t[i+1:], " \t\r")
		default:
			return len(t) > 1 && t[0] == '<' && t[1] != '/'
		}
	}
}

func (s *splitter) flush() error {
	defer func() {
		s.cur.Reset()
		s.body = false
	}()
	if !s.body || len(bytes.TrimSpace(s.cur.Bytes())) == 0 {
		return nil
	}
	rec := make([]byte, s.cur.Len())
	copy(rec, s.cur.Bytes())
	return s.emit(rec)
}

func isHeader(t []byte) bool {
	return bytes.Equal(bytes.TrimRight(t, " \t\r\n"), []byte("PATN"))
}

//Personal.AI order the ending
