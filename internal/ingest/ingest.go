// Package ingest reads USPTO bulk products and yields their records one at
// a time.  It understands the distribution shapes used since 1976: plain
// concatenated files, zip archives, zip archives of per-document zips
// (2001-2010), and tar or gzipped tar bundles.
package ingest

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patent-normalizer/internal/parser"
	"github.com/turtacn/patent-normalizer/internal/parser/format"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// Kind is the container shape of an input file.
type Kind string

const (
	KindPlain Kind = "plain"
	KindZip   Kind = "zip"
	KindTar   Kind = "tar"
	KindTarGz Kind = "tar.gz"
	KindGzip  Kind = "gzip"
)

// skippedSuffixes are members that never hold records: page images and
// the DTD and entity files shipped next to the data.
var skippedSuffixes = []string{
	".tif", ".tiff", ".jpg", ".jpeg", ".png", ".gif", ".pdf",
	".dtd", ".ent", ".mod", ".xsd", ".md5",
}

// Reader walks input files.  It is safe for concurrent use.
type Reader struct {
	detector *format.Detector
	maxBytes int64
	logger   logging.Logger
	metrics  *prometheus.NormalizerMetrics
}

// Option configures a Reader.
type Option func(*Reader)

// WithMaxRecordBytes caps how much of one record is buffered; see Split.
func WithMaxRecordBytes(n int64) Option { return func(r *Reader) { r.maxBytes = n } }

func WithDetector(d *format.Detector) Option             { return func(r *Reader) { r.detector = d } }
func WithLogger(l logging.Logger) Option                 { return func(r *Reader) { r.logger = l } }
func WithMetrics(m *prometheus.NormalizerMetrics) Option { return func(r *Reader) { r.metrics = m } }

// New returns a Reader.
func New(opts ...Option) *Reader {
	r := &Reader{maxBytes: parser.DefaultMaxDocumentBytes}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.OrDefault(r.logger)
	if r.detector == nil {
		r.detector = format.NewDetector(format.DefaultScanLines)
	}
	if r.metrics == nil {
		r.metrics = prometheus.NewNoopNormalizerMetrics()
	}
	return r
}

// Walk calls fn for every record of the file at p, in file order.  Record
// indexes count from 0 across the whole file.  Walk stops at the first
// error returned by fn or when ctx is done.
func (r *Reader) Walk(ctx context.Context, p string, fn func(parser.Record) error) error {
	kind, err := KindOf(p)
	if err != nil {
		return err
	}
	w := &walk{Reader: r, ctx: ctx, fn: fn, archive: filepath.Base(p)}
	r.logger.Debug("walking input",
		logging.String(logging.KeyArchive, p),
		logging.String("kind", string(kind)))

	switch kind {
	case KindZip:
		zr, err := zip.OpenReader(p)
		if err != nil {
			return errors.Wrapf(err, errors.ErrCodeArchiveUnreadable, "failed to open zip %s", p)
		}
		defer zr.Close()
		return w.zip(&zr.Reader, "")
	default:
		f, err := os.Open(p)
		if err != nil {
			return errors.Wrapf(err, errors.ErrCodeArchiveUnreadable, "failed to open %s", p)
		}
		defer f.Close()
		return w.stream(kind, f, filepath.Base(p))
	}
}

// WalkReader walks an input that is already open, such as an HTTP upload.
// name is used for kind and format detection.
func (r *Reader) WalkReader(ctx context.Context, name string, src io.Reader, fn func(parser.Record) error) error {
	w := &walk{Reader: r, ctx: ctx, fn: fn, archive: path.Base(name)}
	br := bufio.NewReader(src)
	magic, _ := br.Peek(512)
	kind := kindOf(name, magic)
	if kind == KindZip {
		data, err := io.ReadAll(br)
		if err != nil {
			return errors.Wrapf(err, errors.ErrCodeArchiveUnreadable, "failed to read %s", name)
		}
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return errors.Wrapf(err, errors.ErrCodeArchiveUnreadable, "failed to open zip %s", name)
		}
		return w.zip(zr, "")
	}
	return w.stream(kind, br, path.Base(name))
}

// Records collects every record of the file at p.  Meant for small inputs
// and tests; large archives should be walked.
func (r *Reader) Records(ctx context.Context, p string) ([]parser.Record, error) {
	var out []parser.Record
	err := r.Walk(ctx, p, func(rec parser.Record) error {
		out = append(out, rec)
		return nil
	})
	return out, err
}

// ─────────────────────────────────────────────────────────────────────────────
// Kind detection
// ─────────────────────────────────────────────────────────────────────────────

// KindOf resolves the container shape of the file at p from its name and,
// for names without a known extension, from its leading bytes.
func KindOf(p string) (Kind, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrCodeArchiveUnreadable, "failed to open %s", p)
	}
	defer f.Close()
	magic := make([]byte, 512)
	n, err := io.ReadFull(f, magic)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", errors.Wrapf(err, errors.ErrCodeArchiveUnreadable, "failed to read %s", p)
	}
	return kindOf(p, magic[:n]), nil
}

func kindOf(name string, magic []byte) Kind {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return KindZip
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return KindTarGz
	case strings.HasSuffix(lower, ".tar"):
		return KindTar
	case strings.HasSuffix(lower, ".gz"):
		return KindGzip
	}
	switch {
	case len(magic) >= 4 && magic[0] == 'P' && magic[1] == 'K' && magic[2] == 3 && magic[3] == 4:
		return KindZip
	case len(magic) >= 262 && string(magic[257:262]) == "ustar":
		return KindTar
	case len(magic) >= 2 && magic[0] == 0x1f && magic[1] == 0x8b:
		return KindGzip
	}
	return KindPlain
}

// ─────────────────────────────────────────────────────────────────────────────
// Walking
// ─────────────────────────────────────────────────────────────────────────────

type walk struct {
	*Reader
	ctx     context.Context
	fn      func(parser.Record) error
	archive string
	index   int
}

func (w *walk) stream(kind Kind, src io.Reader, name string) error {
	switch kind {
	case KindTar:
		return w.tar(tar.NewReader(src))
	case KindTarGz, KindGzip:
		gz, err := gzip.NewReader(src)
		if err != nil {
			return errors.Wrapf(err, errors.ErrCodeArchiveUnreadable, "failed to open gzip %s", name)
		}
		defer gz.Close()
		inner := strings.TrimSuffix(strings.TrimSuffix(name, ".gz"), ".GZ")
		if kind == KindTarGz {
			return w.tar(tar.NewReader(gz))
		}
		br := bufio.NewReader(gz)
		magic, _ := br.Peek(512)
		if k := kindOf("", magic); k == KindTar {
			return w.tar(tar.NewReader(br))
		}
		return w.member(inner, br)
	case KindZip:
		data, err := io.ReadAll(src)
		if err != nil {
			return errors.Wrapf(err, errors.ErrCodeArchiveUnreadable, "failed to read %s", name)
		}
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return errors.Wrapf(err, errors.ErrCodeArchiveUnreadable, "failed to open zip %s", name)
		}
		return w.zip(zr, name+"/")
	default:
		return w.member(name, src)
	}
}

// zip walks the members of zr in directory order.  Member zips are read
// into memory and walked in place.
func (w *walk) zip(zr *zip.Reader, prefix string) error {
	for _, f := range zr.File {
		if err := w.ctx.Err(); err != nil {
			return err
		}
		if f.FileInfo().IsDir() || w.skip(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return errors.Wrapf(err, errors.ErrCodeArchiveUnreadable, "failed to open member %s", f.Name)
		}
		if strings.HasSuffix(strings.ToLower(f.Name), ".zip") {
			err = w.stream(KindZip, rc, prefix+f.Name)
		} else {
			err = w.member(prefix+f.Name, rc)
		}
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *walk) tar(tr *tar.Reader) error {
	for {
		if err := w.ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, errors.ErrCodeArchiveUnreadable, "failed to read tar %s", w.archive)
		}
		if hdr.Typeflag != tar.TypeReg || w.skip(hdr.Name) {
			continue
		}
		if strings.HasSuffix(strings.ToLower(hdr.Name), ".zip") {
			err = w.stream(KindZip, tr, hdr.Name)
		} else {
			err = w.member(hdr.Name, tr)
		}
		if err != nil {
			return err
		}
	}
}

// member splits one data file into records.
func (w *walk) member(name string, src io.Reader) error {
	f, method, rd, err := w.detector.Detect(name, src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrCodeArchiveUnreadable, "failed to read member %s", name)
	}
	if !f.IsKnown() {
		w.logger.Warn("skipping member without a known format",
			logging.String(logging.KeyArchive, w.archive),
			logging.String("member", name))
		w.metrics.RecordsSkipped.WithLabelValues("unknown_format").Inc()
		return nil
	}
	w.metrics.DetectTotal.WithLabelValues(f.String(), string(method)).Inc()

	file := w.archive
	if name != w.archive {
		file = w.archive + "/" + name
	}
	return Split(rd, f, w.maxBytes, func(text []byte) error {
		if err := w.ctx.Err(); err != nil {
			return err
		}
		rec := parser.Record{Text: text, Format: f, File: file, Index: w.index}
		w.index++
		return w.fn(rec)
	})
}

func (w *walk) skip(name string) bool {
	upper := strings.ToUpper(name)
	if strings.Contains(upper, "DTDS") || strings.Contains(upper, "ENTITIES") {
		w.metrics.RecordsSkipped.WithLabelValues("dtd").Inc()
		return true
	}
	lower := strings.ToLower(name)
	for _, s := range skippedSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
