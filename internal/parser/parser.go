// Package parser turns one record of any supported USPTO format into a
// canonical Patent.  It resolves the format when the caller does not know
// it, guards the input size, builds the document tree and hands the tree to
// the structural parser of the format.
package parser

import (
	"bytes"
	"time"

	"github.com/antchfx/xmlquery"

	"github.com/turtacn/patent-normalizer/internal/config"
	"github.com/turtacn/patent-normalizer/internal/domain/docid"
	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patent-normalizer/internal/parser/cpcmaster"
	"github.com/turtacn/patent-normalizer/internal/parser/format"
	"github.com/turtacn/patent-normalizer/internal/parser/fragment"
	"github.com/turtacn/patent-normalizer/internal/parser/greenbook"
	"github.com/turtacn/patent-normalizer/internal/parser/pap"
	"github.com/turtacn/patent-normalizer/internal/parser/sgml"
	"github.com/turtacn/patent-normalizer/internal/parser/xmlv4"
	"github.com/turtacn/patent-normalizer/internal/textproc"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// DefaultMaxDocumentBytes bounds a single record.
const DefaultMaxDocumentBytes int64 = 100 << 20

// Record is one complete document as cut from its source file.
type Record struct {
	Text []byte
	// Format is the known format of Text; format.Unknown asks the parser to
	// detect it from the content.
	Format format.Format
	File   string
	Index  int
}

// Parser is safe for concurrent use; it holds only read-only collaborators.
type Parser struct {
	maxBytes  int64
	idOptions []docid.Option
	logger    logging.Logger
	metrics   *prometheus.NormalizerMetrics
	text      textproc.Extractor
	detector  *format.Detector
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxDocumentBytes sets the size guard; n <= 0 disables it.
func WithMaxDocumentBytes(n int64) Option { return func(p *Parser) { p.maxBytes = n } }

// WithKeepLeadingZeros keeps leading zeros of document numbers, as needed
// for corpora keyed on the zero-padded form.
func WithKeepLeadingZeros(keep bool) Option {
	return func(p *Parser) {
		if keep {
			p.idOptions = append(p.idOptions, docid.KeepLeadingZeros(true))
		}
	}
}

func WithLogger(l logging.Logger) Option                 { return func(p *Parser) { p.logger = l } }
func WithMetrics(m *prometheus.NormalizerMetrics) Option { return func(p *Parser) { p.metrics = m } }
func WithTextExtractor(t textproc.Extractor) Option      { return func(p *Parser) { p.text = t } }
func WithDetector(d *format.Detector) Option             { return func(p *Parser) { p.detector = d } }

// New returns a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{maxBytes: DefaultMaxDocumentBytes}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.OrDefault(p.logger)
	if p.metrics == nil {
		p.metrics = prometheus.NewNoopNormalizerMetrics()
	}
	if p.text == nil {
		p.text = textproc.New()
	}
	if p.detector == nil {
		p.detector = format.NewDetector(format.DefaultScanLines)
	}
	return p
}

// NewFromConfig returns a Parser configured from the parser section.
// Explicit options are applied after the configuration.
func NewFromConfig(cfg config.ParserConfig, opts ...Option) *Parser {
	base := []Option{
		WithMaxDocumentBytes(cfg.MaxDocumentBytes),
		WithKeepLeadingZeros(cfg.KeepLeadingZeros),
		WithDetector(format.NewDetector(cfg.DetectScanLines)),
	}
	return New(append(base, opts...)...)
}

// Detect sniffs the format of text, counting the outcome.
func (p *Parser) Detect(text []byte) format.Format {
	f := p.detector.ByBytes(text)
	p.metrics.DetectTotal.WithLabelValues(f.String(), string(format.MethodContent)).Inc()
	return f
}

// Parse parses text of format f; format.Unknown detects it first.
func (p *Parser) Parse(text []byte, f format.Format) (*patent.Patent, error) {
	return p.ParseRecord(Record{Text: text, Format: f})
}

// ParseRecord parses one record.  Record-level failures (empty or oversized
// input, unknown format, malformed markup, unrecognized root, missing
// document number) return an error carrying a snippet of the input;
// field-level failures are recorded as diagnostics on the returned Patent.
func (p *Parser) ParseRecord(rec Record) (*patent.Patent, error) {
	start := time.Now()
	f, pat, err := p.parse(rec)
	p.metrics.ObserveParse(f.String(), len(rec.Text), time.Since(start).Seconds(), err)
	return pat, err
}

func (p *Parser) parse(rec Record) (format.Format, *patent.Patent, error) {
	if len(bytes.TrimSpace(rec.Text)) == 0 {
		return rec.Format, nil, errors.New(errors.ErrCodeEmptyDocument, "empty record")
	}
	if p.maxBytes > 0 && int64(len(rec.Text)) > p.maxBytes {
		return rec.Format, nil, errors.Newf(errors.ErrCodeDocumentTooLarge,
			"record of %d bytes exceeds the %d byte limit", len(rec.Text), p.maxBytes).
			WithSnippet(string(rec.Text[:min(len(rec.Text), 512)]))
	}

	f := rec.Format
	if !f.IsKnown() {
		f = p.Detect(rec.Text)
		if !f.IsKnown() {
			return f, nil, errors.New(errors.ErrCodeFormatUnknown, "no format marker in record").
				WithSnippet(string(rec.Text))
		}
	}

	env := fragment.Env{
		Format:    f,
		Logger:    p.logger,
		Text:      p.text,
		Metrics:   p.metrics,
		IDOptions: p.idOptions,
	}
	src := patent.Source{Format: f.String(), File: rec.File, Record: rec.Index}

	var (
		root *xmlquery.Node
		err  error
	)
	switch f {
	case format.Greenbook:
		if root, err = treeRoot(greenbook.Tree(bytes.NewReader(rec.Text))); err == nil {
			root, err = expectRoot(root, greenbook.Root)
		}
	case format.SGML:
		if root, err = treeRoot(sgml.Tree(bytes.NewReader(rec.Text))); err == nil {
			root, err = expectRoot(root, sgml.Root)
		}
	case format.PAP:
		if root, err = xmlTree(rec.Text); err == nil {
			root, err = expectRoot(root, pap.Root)
		}
	case format.XMLv4:
		if root, err = xmlTree(rec.Text); err == nil {
			root, err = expectRoot(root, xmlv4.Roots...)
		}
	case format.CPCMaster:
		if root, err = xmlTree(rec.Text); err == nil {
			root, err = expectRoot(root, cpcmaster.Root)
		}
	case format.Unknown:
		err = errors.New(errors.ErrCodeFormatUnknown, "format unknown")
	}
	if err != nil {
		return f, nil, withSnippet(err, rec.Text)
	}

	var pat *patent.Patent
	switch f {
	case format.Greenbook:
		pat, err = greenbook.Parse(root, env, src)
	case format.SGML:
		pat, err = sgml.Parse(root, env, src)
	case format.PAP:
		pat, err = pap.Parse(root, env, src)
	case format.XMLv4:
		pat, err = xmlv4.Parse(root, env, src)
	case format.CPCMaster:
		pat, err = cpcmaster.Parse(root, env, src)
	}
	if err != nil {
		return f, nil, withSnippet(err, rec.Text)
	}
	return f, pat, nil
}

func xmlTree(text []byte) (*xmlquery.Node, error) {
	doc, err := fragment.XMLTree(text)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMalformedDocument, "malformed XML")
	}
	return doc, nil
}

func treeRoot(doc *xmlquery.Node, err error) (*xmlquery.Node, error) {
	if err != nil {
		if errors.GetCode(err) == errors.CodeUnknown {
			return nil, errors.Wrap(err, errors.ErrCodeMalformedDocument, "malformed markup")
		}
		return nil, err
	}
	return doc, nil
}

// expectRoot returns the document element of doc if its local name is one
// of names.
func expectRoot(doc *xmlquery.Node, names ...string) (*xmlquery.Node, error) {
	var root *xmlquery.Node
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			root = n
			break
		}
	}
	if root == nil {
		return nil, errors.New(errors.ErrCodeRootNotRecognized, "document has no root element")
	}
	for _, name := range names {
		if root.Data == name {
			return root, nil
		}
	}
	return nil, errors.Newf(errors.ErrCodeRootNotRecognized, "root element %q is not one of %v", root.Data, names)
}

func withSnippet(err error, text []byte) error {
	if app, ok := err.(*errors.AppError); ok && app.Detail == "" {
		return app.WithSnippet(string(text[:min(len(text), 512)]))
	}
	return err
}

//Personal.AI order the ending
