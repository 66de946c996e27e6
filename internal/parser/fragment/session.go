package fragment

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/patent-normalizer/internal/domain/classification"
	"github.com/turtacn/patent-normalizer/internal/domain/docid"
	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patent-normalizer/internal/parser/format"
	"github.com/turtacn/patent-normalizer/internal/textproc"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// Env carries the collaborators shared by every record of one parser.
type Env struct {
	Format    format.Format
	Logger    logging.Logger
	Text      textproc.Extractor
	Metrics   *prometheus.NormalizerMetrics
	IDOptions []docid.Option
}

// Session accumulates the fields of one record.  It is not safe for
// concurrent use; every record gets its own session.
type Session struct {
	env   Env
	b     *patent.Builder
	docID string
}

// NewSession starts a record of the given kind.
func NewSession(env Env, kind patent.Kind) *Session {
	env.Logger = logging.OrDefault(env.Logger)
	if env.Text == nil {
		env.Text = textproc.New()
	}
	if env.Metrics == nil {
		env.Metrics = prometheus.NewNoopNormalizerMetrics()
	}
	return &Session{env: env, b: patent.NewBuilder(kind)}
}

func (s *Session) Builder() *patent.Builder { return s.b }
func (s *Session) Env() Env                 { return s.env }

// SetPrimaryID records the document's own identifier; later log entries carry
// it as doc_id.
func (s *Session) SetPrimaryID(id docid.DocumentIdentifier) {
	s.b.SetID(id)
	s.docID = id.ID()
}

// DocID returns the primary identifier text, empty until SetPrimaryID.
func (s *Session) DocID() string { return s.docID }

// Field runs one field extractor.  An error or panic from fn is logged,
// counted and recorded as a diagnostic; the field stays empty and extraction
// of the record continues.
func (s *Session) Field(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.Fail(name, errors.Newf(errors.ErrCodeFieldExtractionFailed, "panic: %v", r))
		}
	}()
	if err := fn(); err != nil {
		s.Fail(name, err)
	}
}

// Fail records a field-level failure without aborting the record.
func (s *Session) Fail(field string, err error) {
	if err == nil {
		return
	}
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeFieldExtractionFailed
	}
	s.env.Logger.Warn("field extraction failed",
		logging.String(logging.KeyField, field),
		logging.String(logging.KeyFormat, s.env.Format.String()),
		logging.String(logging.KeyDocID, s.docID),
		logging.Err(err))
	s.env.Metrics.FieldErrorsTotal.WithLabelValues(s.env.Format.String(), field).Inc()
	s.b.AddDiagnostic(patent.Diagnostic{Field: field, Code: code, Message: err.Error()})
}

// ID builds a document identifier with the session's identifier options.
// An empty country means US.
func (s *Session) ID(country, number, kind string, opts ...docid.Option) (docid.DocumentIdentifier, error) {
	country = legacyCountry(country)
	if country == "" {
		country = string(docid.US)
	}
	all := make([]docid.Option, 0, len(s.env.IDOptions)+len(opts)+1)
	all = append(all, docid.WithLogger(s.env.Logger))
	all = append(all, s.env.IDOptions...)
	all = append(all, opts...)
	return docid.New(country, number, kind, all...)
}

// Date parses a document date.  Empty input yields the zero time.
func (s *Session) Date(text string) (time.Time, error) {
	if text == "" {
		return time.Time{}, nil
	}
	return docid.ParseDate(text)
}

// Classify parses text as std and adds it to the record.  An unparseable
// value is dropped with a warning; the rest of the record is unaffected.
func (s *Session) Classify(field string, std classification.Standard, text string, main bool) (classification.Classification, bool) {
	if text == "" {
		return nil, false
	}
	c, err := classification.Parse(std, text, classification.Main(main))
	if err != nil {
		s.Fail(field, err)
		return nil, false
	}
	s.b.AddClassification(c)
	return c, true
}

// ClassifyParts adds a classification given as its structured parts, e.g.
// section/class/subclass/main-group/subgroup elements.
func (s *Session) ClassifyParts(field string, std classification.Standard, main bool, parts ...string) (classification.Classification, bool) {
	switch std {
	case classification.StandardCPC, classification.StandardIPC:
		if len(parts) != 5 {
			s.Fail(field, errors.Newf(errors.ErrCodeClassificationInvalid, "%s needs five parts, got %d", std, len(parts)))
			return nil, false
		}
		text := parts[0] + parts[1] + parts[2]
		if parts[3] != "" {
			text += fmt.Sprintf(" %s/%s", parts[3], parts[4])
		}
		return s.Classify(field, std, text, main)
	}
	return s.Classify(field, std, joinParts(parts), main)
}

func joinParts(parts []string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// PlainText and SimpleHTML delegate to the session's text extractor.
func (s *Session) PlainText(markup string) string  { return s.env.Text.PlainText(markup) }
func (s *Session) SimpleHTML(markup string) string { return s.env.Text.SimpleHTML(markup) }

// Build finishes the record.  When no agent was found the correspondence
// addressee stands in for one.
func (s *Session) Build(src patent.Source) (*patent.Patent, error) {
	if len(s.b.PartiesOf(patent.RoleAgent)) == 0 {
		for _, c := range s.b.PartiesOf(patent.RoleCorrespondent) {
			agent := c
			agent.Role = patent.RoleAgent
			agent.Detail = "correspondence"
			s.b.AddParty(agent)
		}
	}
	if src.Format == "" {
		src.Format = s.env.Format.String()
	}
	s.b.SetSource(src)
	return s.b.Build()
}

//Personal.AI order the ending
