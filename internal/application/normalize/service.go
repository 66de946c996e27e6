// Package normalize is the application service of the normalizer: it parses
// records, fans the results out to the configured sinks and drives whole
// archives through the worker pipeline.
package normalize

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	infraredis "github.com/turtacn/patent-normalizer/internal/infrastructure/database/redis"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patent-normalizer/internal/ingest"
	"github.com/turtacn/patent-normalizer/internal/parser"
	"github.com/turtacn/patent-normalizer/internal/parser/format"
	"github.com/turtacn/patent-normalizer/internal/pipeline"
	"github.com/turtacn/patent-normalizer/pkg/errors"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"

	pgrepo "github.com/turtacn/patent-normalizer/internal/infrastructure/database/postgres/repositories"
)

// ─────────────────────────────────────────────────────────────────────────────
// Collaborators
// ─────────────────────────────────────────────────────────────────────────────

// Deduper claims record checksums; *redis.Deduper implements it.
type Deduper interface {
	Claim(ctx context.Context, sum, owner string) (bool, error)
	Release(ctx context.Context, sum string) error
}

// Locker hands out per-archive locks; redis.LockFactory implements it.
type Locker interface {
	ArchiveLock(archive string, opts ...infraredis.LockOption) infraredis.DistributedLock
}

// Ledger remembers completed archives; *ledger.Ledger implements it.
type Ledger interface {
	Completed(ctx context.Context, archive, checksum string) (bool, error)
	Begin(ctx context.Context, archive, checksum, runID string) error
	Finish(ctx context.Context, archive string, records, parsed, failed, skipped int, runErr error) error
}

// RunStore records ingest runs; *repositories.RunRepository implements it.
type RunStore interface {
	Start(ctx context.Context, run *pgrepo.IngestRun) error
	Finish(ctx context.Context, run *pgrepo.IngestRun) error
}

// RawArchive keeps raw record text; *minio.ArchiveStore implements it.
type RawArchive interface {
	PutRaw(ctx context.Context, archive string, n int, format string, raw []byte) (string, error)
}

// RejectPublisher receives record-level failures; *kafka.Producer
// implements it.
type RejectPublisher interface {
	PublishRejected(ctx context.Context, runID, key string, payload interface{}) error
}

// DocumentStore loads stored documents; *repositories.PatentRepository
// and *minio.ArchiveStore (through a closure) serve it.
type DocumentStore interface {
	FindByID(ctx context.Context, id string) (*dto.Document, error)
}

// DocumentCache is a read-through cache; *redis.DocumentCache implements it.
type DocumentCache interface {
	GetOrLoad(ctx context.Context, id string, load infraredis.DocumentLoader) (*dto.Document, error)
}

// Deps wires a Service.  Parser is required; every other collaborator is
// optional and skipped when nil.
type Deps struct {
	Parser    *parser.Parser
	Reader    *ingest.Reader
	Pipeline  *pipeline.Pipeline
	Sinks     []Sink
	Deduper   Deduper
	Locks     Locker
	Ledger    Ledger
	Runs      RunStore
	Raw       RawArchive
	Rejects   RejectPublisher
	Documents DocumentStore
	Cache     DocumentCache
	Metrics   *prometheus.NormalizerMetrics
	Logger    logging.Logger
}

// Service is safe for concurrent use.
type Service struct {
	deps    Deps
	logger  logging.Logger
	metrics *prometheus.NormalizerMetrics
}

// NewService returns a Service over deps.
func NewService(deps Deps) (*Service, error) {
	if deps.Parser == nil {
		return nil, errors.New(errors.ErrCodeValidation, "parser is required")
	}
	s := &Service{
		deps:    deps,
		logger:  logging.OrDefault(deps.Logger).Named("normalize"),
		metrics: deps.Metrics,
	}
	if s.metrics == nil {
		s.metrics = prometheus.NewNoopNormalizerMetrics()
	}
	return s, nil
}

// Sinks returns the names of the configured sinks.
func (s *Service) Sinks() []string {
	names := make([]string, len(s.deps.Sinks))
	for i, sk := range s.deps.Sinks {
		names[i] = sk.Name()
	}
	return names
}

// ─────────────────────────────────────────────────────────────────────────────
// Detection
// ─────────────────────────────────────────────────────────────────────────────

// Detection is the outcome of Detect.
type Detection struct {
	Format format.Format `json:"-"`
	Name   string        `json:"format"`
	Method format.Method `json:"method"`
	Known  bool          `json:"known"`
}

// Detect resolves the format of text, trying name first when given.
func (s *Service) Detect(name string, text []byte) Detection {
	if name != "" {
		if f := format.DetectByName(name); f.IsKnown() {
			s.metrics.DetectTotal.WithLabelValues(f.String(), string(format.MethodName)).Inc()
			return Detection{Format: f, Name: f.String(), Method: format.MethodName, Known: true}
		}
	}
	f := s.deps.Parser.Detect(text)
	return Detection{Format: f, Name: f.String(), Method: format.MethodContent, Known: f.IsKnown()}
}

// DetectReader detects the format of a stream and returns a reader that
// replays it from the start.
func (s *Service) DetectReader(name string, r io.Reader) (Detection, io.Reader, error) {
	head := make([]byte, 64<<10)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Detection{}, nil, errors.Wrap(err, errors.ErrCodeArchiveUnreadable, "failed to read input")
	}
	head = head[:n]
	return s.Detect(name, head), io.MultiReader(bytes.NewReader(head), r), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Records
// ─────────────────────────────────────────────────────────────────────────────

// ParseRecord normalizes one record and writes it to every sink.
//
// A record whose checksum was already claimed fails with
// ErrCodeDuplicateRecord.  Record-level parse failures are published to the
// dead-letter topic and returned.  Sink failures are logged and counted but
// never fail the record.
func (s *Service) ParseRecord(ctx context.Context, rec parser.Record, runID string) (*patent.Patent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := s.logger.With(
		logging.String(logging.KeySource, rec.File),
		logging.Int(logging.KeyRecord, rec.Index))

	var sum string
	if s.deps.Deduper != nil {
		sum = infraredis.Checksum(rec.Text)
		ok, err := s.deps.Deduper.Claim(ctx, sum, fmt.Sprintf("%s#%d", rec.File, rec.Index))
		switch {
		case err != nil:
			log.Warn("dedup unavailable, parsing anyway", logging.Err(err))
			sum = ""
		case !ok:
			s.metrics.RecordsSkipped.WithLabelValues("duplicate").Inc()
			return nil, errors.Newf(errors.ErrCodeDuplicateRecord,
				"record %d of %s was already processed", rec.Index, rec.File)
		}
	}

	if s.deps.Raw != nil {
		if !rec.Format.IsKnown() {
			rec.Format = s.deps.Parser.Detect(rec.Text)
		}
		start := time.Now()
		_, err := s.deps.Raw.PutRaw(ctx, rec.File, rec.Index, rec.Format.String(), rec.Text)
		s.metrics.ObserveSink("minio-raw", time.Since(start).Seconds(), err)
		if err != nil {
			log.Warn("raw archive failed", logging.Err(err))
		}
	}

	pat, err := s.deps.Parser.ParseRecord(rec)
	if err != nil {
		s.reject(ctx, runID, rec, err)
		if sum != "" && errors.IsRecordLevel(err) {
			if rerr := s.deps.Deduper.Release(ctx, sum); rerr != nil {
				log.Warn("failed to release checksum", logging.Err(rerr))
			}
		}
		return nil, err
	}

	if d := pat.Diagnostics(); len(d) > 0 {
		log.Debug("record parsed with field errors",
			logging.String(logging.KeyDocID, pat.ID().ID()),
			logging.Int("diagnostics", len(d)))
	}
	s.Write(ctx, runID, pat)
	return pat, nil
}

// Parse normalizes one record without dedup, archiving or sinks.
func (s *Service) Parse(rec parser.Record) (*patent.Patent, error) {
	return s.deps.Parser.ParseRecord(rec)
}

// SinkFailure is a failed write of one sink.
type SinkFailure struct {
	Sink  string `json:"sink"`
	Error string `json:"error"`
}

// Write fans pat out to every sink concurrently and returns the failures.
func (s *Service) Write(ctx context.Context, runID string, pat *patent.Patent) []SinkFailure {
	if len(s.deps.Sinks) == 0 {
		return nil
	}
	out := &Output{RunID: runID, Patent: pat, Document: pat.Document()}

	var (
		mu       sync.Mutex
		failures []SinkFailure
		wg       sync.WaitGroup
	)
	for _, sk := range s.deps.Sinks {
		wg.Add(1)
		go func(sk Sink) {
			defer wg.Done()
			start := time.Now()
			err := sk.Write(ctx, out)
			s.metrics.ObserveSink(sk.Name(), time.Since(start).Seconds(), err)
			if err == nil {
				return
			}
			s.logger.Warn("sink write failed",
				logging.String(logging.KeySink, sk.Name()),
				logging.String(logging.KeyDocID, out.Document.ID.ID),
				logging.Err(err))
			mu.Lock()
			failures = append(failures, SinkFailure{Sink: sk.Name(), Error: err.Error()})
			mu.Unlock()
		}(sk)
	}
	wg.Wait()
	return failures
}

func (s *Service) reject(ctx context.Context, runID string, rec parser.Record, err error) {
	if s.deps.Rejects == nil || !errors.IsRecordLevel(err) {
		return
	}
	message, detail := err.Error(), ""
	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		message = ae.Message
		detail = strings.TrimPrefix(ae.Detail, "snippet=")
	}
	ev := patent.NewRecordRejectedEvent(runID, rec.File, rec.Index, string(errors.GetCode(err)), message, detail)
	key := fmt.Sprintf("%s#%d", rec.File, rec.Index)
	if perr := s.deps.Rejects.PublishRejected(ctx, runID, key, ev); perr != nil {
		s.logger.Warn("failed to publish rejected record",
			logging.String(logging.KeySource, rec.File),
			logging.Int(logging.KeyRecord, rec.Index),
			logging.Err(perr))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Lookups
// ─────────────────────────────────────────────────────────────────────────────

// GetDocument loads a stored document by canonical id through the cache.
func (s *Service) GetDocument(ctx context.Context, id string) (*dto.Document, error) {
	if s.deps.Documents == nil {
		return nil, errors.New(errors.ErrCodeFeatureDisabled, "no document store configured")
	}
	load := func(ctx context.Context) (*dto.Document, error) {
		return s.deps.Documents.FindByID(ctx, id)
	}
	if s.deps.Cache != nil {
		return s.deps.Cache.GetOrLoad(ctx, id, load)
	}
	return load(ctx)
}

//Personal.AI order the ending
