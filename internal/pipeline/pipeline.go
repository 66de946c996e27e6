// Package pipeline runs record handlers on a bounded worker pool.
//
// Records enter through a Source, are handled by up to Workers goroutines
// and leave through a single Sink goroutine.  In ordered mode results are
// held in a reorder buffer and delivered in the order the Source produced
// them; the number of records between the Source and the Sink is bounded by
// QueueDepth+Workers, so a slow record stalls the Source instead of growing
// the buffer.
package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/patent-normalizer/internal/config"
	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patent-normalizer/internal/ingest"
	"github.com/turtacn/patent-normalizer/internal/parser"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// Source produces records in input order by calling emit.  It must stop
// and return emit's error when emit fails.
type Source func(ctx context.Context, emit func(parser.Record) error) error

// Handler turns one record into a Patent.
type Handler func(ctx context.Context, rec parser.Record) (*patent.Patent, error)

// Sink receives every result.  Calls are made from one goroutine.
type Sink func(Result) error

// Result is the outcome of one record.
type Result struct {
	Record   parser.Record
	Patent   *patent.Patent
	Err      error
	Duration time.Duration

	seq int
}

// Stats summarizes a run.
type Stats struct {
	Records  int
	Parsed   int
	Failed   int
	TimedOut int
	// Skipped counts records rejected as duplicates before parsing.
	Skipped int
}

// Pipeline is reusable; each Run has its own goroutines and buffers.
type Pipeline struct {
	cfg     config.PipelineConfig
	logger  logging.Logger
	metrics *prometheus.NormalizerMetrics
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithLogger(l logging.Logger) Option                 { return func(p *Pipeline) { p.logger = l } }
func WithMetrics(m *prometheus.NormalizerMetrics) Option { return func(p *Pipeline) { p.metrics = m } }

// New returns a Pipeline.  Workers below 1 run a single worker.
func New(cfg config.PipelineConfig, opts ...Option) *Pipeline {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueDepth < 0 {
		cfg.QueueDepth = 0
	}
	p := &Pipeline{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.OrDefault(p.logger)
	if p.metrics == nil {
		p.metrics = prometheus.NewNoopNormalizerMetrics()
	}
	return p
}

type job struct {
	seq int
	rec parser.Record
}

// Run drives src through handle into sink.  It returns the first error of
// the Source or the Sink, the context error when ctx ends first, and with
// FailFast set the first record error.  Record errors are otherwise handed
// to the Sink and logged.
func (p *Pipeline) Run(ctx context.Context, src Source, handle Handler, sink Sink) (Stats, error) {
	g, gctx := errgroup.WithContext(ctx)
	window := make(chan struct{}, p.cfg.QueueDepth+p.cfg.Workers)
	jobs := make(chan job, p.cfg.QueueDepth)
	results := make(chan Result, p.cfg.Workers)

	g.Go(func() error {
		defer close(jobs)
		seq := 0
		return src(gctx, func(rec parser.Record) error {
			select {
			case window <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			select {
			case jobs <- job{seq: seq, rec: rec}:
				seq++
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for j := range jobs {
				res := p.process(gctx, handle, j)
				select {
				case results <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var stats Stats
	g.Go(func() error {
		return p.collect(results, window, sink, &stats)
	})

	err := g.Wait()
	p.metrics.ReorderBufferDepth.WithLabelValues(p.mode()).Set(0)
	return stats, err
}

func (p *Pipeline) process(ctx context.Context, handle Handler, j job) Result {
	inFlight := p.metrics.PipelineInFlight.WithLabelValues("handle")
	inFlight.Inc()
	defer inFlight.Dec()

	start := time.Now()
	res := Result{Record: j.rec, seq: j.seq}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	if p.cfg.RecordTimeout > 0 {
		res.Patent, res.Err = p.bounded(ctx, handle, j.rec)
	} else {
		res.Patent, res.Err = handle(ctx, j.rec)
	}
	res.Duration = time.Since(start)
	return res
}

// bounded runs handle under RecordTimeout.  A parse cannot be interrupted,
// so on timeout the handler keeps running and its result is discarded.
func (p *Pipeline) bounded(ctx context.Context, handle Handler, rec parser.Record) (*patent.Patent, error) {
	tctx, cancel := context.WithTimeout(ctx, p.cfg.RecordTimeout)
	defer cancel()

	type outcome struct {
		pat *patent.Patent
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		pat, err := handle(tctx, rec)
		done <- outcome{pat, err}
	}()
	select {
	case o := <-done:
		return o.pat, o.err
	case <-tctx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, errors.Newf(errors.ErrCodeTimeout,
			"record %d of %s exceeded %s", rec.Index, rec.File, p.cfg.RecordTimeout)
	}
}

// collect delivers results to sink, reordering them unless the pipeline
// is unordered.  A window slot is freed once its result is delivered.
func (p *Pipeline) collect(results <-chan Result, window <-chan struct{}, sink Sink, stats *Stats) error {
	depth := p.metrics.ReorderBufferDepth.WithLabelValues(p.mode())
	pending := make(map[int]Result)
	next := 0
	for res := range results {
		if p.cfg.Unordered {
			if err := p.deliver(res, sink, stats); err != nil {
				return err
			}
			<-window
			continue
		}
		pending[res.seq] = res
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if err := p.deliver(r, sink, stats); err != nil {
				return err
			}
			<-window
		}
		depth.Set(float64(len(pending)))
	}
	return nil
}

func (p *Pipeline) deliver(res Result, sink Sink, stats *Stats) error {
	stats.Records++
	switch {
	case res.Err == nil:
		stats.Parsed++
	case errors.IsCode(res.Err, errors.ErrCodeDuplicateRecord):
		stats.Skipped++
	case errors.IsCode(res.Err, errors.ErrCodeTimeout):
		stats.Failed++
		stats.TimedOut++
	default:
		stats.Failed++
	}
	if errors.IsCode(res.Err, errors.ErrCodeDuplicateRecord) {
		p.logger.Debug("record skipped",
			logging.String(logging.KeySource, res.Record.File),
			logging.Int(logging.KeyRecord, res.Record.Index))
	} else if res.Err != nil {
		p.logger.Error("record failed",
			logging.String(logging.KeySource, res.Record.File),
			logging.Int(logging.KeyRecord, res.Record.Index),
			logging.String("code", string(errors.GetCode(res.Err))),
			logging.Err(res.Err))
	}
	if err := sink(res); err != nil {
		return err
	}
	if res.Err != nil && p.cfg.FailFast && !errors.IsCode(res.Err, errors.ErrCodeDuplicateRecord) {
		return res.Err
	}
	return nil
}

func (p *Pipeline) mode() string {
	if p.cfg.Unordered {
		return "unordered"
	}
	return "ordered"
}

// ─────────────────────────────────────────────────────────────────────────────
// Sources
// ─────────────────────────────────────────────────────────────────────────────

// FromArchive streams the records of the input file at path.
func FromArchive(r *ingest.Reader, path string) Source {
	return func(ctx context.Context, emit func(parser.Record) error) error {
		return r.Walk(ctx, path, emit)
	}
}

// FromRecords replays recs.
func FromRecords(recs []parser.Record) Source {
	return func(ctx context.Context, emit func(parser.Record) error) error {
		for _, rec := range recs {
			if err := emit(rec); err != nil {
				return err
			}
		}
		return nil
	}
}

//Personal.AI order the ending
