package normalize

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patent-normalizer/internal/parser"
	"github.com/turtacn/patent-normalizer/internal/pipeline"
	"github.com/turtacn/patent-normalizer/pkg/errors"

	pgrepo "github.com/turtacn/patent-normalizer/internal/infrastructure/database/postgres/repositories"
)

// MaxReportedFailures bounds RunReport.Failures.
const MaxReportedFailures = 100

// IngestOptions tunes one archive run.
type IngestOptions struct {
	// Force reprocesses an archive the ledger already marks completed.
	Force bool
	// OnResult, when set, sees every result in input order.
	OnResult func(pipeline.Result)
}

// RecordFailure describes one record that did not parse.
type RecordFailure struct {
	File   string `json:"file"`
	Record int    `json:"record"`
	Code   string `json:"code"`
	Error  string `json:"error"`
}

// RunReport summarizes an ingest run.
type RunReport struct {
	RunID     string          `json:"run_id"`
	Archive   string          `json:"archive"`
	Records   int             `json:"records"`
	Parsed    int             `json:"parsed"`
	Failed    int             `json:"failed"`
	Skipped   int             `json:"skipped"`
	TimedOut  int             `json:"timed_out"`
	Duration  time.Duration   `json:"duration"`
	Failures  []RecordFailure `json:"failures,omitempty"`
	Truncated bool            `json:"failures_truncated,omitempty"`
}

// Fingerprint identifies an archive revision by size and modification time.
func Fingerprint(fi os.FileInfo) string {
	return fmt.Sprintf("%d-%d", fi.Size(), fi.ModTime().UTC().Unix())
}

// IngestArchive runs every record of the archive at path through the
// pipeline.  A ledger-completed archive fails with ErrCodeArchiveAlreadyDone
// unless opts.Force is set; an archive locked by another worker fails with
// ErrCodeConflict.
func (s *Service) IngestArchive(ctx context.Context, path string, opts IngestOptions) (*RunReport, error) {
	if s.deps.Reader == nil || s.deps.Pipeline == nil {
		return nil, errors.New(errors.ErrCodeFeatureDisabled, "ingest is not configured")
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeArchiveUnreadable, "cannot stat %s", path)
	}
	sum := Fingerprint(fi)

	if s.deps.Ledger != nil && !opts.Force {
		done, err := s.deps.Ledger.Completed(ctx, path, sum)
		if err != nil {
			return nil, err
		}
		if done {
			s.metrics.ArchivesTotal.WithLabelValues(prometheus.StatusSkipped).Inc()
			return nil, errors.Newf(errors.ErrCodeArchiveAlreadyDone, "archive %s was already ingested", path)
		}
	}

	if s.deps.Locks != nil {
		lock := s.deps.Locks.ArchiveLock(path)
		ok, err := lock.TryLock(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Newf(errors.ErrCodeConflict, "archive %s is being ingested elsewhere", path)
		}
		defer func() {
			if err := lock.Unlock(context.Background()); err != nil {
				s.logger.Warn("failed to release archive lock", logging.String(logging.KeyArchive, path), logging.Err(err))
			}
		}()
	}

	run := &pgrepo.IngestRun{RunID: uuid.New(), Archive: path, StartedAt: time.Now().UTC()}
	return s.run(ctx, run, sum, pipeline.FromArchive(s.deps.Reader, path), opts)
}

// IngestReader runs the records of a single stream, such as stdin, through
// the pipeline.  The ledger and archive lock are not consulted.
func (s *Service) IngestReader(ctx context.Context, name string, r io.Reader, opts IngestOptions) (*RunReport, error) {
	if s.deps.Reader == nil || s.deps.Pipeline == nil {
		return nil, errors.New(errors.ErrCodeFeatureDisabled, "ingest is not configured")
	}
	src := func(ctx context.Context, emit func(parser.Record) error) error {
		return s.deps.Reader.WalkReader(ctx, name, r, emit)
	}
	run := &pgrepo.IngestRun{RunID: uuid.New(), Archive: name, StartedAt: time.Now().UTC()}
	return s.run(ctx, run, "", src, opts)
}

func (s *Service) run(ctx context.Context, run *pgrepo.IngestRun, sum string, src pipeline.Source, opts IngestOptions) (*RunReport, error) {
	runID := run.RunID.String()
	log := s.logger.With(logging.String(logging.KeyRunID, runID), logging.String(logging.KeyArchive, run.Archive))

	useLedger := s.deps.Ledger != nil && sum != ""
	if useLedger {
		if err := s.deps.Ledger.Begin(ctx, run.Archive, sum, runID); err != nil {
			return nil, err
		}
	}
	if s.deps.Runs != nil {
		if err := s.deps.Runs.Start(ctx, run); err != nil {
			log.Warn("failed to record run start", logging.Err(err))
		}
	}
	log.Info("ingest started")

	report := &RunReport{RunID: runID, Archive: run.Archive}
	handle := func(ctx context.Context, rec parser.Record) (*patent.Patent, error) {
		return s.ParseRecord(ctx, rec, runID)
	}
	collect := func(res pipeline.Result) error {
		if res.Err != nil && !errors.IsCode(res.Err, errors.ErrCodeDuplicateRecord) {
			if len(report.Failures) < MaxReportedFailures {
				report.Failures = append(report.Failures, RecordFailure{
					File:   res.Record.File,
					Record: res.Record.Index,
					Code:   string(errors.GetCode(res.Err)),
					Error:  res.Err.Error(),
				})
			} else {
				report.Truncated = true
			}
		}
		if opts.OnResult != nil {
			opts.OnResult(res)
		}
		return nil
	}

	start := time.Now()
	stats, runErr := s.deps.Pipeline.Run(ctx, src, handle, collect)
	report.Duration = time.Since(start)
	report.Records = stats.Records
	report.Parsed = stats.Parsed
	report.Failed = stats.Failed
	report.Skipped = stats.Skipped
	report.TimedOut = stats.TimedOut

	// Bookkeeping outlives a cancelled run.
	bg := context.Background()
	if useLedger {
		if err := s.deps.Ledger.Finish(bg, run.Archive, stats.Records, stats.Parsed, stats.Failed, stats.Skipped, runErr); err != nil {
			log.Warn("failed to record run finish in ledger", logging.Err(err))
		}
	}
	if s.deps.Runs != nil {
		finished := time.Now().UTC()
		run.Records, run.Parsed, run.Failed, run.Skipped = stats.Records, stats.Parsed, stats.Failed, stats.Skipped
		run.FinishedAt = &finished
		if err := s.deps.Runs.Finish(bg, run); err != nil {
			log.Warn("failed to record run finish", logging.Err(err))
		}
	}

	status := prometheus.StatusOK
	if runErr != nil {
		status = prometheus.StatusFailed
	}
	s.metrics.ArchivesTotal.WithLabelValues(status).Inc()

	fields := []logging.Field{
		logging.Int("records", stats.Records),
		logging.Int("parsed", stats.Parsed),
		logging.Int("failed", stats.Failed),
		logging.Int("skipped", stats.Skipped),
		logging.Duration("duration", report.Duration),
	}
	if runErr != nil {
		log.Error("ingest failed", append(fields, logging.Err(runErr))...)
		return report, runErr
	}
	log.Info("ingest finished", fields...)
	return report, nil
}

//Personal.AI order the ending
