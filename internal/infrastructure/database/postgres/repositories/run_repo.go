package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/patent-normalizer/pkg/errors"
)

// IngestRun is one pass over a bulk archive.
type IngestRun struct {
	RunID      uuid.UUID
	Archive    string
	Records    int
	Parsed     int
	Failed     int
	Skipped    int
	StartedAt  time.Time
	FinishedAt *time.Time
}

// RunRepository records ingest runs.
type RunRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

func NewRunRepository(pool *pgxpool.Pool, logger logging.Logger) *RunRepository {
	return &RunRepository{pool: pool, logger: logging.OrDefault(logger)}
}

// Start inserts a run row with zero counters.
func (r *RunRepository) Start(ctx context.Context, run *IngestRun) error {
	if run.RunID == uuid.Nil {
		run.RunID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ingest_runs (run_id, archive, started_at)
		VALUES ($1, $2, $3)`, run.RunID, run.Archive, run.StartedAt)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to start ingest run")
	}
	r.logger.Info("ingest run started",
		logging.String(logging.KeyRunID, run.RunID.String()),
		logging.String(logging.KeyArchive, run.Archive))
	return nil
}

// Finish stores the final counters.
func (r *RunRepository) Finish(ctx context.Context, run *IngestRun) error {
	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE ingest_runs
		SET records = $2, parsed = $3, failed = $4, skipped = $5, finished_at = $6
		WHERE run_id = $1`,
		run.RunID, run.Records, run.Parsed, run.Failed, run.Skipped, now)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to finish ingest run")
	}
	if tag.RowsAffected() == 0 {
		return appErrors.Newf(appErrors.ErrCodeNotFound, "ingest run %s not found", run.RunID)
	}
	run.FinishedAt = &now
	return nil
}

// LastCompleted returns the most recent finished run for archive.
func (r *RunRepository) LastCompleted(ctx context.Context, archive string) (*IngestRun, error) {
	var run IngestRun
	err := r.pool.QueryRow(ctx, `
		SELECT run_id, archive, records, parsed, failed, skipped, started_at, finished_at
		FROM ingest_runs
		WHERE archive = $1 AND finished_at IS NOT NULL
		ORDER BY finished_at DESC
		LIMIT 1`, archive).Scan(
		&run.RunID, &run.Archive, &run.Records, &run.Parsed, &run.Failed, &run.Skipped,
		&run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, appErrors.Newf(appErrors.ErrCodeNotFound, "no completed run for %s", archive)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to query ingest runs")
	}
	return &run, nil
}

//Personal.AI order the ending
