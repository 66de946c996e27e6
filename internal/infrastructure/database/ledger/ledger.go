// Package ledger keeps a local sqlite record of the archives an ingest has
// already processed, so a rerun over a bulk directory only parses new
// archives.
package ledger

import (
	"context"
	"database/sql"
	"path"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/turtacn/patent-normalizer/internal/config"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// Status of a ledger entry.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const schema = `
CREATE TABLE IF NOT EXISTS archives (
	archive     TEXT PRIMARY KEY,
	checksum    TEXT NOT NULL DEFAULT '',
	run_id      TEXT NOT NULL,
	status      TEXT NOT NULL,
	records     INTEGER NOT NULL DEFAULT 0,
	parsed      INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_archives_status ON archives (status);
`

// Entry is one archive's row.
type Entry struct {
	Archive    string `db:"archive"`
	Checksum   string `db:"checksum"`
	RunID      string `db:"run_id"`
	Status     string `db:"status"`
	Records    int    `db:"records"`
	Parsed     int    `db:"parsed"`
	Failed     int    `db:"failed"`
	Skipped    int    `db:"skipped"`
	Error      string `db:"error"`
	StartedAt  string `db:"started_at"`
	FinishedAt string `db:"finished_at"`
}

// Ledger is safe for concurrent use; sqlite serializes writers on its single
// connection.
type Ledger struct {
	db     *sqlx.DB
	logger logging.Logger
	now    func() time.Time
}

// Open opens (creating when missing) the ledger at cfg.Path.  ":memory:"
// gives a private in-process ledger.
func Open(cfg config.LedgerConfig, log logging.Logger) (*Ledger, error) {
	dsn := cfg.Path
	if dsn != ":memory:" {
		dsn += "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to open ledger")
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create ledger schema")
	}
	l := &Ledger{db: db, logger: logging.OrDefault(log).Named("ledger"), now: time.Now}
	l.logger.Info("Ledger opened", logging.String("path", cfg.Path))
	return l, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

func (l *Ledger) timestamp() string { return l.now().UTC().Format(time.RFC3339) }

// Key is the ledger key of an archive path: its base name, so the same bulk
// file is recognised wherever it is mounted.
func Key(archive string) string { return path.Base(archive) }

// Completed reports whether archive has a completed entry with the given
// checksum.  An empty checksum matches any.
func (l *Ledger) Completed(ctx context.Context, archive, checksum string) (bool, error) {
	e, err := l.Get(ctx, archive)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeNotFound) {
			return false, nil
		}
		return false, err
	}
	if e.Status != StatusCompleted {
		return false, nil
	}
	return checksum == "" || e.Checksum == "" || e.Checksum == checksum, nil
}

// Begin records that runID started on archive, replacing any earlier entry.
func (l *Ledger) Begin(ctx context.Context, archive, checksum, runID string) error {
	_, err := l.db.NamedExecContext(ctx, `
		INSERT INTO archives (archive, checksum, run_id, status, started_at)
		VALUES (:archive, :checksum, :run_id, :status, :started_at)
		ON CONFLICT (archive) DO UPDATE SET
			checksum = excluded.checksum, run_id = excluded.run_id, status = excluded.status,
			records = 0, parsed = 0, failed = 0, skipped = 0, error = '',
			started_at = excluded.started_at, finished_at = ''`,
		Entry{Archive: Key(archive), Checksum: checksum, RunID: runID, Status: StatusRunning, StartedAt: l.timestamp()})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to record archive start")
	}
	return nil
}

// Finish closes the entry of archive with the run's counts.  A non-nil
// runErr marks it failed.
func (l *Ledger) Finish(ctx context.Context, archive string, records, parsed, failed, skipped int, runErr error) error {
	e := Entry{
		Archive:    Key(archive),
		Status:     StatusCompleted,
		Records:    records,
		Parsed:     parsed,
		Failed:     failed,
		Skipped:    skipped,
		FinishedAt: l.timestamp(),
	}
	if runErr != nil {
		e.Status = StatusFailed
		e.Error = runErr.Error()
	}
	res, err := l.db.NamedExecContext(ctx, `
		UPDATE archives SET status = :status, records = :records, parsed = :parsed,
			failed = :failed, skipped = :skipped, error = :error, finished_at = :finished_at
		WHERE archive = :archive`, e)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to record archive finish")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Newf(errors.ErrCodeNotFound, "archive %s has no ledger entry", e.Archive)
	}
	return nil
}

// Get returns the entry of archive.
func (l *Ledger) Get(ctx context.Context, archive string) (*Entry, error) {
	var e Entry
	err := l.db.GetContext(ctx, &e, `SELECT * FROM archives WHERE archive = ?`, Key(archive))
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrCodeNotFound, "archive %s not in ledger", Key(archive))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read ledger")
	}
	return &e, nil
}

// List returns entries, most recently started first.  status filters when
// non-empty; limit <= 0 means 100.
func (l *Ledger) List(ctx context.Context, status string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []Entry
	var err error
	if status == "" {
		err = l.db.SelectContext(ctx, &out, `SELECT * FROM archives ORDER BY started_at DESC, archive LIMIT ?`, limit)
	} else {
		err = l.db.SelectContext(ctx, &out, `SELECT * FROM archives WHERE status = ? ORDER BY started_at DESC, archive LIMIT ?`, status, limit)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list ledger")
	}
	return out, nil
}

// Forget removes archive so the next ingest processes it again.
func (l *Ledger) Forget(ctx context.Context, archive string) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM archives WHERE archive = ?`, Key(archive)); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete ledger entry")
	}
	return nil
}

// Ping checks the database handle.
func (l *Ledger) Ping(ctx context.Context) error {
	if err := l.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "ledger unreachable")
	}
	return nil
}

//Personal.AI order the ending
