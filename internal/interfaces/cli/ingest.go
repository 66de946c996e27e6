package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/turtacn/patent-normalizer/internal/application/normalize"
	"github.com/turtacn/patent-normalizer/internal/bootstrap"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/internal/ingest"
	"github.com/turtacn/patent-normalizer/internal/parser"
	"github.com/turtacn/patent-normalizer/internal/parser/format"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

type ingestOptions struct {
	force      bool
	publishRaw bool
}

func newIngestCmd() *cobra.Command {
	opts := &ingestOptions{}
	cmd := &cobra.Command{
		Use:   "ingest PATH...",
		Short: "Normalize bulk archives into the configured sinks",
		Long: "Run every record of each archive through the pipeline and write the\n" +
			"documents to the configured sinks.  Directories are expanded to the\n" +
			"archives they hold.  Archives the ledger marks completed are skipped\n" +
			"unless --force is given.\n\n" +
			"With --publish-raw the records are published to the Kafka input topic\n" +
			"for the workers instead of being normalized here.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, args, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.force, "force", false, "reprocess archives the ledger marks completed")
	cmd.Flags().BoolVar(&opts.publishRaw, "publish-raw", false, "publish raw records to Kafka instead of normalizing")
	return cmd
}

// ArchiveResult is the outcome of one archive.
type ArchiveResult struct {
	Archive  string        `json:"archive"`
	Status   string        `json:"status"`
	RunID    string        `json:"run_id,omitempty"`
	Records  int           `json:"records"`
	Parsed   int           `json:"parsed"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

type ingestResults []ArchiveResult

func (r ingestResults) TableHeaders() []string {
	return []string{"Archive", "Status", "Records", "Parsed", "Failed", "Skipped", "Duration"}
}

func (r ingestResults) TableRows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, a := range r {
		rows = append(rows, []string{
			filepath.Base(a.Archive),
			colorizeStatus(a.Status),
			strconv.Itoa(a.Records),
			strconv.Itoa(a.Parsed),
			strconv.Itoa(a.Failed),
			strconv.Itoa(a.Skipped),
			a.Duration.Round(time.Millisecond).String(),
		})
	}
	return rows
}

func runIngest(cmd *cobra.Command, args []string, opts *ingestOptions) error {
	c, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	paths, err := expandInputs(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New(errors.ErrCodeValidation, "no archives found")
	}

	ctx, cancel := commandContext(cmd, c)
	defer cancel()
	rt, err := c.Runtime(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	if opts.publishRaw && rt.Producer == nil {
		return errors.New(errors.ErrCodeFeatureDisabled, "--publish-raw requires kafka.enabled")
	}

	results := make(ingestResults, 0, len(paths))
	failed := 0
	for _, p := range paths {
		var res ArchiveResult
		if opts.publishRaw {
			res = publishArchive(ctx, rt, p)
		} else {
			res = ingestArchive(ctx, rt, p, opts.force)
		}
		if res.Status == "failed" {
			failed++
		}
		results = append(results, res)
		if ctx.Err() != nil {
			break
		}
	}
	if err := PrintResult(cmd, results); err != nil {
		return err
	}
	if failed > 0 {
		return errors.Newf(errors.ErrCodeInternal, "%d of %d archive(s) failed", failed, len(results))
	}
	return nil
}

// ingestArchive runs one archive and folds the outcome into a result row.
func ingestArchive(ctx context.Context, rt *bootstrap.Runtime, p string, force bool) ArchiveResult {
	res := ArchiveResult{Archive: p}
	report, err := rt.Service.IngestArchive(ctx, p, normalize.IngestOptions{Force: force})
	if report != nil {
		res.RunID = report.RunID
		res.Records = report.Records
		res.Parsed = report.Parsed
		res.Failed = report.Failed
		res.Skipped = report.Skipped
		res.Duration = report.Duration
	}
	switch {
	case errors.IsCode(err, errors.ErrCodeArchiveAlreadyDone):
		res.Status = "skipped"
	case err != nil:
		res.Status = "failed"
		res.Error = err.Error()
	default:
		res.Status = "ok"
	}
	return res
}

// publishArchive sends every record of p to the input topic as raw text.
func publishArchive(ctx context.Context, rt *bootstrap.Runtime, p string) ArchiveResult {
	res := ArchiveResult{Archive: p, RunID: uuid.NewString()}
	start := time.Now()
	err := rt.Reader.Walk(ctx, p, func(rec parser.Record) error {
		res.Records++
		return rt.Producer.PublishRaw(ctx, res.RunID, kafka.RawRecordPayload{
			File:   rec.File,
			Record: rec.Index,
			Format: rec.Format.String(),
			Text:   rec.Text,
		})
	})
	res.Duration = time.Since(start)
	if err != nil {
		res.Status = "failed"
		res.Error = err.Error()
		return res
	}
	res.Status = "ok"
	rt.Logger.Info("archive published",
		logging.String(logging.KeyArchive, p),
		logging.String(logging.KeyRunID, res.RunID),
		logging.Int("records", res.Records))
	return res
}

// expandInputs replaces each directory argument by the archives it holds,
// sorted by name.  Plain file arguments are kept as given.
func expandInputs(args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		fi, err := os.Stat(a)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeArchiveUnreadable, "cannot read %s", a)
		}
		if !fi.IsDir() {
			out = append(out, a)
			continue
		}
		entries, err := os.ReadDir(a)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeArchiveUnreadable, "cannot list %s", a)
		}
		var names []string
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			if acceptInput(e.Name()) || sniffArchive(filepath.Join(a, e.Name())) {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, n := range names {
			out = append(out, filepath.Join(a, n))
		}
	}
	return out, nil
}

var archiveSuffixes = []string{".zip", ".tar", ".tar.gz", ".tgz", ".gz"}

// acceptInput reports whether a file name looks like bulk input: a known
// bulk file name or an archive.  Dotfiles and partial downloads are
// rejected.
func acceptInput(name string) bool {
	base := filepath.Base(name)
	if partialFile(base) {
		return false
	}
	if format.DetectByName(base).IsKnown() {
		return true
	}
	lower := strings.ToLower(base)
	for _, s := range archiveSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// sniffArchive reports whether p is an archive saved without an extension,
// judged from its leading bytes.
func sniffArchive(p string) bool {
	if partialFile(filepath.Base(p)) {
		return false
	}
	kind, err := ingest.KindOf(p)
	return err == nil && kind != ingest.KindPlain
}

func partialFile(base string) bool {
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".part") || strings.HasSuffix(base, ".tmp")
}

// String renders a result on one line for watch logs.
func (a ArchiveResult) String() string {
	if a.Error != "" {
		return fmt.Sprintf("%s: %s (%s)", filepath.Base(a.Archive), a.Status, a.Error)
	}
	return fmt.Sprintf("%s: %s records=%d parsed=%d failed=%d skipped=%d",
		filepath.Base(a.Archive), a.Status, a.Records, a.Parsed, a.Failed, a.Skipped)
}

//Personal.AI order the ending
