package cli

import (
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/turtacn/patent-normalizer/internal/application/normalize"
	"github.com/turtacn/patent-normalizer/internal/ingest"
	"github.com/turtacn/patent-normalizer/internal/parser"
	"github.com/turtacn/patent-normalizer/internal/parser/format"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect FILE...",
		Short: "Report the bulk format of each file",
		Long: "Resolve the format of each file from its name, falling back to its content.\n" +
			"Archives report the format of their first record.",
		Args: cobra.MinimumNArgs(1),
		RunE: runDetect,
	}
}

// DetectResult is the detection outcome for one file.
type DetectResult struct {
	File   string        `json:"file"`
	Format string        `json:"format"`
	Method format.Method `json:"method"`
	Known  bool          `json:"known"`
}

type detectResults []DetectResult

func (d detectResults) TableHeaders() []string { return []string{"File", "Format", "Method"} }

func (d detectResults) TableRows() [][]string {
	rows := make([][]string, 0, len(d))
	for _, r := range d {
		rows = append(rows, []string{r.File, r.Format, string(r.Method)})
	}
	return rows
}

var errFirstRecord = stderrors.New("first record")

func runDetect(cmd *cobra.Command, args []string) error {
	c, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, c)
	defer cancel()
	rt, err := c.Runtime(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	results := make(detectResults, 0, len(args))
	for _, p := range args {
		kind, err := ingest.KindOf(p)
		if err != nil {
			return err
		}
		var d normalize.Detection
		if kind == ingest.KindPlain {
			f, err := os.Open(p)
			if err != nil {
				return errors.Wrapf(err, errors.ErrCodeArchiveUnreadable, "cannot open %s", p)
			}
			d, _, err = rt.Service.DetectReader(filepath.Base(p), f)
			f.Close()
			if err != nil {
				return err
			}
		} else {
			d = normalize.Detection{Name: format.Unknown.String(), Method: format.MethodContent}
			err := rt.Reader.Walk(ctx, p, func(rec parser.Record) error {
				d = normalize.Detection{Format: rec.Format, Name: rec.Format.String(), Method: format.MethodContent, Known: true}
				return errFirstRecord
			})
			if err != nil && !stderrors.Is(err, errFirstRecord) {
				return err
			}
		}
		results = append(results, DetectResult{File: p, Format: d.Name, Method: d.Method, Known: d.Known})
	}
	return PrintResult(cmd, results)
}

//Personal.AI order the ending
