package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/turtacn/patent-normalizer/internal/bootstrap"
	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/storage/jsonl"
	"github.com/turtacn/patent-normalizer/internal/parser"
	"github.com/turtacn/patent-normalizer/internal/parser/format"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

type parseOptions struct {
	format string
	store  bool
}

func newParseCmd() *cobra.Command {
	opts := &parseOptions{}
	cmd := &cobra.Command{
		Use:   "parse FILE... | -",
		Short: "Parse bulk files and print the normalized documents",
		Long: "Parse every record of the given files (plain, gzip, zip or tar) and print\n" +
			"one JSON document per line.  \"-\" reads stdin.  Nothing is written to the\n" +
			"configured sinks unless --store is given.",
		Example: `  patentctl parse ipg160105.xml
  patentctl parse --format greenbook pftaps19760106_wk01.zip
  zcat ipa020103.xml.gz | patentctl parse -o table -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "force the record format (greenbook, sgml, pap_xml, xml_v4, cpc_master)")
	cmd.Flags().BoolVar(&opts.store, "store", false, "also write documents to the configured sinks")
	return cmd
}

// parseTable lists parsed documents, one row each.
type parseTable struct {
	rows [][]string
}

func (t *parseTable) TableHeaders() []string {
	return []string{"ID", "Kind", "Format", "Claims", "Title"}
}

func (t *parseTable) TableRows() [][]string { return t.rows }

func (t *parseTable) add(pat *patent.Patent) {
	t.rows = append(t.rows, []string{
		pat.ID().ID(),
		string(pat.Kind()),
		pat.Source().Format,
		strconv.Itoa(pat.Claims().Len()),
		truncateString(pat.Title(), 60),
	})
}

func runParse(cmd *cobra.Command, args []string, opts *parseOptions) error {
	c, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	var forced format.Format
	if opts.format != "" {
		if forced = format.Parse(opts.format); !forced.IsKnown() {
			return errors.Newf(errors.ErrCodeValidation, "unknown format %q", opts.format)
		}
	}

	ctx, cancel := commandContext(cmd, c)
	defer cancel()
	rt, err := c.Runtime(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	out := jsonl.New(cmd.OutOrStdout())
	table := &parseTable{}
	runID := uuid.NewString()
	failed := 0

	handle := func(rec parser.Record) error {
		if forced.IsKnown() {
			rec.Format = forced
		}
		var pat *patent.Patent
		var err error
		if opts.store {
			pat, err = rt.Service.ParseRecord(ctx, rec, runID)
		} else {
			pat, err = rt.Service.Parse(rec)
		}
		if err != nil {
			if errors.IsCode(err, errors.ErrCodeDuplicateRecord) {
				return nil
			}
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s#%d: %v\n", rec.File, rec.Index, err)
			return nil
		}
		if c.OutputFormat == "table" {
			table.add(pat)
			return nil
		}
		return out.Write(pat.Document())
	}

	for _, arg := range args {
		if err := walkArg(ctx, rt, arg, cmd, handle); err != nil {
			return err
		}
	}
	if err := out.Flush(); err != nil {
		return err
	}
	if c.OutputFormat == "table" {
		if err := printTable(cmd, table); err != nil {
			return err
		}
	}
	if failed > 0 {
		return errors.Newf(errors.ErrCodeValidation, "%d record(s) failed to parse", failed)
	}
	return nil
}

// walkArg streams the records of one argument; "-" is stdin.
func walkArg(ctx context.Context, rt *bootstrap.Runtime, arg string, cmd *cobra.Command, fn func(parser.Record) error) error {
	if arg == "-" {
		return rt.Reader.WalkReader(ctx, "stdin", cmd.InOrStdin(), fn)
	}
	if _, err := os.Stat(arg); err != nil {
		return errors.Wrapf(err, errors.ErrCodeArchiveUnreadable, "cannot read %s", arg)
	}
	return rt.Reader.Walk(ctx, arg, fn)
}

//Personal.AI order the ending
