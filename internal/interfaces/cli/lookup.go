package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/patent-normalizer/internal/domain/classification"
	"github.com/turtacn/patent-normalizer/internal/domain/docid"
	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

// ─────────────────────────────────────────────────────────────────────────────
// classify
// ─────────────────────────────────────────────────────────────────────────────

type classifyOptions struct {
	standard string
	contains string
}

func newClassifyCmd() *cobra.Command {
	opts := &classifyOptions{}
	cmd := &cobra.Command{
		Use:   "classify CODE",
		Short: "Parse a classification code",
		Example: `  patentctl classify --standard cpc "D07B 2201/2051"
  patentctl classify --standard uspc 428/220 --contains 428/220.5
  patentctl classify -o json "C07D 401/12"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, strings.Join(args, " "), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.standard, "standard", "s", "any", "classification standard (cpc, ipc, uspc, locarno, dwpi, any)")
	cmd.Flags().StringVar(&opts.contains, "contains", "", "report whether CODE contains this code of the same standard")
	return cmd
}

// ClassifyResult is a parsed classification code.
type ClassifyResult struct {
	dto.Classification
	Parts    []string `json:"parts"`
	Depth    int      `json:"depth"`
	Contains *bool    `json:"contains,omitempty"`
}

func (r ClassifyResult) TableHeaders() []string {
	return []string{"Standard", "Code", "Depth", "Facets", "Contains"}
}

func (r ClassifyResult) TableRows() [][]string {
	contains := ""
	if r.Contains != nil {
		contains = strconv.FormatBool(*r.Contains)
	}
	return [][]string{{r.Standard, r.Code, strconv.Itoa(r.Depth), strings.Join(r.Facets, " "), contains}}
}

func runClassify(cmd *cobra.Command, code string, opts *classifyOptions) error {
	var (
		cls classification.Classification
		err error
	)
	if strings.EqualFold(opts.standard, "any") {
		cls, err = classification.ParseAny(code)
	} else {
		var std classification.Standard
		if std, err = classification.ParseStandard(opts.standard); err == nil {
			cls, err = classification.Parse(std, code)
		}
	}
	if err != nil {
		return err
	}

	res := ClassifyResult{
		Classification: patent.ClassificationOf(cls),
		Parts:          cls.Parts(),
		Depth:          cls.Depth(),
	}
	if opts.contains != "" {
		other, err := classification.Parse(cls.Standard(), opts.contains)
		if err != nil {
			return err
		}
		ok := cls.Contains(other)
		res.Contains = &ok
	}
	return PrintResult(cmd, res)
}

// ─────────────────────────────────────────────────────────────────────────────
// docid
// ─────────────────────────────────────────────────────────────────────────────

type docIDOptions struct {
	year      int
	keepZeros bool
}

func newDocIDCmd() *cobra.Command {
	opts := &docIDOptions{}
	cmd := &cobra.Command{
		Use:   "docid TEXT",
		Short: "Parse a document identifier",
		Example: `  patentctl docid US9855244B2
  patentctl docid "US 2005/0123456 A1"
  patentctl docid --year 1989 -o json DE3812345A1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocID(cmd, strings.Join(args, " "), opts)
		},
	}
	cmd.Flags().IntVar(&opts.year, "year", 0, "filing year used to resolve historical country codes")
	cmd.Flags().BoolVar(&opts.keepZeros, "keep-zeros", false, "keep leading zeros of the number")
	return cmd
}

// DocIDResult is a parsed document identifier.
type DocIDResult struct {
	dto.DocumentID
	RawNumber  string `json:"raw_number"`
	IDNoKind   string `json:"id_no_kind"`
	PatentType string `json:"patent_type"`
	PCT        bool   `json:"pct,omitempty"`
	Year       int    `json:"year,omitempty"`
}

func (r DocIDResult) TableHeaders() []string {
	return []string{"ID", "Country", "Number", "Kind", "Type"}
}

func (r DocIDResult) TableRows() [][]string {
	return [][]string{{r.ID, r.Country, r.Number, r.Kind, r.PatentType}}
}

func runDocID(cmd *cobra.Command, text string, opts *docIDOptions) error {
	keep := opts.keepZeros
	if c, err := GetCLIContext(cmd); err == nil && c.Config != nil && !cmd.Flags().Changed("keep-zeros") {
		keep = c.Config.Parser.KeepLeadingZeros
	}
	docOpts := []docid.Option{docid.KeepLeadingZeros(keep)}
	if opts.year > 0 {
		docOpts = append(docOpts, docid.WithYear(opts.year))
	}
	id, err := docid.Parse(text, docOpts...)
	if err != nil {
		return err
	}
	return PrintResult(cmd, DocIDResult{
		DocumentID: patent.DocumentIDOf(id),
		RawNumber:  id.RawNumber(),
		IDNoKind:   id.IDNoKind(),
		PatentType: string(id.PatentType()),
		PCT:        id.IsPCT(),
		Year:       id.Year(),
	})
}

//Personal.AI order the ending
