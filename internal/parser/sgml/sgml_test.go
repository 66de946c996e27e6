package sgml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patent-normalizer/internal/domain/classification"
	"github.com/turtacn/patent-normalizer/internal/domain/docid"
	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	"github.com/turtacn/patent-normalizer/internal/parser/format"
	"github.com/turtacn/patent-normalizer/internal/parser/fragment"
)

func parseFixture(t *testing.T) *patent.Patent {
	t.Helper()
	f, err := os.Open(filepath.Join("..", "testdata", "grant_sgml.sgm"))
	require.NoError(t, err)
	defer f.Close()

	doc, err := Tree(f)
	require.NoError(t, err)
	root := doc.SelectElement(Root)
	require.NotNil(t, root)
	p, err := Parse(root, fragment.Env{Format: format.SGML}, patent.Source{File: "pg010102.sgm", Record: 4})
	require.NoError(t, err)
	return p
}

func TestTree_LenientMarkup(t *testing.T) {
	doc, err := Tree(strings.NewReader(`<PATDOC DTD=2.4><B561><PCIT>x</PCIT><CITED-BY-EXAMINER></B561><P>&mgr;m &amp; more</P></PATDOC>`))
	require.NoError(t, err)
	root := doc.SelectElement(Root)
	require.NotNil(t, root)
	assert.Equal(t, "2.4", fragment.Attr(root, "DTD"))
	assert.NotNil(t, fragment.P("B561/CITED-BY-EXAMINER").One(root))
	assert.Contains(t, fragment.P("P").Text(root), "& more")
}

func TestQuoteAttrs(t *testing.T) {
	in := `<PATDOC DTD=2.4 STATUS="new one" FILE='a b=c'><IMG SRC=US06167569-20010102-D00001.TIF><P>x=1 < y</P></PATDOC>`
	want := `<PATDOC DTD="2.4" STATUS="new one" FILE='a b=c'><IMG SRC="US06167569-20010102-D00001.TIF"><P>x=1 < y</P></PATDOC>`
	assert.Equal(t, want, string(quoteAttrs([]byte(in))))
}

func TestParse_Identifiers(t *testing.T) {
	p := parseFixture(t)

	assert.Equal(t, patent.KindGrant, p.Kind())
	assert.Equal(t, "US6167569B1", p.ID().ID())
	assert.Equal(t, 2001, p.PublicationDate().Year())
	assert.Equal(t, "US9304010", p.ApplicationID().ID())
	assert.Equal(t, 1999, p.FilingDate().Year())
	assert.Equal(t, "Plant container with drain", p.Title())
	assert.Equal(t, "2.4", p.Source().SchemaVersion)
	assert.Equal(t, "sgml", p.Source().Format)
	assert.Equal(t, 4, p.Source().Record)

	require.Len(t, p.PriorityIDs(), 1)
	assert.Equal(t, docid.CountryCode("JP"), p.PriorityIDs()[0].Country())

	related := p.RelatedIDs()
	require.Len(t, related, 2)
	assert.Equal(t, "US8765432", related[0].ID())
	assert.Equal(t, docid.TypeContinuation, related[0].Type())
	assert.Equal(t, docid.TypeProvisional, related[1].Type())
}

func TestParse_Classifications(t *testing.T) {
	p := parseFixture(t)

	ipc := p.ClassificationsOf(classification.StandardIPC)
	require.Len(t, ipc, 2)
	assert.Equal(t, "A01G 23/00", ipc[0].Normalized())
	assert.True(t, ipc[0].IsMain())

	uspc := p.ClassificationsOf(classification.StandardUSPC)
	require.Len(t, uspc, 2)
	assert.True(t, uspc[0].IsMain())

	var dropped bool
	for _, d := range p.Diagnostics() {
		if d.Field == "uspc" {
			dropped = true
		}
	}
	assert.True(t, dropped)
}

func TestParse_PartiesAndCitations(t *testing.T) {
	p := parseFixture(t)

	inventors := p.Inventors()
	require.Len(t, inventors, 2)
	assert.Equal(t, "John Gardener", inventors[0].Name.Full())
	assert.Equal(t, "OR", inventors[0].Address.State)
	assert.Equal(t, docid.CountryCode("DE"), inventors[1].Address.Country)

	require.Len(t, p.Assignees(), 1)
	assert.Equal(t, "Green Pots, Inc.", p.Assignees()[0].Name.Full())
	assert.Equal(t, "02", p.Assignees()[0].Detail)

	require.Len(t, p.Agents(), 1)
	assert.Equal(t, "Root & Stem LLP", p.Agents()[0].Name.Full())

	require.Len(t, p.Examiners(), 1)
	assert.Equal(t, "primary 3643", p.Examiners()[0].Detail)

	cites := p.Citations()
	require.Len(t, cites, 3)
	first := cites[0].(patent.PatCitation)
	assert.Equal(t, "US1234567A", first.DocID.ID())
	assert.Equal(t, patent.CitedByExaminer, first.By)
	assert.Equal(t, "Jones", first.Patentee)
	require.NotNil(t, first.Classification)
	assert.Equal(t, "047/065.5", first.Classification.Normalized())

	second := cites[1].(patent.PatCitation)
	assert.Equal(t, docid.CountryCode("DE"), second.DocID.Country())
	assert.Equal(t, patent.CitedByApplicant, second.By)

	npl := cites[2].(patent.NplCitation)
	assert.Equal(t, "Garden Journal, vol. 3 & 4, “Drains”.", npl.Text)
}

func TestParse_Text(t *testing.T) {
	p := parseFixture(t)

	assert.Equal(t, "A plant container with a drain hole.", p.Abstract())

	secs := p.Description().Sections()
	require.Len(t, secs, 4)
	assert.Equal(t, patent.SectionRelatedApplication, secs[0].Type)
	assert.Equal(t, "", secs[0].Heading)
	assert.Equal(t, "SUMMARY OF THE INVENTION", secs[1].Heading)
	assert.Equal(t, "FIG. 1 is a top view.\nFIG. 2 is a side view.", secs[2].Text)
	assert.Contains(t, secs[3].HTML, "<sub>1</sub>")
	assert.Len(t, p.Description().Figures(), 2)

	tree := p.Claims()
	require.Equal(t, 2, tree.Len())
	c1, _ := tree.Get("1")
	assert.Equal(t, "1. A plant container comprising:\na base having a drain hole.", c1.Text())
	c2, ok := tree.Get("2")
	require.True(t, ok)
	assert.Equal(t, []string{"1"}, c2.DependsOn())
	assert.Equal(t, 1, c2.Level())
}

//Personal.AI order the ending
