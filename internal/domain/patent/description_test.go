package patent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionTypeForHeading(t *testing.T) {
	tests := map[string]SectionType{
		"CROSS-REFERENCE TO RELATED APPLICATIONS":  SectionRelatedApplication,
		"BRIEF DESCRIPTION OF THE DRAWINGS":        SectionDrawingDescription,
		"SUMMARY OF THE INVENTION":                 SectionBriefSummary,
		"DETAILED DESCRIPTION":                     SectionDetailedDescription,
		"DESCRIPTION OF THE PREFERRED EMBODIMENTS": SectionDetailedDescription,
		"BACKGROUND":                               SectionOther,
	}
	for heading, want := range tests {
		assert.Equal(t, want, SectionTypeForHeading(heading), heading)
	}
}

func TestFigureRefs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"single", "as shown in FIG. 1, the frame", []string{"1"}},
		{"letter range", "FIGS. 2A-2C show", []string{"2A", "2B", "2C"}},
		{"numeric range", "FIGS. 3 to 5 illustrate", []string{"3", "4", "5"}},
		{"and list", "FIGS. 6 and 7", []string{"6", "7"}},
		{"figure word", "Figure 8 is a view", []string{"8"}},
		{"lower case", "see fig. 9a", []string{"9A"}},
		{"none", "no drawings here", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FigureRefs(tt.text))
		})
	}
}

func TestExtractFigures(t *testing.T) {
	text := "FIG. 1 is a perspective view of the widget.\n" +
		"FIG. 2A is a side view.\n" +
		"Other text.\n"
	figs := ExtractFigures(text)
	require.Len(t, figs, 2)
	assert.Equal(t, "1", figs[0].Number)
	assert.Equal(t, "FIG. 1 is a perspective view of the widget.", figs[0].Text)
	assert.Equal(t, "2A", figs[1].Number)
}

func TestNewDescription(t *testing.T) {
	d := NewDescription(
		Section{Type: SectionBriefSummary, Heading: "SUMMARY", Text: "A widget as in FIG. 3."},
		Section{Type: SectionDrawingDescription, Heading: "BRIEF DESCRIPTION OF THE DRAWINGS",
			Text: "FIG. 1 is a view.\nFIG. 2 is another view."},
		Section{Type: SectionDetailedDescription, Heading: "DETAILED DESCRIPTION", Text: "Referring to FIGS. 1 and 10."},
	)
	assert.False(t, d.IsZero())
	assert.Len(t, d.Sections(), 3)
	require.Len(t, d.Figures(), 2)
	assert.Equal(t, "2", d.Figures()[1].Number)
	assert.Equal(t, []string{"1", "2", "3", "10"}, d.FigureRefs())

	s, ok := d.Section(SectionDetailedDescription)
	require.True(t, ok)
	assert.Equal(t, "DETAILED DESCRIPTION", s.Heading)
	_, ok = d.Section(SectionRelatedApplication)
	assert.False(t, ok)

	assert.Contains(t, d.Text(), "A widget as in FIG. 3.\n\nFIG. 1 is a view.")
	assert.True(t, Description{}.IsZero())
}

func TestParseCitedBy(t *testing.T) {
	assert.Equal(t, CitedByExaminer, ParseCitedBy("cited by examiner"))
	assert.Equal(t, CitedByApplicant, ParseCitedBy("cited by applicant"))
	assert.Equal(t, CitedByApplicant, ParseCitedBy("cited by other"))
	assert.Equal(t, CitedByThirdParty, ParseCitedBy("cited by third party"))
	assert.Equal(t, CitedByUnknown, ParseCitedBy(""))
}

//Personal.AI order the ending
