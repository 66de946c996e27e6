package patent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimType_String(t *testing.T) {
	assert.Equal(t, "INDEPENDENT", ClaimTypeIndependent.String())
	assert.Equal(t, "DEPENDENT", ClaimTypeDependent.String())
	assert.Equal(t, "UNKNOWN", ClaimType(255).String())
}

func TestClaimType_IsValid(t *testing.T) {
	assert.True(t, ClaimTypeIndependent.IsValid())
	assert.True(t, ClaimTypeDependent.IsValid())
	assert.False(t, ClaimTypeUnknown.IsValid())
}

func TestNormalizeClaimID(t *testing.T) {
	cases := map[string]string{
		"CLM-00016": "16",
		"00016":     "16",
		"16":        "16",
		" 7 ":       "7",
		"0000":      "0",
		"abc":       "abc",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeClaimID(in), in)
	}
}

func TestNewClaim_Independent(t *testing.T) {
	c := NewClaim("CLM-00001", "  A widget comprising a frame. ", nil)
	assert.Equal(t, "1", c.ID())
	assert.Equal(t, 1, c.Number())
	assert.Equal(t, "A widget comprising a frame.", c.Text())
	assert.Equal(t, ClaimTypeIndependent, c.Type())
	assert.Empty(t, c.DependsOn())
	assert.Equal(t, LevelUnset, c.Level())
}

func TestNewClaim_DependentDropsSelfAndDuplicates(t *testing.T) {
	c := NewClaim("3", "The widget of claim 1", []string{"CLM-00001", "1", "3", "", "2"})
	assert.Equal(t, ClaimTypeDependent, c.Type())
	assert.Equal(t, []string{"1", "2"}, c.DependsOn())
}

func TestNewClaim_OnlySelfReferenceIsIndependent(t *testing.T) {
	c := NewClaim("4", "A method as in claim 4", []string{"4"})
	assert.Equal(t, ClaimTypeIndependent, c.Type())
}

func TestClaim_WithHTML(t *testing.T) {
	c := NewClaim("1", "A widget.", nil)
	h := c.WithHTML("<p>A widget.</p>")
	assert.Equal(t, "<p>A widget.</p>", h.HTML())
	assert.Empty(t, c.HTML())
}

func TestClaimRefs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"single", "The widget of claim 3, wherein", []string{"3"}},
		{"range with to", "The method of claims 1 to 4", []string{"1", "2", "3", "4"}},
		{"range with dash and list", "as claimed in any one of claims 1-3, 5 or 7", []string{"1", "2", "3", "5", "7"}},
		{"and", "according to claims 2 and 6", []string{"2", "6"}},
		{"repeated claim word", "of claim 1 or claim 2", []string{"1", "2"}},
		{"two mentions", "of claim 2 ... as in claim 2", []string{"2"}},
		{"none", "A widget comprising a frame.", nil},
		{"case insensitive", "Claim 9 as recited", []string{"9"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClaimRefs(tt.text))
		})
	}
}

func TestBuildClaimTree_ParentOutsideWindow(t *testing.T) {
	claims := []Claim{
		NewClaim("16", "The device of claim 15", []string{"15"}),
		NewClaim("17", "The device of claim 16", []string{"16"}),
		NewClaim("18", "A device comprising a housing.", nil),
		NewClaim("19", "The device of claim 18", []string{"18"}),
	}
	tree := BuildClaimTree(claims)
	require.Equal(t, 4, tree.Len())

	levels := map[string]int{}
	for _, c := range tree.Claims() {
		levels[c.ID()] = c.Level()
	}
	assert.Equal(t, 0, levels["18"])
	assert.Equal(t, 1, levels["19"])
	assert.Equal(t, LevelUnset, levels["16"])
	assert.Equal(t, LevelUnset, levels["17"])

	unreached := tree.Unreached()
	require.Len(t, unreached, 2)
	assert.Equal(t, "16", unreached[0].ID())
	assert.Equal(t, "17", unreached[1].ID())

	c16, ok := tree.Get("16")
	require.True(t, ok)
	assert.Equal(t, []string{"17"}, c16.Children())
}

func TestBuildClaimTree_MultipleParentsFirstLevelWins(t *testing.T) {
	claims := []Claim{
		NewClaim("1", "A widget.", nil),
		NewClaim("2", "The widget of claim 1", []string{"1"}),
		NewClaim("3", "The widget of claim 2", []string{"2"}),
		NewClaim("4", "The widget of claim 1 or 3", []string{"1", "3"}),
		NewClaim("5", "A method.", nil),
	}
	tree := BuildClaimTree(claims)

	get := func(id string) Claim {
		c, ok := tree.Get(id)
		require.True(t, ok, id)
		return c
	}
	assert.Equal(t, 0, get("1").Level())
	assert.Equal(t, 1, get("2").Level())
	assert.Equal(t, 2, get("3").Level())
	assert.Equal(t, 1, get("4").Level())
	assert.Equal(t, 0, get("5").Level())

	assert.Equal(t, []string{"2", "4"}, get("1").Children())
	assert.Equal(t, []string{"4"}, get("3").Children())
	assert.Empty(t, tree.Unreached())

	ind := tree.Independent()
	require.Len(t, ind, 2)
	assert.Equal(t, "1", ind[0].ID())
	assert.Equal(t, "5", ind[1].ID())
}

func TestBuildClaimTree_Cycle(t *testing.T) {
	claims := []Claim{
		NewClaim("1", "A widget.", nil),
		NewClaim("2", "of claim 3", []string{"3"}),
		NewClaim("3", "of claim 2", []string{"2"}),
	}
	tree := BuildClaimTree(claims)
	c2, _ := tree.Get("2")
	c3, _ := tree.Get("3")
	assert.Equal(t, LevelUnset, c2.Level())
	assert.Equal(t, LevelUnset, c3.Level())
	assert.Len(t, tree.Descendants("2"), 2)
}

func TestBuildClaimTree_DuplicateIDDropped(t *testing.T) {
	tree := BuildClaimTree([]Claim{
		NewClaim("1", "A widget.", nil),
		NewClaim("2", "of claim 1", []string{"1"}),
		NewClaim("CLM-00002", "of claim 1, second copy", []string{"1"}),
		NewClaim("3", "of claim 2", []string{"2"}),
	})
	require.Equal(t, 3, tree.Len())

	c1, _ := tree.Get("1")
	assert.Equal(t, []string{"2"}, c1.Children())
	c2, _ := tree.Get("2")
	assert.Equal(t, "of claim 1", c2.Text())
	assert.Equal(t, []string{"3"}, c2.Children())
	for _, c := range tree.Claims() {
		assert.NotEqual(t, LevelUnset, c.Level(), c.ID())
	}
}

func TestBuildClaimTree_DoesNotMutateInput(t *testing.T) {
	claims := []Claim{
		NewClaim("1", "A widget.", nil),
		NewClaim("2", "of claim 1", []string{"1"}),
	}
	BuildClaimTree(claims)
	assert.Equal(t, LevelUnset, claims[0].Level())
	assert.Empty(t, claims[0].Children())
}

func TestClaimTree_ChildrenAndDescendants(t *testing.T) {
	tree := BuildClaimTree([]Claim{
		NewClaim("1", "A widget.", nil),
		NewClaim("2", "of claim 1", []string{"1"}),
		NewClaim("3", "of claim 2", []string{"2"}),
		NewClaim("4", "of claim 1", []string{"1"}),
	})
	children := tree.Children("1")
	require.Len(t, children, 2)
	assert.Equal(t, "2", children[0].ID())
	assert.Equal(t, "4", children[1].ID())

	var ids []string
	for _, c := range tree.Descendants("CLM-00001") {
		ids = append(ids, c.ID())
	}
	assert.Equal(t, []string{"1", "2", "4", "3"}, ids)

	assert.Nil(t, tree.Children("99"))
	assert.Nil(t, tree.Descendants("99"))
}

func TestClaimTree_NilSafe(t *testing.T) {
	var tree *ClaimTree
	assert.Equal(t, 0, tree.Len())
	assert.Nil(t, tree.Claims())
	_, ok := tree.Get("1")
	assert.False(t, ok)
	assert.Nil(t, tree.Independent())
}

//Personal.AI order the ending
