package repositories

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/turtacn/patent-normalizer/pkg/errors"
)

func TestParentFacet(t *testing.T) {
	tests := []struct {
		facet  string
		level  int
		parent string
		code   string
	}{
		{"0/H", 0, "", "H"},
		{"1/H/H04", 1, "0/H", "H04"},
		{"2/H/H04/H04L", 2, "1/H/H04", "H04L"},
	}
	for _, tt := range tests {
		t.Run(tt.facet, func(t *testing.T) {
			level, parent, code := parentFacet(tt.facet)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.parent, parent)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestFacetParams(t *testing.T) {
	facets, leaves := facetParams(graphDocument())
	require.Len(t, facets, 3)
	assert.Equal(t, "cpc:0/H", facets[0]["key"])
	assert.Nil(t, facets[0]["parent"])
	assert.Equal(t, "cpc:1/H/H04", facets[2]["parent"])

	require.Len(t, leaves, 1)
	assert.Equal(t, "cpc:2/H/H04/H04L", leaves[0]["key"])
	assert.Equal(t, true, leaves[0]["main"])
}

func TestClassificationGraph_LinkClassifications(t *testing.T) {
	d, tx := SetupMockDriver(t)
	repo := NewClassificationGraphRepository(d, nil)

	tx.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(new(MockResult), nil)
	require.NoError(t, repo.LinkClassifications(context.Background(), graphDocument()))
	tx.AssertNumberOfCalls(t, "Run", 3)
}

func TestClassificationGraph_PatentsUnderFacet(t *testing.T) {
	d, tx := SetupMockDriver(t)
	repo := NewClassificationGraphRepository(d, nil)

	res := &MockResult{Records: []*neo4j.Record{NewRecord([]string{"doc_id"}, "US9855244B2")}}
	tx.On("Run", mock.Anything, mock.MatchedBy(func(q string) bool {
		return strings.Contains(q, "PARENT*0..")
	}), map[string]any{"key": "cpc:1/H/H04", "limit": 10}).Return(res, nil)

	ids, err := repo.PatentsUnderFacet(context.Background(), "cpc", "1/H/H04", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"US9855244B2"}, ids)

	_, err = repo.PatentsUnderFacet(context.Background(), "", "1/H/H04", 10)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))
}

func TestClassificationGraph_EnsureConstraintsStopsOnError(t *testing.T) {
	d, tx := SetupMockDriver(t)
	repo := NewClassificationGraphRepository(d, nil)

	tx.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("unsupported")).Once()
	assert.Error(t, repo.EnsureConstraints(context.Background()))
	tx.AssertNumberOfCalls(t, "Run", 1)
}

func TestGraph_Write(t *testing.T) {
	d, tx := SetupMockDriver(t)
	g := NewGraph(d, nil)

	tx.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(new(MockResult), nil)
	require.NoError(t, g.Write(context.Background(), graphDocument()))
	// node, citations (clear+merge), family (clear+priority+application), classifications (clear+facets+leaves)
	tx.AssertNumberOfCalls(t, "Run", 9)
}

//Personal.AI order the ending
