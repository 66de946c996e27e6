package opensearch

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/turtacn/patent-normalizer/pkg/errors"
)

func TestBuildSearchBody_MatchAllSortsByDate(t *testing.T) {
	body := buildSearchBody(Query{})
	assert.Equal(t, 10, body["size"])
	assert.Contains(t, body, "sort")

	b := body["query"].(map[string]any)["bool"].(map[string]any)
	assert.NotContains(t, b, "filter")
}

func TestBuildSearchBody_Filters(t *testing.T) {
	body := buildSearchBody(Query{
		Text:     "widget",
		Facets:   []string{"cpc:1/H/H04"},
		Country:  "US",
		DateFrom: "2018-01-01",
		Size:     5000,
	})
	assert.Equal(t, 1000, body["size"])
	assert.NotContains(t, body, "sort")

	data, err := json.Marshal(body)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"multi_match"`)
	assert.Contains(t, s, `{"term":{"facets":"cpc:1/H/H04"}}`)
	assert.Contains(t, s, `{"term":{"country":"US"}}`)
	assert.Contains(t, s, `{"range":{"publication_date":{"gte":"2018-01-01"}}}`)
}

func TestSearcher_Search(t *testing.T) {
	fc := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request, body string) {
		_, _ = w.Write([]byte(`{
			"hits": {
				"total": {"value": 42},
				"hits": [
					{"_id": "US9855244B2", "_score": 3.5, "_source": {"title": "Widget", "publication_date": "2018-01-02"}}
				]
			}
		}`))
	})
	s := NewSearcher(newTestClient(t, fc, 0), nil)

	res, err := s.Search(context.Background(), Query{Text: "widget"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), res.Total)
	assert.Equal(t, []Hit{{ID: "US9855244B2", Score: 3.5, Title: "Widget", PublicationDate: "2018-01-02"}}, res.Hits)
	assert.Equal(t, "/patents-test/_search", fc.last().Path)
}

func TestSearcher_Search_Error(t *testing.T) {
	fc := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request, body string) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"parsing_exception","reason":"unknown query"}}`))
	})
	s := NewSearcher(newTestClient(t, fc, 0), nil)

	_, err := s.Search(context.Background(), Query{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeExternalService))
}

func TestSearcher_FacetCounts(t *testing.T) {
	fc := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request, body string) {
		_, _ = w.Write([]byte(`{
			"hits": {"total": {"value": 7}, "hits": []},
			"aggregations": {"facets": {"buckets": [
				{"key": "cpc:1/H/H04", "doc_count": 5},
				{"key": "cpc:1/G/G06", "doc_count": 2}
			]}}
		}`))
	})
	s := NewSearcher(newTestClient(t, fc, 0), nil)

	counts, err := s.FacetCounts(context.Background(), Query{Country: "US"}, "cpc", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []FacetCount{{Facet: "cpc:1/H/H04", Count: 5}, {Facet: "cpc:1/G/G06", Count: 2}}, counts)
	assert.Contains(t, fc.last().Body, `"include":"cpc:1/.*"`)

	_, err = s.FacetCounts(context.Background(), Query{}, "", 1, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))
}

//Personal.AI order the ending
