package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// Query selects documents from the patent index.  Text matches title,
// abstract and independent claims; Facets are "{standard}:{facet}" values
// that must all be present.
type Query struct {
	Text     string   `json:"text,omitempty"`
	Facets   []string `json:"facets,omitempty"`
	Country  string   `json:"country,omitempty"`
	Kind     string   `json:"kind,omitempty"`
	DateFrom string   `json:"date_from,omitempty"`
	DateTo   string   `json:"date_to,omitempty"`
	From     int      `json:"from,omitempty"`
	Size     int      `json:"size,omitempty"`
}

// Hit is one matching document.
type Hit struct {
	ID              string  `json:"id"`
	Score           float64 `json:"score"`
	Title           string  `json:"title"`
	PublicationDate string  `json:"publication_date,omitempty"`
}

// SearchResult is a page of hits.
type SearchResult struct {
	Total int64 `json:"total"`
	Hits  []Hit `json:"hits"`
}

// FacetCount is one bucket of a facet aggregation.
type FacetCount struct {
	Facet string `json:"facet"`
	Count int64  `json:"count"`
}

// Searcher queries the patent index.
type Searcher struct {
	client *Client
	logger logging.Logger
}

func NewSearcher(client *Client, logger logging.Logger) *Searcher {
	return &Searcher{client: client, logger: logging.OrDefault(logger)}
}

// Search runs q and returns one page of hits, best first.
func (s *Searcher) Search(ctx context.Context, q Query) (*SearchResult, error) {
	body, err := json.Marshal(buildSearchBody(q))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal query")
	}
	resp, err := opensearchapi.SearchRequest{
		Index: []string{s.client.IndexName()},
		Body:  bytes.NewReader(body),
	}.Do(ctx, s.client.GetClient())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "search request failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, responseError(resp, errors.ErrCodeExternalService, "search failed")
	}

	var sr struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID     string  `json:"_id"`
				Score  float64 `json:"_score"`
				Source struct {
					Title           string `json:"title"`
					PublicationDate string `json:"publication_date"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode search response")
	}

	out := &SearchResult{Total: sr.Hits.Total.Value, Hits: make([]Hit, 0, len(sr.Hits.Hits))}
	for _, h := range sr.Hits.Hits {
		out.Hits = append(out.Hits, Hit{
			ID:              h.ID,
			Score:           h.Score,
			Title:           h.Source.Title,
			PublicationDate: h.Source.PublicationDate,
		})
	}
	return out, nil
}

// FacetCounts counts the documents matching q per facet of standard at
// level.
func (s *Searcher) FacetCounts(ctx context.Context, q Query, standard string, level, size int) ([]FacetCount, error) {
	if standard == "" || level < 0 {
		return nil, errors.New(errors.ErrCodeValidation, "standard and a non-negative level are required")
	}
	if size <= 0 {
		size = 20
	}
	req := buildSearchBody(q)
	req["size"] = 0
	req["aggs"] = map[string]any{
		"facets": map[string]any{
			"terms": map[string]any{
				"field":   "facets",
				"include": regexp.QuoteMeta(standard+":"+strconv.Itoa(level)+"/") + ".*",
				"size":    size,
			},
		},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal aggregation")
	}
	resp, err := opensearchapi.SearchRequest{
		Index: []string{s.client.IndexName()},
		Body:  bytes.NewReader(body),
	}.Do(ctx, s.client.GetClient())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "aggregation request failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, responseError(resp, errors.ErrCodeExternalService, "aggregation failed")
	}

	var ar struct {
		Aggregations struct {
			Facets struct {
				Buckets []struct {
					Key      string `json:"key"`
					DocCount int64  `json:"doc_count"`
				} `json:"buckets"`
			} `json:"facets"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode aggregation response")
	}
	counts := make([]FacetCount, 0, len(ar.Aggregations.Facets.Buckets))
	for _, b := range ar.Aggregations.Facets.Buckets {
		counts = append(counts, FacetCount{Facet: b.Key, Count: b.DocCount})
	}
	return counts, nil
}

func buildSearchBody(q Query) map[string]any {
	var must []any
	var filter []any
	if q.Text != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":  q.Text,
				"fields": []string{"title^3", "abstract^2", "claims"},
			},
		})
	}
	for _, f := range q.Facets {
		filter = append(filter, map[string]any{"term": map[string]any{"facets": f}})
	}
	if q.Country != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"country": q.Country}})
	}
	if q.Kind != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"kind": q.Kind}})
	}
	if q.DateFrom != "" || q.DateTo != "" {
		rng := map[string]any{}
		if q.DateFrom != "" {
			rng["gte"] = q.DateFrom
		}
		if q.DateTo != "" {
			rng["lte"] = q.DateTo
		}
		filter = append(filter, map[string]any{"range": map[string]any{"publication_date": rng}})
	}

	boolQuery := map[string]any{}
	if len(must) > 0 {
		boolQuery["must"] = must
	} else {
		boolQuery["must"] = []any{map[string]any{"match_all": map[string]any{}}}
	}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}

	size := q.Size
	if size <= 0 {
		size = 10
	}
	if size > 1000 {
		size = 1000
	}
	body := map[string]any{
		"query":   map[string]any{"bool": boolQuery},
		"from":    q.From,
		"size":    size,
		"_source": []string{"title", "publication_date"},
	}
	if q.Text == "" {
		body["sort"] = []any{map[string]any{"publication_date": map[string]any{"order": "desc", "missing": "_last"}}}
	}
	return body
}

//Personal.AI order the ending
