package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/turtacn/patent-normalizer/pkg/errors"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

// SearchQuery filters Search and Facets.  Facets entries look like
// "cpc:D07B2201".
type SearchQuery struct {
	Text     string
	Facets   []string
	Country  string
	Kind     string
	DateFrom string
	DateTo   string
	From     int
	Size     int
}

func (q SearchQuery) values() url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("q", q.Text)
	set("country", q.Country)
	set("kind", q.Kind)
	set("date_from", q.DateFrom)
	set("date_to", q.DateTo)
	for _, f := range q.Facets {
		v.Add("facet", f)
	}
	if q.From > 0 {
		v.Set("from", strconv.Itoa(q.From))
	}
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	return v
}

type SearchHit struct {
	ID              string  `json:"id"`
	Score           float64 `json:"score"`
	Title           string  `json:"title"`
	PublicationDate string  `json:"publication_date,omitempty"`
}

type SearchResult struct {
	Total int64       `json:"total"`
	Hits  []SearchHit `json:"hits"`
}

type FacetCount struct {
	Facet string `json:"facet"`
	Count int64  `json:"count"`
}

type FacetResult struct {
	Standard string       `json:"standard"`
	Level    int          `json:"level"`
	Facets   []FacetCount `json:"facets"`
}

// GetDocument loads a stored document by identifier, e.g. "US9855244B2".
func (c *Client) GetDocument(ctx context.Context, id string) (*dto.Document, error) {
	if id == "" {
		return nil, errors.New(errors.ErrCodeValidation, "document id is required")
	}
	doc := &dto.Document{}
	if err := c.get(ctx, "/api/v1/documents/"+url.PathEscape(id), nil, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *Client) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	res := &SearchResult{}
	if err := c.get(ctx, "/api/v1/search", q.values(), res); err != nil {
		return nil, err
	}
	return res, nil
}

// Facets counts documents per facet of standard at level (1 is the
// coarsest).
func (c *Client) Facets(ctx context.Context, standard string, level int, q SearchQuery) (*FacetResult, error) {
	if standard == "" {
		return nil, errors.New(errors.ErrCodeValidation, "standard is required")
	}
	v := q.values()
	if level > 0 {
		v.Set("level", strconv.Itoa(level))
	}
	res := &FacetResult{}
	if err := c.get(ctx, "/api/v1/facets/"+url.PathEscape(standard), v, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Healthy reports whether the server's readiness check passes.
func (c *Client) Healthy(ctx context.Context) error {
	return c.get(ctx, "/readyz", nil, nil)
}

//Personal.AI order the ending
