package client

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/turtacn/patent-normalizer/pkg/errors"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

// Classification is a parsed classification code.  Contains is set when
// the lookup asked about another code.
type Classification struct {
	dto.Classification
	Parts    []string `json:"parts"`
	Depth    int      `json:"depth"`
	Contains *bool    `json:"contains,omitempty"`
}

// DocumentID is a parsed document identifier.
type DocumentID struct {
	dto.DocumentID
	RawNumber  string `json:"raw_number"`
	IDNoKind   string `json:"id_no_kind"`
	PatentType string `json:"patent_type"`
	PCT        bool   `json:"pct,omitempty"`
	Year       int    `json:"year,omitempty"`
}

// Classify parses code under standard (cpc, ipc, uspc, locarno, dwpi, or
// "any").  A non-empty contains asks whether code covers that code.
func (c *Client) Classify(ctx context.Context, standard, code, contains string) (*Classification, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.New(errors.ErrCodeValidation, "classification code is required")
	}
	if standard == "" {
		standard = "any"
	}
	var q url.Values
	if contains != "" {
		q = url.Values{"contains": {contains}}
	}
	res := &Classification{}
	if err := c.get(ctx, "/api/v1/classifications/"+url.PathEscape(standard)+"/"+escapePath(code), q, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ParseDocumentID normalizes a free-text identifier.  year, when positive,
// resolves historical country codes for that filing year.
func (c *Client) ParseDocumentID(ctx context.Context, text string, year int) (*DocumentID, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New(errors.ErrCodeValidation, "document identifier is required")
	}
	var q url.Values
	if year > 0 {
		q = url.Values{"year": {strconv.Itoa(year)}}
	}
	res := &DocumentID{}
	if err := c.get(ctx, "/api/v1/document-ids/"+escapePath(text), q, res); err != nil {
		return nil, err
	}
	return res, nil
}

//Personal.AI order the ending
