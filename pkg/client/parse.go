package client

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/turtacn/patent-normalizer/pkg/errors"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

// ParseOptions tunes Parse.
type ParseOptions struct {
	// Filename helps detection when the text has no format marker.
	Filename string
	// Format forces a format: greenbook, sgml, pap_xml, xml_v4 or cpc_master.
	Format string
	// Store writes the document to the server's sinks.
	Store bool
	// Multipart uploads the record as the "file" part of a form.
	Multipart bool
}

// ParseResult is a normalized document and the format it was read as.
type ParseResult struct {
	Document *dto.Document
	Format   string
}

// Detection is the format the server resolved for a record.
type Detection struct {
	Format string `json:"format"`
	Method string `json:"method"`
	Known  bool   `json:"known"`
}

// Parse normalizes one raw record.
func (c *Client) Parse(ctx context.Context, text []byte, opts ParseOptions) (*ParseResult, error) {
	if len(text) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDocument, "record is empty")
	}
	q := url.Values{}
	if opts.Filename != "" {
		q.Set("filename", opts.Filename)
	}
	if opts.Format != "" {
		q.Set("format", opts.Format)
	}
	if opts.Store {
		q.Set("store", strconv.FormatBool(true))
	}

	req := request{method: http.MethodPost, path: "/api/v1/parse", query: q, body: text, contentType: "text/plain"}
	if opts.Multipart {
		body, ct, err := multipartBody(opts.Filename, text)
		if err != nil {
			return nil, err
		}
		req.body, req.contentType = body, ct
	}

	doc := &dto.Document{}
	hdr, err := c.do(ctx, req, doc)
	if err != nil {
		return nil, err
	}
	return &ParseResult{Document: doc, Format: hdr.Get(HeaderDetectedFormat)}, nil
}

// Detect asks the server which format text is in.  Only the head of a
// record matters, so callers may pass a prefix.
func (c *Client) Detect(ctx context.Context, filename string, text []byte) (*Detection, error) {
	q := url.Values{}
	if filename != "" {
		q.Set("filename", filename)
	}
	d := &Detection{}
	if _, err := c.do(ctx, request{method: http.MethodPost, path: "/api/v1/detect", query: q, body: text, contentType: "text/plain"}, d); err != nil {
		return nil, err
	}
	return d, nil
}

func multipartBody(filename string, text []byte) ([]byte, string, error) {
	if filename == "" {
		filename = "record"
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to build multipart body")
	}
	if _, err := part.Write(text); err != nil {
		return nil, "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to build multipart body")
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to build multipart body")
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

//Personal.AI order the ending
