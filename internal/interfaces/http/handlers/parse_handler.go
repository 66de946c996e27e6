package handlers

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turtacn/patent-normalizer/internal/application/normalize"
	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	"github.com/turtacn/patent-normalizer/internal/parser"
	"github.com/turtacn/patent-normalizer/internal/parser/format"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// HeaderDetectedFormat reports the format a record was parsed as.
const HeaderDetectedFormat = "X-Detected-Format"

// Normalizer is the slice of normalize.Service the parse endpoints use.
type Normalizer interface {
	Detect(name string, text []byte) normalize.Detection
	DetectReader(name string, r io.Reader) (normalize.Detection, io.Reader, error)
	Parse(rec parser.Record) (*patent.Patent, error)
	ParseRecord(ctx context.Context, rec parser.Record, runID string) (*patent.Patent, error)
}

// ParseHandler serves record parsing and format detection.
type ParseHandler struct {
	svc Normalizer
}

func NewParseHandler(svc Normalizer) *ParseHandler {
	return &ParseHandler{svc: svc}
}

// Parse handles POST /api/v1/parse.  The record is the raw body or the
// "file" part of a multipart form.
//
// Query parameters:
//
//	format    force a format (greenbook, sgml, pap_xml, xml_v4, cpc_master)
//	filename  name used for detection when the body has no marker
//	store     true writes the result to the configured sinks
func (h *ParseHandler) Parse(c *gin.Context) {
	name, text, ok := readRecord(c)
	if !ok {
		return
	}

	rec := parser.Record{Text: text, File: name}
	if f := c.Query("format"); f != "" {
		rec.Format = format.Parse(f)
		if !rec.Format.IsKnown() {
			badRequest(c, "unknown format %q", f)
			return
		}
	} else if name != "" {
		if d := h.svc.Detect(name, nil); d.Known {
			rec.Format = d.Format
		}
	}

	store, _ := strconv.ParseBool(c.DefaultQuery("store", "false"))
	var (
		pat *patent.Patent
		err error
	)
	if store {
		pat, err = h.svc.ParseRecord(c.Request.Context(), rec, uuid.NewString())
	} else {
		pat, err = h.svc.Parse(rec)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header(HeaderDetectedFormat, pat.Source().Format)
	c.JSON(http.StatusOK, pat.Document())
}

// Detect handles POST /api/v1/detect.  Only the head of the body is read.
func (h *ParseHandler) Detect(c *gin.Context) {
	name := c.Query("filename")
	d, _, err := h.svc.DetectReader(name, c.Request.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// readRecord returns the uploaded name and bytes, answering the request
// itself on failure.
func readRecord(c *gin.Context) (string, []byte, bool) {
	name := c.Query("filename")
	var src io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "multipart body has no file part"))
			return "", nil, false
		}
		f, err := fh.Open()
		if err != nil {
			respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to open upload"))
			return "", nil, false
		}
		defer f.Close()
		src = f
		if name == "" {
			name = fh.Filename
		}
	}
	text, err := io.ReadAll(src)
	if err != nil {
		var mbe *http.MaxBytesError
		if stderrors.As(err, &mbe) {
			respondError(c, errors.Newf(errors.ErrCodeDocumentTooLarge, "record exceeds %d bytes", mbe.Limit))
			return "", nil, false
		}
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read record"))
		return "", nil, false
	}
	if len(text) == 0 {
		respondError(c, errors.New(errors.ErrCodeEmptyDocument, "empty request body"))
		return "", nil, false
	}
	return name, text, true
}

//Personal.AI order the ending
