package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/patent-normalizer/internal/domain/classification"
	"github.com/turtacn/patent-normalizer/internal/domain/docid"
	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

// LookupHandler parses standalone classification codes and document
// identifiers.  It has no dependencies.
type LookupHandler struct {
	keepLeadingZeros bool
}

func NewLookupHandler(keepLeadingZeros bool) *LookupHandler {
	return &LookupHandler{keepLeadingZeros: keepLeadingZeros}
}

// ClassificationResponse is a parsed classification.
type ClassificationResponse struct {
	dto.Classification
	Parts    []string `json:"parts"`
	Depth    int      `json:"depth"`
	Contains *bool    `json:"contains,omitempty"`
}

// Classification handles GET /api/v1/classifications/:standard/*code.
// "any" as standard tries every standard in turn.  ?contains=<code> reports
// whether the parsed code is an ancestor of, or equal to, another code of
// the same standard.
func (h *LookupHandler) Classification(c *gin.Context) {
	code := strings.TrimPrefix(c.Param("code"), "/")
	if code == "" {
		badRequest(c, "classification code is required")
		return
	}

	var (
		cls classification.Classification
		err error
	)
	if std := c.Param("standard"); strings.EqualFold(std, "any") {
		cls, err = classification.ParseAny(code)
	} else {
		var s classification.Standard
		if s, err = classification.ParseStandard(std); err == nil {
			cls, err = classification.Parse(s, code)
		}
	}
	if err != nil {
		respondError(c, err)
		return
	}

	resp := ClassificationResponse{
		Classification: patent.ClassificationOf(cls),
		Parts:          cls.Parts(),
		Depth:          cls.Depth(),
	}
	if other := c.Query("contains"); other != "" {
		o, err := classification.Parse(cls.Standard(), other)
		if err != nil {
			respondError(c, err)
			return
		}
		contains := cls.Contains(o)
		resp.Contains = &contains
	}
	c.JSON(http.StatusOK, resp)
}

// DocumentIDResponse is a parsed document identifier.
type DocumentIDResponse struct {
	dto.DocumentID
	RawNumber  string `json:"raw_number"`
	IDNoKind   string `json:"id_no_kind"`
	PatentType string `json:"patent_type"`
	PCT        bool   `json:"pct,omitempty"`
	Year       int    `json:"year,omitempty"`
}

// DocumentID handles GET /api/v1/document-ids/*text.  ?year= resolves
// historical country codes for that filing year.
func (h *LookupHandler) DocumentID(c *gin.Context) {
	text := strings.TrimPrefix(c.Param("text"), "/")
	if text == "" {
		badRequest(c, "document identifier is required")
		return
	}
	year, ok := queryInt(c, "year", 0)
	if !ok {
		return
	}
	opts := []docid.Option{docid.KeepLeadingZeros(h.keepLeadingZeros)}
	if year > 0 {
		opts = append(opts, docid.WithYear(year))
	}

	id, err := docid.Parse(text, opts...)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DocumentIDResponse{
		DocumentID: patent.DocumentIDOf(id),
		RawNumber:  id.RawNumber(),
		IDNoKind:   id.IDNoKind(),
		PatentType: string(id.PatentType()),
		PCT:        id.IsPCT(),
		Year:       id.Year(),
	})
}

//Personal.AI order the ending
