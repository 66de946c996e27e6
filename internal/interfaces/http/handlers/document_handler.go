package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/patent-normalizer/internal/infrastructure/search/opensearch"
	"github.com/turtacn/patent-normalizer/pkg/errors"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

// DocumentReader loads stored documents; normalize.Service implements it.
type DocumentReader interface {
	GetDocument(ctx context.Context, id string) (*dto.Document, error)
}

// Searcher queries the search index; *opensearch.Searcher implements it.
type Searcher interface {
	Search(ctx context.Context, q opensearch.Query) (*opensearch.SearchResult, error)
	FacetCounts(ctx context.Context, q opensearch.Query, standard string, level, size int) ([]opensearch.FacetCount, error)
}

// DocumentHandler serves stored documents and search.  Either collaborator
// may be nil, in which case its endpoints answer 403 feature disabled.
type DocumentHandler struct {
	docs     DocumentReader
	searcher Searcher
}

func NewDocumentHandler(docs DocumentReader, searcher Searcher) *DocumentHandler {
	return &DocumentHandler{docs: docs, searcher: searcher}
}

const maxPageSize = 100

// Get handles GET /api/v1/documents/:id.
func (h *DocumentHandler) Get(c *gin.Context) {
	if h.docs == nil {
		respondError(c, errors.New(errors.ErrCodeFeatureDisabled, "document store is not configured"))
		return
	}
	doc, err := h.docs.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Search handles GET /api/v1/search.
//
//	q         free text over title, abstract and independent claims
//	facet     "{standard}:{facet}", repeatable, all must match
//	country, kind, date_from, date_to
//	from, size   paging; size is capped at 100
func (h *DocumentHandler) Search(c *gin.Context) {
	if h.searcher == nil {
		respondError(c, errors.New(errors.ErrCodeFeatureDisabled, "search is not configured"))
		return
	}
	q, ok := searchQuery(c)
	if !ok {
		return
	}
	res, err := h.searcher.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Facets handles GET /api/v1/facets/:standard with the Search filters plus
// level (facet depth, default 1) and size (buckets, default 20).
func (h *DocumentHandler) Facets(c *gin.Context) {
	if h.searcher == nil {
		respondError(c, errors.New(errors.ErrCodeFeatureDisabled, "search is not configured"))
		return
	}
	q, ok := searchQuery(c)
	if !ok {
		return
	}
	level, ok := queryInt(c, "level", 1)
	if !ok {
		return
	}
	counts, err := h.searcher.FacetCounts(c.Request.Context(), q, c.Param("standard"), level, q.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"standard": c.Param("standard"), "level": level, "facets": counts})
}

func searchQuery(c *gin.Context) (opensearch.Query, bool) {
	from, ok := queryInt(c, "from", 0)
	if !ok {
		return opensearch.Query{}, false
	}
	size, ok := queryInt(c, "size", 20)
	if !ok {
		return opensearch.Query{}, false
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return opensearch.Query{
		Text:     c.Query("q"),
		Facets:   c.QueryArray("facet"),
		Country:  c.Query("country"),
		Kind:     c.Query("kind"),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
		From:     from,
		Size:     size,
	}, true
}

//Personal.AI order the ending
