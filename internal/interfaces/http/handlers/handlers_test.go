package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patent-normalizer/internal/application/normalize"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/search/opensearch"
	"github.com/turtacn/patent-normalizer/internal/parser"
	"github.com/turtacn/patent-normalizer/internal/testutil"
	pkgerrors "github.com/turtacn/patent-normalizer/pkg/errors"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

func init() { gin.SetMode(gin.TestMode) }

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "..", "..", "parser", "testdata", name))
	require.NoError(t, err)
	return raw
}

func newService(t *testing.T, sinks ...normalize.Sink) *normalize.Service {
	t.Helper()
	svc, err := normalize.NewService(normalize.Deps{
		Parser: parser.New(),
		Sinks:  sinks,
		Logger: testutil.NewMockLogger(),
	})
	require.NoError(t, err)
	return svc
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// ─────────────────────────────────────────────────────────────────────────────
// Parse / detect
// ─────────────────────────────────────────────────────────────────────────────

func parseEngine(svc Normalizer) *gin.Engine {
	h := NewParseHandler(svc)
	r := gin.New()
	r.POST("/parse", h.Parse)
	r.POST("/detect", h.Detect)
	return r
}

func TestParse_RawBody(t *testing.T) {
	r := parseEngine(newService(t))
	w := serve(r, httptest.NewRequest(http.MethodPost, "/parse", bytes.NewReader(fixture(t, "grant_v45.xml"))))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "xml_v4", w.Header().Get(HeaderDetectedFormat))
	doc := decode[dto.Document](t, w)
	assert.Equal(t, "US9855244B2", doc.ID.ID)
	assert.Equal(t, dto.KindGrant, doc.Kind)
	assert.NotEmpty(t, doc.Claims)
}

func TestParse_Multipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "pftaps19760106_wk01.txt")
	require.NoError(t, err)
	_, _ = fw.Write(fixture(t, "grant_aps.txt"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/parse", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(parseEngine(newService(t)), req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	doc := decode[dto.Document](t, w)
	assert.Equal(t, "US3930271", doc.ID.ID)
	assert.Equal(t, "pftaps19760106_wk01.txt", doc.Source.File)
}

type captureSink struct{ ids []string }

func (s *captureSink) Name() string { return "capture" }
func (s *captureSink) Write(_ context.Context, out *normalize.Output) error {
	s.ids = append(s.ids, out.Document.ID.ID)
	return nil
}

func TestParse_StoreWritesSinks(t *testing.T) {
	sink := &captureSink{}
	r := parseEngine(newService(t, sink))

	serve(r, httptest.NewRequest(http.MethodPost, "/parse", bytes.NewReader(fixture(t, "pap_v16.xml"))))
	assert.Empty(t, sink.ids, "dry run by default")

	w := serve(r, httptest.NewRequest(http.MethodPost, "/parse?store=true", bytes.NewReader(fixture(t, "pap_v16.xml"))))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"US20020000001A1"}, sink.ids)
}

func TestParse_Errors(t *testing.T) {
	r := parseEngine(newService(t))

	w := serve(r, httptest.NewRequest(http.MethodPost, "/parse", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(pkgerrors.ErrCodeEmptyDocument), decode[ErrorResponse](t, w).Code)

	w = serve(r, httptest.NewRequest(http.MethodPost, "/parse", bytes.NewReader([]byte("just some words"))))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, string(pkgerrors.ErrCodeFormatUnknown), resp.Code)
	assert.Contains(t, resp.Detail, "just some words")

	w = serve(r, httptest.NewRequest(http.MethodPost, "/parse?format=pdf", bytes.NewReader([]byte("x"))))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDetect(t *testing.T) {
	r := parseEngine(newService(t))

	w := serve(r, httptest.NewRequest(http.MethodPost, "/detect", bytes.NewReader(fixture(t, "grant_sgml.sgm"))))
	require.Equal(t, http.StatusOK, w.Code)
	d := decode[map[string]any](t, w)
	assert.Equal(t, "sgml", d["format"])
	assert.Equal(t, "content", d["method"])

	w = serve(r, httptest.NewRequest(http.MethodPost, "/detect?filename=ipa020103.xml", nil))
	d = decode[map[string]any](t, w)
	assert.Equal(t, "xml_v4", d["format"])
	assert.Equal(t, "name", d["method"])
}

// ─────────────────────────────────────────────────────────────────────────────
// Lookups
// ─────────────────────────────────────────────────────────────────────────────

func lookupEngine() *gin.Engine {
	h := NewLookupHandler(false)
	r := gin.New()
	r.GET("/classifications/:standard/*code", h.Classification)
	r.GET("/document-ids/*text", h.DocumentID)
	return r
}

func TestClassification(t *testing.T) {
	r := lookupEngine()

	w := serve(r, httptest.NewRequest(http.MethodGet, "/classifications/cpc/D07B2201/2051", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[ClassificationResponse](t, w)
	assert.Equal(t, "D07B 2201/2051", resp.Code)
	assert.Equal(t, "cpc", resp.Standard)
	assert.Equal(t, 5, resp.Depth)
	assert.Equal(t, []string{"D", "D07", "D07B", "D07B2201", "D07B22012051"}, resp.Parts)
	assert.Len(t, resp.Facets, 5)
	assert.Nil(t, resp.Contains)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/classifications/cpc/D07B?contains=D07B2201/2051", nil))
	resp = decode[ClassificationResponse](t, w)
	require.NotNil(t, resp.Contains)
	assert.True(t, *resp.Contains)
}

func TestClassification_Errors(t *testing.T) {
	r := lookupEngine()

	w := serve(r, httptest.NewRequest(http.MethodGet, "/classifications/nclass2/", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/classifications/foo/A01B", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(pkgerrors.ErrCodeClassificationUnsupported), decode[ErrorResponse](t, w).Code)
}

func TestDocumentID(t *testing.T) {
	r := lookupEngine()

	w := serve(r, httptest.NewRequest(http.MethodGet, "/document-ids/US%202005%2F0123456%20A1", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[DocumentIDResponse](t, w)
	assert.Equal(t, "US20050123456A1", resp.ID)
	assert.Equal(t, "US", resp.Country)
	assert.Equal(t, "A1", resp.Kind)
	assert.Equal(t, "US20050123456", resp.IDNoKind)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/document-ids/PCT/US98/1234", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp = decode[DocumentIDResponse](t, w)
	assert.Equal(t, "PCT/US98/01234", resp.ID)
	assert.True(t, resp.PCT)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/document-ids/USABC", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(pkgerrors.ErrCodeDocumentIDInvalid), decode[ErrorResponse](t, w).Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/document-ids/US1?year=x", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Documents / search
// ─────────────────────────────────────────────────────────────────────────────

type mockDocs struct{ mock.Mock }

func (m *mockDocs) GetDocument(ctx context.Context, id string) (*dto.Document, error) {
	args := m.Called(ctx, id)
	doc, _ := args.Get(0).(*dto.Document)
	return doc, args.Error(1)
}

type mockSearcher struct{ mock.Mock }

func (m *mockSearcher) Search(ctx context.Context, q opensearch.Query) (*opensearch.SearchResult, error) {
	args := m.Called(ctx, q)
	res, _ := args.Get(0).(*opensearch.SearchResult)
	return res, args.Error(1)
}

func (m *mockSearcher) FacetCounts(ctx context.Context, q opensearch.Query, std string, level, size int) ([]opensearch.FacetCount, error) {
	args := m.Called(ctx, q, std, level, size)
	out, _ := args.Get(0).([]opensearch.FacetCount)
	return out, args.Error(1)
}

func documentEngine(docs DocumentReader, s Searcher) *gin.Engine {
	h := NewDocumentHandler(docs, s)
	r := gin.New()
	r.GET("/documents/:id", h.Get)
	r.GET("/search", h.Search)
	r.GET("/facets/:standard", h.Facets)
	return r
}

func TestDocuments_Get(t *testing.T) {
	docs := &mockDocs{}
	docs.On("GetDocument", mock.Anything, "US9855244B2").Return(&dto.Document{ID: dto.DocumentID{ID: "US9855244B2"}}, nil)
	docs.On("GetDocument", mock.Anything, "US1").Return(nil, pkgerrors.New(pkgerrors.ErrCodeNotFound, "no such document"))
	docs.On("GetDocument", mock.Anything, "US2").Return(nil, errors.New("pool closed"))
	r := documentEngine(docs, nil)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/documents/US9855244B2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "US9855244B2", decode[dto.Document](t, w).ID.ID)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/documents/US1", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/documents/US2", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pool closed")
}

func TestDocuments_Disabled(t *testing.T) {
	r := documentEngine(nil, nil)
	for _, p := range []string{"/documents/US1", "/search?q=x", "/facets/cpc"} {
		w := serve(r, httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusForbidden, w.Code, p)
	}
}

func TestSearch(t *testing.T) {
	s := &mockSearcher{}
	want := opensearch.Query{Text: "rope", Facets: []string{"cpc:D07B", "cpc:D"}, Country: "US", From: 20, Size: 100}
	s.On("Search", mock.Anything, want).Return(&opensearch.SearchResult{Total: 1, Hits: []opensearch.Hit{{ID: "US1"}}}, nil)
	r := documentEngine(nil, s)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/search?q=rope&facet=cpc:D07B&facet=cpc:D&country=US&from=20&size=500", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[opensearch.SearchResult](t, w)
	assert.EqualValues(t, 1, res.Total)
	s.AssertExpectations(t)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/search?size=-1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFacets(t *testing.T) {
	s := &mockSearcher{}
	s.On("FacetCounts", mock.Anything, mock.AnythingOfType("opensearch.Query"), "cpc", 2, 20).
		Return([]opensearch.FacetCount{{Facet: "D07", Count: 4}}, nil)
	r := documentEngine(nil, s)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/facets/cpc?level=2", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body, _ := io.ReadAll(w.Body)
	assert.JSONEq(t, `{"standard":"cpc","level":2,"facets":[{"facet":"D07","count":4}]}`, string(body))
}

// ─────────────────────────────────────────────────────────────────────────────
// Health
// ─────────────────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	ok := CheckFunc{"postgres", func(context.Context) error { return nil }}
	down := CheckFunc{"redis", func(context.Context) error { return errors.New("connection refused") }}

	h := NewHealthHandler("1.2.3", ok)
	r := gin.New()
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1.2.3", decode[LivenessResponse](t, w).Version)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[ReadinessResponse](t, w).Components["postgres"].Status)

	h = NewHealthHandler("1.2.3", ok, down)
	r = gin.New()
	r.GET("/readyz", h.Readiness)
	w = serve(r, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decode[ReadinessResponse](t, w)
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "connection refused", resp.Components["redis"].Error)
}

//Personal.AI order the ending
