package opensearch

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/turtacn/patent-normalizer/pkg/errors"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

func indexDocument(id string) *dto.Document {
	return &dto.Document{
		Kind:            dto.KindGrant,
		ID:              dto.DocumentID{ID: id, Country: "US", Kind: "B2"},
		PublicationDate: "2018-01-02",
		Title:           "Widget",
		Claims: []dto.Claim{
			{ID: "CLM-00001", Number: 1, Level: 0, Text: "1. A widget."},
			{ID: "CLM-00002", Number: 2, Level: 1, Text: "2. The widget of claim 1."},
			{ID: "CLM-00003", Number: 3, Level: 0, Text: "3. A method."},
		},
		Classifications: []dto.Classification{
			{Standard: "cpc", Code: "H04L 9/32", Facets: []string{"0/H", "1/H/H04"}},
			{Standard: "cpc", Code: "H04L 9/00", Facets: []string{"0/H", "1/H/H04"}},
		},
		Parties: []dto.Party{
			{Role: "inventor", Name: dto.Name{Full: "Jane Doe"}},
			{Role: "assignee", Name: dto.Name{Full: "Acme Corp"}},
		},
		Citations: []dto.Citation{{Type: dto.CitationPatent, Sequence: 1, DocID: &dto.DocumentID{ID: "US5000000A"}}},
		Source:    dto.Source{Format: "xml_v4"},
	}
}

func TestNewSearchDocument(t *testing.T) {
	sd := NewSearchDocument(indexDocument("US9855244B2"))

	assert.Equal(t, "grant", sd.Kind)
	assert.Equal(t, "1. A widget.\n3. A method.", sd.Claims)
	assert.Equal(t, []string{"cpc:0/H", "cpc:1/H/H04"}, sd.Facets)
	assert.Equal(t, []string{"cpc:H04L 9/32", "cpc:H04L 9/00"}, sd.Codes)
	assert.Equal(t, []string{"Jane Doe"}, sd.Inventors)
	assert.Equal(t, []string{"Acme Corp"}, sd.Assignees)
	assert.Equal(t, []string{"US5000000A"}, sd.Cites)
}

func TestPatentIndexMapping_CoversSearchDocument(t *testing.T) {
	data, err := json.Marshal(NewSearchDocument(indexDocument("US1B1")))
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))

	props := PatentIndexMapping()["mappings"].(map[string]any)["properties"].(map[string]any)
	for k := range fields {
		assert.Contains(t, props, k)
	}
}

func TestIndexer_EnsureIndex_Creates(t *testing.T) {
	fc := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request, body string) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	})
	idx := NewIndexer(newTestClient(t, fc, 0), "", nil)

	require.NoError(t, idx.EnsureIndex(context.Background()))
	req := fc.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/patents-test", req.Path)
	assert.Contains(t, req.Body, `"facets":{"type":"keyword"}`)
}

func TestIndexer_EnsureIndex_Exists(t *testing.T) {
	fc := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request, body string) {
		w.WriteHeader(http.StatusOK)
	})
	idx := NewIndexer(newTestClient(t, fc, 0), "", nil)

	require.NoError(t, idx.EnsureIndex(context.Background()))
	assert.Equal(t, http.MethodHead, fc.last().Method)
}

func TestIndexer_EnsureIndex_Rejected(t *testing.T) {
	fc := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request, body string) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"mapper_parsing_exception","reason":"bad mapping"}}`))
	})
	idx := NewIndexer(newTestClient(t, fc, 0), "", nil)

	err := idx.EnsureIndex(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad mapping")
}

func TestIndexer_IndexDocument(t *testing.T) {
	fc := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request, body string) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})
	idx := NewIndexer(newTestClient(t, fc, 0), "wait_for", nil)

	require.NoError(t, idx.IndexDocument(context.Background(), indexDocument("US9855244B2")))
	req := fc.last()
	assert.Equal(t, "/patents-test/_doc/US9855244B2", req.Path)
	assert.Contains(t, req.Query, "refresh=wait_for")
	assert.Contains(t, req.Body, `"title":"Widget"`)
}

func TestIndexer_BulkIndex_Batches(t *testing.T) {
	var bulkCalls int
	fc := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request, body string) {
		bulkCalls++
		lines := strings.Split(strings.TrimSpace(body), "\n")
		var items []string
		for i := 0; i < len(lines); i += 2 {
			var meta struct {
				Index struct {
					ID string `json:"_id"`
				} `json:"index"`
			}
			_ = json.Unmarshal([]byte(lines[i]), &meta)
			if meta.Index.ID == "US3B1" {
				items = append(items, `{"index":{"_id":"US3B1","status":400,"error":{"type":"mapper_parsing_exception","reason":"bad date"}}}`)
				continue
			}
			items = append(items, `{"index":{"_id":"`+meta.Index.ID+`","status":201}}`)
		}
		_, _ = w.Write([]byte(`{"errors":true,"items":[` + strings.Join(items, ",") + `]}`))
	})
	idx := NewIndexer(newTestClient(t, fc, 2), "", nil)

	docs := []*dto.Document{indexDocument("US1B1"), indexDocument("US2B1"), indexDocument("US3B1")}
	res, err := idx.BulkIndex(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 2, bulkCalls)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, BulkItemError{DocID: "US3B1", ErrorType: "mapper_parsing_exception", Reason: "bad date"}, res.Errors[0])
}

func TestIndexer_DeleteDocument_NotFound(t *testing.T) {
	fc := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request, body string) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	})
	idx := NewIndexer(newTestClient(t, fc, 0), "", nil)

	err := idx.DeleteDocument(context.Background(), "US1B1")
	assert.Equal(t, ErrDocumentNotFound, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeNotFound))
}

//Personal.AI order the ending
