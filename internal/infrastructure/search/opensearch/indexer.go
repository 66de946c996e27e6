package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/pkg/errors"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

var (
	ErrIndexCreationFailed = errors.New(errors.ErrCodeExternalService, "index creation failed")
	ErrDocumentNotFound    = errors.New(errors.ErrCodeNotFound, "document not found in index")
)

// SearchDocument is the indexed projection of a normalized document.
// Facets are qualified with their standard, e.g. "cpc:1/H/H04", so one
// keyword field serves every classification standard.
type SearchDocument struct {
	ID              string   `json:"id"`
	Kind            string   `json:"kind"`
	Country         string   `json:"country"`
	KindCode        string   `json:"kind_code,omitempty"`
	PatentType      string   `json:"patent_type,omitempty"`
	PublicationDate string   `json:"publication_date,omitempty"`
	FilingDate      string   `json:"filing_date,omitempty"`
	Title           string   `json:"title"`
	Abstract        string   `json:"abstract,omitempty"`
	Claims          string   `json:"claims,omitempty"`
	Facets          []string `json:"facets,omitempty"`
	Codes           []string `json:"codes,omitempty"`
	Inventors       []string `json:"inventors,omitempty"`
	Assignees       []string `json:"assignees,omitempty"`
	Cites           []string `json:"cites,omitempty"`
	Format          string   `json:"format"`
}

// NewSearchDocument projects doc for indexing.
func NewSearchDocument(doc *dto.Document) SearchDocument {
	sd := SearchDocument{
		ID:              doc.ID.ID,
		Kind:            string(doc.Kind),
		Country:         doc.ID.Country,
		KindCode:        doc.ID.Kind,
		PatentType:      doc.PatentType,
		PublicationDate: doc.PublicationDate,
		FilingDate:      doc.FilingDate,
		Title:           doc.Title,
		Abstract:        doc.Abstract,
		Inventors:       doc.PartyNames("inventor"),
		Assignees:       doc.PartyNames("assignee"),
		Cites:           doc.CitedIDs(),
		Format:          doc.Source.Format,
	}
	var claims []string
	for _, c := range doc.IndependentClaims() {
		claims = append(claims, c.Text)
	}
	sd.Claims = strings.Join(claims, "\n")
	for _, c := range doc.Classifications {
		sd.Codes = append(sd.Codes, c.Standard+":"+c.Code)
		for _, f := range c.Facets {
			sd.Facets = append(sd.Facets, c.Standard+":"+f)
		}
	}
	sd.Facets = dedupe(sd.Facets)
	sd.Codes = dedupe(sd.Codes)
	return sd
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return in
	}
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// PatentIndexMapping is the mapping of the patent index.
func PatentIndexMapping() map[string]any {
	keyword := map[string]any{"type": "keyword"}
	text := map[string]any{"type": "text", "analyzer": "english"}
	date := map[string]any{"type": "date", "format": "yyyy-MM-dd"}
	return map[string]any{
		"settings": map[string]any{
			"number_of_shards":   1,
			"number_of_replicas": 1,
		},
		"mappings": map[string]any{
			"dynamic": "strict",
			"properties": map[string]any{
				"id":               keyword,
				"kind":             keyword,
				"country":          keyword,
				"kind_code":        keyword,
				"patent_type":      keyword,
				"publication_date": date,
				"filing_date":      date,
				"title":            text,
				"abstract":         text,
				"claims":           text,
				"facets":           keyword,
				"codes":            keyword,
				"inventors":        keyword,
				"assignees":        keyword,
				"cites":            keyword,
				"format":           keyword,
			},
		},
	}
}

// BulkItemError describes one document the bulk API rejected.
type BulkItemError struct {
	DocID     string `json:"doc_id"`
	ErrorType string `json:"error_type"`
	Reason    string `json:"reason"`
}

// BulkResult summarizes a bulk request.
type BulkResult struct {
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Errors    []BulkItemError `json:"errors,omitempty"`
}

// Indexer writes documents to the patent index.
type Indexer struct {
	client  *Client
	refresh string
	logger  logging.Logger
}

// NewIndexer creates an Indexer.  refresh is passed through to the index
// APIs ("true", "wait_for" or "false").
func NewIndexer(client *Client, refresh string, logger logging.Logger) *Indexer {
	if refresh == "" {
		refresh = "false"
	}
	return &Indexer{client: client, refresh: refresh, logger: logging.OrDefault(logger)}
}

// EnsureIndex creates the index with PatentIndexMapping unless it exists.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	name := i.client.IndexName()
	exists, err := opensearchapi.IndicesExistsRequest{Index: []string{name}}.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to check index existence")
	}
	exists.Body.Close()
	if exists.StatusCode == http.StatusOK {
		return nil
	}

	body, err := json.Marshal(PatentIndexMapping())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal index mapping")
	}
	resp, err := opensearchapi.IndicesCreateRequest{Index: name, Body: bytes.NewReader(body)}.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to create index")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return responseError(resp, errors.ErrCodeExternalService, ErrIndexCreationFailed.Error())
	}
	i.logger.Info("Index created", logging.String("index", name))
	return nil
}

// IndexDocument indexes one document under its id.
func (i *Indexer) IndexDocument(ctx context.Context, doc *dto.Document) error {
	body, err := json.Marshal(NewSearchDocument(doc))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal document")
	}
	resp, err := opensearchapi.IndexRequest{
		Index:      i.client.IndexName(),
		DocumentID: doc.ID.ID,
		Body:       bytes.NewReader(body),
		Refresh:    i.refresh,
	}.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "index request failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return responseError(resp, errors.ErrCodeExternalService, "index document failed")
	}
	return nil
}

// BulkIndex indexes docs in batches of the configured size.  Per-item
// rejections are reported in the result; a transport failure aborts.
func (i *Indexer) BulkIndex(ctx context.Context, docs []*dto.Document) (*BulkResult, error) {
	result := &BulkResult{}
	batch := i.client.cfg.BulkBatchSize
	for start := 0; start < len(docs); start += batch {
		end := start + batch
		if end > len(docs) {
			end = len(docs)
		}
		if err := i.bulk(ctx, docs[start:end], result); err != nil {
			return result, err
		}
	}
	i.logger.Info("Bulk index completed",
		logging.Int("total", len(docs)),
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed))
	return result, nil
}

func (i *Indexer) bulk(ctx context.Context, docs []*dto.Document, result *BulkResult) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		meta := map[string]any{"index": map[string]any{"_index": i.client.IndexName(), "_id": doc.ID.ID}}
		if err := enc.Encode(meta); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode bulk action")
		}
		if err := enc.Encode(NewSearchDocument(doc)); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, BulkItemError{DocID: doc.ID.ID, ErrorType: "serialization_error", Reason: err.Error()})
		}
	}

	resp, err := opensearchapi.BulkRequest{Body: &buf, Refresh: i.refresh}.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "bulk request failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		result.Failed += len(docs)
		return responseError(resp, errors.ErrCodeExternalService, "bulk request rejected")
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&bulkResp); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode bulk response")
	}
	for _, item := range bulkResp.Items {
		for _, info := range item {
			if info.Status >= 200 && info.Status < 300 {
				result.Succeeded++
				continue
			}
			result.Failed++
			result.Errors = append(result.Errors, BulkItemError{DocID: info.ID, ErrorType: info.Error.Type, Reason: info.Error.Reason})
		}
	}
	return nil
}

// DeleteDocument removes id from the index.
func (i *Indexer) DeleteDocument(ctx context.Context, id string) error {
	resp, err := opensearchapi.DeleteRequest{
		Index:      i.client.IndexName(),
		DocumentID: id,
		Refresh:    i.refresh,
	}.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "delete request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrDocumentNotFound
	}
	if resp.IsError() {
		return responseError(resp, errors.ErrCodeExternalService, "delete document failed")
	}
	return nil
}

//Personal.AI order the ending
