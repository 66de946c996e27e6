// Package repositories holds the Neo4j repositories of the citation,
// family and classification graph.
package repositories

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	driver "github.com/turtacn/patent-normalizer/internal/infrastructure/database/neo4j"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

// CitationEdge is one CITES relationship seen from either end.
type CitationEdge struct {
	DocID    string `json:"doc_id"`
	Sequence int64  `json:"sequence"`
	CitedBy  string `json:"cited_by,omitempty"`
}

// CitationStats counts the edges around a patent.
type CitationStats struct {
	Forward  int64 `json:"forward"`
	Backward int64 `json:"backward"`
}

type CitationRepository struct {
	driver driver.DriverInterface
	log    logging.Logger
}

func NewCitationRepository(d driver.DriverInterface, log logging.Logger) *CitationRepository {
	return &CitationRepository{driver: d, log: logging.OrDefault(log)}
}

// UpsertPatentNode merges the node of doc and refreshes its properties.
// Nodes created earlier as bare citation targets gain their bibliographic
// data here.
func (r *CitationRepository) UpsertPatentNode(ctx context.Context, doc *dto.Document) error {
	query := `
		MERGE (p:Patent {id: $id})
		ON CREATE SET p.created_at = datetime()
		SET p.country = $country, p.kind = $kind, p.kind_code = $kindCode,
		    p.title = $title, p.patent_type = $patentType,
		    p.publication_date = $publicationDate, p.stub = false`
	params := map[string]any{
		"id":              doc.ID.ID,
		"country":         doc.ID.Country,
		"kind":            string(doc.Kind),
		"kindCode":        doc.ID.Kind,
		"title":           doc.Title,
		"patentType":      doc.PatentType,
		"publicationDate": doc.PublicationDate,
	}
	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})
	return err
}

// ReplaceCitations drops the outgoing CITES edges of doc and recreates one
// per patent citation.  Cited documents missing from the graph are created
// as stub nodes.
func (r *CitationRepository) ReplaceCitations(ctx context.Context, doc *dto.Document) error {
	rows := citationParams(doc)
	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MATCH (p:Patent {id: $id})-[c:CITES]->()
			DELETE c`, map[string]any{"id": doc.ID.ID}); err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, nil
		}
		_, err := tx.Run(ctx, `
			MATCH (p:Patent {id: $id})
			UNWIND $cites AS row
			MERGE (c:Patent {id: row.id})
			ON CREATE SET c.stub = true, c.created_at = datetime()
			MERGE (p)-[e:CITES {seq: row.seq}]->(c)
			SET e.cited_by = row.cited_by`, map[string]any{"id": doc.ID.ID, "cites": rows})
		return nil, err
	})
	if err == nil {
		r.log.Debug("citations replaced", logging.String(logging.KeyDocID, doc.ID.ID), logging.Int("count", len(rows)))
	}
	return err
}

// BackwardCitations lists the documents id cites, in citation order.
func (r *CitationRepository) BackwardCitations(ctx context.Context, id string, limit int) ([]CitationEdge, error) {
	return r.edges(ctx, `
		MATCH (:Patent {id: $id})-[e:CITES]->(c:Patent)
		RETURN c.id AS doc_id, e.seq AS seq, e.cited_by AS cited_by
		ORDER BY seq
		LIMIT $limit`, id, limit)
}

// ForwardCitations lists the documents that cite id.
func (r *CitationRepository) ForwardCitations(ctx context.Context, id string, limit int) ([]CitationEdge, error) {
	return r.edges(ctx, `
		MATCH (c:Patent)-[e:CITES]->(:Patent {id: $id})
		RETURN c.id AS doc_id, e.seq AS seq, e.cited_by AS cited_by
		ORDER BY doc_id
		LIMIT $limit`, id, limit)
}

func (r *CitationRepository) edges(ctx context.Context, query, id string, limit int) ([]CitationEdge, error) {
	if limit <= 0 {
		limit = 100
	}
	res, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"id": id, "limit": limit})
		if err != nil {
			return nil, err
		}
		return driver.CollectRecords(ctx, result, mapCitationEdge)
	})
	if err != nil {
		return nil, err
	}
	edges, _ := res.([]CitationEdge)
	return edges, nil
}

// CitationCount counts the forward and backward edges of id.
func (r *CitationRepository) CitationCount(ctx context.Context, id string) (*CitationStats, error) {
	res, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (p:Patent {id: $id})
			RETURN COUNT { (p)<-[:CITES]-() } AS forward, COUNT { (p)-[:CITES]->() } AS backward`,
			map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		return driver.ExtractSingleRecord(ctx, result, func(rec *neo4j.Record) (*CitationStats, error) {
			fwd, _ := rec.Get("forward")
			bwd, _ := rec.Get("backward")
			s := &CitationStats{}
			s.Forward, _ = fwd.(int64)
			s.Backward, _ = bwd.(int64)
			return s, nil
		})
	})
	if err != nil {
		return nil, err
	}
	return res.(*CitationStats), nil
}

func mapCitationEdge(rec *neo4j.Record) (CitationEdge, error) {
	seq, _ := rec.Get("seq")
	e := CitationEdge{
		DocID:   driver.RecordString(rec, "doc_id"),
		CitedBy: driver.RecordString(rec, "cited_by"),
	}
	e.Sequence, _ = seq.(int64)
	return e, nil
}

func citationParams(doc *dto.Document) []map[string]any {
	var rows []map[string]any
	for _, c := range doc.Citations {
		if c.Type != dto.CitationPatent || c.DocID == nil || c.DocID.ID == "" {
			continue
		}
		rows = append(rows, map[string]any{
			"id":       c.DocID.ID,
			"seq":      int64(c.Sequence),
			"cited_by": c.CitedBy,
		})
	}
	return rows
}

//Personal.AI order the ending
