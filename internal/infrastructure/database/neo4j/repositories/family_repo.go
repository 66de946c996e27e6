package repositories

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	driver "github.com/turtacn/patent-normalizer/internal/infrastructure/database/neo4j"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

// Relationship types linking a document to the filings it derives from.
const (
	RelFiledAs        = "FILED_AS"
	RelClaimsPriority = "CLAIMS_PRIORITY"
	RelRelatedTo      = "RELATED_TO"
)

// FamilyMember is one document of a priority family.
type FamilyMember struct {
	DocID    string `json:"doc_id"`
	Distance int64  `json:"distance"`
}

// FamilyRepository maintains the application, priority and related-document
// links from which patent families are derived.
type FamilyRepository struct {
	driver driver.DriverInterface
	log    logging.Logger
}

func NewFamilyRepository(d driver.DriverInterface, log logging.Logger) *FamilyRepository {
	return &FamilyRepository{driver: d, log: logging.OrDefault(log)}
}

type familyLink struct {
	rel string
	ids []dto.DocumentID
}

// LinkFamily replaces the family links of doc.
func (r *FamilyRepository) LinkFamily(ctx context.Context, doc *dto.Document) error {
	links := []familyLink{
		{RelClaimsPriority, doc.PriorityIDs},
		{RelRelatedTo, doc.RelatedIDs},
	}
	if doc.ApplicationID != nil {
		links = append(links, familyLink{RelFiledAs, []dto.DocumentID{*doc.ApplicationID}})
	}

	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MATCH (p:Patent {id: $id})-[l:FILED_AS|CLAIMS_PRIORITY|RELATED_TO]->()
			DELETE l`, map[string]any{"id": doc.ID.ID}); err != nil {
			return nil, err
		}
		for _, link := range links {
			rows := familyParams(link.ids)
			if len(rows) == 0 {
				continue
			}
			// Relationship types cannot be parameterized.
			query := fmt.Sprintf(`
				MERGE (p:Patent {id: $id})
				WITH p
				UNWIND $targets AS row
				MERGE (t:Patent {id: row.id})
				ON CREATE SET t.stub = true, t.created_at = datetime()
				SET t.country = coalesce(t.country, row.country)
				MERGE (p)-[e:%s]->(t)
				SET e.date = row.date, e.type = row.type`, link.rel)
			if _, err := tx.Run(ctx, query, map[string]any{"id": doc.ID.ID, "targets": rows}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// Family returns every document reachable from id through family links in
// either direction, within depth hops.  id itself is not included.
func (r *FamilyRepository) Family(ctx context.Context, id string, depth int) ([]FamilyMember, error) {
	if depth <= 0 {
		depth = 3
	}
	query := fmt.Sprintf(`
		MATCH path = (p:Patent {id: $id})-[:FILED_AS|CLAIMS_PRIORITY|RELATED_TO*1..%d]-(m:Patent)
		WHERE m.id <> $id
		RETURN m.id AS doc_id, min(length(path)) AS distance
		ORDER BY distance, doc_id`, depth)

	res, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		return driver.CollectRecords(ctx, result, func(rec *neo4j.Record) (FamilyMember, error) {
			d, _ := rec.Get("distance")
			m := FamilyMember{DocID: driver.RecordString(rec, "doc_id")}
			m.Distance, _ = d.(int64)
			return m, nil
		})
	})
	if err != nil {
		return nil, err
	}
	members, _ := res.([]FamilyMember)
	return members, nil
}

func familyParams(ids []dto.DocumentID) []map[string]any {
	var rows []map[string]any
	seen := make(map[string]bool)
	for _, id := range ids {
		if id.ID == "" || seen[id.ID] {
			continue
		}
		seen[id.ID] = true
		rows = append(rows, map[string]any{
			"id":      id.ID,
			"country": id.Country,
			"date":    id.Date,
			"type":    id.Type,
		})
	}
	return rows
}

//Personal.AI order the ending
