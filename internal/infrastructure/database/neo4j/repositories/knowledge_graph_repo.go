package repositories

import (
	"context"
	"strconv"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	driver "github.com/turtacn/patent-normalizer/internal/infrastructure/database/neo4j"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/pkg/errors"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

// ClassificationGraphRepository stores the facet hierarchy of every
// classification standard and links documents to their leaf facets.  A
// facet node is keyed "{standard}:{facet}", e.g. "cpc:1/H/H04".
type ClassificationGraphRepository struct {
	driver driver.DriverInterface
	log    logging.Logger
}

func NewClassificationGraphRepository(d driver.DriverInterface, log logging.Logger) *ClassificationGraphRepository {
	return &ClassificationGraphRepository{driver: d, log: logging.OrDefault(log)}
}

var graphConstraints = []string{
	"CREATE CONSTRAINT patent_id IF NOT EXISTS FOR (p:Patent) REQUIRE p.id IS UNIQUE",
	"CREATE CONSTRAINT facet_key IF NOT EXISTS FOR (f:Facet) REQUIRE f.key IS UNIQUE",
	"CREATE INDEX facet_standard IF NOT EXISTS FOR (f:Facet) ON (f.standard, f.level)",
}

// EnsureConstraints creates the uniqueness constraints the graph relies on.
func (r *ClassificationGraphRepository) EnsureConstraints(ctx context.Context) error {
	for _, stmt := range graphConstraints {
		if _, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
			_, err := tx.Run(ctx, stmt, nil)
			return nil, err
		}); err != nil {
			return err
		}
	}
	return nil
}

// LinkClassifications replaces the CLASSIFIED_AS edges of doc, merging the
// facet chain of each classification on the way.
func (r *ClassificationGraphRepository) LinkClassifications(ctx context.Context, doc *dto.Document) error {
	facets, leaves := facetParams(doc)
	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MATCH (p:Patent {id: $id})-[c:CLASSIFIED_AS]->()
			DELETE c`, map[string]any{"id": doc.ID.ID}); err != nil {
			return nil, err
		}
		if len(leaves) == 0 {
			return nil, nil
		}
		if _, err := tx.Run(ctx, `
			UNWIND $facets AS row
			MERGE (f:Facet {key: row.key})
			ON CREATE SET f.standard = row.standard, f.level = row.level, f.code = row.code
			WITH f, row
			WHERE row.parent IS NOT NULL
			MERGE (parent:Facet {key: row.parent})
			MERGE (f)-[:PARENT]->(parent)`, map[string]any{"facets": facets}); err != nil {
			return nil, err
		}
		_, err := tx.Run(ctx, `
			MERGE (p:Patent {id: $id})
			WITH p
			UNWIND $leaves AS row
			MATCH (f:Facet {key: row.key})
			MERGE (p)-[c:CLASSIFIED_AS]->(f)
			SET c.main = row.main, c.raw = row.raw`, map[string]any{"id": doc.ID.ID, "leaves": leaves})
		return nil, err
	})
	return err
}

// PatentsUnderFacet returns the documents classified at facet or any facet
// below it.
func (r *ClassificationGraphRepository) PatentsUnderFacet(ctx context.Context, standard, facet string, limit int) ([]string, error) {
	if standard == "" || facet == "" {
		return nil, errors.New(errors.ErrCodeValidation, "standard and facet are required")
	}
	if limit <= 0 {
		limit = 100
	}
	res, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (root:Facet {key: $key})<-[:PARENT*0..]-(:Facet)<-[:CLASSIFIED_AS]-(p:Patent)
			RETURN DISTINCT p.id AS doc_id
			ORDER BY doc_id
			LIMIT $limit`, map[string]any{"key": FacetKey(standard, facet), "limit": limit})
		if err != nil {
			return nil, err
		}
		return driver.CollectRecords(ctx, result, func(rec *neo4j.Record) (string, error) {
			return driver.RecordString(rec, "doc_id"), nil
		})
	})
	if err != nil {
		return nil, err
	}
	ids, _ := res.([]string)
	return ids, nil
}

// FacetKey is the node key of facet under standard.
func FacetKey(standard, facet string) string {
	return standard + ":" + facet
}

// parentFacet returns the facet one level above f, or "" at the root.
// "2/H/H04/H04L" has parent "1/H/H04".
func parentFacet(f string) (level int, parent string, code string) {
	parts := strings.Split(f, "/")
	level, _ = strconv.Atoi(parts[0])
	code = parts[len(parts)-1]
	if level == 0 || len(parts) < 3 {
		return level, "", code
	}
	return level, strconv.Itoa(level-1) + "/" + strings.Join(parts[1:len(parts)-1], "/"), code
}

func facetParams(doc *dto.Document) (facets, leaves []map[string]any) {
	seen := make(map[string]bool)
	seenLeaf := make(map[string]bool)
	for _, c := range doc.Classifications {
		if len(c.Facets) == 0 {
			continue
		}
		for _, f := range c.Facets {
			key := FacetKey(c.Standard, f)
			if seen[key] {
				continue
			}
			seen[key] = true
			level, parent, code := parentFacet(f)
			row := map[string]any{
				"key":      key,
				"standard": c.Standard,
				"level":    int64(level),
				"code":     code,
				"parent":   nil,
			}
			if parent != "" {
				row["parent"] = FacetKey(c.Standard, parent)
			}
			facets = append(facets, row)
		}
		leaf := FacetKey(c.Standard, c.Facets[len(c.Facets)-1])
		if seenLeaf[leaf] {
			continue
		}
		seenLeaf[leaf] = true
		leaves = append(leaves, map[string]any{"key": leaf, "main": c.Main, "raw": c.Raw})
	}
	return facets, leaves
}

//Personal.AI order the ending
