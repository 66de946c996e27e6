// Package repositories holds the PostgreSQL repositories of the relational
// patent store.
package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/patent-normalizer/internal/infrastructure/database/postgres"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/patent-normalizer/pkg/errors"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

// ─────────────────────────────────────────────────────────────────────────────
// PatentRepository
// ─────────────────────────────────────────────────────────────────────────────

// PatentRepository stores normalized documents.  The full document is kept
// as JSONB next to flattened claim, classification, citation and party
// rows used for querying.
type PatentRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewPatentRepository constructs a ready-to-use PatentRepository.
func NewPatentRepository(pool *pgxpool.Pool, logger logging.Logger) *PatentRepository {
	return &PatentRepository{pool: pool, logger: logging.OrDefault(logger)}
}

var (
	claimColumns          = []string{"doc_id", "claim_id", "number", "claim_type", "level", "depends_on", "text"}
	classificationColumns = []string{"doc_id", "standard", "code", "is_main", "facets"}
	citationColumns       = []string{"doc_id", "seq", "citation_type", "cited_by", "cited_doc_id", "npl_text"}
	partyColumns          = []string{"doc_id", "role", "seq", "name", "country"}
)

// ─────────────────────────────────────────────────────────────────────────────
// Upsert
// ─────────────────────────────────────────────────────────────────────────────

// Upsert writes doc and replaces its child rows inside one transaction.  A
// document read again from a correction file overwrites the earlier copy.
func (r *PatentRepository) Upsert(ctx context.Context, doc *dto.Document) error {
	r.logger.Debug("PatentRepository.Upsert", logging.String(logging.KeyDocID, doc.ID.ID))

	body, err := json.Marshal(doc)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "failed to encode document")
	}

	return postgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx, ctx context.Context) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO patents (
				doc_id, kind, country, number, kind_code, patent_type, application_id,
				publication_date, filing_date, title, abstract,
				format, schema_version, source_file, source_record, claim_count,
				document, updated_at
			) VALUES (
				$1,$2,$3,$4,$5,$6,$7,
				$8,$9,$10,$11,
				$12,$13,$14,$15,$16,
				$17,$18
			)
			ON CONFLICT (doc_id) DO UPDATE SET
				kind = EXCLUDED.kind,
				kind_code = EXCLUDED.kind_code,
				patent_type = EXCLUDED.patent_type,
				application_id = EXCLUDED.application_id,
				publication_date = EXCLUDED.publication_date,
				filing_date = EXCLUDED.filing_date,
				title = EXCLUDED.title,
				abstract = EXCLUDED.abstract,
				format = EXCLUDED.format,
				schema_version = EXCLUDED.schema_version,
				source_file = EXCLUDED.source_file,
				source_record = EXCLUDED.source_record,
				claim_count = EXCLUDED.claim_count,
				document = EXCLUDED.document,
				updated_at = EXCLUDED.updated_at`,
			patentRow(doc, body, time.Now().UTC())...,
		); err != nil {
			r.logger.Error("PatentRepository.Upsert: insert patent", logging.Err(err))
			return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to upsert patent")
		}

		for _, table := range []string{"patent_claims", "patent_classifications", "patent_citations", "patent_parties"} {
			if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE doc_id = $1", doc.ID.ID); err != nil {
				return appErrors.Wrapf(err, appErrors.ErrCodeDatabaseError, "failed to clear %s", table)
			}
		}

		copies := []struct {
			table   string
			columns []string
			rows    [][]interface{}
		}{
			{"patent_claims", claimColumns, claimRows(doc)},
			{"patent_classifications", classificationColumns, classificationRows(doc)},
			{"patent_citations", citationColumns, citationRows(doc)},
			{"patent_parties", partyColumns, partyRows(doc)},
		}
		for _, c := range copies {
			if len(c.rows) == 0 {
				continue
			}
			if _, err := tx.CopyFrom(ctx, pgx.Identifier{c.table}, c.columns, pgx.CopyFromRows(c.rows)); err != nil {
				r.logger.Error("PatentRepository.Upsert: copy", logging.String("table", c.table), logging.Err(err))
				return appErrors.Wrapf(err, appErrors.ErrCodeDatabaseError, "failed to copy %s", c.table)
			}
		}
		return nil
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

// FindByID loads the stored document.
func (r *PatentRepository) FindByID(ctx context.Context, id string) (*dto.Document, error) {
	var body []byte
	err := r.pool.QueryRow(ctx, `SELECT document FROM patents WHERE doc_id = $1`, id).Scan(&body)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, appErrors.Newf(appErrors.ErrCodeNotFound, "patent %s not found", id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to query patent")
	}
	var doc dto.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, appErrors.Wrapf(err, appErrors.ErrCodeSerialization, "stored document %s", id)
	}
	return &doc, nil
}

// FindByFacet returns the ids of documents carrying facet under std, most
// recently published first.
func (r *PatentRepository) FindByFacet(ctx context.Context, std, facet string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT p.doc_id, p.publication_date
		FROM patents p
		JOIN patent_classifications c ON c.doc_id = p.doc_id
		WHERE c.standard = $1 AND c.facets @> ARRAY[$2]::TEXT[]
		ORDER BY p.publication_date DESC NULLS LAST, p.doc_id
		LIMIT $3`, std, facet, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to query patents by facet")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		var pub *time.Time
		if err := rows.Scan(&id, &pub); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to scan patent id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CitingDocuments returns the ids of documents that cite id.
func (r *PatentRepository) CitingDocuments(ctx context.Context, id string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT doc_id FROM patent_citations WHERE cited_doc_id = $1 ORDER BY doc_id`, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to query citations")
	}
	defer rows.Close()
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Delete removes a document and its child rows.
func (r *PatentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patents WHERE doc_id = $1`, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to delete patent")
	}
	if tag.RowsAffected() == 0 {
		return appErrors.Newf(appErrors.ErrCodeNotFound, "patent %s not found", id)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Row mapping
// ─────────────────────────────────────────────────────────────────────────────

func patentRow(doc *dto.Document, body []byte, now time.Time) []interface{} {
	var appID *string
	if doc.ApplicationID != nil {
		appID = &doc.ApplicationID.ID
	}
	return []interface{}{
		doc.ID.ID, string(doc.Kind), doc.ID.Country, doc.ID.Number, doc.ID.Kind, doc.PatentType, appID,
		nullableDate(doc.PublicationDate), nullableDate(doc.FilingDate), doc.Title, doc.Abstract,
		doc.Source.Format, doc.Source.SchemaVersion, doc.Source.File, doc.Source.Record, len(doc.Claims),
		body, now,
	}
}

func claimRows(doc *dto.Document) [][]interface{} {
	rows := make([][]interface{}, 0, len(doc.Claims))
	for _, c := range doc.Claims {
		deps := c.DependsOn
		if deps == nil {
			deps = []string{}
		}
		rows = append(rows, []interface{}{doc.ID.ID, c.ID, c.Number, c.Type, c.Level, deps, c.Text})
	}
	return rows
}

func classificationRows(doc *dto.Document) [][]interface{} {
	rows := make([][]interface{}, 0, len(doc.Classifications))
	seen := make(map[string]bool)
	for _, c := range doc.Classifications {
		key := c.Standard + "|" + c.Code
		if seen[key] {
			continue
		}
		seen[key] = true
		rows = append(rows, []interface{}{doc.ID.ID, c.Standard, c.Code, c.Main, c.Facets})
	}
	return rows
}

func citationRows(doc *dto.Document) [][]interface{} {
	rows := make([][]interface{}, 0, len(doc.Citations))
	seen := make(map[int]bool)
	for _, c := range doc.Citations {
		if seen[c.Sequence] {
			continue
		}
		seen[c.Sequence] = true
		var cited *string
		if c.DocID != nil && c.DocID.ID != "" {
			cited = &c.DocID.ID
		}
		rows = append(rows, []interface{}{doc.ID.ID, c.Sequence, string(c.Type), c.CitedBy, cited, c.Text})
	}
	return rows
}

func partyRows(doc *dto.Document) [][]interface{} {
	rows := make([][]interface{}, 0, len(doc.Parties))
	for _, p := range doc.Parties {
		country := ""
		if p.Address != nil {
			country = p.Address.Country
		}
		rows = append(rows, []interface{}{doc.ID.ID, p.Role, p.Sequence, p.Name.Full, country})
	}
	return rows
}

func nullableDate(s string) *time.Time {
	t, err := dto.ParseDate(s)
	if err != nil || t.IsZero() {
		return nil
	}
	return &t
}

//Personal.AI order the ending
