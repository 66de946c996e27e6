//go:build integration

// Integration tests for the PostgreSQL repositories.  Tests require Docker
// and are gated behind the "integration" build tag.
package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/patent-normalizer/internal/infrastructure/database/postgres"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/patent-normalizer/pkg/errors"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

// startPostgres launches a PostgreSQL 16 container, applies the migrations
// and returns a connected pool.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "patents_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/patents_test?sslmode=disable", host, port.Port())
	require.Eventually(t, func() bool {
		return postgres.RunMigrations(dsn, "file://../../../../../migrations") == nil
	}, 30*time.Second, time.Second)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func grant(id string) *dto.Document {
	return &dto.Document{
		SchemaVersion:   dto.SchemaVersion,
		Kind:            dto.KindGrant,
		ID:              dto.DocumentID{ID: id, Country: "US", Kind: "B2"},
		PublicationDate: "2018-01-02",
		Title:           "Widget",
		Claims: []dto.Claim{
			{ID: "CLM-00001", Number: 1, Type: "independent", Text: "1. A widget."},
		},
		Classifications: []dto.Classification{
			{Standard: "cpc", Code: "H04L 9/32", Main: true, Facets: []string{"0/H", "1/H/H04", "2/H/H04/H04L"}},
		},
		Citations: []dto.Citation{
			{Type: dto.CitationPatent, Sequence: 1, DocID: &dto.DocumentID{ID: "US5000000A"}},
		},
		Source: dto.Source{Format: "xml_v4", Record: 1},
	}
}

func TestPatentRepository_UpsertAndFind(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewPatentRepository(pool, logging.NewNopLogger())
	ctx := context.Background()

	doc := grant("US9855244B2")
	require.NoError(t, repo.Upsert(ctx, doc))

	got, err := repo.FindByID(ctx, "US9855244B2")
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	doc.Title = "Improved widget"
	doc.Claims = append(doc.Claims, dto.Claim{ID: "CLM-00002", Number: 2, Type: "dependent", Level: 1, DependsOn: []string{"CLM-00001"}})
	require.NoError(t, repo.Upsert(ctx, doc))

	got, err = repo.FindByID(ctx, "US9855244B2")
	require.NoError(t, err)
	assert.Equal(t, "Improved widget", got.Title)

	var claims int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM patent_claims WHERE doc_id = $1`, "US9855244B2").Scan(&claims))
	assert.Equal(t, 2, claims)
}

func TestPatentRepository_FindByID_NotFound(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewPatentRepository(pool, nil)

	_, err := repo.FindByID(context.Background(), "US1B1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeNotFound))
}

func TestPatentRepository_FacetAndCitationQueries(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewPatentRepository(pool, nil)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, grant("US9855244B2")))
	other := grant("US9855245B2")
	other.Classifications[0].Facets = []string{"0/G"}
	require.NoError(t, repo.Upsert(ctx, other))

	ids, err := repo.FindByFacet(ctx, "cpc", "1/H/H04", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"US9855244B2"}, ids)

	citing, err := repo.CitingDocuments(ctx, "US5000000A")
	require.NoError(t, err)
	assert.Equal(t, []string{"US9855244B2", "US9855245B2"}, citing)

	require.NoError(t, repo.Delete(ctx, "US9855245B2"))
	citing, err = repo.CitingDocuments(ctx, "US5000000A")
	require.NoError(t, err)
	assert.Equal(t, []string{"US9855244B2"}, citing)
	assert.True(t, pkgerrors.IsCode(repo.Delete(ctx, "US9855245B2"), pkgerrors.ErrCodeNotFound))
}

func TestRunRepository_Lifecycle(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewRunRepository(pool, nil)
	ctx := context.Background()

	_, err := repo.LastCompleted(ctx, "ipg180102.zip")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeNotFound))

	run := &repositories.IngestRun{Archive: "ipg180102.zip"}
	require.NoError(t, repo.Start(ctx, run))
	run.Records, run.Parsed, run.Failed = 10, 9, 1
	require.NoError(t, repo.Finish(ctx, run))

	last, err := repo.LastCompleted(ctx, "ipg180102.zip")
	require.NoError(t, err)
	assert.Equal(t, run.RunID, last.RunID)
	assert.Equal(t, 9, last.Parsed)
	assert.NotNil(t, last.FinishedAt)
}

//Personal.AI order the ending
