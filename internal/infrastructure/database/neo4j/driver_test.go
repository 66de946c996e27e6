package neo4j

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patent-normalizer/internal/config"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/patent-normalizer/pkg/errors"
)

type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) VerifyConnectivity(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
func (m *MockDriver) NewSession(ctx context.Context, config neo4j.SessionConfig) internalSession {
	return m.Called(ctx, config).Get(0).(internalSession)
}
func (m *MockDriver) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockSession struct {
	mock.Mock
	tx Transaction
}

func (m *MockSession) ExecuteRead(ctx context.Context, work TransactionWork) (any, error) {
	return work(m.tx)
}
func (m *MockSession) ExecuteWrite(ctx context.Context, work TransactionWork) (any, error) {
	return work(m.tx)
}
func (m *MockSession) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type stubTransaction struct {
	result Result
	err    error
	cypher string
}

func (s *stubTransaction) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	s.cypher = cypher
	return s.result, s.err
}

type stubResult struct {
	records []*neo4j.Record
	pos     int
	err     error
}

func (r *stubResult) Next(ctx context.Context) bool {
	if r.pos < len(r.records) {
		r.pos++
		return true
	}
	return false
}
func (r *stubResult) Record() *neo4j.Record { return r.records[r.pos-1] }
func (r *stubResult) Err() error            { return r.err }
func (r *stubResult) Consume(ctx context.Context) (neo4j.ResultSummary, error) {
	return nil, nil
}

func record(keys []string, values ...any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

func TestDriver_HealthCheck(t *testing.T) {
	tx := &stubTransaction{result: &stubResult{records: []*neo4j.Record{record([]string{"health"}, int64(1))}}}
	session := &MockSession{tx: tx}
	session.On("Close", mock.Anything).Return(nil)

	md := new(MockDriver)
	md.On("VerifyConnectivity", mock.Anything).Return(nil)
	md.On("NewSession", mock.Anything, neo4j.SessionConfig{DatabaseName: "neo4j", AccessMode: neo4j.AccessModeRead}).Return(session)

	d := &Driver{driver: md, logger: logging.NewNopLogger()}
	require.NoError(t, d.HealthCheck(context.Background()))
	assert.Equal(t, "RETURN 1 AS health", tx.cypher)
	md.AssertExpectations(t)
	session.AssertExpectations(t)
}

func TestDriver_HealthCheck_Unreachable(t *testing.T) {
	md := new(MockDriver)
	md.On("VerifyConnectivity", mock.Anything).Return(errors.New("dial tcp: refused"))

	d := &Driver{driver: md, logger: logging.NewNopLogger()}
	err := d.HealthCheck(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
}

func TestDriver_ExecuteWrite_UsesConfiguredDatabase(t *testing.T) {
	tx := &stubTransaction{err: errors.New("constraint violation")}
	session := &MockSession{tx: tx}
	session.On("Close", mock.Anything).Return(nil)

	md := new(MockDriver)
	md.On("NewSession", mock.Anything, neo4j.SessionConfig{DatabaseName: "patents", AccessMode: neo4j.AccessModeWrite}).Return(session)

	d := &Driver{driver: md, cfg: config.Neo4jConfig{Database: "patents"}, logger: logging.NewNopLogger()}
	_, err := d.ExecuteWrite(context.Background(), func(tx Transaction) (any, error) {
		return tx.Run(context.Background(), "CREATE (n)", nil)
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
	md.AssertExpectations(t)
}

func TestDriver_CloseOnce(t *testing.T) {
	md := new(MockDriver)
	md.On("Close", mock.Anything).Return(nil).Once()

	d := &Driver{driver: md, logger: logging.NewNopLogger()}
	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()))
	md.AssertExpectations(t)
}

func TestCollectRecords(t *testing.T) {
	res := &stubResult{records: []*neo4j.Record{
		record([]string{"id"}, "US1B1"),
		record([]string{"id"}, nil),
	}}
	ids, err := CollectRecords(context.Background(), res, func(r *neo4j.Record) (string, error) {
		return RecordString(r, "id"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"US1B1", ""}, ids)
}

func TestExtractSingleRecord_NotFound(t *testing.T) {
	_, err := ExtractSingleRecord(context.Background(), &stubResult{}, func(r *neo4j.Record) (string, error) {
		return "", nil
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeNotFound))
}

//Personal.AI order the ending
