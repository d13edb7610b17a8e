package doris

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureLimitAppendsToSelect(t *testing.T) {
	out, err := EnsureLimit("SELECT * FROM t", 1000, false)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t LIMIT 1000", out)
}

func TestEnsureLimitKeepsExistingLimit(t *testing.T) {
	out, err := EnsureLimit("select id from t limit 5", 1000, false)
	require.NoError(t, err)
	assert.Equal(t, "select id from t limit 5", out)
}

func TestEnsureLimitIgnoresLimitInsideLiteral(t *testing.T) {
	out, err := EnsureLimit(`SELECT 'no limit here' FROM t`, 1000, false)
	require.NoError(t, err)
	assert.Equal(t, `SELECT 'no limit here' FROM t LIMIT 1000`, out)
}

func TestEnsureLimitIgnoresLimitInComment(t *testing.T) {
	out, err := EnsureLimit("SELECT id FROM t -- limit\n", 1000, false)
	require.NoError(t, err)
	assert.Contains(t, out, "LIMIT 1000")
}

func TestEnsureLimitRejectsMultiStatement(t *testing.T) {
	_, err := EnsureLimit("SELECT 1; DROP TABLE t", 1000, false)
	assert.ErrorIs(t, err, ErrMultiStatement)
}

func TestEnsureLimitAllowsMultiWhenEnabled(t *testing.T) {
	out, err := EnsureLimit("SELECT 1; SELECT 2", 1000, true)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 LIMIT 1000;\nSELECT 2 LIMIT 1000", out)
}

func TestEnsureLimitPassThroughNonDML(t *testing.T) {
	out, err := EnsureLimit("SHOW DATABASES", 1000, false)
	require.NoError(t, err)
	assert.Equal(t, "SHOW DATABASES", out)
}

func TestEnsureLimitCapsValue(t *testing.T) {
	out, err := EnsureLimit("SELECT * FROM t", 999999, false)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t LIMIT 1000", out)
}

func newMockConnector(t *testing.T) (*Connector, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func TestQueryReturnsRows(t *testing.T) {
	c, mock := newMockConnector(t)

	rows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow(int64(1), []byte("alpha")).
		AddRow(int64(2), []byte("beta"))
	mock.ExpectQuery("SELECT id, name FROM t LIMIT 1000").WillReturnRows(rows)

	res := c.Query(context.Background(), "SELECT id, name FROM t")

	assert.Equal(t, CodeOK, res.Errcode)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "alpha", res.Data[0]["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryEmptyResult(t *testing.T) {
	c, mock := newMockConnector(t)

	mock.ExpectQuery("SELECT id FROM t LIMIT 1000").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	res := c.Query(context.Background(), "SELECT id FROM t")
	assert.Equal(t, CodeEmptyResult, res.Errcode)
	assert.Empty(t, res.Data)
}

func TestQueryNonQueryStatement(t *testing.T) {
	c, mock := newMockConnector(t)

	mock.ExpectExec("CREATE TABLE t (id INT)").
		WillReturnResult(sqlmock.NewResult(0, 0))

	res := c.Query(context.Background(), "CREATE TABLE t (id INT)")
	assert.Equal(t, CodeNonQuery, res.Errcode)
}

func TestQueryMultiStatementRejected(t *testing.T) {
	c, _ := newMockConnector(t)

	res := c.Query(context.Background(), "SELECT 1; SELECT 2")
	assert.Equal(t, CodeInvalidSQL, res.Errcode)
}

func TestQueryExecError(t *testing.T) {
	c, mock := newMockConnector(t)

	mock.ExpectQuery("SELECT id FROM t LIMIT 1000").
		WillReturnError(assert.AnError)

	res := c.Query(context.Background(), "SELECT id FROM t")
	assert.Equal(t, CodeExecFailed, res.Errcode)
}

func TestTestConnection(t *testing.T) {
	c, mock := newMockConnector(t)

	mock.ExpectQuery("SELECT 1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT version()").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("doris-2.1"))

	res := c.TestConnection(context.Background())
	assert.Equal(t, CodeOK, res.Errcode)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "doris-2.1", res.Data[0]["version"])
}

func TestTestConnectionFailure(t *testing.T) {
	c, mock := newMockConnector(t)

	mock.ExpectQuery("SELECT 1").WillReturnError(assert.AnError)

	res := c.TestConnection(context.Background())
	assert.Equal(t, CodeConnFailed, res.Errcode)
}
