// Package doris runs read-mostly queries against an Apache Doris
// cluster over the MySQL wire protocol.
package doris

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"autobahn/internal/config"
	"autobahn/internal/logging"
)

// Error codes carried in Result.Errcode; zero means success. The
// numbering is kept from the previous backend so downstream consumers
// keep working.
const (
	CodeOK          = 0
	CodeConnFailed  = 59001
	CodeInvalidSQL  = 59101
	CodeEmptyResult = 59200
	CodeNonQuery    = 59300
	CodeExecFailed  = 59400
)

// Result is the connector-level response shape: {errcode, message, data}.
type Result struct {
	Errcode int              `json:"errcode"`
	Message string           `json:"message"`
	Data    []map[string]any `json:"data"`
}

type Connector struct {
	db  *sql.DB
	cfg config.DorisConfig
}

// Open creates the connector. The connection itself is lazy; use
// TestConnection for a startup pre-check.
func Open(cfg config.DorisConfig) (*Connector, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Connector{db: db, cfg: cfg}, nil
}

// NewWithDB wraps an existing handle; used by tests.
func NewWithDB(db *sql.DB) *Connector {
	return &Connector{db: db}
}

func (c *Connector) Close() error {
	return c.db.Close()
}

// TestConnection pings the cluster and fetches its version.
func (c *Connector) TestConnection(ctx context.Context) Result {
	var one int
	if err := c.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		logging.L.Warnw("doris connection test failed", "error", err)
		return Result{Errcode: CodeConnFailed, Message: "connection test failed: " + err.Error()}
	}

	var version string
	if err := c.db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return Result{Errcode: CodeConnFailed, Message: "connection test failed: " + err.Error()}
	}

	return Result{
		Errcode: CodeOK,
		Message: "ok",
		Data:    []map[string]any{{"version": version}},
	}
}

// Query applies the LIMIT guard and executes the statement. Row-bearing
// statements come back as generic maps; anything else only reports that
// it ran.
func (c *Connector) Query(ctx context.Context, sqlText string) Result {
	safeSQL, err := EnsureLimit(sqlText, maxLimit, false)
	if err != nil {
		return Result{Errcode: CodeInvalidSQL, Message: err.Error()}
	}
	logging.L.Debugw("executing sql", "sql", safeSQL)

	if !isRowBearing(safeSQL) {
		if _, err := c.db.ExecContext(ctx, safeSQL); err != nil {
			return Result{Errcode: CodeExecFailed, Message: "execute failed: " + err.Error()}
		}
		return Result{Errcode: CodeNonQuery, Message: "non-query statement executed"}
	}

	rows, err := c.db.QueryContext(ctx, safeSQL)
	if err != nil {
		return Result{Errcode: CodeExecFailed, Message: "execute failed: " + err.Error()}
	}
	defer rows.Close()

	records, err := scanRows(rows)
	if err != nil {
		return Result{Errcode: CodeExecFailed, Message: "scan failed: " + err.Error()}
	}
	if len(records) == 0 {
		return Result{Errcode: CodeEmptyResult, Message: "query returned no rows", Data: []map[string]any{}}
	}
	return Result{Errcode: CodeOK, Message: "success", Data: records}
}

func (c *Connector) ShowDatabases(ctx context.Context) Result {
	return c.Query(ctx, "SHOW DATABASES")
}

func (c *Connector) ShowCatalogs(ctx context.Context) Result {
	return c.Query(ctx, "SHOW CATALOGS")
}

func isRowBearing(sqlText string) bool {
	switch statementType(sqlText) {
	case "SELECT", "SHOW", "DESCRIBE", "DESC":
		return true
	}
	return false
}

func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records []map[string]any
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			switch v := vals[i].(type) {
			case []byte:
				record[col] = string(v)
			default:
				record[col] = v
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// FullTableName qualifies a bare table with the configured catalog and
// database, e.g. for SHOW COLUMNS.
func (c *Connector) FullTableName(table string) string {
	if c.cfg.Catalog == "" {
		return table
	}
	return strings.Join([]string{c.cfg.Catalog, c.cfg.Database, table}, ".")
}
