// Package db opens the SQL databases content is stored in and owns their schema.
package db

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

type Db interface {
	InitDb() error

	Get() *sql.DB
	Close() error
	Dialect() Dialect

	// Rebind rewrites ? placeholders for the dialect. Query, QueryRow and
	// Exec rebind on their own; statements run on a *sql.Tx must be rebound
	// by the caller.
	Rebind(query string) string

	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Begin(ctx context.Context) (*sql.Tx, error)
}

var dbLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	dbLogger = l
}

// conn is the part shared by every dialect.
type conn struct {
	db      *sql.DB
	dialect Dialect
}

func (c *conn) Get() *sql.DB {
	return c.db
}

func (c *conn) Dialect() Dialect {
	return c.dialect
}

func (c *conn) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *conn) Rebind(query string) string {
	return Rebind(c.dialect, query)
}

func (c *conn) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	dbLogger.Debug().Str("query", query).Msg("Query")
	return c.db.QueryContext(ctx, c.Rebind(query), args...)
}

func (c *conn) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	dbLogger.Debug().Str("query", query).Msg("QueryRow")
	return c.db.QueryRowContext(ctx, c.Rebind(query), args...)
}

func (c *conn) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	dbLogger.Debug().Str("query", query).Msg("Exec")
	return c.db.ExecContext(ctx, c.Rebind(query), args...)
}

func (c *conn) Begin(ctx context.Context) (*sql.Tx, error) {
	return c.db.BeginTx(ctx, nil)
}

// Rebind replaces each ? in query with $1, $2, ... for Postgres. Queries are
// written by this program, so no quoting rules are applied.
func Rebind(d Dialect, query string) string {
	if d != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
