package db

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	conn
	path string
}

func NewSQLite(path string) *SQLite {
	return &SQLite{
		conn: conn{dialect: DialectSQLite},
		path: path,
	}
}

func (s *SQLite) InitDb() error {
	var err error
	s.db, err = sql.Open("sqlite3", s.path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return err
	}

	// A single connection serializes writers and keeps :memory: databases
	// from splitting across connections.
	s.db.SetMaxOpenConns(1)

	res, err := s.db.Exec(Schema(DialectSQLite))
	if err != nil {
		return err
	}

	dbLogger.Info().Any("db_result", res).Str("path", s.path).Msg("Database initialized")
	return nil
}
