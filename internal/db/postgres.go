package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

type Postgres struct {
	conn
	dsn string
}

func NewPostgres(dsn string) *Postgres {
	return &Postgres{
		conn: conn{dialect: DialectPostgres},
		dsn:  dsn,
	}
}

func (p *Postgres) InitDb() error {
	var err error
	p.db, err = sql.Open("postgres", p.dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	p.db.SetMaxOpenConns(10)
	p.db.SetConnMaxIdleTime(5 * time.Minute)

	if err := p.db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := p.db.Exec(Schema(DialectPostgres)); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	dbLogger.Info().Msg("Database connected and migrated")
	return nil
}
