package db

import "fmt"

// Content is stored as one row per record. data holds the record's JSON
// without its id; position keeps list order.
const schemaTemplate = `
CREATE TABLE IF NOT EXISTS content_records (
    kind TEXT NOT NULL,
    id TEXT NOT NULL,
    position INTEGER NOT NULL,
    data TEXT NOT NULL,
    created_at %[1]s NOT NULL,
    updated_at %[1]s NOT NULL,
    PRIMARY KEY (kind, id)
);

CREATE INDEX IF NOT EXISTS content_records_kind_position ON content_records (kind, position);

CREATE TABLE IF NOT EXISTS hero (
    id INTEGER PRIMARY KEY,
    data TEXT NOT NULL,
    updated_at %[1]s NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
    id TEXT PRIMARY KEY,
    customer_name TEXT NOT NULL DEFAULT '',
    customer_phone TEXT NOT NULL DEFAULT '',
    customer_email TEXT NOT NULL DEFAULT '',
    items TEXT NOT NULL DEFAULT '[]',
    total_amount TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'new',
    created_at %[1]s NOT NULL,
    updated_at %[1]s NOT NULL
);

CREATE INDEX IF NOT EXISTS orders_created_at ON orders (created_at);

CREATE TABLE IF NOT EXISTS content_revision (
    id INTEGER PRIMARY KEY,
    revision BIGINT NOT NULL
);

INSERT INTO content_revision (id, revision) VALUES (1, 0) ON CONFLICT (id) DO NOTHING;
`

// Tables lists every table the schema creates.
var Tables = []string{"content_records", "hero", "orders", "content_revision"}

// Schema returns the DDL for the dialect.
func Schema(d Dialect) string {
	ts := "DATETIME"
	if d == DialectPostgres {
		ts = "TIMESTAMPTZ"
	}
	return fmt.Sprintf(schemaTemplate, ts)
}

// BumpRevision is executed by every write so watchers can detect changes,
// deletions included, with a single-row read.
const BumpRevision = `UPDATE content_revision SET revision = revision + 1 WHERE id = 1`

const SelectRevision = `SELECT revision FROM content_revision WHERE id = 1`
