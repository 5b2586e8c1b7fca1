package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
//
// The store is a keyed value store, not a relational schema: kv holds plain
// values with a version counter for optimistic concurrency, kv_lists holds
// ordered lists (lower pos = closer to the front, prepends take MIN(pos)-1).
const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    version INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS kv_lists (
    list_key TEXT NOT NULL,
    pos INTEGER NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (list_key, pos)
);

CREATE INDEX IF NOT EXISTS idx_kv_lists_value ON kv_lists(list_key, value);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
