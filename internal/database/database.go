// Package database maintains the SQLite rule index: a fast queryable mirror
// of the parsed corpus, plus the registered corpora and their sync state.
package database

import (
	"database/sql"

	"github.com/kurtosis-tech/stacktrace"

	_ "modernc.org/sqlite"
)

const createRulesTableSQL = `
CREATE TABLE IF NOT EXISTS rules (
	id TEXT PRIMARY KEY,
	short_id TEXT NOT NULL DEFAULT '',
	path TEXT NOT NULL UNIQUE,
	number TEXT NOT NULL DEFAULT '',
	slug TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	schema_version INTEGER NOT NULL DEFAULT 0,
	rule_version TEXT NOT NULL DEFAULT '',
	tier TEXT NOT NULL DEFAULT '',
	token_estimate INTEGER NOT NULL DEFAULT 0,
	keywords TEXT NOT NULL DEFAULT '',
	depends TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL DEFAULT '',
	last_updated TEXT NOT NULL DEFAULT '',
	indexed_at TEXT NOT NULL
);
`

const createCorporaTableSQL = `
CREATE TABLE IF NOT EXISTS corpora (
	name TEXT PRIMARY KEY,
	git_url TEXT NOT NULL,
	created_at TEXT NOT NULL,
	last_synced_at TEXT
);
`

const createRulesNumberIndexSQL = `CREATE INDEX IF NOT EXISTS idx_rules_number ON rules(number);`
const createRulesShortIDIndexSQL = `CREATE INDEX IF NOT EXISTS idx_rules_short_id ON rules(short_id);`

const addCorpusColumnSQL = `ALTER TABLE rules ADD COLUMN corpus TEXT NOT NULL DEFAULT '';`
const addTokenBudgetColumnSQL = `ALTER TABLE rules ADD COLUMN token_budget INTEGER NOT NULL DEFAULT 0;`

// DB wraps a sql.DB connection to the rulehub SQLite index.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the SQLite index at the given filepath and runs
// auto-migration.
func Open(dbFilepath string) (*DB, error) {
	dsn := dbFilepath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to open index database at '%s'", dbFilepath)
	}

	// SQLite only supports a single writer, so limit the pool to one connection
	// to avoid unnecessary contention between connections in the same process.
	conn.SetMaxOpenConns(1)

	migrations := []string{
		createRulesTableSQL,
		createCorporaTableSQL,
		createRulesNumberIndexSQL,
		createRulesShortIDIndexSQL,
	}
	for _, migrationSQL := range migrations {
		if _, err := conn.Exec(migrationSQL); err != nil {
			conn.Close()
			return nil, stacktrace.Propagate(err, "failed to auto-migrate index database")
		}
	}

	if err := migrateAddCorpusColumn(conn); err != nil {
		conn.Close()
		return nil, stacktrace.Propagate(err, "failed to add corpus column")
	}
	if err := migrateAddTokenBudgetColumn(conn); err != nil {
		conn.Close()
		return nil, stacktrace.Propagate(err, "failed to add token_budget column")
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// getColumnNames returns a set of column names present in the rules table.
func getColumnNames(conn *sql.DB) (map[string]bool, error) {
	rows, err := conn.Query("PRAGMA table_info(rules)")
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to read rules table info")
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull int
		var dfltValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, stacktrace.Propagate(err, "failed to scan table_info row")
		}
		columns[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, stacktrace.Propagate(err, "error iterating table_info rows")
	}
	return columns, nil
}

// migrateAddCorpusColumn idempotently adds the corpus column used to scope
// rules to the corpus they were synced from.
func migrateAddCorpusColumn(conn *sql.DB) error {
	columns, err := getColumnNames(conn)
	if err != nil {
		return err
	}
	if columns["corpus"] {
		return nil
	}
	_, err = conn.Exec(addCorpusColumnSQL)
	return err
}

// migrateAddTokenBudgetColumn idempotently adds the token_budget column.
func migrateAddTokenBudgetColumn(conn *sql.DB) error {
	columns, err := getColumnNames(conn)
	if err != nil {
		return err
	}
	if columns["token_budget"] {
		return nil
	}
	_, err = conn.Exec(addTokenBudgetColumnSQL)
	return err
}

// ShortID returns the first 8 characters of a full UUID.
func ShortID(fullID string) string {
	return fullID[:8]
}
