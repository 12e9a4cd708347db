package database

import (
	"database/sql"
	"time"

	"github.com/kurtosis-tech/stacktrace"
)

// Corpus represents a row in the corpora table: a registered git-backed rule
// corpus.
type Corpus struct {
	Name         string
	GitURL       string
	CreatedAt    time.Time
	LastSyncedAt *time.Time
}

// CreateCorpus registers a corpus. Fails if the name is already taken.
func (db *DB) CreateCorpus(name string, gitURL string) (*Corpus, error) {
	now := time.Now().UTC()
	_, err := db.conn.Exec(
		"INSERT INTO corpora (name, git_url, created_at) VALUES (?, ?, ?)",
		name, gitURL, now.Format(time.RFC3339),
	)
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to register corpus '%s'", name)
	}
	return &Corpus{Name: name, GitURL: gitURL, CreatedAt: now}, nil
}

// GetCorpus returns a corpus by name, or nil if it isn't registered.
func (db *DB) GetCorpus(name string) (*Corpus, error) {
	row := db.conn.QueryRow("SELECT name, git_url, created_at, last_synced_at FROM corpora WHERE name = ?", name)
	corpus, err := scanCorpus(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to get corpus '%s'", name)
	}
	return corpus, nil
}

// ListCorpora returns all registered corpora ordered by name.
func (db *DB) ListCorpora() ([]*Corpus, error) {
	rows, err := db.conn.Query("SELECT name, git_url, created_at, last_synced_at FROM corpora ORDER BY name")
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to query corpora")
	}
	defer rows.Close()

	var corpora []*Corpus
	for rows.Next() {
		var c Corpus
		var createdAt string
		var lastSyncedAt sql.NullString
		if err := rows.Scan(&c.Name, &c.GitURL, &createdAt, &lastSyncedAt); err != nil {
			return nil, stacktrace.Propagate(err, "failed to scan corpus row")
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if lastSyncedAt.Valid {
			t, _ := time.Parse(time.RFC3339, lastSyncedAt.String)
			c.LastSyncedAt = &t
		}
		corpora = append(corpora, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, stacktrace.Propagate(err, "error iterating corpus rows")
	}
	return corpora, nil
}

// DeleteCorpus removes a corpus registration and its indexed rules.
func (db *DB) DeleteCorpus(name string) error {
	result, err := db.conn.Exec("DELETE FROM corpora WHERE name = ?", name)
	if err != nil {
		return stacktrace.Propagate(err, "failed to delete corpus '%s'", name)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return stacktrace.Propagate(err, "failed to check rows affected")
	}
	if rowsAffected == 0 {
		return stacktrace.NewError("corpus '%s' not found", name)
	}

	if _, err := db.conn.Exec("DELETE FROM rules WHERE corpus = ?", name); err != nil {
		return stacktrace.Propagate(err, "failed to remove indexed rules of corpus '%s'", name)
	}
	return nil
}

// UpdateCorpusSyncTime records a successful sync of the corpus.
func (db *DB) UpdateCorpusSyncTime(name string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := db.conn.Exec("UPDATE corpora SET last_synced_at = ? WHERE name = ?", now, name)
	if err != nil {
		return stacktrace.Propagate(err, "failed to update sync time for corpus '%s'", name)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return stacktrace.Propagate(err, "failed to check rows affected")
	}
	if rowsAffected == 0 {
		return stacktrace.NewError("corpus '%s' not found", name)
	}
	return nil
}

func scanCorpus(row *sql.Row) (*Corpus, error) {
	var c Corpus
	var createdAt string
	var lastSyncedAt sql.NullString
	if err := row.Scan(&c.Name, &c.GitURL, &createdAt, &lastSyncedAt); err != nil {
		return nil, err
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if lastSyncedAt.Valid {
		t, _ := time.Parse(time.RFC3339, lastSyncedAt.String)
		c.LastSyncedAt = &t
	}
	return &c, nil
}
