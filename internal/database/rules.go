package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kurtosis-tech/stacktrace"

	"github.com/odyssey/rulehub/internal/rule"
)

// Rule represents a row in the rules table.
type Rule struct {
	ID            string
	ShortID       string
	Path          string
	Corpus        string
	Number        string
	Slug          string
	Title         string
	SchemaVersion int
	RuleVersion   string
	Tier          string
	TokenEstimate int
	TokenBudget   int
	Keywords      []string
	Depends       []string
	ContentHash   string
	LastUpdated   string
	IndexedAt     time.Time
}

const ruleColumns = "id, short_id, path, corpus, number, slug, title, schema_version, rule_version, tier, token_estimate, token_budget, keywords, depends, content_hash, last_updated, indexed_at"

// RuleFromDocument converts a parsed document into an index row. The row ID
// is assigned on insert.
func RuleFromDocument(doc *rule.Document, corpus string) Rule {
	return Rule{
		Path:          doc.Path,
		Corpus:        corpus,
		Number:        doc.Number,
		Slug:          doc.Slug,
		Title:         doc.Title,
		SchemaVersion: doc.Metadata.SchemaVersion,
		RuleVersion:   doc.Metadata.RuleVersion,
		Tier:          string(doc.Metadata.ContextTier),
		TokenEstimate: doc.EstimatedTokens,
		TokenBudget:   doc.Metadata.TokenBudget,
		Keywords:      doc.Metadata.Keywords,
		Depends:       doc.Metadata.Depends,
		ContentHash:   doc.ContentHash,
		LastUpdated:   doc.Metadata.LastUpdated,
	}
}

// UpsertRule inserts the rule or, when a row with the same path exists,
// replaces its indexed fields while keeping the row's identity.
func (db *DB) UpsertRule(r Rule) error {
	now := time.Now().UTC().Format(time.RFC3339)

	var existingID string
	err := db.conn.QueryRow("SELECT id FROM rules WHERE path = ?", r.Path).Scan(&existingID)
	if err == nil {
		_, err := db.conn.Exec(
			`UPDATE rules SET corpus = ?, number = ?, slug = ?, title = ?, schema_version = ?, rule_version = ?, tier = ?, token_estimate = ?, token_budget = ?, keywords = ?, depends = ?, content_hash = ?, last_updated = ?, indexed_at = ? WHERE id = ?`,
			r.Corpus, r.Number, r.Slug, r.Title, r.SchemaVersion, r.RuleVersion, r.Tier, r.TokenEstimate, r.TokenBudget,
			joinList(r.Keywords), joinList(r.Depends), r.ContentHash, r.LastUpdated, now, existingID,
		)
		if err != nil {
			return stacktrace.Propagate(err, "failed to update rule '%s'", r.Path)
		}
		return nil
	}
	if err != sql.ErrNoRows {
		return stacktrace.Propagate(err, "failed to look up rule '%s'", r.Path)
	}

	id := uuid.New().String()
	_, err = db.conn.Exec(
		`INSERT INTO rules (`+ruleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ShortID(id), r.Path, r.Corpus, r.Number, r.Slug, r.Title, r.SchemaVersion, r.RuleVersion, r.Tier,
		r.TokenEstimate, r.TokenBudget, joinList(r.Keywords), joinList(r.Depends), r.ContentHash, r.LastUpdated, now,
	)
	if err != nil {
		return stacktrace.Propagate(err, "failed to insert rule '%s'", r.Path)
	}
	return nil
}

// DeleteRuleByPath removes a rule row by its file path.
func (db *DB) DeleteRuleByPath(path string) error {
	if _, err := db.conn.Exec("DELETE FROM rules WHERE path = ?", path); err != nil {
		return stacktrace.Propagate(err, "failed to delete rule '%s'", path)
	}
	return nil
}

// ReplaceCorpusRules atomically replaces every indexed rule belonging to the
// given corpus with the provided set.
func (db *DB) ReplaceCorpusRules(corpus string, rules []Rule) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return stacktrace.Propagate(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM rules WHERE corpus = ?", corpus); err != nil {
		return stacktrace.Propagate(err, "failed to clear corpus '%s' from index", corpus)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range rules {
		id := uuid.New().String()
		_, err := tx.Exec(
			`INSERT INTO rules (`+ruleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, ShortID(id), r.Path, corpus, r.Number, r.Slug, r.Title, r.SchemaVersion, r.RuleVersion, r.Tier,
			r.TokenEstimate, r.TokenBudget, joinList(r.Keywords), joinList(r.Depends), r.ContentHash, r.LastUpdated, now,
		)
		if err != nil {
			return stacktrace.Propagate(err, "failed to insert rule '%s'", r.Path)
		}
	}

	if err := tx.Commit(); err != nil {
		return stacktrace.Propagate(err, "failed to commit corpus replacement")
	}
	return nil
}

// ListRulesParams holds optional filters for listing rules.
type ListRulesParams struct {
	Tier   string // if set, filter to this context tier
	Corpus string // if set, filter to this corpus
	Query  string // if set, substring match on slug, title, or keywords
}

// ListRules returns indexed rules ordered by number, then path.
func (db *DB) ListRules(params ListRulesParams) ([]*Rule, error) {
	query := "SELECT " + ruleColumns + " FROM rules"

	var conditions []string
	var args []interface{}

	if params.Tier != "" {
		conditions = append(conditions, "tier = ?")
		args = append(args, params.Tier)
	}
	if params.Corpus != "" {
		conditions = append(conditions, "corpus = ?")
		args = append(args, params.Corpus)
	}
	if params.Query != "" {
		conditions = append(conditions, "(slug LIKE ? OR title LIKE ? OR keywords LIKE ?)")
		pattern := "%" + params.Query + "%"
		args = append(args, pattern, pattern, pattern)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY number, path"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to query rules")
	}
	defer rows.Close()

	return scanRules(rows)
}

// GetRuleByPath returns the rule indexed at the given path.
func (db *DB) GetRuleByPath(path string) (*Rule, error) {
	row := db.conn.QueryRow("SELECT "+ruleColumns+" FROM rules WHERE path = ?", path)
	r, err := scanRule(row)
	if err == sql.ErrNoRows {
		return nil, stacktrace.NewError("rule at '%s' not found in index", path)
	}
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to get rule at '%s'", path)
	}
	return r, nil
}

// CountRules returns the number of indexed rules.
func (db *DB) CountRules() (int, error) {
	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM rules").Scan(&count); err != nil {
		return 0, stacktrace.Propagate(err, "failed to count rules")
	}
	return count, nil
}

// ResolveRuleID resolves a user-provided rule identifier — a rule number, an
// exact slug, a unique slug prefix, or an 8-character short ID — to the
// indexed rule. Returns an error if the identifier matches zero or multiple
// rules.
func (db *DB) ResolveRuleID(userInput string) (*Rule, error) {
	// Exact number match first (O(1) via index)
	rows, err := db.conn.Query("SELECT "+ruleColumns+" FROM rules WHERE number = ? OR short_id = ? OR slug = ?", userInput, userInput, userInput)
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to query rule by identifier")
	}
	matches, err := scanRulesAndClose(rows)
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		// Fall back to slug prefix
		rows, err := db.conn.Query("SELECT "+ruleColumns+" FROM rules WHERE slug LIKE ?", userInput+"%")
		if err != nil {
			return nil, stacktrace.Propagate(err, "failed to query rule by slug prefix")
		}
		matches, err = scanRulesAndClose(rows)
		if err != nil {
			return nil, err
		}
	}

	switch len(matches) {
	case 0:
		return nil, stacktrace.NewError("rule '%s' not found in index", userInput)
	case 1:
		return matches[0], nil
	default:
		var lines []string
		for _, m := range matches {
			lines = append(lines, fmt.Sprintf("  %s  %s", m.Number, m.Path))
		}
		return nil, stacktrace.NewError(
			"rule identifier '%s' is ambiguous; matches %d rules:\n%s",
			userInput, len(matches), strings.Join(lines, "\n"),
		)
	}
}

func scanRulesAndClose(rows *sql.Rows) ([]*Rule, error) {
	defer rows.Close()
	return scanRules(rows)
}

func scanRules(rows *sql.Rows) ([]*Rule, error) {
	var rules []*Rule
	for rows.Next() {
		var r Rule
		var keywords, depends, indexedAt string
		if err := rows.Scan(&r.ID, &r.ShortID, &r.Path, &r.Corpus, &r.Number, &r.Slug, &r.Title, &r.SchemaVersion, &r.RuleVersion, &r.Tier, &r.TokenEstimate, &r.TokenBudget, &keywords, &depends, &r.ContentHash, &r.LastUpdated, &indexedAt); err != nil {
			return nil, stacktrace.Propagate(err, "failed to scan rule row")
		}
		r.Keywords = splitList(keywords)
		r.Depends = splitList(depends)
		r.IndexedAt, _ = time.Parse(time.RFC3339, indexedAt)
		rules = append(rules, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, stacktrace.Propagate(err, "error iterating rule rows")
	}
	return rules, nil
}

func scanRule(row *sql.Row) (*Rule, error) {
	var r Rule
	var keywords, depends, indexedAt string
	if err := row.Scan(&r.ID, &r.ShortID, &r.Path, &r.Corpus, &r.Number, &r.Slug, &r.Title, &r.SchemaVersion, &r.RuleVersion, &r.Tier, &r.TokenEstimate, &r.TokenBudget, &keywords, &depends, &r.ContentHash, &r.LastUpdated, &indexedAt); err != nil {
		return nil, err
	}
	r.Keywords = splitList(keywords)
	r.Depends = splitList(depends)
	r.IndexedAt, _ = time.Parse(time.RFC3339, indexedAt)
	return &r, nil
}

func joinList(items []string) string {
	return strings.Join(items, ",")
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}
