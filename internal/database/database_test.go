package database

import (
	"path/filepath"
	"strings"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "index.sqlite"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRule(path string, number string, slug string) Rule {
	return Rule{
		Path:          path,
		Corpus:        "default",
		Number:        number,
		Slug:          slug,
		Title:         "Title of " + slug,
		SchemaVersion: 1,
		RuleVersion:   "1.0.0",
		Tier:          "extended",
		TokenEstimate: 250,
		TokenBudget:   1000,
		Keywords:      []string{"snowflake", "sql"},
		Depends:       []string{"001-base.md"},
		ContentHash:   "abc123",
		LastUpdated:   "2026-08-01",
	}
}

func TestOpen_MigratesIdempotently(t *testing.T) {
	dbFilepath := filepath.Join(t.TempDir(), "index.sqlite")

	db, err := Open(dbFilepath)
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	db.Close()

	// Reopening runs migrations again; all must be no-ops
	db, err = Open(dbFilepath)
	if err != nil {
		t.Fatalf("second open failed: %v", err)
	}
	db.Close()
}

func TestUpsertRule(t *testing.T) {
	db := openTestDB(t)

	r := sampleRule("rules/010-snowflake-sql.md", "010", "snowflake-sql")
	if err := db.UpsertRule(r); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := db.GetRuleByPath(r.Path)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Slug != "snowflake-sql" || got.TokenBudget != 1000 {
		t.Errorf("unexpected rule: %+v", got)
	}
	if len(got.Keywords) != 2 || got.Keywords[0] != "snowflake" {
		t.Errorf("keywords round-trip failed: %v", got.Keywords)
	}
	if len(got.Depends) != 1 || got.Depends[0] != "001-base.md" {
		t.Errorf("depends round-trip failed: %v", got.Depends)
	}

	// Upsert on the same path keeps the row identity
	r.Title = "Updated Title"
	if err := db.UpsertRule(r); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	updated, err := db.GetRuleByPath(r.Path)
	if err != nil {
		t.Fatalf("get after update failed: %v", err)
	}
	if updated.ID != got.ID {
		t.Error("upsert should preserve the row ID")
	}
	if updated.Title != "Updated Title" {
		t.Errorf("title not updated: %q", updated.Title)
	}

	count, err := db.CountRules()
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 rule, got %d", count)
	}
}

func TestListRules_Filters(t *testing.T) {
	db := openTestDB(t)

	a := sampleRule("rules/010-snowflake-sql.md", "010", "snowflake-sql")
	b := sampleRule("rules/020-streamlit-apps.md", "020", "streamlit-apps")
	b.Tier = "core"
	b.Keywords = []string{"streamlit", "python"}
	if err := db.UpsertRule(a); err != nil {
		t.Fatalf("insert a: %v", err)
	}
	if err := db.UpsertRule(b); err != nil {
		t.Fatalf("insert b: %v", err)
	}

	t.Run("no filter lists all ordered by number", func(t *testing.T) {
		rules, err := db.ListRules(ListRulesParams{})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(rules) != 2 || rules[0].Number != "010" {
			t.Errorf("unexpected listing: %+v", rules)
		}
	})

	t.Run("tier filter", func(t *testing.T) {
		rules, err := db.ListRules(ListRulesParams{Tier: "core"})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(rules) != 1 || rules[0].Slug != "streamlit-apps" {
			t.Errorf("unexpected listing: %+v", rules)
		}
	})

	t.Run("query filter matches keywords", func(t *testing.T) {
		rules, err := db.ListRules(ListRulesParams{Query: "python"})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(rules) != 1 || rules[0].Slug != "streamlit-apps" {
			t.Errorf("unexpected listing: %+v", rules)
		}
	})
}

func TestResolveRuleID(t *testing.T) {
	db := openTestDB(t)

	if err := db.UpsertRule(sampleRule("rules/010-snowflake-sql.md", "010", "snowflake-sql")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.UpsertRule(sampleRule("rules/011-snowflake-streams.md", "011", "snowflake-streams")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	t.Run("by number", func(t *testing.T) {
		r, err := db.ResolveRuleID("010")
		if err != nil || r.Slug != "snowflake-sql" {
			t.Fatalf("resolve by number failed: %v", err)
		}
	})

	t.Run("by exact slug", func(t *testing.T) {
		r, err := db.ResolveRuleID("snowflake-streams")
		if err != nil || r.Number != "011" {
			t.Fatalf("resolve by slug failed: %v", err)
		}
	})

	t.Run("by short id", func(t *testing.T) {
		full, err := db.GetRuleByPath("rules/010-snowflake-sql.md")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		r, err := db.ResolveRuleID(full.ShortID)
		if err != nil || r.Number != "010" {
			t.Fatalf("resolve by short id failed: %v", err)
		}
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		_, err := db.ResolveRuleID("snowflake")
		if err == nil {
			t.Fatal("expected ambiguity error")
		}
		if !strings.Contains(err.Error(), "ambiguous") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		if _, err := db.ResolveRuleID("zzz"); err == nil {
			t.Fatal("expected not-found error")
		}
	})
}

func TestReplaceCorpusRules(t *testing.T) {
	db := openTestDB(t)

	old := sampleRule("corpora/sf/010-old.md", "010", "old")
	if err := db.UpsertRule(Rule{Path: old.Path, Corpus: "sf", Number: "010", Slug: "old"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	other := sampleRule("rules/001-keep.md", "001", "keep")
	other.Corpus = "default"
	if err := db.UpsertRule(other); err != nil {
		t.Fatalf("insert: %v", err)
	}

	replacement := []Rule{
		sampleRule("corpora/sf/020-new.md", "020", "new"),
	}
	if err := db.ReplaceCorpusRules("sf", replacement); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	if _, err := db.GetRuleByPath("corpora/sf/010-old.md"); err == nil {
		t.Error("old corpus rule should be gone")
	}
	if _, err := db.GetRuleByPath("corpora/sf/020-new.md"); err != nil {
		t.Errorf("new corpus rule should exist: %v", err)
	}
	if _, err := db.GetRuleByPath("rules/001-keep.md"); err != nil {
		t.Errorf("other corpus should be untouched: %v", err)
	}
}

func TestCorpora(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.CreateCorpus("snowflake-rules", "https://github.com/example/snowflake-rules"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	t.Run("duplicate name fails", func(t *testing.T) {
		if _, err := db.CreateCorpus("snowflake-rules", "https://elsewhere"); err == nil {
			t.Fatal("expected duplicate error")
		}
	})

	t.Run("get and list", func(t *testing.T) {
		c, err := db.GetCorpus("snowflake-rules")
		if err != nil || c == nil {
			t.Fatalf("get failed: %v", err)
		}
		if c.LastSyncedAt != nil {
			t.Error("new corpus should have no sync time")
		}

		missing, err := db.GetCorpus("nope")
		if err != nil {
			t.Fatalf("get missing failed: %v", err)
		}
		if missing != nil {
			t.Error("missing corpus should be nil")
		}

		corpora, err := db.ListCorpora()
		if err != nil || len(corpora) != 1 {
			t.Fatalf("list failed: %v (%d)", err, len(corpora))
		}
	})

	t.Run("sync time", func(t *testing.T) {
		if err := db.UpdateCorpusSyncTime("snowflake-rules"); err != nil {
			t.Fatalf("update sync time failed: %v", err)
		}
		c, err := db.GetCorpus("snowflake-rules")
		if err != nil || c.LastSyncedAt == nil {
			t.Fatalf("sync time not recorded: %v", err)
		}
		if err := db.UpdateCorpusSyncTime("nope"); err == nil {
			t.Fatal("expected not-found error")
		}
	})

	t.Run("delete removes rules", func(t *testing.T) {
		r := sampleRule("corpora/snowflake-rules/010-x.md", "010", "x")
		r.Corpus = "snowflake-rules"
		if err := db.UpsertRule(r); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if err := db.DeleteCorpus("snowflake-rules"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, err := db.GetRuleByPath(r.Path); err == nil {
			t.Error("corpus rules should be deleted with the corpus")
		}
		if err := db.DeleteCorpus("snowflake-rules"); err == nil {
			t.Fatal("expected not-found error")
		}
	})
}
