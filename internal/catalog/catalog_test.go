package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

// writeRule writes a minimal rule file with the given metadata bullet lines.
func writeRule(t *testing.T, root string, filename string, metaLines string) {
	t.Helper()
	content := "# " + filename + "\n\n## Metadata\n\n" + metaLines + "\n\n## Scope\n\nx\n"
	if err := os.WriteFile(filepath.Join(root, filename), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", filename, err)
	}
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	writeRule(t, root, "001-global.md", "- SchemaVersion: 1\n- ContextTier: core")
	writeRule(t, root, "010-snowflake.md", "- SchemaVersion: 1\n- Depends: 001-global.md")
	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte("# readme\n"), 0644); err != nil {
		t.Fatalf("failed to write README: %v", err)
	}

	// Nested corpus directory
	subDir := filepath.Join(root, "streamlit")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("failed to mkdir: %v", err)
	}
	writeRule(t, subDir, "020-streamlit.md", "- SchemaVersion: 1")

	// Hidden directory should be skipped
	hiddenDir := filepath.Join(root, ".git")
	if err := os.MkdirAll(hiddenDir, 0755); err != nil {
		t.Fatalf("failed to mkdir: %v", err)
	}
	writeRule(t, hiddenDir, "099-hidden.md", "- SchemaVersion: 1")

	cat, err := Load(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cat.Docs) != 3 {
		t.Fatalf("expected 3 docs, got %d", len(cat.Docs))
	}
	// Sorted by number
	if cat.Docs[0].Number != "001" || cat.Docs[2].Number != "020" {
		t.Errorf("docs not sorted by number: %v, %v", cat.Docs[0].Number, cat.Docs[2].Number)
	}
	if _, ok := cat.Lookup("099-hidden.md"); ok {
		t.Error("hidden directory rule should be skipped")
	}
	if _, ok := cat.Lookup("README.md"); ok {
		t.Error("README.md should be skipped")
	}
}

func TestLoad_MissingRoot(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestLoad_EmptyCorpus(t *testing.T) {
	cat, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cat.Docs) != 0 {
		t.Fatalf("expected empty catalog, got %d docs", len(cat.Docs))
	}
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	writeRule(t, root, "001-global.md", "- SchemaVersion: 1")
	writeRule(t, root, "010-snowflake-sql.md", "- SchemaVersion: 1")
	writeRule(t, root, "011-snowflake-streams.md", "- SchemaVersion: 1")

	cat, err := Load(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("by filename", func(t *testing.T) {
		doc, err := cat.Resolve("010-snowflake-sql.md")
		if err != nil || doc.Number != "010" {
			t.Fatalf("resolve by filename failed: %v", err)
		}
	})

	t.Run("by number", func(t *testing.T) {
		doc, err := cat.Resolve("011")
		if err != nil || doc.Slug != "snowflake-streams" {
			t.Fatalf("resolve by number failed: %v", err)
		}
	})

	t.Run("by unique slug prefix", func(t *testing.T) {
		doc, err := cat.Resolve("glob")
		if err != nil || doc.Number != "001" {
			t.Fatalf("resolve by slug prefix failed: %v", err)
		}
	})

	t.Run("ambiguous slug prefix", func(t *testing.T) {
		if _, err := cat.Resolve("snowflake"); err == nil {
			t.Fatal("expected ambiguity error")
		}
	})

	t.Run("unknown reference", func(t *testing.T) {
		if _, err := cat.Resolve("zzz"); err == nil {
			t.Fatal("expected not-found error")
		}
	})
}

func TestDependencyGraph(t *testing.T) {
	root := t.TempDir()
	writeRule(t, root, "001-base.md", "- SchemaVersion: 1")
	writeRule(t, root, "002-mid.md", "- SchemaVersion: 1\n- Depends: 001-base.md")
	writeRule(t, root, "003-top.md", "- SchemaVersion: 1\n- Depends: 002-mid.md, 004-missing.md")

	cat, err := Load(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	top, _ := cat.Lookup("003-top.md")
	base, _ := cat.Lookup("001-base.md")

	t.Run("direct and missing deps", func(t *testing.T) {
		deps := cat.DirectDeps(top)
		if len(deps) != 1 || deps[0].Filename != "002-mid.md" {
			t.Errorf("unexpected direct deps: %v", deps)
		}
		missing := cat.MissingDeps(top)
		if len(missing) != 1 || missing[0] != "004-missing.md" {
			t.Errorf("unexpected missing deps: %v", missing)
		}
	})

	t.Run("transitive deps in topological order", func(t *testing.T) {
		closure, err := cat.TransitiveDeps(top)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(closure) != 2 {
			t.Fatalf("expected closure of 2, got %d", len(closure))
		}
		if closure[0].Filename != "001-base.md" || closure[1].Filename != "002-mid.md" {
			t.Errorf("closure out of order: %s, %s", closure[0].Filename, closure[1].Filename)
		}
	})

	t.Run("reverse deps", func(t *testing.T) {
		dependents := cat.ReverseDeps(base)
		if len(dependents) != 1 || dependents[0].Filename != "002-mid.md" {
			t.Errorf("unexpected reverse deps: %v", dependents)
		}
	})

	t.Run("no cycle", func(t *testing.T) {
		if cycle := cat.FindCycle(); cycle != nil {
			t.Errorf("unexpected cycle: %v", cycle)
		}
	})
}

func TestFindCycle(t *testing.T) {
	root := t.TempDir()
	writeRule(t, root, "001-a.md", "- SchemaVersion: 1\n- Depends: 002-b.md")
	writeRule(t, root, "002-b.md", "- SchemaVersion: 1\n- Depends: 001-a.md")

	cat, err := Load(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cycle := cat.FindCycle()
	if cycle == nil {
		t.Fatal("expected a cycle")
	}
	if cycle[0] != cycle[len(cycle)-1] {
		t.Errorf("cycle should start and end on the same file: %v", cycle)
	}

	a, _ := cat.Lookup("001-a.md")
	if _, err := cat.TransitiveDeps(a); err == nil {
		t.Error("TransitiveDeps should fail on a cycle")
	}
}

func TestSelfDependencyIsCycle(t *testing.T) {
	root := t.TempDir()
	writeRule(t, root, "001-a.md", "- SchemaVersion: 1\n- Depends: 001-a.md")

	cat, err := Load(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cycle := cat.FindCycle(); cycle == nil {
		t.Fatal("self-dependency should be reported as a cycle")
	}
}

func TestKeywordScores(t *testing.T) {
	root := t.TempDir()
	writeRule(t, root, "001-global.md", "- SchemaVersion: 1\n- Keywords: conventions")
	writeRule(t, root, "010-snowflake.md", "- SchemaVersion: 1\n- Keywords: snowflake, sql, warehouse")

	cat, err := Load(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scores := cat.KeywordScores([]string{"SQL", "warehouse"})
	snowflake, _ := cat.Lookup("010-snowflake.md")
	if scores[snowflake] != 2 {
		t.Errorf("expected score 2 for snowflake rule, got %d", scores[snowflake])
	}
	global, _ := cat.Lookup("001-global.md")
	if _, ok := scores[global]; ok {
		t.Error("global rule should have no keyword hits")
	}
}
