package pack

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/odyssey/rulehub/internal/catalog"
)

// writeRule writes a rule whose body is padded to roughly tokens tokens.
func writeRule(t *testing.T, root string, filename string, tier string, keywords string, depends string, tokens int) {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("# " + filename + "\n\n## Metadata\n\n")
	sb.WriteString("- SchemaVersion: 1\n")
	sb.WriteString("- ContextTier: " + tier + "\n")
	if keywords != "" {
		sb.WriteString("- Keywords: " + keywords + "\n")
	}
	if depends != "" {
		sb.WriteString("- Depends: " + depends + "\n")
	}
	sb.WriteString("\n## Scope\n\n")
	for sb.Len() < tokens*4 {
		sb.WriteString("padding text ")
	}
	sb.WriteString("\n")
	if err := os.WriteFile(filepath.Join(root, filename), []byte(sb.String()), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", filename, err)
	}
}

func load(t *testing.T, root string) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load(root)
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	return cat
}

func TestBuild_CoreAlwaysIncluded(t *testing.T) {
	root := t.TempDir()
	writeRule(t, root, "001-conventions.md", "core", "", "", 100)
	writeRule(t, root, "010-snowflake.md", "extended", "snowflake", "", 100)
	writeRule(t, root, "020-streamlit.md", "extended", "streamlit", "", 100)

	result, err := Build(load(t, root), Request{Keywords: []string{"snowflake"}}, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := result.Filenames()
	want := []string{"001-conventions.md", "010-snowflake.md"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("pack = %v, want %v", names, want)
	}
	if result.TotalTokens == 0 {
		t.Error("expected a nonzero token total")
	}
}

func TestBuild_CoreSurvivesTightBudget(t *testing.T) {
	root := t.TempDir()
	// The extended rule's keyword score (50 + 3x25) beats the core rule's tier
	// weight (100), but the core rule must still pack first and win the budget.
	writeRule(t, root, "001-core.md", "core", "", "", 100)
	writeRule(t, root, "010-ext.md", "extended", "snowflake, sql, dbt", "", 500)

	result, err := Build(
		load(t, root),
		Request{Keywords: []string{"snowflake", "sql", "dbt"}, Budget: 550},
		DefaultConfig(),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := result.Filenames()
	if len(names) != 1 || names[0] != "001-core.md" {
		t.Fatalf("pack = %v, want [001-core.md]", names)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Filename != "010-ext.md" {
		t.Errorf("skipped = %v, want the extended rule", result.Skipped)
	}
}

func TestBuild_DependenciesPrecedeDependents(t *testing.T) {
	root := t.TempDir()
	writeRule(t, root, "001-base.md", "reference", "", "", 100)
	writeRule(t, root, "002-mid.md", "reference", "", "001-base.md", 100)
	writeRule(t, root, "010-top.md", "extended", "snowflake", "002-mid.md", 100)

	result, err := Build(load(t, root), Request{Keywords: []string{"snowflake"}}, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"001-base.md", "002-mid.md", "010-top.md"}
	if !reflect.DeepEqual(result.Filenames(), want) {
		t.Errorf("pack = %v, want %v", result.Filenames(), want)
	}
}

func TestBuild_BudgetSkipsWholeClosure(t *testing.T) {
	root := t.TempDir()
	writeRule(t, root, "001-small.md", "extended", "snowflake", "", 100)
	// Big rule plus its dep can't fit alongside the small one
	writeRule(t, root, "002-bigdep.md", "reference", "", "", 300)
	writeRule(t, root, "010-big.md", "extended", "snowflake, sql", "002-bigdep.md", 300)

	cfg := DefaultConfig()
	result, err := Build(load(t, root), Request{Keywords: []string{"snowflake", "sql"}, Budget: 700}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// big (2 keyword hits) scores above small (1 hit), so big's closure packs
	// first; small then fits in the remainder only if budget allows.
	names := result.Filenames()
	if names[0] != "002-bigdep.md" || names[1] != "010-big.md" {
		t.Fatalf("expected big closure first, got %v", names)
	}
	if result.TotalTokens > 700 {
		t.Errorf("pack exceeds budget: %d > 700", result.TotalTokens)
	}

	// Tighten the budget so only the big closure fits; small is skipped whole
	result, err = Build(load(t, root), Request{Keywords: []string{"snowflake", "sql"}, Budget: 650}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range result.Filenames() {
		if name == "001-small.md" {
			return // fits: 650 - closure is fine
		}
	}
	if len(result.Skipped) == 0 {
		t.Error("expected the small rule to be either included or reported as skipped")
	}
}

func TestBuild_Deterministic(t *testing.T) {
	root := t.TempDir()
	writeRule(t, root, "001-a.md", "extended", "x", "", 100)
	writeRule(t, root, "002-b.md", "extended", "x", "", 100)
	writeRule(t, root, "003-c.md", "extended", "x", "", 100)

	var first []string
	for i := 0; i < 5; i++ {
		result, err := Build(load(t, root), Request{Keywords: []string{"x"}}, DefaultConfig())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first == nil {
			first = result.Filenames()
			continue
		}
		if !reflect.DeepEqual(first, result.Filenames()) {
			t.Fatalf("pack order not deterministic: %v vs %v", first, result.Filenames())
		}
	}
	// Equal scores tiebreak by rule number
	want := []string{"001-a.md", "002-b.md", "003-c.md"}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("pack = %v, want %v", first, want)
	}
}

func TestBuild_CycleFails(t *testing.T) {
	root := t.TempDir()
	writeRule(t, root, "001-a.md", "core", "", "002-b.md", 100)
	writeRule(t, root, "002-b.md", "core", "", "001-a.md", 100)

	if _, err := Build(load(t, root), Request{}, DefaultConfig()); err == nil {
		t.Fatal("expected cycle error")
	}
}

func TestBuild_BudgetValidation(t *testing.T) {
	root := t.TempDir()
	writeRule(t, root, "001-a.md", "core", "", "", 100)
	cat := load(t, root)

	if _, err := Build(cat, Request{Budget: 10}, DefaultConfig()); err == nil {
		t.Fatal("expected error for tiny budget")
	}

	cfg := DefaultConfig()
	cfg.DefaultBudget = 0
	if _, err := Build(cat, Request{}, cfg); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestResult_Render(t *testing.T) {
	root := t.TempDir()
	writeRule(t, root, "001-a.md", "core", "", "", 100)
	writeRule(t, root, "002-b.md", "core", "", "", 100)

	result, err := Build(load(t, root), Request{}, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rendered := result.Render()
	if !strings.Contains(rendered, "<!-- 001-a.md -->") || !strings.Contains(rendered, "<!-- 002-b.md -->") {
		t.Errorf("render missing separators:\n%s", rendered)
	}
	if strings.Count(rendered, "\n---\n") != 1 {
		t.Errorf("expected one separator between two rules:\n%s", rendered)
	}
}
