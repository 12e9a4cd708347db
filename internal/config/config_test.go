package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/odyssey/rulehub/internal/lint"
	"github.com/odyssey/rulehub/internal/rule"
)

func TestGetRulehubDirpath(t *testing.T) {
	t.Run("env var override", func(t *testing.T) {
		customDirpath := t.TempDir()
		t.Setenv(rulehubDirpathEnvVar, customDirpath)

		dirpath, err := GetRulehubDirpath()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dirpath != customDirpath {
			t.Errorf("expected '%s', got '%s'", customDirpath, dirpath)
		}
	})

	t.Run("default under home", func(t *testing.T) {
		t.Setenv(rulehubDirpathEnvVar, "")

		dirpath, err := GetRulehubDirpath()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if filepath.Base(dirpath) != defaultRulehubDirname {
			t.Errorf("expected default dirname, got '%s'", dirpath)
		}
	})
}

func TestEnsureDirStructure(t *testing.T) {
	rulehubDirpath := t.TempDir()

	if err := EnsureDirStructure(rulehubDirpath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, dirname := range []string{RulesDirname, CorporaDirname, DaemonDirname} {
		info, err := os.Stat(filepath.Join(rulehubDirpath, dirname))
		if err != nil {
			t.Errorf("expected directory '%s' to exist: %v", dirname, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("expected '%s' to be a directory", dirname)
		}
	}

	if _, err := os.Stat(GetConfigFilepath(rulehubDirpath)); err != nil {
		t.Errorf("expected config file to be seeded: %v", err)
	}

	// Running again must be a no-op
	if err := EnsureDirStructure(rulehubDirpath); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
}

func TestReadRulehubConfig(t *testing.T) {
	writeConfig := func(t *testing.T, content string) string {
		t.Helper()
		rulehubDirpath := t.TempDir()
		if err := os.WriteFile(GetConfigFilepath(rulehubDirpath), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		return rulehubDirpath
	}

	t.Run("missing file yields empty config", func(t *testing.T) {
		cfg, _, err := ReadRulehubConfig(t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cfg.Corpora) != 0 {
			t.Errorf("expected empty corpora, got %v", cfg.Corpora)
		}
	})

	t.Run("valid config", func(t *testing.T) {
		rulehubDirpath := writeConfig(t, `
corpora:
  snowflake-rules:
    git: https://github.com/example/snowflake-rules
    syncSchedule: "*/15 * * * *"
lint:
  disabledChecks:
    - token-budget
  severityOverrides:
    fence-language: warning
pack:
  defaultBudget: 4000
  tierWeights:
    extended: 75
`)
		cfg, _, err := ReadRulehubConfig(rulehubDirpath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cc, ok := cfg.GetCorpusConfig("snowflake-rules")
		if !ok {
			t.Fatal("expected corpus entry")
		}
		if cc.GetSyncSchedule() != "*/15 * * * *" {
			t.Errorf("unexpected schedule: %q", cc.GetSyncSchedule())
		}
		if !cc.IsEnabled() {
			t.Error("corpus should default to enabled")
		}

		opts := cfg.LintOptions()
		if len(opts.DisabledChecks) != 1 || opts.DisabledChecks[0] != lint.CheckTokenBudget {
			t.Errorf("unexpected disabled checks: %v", opts.DisabledChecks)
		}
		if opts.SeverityOverrides[lint.CheckFenceLanguage] != lint.SeverityWarning {
			t.Errorf("unexpected severity overrides: %v", opts.SeverityOverrides)
		}

		packCfg := cfg.PackBuildConfig()
		if packCfg.DefaultBudget != 4000 {
			t.Errorf("expected budget 4000, got %d", packCfg.DefaultBudget)
		}
		if packCfg.TierWeights[rule.TierExtended] != 75 {
			t.Errorf("expected extended weight 75, got %d", packCfg.TierWeights[rule.TierExtended])
		}
		// Unset tiers keep their defaults
		if packCfg.TierWeights[rule.TierCore] == 0 {
			t.Error("core tier weight should keep its default")
		}
	})

	t.Run("corpus without git URL fails", func(t *testing.T) {
		rulehubDirpath := writeConfig(t, `
corpora:
  broken:
    syncSchedule: "0 * * * *"
`)
		if _, _, err := ReadRulehubConfig(rulehubDirpath); err == nil {
			t.Fatal("expected error for corpus without git URL")
		}
	})

	t.Run("invalid sync schedule fails", func(t *testing.T) {
		rulehubDirpath := writeConfig(t, `
corpora:
  broken:
    git: https://github.com/example/broken
    syncSchedule: "not a cron"
`)
		if _, _, err := ReadRulehubConfig(rulehubDirpath); err == nil {
			t.Fatal("expected error for invalid schedule")
		}
	})

	t.Run("unknown lint check fails", func(t *testing.T) {
		rulehubDirpath := writeConfig(t, `
lint:
  disabledChecks:
    - no-such-check
`)
		_, _, err := ReadRulehubConfig(rulehubDirpath)
		if err == nil {
			t.Fatal("expected error for unknown check")
		}
		if !strings.Contains(err.Error(), "no-such-check") {
			t.Errorf("error should name the check: %v", err)
		}
	})

	t.Run("invalid severity fails", func(t *testing.T) {
		rulehubDirpath := writeConfig(t, `
lint:
  severityOverrides:
    token-budget: fatal
`)
		if _, _, err := ReadRulehubConfig(rulehubDirpath); err == nil {
			t.Fatal("expected error for invalid severity")
		}
	})

	t.Run("unknown tier fails", func(t *testing.T) {
		rulehubDirpath := writeConfig(t, `
pack:
  tierWeights:
    mega: 500
`)
		if _, _, err := ReadRulehubConfig(rulehubDirpath); err == nil {
			t.Fatal("expected error for unknown tier")
		}
	})
}

func TestWriteRulehubConfig_RoundTrip(t *testing.T) {
	rulehubDirpath := t.TempDir()

	cfg := &RulehubConfig{}
	cfg.SetCorpusConfig("team-rules", CorpusConfig{Git: "https://github.com/example/team-rules"})
	if err := WriteRulehubConfig(rulehubDirpath, cfg, nil); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, _, err := ReadRulehubConfig(rulehubDirpath)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	cc, ok := got.GetCorpusConfig("team-rules")
	if !ok || cc.Git != "https://github.com/example/team-rules" {
		t.Errorf("round-trip lost corpus entry: %+v", got.Corpora)
	}

	if !got.RemoveCorpusConfig("team-rules") {
		t.Error("expected removal to report true")
	}
	if got.RemoveCorpusConfig("team-rules") {
		t.Error("second removal should report false")
	}
}

func TestValidateCorpusName(t *testing.T) {
	valid := []string{"snowflake", "team-rules", "a", "Rules_2026"}
	for _, name := range valid {
		if err := ValidateCorpusName(name); err != nil {
			t.Errorf("expected '%s' to be valid: %v", name, err)
		}
	}

	invalid := []string{"", "1starts-with-digit", "has space", "has/slash", "has.dot", strings.Repeat("a", 65)}
	for _, name := range invalid {
		if err := ValidateCorpusName(name); err == nil {
			t.Errorf("expected '%s' to be rejected", name)
		}
	}
}

func TestGetEnabledCorpora(t *testing.T) {
	disabled := false
	cfg := &RulehubConfig{
		Corpora: map[string]CorpusConfig{
			"beta":  {Git: "https://example.com/beta"},
			"alpha": {Git: "https://example.com/alpha"},
			"off":   {Git: "https://example.com/off", Enabled: &disabled},
		},
	}

	names := cfg.GetEnabledCorpora()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("unexpected enabled corpora: %v", names)
	}
}
