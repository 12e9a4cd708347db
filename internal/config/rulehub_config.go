package config

import (
	"os"
	"regexp"
	"sort"
	"time"

	"github.com/adhocore/gronx"
	"github.com/goccy/go-yaml"
	"github.com/kurtosis-tech/stacktrace"

	"github.com/odyssey/rulehub/internal/lint"
	"github.com/odyssey/rulehub/internal/pack"
	"github.com/odyssey/rulehub/internal/rule"
)

// corpusNameRegex matches valid corpus names: start with a letter, then
// letters, numbers, hyphens, underscores. Names become directory names under
// corpora/, so path separators and dots are out.
var corpusNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// DefaultSyncSchedule is the sync schedule used for corpora that don't set one.
const DefaultSyncSchedule = "0 * * * *"

// ReservedLocalCorpusName is the corpus name reserved for the working rules
// directory; git-backed corpora can't claim it.
const ReservedLocalCorpusName = "local"

// CorpusConfig represents the configuration for a single registered corpus.
type CorpusConfig struct {
	Git          string `yaml:"git"`                    // Git URL to clone/pull from
	SyncSchedule string `yaml:"syncSchedule,omitempty"` // Cron expression; defaults to hourly
	Enabled      *bool  `yaml:"enabled,omitempty"`      // Defaults to true if omitted
}

// IsEnabled returns whether the corpus is synced by the daemon. Defaults to
// true if not explicitly set.
func (c *CorpusConfig) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// GetSyncSchedule returns the corpus sync schedule, defaulting to hourly.
func (c *CorpusConfig) GetSyncSchedule() string {
	if c.SyncSchedule == "" {
		return DefaultSyncSchedule
	}
	return c.SyncSchedule
}

// LintConfig holds the user's lint policy overrides from config.yml.
type LintConfig struct {
	DisabledChecks    []string          `yaml:"disabledChecks,omitempty"`
	SeverityOverrides map[string]string `yaml:"severityOverrides,omitempty"`
}

// PackConfig holds the user's pack tuning from config.yml. Zero values fall
// back to the built-in defaults.
type PackConfig struct {
	DefaultBudget int            `yaml:"defaultBudget,omitempty"`
	TierWeights   map[string]int `yaml:"tierWeights,omitempty"`
	KeywordWeight int            `yaml:"keywordWeight,omitempty"`
}

// RulehubConfig represents the contents of config.yml.
type RulehubConfig struct {
	Corpora map[string]CorpusConfig `yaml:"corpora,omitempty"`
	Lint    LintConfig              `yaml:"lint,omitempty"`
	Pack    PackConfig              `yaml:"pack,omitempty"`
}

// GetCorpusConfig returns the config for a corpus and whether it exists.
func (c *RulehubConfig) GetCorpusConfig(name string) (CorpusConfig, bool) {
	cc, ok := c.Corpora[name]
	return cc, ok
}

// SetCorpusConfig sets or updates the config entry for a corpus.
func (c *RulehubConfig) SetCorpusConfig(name string, cc CorpusConfig) {
	if c.Corpora == nil {
		c.Corpora = make(map[string]CorpusConfig)
	}
	c.Corpora[name] = cc
}

// RemoveCorpusConfig removes the config entry for a corpus.
// Returns true if the entry existed and was removed.
func (c *RulehubConfig) RemoveCorpusConfig(name string) bool {
	if _, ok := c.Corpora[name]; !ok {
		return false
	}
	delete(c.Corpora, name)
	return true
}

// GetEnabledCorpora returns the sorted names of corpora the daemon should sync.
func (c *RulehubConfig) GetEnabledCorpora() []string {
	var names []string
	for name, cc := range c.Corpora {
		if cc.IsEnabled() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// LintOptions converts the lint policy from config.yml into linter options.
func (c *RulehubConfig) LintOptions() lint.Options {
	opts := lint.Options{
		DisabledChecks: append([]string(nil), c.Lint.DisabledChecks...),
	}
	if len(c.Lint.SeverityOverrides) > 0 {
		opts.SeverityOverrides = make(map[string]lint.Severity, len(c.Lint.SeverityOverrides))
		for check, severity := range c.Lint.SeverityOverrides {
			opts.SeverityOverrides[check] = lint.Severity(severity)
		}
	}
	return opts
}

// PackBuildConfig converts the pack tuning from config.yml into a pack config,
// with built-in defaults filling any unset field.
func (c *RulehubConfig) PackBuildConfig() pack.Config {
	cfg := pack.DefaultConfig()
	if c.Pack.DefaultBudget > 0 {
		cfg.DefaultBudget = c.Pack.DefaultBudget
	}
	if c.Pack.KeywordWeight > 0 {
		cfg.KeywordWeight = c.Pack.KeywordWeight
	}
	for tier, weight := range c.Pack.TierWeights {
		cfg.TierWeights[rule.ContextTier(tier)] = weight
	}
	return cfg
}

// ReadRulehubConfig reads and parses config.yml. Returns an empty config if
// the file does not exist.
// The returned yaml.CommentMap captures any YAML comments for round-trip
// preservation; callers that only read config may discard it with _.
func ReadRulehubConfig(rulehubDirpath string) (*RulehubConfig, yaml.CommentMap, error) {
	configFilepath := GetConfigFilepath(rulehubDirpath)

	data, err := os.ReadFile(configFilepath)
	if err != nil {
		if os.IsNotExist(err) {
			return &RulehubConfig{}, nil, nil
		}
		return nil, nil, stacktrace.Propagate(err, "failed to read config file '%s'", configFilepath)
	}

	var cfg RulehubConfig
	cm := yaml.CommentMap{}
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.CommentToMap(cm)); err != nil {
		return nil, nil, stacktrace.Propagate(err, "failed to parse config file '%s'", configFilepath)
	}

	if cfg.Corpora == nil {
		cfg.Corpora = make(map[string]CorpusConfig)
	}
	for name, cc := range cfg.Corpora {
		if err := ValidateCorpusName(name); err != nil {
			return nil, nil, stacktrace.Propagate(err, "invalid corpus name in %s", configFilepath)
		}
		if name == ReservedLocalCorpusName {
			return nil, nil, stacktrace.NewError("corpus name '%s' in %s is reserved for the working rules directory", name, configFilepath)
		}
		if cc.Git == "" {
			return nil, nil, stacktrace.NewError("corpus '%s' in %s must have a git URL", name, configFilepath)
		}
		if cc.SyncSchedule != "" {
			if err := ValidateSyncSchedule(cc.SyncSchedule); err != nil {
				return nil, nil, stacktrace.Propagate(err, "invalid sync schedule for corpus '%s' in %s", name, configFilepath)
			}
		}
	}

	for _, check := range cfg.Lint.DisabledChecks {
		if !lint.IsKnownCheck(check) {
			return nil, nil, stacktrace.NewError("unknown lint check '%s' in %s disabledChecks", check, configFilepath)
		}
	}
	for check, severity := range cfg.Lint.SeverityOverrides {
		if !lint.IsKnownCheck(check) {
			return nil, nil, stacktrace.NewError("unknown lint check '%s' in %s severityOverrides", check, configFilepath)
		}
		if !lint.Severity(severity).IsValid() {
			return nil, nil, stacktrace.NewError(
				"invalid severity '%s' for lint check '%s' in %s; must be 'error' or 'warning'",
				severity, check, configFilepath,
			)
		}
	}

	for tier := range cfg.Pack.TierWeights {
		if !rule.ContextTier(tier).IsValid() {
			return nil, nil, stacktrace.NewError(
				"unknown context tier '%s' in %s tierWeights; must be one of core, extended, reference",
				tier, configFilepath,
			)
		}
	}
	if err := cfg.PackBuildConfig().Validate(); err != nil {
		return nil, nil, stacktrace.Propagate(err, "invalid pack settings in %s", configFilepath)
	}

	return &cfg, cm, nil
}

// WriteRulehubConfig marshals and writes config.yml. Pass the yaml.CommentMap
// returned by ReadRulehubConfig to preserve YAML comments through round-trips;
// pass nil if no comments need preserving.
func WriteRulehubConfig(rulehubDirpath string, cfg *RulehubConfig, cm yaml.CommentMap) error {
	configFilepath := GetConfigFilepath(rulehubDirpath)

	var (
		data []byte
		err  error
	)
	if cm != nil {
		data, err = yaml.MarshalWithOptions(cfg, yaml.WithComment(cm))
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return stacktrace.Propagate(err, "failed to marshal config")
	}

	if err := os.WriteFile(configFilepath, data, 0644); err != nil {
		return stacktrace.Propagate(err, "failed to write config file '%s'", configFilepath)
	}

	return nil
}

// EnsureConfigFile creates config.yml with a minimal empty configuration if it
// does not already exist.
func EnsureConfigFile(rulehubDirpath string) error {
	configFilepath := GetConfigFilepath(rulehubDirpath)

	if _, err := os.Stat(configFilepath); err == nil {
		return nil
	}

	if err := os.WriteFile(configFilepath, []byte("{}\n"), 0644); err != nil {
		return stacktrace.Propagate(err, "failed to create config file '%s'", configFilepath)
	}

	return nil
}

// ValidateCorpusName checks whether a corpus name is valid.
// Corpus names must start with a letter and contain only letters, numbers,
// hyphens, and underscores, since they become directory names.
func ValidateCorpusName(name string) error {
	if name == "" {
		return stacktrace.NewError("corpus name cannot be empty")
	}
	if len(name) > 64 {
		return stacktrace.NewError("corpus name too long (max 64 characters)")
	}
	if !corpusNameRegex.MatchString(name) {
		return stacktrace.NewError("corpus name '%s' is invalid; must start with a letter and contain only letters, numbers, hyphens, and underscores", name)
	}
	return nil
}

// ValidateSyncSchedule checks whether a corpus sync schedule expression is valid.
// Supports standard 5-field cron expressions and 6-field expressions with seconds.
func ValidateSyncSchedule(schedule string) error {
	if schedule == "" {
		return stacktrace.NewError("sync schedule cannot be empty")
	}
	gron := gronx.New()
	if !gron.IsValid(schedule) {
		return stacktrace.NewError("invalid sync schedule '%s'; use standard cron syntax (e.g., '0 * * * *' for hourly)", schedule)
	}
	return nil
}

// GetNextSyncRun returns the next scheduled sync time for a cron expression.
func GetNextSyncRun(schedule string) (time.Time, error) {
	return gronx.NextTick(schedule, false)
}

// IsSyncDue checks if a sync schedule is due at the given time.
func IsSyncDue(schedule string, t time.Time) bool {
	gron := gronx.New()
	due, err := gron.IsDue(schedule, t)
	if err != nil {
		return false
	}
	return due
}
