package lint

import (
	"fmt"
	"strings"

	"github.com/odyssey/rulehub/internal/catalog"
	"github.com/odyssey/rulehub/internal/rule"
)

// Check names, referenced from config.yml lint overrides.
const (
	CheckParse                = "parse"
	CheckMetadataRequired     = "metadata-required"
	CheckMetadataValues       = "metadata-values"
	CheckFilename             = "filename"
	CheckSectionsRequired     = "sections-required"
	CheckDuplicateSection     = "duplicate-section"
	CheckDependsResolve       = "depends-resolve"
	CheckDependsCycle         = "depends-cycle"
	CheckFenceLanguage        = "fence-language"
	CheckTokenBudget          = "token-budget"
	CheckDuplicateNumber      = "duplicate-number"
	CheckChecklistConsistency = "checklist-consistency"
)

// tokenBudgetSlack is how far the estimated token count may exceed the
// declared TokenBudget before the linter warns (10%).
const tokenBudgetSlack = 1.10

// defaultSeverities maps each check to its default severity.
var defaultSeverities = map[string]Severity{
	CheckParse:                SeverityError,
	CheckMetadataRequired:     SeverityError,
	CheckMetadataValues:       SeverityError,
	CheckFilename:             SeverityError,
	CheckSectionsRequired:     SeverityError,
	CheckDuplicateSection:     SeverityWarning,
	CheckDependsResolve:       SeverityError,
	CheckDependsCycle:         SeverityError,
	CheckFenceLanguage:        SeverityError,
	CheckTokenBudget:          SeverityWarning,
	CheckDuplicateNumber:      SeverityError,
	CheckChecklistConsistency: SeverityWarning,
}

// KnownChecks lists every check name the linter understands.
func KnownChecks() []string {
	names := make([]string, 0, len(defaultSeverities))
	for name := range defaultSeverities {
		names = append(names, name)
	}
	return names
}

// IsKnownCheck reports whether name is a check the linter understands.
func IsKnownCheck(name string) bool {
	_, ok := defaultSeverities[name]
	return ok
}

// Options controls which checks run and at what severity.
type Options struct {
	// DisabledChecks are check names to skip entirely.
	DisabledChecks []string
	// SeverityOverrides remaps a check's severity.
	SeverityOverrides map[string]Severity
}

// linter carries run state so check functions can emit findings uniformly.
type linter struct {
	report   *Report
	disabled map[string]bool
	severity map[string]Severity
}

func newLinter(opts Options) *linter {
	l := &linter{
		report:   &Report{},
		disabled: make(map[string]bool),
		severity: make(map[string]Severity),
	}
	for name, severity := range defaultSeverities {
		l.severity[name] = severity
	}
	for _, name := range opts.DisabledChecks {
		l.disabled[name] = true
	}
	for name, severity := range opts.SeverityOverrides {
		if severity.IsValid() {
			l.severity[name] = severity
		}
	}
	return l
}

func (l *linter) emit(check string, path string, line int, format string, args ...any) {
	if l.disabled[check] {
		return
	}
	l.report.Add(Finding{
		Path:     path,
		Line:     line,
		Check:    check,
		Severity: l.severity[check],
		Message:  fmt.Sprintf(format, args...),
	})
}

// LintCatalog runs every enabled check over the catalog and returns the
// sorted report.
func LintCatalog(cat *catalog.Catalog, opts Options) *Report {
	l := newLinter(opts)

	for _, loadErr := range cat.LoadErrors {
		l.emit(CheckParse, loadErr.Path, 0, "failed to parse: %v", loadErr.Err)
	}

	for _, doc := range cat.Docs {
		l.checkFilename(doc)
		l.checkMetadataRequired(doc)
		l.checkMetadataValues(doc)
		l.checkSectionsRequired(doc)
		l.checkDuplicateSections(doc)
		l.checkDependsResolve(cat, doc)
		l.checkFenceLanguage(doc)
		l.checkTokenBudget(doc)
		l.checkChecklistConsistency(doc)
	}

	l.checkDuplicateNumbers(cat)
	l.checkDependsCycle(cat)

	l.report.Sort()
	return l.report
}

func (l *linter) checkFilename(doc *rule.Document) {
	if !rule.IsRuleFilename(doc.Filename) {
		l.emit(CheckFilename, doc.Path, 0, "filename does not match NNN[a-z]-topic-name.md")
	}
}

func (l *linter) checkMetadataRequired(doc *rule.Document) {
	if doc.MetadataSource == rule.MetadataMissing {
		l.emit(CheckMetadataRequired, doc.Path, 0, "document has no metadata block")
		return
	}

	meta := doc.Metadata
	missing := func(field string) {
		l.emit(CheckMetadataRequired, doc.Path, 0, "metadata field %s is missing or empty", field)
	}
	if meta.SchemaVersion == 0 {
		missing("SchemaVersion")
	}
	if meta.RuleVersion == "" {
		missing("RuleVersion")
	}
	if meta.LastUpdated == "" {
		missing("LastUpdated")
	}
	if len(meta.Keywords) == 0 {
		missing("Keywords")
	}
	if meta.TokenBudget == 0 {
		missing("TokenBudget")
	}
	if meta.ContextTier == "" {
		missing("ContextTier")
	}

	if doc.Title == "" {
		l.emit(CheckMetadataRequired, doc.Path, 0, "document has no level-1 title heading")
	}
}

func (l *linter) checkMetadataValues(doc *rule.Document) {
	if doc.MetadataSource == rule.MetadataMissing {
		return
	}

	meta := doc.Metadata
	if meta.SchemaVersion > rule.CurrentSchemaVersion {
		l.emit(CheckMetadataValues, doc.Path, 0, "SchemaVersion %d is newer than the supported version %d", meta.SchemaVersion, rule.CurrentSchemaVersion)
	}
	if meta.LastUpdated != "" {
		if _, err := meta.LastUpdatedTime(); err != nil {
			l.emit(CheckMetadataValues, doc.Path, 0, "LastUpdated '%s' is not a YYYY-MM-DD date", meta.LastUpdated)
		}
	}
	if meta.TokenBudget < 0 {
		l.emit(CheckMetadataValues, doc.Path, 0, "TokenBudget must be positive, got %d", meta.TokenBudget)
	}
	if meta.ContextTier != "" && !meta.ContextTier.IsValid() {
		l.emit(CheckMetadataValues, doc.Path, 0, "ContextTier '%s' is not one of core, extended, reference", meta.ContextTier)
	}
}

func (l *linter) checkSectionsRequired(doc *rule.Document) {
	for _, heading := range rule.RequiredSections {
		if doc.MetadataSource == rule.MetadataFromFrontmatter && heading == "Metadata" {
			// Frontmatter replaces the Metadata section
			continue
		}
		if doc.Section(heading) == nil {
			l.emit(CheckSectionsRequired, doc.Path, 0, "missing required section '## %s'", heading)
		}
	}
}

// checkDuplicateSections flags repeated top-level section headings. The parser
// keeps the first occurrence, so content under a repeat is silently shadowed
// for section-based checks.
func (l *linter) checkDuplicateSections(doc *rule.Document) {
	seen := make(map[string]bool)
	for _, section := range doc.Sections {
		if section.Level != 2 {
			continue
		}
		key := strings.ToLower(section.Heading)
		if seen[key] {
			l.emit(CheckDuplicateSection, doc.Path, section.Line, "duplicate section '## %s' (first occurrence wins)", section.Heading)
			continue
		}
		seen[key] = true
	}
}

func (l *linter) checkDependsResolve(cat *catalog.Catalog, doc *rule.Document) {
	for _, missing := range cat.MissingDeps(doc) {
		l.emit(CheckDependsResolve, doc.Path, 0, "Depends target '%s' does not exist in the corpus", missing)
	}
}

func (l *linter) checkFenceLanguage(doc *rule.Document) {
	for _, fence := range doc.Fences {
		if fence.Language == "" {
			l.emit(CheckFenceLanguage, doc.Path, fence.Line, "fenced code block has no language tag")
		}
		if !fence.Terminated {
			l.emit(CheckFenceLanguage, doc.Path, fence.Line, "fenced code block is never closed")
		}
	}
}

func (l *linter) checkTokenBudget(doc *rule.Document) {
	budget := doc.Metadata.TokenBudget
	if budget <= 0 {
		return
	}
	limit := int(float64(budget) * tokenBudgetSlack)
	if doc.EstimatedTokens > limit {
		l.emit(CheckTokenBudget, doc.Path, 0, "estimated %d tokens exceeds TokenBudget %d by more than 10%%", doc.EstimatedTokens, budget)
	}
}

func (l *linter) checkDuplicateNumbers(cat *catalog.Catalog) {
	seen := make(map[string]bool)
	for _, doc := range cat.Docs {
		if doc.Number == "" || seen[doc.Number] {
			continue
		}
		seen[doc.Number] = true
		dupes := cat.ByNumber(doc.Number)
		if len(dupes) < 2 {
			continue
		}
		names := make([]string, len(dupes))
		for i, d := range dupes {
			names[i] = d.Filename
		}
		for _, d := range dupes {
			l.emit(CheckDuplicateNumber, d.Path, 0, "rule number %s is used by %s", doc.Number, strings.Join(names, ", "))
		}
	}
}

func (l *linter) checkDependsCycle(cat *catalog.Catalog) {
	cycle := cat.FindCycle()
	if cycle == nil {
		return
	}
	entry, ok := cat.Lookup(cycle[0])
	path := cycle[0]
	if ok {
		path = entry.Path
	}
	l.emit(CheckDependsCycle, path, 0, "Depends cycle: %s", strings.Join(cycle, " -> "))
}

// checkChecklistConsistency flags checklist items that restate an entry from
// the Forbidden list, which makes the contract contradict itself.
func (l *linter) checkChecklistConsistency(doc *rule.Document) {
	checklist := doc.Section("Post-Execution Checklist")
	forbidden := doc.Section("Forbidden")
	if checklist == nil || forbidden == nil {
		return
	}

	forbiddenItems := make(map[string]bool)
	for _, item := range listItems(forbidden.Body) {
		forbiddenItems[normalizeItem(item)] = true
	}
	if len(forbiddenItems) == 0 {
		return
	}

	for _, item := range listItems(checklist.Body) {
		if forbiddenItems[normalizeItem(item)] {
			l.emit(CheckChecklistConsistency, doc.Path, 0, "checklist item '%s' repeats a Forbidden entry", item)
		}
	}
}

// listItems extracts "- item" / "* item" / "- [ ] item" entries from a
// section body, with checkbox markers stripped.
func listItems(body string) []string {
	var items []string
	for _, rawLine := range strings.Split(body, "\n") {
		line := strings.TrimSpace(rawLine)
		if !strings.HasPrefix(line, "- ") && !strings.HasPrefix(line, "* ") {
			continue
		}
		item := strings.TrimSpace(line[2:])
		for _, box := range []string{"[ ]", "[x]", "[X]"} {
			if strings.HasPrefix(item, box) {
				item = strings.TrimSpace(item[len(box):])
				break
			}
		}
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// normalizeItem lowercases an item and strips punctuation so trivially
// reworded duplicates still match.
func normalizeItem(item string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(item) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			sb.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
