package rule

import (
	"strings"
	"text/template"
	"time"

	"github.com/kurtosis-tech/stacktrace"
)

// CurrentSchemaVersion is the metadata schema version written into newly
// scaffolded rules and accepted by the linter.
const CurrentSchemaVersion = 1

// ruleTemplate is the canonical skeleton for a new rule document. It carries
// every conventional section so a freshly scaffolded rule lints clean except
// for the placeholder content.
const ruleTemplate = `# {{.Title}}

## Metadata

- SchemaVersion: {{.SchemaVersion}}
- RuleVersion: 0.1.0
- LastUpdated: {{.Date}}
- Keywords: {{.Slug}}
- TokenBudget: 1500
- ContextTier: extended
- Depends: none

## Scope

Describe when this rule applies and when it does not.

## References

### Dependencies

None.

### External Documentation

None.

## Contract

### Inputs/Prerequisites

- TODO

### Mandatory

- TODO

### Forbidden

- TODO

### Execution Steps

1. TODO

### Output Format

TODO

### Validation

- TODO

### Post-Execution Checklist

- [ ] TODO

## Anti-Patterns and Common Mistakes

- TODO

## Output Format Examples

` + "```text\nTODO\n```" + `
`

// templateData feeds ruleTemplate.
type templateData struct {
	Title         string
	Slug          string
	SchemaVersion int
	Date          string
}

// NewRuleContent renders the canonical rule skeleton for the given number and
// slug. The title is derived from the slug ("snowflake-sql" -> "Snowflake Sql").
func NewRuleContent(slug string, now time.Time) (string, error) {
	tmpl, err := template.New("rule").Parse(ruleTemplate)
	if err != nil {
		return "", stacktrace.Propagate(err, "failed to parse rule template")
	}

	var sb strings.Builder
	data := templateData{
		Title:         titleFromSlug(slug),
		Slug:          slug,
		SchemaVersion: CurrentSchemaVersion,
		Date:          now.Format(lastUpdatedLayout),
	}
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", stacktrace.Propagate(err, "failed to render rule template")
	}
	return sb.String(), nil
}

// titleFromSlug converts a filename slug into a display title.
func titleFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
