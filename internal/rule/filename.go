package rule

import (
	"regexp"

	"github.com/kurtosis-tech/stacktrace"
)

// ruleFilenameRegex matches the canonical rule filename convention:
// NNN[a-z]-topic-name.md (e.g. "010-snowflake-sql.md", "020a-streamlit.md").
var ruleFilenameRegex = regexp.MustCompile(`^(\d{3}[a-z]?)-([a-z0-9][a-z0-9-]*)\.md$`)

// IsRuleFilename reports whether the base filename follows the rule naming
// convention.
func IsRuleFilename(filename string) bool {
	return ruleFilenameRegex.MatchString(filename)
}

// ParseFilename splits a conventional rule filename into its number prefix
// and slug. Returns an error for filenames that don't follow the convention.
func ParseFilename(filename string) (number string, slug string, err error) {
	matches := ruleFilenameRegex.FindStringSubmatch(filename)
	if matches == nil {
		return "", "", stacktrace.NewError("filename '%s' does not match the NNN[a-z]-topic-name.md convention", filename)
	}
	return matches[1], matches[2], nil
}
