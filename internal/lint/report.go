// Package lint checks a rule catalog against the corpus conventions: metadata
// completeness, section structure, dependency resolution, fenced-block
// language tags, and token budgets.
package lint

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kurtosis-tech/stacktrace"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// IsValid reports whether the severity is a known value.
func (s Severity) IsValid() bool {
	return s == SeverityError || s == SeverityWarning
}

// Finding is a single lint result.
type Finding struct {
	Path     string   `json:"path"`
	Line     int      `json:"line,omitempty"`
	Check    string   `json:"check"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Report aggregates findings across a lint run.
type Report struct {
	Findings []Finding `json:"findings"`
}

// Add appends a finding.
func (r *Report) Add(f Finding) {
	r.Findings = append(r.Findings, f)
}

// HasErrors reports whether any finding has error severity.
func (r *Report) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Counts returns the number of error and warning findings.
func (r *Report) Counts() (errors int, warnings int) {
	for _, f := range r.Findings {
		switch f.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}
	return errors, warnings
}

// Sort orders findings by path, line, then check name, making report output
// deterministic across runs.
func (r *Report) Sort() {
	sort.Slice(r.Findings, func(i, j int) bool {
		a, b := r.Findings[i], r.Findings[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Check < b.Check
	})
}

// ByFile groups findings by path, preserving the report's current order
// within each group.
func (r *Report) ByFile() map[string][]Finding {
	grouped := make(map[string][]Finding)
	for _, f := range r.Findings {
		grouped[f.Path] = append(grouped[f.Path], f)
	}
	return grouped
}

// RenderText renders the report in a human-readable one-finding-per-line
// format: path:line: severity: message (check).
func (r *Report) RenderText() string {
	var sb strings.Builder
	for _, f := range r.Findings {
		if f.Line > 0 {
			fmt.Fprintf(&sb, "%s:%d: %s: %s (%s)\n", f.Path, f.Line, f.Severity, f.Message, f.Check)
		} else {
			fmt.Fprintf(&sb, "%s: %s: %s (%s)\n", f.Path, f.Severity, f.Message, f.Check)
		}
	}
	errors, warnings := r.Counts()
	fmt.Fprintf(&sb, "%d error(s), %d warning(s)\n", errors, warnings)
	return sb.String()
}

// RenderJSON renders the report as indented JSON.
func (r *Report) RenderJSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", stacktrace.Propagate(err, "failed to marshal lint report")
	}
	return string(data) + "\n", nil
}
