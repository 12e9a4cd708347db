package rule

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kurtosis-tech/stacktrace"
	"gopkg.in/yaml.v3"
)

// ParseFile reads and parses a rule document from disk.
func ParseFile(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to read rule file '%s'", path)
	}
	return Parse(path, content)
}

// Parse parses rule document content. Metadata is read from YAML frontmatter
// when present; otherwise from the "## Metadata" bullet section. Malformed
// frontmatter is not fatal — the document is parsed as body-only and the
// linter reports the gap.
func Parse(path string, content []byte) (*Document, error) {
	doc := &Document{
		Path:           path,
		Filename:       filepath.Base(path),
		MetadataSource: MetadataMissing,
		ContentHash:    ContentHash(content),
	}

	if number, slug, err := ParseFilename(doc.Filename); err == nil {
		doc.Number = number
		doc.Slug = slug
	}

	body := string(content)
	if strings.HasPrefix(body, "---\n") || strings.HasPrefix(body, "---\r\n") {
		frontmatter, rest, err := extractFrontmatter(body)
		if err == nil {
			var meta Metadata
			if yamlErr := yaml.Unmarshal([]byte(frontmatter), &meta); yamlErr == nil {
				doc.Metadata = meta
				doc.MetadataSource = MetadataFromFrontmatter
				body = rest
			}
		}
	}
	doc.Body = body
	doc.EstimatedTokens = EstimateTokens(body)

	scanBody(doc, body)

	if doc.MetadataSource == MetadataMissing {
		if metaSection := doc.Section("Metadata"); metaSection != nil {
			if meta, found := parseMetadataBullets(metaSection.Body); found {
				doc.Metadata = meta
				doc.MetadataSource = MetadataFromSection
			}
		}
	}

	return doc, nil
}

// extractFrontmatter splits YAML frontmatter from the rest of the document.
// The caller has already verified the opening delimiter.
func extractFrontmatter(content string) (frontmatter string, body string, err error) {
	const delimiter = "---"

	start := len(delimiter)
	if start < len(content) && content[start] == '\r' {
		start++
	}
	if start < len(content) && content[start] == '\n' {
		start++
	}

	closeIdx := strings.Index(content[start:], "\n"+delimiter)
	if closeIdx == -1 {
		return "", content, stacktrace.NewError("frontmatter has no closing delimiter")
	}

	frontmatter = content[start : start+closeIdx]

	bodyStart := start + closeIdx + 1 + len(delimiter)
	for bodyStart < len(content) && (content[bodyStart] == '\n' || content[bodyStart] == '\r') {
		bodyStart++
	}
	if bodyStart < len(content) {
		body = content[bodyStart:]
	}

	return frontmatter, body, nil
}

// scanBody walks the markdown body line by line, collecting headings,
// sections, and fenced code blocks. Headings inside fences are ignored.
func scanBody(doc *Document, body string) {
	lines := strings.Split(body, "\n")

	type headingMark struct {
		text  string
		level int
		line  int // 0-based index into lines
	}
	var headings []headingMark

	var openFence *CodeFence
	var fenceMarker string

	for i, rawLine := range lines {
		line := strings.TrimRight(rawLine, "\r")

		if openFence != nil {
			if isClosingFence(line, fenceMarker) {
				openFence.Terminated = true
				doc.Fences = append(doc.Fences, *openFence)
				openFence = nil
				continue
			}
			openFence.LineCount++
			continue
		}

		if marker, info, ok := parseOpeningFence(line); ok {
			openFence = &CodeFence{
				Line:     i + 1,
				Language: info,
			}
			fenceMarker = marker
			continue
		}

		if level, text, ok := parseHeading(line); ok {
			headings = append(headings, headingMark{text: text, level: level, line: i})
			if level == 1 && doc.Title == "" {
				doc.Title = text
			}
		}
	}

	// Unterminated fence runs to EOF
	if openFence != nil {
		doc.Fences = append(doc.Fences, *openFence)
	}

	// A section's body extends to the next heading at the same or shallower
	// level, so "## Contract" keeps its "### Inputs" children.
	for idx, h := range headings {
		end := len(lines)
		for _, later := range headings[idx+1:] {
			if later.level <= h.level {
				end = later.line
				break
			}
		}
		sectionBody := strings.Join(lines[h.line+1:end], "\n")
		doc.Sections = append(doc.Sections, Section{
			Heading: h.text,
			Level:   h.level,
			Line:    h.line + 1,
			Body:    strings.TrimRight(sectionBody, "\r\n"),
		})
	}
}

// parseHeading parses an ATX heading line. Returns ok=false for non-headings.
func parseHeading(line string) (level int, text string, ok bool) {
	trimmed := strings.TrimLeft(line, " ")
	if !strings.HasPrefix(trimmed, "#") {
		return 0, "", false
	}
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level > 6 {
		return 0, "", false
	}
	rest := trimmed[level:]
	if rest != "" && !strings.HasPrefix(rest, " ") {
		return 0, "", false
	}
	return level, strings.TrimSpace(rest), true
}

// parseOpeningFence recognizes a backtick or tilde fence opener and returns
// the fence marker and the info string (language tag).
func parseOpeningFence(line string) (marker string, info string, ok bool) {
	trimmed := strings.TrimLeft(line, " ")
	for _, char := range []string{"```", "~~~"} {
		if strings.HasPrefix(trimmed, char) {
			rest := strings.TrimLeft(trimmed, string(char[0]))
			markerLen := len(trimmed) - len(rest)
			return trimmed[:markerLen], strings.TrimSpace(rest), true
		}
	}
	return "", "", false
}

// isClosingFence reports whether line closes a fence opened with marker.
func isClosingFence(line string, marker string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, marker) {
		return false
	}
	return strings.TrimLeft(trimmed, string(marker[0])) == ""
}

// parseMetadataBullets parses the "- Key: value" bullet form of the metadata
// block. Returns found=false when no recognized key was present.
func parseMetadataBullets(body string) (Metadata, bool) {
	var meta Metadata
	found := false

	for _, rawLine := range strings.Split(body, "\n") {
		line := strings.TrimSpace(strings.TrimRight(rawLine, "\r"))
		if !strings.HasPrefix(line, "- ") && !strings.HasPrefix(line, "* ") {
			continue
		}
		key, value, ok := strings.Cut(line[2:], ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "SchemaVersion":
			meta.SchemaVersion, _ = strconv.Atoi(value)
			found = true
		case "RuleVersion":
			meta.RuleVersion = value
			found = true
		case "LastUpdated":
			meta.LastUpdated = value
			found = true
		case "Keywords":
			meta.Keywords = splitCommaList(value)
			found = true
		case "TokenBudget":
			meta.TokenBudget, _ = strconv.Atoi(value)
			found = true
		case "ContextTier":
			meta.ContextTier = ContextTier(strings.ToLower(value))
			found = true
		case "Depends":
			meta.Depends = splitCommaList(value)
			found = true
		}
	}

	return meta, found
}

// splitCommaList splits a comma-separated metadata value, trimming whitespace
// and dropping empty entries. "none" is the corpus's way of writing an
// explicitly empty list.
func splitCommaList(value string) []string {
	if value == "" || strings.EqualFold(value, "none") {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
