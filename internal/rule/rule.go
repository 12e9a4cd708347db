// Package rule defines the rule document model and parser. A rule document is
// a Markdown file instructing an AI coding assistant on domain best practices,
// carrying a metadata block (either YAML frontmatter or a "## Metadata"
// section of "- Key: value" bullets) and a set of conventional sections.
package rule

import (
	"strings"
	"time"
)

// ContextTier classifies how eagerly a rule should be loaded into an
// assistant's context.
type ContextTier string

const (
	// TierCore rules are loaded into every context pack unconditionally.
	TierCore ContextTier = "core"
	// TierExtended rules are loaded when their keywords match the task.
	TierExtended ContextTier = "extended"
	// TierReference rules are loaded only on explicit request or strong match.
	TierReference ContextTier = "reference"
)

// IsValid reports whether the tier is one of the known values.
func (t ContextTier) IsValid() bool {
	switch t {
	case TierCore, TierExtended, TierReference:
		return true
	}
	return false
}

// lastUpdatedLayout is the date format for the LastUpdated metadata field.
const lastUpdatedLayout = "2006-01-02"

// Metadata is the structured preamble of a rule document.
type Metadata struct {
	SchemaVersion int         `yaml:"SchemaVersion"`
	RuleVersion   string      `yaml:"RuleVersion"`
	LastUpdated   string      `yaml:"LastUpdated"`
	Keywords      []string    `yaml:"Keywords"`
	TokenBudget   int         `yaml:"TokenBudget"`
	ContextTier   ContextTier `yaml:"ContextTier"`
	Depends       []string    `yaml:"Depends"`
}

// LastUpdatedTime parses the LastUpdated field as a 2006-01-02 date.
func (m Metadata) LastUpdatedTime() (time.Time, error) {
	return time.Parse(lastUpdatedLayout, m.LastUpdated)
}

// HasKeyword reports whether the metadata carries the given keyword,
// case-insensitively.
func (m Metadata) HasKeyword(keyword string) bool {
	for _, k := range m.Keywords {
		if strings.EqualFold(k, keyword) {
			return true
		}
	}
	return false
}

// MetadataSource records where a document's metadata was read from.
type MetadataSource string

const (
	// MetadataFromFrontmatter means YAML frontmatter was present and parsed.
	MetadataFromFrontmatter MetadataSource = "frontmatter"
	// MetadataFromSection means the "## Metadata" bullet section was parsed.
	MetadataFromSection MetadataSource = "section"
	// MetadataMissing means the document carried no metadata at all.
	MetadataMissing MetadataSource = "missing"
)

// Section is a single heading-delimited region of a rule document.
type Section struct {
	Heading string
	Level   int
	Line    int // 1-based line of the heading
	Body    string
}

// CodeFence describes a fenced code block within the document body.
type CodeFence struct {
	Line       int    // 1-based line of the opening fence
	Language   string // info string, empty when the fence has no language tag
	LineCount  int    // lines between the fences
	Terminated bool   // false when the fence runs to EOF
}

// Document is a fully parsed rule document.
type Document struct {
	Path     string // path as given to the parser
	Filename string // base filename
	Number   string // "NNN" or "NNNa" filename prefix, empty if unconventional
	Slug     string // topic-name portion of the filename

	Title          string // first level-1 heading, empty if absent
	Metadata       Metadata
	MetadataSource MetadataSource
	Sections       []Section
	Fences         []CodeFence

	Body            string // markdown body, frontmatter stripped
	EstimatedTokens int
	ContentHash     string
}

// Section returns the first section with the given heading (case-insensitive),
// or nil if the document has none.
func (d *Document) Section(heading string) *Section {
	for i := range d.Sections {
		if strings.EqualFold(d.Sections[i].Heading, heading) {
			return &d.Sections[i]
		}
	}
	return nil
}

// RequiredSections is the set of conventional sections every rule document
// carries, in their conventional order.
var RequiredSections = []string{
	"Metadata",
	"Scope",
	"References",
	"Contract",
	"Anti-Patterns and Common Mistakes",
	"Output Format Examples",
}
