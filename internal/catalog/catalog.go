// Package catalog loads a rules tree into memory and answers questions about
// it: lookups by filename, number, or slug, the Depends graph, and keyword
// matching for context assembly.
package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/kurtosis-tech/stacktrace"

	"github.com/odyssey/rulehub/internal/rule"
)

// LoadError records a file that could not be read or parsed. The catalog
// carries these so the linter can report them instead of the load aborting.
type LoadError struct {
	Path string
	Err  error
}

// Catalog is an in-memory view of every rule document under a rules root.
type Catalog struct {
	Root       string
	Docs       []*rule.Document
	LoadErrors []LoadError

	byFilename map[string]*rule.Document
	byNumber   map[string][]*rule.Document
}

// skippedBasenames are conventional non-rule markdown files that live
// alongside rules and are not subject to the rule conventions.
var skippedBasenames = map[string]bool{
	"README.md":       true,
	"CHANGELOG.md":    true,
	"CONTRIBUTING.md": true,
	"LICENSE.md":      true,
}

// Load walks root for markdown files and parses each into the catalog.
// Dot-directories and underscore-prefixed directories are skipped. Documents
// are ordered by rule number, then filename.
func Load(root string) (*Catalog, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, stacktrace.Propagate(err, "rules root '%s' is not accessible", root)
	}

	matches, err := doublestar.Glob(os.DirFS(root), "**/*.md")
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to glob rules under '%s'", root)
	}

	cat := &Catalog{
		Root:       root,
		byFilename: make(map[string]*rule.Document),
		byNumber:   make(map[string][]*rule.Document),
	}

	for _, match := range matches {
		if isSkippedPath(match) {
			continue
		}
		path := filepath.Join(root, filepath.FromSlash(match))
		doc, err := rule.ParseFile(path)
		if err != nil {
			cat.LoadErrors = append(cat.LoadErrors, LoadError{Path: path, Err: err})
			continue
		}
		cat.Docs = append(cat.Docs, doc)
	}

	sort.Slice(cat.Docs, func(i, j int) bool {
		if cat.Docs[i].Number != cat.Docs[j].Number {
			return cat.Docs[i].Number < cat.Docs[j].Number
		}
		return cat.Docs[i].Filename < cat.Docs[j].Filename
	})

	for _, doc := range cat.Docs {
		// First occurrence wins; duplicate filenames across subdirectories
		// are reported by the linter via ByFilename collisions.
		if _, exists := cat.byFilename[doc.Filename]; !exists {
			cat.byFilename[doc.Filename] = doc
		}
		if doc.Number != "" {
			cat.byNumber[doc.Number] = append(cat.byNumber[doc.Number], doc)
		}
	}

	return cat, nil
}

// isSkippedPath reports whether a glob match should be excluded from the
// catalog: conventional repo files, dot-dirs, and underscore-prefixed dirs.
func isSkippedPath(match string) bool {
	if skippedBasenames[filepath.Base(match)] {
		return true
	}
	for _, segment := range strings.Split(filepath.ToSlash(match), "/") {
		if strings.HasPrefix(segment, ".") || strings.HasPrefix(segment, "_") {
			return true
		}
	}
	return false
}

// Lookup returns the document with the given base filename.
func (c *Catalog) Lookup(filename string) (*rule.Document, bool) {
	doc, ok := c.byFilename[filename]
	return doc, ok
}

// ByNumber returns all documents carrying the given rule number. More than
// one entry means the corpus has a duplicate-number defect.
func (c *Catalog) ByNumber(number string) []*rule.Document {
	return c.byNumber[number]
}

// Resolve resolves a user-provided rule reference: an exact filename, an
// exact rule number, or a unique slug prefix. Ambiguous or unknown references
// are errors listing the candidates.
func (c *Catalog) Resolve(ref string) (*rule.Document, error) {
	if doc, ok := c.byFilename[ref]; ok {
		return doc, nil
	}
	if docs := c.byNumber[ref]; len(docs) == 1 {
		return docs[0], nil
	} else if len(docs) > 1 {
		return nil, stacktrace.NewError("rule number '%s' is ambiguous; matches %s", ref, joinFilenames(docs))
	}

	var matches []*rule.Document
	for _, doc := range c.Docs {
		if strings.HasPrefix(doc.Slug, ref) {
			matches = append(matches, doc)
		}
	}
	switch len(matches) {
	case 0:
		return nil, stacktrace.NewError("no rule matches '%s'", ref)
	case 1:
		return matches[0], nil
	default:
		return nil, stacktrace.NewError("rule reference '%s' is ambiguous; matches %s", ref, joinFilenames(matches))
	}
}

// DirectDeps returns the resolvable direct dependencies of doc, in the order
// declared. Unresolvable entries are omitted (MissingDeps reports those).
func (c *Catalog) DirectDeps(doc *rule.Document) []*rule.Document {
	var deps []*rule.Document
	for _, depFilename := range doc.Metadata.Depends {
		if dep, ok := c.byFilename[depFilename]; ok {
			deps = append(deps, dep)
		}
	}
	return deps
}

// MissingDeps returns the Depends entries of doc that don't resolve to any
// document in the catalog.
func (c *Catalog) MissingDeps(doc *rule.Document) []string {
	var missing []string
	for _, depFilename := range doc.Metadata.Depends {
		if _, ok := c.byFilename[depFilename]; !ok {
			missing = append(missing, depFilename)
		}
	}
	return missing
}

// TransitiveDeps returns the full dependency closure of doc (not including
// doc itself) in topological order: prerequisites before dependents. Returns
// an error when the closure contains a cycle.
func (c *Catalog) TransitiveDeps(doc *rule.Document) ([]*rule.Document, error) {
	var ordered []*rule.Document
	visiting := make(map[string]bool)
	done := make(map[string]bool)

	var visit func(d *rule.Document) error
	visit = func(d *rule.Document) error {
		if done[d.Filename] {
			return nil
		}
		if visiting[d.Filename] {
			return stacktrace.NewError("dependency cycle through '%s'", d.Filename)
		}
		visiting[d.Filename] = true
		for _, dep := range c.DirectDeps(d) {
			if err := visit(dep); err != nil {
				return err
			}
		}
		visiting[d.Filename] = false
		done[d.Filename] = true
		if d != doc {
			ordered = append(ordered, d)
		}
		return nil
	}

	if err := visit(doc); err != nil {
		return nil, err
	}
	return ordered, nil
}

// ReverseDeps returns the documents that declare doc as a direct dependency,
// in catalog order.
func (c *Catalog) ReverseDeps(doc *rule.Document) []*rule.Document {
	var dependents []*rule.Document
	for _, candidate := range c.Docs {
		for _, depFilename := range candidate.Metadata.Depends {
			if depFilename == doc.Filename {
				dependents = append(dependents, candidate)
				break
			}
		}
	}
	return dependents
}

// FindCycle searches the whole Depends graph for a cycle and returns the
// filenames along it (first and last entries are the same document), or nil
// when the graph is acyclic.
func (c *Catalog) FindCycle() []string {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int)

	var cycle []string
	var visit func(d *rule.Document, path []string) bool
	visit = func(d *rule.Document, path []string) bool {
		state[d.Filename] = visiting
		path = append(path, d.Filename)
		for _, dep := range c.DirectDeps(d) {
			switch state[dep.Filename] {
			case visiting:
				// Trim the path to the cycle entry point
				start := 0
				for i, filename := range path {
					if filename == dep.Filename {
						start = i
						break
					}
				}
				cycle = append(append([]string{}, path[start:]...), dep.Filename)
				return true
			case unvisited:
				if visit(dep, path) {
					return true
				}
			}
		}
		state[d.Filename] = done
		return false
	}

	for _, doc := range c.Docs {
		if state[doc.Filename] == unvisited {
			if visit(doc, nil) {
				return cycle
			}
		}
	}
	return nil
}

// KeywordScores returns, for each document with at least one keyword hit, the
// number of query keywords it matches. Matching checks metadata keywords and
// the slug, case-insensitively.
func (c *Catalog) KeywordScores(keywords []string) map[*rule.Document]int {
	scores := make(map[*rule.Document]int)
	for _, doc := range c.Docs {
		hits := 0
		for _, keyword := range keywords {
			if doc.Metadata.HasKeyword(keyword) || strings.Contains(doc.Slug, strings.ToLower(keyword)) {
				hits++
			}
		}
		if hits > 0 {
			scores[doc] = hits
		}
	}
	return scores
}

func joinFilenames(docs []*rule.Document) string {
	names := make([]string, len(docs))
	for i, doc := range docs {
		names[i] = doc.Filename
	}
	return strings.Join(names, ", ")
}
