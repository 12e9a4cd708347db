// Package pack assembles token-budgeted context packs from a rule catalog:
// the set of rule documents an assistant should load for a given task, with
// prerequisites ordered before their dependents.
package pack

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kurtosis-tech/stacktrace"

	"github.com/odyssey/rulehub/internal/catalog"
	"github.com/odyssey/rulehub/internal/rule"
)

// minBudget is the smallest budget worth packing for; anything lower can't
// hold even a single small rule.
const minBudget = 100

// DefaultBudget is used when neither the request nor config specifies one.
const DefaultBudget = 8000

// Config holds packing weights and defaults.
type Config struct {
	// DefaultBudget is the token budget used when a request doesn't set one.
	DefaultBudget int
	// TierWeights is the base score per context tier.
	TierWeights map[rule.ContextTier]int
	// KeywordWeight is the score added per matched keyword.
	KeywordWeight int
}

// DefaultConfig returns the standard packing configuration.
func DefaultConfig() Config {
	return Config{
		DefaultBudget: DefaultBudget,
		TierWeights: map[rule.ContextTier]int{
			rule.TierCore:      100,
			rule.TierExtended:  50,
			rule.TierReference: 10,
		},
		KeywordWeight: 25,
	}
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.DefaultBudget < minBudget {
		return stacktrace.NewError("DefaultBudget must be at least %d, got %d", minBudget, c.DefaultBudget)
	}
	if c.KeywordWeight <= 0 {
		return stacktrace.NewError("KeywordWeight must be positive, got %d", c.KeywordWeight)
	}
	return nil
}

// Request describes what to pack.
type Request struct {
	Keywords []string
	Budget   int // 0 means use the config default
}

// SkippedRule records a rule that matched but didn't fit the budget.
type SkippedRule struct {
	Filename string `json:"filename"`
	Tokens   int    `json:"tokens"`
	Reason   string `json:"reason"`
}

// Result is an assembled context pack.
type Result struct {
	Rules       []*rule.Document
	TotalTokens int
	Budget      int
	Skipped     []SkippedRule
}

// candidate pairs a document with its selection score.
type candidate struct {
	doc   *rule.Document
	score int
}

// Build assembles a pack: core rules first, then keyword matches by score,
// each expanded with its transitive Depends closure. A rule whose closure
// doesn't fit the remaining budget is skipped whole, never truncated. Output
// is deterministic for identical inputs.
func Build(cat *catalog.Catalog, req Request, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, stacktrace.Propagate(err, "invalid pack configuration")
	}

	budget := req.Budget
	if budget == 0 {
		budget = cfg.DefaultBudget
	}
	if budget < minBudget {
		return nil, stacktrace.NewError("budget must be at least %d tokens, got %d", minBudget, budget)
	}

	if cycle := cat.FindCycle(); cycle != nil {
		return nil, stacktrace.NewError("cannot pack: Depends cycle %s", strings.Join(cycle, " -> "))
	}

	candidates := rankCandidates(cat, req.Keywords, cfg)

	result := &Result{Budget: budget}
	included := make(map[string]bool)

	for _, cand := range candidates {
		if included[cand.doc.Filename] {
			continue
		}

		closure, err := cat.TransitiveDeps(cand.doc)
		if err != nil {
			return nil, stacktrace.Propagate(err, "failed to expand dependencies of '%s'", cand.doc.Filename)
		}

		// Cost of this selection is the rule plus any deps not yet included
		cost := cand.doc.EstimatedTokens
		for _, dep := range closure {
			if !included[dep.Filename] {
				cost += dep.EstimatedTokens
			}
		}

		if result.TotalTokens+cost > budget {
			result.Skipped = append(result.Skipped, SkippedRule{
				Filename: cand.doc.Filename,
				Tokens:   cost,
				Reason:   fmt.Sprintf("closure of %d tokens exceeds remaining budget", cost),
			})
			continue
		}

		// Deps first, then the rule itself
		for _, dep := range closure {
			if !included[dep.Filename] {
				included[dep.Filename] = true
				result.Rules = append(result.Rules, dep)
			}
		}
		included[cand.doc.Filename] = true
		result.Rules = append(result.Rules, cand.doc)
		result.TotalTokens += cost
	}

	return result, nil
}

// rankCandidates scores and orders the selectable documents. Core rules seed
// the list unconditionally ahead of every keyword match, so a high-scoring
// match can never displace a core rule from a tight budget; within each group
// the order is score descending, rule number ascending as the stable tiebreak.
// Non-core tiers require at least one keyword hit to be candidates at all.
func rankCandidates(cat *catalog.Catalog, keywords []string, cfg Config) []candidate {
	scores := cat.KeywordScores(keywords)

	var candidates []candidate
	for _, doc := range cat.Docs {
		hits := scores[doc]
		if doc.Metadata.ContextTier != rule.TierCore && hits == 0 {
			continue
		}
		score := cfg.TierWeights[doc.Metadata.ContextTier] + hits*cfg.KeywordWeight
		candidates = append(candidates, candidate{doc: doc, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		iCore := candidates[i].doc.Metadata.ContextTier == rule.TierCore
		jCore := candidates[j].doc.Metadata.ContextTier == rule.TierCore
		if iCore != jCore {
			return iCore
		}
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].doc.Number < candidates[j].doc.Number
	})
	return candidates
}

// Render concatenates the packed rules into a single markdown payload with
// separators, ready to drop into an assistant's context.
func (r *Result) Render() string {
	var sb strings.Builder
	for i, doc := range r.Rules {
		if i > 0 {
			sb.WriteString("\n---\n\n")
		}
		fmt.Fprintf(&sb, "<!-- %s -->\n", doc.Filename)
		sb.WriteString(strings.TrimRight(doc.Body, "\n"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Filenames returns the packed rule filenames in pack order.
func (r *Result) Filenames() []string {
	names := make([]string, len(r.Rules))
	for i, doc := range r.Rules {
		names[i] = doc.Filename
	}
	return names
}
