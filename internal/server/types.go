package server

import (
	"github.com/odyssey/rulehub/internal/database"
	"github.com/odyssey/rulehub/internal/lint"
	"github.com/odyssey/rulehub/internal/pack"
)

// HealthResponse is the JSON body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	RuleCount int    `json:"rule_count"`
}

// RuleResponse is the JSON representation of an indexed rule.
type RuleResponse struct {
	ID            string   `json:"id"`
	ShortID       string   `json:"short_id"`
	Path          string   `json:"path"`
	Corpus        string   `json:"corpus"`
	Number        string   `json:"number"`
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	SchemaVersion int      `json:"schema_version"`
	RuleVersion   string   `json:"rule_version"`
	Tier          string   `json:"tier"`
	TokenEstimate int      `json:"token_estimate"`
	TokenBudget   int      `json:"token_budget"`
	Keywords      []string `json:"keywords"`
	Depends       []string `json:"depends"`
	ContentHash   string   `json:"content_hash"`
	LastUpdated   string   `json:"last_updated"`
}

func toRuleResponse(r *database.Rule) RuleResponse {
	return RuleResponse{
		ID:            r.ID,
		ShortID:       r.ShortID,
		Path:          r.Path,
		Corpus:        r.Corpus,
		Number:        r.Number,
		Slug:          r.Slug,
		Title:         r.Title,
		SchemaVersion: r.SchemaVersion,
		RuleVersion:   r.RuleVersion,
		Tier:          r.Tier,
		TokenEstimate: r.TokenEstimate,
		TokenBudget:   r.TokenBudget,
		Keywords:      r.Keywords,
		Depends:       r.Depends,
		ContentHash:   r.ContentHash,
		LastUpdated:   r.LastUpdated,
	}
}

func toRuleResponses(rules []*database.Rule) []RuleResponse {
	result := make([]RuleResponse, len(rules))
	for i, r := range rules {
		result[i] = toRuleResponse(r)
	}
	return result
}

// PackRequest is the JSON body of POST /pack.
type PackRequest struct {
	Keywords       []string `json:"keywords"`
	Budget         int      `json:"budget,omitempty"`
	IncludeContent bool     `json:"include_content,omitempty"`
}

// PackResponse is the JSON body returned by POST /pack.
type PackResponse struct {
	Filenames   []string           `json:"filenames"`
	TotalTokens int                `json:"total_tokens"`
	Budget      int                `json:"budget"`
	Skipped     []pack.SkippedRule `json:"skipped"`
	Content     string             `json:"content,omitempty"`
}

// LintRequest is the JSON body of POST /lint. An empty body lints the working
// rules directory with the configured options.
type LintRequest struct {
	DisabledChecks []string `json:"disabled_checks,omitempty"`
}

// LintResponse is the JSON body returned by POST /lint.
type LintResponse struct {
	Findings []lint.Finding `json:"findings"`
	Errors   int            `json:"errors"`
	Warnings int            `json:"warnings"`
}
