package server

import (
	"net/http"

	"github.com/odyssey/rulehub/internal/database"
)

// handleListRules handles GET /rules.
// Query params:
//   - tier=<core|extended|reference> — filter to one context tier
//   - corpus=<name> — filter to one corpus
//   - q=<text> — substring match on slug, title, or keywords
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	params := database.ListRulesParams{
		Tier:   r.URL.Query().Get("tier"),
		Corpus: r.URL.Query().Get("corpus"),
		Query:  r.URL.Query().Get("q"),
	}

	rules, err := s.db.ListRules(params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toRuleResponses(rules))
}

// handleGetRule handles GET /rules/{id}. The id can be a rule number, a slug
// (or unique prefix), or a short ID.
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	rule, err := s.db.ResolveRuleID(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toRuleResponse(rule))
}
