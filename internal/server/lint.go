package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/odyssey/rulehub/internal/catalog"
	"github.com/odyssey/rulehub/internal/config"
	"github.com/odyssey/rulehub/internal/lint"
)

// handleLint handles POST /lint: run the configured checks over the working
// rules directory. Disabled checks from the request add to the configured set.
func (s *Server) handleLint(w http.ResponseWriter, r *http.Request) {
	var req LintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cfg, _, err := config.ReadRulehubConfig(s.rulehubDirpath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts := cfg.LintOptions()
	for _, check := range req.DisabledChecks {
		if !lint.IsKnownCheck(check) {
			writeError(w, http.StatusBadRequest, "unknown lint check: "+check)
			return
		}
		opts.DisabledChecks = append(opts.DisabledChecks, check)
	}

	cat, err := catalog.Load(config.GetRulesDirpath(s.rulehubDirpath))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	report := lint.LintCatalog(cat, opts)
	errorCount, warningCount := report.Counts()

	findings := report.Findings
	if findings == nil {
		findings = []lint.Finding{}
	}

	writeJSON(w, http.StatusOK, LintResponse{
		Findings: findings,
		Errors:   errorCount,
		Warnings: warningCount,
	})
}
