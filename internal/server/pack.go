package server

import (
	"encoding/json"
	"net/http"

	"github.com/odyssey/rulehub/internal/catalog"
	"github.com/odyssey/rulehub/internal/config"
	"github.com/odyssey/rulehub/internal/pack"
)

// handlePack handles POST /pack: assemble a context pack from the working
// rules directory for the requested keywords and budget.
func (s *Server) handlePack(w http.ResponseWriter, r *http.Request) {
	var req PackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cfg, _, err := config.ReadRulehubConfig(s.rulehubDirpath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	cat, err := catalog.Load(config.GetRulesDirpath(s.rulehubDirpath))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := pack.Build(cat, pack.Request{
		Keywords: req.Keywords,
		Budget:   req.Budget,
	}, cfg.PackBuildConfig())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := PackResponse{
		Filenames:   result.Filenames(),
		TotalTokens: result.TotalTokens,
		Budget:      result.Budget,
		Skipped:     result.Skipped,
	}
	if req.IncludeContent {
		resp.Content = result.Render()
	}

	writeJSON(w, http.StatusOK, resp)
}
