package rest

import (
	"encoding/json"
	"net/http"

	"github.com/ewilliams-labs/takesort/internal/core/services"
)

type analyzeRequest struct {
	FolderPath string   `json:"folderPath"`
	Files      []string `json:"files"`
}

// Analyze handles POST /analyze
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, "Invalid request body", errCodeValidation)
		return
	}

	result, err := h.svc.Analyze(r.Context(), services.AnalyzeRequest{
		FolderPath: req.FolderPath,
		Files:      req.Files,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
