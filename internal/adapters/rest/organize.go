package rest

import (
	"encoding/json"
	"net/http"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
	"github.com/ewilliams-labs/takesort/internal/core/services"
)

// organizeRequest carries a reviewed cluster back from the client.
type organizeRequest struct {
	Files           []domain.AudioFingerprint `json:"files"`
	NameHint        string                    `json:"nameHint"`
	CategoryHint    domain.Category           `json:"categoryHint"`
	Confidence      float64                   `json:"confidence"`
	DestinationPath string                    `json:"destinationPath"`
	DryRun          bool                      `json:"dryRun"`
}

// OrganizeCluster handles POST /clusters/{id}/organize
func (h *Handler) OrganizeCluster(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	clusterID := r.PathValue("id")
	if clusterID == "" {
		writeErrorWithCode(w, http.StatusBadRequest, "cluster id is required", errCodeValidation)
		return
	}

	var req organizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, "Invalid request body", errCodeValidation)
		return
	}
	if req.CategoryHint != "" && !req.CategoryHint.Valid() {
		writeErrorWithCode(w, http.StatusBadRequest, "unknown categoryHint "+string(req.CategoryHint), errCodeValidation)
		return
	}

	result, err := h.svc.OrganizeCluster(r.Context(), services.OrganizeRequest{
		ClusterID:       clusterID,
		Files:           req.Files,
		NameHint:        req.NameHint,
		CategoryHint:    req.CategoryHint,
		ConfidenceHint:  req.Confidence,
		DestinationPath: req.DestinationPath,
		DryRun:          req.DryRun,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
