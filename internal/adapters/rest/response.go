package rest

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
)

const (
	errCodeValidation        = "VALIDATION_ERROR"
	errCodeInsufficientFiles = "INSUFFICIENT_FINGERPRINTS"
	errCodeFolderCreation    = "FOLDER_CREATION_FAILED"
	errCodeNotFound          = "NOT_FOUND"
	errCodeInternal          = "INTERNAL_ERROR"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeErrorWithCode(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeServiceError maps core errors to status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeErrorWithCode(w, http.StatusBadRequest, err.Error(), errCodeValidation)
	case errors.Is(err, domain.ErrInsufficientFingerprints):
		writeErrorWithCode(w, http.StatusUnprocessableEntity, err.Error(), errCodeInsufficientFiles)
	case errors.Is(err, domain.ErrFolderCreation):
		writeErrorWithCode(w, http.StatusBadGateway, err.Error(), errCodeFolderCreation)
	case errors.Is(err, domain.ErrNotFound):
		writeErrorWithCode(w, http.StatusNotFound, err.Error(), errCodeNotFound)
	default:
		h.logger.Printf("ERROR rest: %v", err)
		writeErrorWithCode(w, http.StatusInternalServerError, err.Error(), errCodeInternal)
	}
}

func isJSONContentType(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}
