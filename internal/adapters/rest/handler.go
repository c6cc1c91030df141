package rest

import (
	"log"
	"net/http"

	"github.com/ewilliams-labs/takesort/internal/core/services"
)

// Handler manages the HTTP interface for the service.
type Handler struct {
	svc    *services.Orchestrator
	logger *log.Logger
	router *http.ServeMux
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(svc *services.Orchestrator, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	h := &Handler{
		svc:    svc,
		logger: logger,
		router: http.NewServeMux(),
	}

	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.router.HandleFunc("GET /health", h.HealthCheck)
	h.router.HandleFunc("POST /analyze", h.Analyze)
	h.router.HandleFunc("POST /clusters/{id}/organize", h.OrganizeCluster)
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "takesort is live"})
}
