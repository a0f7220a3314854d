package analytics

import (
	"net/http"
	"strconv"

	"github.com/wolfman30/outreach-ai-platform/internal/http/respond"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Dashboard handles GET /analytics/dashboard?days=N.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			respond.Error(w, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		days = v
	}
	d, err := h.service.Dashboard(r.Context(), days)
	if err != nil {
		h.logger.Error("failed to build dashboard", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}
	respond.JSON(w, http.StatusOK, d)
}
