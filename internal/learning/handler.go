package learning

import (
	"net/http"

	"github.com/wolfman30/outreach-ai-platform/internal/http/respond"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// Handler serves the agent trainer endpoints.
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

// Patterns handles GET /ai/patterns.
func (h *Handler) Patterns(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Patterns(r.Context())
	if err != nil {
		h.logger.Error("failed to load patterns", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to load patterns")
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

// Learn handles POST /analytics/learn.
func (h *Handler) Learn(w http.ResponseWriter, r *http.Request) {
	var req LearnRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.service.Learn(r.Context(), req)
	if err != nil {
		if IsValidationError(err) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("learning run failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "learning run failed")
		return
	}
	respond.JSON(w, http.StatusOK, res)
}
