package sourcing

import (
	"net/http"

	"github.com/wolfman30/outreach-ai-platform/internal/http/respond"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// Handler serves POST /scrape.
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

func (h *Handler) Scrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.service.Scrape(r.Context(), req)
	if err != nil {
		h.logger.Error("scrape failed", "error", err)
		respond.Error(w, http.StatusBadGateway, "failed to fetch business listings")
		return
	}
	respond.JSON(w, http.StatusOK, res)
}
