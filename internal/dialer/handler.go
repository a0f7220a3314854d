package dialer

import (
	"errors"
	"net/http"

	"github.com/wolfman30/outreach-ai-platform/internal/hours"
	"github.com/wolfman30/outreach-ai-platform/internal/http/respond"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// Handler serves POST /call and POST /auto_dial.
type Handler struct {
	service  *Service
	enqueuer *Enqueuer
	logger   *logging.Logger
}

func NewHandler(service *Service, enqueuer *Enqueuer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, enqueuer: enqueuer, logger: logger}
}

// Call handles POST /call.
func (h *Handler) Call(w http.ResponseWriter, r *http.Request) {
	var req CallRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.service.Call(r.Context(), req)
	if err != nil {
		h.writeError(w, "call", err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

// AutoDialRequest is the body of POST /auto_dial.
type AutoDialRequest struct {
	LeadIDs []int64 `json:"lead_ids"`
}

// AutoDial handles POST /auto_dial.
func (h *Handler) AutoDial(w http.ResponseWriter, r *http.Request) {
	var req AutoDialRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.enqueuer.AutoDial(r.Context(), req.LeadIDs)
	if err != nil {
		h.writeError(w, "auto dial", err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, hours.ErrOutsideCallingHours):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrLeadNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	case IsValidationError(err):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("dialer request failed", "op", op, "error", err)
		respond.Error(w, http.StatusInternalServerError, err.Error())
	}
}
