package followups

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/outreach-ai-platform/internal/hours"
	"github.com/wolfman30/outreach-ai-platform/internal/http/respond"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// Handler serves the follow-up endpoints.
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

// List handles GET /follow_ups?status=&lead_id=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Status: r.URL.Query().Get("status")}
	if v := r.URL.Query().Get("lead_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid lead_id")
			return
		}
		filter.LeadID = id
	}
	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, "list follow-ups", err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// Create handles POST /follow_ups.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	f, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, "create follow-up", err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]int64{"id": f.ID})
}

// Update handles PATCH /follow_ups/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, http.StatusBadRequest, "invalid follow-up id")
		return
	}
	var req UpdateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := h.service.Update(r.Context(), id, &req); err != nil {
		h.writeError(w, "update follow-up", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// AutoFollowUpRequest is the body of POST /auto_follow_up.
type AutoFollowUpRequest struct {
	MaxCalls int `json:"max_calls"`
}

// AutoFollowUp handles POST /auto_follow_up.
func (h *Handler) AutoFollowUp(w http.ResponseWriter, r *http.Request) {
	req := AutoFollowUpRequest{MaxCalls: 10}
	if r.ContentLength != 0 {
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	res, err := h.service.Dispatch(r.Context(), req.MaxCalls)
	if err != nil {
		h.writeError(w, "auto follow-up", err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, hours.ErrOutsideCallingHours):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrLeadNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	case IsValidationError(err):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("follow-up request failed", "op", op, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}
