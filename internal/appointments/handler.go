package appointments

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/outreach-ai-platform/internal/http/respond"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// Handler serves the appointment endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates an appointments handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// List handles GET /appointments?lead_id=&date=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var filter ListFilter
	if v := r.URL.Query().Get("lead_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid lead_id")
			return
		}
		filter.LeadID = id
	}
	filter.Date = r.URL.Query().Get("date")

	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, "list appointments", err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// Create handles POST /appointments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	appt, err := h.service.Book(r.Context(), &req)
	if err != nil {
		h.writeError(w, "create appointment", err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]int64{"id": appt.ID})
}

// Update handles PATCH /appointments/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, http.StatusBadRequest, "invalid appointment id")
		return
	}
	var req UpdateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := h.service.Reschedule(r.Context(), id, &req); err != nil {
		h.writeError(w, "update appointment", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Availability handles GET /availability?date=YYYY-MM-DD.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	slots, err := h.service.Availability(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, "availability", err)
		return
	}
	respond.JSON(w, http.StatusOK, slots)
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrLeadNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	case IsValidationError(err):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("appointment request failed", "op", op, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}
