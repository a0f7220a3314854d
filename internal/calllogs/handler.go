package calllogs

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/outreach-ai-platform/internal/http/respond"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// LeadGetter resolves the lead a log belongs to.
type LeadGetter interface {
	GetByID(ctx context.Context, id int64) (*leads.Lead, error)
}

// Handler serves the call log endpoints.
type Handler struct {
	store  Store
	leads  LeadGetter
	logger *logging.Logger
	now    func() time.Time
	loc    *time.Location
}

func NewHandler(store Store, leadRepo LeadGetter, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, leads: leadRepo, logger: logger, now: time.Now, loc: time.UTC}
}

// WithLocation buckets callsByDay in loc instead of UTC.
func (h *Handler) WithLocation(loc *time.Location) *Handler {
	if loc != nil {
		h.loc = loc
	}
	return h
}

// Create handles POST /call_logs.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.leads.GetByID(r.Context(), req.LeadID); err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			respond.Error(w, http.StatusNotFound, ErrLeadNotFound.Error())
			return
		}
		h.logger.Error("call log lead lookup failed", "lead_id", req.LeadID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	log, err := h.store.Create(r.Context(), &CallLog{
		LeadID:     req.LeadID,
		CallStatus: req.CallStatus,
		Transcript: req.Transcript,
		Duration:   req.Duration,
		CallSID:    req.CallSID,
	})
	if err != nil {
		h.logger.Error("failed to create call log", "lead_id", req.LeadID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to create call log")
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]int64{"id": log.ID})
}

// ListByLead handles GET /call_logs/{lead_id}.
func (h *Handler) ListByLead(w http.ResponseWriter, r *http.Request) {
	leadID, err := strconv.ParseInt(chi.URLParam(r, "lead_id"), 10, 64)
	if err != nil || leadID <= 0 {
		respond.Error(w, http.StatusBadRequest, "invalid lead id")
		return
	}
	logs, err := h.store.ListByLead(r.Context(), leadID)
	if err != nil {
		h.logger.Error("failed to list call logs", "lead_id", leadID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to list call logs")
		return
	}
	respond.JSON(w, http.StatusOK, logs)
}

// Summary handles GET /call_logs/summary?days=N. Without days every log counts.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if v := r.URL.Query().Get("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			respond.Error(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		since = h.now().AddDate(0, 0, -days)
	}
	logs, err := h.store.ListSince(r.Context(), since)
	if err != nil {
		h.logger.Error("failed to summarize call logs", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to summarize call logs")
		return
	}
	respond.JSON(w, http.StatusOK, Summarize(logs, h.loc))
}
