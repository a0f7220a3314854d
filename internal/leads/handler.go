package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/outreach-ai-platform/internal/export"
	"github.com/wolfman30/outreach-ai-platform/internal/http/respond"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// DependentPurger removes rows owned by deleted leads (call logs, follow-ups...).
type DependentPurger interface {
	DeleteByLead(ctx context.Context, leadIDs []int64) error
}

// QualificationSyncer pushes a qualification decision to the CRM.
type QualificationSyncer interface {
	SyncQualification(ctx context.Context, lead *Lead) error
}

// ChangeNotifier is told about every lead mutation.
type ChangeNotifier interface {
	LeadChanged(lead *Lead)
}

// Handler handles HTTP requests for leads
type Handler struct {
	repo     Repository
	purgers  []DependentPurger
	crm      QualificationSyncer
	notifier ChangeNotifier
	logger   *logging.Logger
	now      func() time.Time
}

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

// WithDependentPurgers registers stores that must forget deleted leads. Only
// needed for stores without ON DELETE CASCADE (the in-memory ones).
func WithDependentPurgers(purgers ...DependentPurger) HandlerOption {
	return func(h *Handler) {
		for _, p := range purgers {
			if p != nil {
				h.purgers = append(h.purgers, p)
			}
		}
	}
}

// WithQualificationSyncer enables CRM updates after POST /qualify.
func WithQualificationSyncer(s QualificationSyncer) HandlerOption {
	return func(h *Handler) { h.crm = s }
}

// WithChangeNotifier publishes lead changes (live dashboard).
func WithChangeNotifier(n ChangeNotifier) HandlerOption {
	return func(h *Handler) { h.notifier = n }
}

// NewHandler creates a new leads handler
func NewHandler(repo Repository, logger *logging.Logger, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	h := &Handler{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ListLeads handles GET /leads. Without a page parameter the response is a
// bare array, matching what the dashboard expects.
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.repo.List(r.Context(), ListFilter{
		Status:        q.Get("status"),
		Qualification: q.Get("qualification"),
	})
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to list leads")
		return
	}

	query := parseQuery(r)
	if q.Get("page") != "" {
		respond.JSON(w, http.StatusOK, Apply(list, query))
		return
	}

	list = Filter(list, query)
	Sort(list, query.Sort)
	if list == nil {
		list = []*Lead{}
	}
	respond.JSON(w, http.StatusOK, list)
}

func parseQuery(r *http.Request) Query {
	q := r.URL.Query()
	query := Query{
		Search:   q.Get("q"),
		Industry: q.Get("industry"),
		Sort: SortState{
			Field: q.Get("sort"),
			Desc:  strings.EqualFold(q.Get("order"), "desc"),
		},
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		query.Page = v
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil && v > 0 && v <= 500 {
		query.PageSize = v
	}
	return query
}

// CreateLead handles POST /leads
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	var req CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lead, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, "create lead", err)
		return
	}

	h.logger.Info("lead created", "lead_id", lead.ID, "name", lead.Name)
	h.notify(lead)
	respond.JSON(w, http.StatusCreated, map[string]int64{"id": lead.ID})
}

// UpdateLead handles PATCH /leads/{id}
func (h *Handler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lead, err := h.repo.Update(r.Context(), id, &req)
	if err != nil {
		h.writeError(w, "update lead", err)
		return
	}
	h.notify(lead)
	respond.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DeleteLead handles DELETE /leads/{id}
func (h *Handler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n, err := h.deleteLeads(r.Context(), []int64{id})
	if err != nil {
		h.writeError(w, "delete lead", err)
		return
	}
	if n == 0 {
		respond.Error(w, http.StatusNotFound, ErrLeadNotFound.Error())
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// BulkDeleteRequest is the body of DELETE /leads.
type BulkDeleteRequest struct {
	LeadIDs []int64 `json:"lead_ids"`
}

// BulkDeleteLeads handles DELETE /leads
func (h *Handler) BulkDeleteLeads(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.LeadIDs) == 0 {
		respond.Error(w, http.StatusBadRequest, ErrNoLeadIDs.Error())
		return
	}
	n, err := h.deleteLeads(r.Context(), req.LeadIDs)
	if err != nil {
		h.writeError(w, "bulk delete leads", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// deleteLeads removes the leads first so a failed delete never strips a
// surviving lead of its history. Dependents are purged afterwards; a purge
// failure leaves unreachable rows behind and is only logged.
func (h *Handler) deleteLeads(ctx context.Context, ids []int64) (int64, error) {
	n, err := h.repo.Delete(ctx, ids)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		for _, p := range h.purgers {
			if err := p.DeleteByLead(ctx, ids); err != nil {
				h.logger.Warn("failed to purge rows of deleted leads", "lead_ids", ids, "error", err)
			}
		}
	}
	h.logger.Info("leads deleted", "requested", len(ids), "deleted", n)
	return n, nil
}

// QualifyLead handles POST /qualify/{id}
func (h *Handler) QualifyLead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req QualifyRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lead, err := h.repo.Update(r.Context(), id, req.Update())
	if err != nil {
		h.writeError(w, "qualify lead", err)
		return
	}
	h.notify(lead)

	if h.crm != nil && lead.ZohoID != "" {
		if err := h.crm.SyncQualification(r.Context(), lead); err != nil {
			h.logger.Warn("crm qualification sync failed", "lead_id", lead.ID, "error", err)
		}
	}

	respond.JSON(w, http.StatusOK, map[string]string{
		"status":               "updated",
		"qualification_status": lead.QualificationStatus,
	})
}

// ExportColumns are the columns of the lead spreadsheet export.
var ExportColumns = []export.Column[*Lead]{
	{Title: "ID", Value: func(l *Lead) any { return l.ID }},
	{Title: "Name", Value: func(l *Lead) any { return l.Name }},
	{Title: "Phone", Value: func(l *Lead) any { return l.Phone }},
	{Title: "Industry", Value: func(l *Lead) any { return l.IndustryLabel() }},
	{Title: "Address", Value: func(l *Lead) any { return l.Address }},
	{Title: "City", Value: func(l *Lead) any { return l.City }},
	{Title: "State", Value: func(l *Lead) any { return l.State }},
	{Title: "Website", Value: func(l *Lead) any { return l.Website }},
	{Title: "Employees", Value: func(l *Lead) any { return l.EmployeeCount }},
	{Title: "Uses Mobile Devices", Value: func(l *Lead) any { return l.UsesMobileDevices }},
	{Title: "Status", Value: func(l *Lead) any { return l.Status }},
	{Title: "Qualification", Value: func(l *Lead) any { return l.QualificationStatus }},
	{Title: "Appointment Date", Value: func(l *Lead) any { return l.AppointmentDate }},
	{Title: "Appointment Time", Value: func(l *Lead) any { return l.AppointmentTime }},
	{Title: "Notes", Value: func(l *Lead) any { return l.Notes }},
}

// ExportLeads handles GET /leads/export?format=csv|xlsx, honouring the same
// filters and sort as ListLeads.
func (h *Handler) ExportLeads(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		respond.Error(w, http.StatusBadRequest, ErrUnsupportedExportType.Error())
		return
	}

	list, err := h.repo.List(r.Context(), ListFilter{
		Status:        r.URL.Query().Get("status"),
		Qualification: r.URL.Query().Get("qualification"),
	})
	if err != nil {
		h.logger.Error("failed to list leads for export", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to export leads")
		return
	}
	query := parseQuery(r)
	list = Filter(list, query)
	Sort(list, query.Sort)

	filename := export.Filename("leads", format, h.now())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = w.Write([]byte(export.CSV(list, ExportColumns)))
		return
	}

	var buf bytes.Buffer
	if err := export.XLSX(&buf, "Leads", list, ExportColumns); err != nil {
		h.logger.Error("failed to build workbook", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to export leads")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) notify(lead *Lead) {
	if h.notifier != nil && lead != nil {
		h.notifier.LeadChanged(lead)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrLeadNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	case IsValidationError(err):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("lead request failed", "op", op, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, http.StatusBadRequest, "invalid lead id")
		return 0, false
	}
	return id, true
}
