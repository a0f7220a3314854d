package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/outreach-ai-platform/internal/analytics"
	"github.com/wolfman30/outreach-ai-platform/internal/appointments"
	"github.com/wolfman30/outreach-ai-platform/internal/calllogs"
	"github.com/wolfman30/outreach-ai-platform/internal/crm/zoho"
	"github.com/wolfman30/outreach-ai-platform/internal/dialer"
	"github.com/wolfman30/outreach-ai-platform/internal/followups"
	"github.com/wolfman30/outreach-ai-platform/internal/history"
	"github.com/wolfman30/outreach-ai-platform/internal/hours"
	httpmiddleware "github.com/wolfman30/outreach-ai-platform/internal/http/middleware"
	"github.com/wolfman30/outreach-ai-platform/internal/http/respond"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/internal/learning"
	"github.com/wolfman30/outreach-ai-platform/internal/livecalls"
	"github.com/wolfman30/outreach-ai-platform/internal/settings"
	"github.com/wolfman30/outreach-ai-platform/internal/sourcing"
	"github.com/wolfman30/outreach-ai-platform/internal/voice"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// Config holds router configuration. Handlers left nil are not mounted.
type Config struct {
	Logger       *logging.Logger
	Leads        *leads.Handler
	CallLogs     *calllogs.Handler
	History      *history.Handler
	Hours        *hours.Gate
	Dialer       *dialer.Handler
	FollowUps    *followups.Handler
	Appointments *appointments.Handler
	Settings     *settings.Handler
	Learning     *learning.Handler
	Analytics    *analytics.Handler
	Sourcing     *sourcing.Handler
	Zoho         *zoho.Syncer
	Voice        *voice.Handler
	LiveCalls    *livecalls.Hub

	MetricsHandler  http.Handler
	RequestObserver httpmiddleware.RequestObserver

	CORSAllowedOrigins []string
	JWTSecret          string
	// APIKey returns the currently configured static API key, if any.
	APIKey func(ctx context.Context) string
	// CallRateLimit bounds requests per second to the endpoints that dial.
	CallRateLimit float64
	CallRateBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(httpmiddleware.Metrics(cfg.RequestObserver))

	// Public endpoints (health, metrics, provider webhooks)
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			respond.JSON(w, http.StatusOK, map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		// Twilio authenticates these with its request signature.
		if cfg.Voice != nil {
			public.Route("/webhook", func(wh chi.Router) {
				wh.Post("/voice", cfg.Voice.Voice)
				wh.Post("/response", cfg.Voice.Response)
				wh.Post("/status", cfg.Voice.Status)
			})
		}
		// Browsers cannot set headers on a websocket upgrade; the hub checks Origin.
		if cfg.LiveCalls != nil {
			public.Handle("/api/ws/calls", cfg.LiveCalls)
		}
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Compress(5))
		api.Use(httpmiddleware.APIAuth(httpmiddleware.AuthConfig{JWTSecret: cfg.JWTSecret, APIKey: cfg.APIKey}))

		dial := func(h http.HandlerFunc) http.Handler { return h }
		if cfg.CallRateLimit > 0 {
			limit := httpmiddleware.RateLimit(cfg.CallRateLimit, cfg.CallRateBurst)
			dial = func(h http.HandlerFunc) http.Handler { return limit(h) }
		}

		if h := cfg.Leads; h != nil {
			api.Get("/leads", h.ListLeads)
			api.Post("/leads", h.CreateLead)
			api.Delete("/leads", h.BulkDeleteLeads)
			api.Get("/leads/export", h.ExportLeads)
			api.Patch("/leads/{id}", h.UpdateLead)
			api.Delete("/leads/{id}", h.DeleteLead)
			api.Post("/qualify/{id}", h.QualifyLead)
		}
		if h := cfg.History; h != nil {
			api.Get("/lead_history/{id}", h.Get)
		}
		if h := cfg.Sourcing; h != nil {
			api.Post("/scrape", h.Scrape)
		}
		if h := cfg.Dialer; h != nil {
			api.Method(http.MethodPost, "/call", dial(h.Call))
			api.Method(http.MethodPost, "/auto_dial", dial(h.AutoDial))
		}
		if g := cfg.Hours; g != nil {
			api.Get("/check_business_hours", g.CheckBusinessHours)
		}
		if h := cfg.CallLogs; h != nil {
			api.Post("/call_logs", h.Create)
			api.Get("/call_logs/summary", h.Summary)
			api.Get("/call_logs/{lead_id}", h.ListByLead)
		}
		if h := cfg.FollowUps; h != nil {
			api.Get("/follow_ups", h.List)
			api.Post("/follow_ups", h.Create)
			api.Patch("/follow_ups/{id}", h.Update)
			api.Method(http.MethodPost, "/auto_follow_up", dial(h.AutoFollowUp))
		}
		if h := cfg.Appointments; h != nil {
			api.Get("/appointments", h.List)
			api.Post("/appointments", h.Create)
			api.Patch("/appointments/{id}", h.Update)
			api.Get("/availability", h.Availability)
		}
		if h := cfg.Settings; h != nil {
			api.Get("/config", h.GetConfig)
			api.Post("/config", h.PostConfig)
			api.Get("/settings", h.GetConfig)
			api.Post("/settings/update", h.UpdateSettings)
			api.Get("/voice_check", h.VoiceCheck)
			api.Get("/voices", h.ListVoices)
			api.Get("/voice/settings", h.ListVoiceSettings)
			api.Post("/voice/settings", h.SaveVoiceSettings)
		}
		if h := cfg.Learning; h != nil {
			api.Get("/ai/patterns", h.Patterns)
			api.Post("/analytics/learn", h.Learn)
		}
		if h := cfg.Analytics; h != nil {
			api.Get("/analytics/dashboard", h.Dashboard)
		}
		if s := cfg.Zoho; s != nil {
			api.Post("/zoho/sync", s.HandleSync)
		}
	})

	return r
}
