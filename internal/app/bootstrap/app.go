package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/outreach-ai-platform/internal/analytics"
	"github.com/wolfman30/outreach-ai-platform/internal/api/router"
	"github.com/wolfman30/outreach-ai-platform/internal/appointments"
	"github.com/wolfman30/outreach-ai-platform/internal/archive"
	"github.com/wolfman30/outreach-ai-platform/internal/calllogs"
	appconfig "github.com/wolfman30/outreach-ai-platform/internal/config"
	"github.com/wolfman30/outreach-ai-platform/internal/crm/zoho"
	"github.com/wolfman30/outreach-ai-platform/internal/dialer"
	"github.com/wolfman30/outreach-ai-platform/internal/elevenlabs"
	"github.com/wolfman30/outreach-ai-platform/internal/events"
	"github.com/wolfman30/outreach-ai-platform/internal/followups"
	"github.com/wolfman30/outreach-ai-platform/internal/history"
	"github.com/wolfman30/outreach-ai-platform/internal/hours"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/internal/learning"
	"github.com/wolfman30/outreach-ai-platform/internal/livecalls"
	"github.com/wolfman30/outreach-ai-platform/internal/llm"
	"github.com/wolfman30/outreach-ai-platform/internal/notify"
	"github.com/wolfman30/outreach-ai-platform/internal/observability/metrics"
	"github.com/wolfman30/outreach-ai-platform/internal/settings"
	"github.com/wolfman30/outreach-ai-platform/internal/sourcing"
	"github.com/wolfman30/outreach-ai-platform/internal/twilio"
	"github.com/wolfman30/outreach-ai-platform/internal/voice"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// Deps carries externally created clients. Nil fields fall back to the
// in-process implementations.
type Deps struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
	// AWS is nil when no AWS config could be loaded; the dial queue then
	// runs in memory and SES is unavailable.
	AWS *aws.Config
	// Registry receives the outreach collectors. A fresh registry is used when nil.
	Registry *prometheus.Registry
}

// App is the fully wired outreach platform shared by the binaries.
type App struct {
	Config *appconfig.Config
	Logger *logging.Logger

	Stores   Stores
	Registry *prometheus.Registry
	Metrics  *metrics.OutreachMetrics

	Settings     *settings.Service
	Gate         *hours.Gate
	Queue        dialer.Queue
	MemoryQueue  *dialer.MemoryQueue
	Dialer       *dialer.Service
	Enqueuer     *dialer.Enqueuer
	FollowUps    *followups.Service
	Appointments *appointments.Service
	Learning     *learning.Service
	Analytics    *analytics.Service
	History      *history.Service
	Sourcing     *sourcing.Service
	Zoho         *zoho.Syncer
	Hub          *livecalls.Hub
	Agents       *voice.AgentSelector
	// Archiver is nil unless CALL_ARCHIVE_BUCKET is set and AWS is configured.
	Archiver *archive.Archiver
}

// Build wires every service from cfg.
func Build(ctx context.Context, cfg *appconfig.Config, deps Deps, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	a := &App{Config: cfg, Logger: logger}

	a.Registry = deps.Registry
	if a.Registry == nil {
		a.Registry = prometheus.NewRegistry()
		a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	a.Metrics = metrics.NewOutreachMetrics(a.Registry)

	a.Stores = BuildStores(deps.Pool)
	if a.Stores.Memory {
		logger.Warn("no database configured; using in-memory stores")
		if deps.Redis != nil {
			a.Stores.Processed = events.NewRedisStore(deps.Redis, "", events.DefaultRedisTTL)
		}
	}

	var settingsStore settings.Store
	if deps.Redis != nil {
		settingsStore = settings.NewRedisStore(deps.Redis, cfg.SettingsKey)
	} else {
		logger.Warn("redis not configured; settings edits will not survive a restart")
		settingsStore = settings.NewMemoryStore()
	}
	a.Settings = settings.NewService(settingsStore, logger)
	a.Gate = hours.NewGate(a.Settings, logger)
	a.Hub = livecalls.NewHub(cfg.CORSAllowedOrigins, logger)
	a.Archiver = buildArchiver(cfg, deps.AWS, logger)

	queue, err := buildQueue(cfg, deps.AWS, logger)
	if err != nil {
		return nil, err
	}
	a.Queue = queue
	if mq, ok := queue.(*dialer.MemoryQueue); ok {
		a.MemoryQueue = mq
	}

	zohoClient := zoho.NewClient(a.zohoCredentials,
		zoho.WithBaseURLs(cfg.ZohoAccountsURL, cfg.ZohoAPIURL),
		zoho.WithLogger(logger),
	)
	a.Zoho = zoho.NewSyncer(zohoClient, a.Stores.Leads, logger)

	a.Appointments = appointments.NewService(a.Stores.Appointments, a.Stores.Leads, logger,
		appointments.WithCalendar(zohoClient),
		appointments.WithBookingNotifier(buildNotifier(cfg, deps.AWS, logger)),
		appointments.WithAppointmentLink(a.appointmentLink),
		appointments.WithLeadChanges(a.Hub),
	)

	twilioClient := twilio.NewClient(twilio.WithBaseURL(cfg.TwilioAPIBaseURL), twilio.WithLogger(logger))
	a.Dialer = dialer.NewService(a.Stores.Leads, a.Settings, twilioClient, logger,
		dialer.WithHoursChecker(a.Gate),
		dialer.WithLeadChanges(a.Hub),
		dialer.WithMetrics(a.Metrics),
	)
	a.Enqueuer = dialer.NewEnqueuer(a.Stores.Leads, a.Queue, a.Gate, a.Metrics, logger)

	a.FollowUps = followups.NewService(a.Stores.FollowUps, a.Stores.Leads, logger,
		followups.WithCaller(a.placeFollowUpCall),
		followups.WithHoursChecker(a.Gate),
		followups.WithMetrics(a.Metrics),
	)

	factory := buildLLMFactory(cfg, deps.AWS, logger)
	a.Agents = voice.NewAgentSelector(factory, voice.NewScriptedAgent(), logger)
	a.Learning = learning.NewService(a.Stores.Patterns, a.Stores.Leads, a.Stores.CallLogs, logger,
		learning.WithModel(a.Settings, factory),
	)
	a.Analytics = analytics.NewService(a.Stores.Leads, a.Appointments, a.Stores.CallLogs, logger)
	a.History = history.NewService(a.Stores.Leads, a.Stores.CallLogs, a.Appointments, a.FollowUps, logger)

	sourcingOpts := []sourcing.Option{sourcing.WithCRM(a.Zoho)}
	if url := strings.TrimSpace(cfg.ScraperSidecarURL); url != "" {
		sidecar := sourcing.NewClient(url,
			sourcing.WithSecret(cfg.ScraperSidecarSecret),
			sourcing.WithLogger(logger),
		)
		sourcingOpts = append(sourcingOpts, sourcing.WithSearcher(sidecar))
	}
	a.Sourcing = sourcing.NewService(a.Stores.Leads, a.Settings, logger, sourcingOpts...)

	a.Settings.LogEffective(ctx)
	return a, nil
}

func buildQueue(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (dialer.Queue, error) {
	if cfg.UseMemoryQueue || awsCfg == nil || strings.TrimSpace(cfg.DialQueueURL) == "" {
		if !cfg.UseMemoryQueue {
			logger.Warn("dial queue url or aws config missing; using in-memory dial queue")
		}
		return dialer.NewMemoryQueue(256), nil
	}
	return dialer.NewSQSQueue(sqs.NewFromConfig(*awsCfg), cfg.DialQueueURL), nil
}

func buildLLMFactory(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) *llm.Factory {
	modelID := strings.TrimSpace(cfg.BedrockModelID)
	if modelID == "" {
		return llm.NewFactory(cfg.GeminiModelID)
	}
	if awsCfg == nil {
		logger.Warn("bedrock model configured without aws config; bedrock provider disabled", "model", modelID)
		return llm.NewFactory(cfg.GeminiModelID)
	}
	client, err := llm.NewBedrockClient(bedrockruntime.NewFromConfig(*awsCfg), modelID)
	if err != nil {
		logger.Warn("bedrock provider disabled", "error", err)
		return llm.NewFactory(cfg.GeminiModelID)
	}
	logger.Info("bedrock llm provider available", "model", modelID)
	return llm.NewFactory(cfg.GeminiModelID, llm.WithBedrock(client))
}

func buildArchiver(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) *archive.Archiver {
	bucket := strings.TrimSpace(cfg.ArchiveBucket)
	if bucket == "" {
		return nil
	}
	if awsCfg == nil {
		logger.Warn("CALL_ARCHIVE_BUCKET set but AWS is not configured; call archive disabled")
		return nil
	}
	client := s3.NewFromConfig(*awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.AWSEndpointOverride != ""
	})
	return archive.NewArchiver(archive.NewStore(client, bucket, logger), logger)
}

func buildNotifier(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) *notify.Service {
	var ses notify.SESAPI
	if awsCfg != nil && cfg.SESFromEmail != "" {
		ses = sesv2.NewFromConfig(*awsCfg)
	}
	sender := notify.NewEmailSender(notify.SenderConfig{
		Provider:       cfg.EmailProvider,
		SendGridAPIKey: cfg.SendGridAPIKey,
		SendGridFrom:   notify.From{Email: cfg.SendGridFromEmail, Name: cfg.SendGridFromName},
		SESFrom:        notify.From{Email: cfg.SESFromEmail, Name: cfg.SendGridFromName},
	}, ses, logger)
	return notify.NewService(sender, cfg.NotifyEmail, logger)
}

func (a *App) zohoCredentials(ctx context.Context) (zoho.Credentials, error) {
	snap, err := a.Settings.Snapshot(ctx)
	if err != nil {
		return zoho.Credentials{}, err
	}
	return zoho.Credentials{
		ClientID:     snap.ZohoClientID(),
		ClientSecret: snap.ZohoClientSecret(),
		RefreshToken: snap.ZohoRefreshToken(),
	}, nil
}

func (a *App) appointmentLink(ctx context.Context) string {
	snap, err := a.Settings.Snapshot(ctx)
	if err != nil {
		return settings.DefaultAppointmentLink
	}
	return snap.AppointmentLink()
}

// apiKey prefers the editable settings value over the boot-time one.
func (a *App) apiKey(ctx context.Context) string {
	if snap, err := a.Settings.Snapshot(ctx); err == nil {
		if key := snap.APIKey(); key != "" {
			return key
		}
	}
	return a.Config.APIKey
}

func (a *App) placeFollowUpCall(ctx context.Context, leadID int64) error {
	_, err := a.Dialer.Call(ctx, dialer.CallRequest{LeadID: leadID})
	return err
}

// RouterConfig assembles the HTTP handlers.
func (a *App) RouterConfig() *router.Config {
	logger := a.Logger
	cfg := a.Config

	leadOpts := []leads.HandlerOption{
		leads.WithQualificationSyncer(a.Zoho),
		leads.WithChangeNotifier(a.Hub),
	}
	if a.Stores.Memory {
		// Postgres cascades lead deletes to call logs, follow-ups and appointments.
		leadOpts = append(leadOpts, leads.WithDependentPurgers(a.Stores.CallLogs, a.Stores.FollowUps, a.Stores.Appointments))
	}
	leadsHandler := leads.NewHandler(a.Stores.Leads, logger, leadOpts...)
	voiceOpts := []voice.Option{
		voice.WithBooker(a.Appointments),
		voice.WithFollowUps(a.FollowUps),
		voice.WithPublisher(a.Hub),
		voice.WithDeduper(a.Stores.Processed),
		voice.WithMetrics(a.Metrics),
		voice.WithRetryAfter(cfg.RetryFollowUpAfter),
	}
	if a.Archiver != nil {
		voiceOpts = append(voiceOpts, voice.WithArchiver(a.Archiver))
	}
	voiceHandler := voice.NewHandler(a.Stores.Leads, a.Stores.CallLogs, a.Settings, a.Agents, logger, voiceOpts...)

	return &router.Config{
		Logger:       logger,
		Leads:        leadsHandler,
		CallLogs:     calllogs.NewHandler(a.Stores.CallLogs, a.Stores.Leads, logger),
		History:      history.NewHandler(a.History, logger),
		Hours:        a.Gate,
		Dialer:       dialer.NewHandler(a.Dialer, a.Enqueuer, logger),
		FollowUps:    followups.NewHandler(a.FollowUps, logger),
		Appointments: appointments.NewHandler(a.Appointments, logger),
		Settings: settings.NewHandler(a.Settings, a.Stores.Voices,
			elevenlabs.NewClient(cfg.ElevenLabsBaseURL, elevenlabs.WithLogger(logger)), logger),
		Learning:  learning.NewHandler(a.Learning, logger),
		Analytics: analytics.NewHandler(a.Analytics, logger),
		Sourcing:  sourcing.NewHandler(a.Sourcing, logger),
		Zoho:      a.Zoho,
		Voice:     voiceHandler,
		LiveCalls: a.Hub,

		MetricsHandler:  promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}),
		RequestObserver: a.Metrics,

		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		JWTSecret:          cfg.APIJWTSecret,
		APIKey:             a.apiKey,
		CallRateLimit:      cfg.CallRateLimit,
		CallRateBurst:      cfg.CallRateBurst,
	}
}

// Handler builds the HTTP handler.
func (a *App) Handler() http.Handler {
	return router.New(a.RouterConfig())
}

// DialWorker drains the dial queue.
func (a *App) DialWorker() *dialer.Worker {
	return dialer.NewWorker(a.Queue, a.Dialer, a.Metrics, a.Logger).
		WithWorkers(a.Config.WorkerCount).
		WithReceiveWait(time.Duration(a.Config.DialReceiveWait) * time.Second)
}

// FollowUpWorker dispatches due follow-ups on a ticker.
func (a *App) FollowUpWorker() *followups.Worker {
	return followups.NewWorker(a.FollowUps, a.Logger).
		WithInterval(a.Config.FollowUpInterval).
		WithBatchSize(a.Config.FollowUpBatchSize)
}

// Close releases the websocket hub.
func (a *App) Close() {
	if a.Hub != nil {
		a.Hub.Close()
	}
}
