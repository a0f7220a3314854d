package bootstrap

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/outreach-ai-platform/internal/appointments"
	"github.com/wolfman30/outreach-ai-platform/internal/calllogs"
	"github.com/wolfman30/outreach-ai-platform/internal/events"
	"github.com/wolfman30/outreach-ai-platform/internal/followups"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/internal/learning"
	"github.com/wolfman30/outreach-ai-platform/internal/settings"
)

// Stores groups the persistence layer shared by every service.
type Stores struct {
	Leads        leads.Repository
	CallLogs     calllogs.Store
	Appointments appointments.Store
	FollowUps    followups.Store
	Voices       settings.VoiceStore
	Patterns     learning.Store
	Processed    events.Deduper
	Memory       bool
}

// BuildStores returns Postgres-backed stores, or in-memory ones when pool is nil.
func BuildStores(pool *pgxpool.Pool) Stores {
	if pool == nil {
		return Stores{
			Leads:        leads.NewInMemoryRepository(),
			CallLogs:     calllogs.NewMemoryStore(),
			Appointments: appointments.NewMemoryStore(),
			FollowUps:    followups.NewMemoryStore(),
			Voices:       settings.NewMemoryVoiceStore(),
			Patterns:     learning.NewMemoryStore(),
			Processed:    events.NewMemoryStore(),
			Memory:       true,
		}
	}
	return Stores{
		Leads:        leads.NewPostgresRepository(pool),
		CallLogs:     calllogs.NewPostgresStore(pool),
		Appointments: appointments.NewPostgresStore(pool),
		FollowUps:    followups.NewPostgresStore(pool),
		Voices:       settings.NewPostgresVoiceStore(pool),
		Patterns:     learning.NewPostgresStore(pool),
		Processed:    events.NewProcessedStore(pool),
	}
}
