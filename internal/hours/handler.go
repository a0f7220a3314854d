package hours

import (
	"context"
	"net/http"
	"time"

	"github.com/wolfman30/outreach-ai-platform/internal/http/respond"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// Provider supplies the current BUSINESS_HOURS configuration.
type Provider interface {
	BusinessHours(ctx context.Context) (Config, error)
}

// Gate resolves the window on every call so edits to the settings bag apply
// without a restart.
type Gate struct {
	provider Provider
	logger   *logging.Logger
	now      func() time.Time
}

func NewGate(provider Provider, logger *logging.Logger) *Gate {
	if logger == nil {
		logger = logging.Default()
	}
	return &Gate{provider: provider, logger: logger, now: time.Now}
}

// Window returns the configured window, falling back to the defaults when
// the stored value is unusable.
func (g *Gate) Window(ctx context.Context) Window {
	if g == nil || g.provider == nil {
		return MustParse(DefaultConfig())
	}
	cfg, err := g.provider.BusinessHours(ctx)
	if err != nil {
		g.logger.Warn("business hours unavailable, using defaults", "error", err)
		return MustParse(DefaultConfig())
	}
	w, err := Parse(cfg)
	if err != nil {
		g.logger.Warn("invalid business hours, using defaults", "error", err)
		return MustParse(DefaultConfig())
	}
	return w
}

// Check returns ErrOutsideCallingHours when automated calls are not allowed now.
func (g *Gate) Check(ctx context.Context) error {
	return g.Window(ctx).Check(g.now())
}

// Now is the gate's clock.
func (g *Gate) Now() time.Time {
	return g.now()
}

// SetClock overrides the clock; tests only.
func (g *Gate) SetClock(now func() time.Time) {
	g.now = now
}

// CheckBusinessHours handles GET /check_business_hours.
func (g *Gate) CheckBusinessHours(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, g.Window(r.Context()).StatusAt(g.now()))
}
