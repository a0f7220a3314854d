package settings

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/wolfman30/outreach-ai-platform/internal/hours"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// Service layers defaults, environment and stored overrides.
type Service struct {
	store  Store
	env    Bag
	logger *logging.Logger

	// serializes read-modify-write of the stored document
	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithEnv replaces the environment layer; tests use it to avoid os.Environ.
func WithEnv(env Bag) Option {
	return func(s *Service) { s.env = env.Clone() }
}

func NewService(store Store, logger *logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	s := &Service{
		store:  store,
		env:    FromEnv(os.LookupEnv),
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the merged bag: defaults, then environment, then stored values.
func (s *Service) Get(ctx context.Context) (Bag, error) {
	stored, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	bag := Merge(Defaults(), s.env)
	return Merge(bag, stored), nil
}

// Snapshot returns a typed view of the merged bag.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	bag, err := s.Get(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(bag), nil
}

// Update merges patch into the stored overrides and returns the new merged bag.
func (s *Service) Update(ctx context.Context, patch Bag) (Bag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	stored = Merge(stored, patch)
	cfg, err := stored.BusinessHours()
	if err == nil {
		_, err = hours.Parse(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBusinessHours, err)
	}
	if err := s.store.Save(ctx, stored); err != nil {
		return nil, err
	}
	s.logger.Info("settings updated", "keys", patch.Keys())
	return s.Get(ctx)
}

// BusinessHours satisfies hours.Provider.
func (s *Service) BusinessHours(ctx context.Context) (hours.Config, error) {
	bag, err := s.Get(ctx)
	if err != nil {
		return hours.Config{}, err
	}
	return bag.BusinessHours()
}

// LogEffective writes the merged configuration with secrets masked.
func (s *Service) LogEffective(ctx context.Context) {
	bag, err := s.Get(ctx)
	if err != nil {
		s.logger.Warn("settings unavailable", "error", err)
		return
	}
	masked := bag.Masked()
	args := make([]any, 0, 2*len(masked))
	for _, k := range masked.Keys() {
		args = append(args, k, masked[k])
	}
	s.logger.Info("effective settings", args...)
}
