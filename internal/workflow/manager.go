package workflow

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fxpipe/internal/config"
	"fxpipe/internal/fx"
	"fxpipe/internal/logging"
	"fxpipe/internal/pipeline"
	"fxpipe/internal/services"
	"fxpipe/internal/services/ecb"
)

// Manager coordinates pipeline runs for one configuration.
type Manager struct {
	cfg      *config.Config
	base     *slog.Logger
	logger   *slog.Logger
	fetcher  pipeline.Fetcher
	clock    func() time.Time
	newRunID func() string
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithFetcher replaces the ECB client (used in tests).
func WithFetcher(fetcher pipeline.Fetcher) ManagerOption {
	return func(m *Manager) {
		m.fetcher = fetcher
	}
}

// WithClock overrides the wall clock used for staleness and metrics.
func WithClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithRunIDGenerator overrides how run identifiers are created.
func WithRunIDGenerator(gen func() string) ManagerOption {
	return func(m *Manager) {
		if gen != nil {
			m.newRunID = gen
		}
	}
}

// NewManager constructs a workflow manager fetching from the configured ECB endpoint.
func NewManager(cfg *config.Config, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:      cfg,
		base:     logger,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		clock:    time.Now,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.fetcher == nil && cfg != nil {
		m.fetcher = ecb.NewClient(ecb.Config{
			BaseURL:           cfg.Source.BaseURL,
			TimeoutSeconds:    cfg.Source.TimeoutSeconds,
			RetryAttempts:     cfg.Source.RetryAttempts,
			RequestsPerSecond: cfg.Source.RequestsPerSecond,
		})
	}
	return m
}

// pairs parses the source registry.
func (m *Manager) pairs() ([]fx.Pair, error) {
	ids := m.cfg.Pairs()
	pairs := make([]fx.Pair, 0, len(ids))
	for _, id := range ids {
		p, err := fx.ParsePair(id)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "workflow", "registry", "invalid source pair "+id, err)
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}
