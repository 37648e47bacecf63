// Package scoring computes scenario scores and keeps them in the scored store.
package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/mr1hm/climate-vuln/internal/config"
	"github.com/mr1hm/climate-vuln/internal/models"
	"github.com/mr1hm/climate-vuln/internal/observability"
	"github.com/mr1hm/climate-vuln/internal/repository"
	"github.com/mr1hm/climate-vuln/internal/vulnerability"
	"github.com/mr1hm/climate-vuln/internal/worker"
)

// FallbackKey is the store key shared by every scenario outside the hazard table
// and the configured choices. They all score identically (medium exposure).
const FallbackKey = "__fallback__"

// Dataset is the static input loaded at startup.
type Dataset struct {
	Assets  []models.Asset
	Hazards models.HazardTable
	Weights vulnerability.Weights
}

type ScenarioStatus struct {
	Label    string
	Known    bool // present in the hazard table
	Scored   bool
	ScoredAt time.Time
	Assets   int
}

type Manager struct {
	cfg     *config.Config
	data    Dataset
	repo    repository.ScoredAssetRepository
	metrics *observability.Metrics
	clock   clockwork.Clock

	pool  *worker.WorkerPool[string]
	group singleflight.Group

	mu     sync.RWMutex
	scored map[string]ScenarioStatus
}

func NewManager(cfg *config.Config, data Dataset, repo repository.ScoredAssetRepository, metrics *observability.Metrics, clock clockwork.Clock) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		cfg:     cfg,
		data:    data,
		repo:    repo,
		metrics: metrics,
		clock:   clock,
		scored:  make(map[string]ScenarioStatus),
	}
}

// Start scores every listed scenario in the background through the worker pool.
func (m *Manager) Start(ctx context.Context) {
	processor := func(ctx context.Context, scenario string) error {
		_, err := m.Ensure(ctx, scenario)
		return err
	}

	m.pool = worker.NewWorkerPool(m.cfg.Worker.Count, m.cfg.Worker.BufferSize, processor)
	m.pool.OnError(func(scenario string, err error) {
		slog.Error("warm-up scoring failed", "scenario", scenario, "error", err)
	})
	m.pool.Start(ctx)

	labels := m.labels()
	slog.Info("warming scenarios", "count", len(labels), "workers", m.cfg.Worker.Count)
	for _, label := range labels {
		if !m.pool.Submit(ctx, label) {
			return
		}
	}
}

func (m *Manager) Stop() {
	if m.pool != nil {
		m.pool.Stop()
	}
	slog.Info("scoring manager stopped")
}

// Key maps a requested scenario to its store key.
func (m *Manager) Key(scenario string) string {
	scenario = strings.TrimSpace(scenario)
	if _, ok := m.data.Hazards.Lookup(scenario); ok {
		return scenario
	}
	if slices.Contains(m.cfg.Scenarios.Choices, scenario) {
		return scenario
	}
	return FallbackKey
}

// Ensure scores scenario into the store unless it is already there, and returns the
// store key to query. Concurrent calls for the same key share one computation, which
// is not cancelled when the first caller goes away.
func (m *Manager) Ensure(ctx context.Context, scenario string) (string, error) {
	key := m.Key(scenario)

	stored, err := m.stored(ctx, key)
	if err != nil {
		return "", err
	}
	if stored {
		return key, nil
	}

	_, err, _ = m.group.Do(key, func() (any, error) {
		sctx := context.WithoutCancel(ctx)
		stored, err := m.stored(sctx, key)
		if err != nil || stored {
			return nil, err
		}
		return nil, m.score(sctx, key)
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// stored reports whether key was scored by this manager and its rows are still in the store.
func (m *Manager) stored(ctx context.Context, key string) (bool, error) {
	if !m.isScored(key) {
		return false, nil
	}
	if len(m.data.Assets) == 0 {
		return true, nil
	}
	ok, err := m.repo.HasScenario(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check scenario %q: %w", key, err)
	}
	return ok, nil
}

func (m *Manager) score(ctx context.Context, key string) error {
	start := m.clock.Now()

	res, err := vulnerability.Compute(m.data.Assets, m.data.Hazards, key, m.data.Weights)
	if err != nil {
		m.observeRun("error")
		return fmt.Errorf("compute scenario %q: %w", key, err)
	}
	if err := m.repo.ReplaceScenario(ctx, key, res.Assets); err != nil {
		m.observeRun("error")
		return fmt.Errorf("store scenario %q: %w", key, err)
	}

	now := m.clock.Now()
	m.mu.Lock()
	m.scored[key] = ScenarioStatus{
		Label:    key,
		Known:    !res.Fallback,
		Scored:   true,
		ScoredAt: now.UTC(),
		Assets:   len(res.Assets),
	}
	cached := len(m.scored)
	m.mu.Unlock()

	outcome := "known"
	if res.Fallback {
		outcome = "fallback"
		slog.Warn("scenario not in hazard table, using medium exposure", "scenario", key, "exposure", vulnerability.MediumExposure)
	}
	m.observeRun(outcome)
	if m.metrics != nil {
		m.metrics.ScoringDuration.Observe(now.Sub(start).Seconds())
		m.metrics.AssetsScored.Add(float64(len(res.Assets)))
		m.metrics.ScenariosCached.Set(float64(cached))
	}

	slog.Info("scored scenario", "scenario", key, "assets", len(res.Assets), "fallback", res.Fallback)
	return nil
}

func (m *Manager) observeRun(outcome string) {
	if m.metrics != nil {
		m.metrics.ScoringRuns.WithLabelValues(outcome).Inc()
	}
}

// Scenarios lists the configured and hazard-table scenarios, sorted by label.
func (m *Manager) Scenarios() []ScenarioStatus {
	labels := m.labels()

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ScenarioStatus, 0, len(labels))
	for _, label := range labels {
		_, known := m.data.Hazards.Lookup(label)
		st := ScenarioStatus{Label: label, Known: known}
		if s, ok := m.scored[label]; ok {
			st = s
			st.Label = label
		}
		out = append(out, st)
	}
	return out
}

func (m *Manager) DefaultScenario() string {
	return m.cfg.Scenarios.Default
}

// Ready reports an error until the store is reachable and the default scenario is fully stored.
func (m *Manager) Ready(ctx context.Context) error {
	if err := m.repo.Ping(ctx); err != nil {
		return fmt.Errorf("store unreachable: %w", err)
	}
	key := m.Key(m.cfg.Scenarios.Default)
	n, err := m.repo.CountScored(ctx, key)
	if err != nil {
		return err
	}
	if n != len(m.data.Assets) || (n == 0 && !m.isScored(key)) {
		return fmt.Errorf("default scenario %q not scored yet", m.cfg.Scenarios.Default)
	}
	return nil
}

func (m *Manager) isScored(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.scored[key]
	return ok
}

func (m *Manager) labels() []string {
	set := make(map[string]struct{})
	for _, l := range m.cfg.Scenarios.Choices {
		set[l] = struct{}{}
	}
	for _, l := range m.data.Hazards.Labels() {
		set[l] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}
