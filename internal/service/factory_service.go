package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"factoryfeed/internal/cache"
	"factoryfeed/internal/factorysim"
	"factoryfeed/internal/middleware"
	"factoryfeed/internal/models"
	"factoryfeed/internal/observability"
	"factoryfeed/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
)

// FactoryService owns the live simulators and keeps their persisted mirror
// and event log in step. All simulator access happens under mu.
type FactoryService struct {
	repo repository.FactoryRepository

	mu     sync.Mutex
	sims   map[string]*factorysim.Simulator
	loaded bool
	rng    *rand.Rand
	now    func() time.Time
}

// FactoryOption configures a FactoryService.
type FactoryOption func(*FactoryService)

// WithFactoryRand seeds every simulator the service creates from r.
func WithFactoryRand(r *rand.Rand) FactoryOption {
	return func(s *FactoryService) { s.rng = r }
}

// WithFactoryClock overrides the clock used for readings and log entries.
func WithFactoryClock(now func() time.Time) FactoryOption {
	return func(s *FactoryService) { s.now = now }
}

// FactoryUpdate is the outcome of one simulator step.
type FactoryUpdate struct {
	Previous models.FactoryStatus
	Snapshot models.StatusSnapshot
}

// Changed reports whether the step moved the factory to a different status.
func (u FactoryUpdate) Changed() bool {
	return u.Previous != u.Snapshot.Status
}

func NewFactoryService(repo repository.FactoryRepository, opts ...FactoryOption) *FactoryService {
	s := &FactoryService{
		repo: repo,
		sims: make(map[string]*factorysim.Simulator),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

func (s *FactoryService) simOptions() []factorysim.Option {
	return []factorysim.Option{
		factorysim.WithRand(rand.New(rand.NewPCG(s.rng.Uint64(), s.rng.Uint64()))),
		factorysim.WithClock(s.now),
	}
}

// LoadFactories rebuilds the simulators from the persisted last readings.
func (s *FactoryService) LoadFactories(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *FactoryService) loadLocked(ctx context.Context) error {
	factories, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	for i := range factories {
		f := &factories[i]
		if _, ok := s.sims[f.ID]; ok {
			continue
		}
		s.sims[f.ID] = factorysim.Restore(f, s.simOptions()...)
	}
	s.loaded = true
	middleware.Logger.Info("factories loaded", slog.Int("count", len(s.sims)))
	return nil
}

func (s *FactoryService) ensureLoadedLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	return s.loadLocked(ctx)
}

// simLocked returns the simulator for id, restoring it from the store when
// another process created the factory.
func (s *FactoryService) simLocked(ctx context.Context, id string) (*factorysim.Simulator, error) {
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}
	if sim, ok := s.sims[id]; ok {
		return sim, nil
	}
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sim := factorysim.Restore(f, s.simOptions()...)
	s.sims[id] = sim
	return sim, nil
}

// AddFactory registers a new factory with one normal reading and announces it
// in the factory log. IDs are factory_NNN from the current count.
func (s *FactoryService) AddFactory(ctx context.Context, name, location string) (*models.Factory, error) {
	name = strings.TrimSpace(name)
	location = strings.TrimSpace(location)
	if name == "" || location == "" {
		return nil, models.NewValidationError("Factory name and location are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	id := fmt.Sprintf("factory_%03d", count+1)

	sim := factorysim.New(name, s.simOptions()...)
	sim.GenerateNormalData()

	now := s.now()
	factory := &models.Factory{ID: id, Name: name, Location: location, CreatedAt: now}
	sim.ApplyTo(factory, now)

	announcement := &models.FactoryPost{
		FactoryID:   id,
		FactoryName: name,
		Message:     fmt.Sprintf("🏭 New factory '%s' established at %s!", name, location),
		Priority:    models.PriorityNormal,
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, factory, announcement); err != nil {
		return nil, err
	}
	s.sims[id] = sim
	cache.InvalidateFactorySummary(ctx)

	middleware.Logger.InfoContext(middleware.WithFactory(ctx, id), "factory added",
		slog.String("name", name), slog.String("location", location))
	return factory, nil
}

// UpdateFactoryStatus advances one factory, persists the reading and appends
// a log entry. forceAbnormal always injects a fault.
func (s *FactoryService) UpdateFactoryStatus(ctx context.Context, id string, forceAbnormal bool) (*models.StatusSnapshot, error) {
	u, err := s.step(ctx, id, forceAbnormal)
	if err != nil {
		return nil, err
	}
	return &u.Snapshot, nil
}

// UpdateAll advances every factory once, in id order.
func (s *FactoryService) UpdateAll(ctx context.Context) ([]models.StatusSnapshot, error) {
	ids, err := s.FactoryIDs(ctx)
	if err != nil {
		return nil, err
	}
	snapshots := make([]models.StatusSnapshot, 0, len(ids))
	for _, id := range ids {
		u, err := s.step(ctx, id, false)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, u.Snapshot)
	}
	return snapshots, nil
}

func (s *FactoryService) step(ctx context.Context, id string, forceAbnormal bool) (*FactoryUpdate, error) {
	span, ctx := observability.NewSpan(ctx, "factory.update",
		attribute.String("factory.id", id),
		attribute.Bool("factory.force_abnormal", forceAbnormal),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	sim, err := s.simLocked(ctx, id)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	// Step a copy so a failed write leaves the simulator on its last persisted reading.
	next := *sim
	previous := next.Status()
	next.Step(forceAbnormal)

	now := s.now()
	snapshot := next.CurrentStatus()
	snapshot.FactoryID = id

	factory := &models.Factory{ID: id}
	next.ApplyTo(factory, now)

	statusData, err := json.Marshal(snapshot)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	priority := models.PriorityNormal
	if snapshot.Status.IsAbnormal() {
		priority = models.PriorityHigh
	}
	entry := &models.FactoryPost{
		FactoryID:   id,
		FactoryName: next.Name,
		Message:     statusMessage(next.Name, snapshot),
		StatusData:  datatypes.JSON(statusData),
		Priority:    priority,
		CreatedAt:   now,
	}
	if err := s.repo.SaveReading(ctx, factory, entry); err != nil {
		span.SetError(err)
		return nil, err
	}
	*sim = next
	cache.InvalidateFactorySummary(ctx)

	observability.RecordReading(id, string(snapshot.Status), snapshot.Temperature, snapshot.Pressure, snapshot.RPM)
	span.SetAttributes(attribute.String("factory.status", string(snapshot.Status)))

	return &FactoryUpdate{Previous: previous, Snapshot: snapshot}, nil
}

func statusMessage(name string, snap models.StatusSnapshot) string {
	switch snap.Status {
	case models.FactoryStatusNormal:
		return fmt.Sprintf("✅ %s operating normally (temperature: %.1f°C, pressure: %.1fbar)", name, snap.Temperature, snap.Pressure)
	case models.FactoryStatusOverheat:
		return fmt.Sprintf("🔥 %s overheat warning! Temperature rose to %.1f°C", name, snap.Temperature)
	case models.FactoryStatusLowPressure:
		return fmt.Sprintf("⚠️ %s low pressure! Current pressure: %.1fbar", name, snap.Pressure)
	case models.FactoryStatusRPMIssue:
		return fmt.Sprintf("⚙️ %s speed issue! Current RPM: %.1f", name, snap.RPM)
	default:
		return fmt.Sprintf("❓ %s needs inspection", name)
	}
}

// FactoryIDs lists the known factories in id order.
func (s *FactoryService) FactoryIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(s.sims))
	for id := range s.sims {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Snapshot returns the live reading of one factory without advancing it.
func (s *FactoryService) Snapshot(ctx context.Context, id string) (*models.StatusSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sim, err := s.simLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := sim.CurrentStatus()
	snap.FactoryID = id
	return &snap, nil
}

// GetFactorySummary partitions the fleet: overheat counts as an error,
// low pressure and rpm issues as warnings.
func (s *FactoryService) GetFactorySummary(ctx context.Context) (*models.FactorySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(s.sims))
	for id := range s.sims {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	summary := &models.FactorySummary{
		TotalFactories: len(ids),
		Factories:      make([]models.StatusSnapshot, 0, len(ids)),
	}
	for _, id := range ids {
		snap := s.sims[id].CurrentStatus()
		snap.FactoryID = id
		switch snap.Status {
		case models.FactoryStatusNormal:
			summary.NormalCount++
		case models.FactoryStatusLowPressure, models.FactoryStatusRPMIssue:
			summary.WarningCount++
		case models.FactoryStatusOverheat:
			summary.ErrorCount++
		}
		summary.Factories = append(summary.Factories, snap)
	}
	return summary, nil
}

// GetFactoryFeed returns the newest factory log entries first.
func (s *FactoryService) GetFactoryFeed(ctx context.Context, limit int) ([]models.FactoryPost, error) {
	return s.repo.Feed(ctx, limit)
}

// LatestFactoryPost returns nil when the log is empty.
func (s *FactoryService) LatestFactoryPost(ctx context.Context) (*models.FactoryPost, error) {
	return s.repo.Latest(ctx)
}

func (s *FactoryService) GetFactory(ctx context.Context, id string) (*models.Factory, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FactoryService) ListFactories(ctx context.Context) ([]models.Factory, error) {
	return s.repo.List(ctx)
}
