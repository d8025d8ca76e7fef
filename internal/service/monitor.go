package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"factoryfeed/internal/middleware"
	"factoryfeed/internal/models"
	"factoryfeed/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	// DefaultMonitorInterval is the pause between monitoring passes.
	DefaultMonitorInterval = 300 * time.Second
	// MonitorErrorCooldown is the pause after a failed pass.
	MonitorErrorCooldown = 60 * time.Second
	// SummaryInterval is the minimum gap between fleet summary posts.
	SummaryInterval = time.Hour
)

// Monitor periodically steps every factory and reports status transitions to
// the feed: an alert when a factory turns abnormal, a status post when it
// recovers, and a fleet summary at most once per SummaryInterval.
type Monitor struct {
	factories *FactoryService
	feed      *FeedService
	events    EventSink

	interval time.Duration
	cooldown time.Duration
	now      func() time.Time

	lastSummary time.Time
}

func NewMonitor(factories *FactoryService, feed *FeedService, events EventSink, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	if events == nil {
		events = NopSink{}
	}
	return &Monitor{
		factories: factories,
		feed:      feed,
		events:    events,
		interval:  interval,
		cooldown:  MonitorErrorCooldown,
		now:       time.Now,
	}
}

// Run loops until ctx is cancelled. The first pass starts immediately; a
// failed pass is logged and retried after the cooldown.
func (m *Monitor) Run(ctx context.Context) error {
	middleware.Logger.Info("factory monitor started", slog.Duration("interval", m.interval))
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			middleware.Logger.Info("factory monitor stopped")
			return ctx.Err()
		case <-timer.C:
		}

		wait := m.interval
		if err := m.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			middleware.Logger.Error("factory monitor pass failed",
				slog.String("error", err.Error()),
				slog.Duration("retry_in", m.cooldown))
			wait = m.cooldown
		}
		timer.Reset(wait)
	}
}

// RunOnce performs one monitoring pass. Panics are converted to errors.
func (m *Monitor) RunOnce(ctx context.Context) (err error) {
	span, ctx := observability.NewSpan(ctx, "monitor.pass")
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("monitor panic: %v", r)
		}
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.SetError(err)
		}
		observability.MonitorCycles.WithLabelValues(outcome).Inc()
		span.End()
	}()

	ids, err := m.factories.FactoryIDs(ctx)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("monitor.factories", len(ids)))

	for _, id := range ids {
		u, err := m.factories.step(ctx, id, false)
		if err != nil {
			return fmt.Errorf("update %s: %w", id, err)
		}
		if !u.Changed() {
			continue
		}
		if err := m.reportTransition(ctx, id, u); err != nil {
			return fmt.Errorf("report %s: %w", id, err)
		}
	}

	m.maybeSummarize(ctx)
	return nil
}

func (m *Monitor) reportTransition(ctx context.Context, id string, u *FactoryUpdate) error {
	if u.Snapshot.Status.IsAbnormal() {
		_, err := m.feed.CreateEmergencyAlertPost(ctx, id, string(u.Snapshot.Status))
		return err
	}

	post, err := m.feed.CreateFactoryStatusPost(ctx, id)
	if err != nil {
		return err
	}
	m.events.FactoryAlert(ctx, models.FactoryAlert{
		FactoryID:   id,
		FactoryName: u.Snapshot.FactoryName,
		AlertType:   AlertRecovered,
		Priority:    models.PriorityNormal,
		PostID:      post.ID,
		Snapshot:    u.Snapshot,
		Timestamp:   post.CreatedAt,
	})
	return nil
}

// maybeSummarize posts the fleet summary once SummaryInterval has elapsed
// since the last one. The first pass only starts the clock.
func (m *Monitor) maybeSummarize(ctx context.Context) {
	now := m.now()
	if m.lastSummary.IsZero() {
		m.lastSummary = now
		return
	}
	if now.Sub(m.lastSummary) <= SummaryInterval {
		return
	}
	if _, err := m.feed.CreateSummaryPost(ctx); err != nil {
		middleware.Logger.Warn("factory summary post failed", slog.String("error", err.Error()))
	}
	m.lastSummary = now
}
