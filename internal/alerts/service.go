package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/warepulse/warepulse/internal/kpi"
	"github.com/warepulse/warepulse/internal/shared"
)

// dedupWindow suppresses repeat alerts for the same KPI. The repository's
// hourly unique index backs this under concurrency.
const dedupWindow = time.Hour

// Store defines alert persistence.
type Store interface {
	ListUnresolved(ctx context.Context, clientID *string) ([]Alert, error)
	HasRecentAlert(ctx context.Context, kpiCode string, since time.Time) (bool, error)
	CreateAlert(ctx context.Context, a *Alert) error
	ResolveAlert(ctx context.Context, id int64) error
	ListTargets(ctx context.Context) ([]TargetConfig, error)
	UpsertTarget(ctx context.Context, cfg TargetConfig) (*TargetConfig, error)
}

// Enqueuer hands alert emails to the background worker.
type Enqueuer interface {
	EnqueueAlertEmail(ctx context.Context, a Alert) error
}

// Service raises alerts for critical KPI snapshots and serves the alert feed.
type Service struct {
	store    Store
	enqueuer Enqueuer
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a Service. enqueuer may be nil, in which case alerts
// are stored without email delivery.
func NewService(logger *slog.Logger, store Store, enqueuer Enqueuer) *Service {
	return &Service{
		store:    store,
		enqueuer: enqueuer,
		logger:   logger,
		now:      time.Now,
	}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// NotifyCritical stores one alert per critical snapshot, deduplicated over
// the last hour, and enqueues a notification email for each new alert. Any
// failure is logged and swallowed so dashboard reads never degrade.
func (s *Service) NotifyCritical(ctx context.Context, snapshots []kpi.Snapshot) {
	enabled, err := s.enabledCodes(ctx)
	if err != nil {
		s.logger.Error("load alert config failed", slog.Any("error", err))
		return
	}

	for _, snap := range snapshots {
		if snap.Status != kpi.StatusCritical {
			continue
		}
		if on, configured := enabled[string(snap.Code)]; configured && !on {
			continue
		}
		if err := s.raise(ctx, snap); err != nil {
			s.logger.Error("raise alert failed",
				slog.String("code", string(snap.Code)), slog.Any("error", err))
		}
	}
}

func (s *Service) raise(ctx context.Context, snap kpi.Snapshot) error {
	recent, err := s.store.HasRecentAlert(ctx, string(snap.Code), s.now().Add(-dedupWindow))
	if err != nil {
		return err
	}
	if recent {
		return nil
	}

	alert := Alert{
		KpiCode:   string(snap.Code),
		ClientID:  ScopeAll,
		Message:   alertMessage(snap),
		Severity:  "high",
		Value:     snap.Value,
		Threshold: snap.Target,
	}
	if err := s.store.CreateAlert(ctx, &alert); err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			return nil
		}
		return err
	}
	s.logger.Warn("kpi alert raised",
		slog.String("code", alert.KpiCode), slog.Float64("value", alert.Value))

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueAlertEmail(ctx, alert); err != nil {
			s.logger.Error("enqueue alert email failed",
				slog.String("code", alert.KpiCode), slog.Any("error", err))
		}
	}
	return nil
}

func alertMessage(snap kpi.Snapshot) string {
	return fmt.Sprintf("%s is at %g %s (target %g %s)",
		snap.Label, snap.Value, snap.Unit, snap.Target, snap.Unit)
}

func (s *Service) enabledCodes(ctx context.Context) (map[string]bool, error) {
	configs, err := s.store.ListTargets(ctx)
	if err != nil {
		return nil, err
	}
	enabled := make(map[string]bool, len(configs))
	for _, cfg := range configs {
		enabled[cfg.KpiCode] = cfg.AlertEnabled
	}
	return enabled, nil
}

// List returns open alerts scoped to the caller: client users only see
// facility-wide alerts and alerts for their own tenant.
func (s *Service) List(ctx context.Context, identity *shared.Identity) ([]Alert, error) {
	var clientID *string
	if identity != nil && identity.Role == shared.RoleClient && identity.ClientID != "" {
		clientID = &identity.ClientID
	}
	return s.store.ListUnresolved(ctx, clientID)
}

// Resolve marks an alert handled.
func (s *Service) Resolve(ctx context.Context, id int64) error {
	return s.store.ResolveAlert(ctx, id)
}

// Targets returns the per-KPI alert configuration.
func (s *Service) Targets(ctx context.Context) ([]TargetConfig, error) {
	return s.store.ListTargets(ctx)
}

// ConfigureTarget validates the KPI code and stores its alert configuration.
func (s *Service) ConfigureTarget(ctx context.Context, cfg TargetConfig) (*TargetConfig, error) {
	if _, ok := kpi.Lookup(kpi.Code(cfg.KpiCode)); !ok {
		return nil, shared.ErrUnknownKPI
	}
	return s.store.UpsertTarget(ctx, cfg)
}

// ConfigureThresholds upserts the alert target for every KPI in the request.
// An entry that fails, including an unknown code, is logged and skipped so it
// never blocks the remaining entries. Returns the number applied.
func (s *Service) ConfigureThresholds(ctx context.Context, thresholds map[string]Threshold) int {
	applied := 0
	for code, th := range thresholds {
		enabled := true
		if th.AlertEnabled != nil {
			enabled = *th.AlertEnabled
		}
		if _, err := s.ConfigureTarget(ctx, TargetConfig{
			KpiCode:      code,
			Target:       th.Warning,
			AlertEnabled: enabled,
		}); err != nil {
			s.logger.Warn("alert threshold skipped",
				slog.String("code", code), slog.Any("error", err))
			continue
		}
		applied++
	}
	return applied
}
