package alerts

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/warepulse/warepulse/internal/kpi"
	"github.com/warepulse/warepulse/internal/shared"
)

type mockStore struct {
	alerts   []Alert
	targets  []TargetConfig
	recent   map[string]bool
	resolved []int64
}

func (m *mockStore) ListUnresolved(ctx context.Context, clientID *string) ([]Alert, error) {
	if clientID == nil {
		return m.alerts, nil
	}
	var out []Alert
	for _, a := range m.alerts {
		if a.ClientID == ScopeAll || a.ClientID == *clientID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) HasRecentAlert(ctx context.Context, kpiCode string, since time.Time) (bool, error) {
	return m.recent[kpiCode], nil
}

func (m *mockStore) CreateAlert(ctx context.Context, a *Alert) error {
	a.ID = int64(len(m.alerts) + 1)
	a.CreatedAt = time.Now().UTC()
	m.alerts = append(m.alerts, *a)
	if m.recent == nil {
		m.recent = map[string]bool{}
	}
	m.recent[a.KpiCode] = true
	return nil
}

func (m *mockStore) ResolveAlert(ctx context.Context, id int64) error {
	m.resolved = append(m.resolved, id)
	return nil
}

func (m *mockStore) ListTargets(ctx context.Context) ([]TargetConfig, error) {
	return m.targets, nil
}

func (m *mockStore) UpsertTarget(ctx context.Context, cfg TargetConfig) (*TargetConfig, error) {
	m.targets = append(m.targets, cfg)
	return &cfg, nil
}

type mockEnqueuer struct {
	enqueued []Alert
}

func (m *mockEnqueuer) EnqueueAlertEmail(ctx context.Context, a Alert) error {
	m.enqueued = append(m.enqueued, a)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func criticalSnapshot(code kpi.Code, value float64) kpi.Snapshot {
	def, _ := kpi.Lookup(code)
	return kpi.Snapshot{
		Code:   code,
		Label:  def.Label,
		Value:  value,
		Target: def.Target,
		Unit:   def.Unit,
		Status: kpi.StatusCritical,
	}
}

func TestNotifyCriticalRaisesOncePerWindow(t *testing.T) {
	store := &mockStore{}
	enqueuer := &mockEnqueuer{}
	svc := NewService(testLogger(), store, enqueuer)

	snapshots := []kpi.Snapshot{criticalSnapshot(kpi.CodeDamages, 5.0)}
	svc.NotifyCritical(context.Background(), snapshots)
	svc.NotifyCritical(context.Background(), snapshots)

	if len(store.alerts) != 1 {
		t.Fatalf("expected exactly one alert, got %d", len(store.alerts))
	}
	if len(enqueuer.enqueued) != 1 {
		t.Fatalf("expected one email, got %d", len(enqueuer.enqueued))
	}
	alert := store.alerts[0]
	if alert.KpiCode != "DAMAGES" || alert.Severity != "high" || alert.ClientID != ScopeAll {
		t.Fatalf("alert = %+v", alert)
	}
	if alert.Value != 5.0 || alert.Threshold != 2.0 {
		t.Fatalf("alert numbers = %+v", alert)
	}
}

func TestNotifyCriticalSkipsNonCritical(t *testing.T) {
	store := &mockStore{}
	svc := NewService(testLogger(), store, nil)

	snap := criticalSnapshot(kpi.CodeOTD, 91)
	snap.Status = kpi.StatusGood
	svc.NotifyCritical(context.Background(), []kpi.Snapshot{snap})

	if len(store.alerts) != 0 {
		t.Fatalf("good snapshot must not alert, got %d", len(store.alerts))
	}
}

func TestNotifyCriticalHonoursDisabledConfig(t *testing.T) {
	store := &mockStore{
		targets: []TargetConfig{{KpiCode: "DAMAGES", Target: 2, AlertEnabled: false}},
	}
	svc := NewService(testLogger(), store, nil)

	svc.NotifyCritical(context.Background(), []kpi.Snapshot{criticalSnapshot(kpi.CodeDamages, 5.0)})

	if len(store.alerts) != 0 {
		t.Fatalf("disabled KPI must not alert, got %d", len(store.alerts))
	}
}

func TestListScopesClientCallers(t *testing.T) {
	store := &mockStore{alerts: []Alert{
		{ID: 1, KpiCode: "OTD", ClientID: ScopeAll},
		{ID: 2, KpiCode: "OTD", ClientID: "ACME"},
		{ID: 3, KpiCode: "OTD", ClientID: "NORDIC"},
	}}
	svc := NewService(testLogger(), store, nil)

	got, err := svc.List(context.Background(), &shared.Identity{Role: shared.RoleClient, ClientID: "ACME"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("client caller sees %d alerts, want 2", len(got))
	}

	all, err := svc.List(context.Background(), &shared.Identity{Role: shared.RoleAdmin})
	if err != nil {
		t.Fatalf("list admin: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("admin sees %d alerts, want 3", len(all))
	}
}

func TestConfigureTargetRejectsUnknownKPI(t *testing.T) {
	svc := NewService(testLogger(), &mockStore{}, nil)
	if _, err := svc.ConfigureTarget(context.Background(), TargetConfig{KpiCode: "NOPE", Target: 1}); err == nil {
		t.Fatal("expected error for unknown KPI")
	}
}

func TestConfigureThresholdsContinuesPastFailures(t *testing.T) {
	store := &mockStore{}
	svc := NewService(testLogger(), store, nil)

	applied := svc.ConfigureThresholds(context.Background(), map[string]Threshold{
		"NOPE":    {Warning: 1, Critical: 2},
		"DOH":     {Warning: 18, Critical: 20},
		"DAMAGES": {Warning: 2.5, Critical: 3},
	})

	if applied != 2 {
		t.Fatalf("applied = %d, want 2", applied)
	}
	if len(store.targets) != 2 {
		t.Fatalf("stored %d targets, want 2", len(store.targets))
	}
	for _, cfg := range store.targets {
		if cfg.KpiCode == "NOPE" {
			t.Fatal("unknown KPI must not be stored")
		}
		if !cfg.AlertEnabled {
			t.Fatalf("alerting should default to enabled, got %+v", cfg)
		}
	}
}
