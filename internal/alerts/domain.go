package alerts

import "time"

// ScopeAll marks an alert visible to every tenant. Threshold breaches are
// computed over the caller's scope, so facility-wide alerts carry this marker
// instead of a client id.
const ScopeAll = "ALL"

// Alert records one KPI threshold breach.
type Alert struct {
	ID        int64     `json:"id"`
	KpiCode   string    `json:"kpiCode"`
	ClientID  string    `json:"clientId"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Resolved  bool      `json:"resolved"`
	CreatedAt time.Time `json:"createdAt"`
}

// TargetConfig is the per-KPI alerting configuration stored in
// dim_kpi_targets. A disabled KPI never raises alerts.
type TargetConfig struct {
	KpiCode      string    `json:"kpiCode"`
	Target       float64   `json:"target"`
	AlertEnabled bool      `json:"alertEnabled"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Threshold is one entry of the config request body, keyed by KPI code. The
// warning bound becomes the stored target; the critical bound is derived from
// the KPI's band rules, so it is accepted but not stored separately.
type Threshold struct {
	Warning      float64 `json:"warning" validate:"required,gt=0"`
	Critical     float64 `json:"critical" validate:"required,gt=0"`
	AlertEnabled *bool   `json:"alertEnabled,omitempty"`
}
