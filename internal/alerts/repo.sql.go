package alerts

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warepulse/warepulse/internal/shared"
)

// Repository persists alerts and target configuration in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUnresolved returns open alerts, newest first. When clientID is set only
// facility-wide alerts and that tenant's alerts are returned.
func (r *Repository) ListUnresolved(ctx context.Context, clientID *string) ([]Alert, error) {
	query := `SELECT id, kpi_code, client_id, message, severity, value, threshold, resolved, created_at
		FROM alerts WHERE NOT resolved`
	args := []any{}
	if clientID != nil {
		query += ` AND (client_id = $1 OR client_id = '` + ScopeAll + `')`
		args = append(args, *clientID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var alerts []Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.KpiCode, &a.ClientID, &a.Message, &a.Severity,
			&a.Value, &a.Threshold, &a.Resolved, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return alerts, nil
}

// HasRecentAlert reports whether an unresolved alert for the KPI was created
// at or after the given instant.
func (r *Repository) HasRecentAlert(ctx context.Context, kpiCode string, since time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM alerts
			WHERE kpi_code = $1 AND NOT resolved AND created_at >= $2)`,
		kpiCode, since).Scan(&exists)
	return exists, err
}

// CreateAlert inserts a new alert. A unique-violation from the hourly dedup
// index means a concurrent request already raised the same alert, which is
// treated as success.
func (r *Repository) CreateAlert(ctx context.Context, a *Alert) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO alerts (kpi_code, client_id, message, severity, value, threshold)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		a.KpiCode, a.ClientID, a.Message, a.Severity, a.Value, a.Threshold).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicate
		}
		return err
	}
	return nil
}

// ResolveAlert marks an alert handled.
func (r *Repository) ResolveAlert(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE alerts SET resolved = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListTargets returns the stored alert configuration per KPI.
func (r *Repository) ListTargets(ctx context.Context) ([]TargetConfig, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT kpi_code, target, alert_enabled, updated_at FROM dim_kpi_targets ORDER BY kpi_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var configs []TargetConfig
	for rows.Next() {
		var c TargetConfig
		if err := rows.Scan(&c.KpiCode, &c.Target, &c.AlertEnabled, &c.UpdatedAt); err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return configs, nil
}

// UpsertTarget stores the alerting configuration for one KPI.
func (r *Repository) UpsertTarget(ctx context.Context, cfg TargetConfig) (*TargetConfig, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO dim_kpi_targets (kpi_code, target, alert_enabled, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (kpi_code)
		 DO UPDATE SET target = EXCLUDED.target, alert_enabled = EXCLUDED.alert_enabled, updated_at = now()
		 RETURNING kpi_code, target, alert_enabled, updated_at`,
		cfg.KpiCode, cfg.Target, cfg.AlertEnabled)
	var stored TargetConfig
	if err := row.Scan(&stored.KpiCode, &stored.Target, &stored.AlertEnabled, &stored.UpdatedAt); err != nil {
		return nil, err
	}
	return &stored, nil
}
