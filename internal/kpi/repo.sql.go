package kpi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warepulse/warepulse/internal/shared"
)

// PGRepository runs the KPI aggregate queries against PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const detailLimit = 50

// wherePredicates builds the enforced filter set for a fact table. The
// provider filter only exists on fact_inbound; other tables ignore it.
func wherePredicates(def Definition, scope shared.Scope) (string, []any) {
	preds := []string{"created_at >= $1", "created_at <= $2"}
	args := []any{scope.From, scope.To}
	if scope.ClientID != "" {
		args = append(args, scope.ClientID)
		preds = append(preds, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if scope.ProviderID != "" && def.Table == "fact_inbound" {
		args = append(args, scope.ProviderID)
		preds = append(preds, fmt.Sprintf("provider_id = $%d", len(args)))
	}
	if def.Extra != "" {
		preds = append(preds, def.Extra)
	}
	return strings.Join(preds, " AND "), args
}

// Aggregate computes the current-period value for one KPI.
func (r *PGRepository) Aggregate(ctx context.Context, def Definition, scope shared.Scope) (float64, error) {
	where, args := wherePredicates(def, scope)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", def.ValueExpr, def.Table, where)
	var value float64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&value); err != nil {
		return 0, fmt.Errorf("kpi %s aggregate: %w", def.Code, err)
	}
	return value, nil
}

// DailySeries computes the day-bucketed historical series for one KPI over
// the scope window, oldest first. Days without facts produce no point.
func (r *PGRepository) DailySeries(ctx context.Context, def Definition, scope shared.Scope) ([]TrendPoint, error) {
	where, args := wherePredicates(def, scope)
	query := fmt.Sprintf(
		"SELECT date_trunc('day', created_at)::date AS day, %s FROM %s WHERE %s GROUP BY 1 ORDER BY 1",
		def.ValueExpr, def.Table, where,
	)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("kpi %s series: %w", def.Code, err)
	}
	defer rows.Close()

	var points []TrendPoint
	for rows.Next() {
		var day time.Time
		var value float64
		if err := rows.Scan(&day, &value); err != nil {
			return nil, err
		}
		points = append(points, TrendPoint{
			Date:   day.Format("2006-01-02"),
			Value:  Round(def, value),
			Target: def.Target,
		})
	}
	return points, rows.Err()
}

// Distribution computes the per-client value for one KPI, plus a record or
// order count per client. Names are resolved separately via ClientNames.
func (r *PGRepository) Distribution(ctx context.Context, def Definition, scope shared.Scope) ([]DistributionSlice, error) {
	ordersExpr := "COUNT(*)"
	if def.Table == "fact_outbound" {
		ordersExpr = "COUNT(DISTINCT order_id)"
	}
	where, args := wherePredicates(def, scope)
	query := fmt.Sprintf(
		"SELECT client_id, %s, %s FROM %s WHERE %s GROUP BY client_id",
		def.ValueExpr, ordersExpr, def.Table, where,
	)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("kpi %s distribution: %w", def.Code, err)
	}
	defer rows.Close()

	var slices []DistributionSlice
	for rows.Next() {
		var clientID string
		var value float64
		var orders int64
		if err := rows.Scan(&clientID, &value, &orders); err != nil {
			return nil, err
		}
		slices = append(slices, DistributionSlice{
			Category: clientID,
			Value:    Round(def, value),
			Target:   def.Target,
			Orders:   orders,
		})
	}
	return slices, rows.Err()
}

// OTIFDistribution decomposes the per-client OTIF rate into its on-time and
// in-full components for stacked visualization.
func (r *PGRepository) OTIFDistribution(ctx context.Context, scope shared.Scope) ([]DistributionSlice, error) {
	def := definitionsByCode[CodeOTIF]
	where, args := wherePredicates(def, scope)
	query := fmt.Sprintf(`SELECT client_id,
		COUNT(*) FILTER (WHERE shipped_date <= promised_date AND picked_units >= ordered_units)::float8 / COUNT(*) * 100,
		COUNT(*) FILTER (WHERE shipped_date <= promised_date)::float8 / COUNT(*) * 100,
		COUNT(*) FILTER (WHERE picked_units >= ordered_units)::float8 / COUNT(*) * 100,
		COUNT(DISTINCT order_id)
		FROM fact_outbound WHERE %s GROUP BY client_id`, where)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("kpi OTIF distribution: %w", err)
	}
	defer rows.Close()

	var slices []DistributionSlice
	for rows.Next() {
		var clientID string
		var otif, onTime, inFull float64
		var orders int64
		if err := rows.Scan(&clientID, &otif, &onTime, &inFull, &orders); err != nil {
			return nil, err
		}
		slices = append(slices, DistributionSlice{
			Category:   clientID,
			Value:      Round(def, otif),
			Target:     def.Target,
			Orders:     orders,
			OnTimeRate: Round(def, onTime),
			InFullRate: Round(def, inFull),
		})
	}
	return slices, rows.Err()
}

// ClientNames maps client ids to display names.
func (r *PGRepository) ClientNames(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM clients`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

// InboundRow is one fact_inbound record for drill-down views.
type InboundRow struct {
	ID            string
	ClientID      string
	ProviderID    string
	SKU           string
	ReceivedUnits int64
	DamagedUnits  int64
	ArrivalAt     time.Time
	PutawayAt     *time.Time
	CreatedAt     time.Time
}

// InboundDetail returns the most recent inbound receipts in scope.
func (r *PGRepository) InboundDetail(ctx context.Context, def Definition, scope shared.Scope) ([]InboundRow, error) {
	where, args := wherePredicates(def, scope)
	query := fmt.Sprintf(`SELECT id, client_id, provider_id, sku, received_units,
		COALESCE(damaged_units, 0), arrival_at, putaway_at, created_at
		FROM fact_inbound WHERE %s ORDER BY created_at DESC LIMIT %d`, where, detailLimit)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("kpi %s detail: %w", def.Code, err)
	}
	defer rows.Close()

	var out []InboundRow
	for rows.Next() {
		var row InboundRow
		if err := rows.Scan(&row.ID, &row.ClientID, &row.ProviderID, &row.SKU,
			&row.ReceivedUnits, &row.DamagedUnits, &row.ArrivalAt, &row.PutawayAt, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// OutboundRow is one fact_outbound record for drill-down views.
type OutboundRow struct {
	ID           string
	ClientID     string
	TeamID       *string
	SKU          string
	OrderID      string
	PromisedDate time.Time
	ShippedDate  *time.Time
	PickedUnits  int64
	OrderedUnits int64
	ReadyAt      *time.Time
	CutoffTime   time.Time
	CreatedAt    time.Time
}

// OutboundDetail returns the most recent outbound orders in scope.
func (r *PGRepository) OutboundDetail(ctx context.Context, def Definition, scope shared.Scope) ([]OutboundRow, error) {
	where, args := wherePredicates(def, scope)
	query := fmt.Sprintf(`SELECT id, client_id, team_id, sku, order_id, promised_date,
		shipped_date, picked_units, ordered_units, ready_at, cutoff_time, created_at
		FROM fact_outbound WHERE %s ORDER BY created_at DESC LIMIT %d`, where, detailLimit)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("kpi %s detail: %w", def.Code, err)
	}
	defer rows.Close()

	var out []OutboundRow
	for rows.Next() {
		var row OutboundRow
		if err := rows.Scan(&row.ID, &row.ClientID, &row.TeamID, &row.SKU, &row.OrderID,
			&row.PromisedDate, &row.ShippedDate, &row.PickedUnits, &row.OrderedUnits,
			&row.ReadyAt, &row.CutoffTime, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// InventoryRow is one fact_inventory snapshot record for drill-down views.
type InventoryRow struct {
	ID             string
	ClientID       string
	SKU            string
	SystemQty      int64
	PhysicalQty    int64
	StockQty       int64
	AvgDailyDemand *float64
	CreatedAt      time.Time
}

// InventoryDetail returns the most recent inventory snapshots in scope.
func (r *PGRepository) InventoryDetail(ctx context.Context, def Definition, scope shared.Scope) ([]InventoryRow, error) {
	where, args := wherePredicates(def, scope)
	query := fmt.Sprintf(`SELECT id, client_id, sku, system_qty, physical_qty, stock_qty,
		avg_daily_demand, created_at
		FROM fact_inventory WHERE %s ORDER BY created_at DESC LIMIT %d`, where, detailLimit)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("kpi %s detail: %w", def.Code, err)
	}
	defer rows.Close()

	var out []InventoryRow
	for rows.Next() {
		var row InventoryRow
		if err := rows.Scan(&row.ID, &row.ClientID, &row.SKU, &row.SystemQty,
			&row.PhysicalQty, &row.StockQty, &row.AvgDailyDemand, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
