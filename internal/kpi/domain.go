// Package kpi computes the ten warehouse KPIs surfaced on the operations
// dashboard from the inbound, outbound and inventory fact tables.
package kpi

import (
	"math"
	"time"
)

// Code identifies one of the ten fixed dashboard KPIs.
type Code string

const (
	CodeDOH          Code = "DOH"
	CodeDamages      Code = "DAMAGES"
	CodeIRA          Code = "IRA"
	CodeD2S          Code = "D2S"
	CodeOTD          Code = "OTD"
	CodePicking      Code = "PICKING"
	CodeLeadTime     Code = "LEADTIME"
	CodeReadyOT      Code = "READYOT"
	CodeProductivity Code = "PRODUCTIVITY"
	CodeOTIF         Code = "OTIF"
)

// Status classifies a KPI value against its target band.
type Status string

const (
	StatusGood     Status = "good"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Polarity states whether a larger value is better or worse.
type Polarity int

const (
	// HigherIsBetter applies to accuracy and service-level ratios.
	HigherIsBetter Polarity = iota
	// LowerIsBetter applies to damage rates and elapsed-time measures.
	LowerIsBetter
)

// Definition is the immutable description of a KPI: presentation metadata,
// target band, and the aggregate expression used against the fact store.
type Definition struct {
	Code     Code
	Label    string
	Unit     string
	Target   float64
	Polarity Polarity
	// Decimals controls rounding before classification.
	Decimals int
	// FixedBands overrides the generic polarity bands with absolute
	// good/warning cutoffs (used by OTIF, which classifies against 95/90
	// independent of the configured target).
	FixedBands *Bands

	// Fact-store descriptor consumed by the repository.
	Table     string
	ValueExpr string
	Extra     string
}

// Bands holds absolute classification cutoffs for higher-is-better KPIs.
type Bands struct {
	Good    float64
	Warning float64
}

// Snapshot is one freshly computed KPI value; it is never persisted.
type Snapshot struct {
	Code        Code      `json:"code"`
	Label       string    `json:"label"`
	Value       float64   `json:"value"`
	Target      float64   `json:"target"`
	Unit        string    `json:"unit"`
	Status      Status    `json:"status"`
	Delta       float64   `json:"delta"`
	Trend       []float64 `json:"trend"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// TrendPoint is one day-bucketed aggregate in a historical series.
type TrendPoint struct {
	Date   string  `json:"date"`
	Value  float64 `json:"value"`
	Target float64 `json:"target"`
}

// DistributionSlice compares one client against the KPI target.
type DistributionSlice struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
	Target   float64 `json:"target"`
	Orders   int64   `json:"orders"`
	// OTIF decomposition for stacked visualization; zero elsewhere.
	OnTimeRate float64 `json:"onTimeRate,omitempty"`
	InFullRate float64 `json:"inFullRate,omitempty"`
}

// DetailRow is one drill-down record. Shapes are bespoke per KPI, so most
// fields are optional.
type DetailRow struct {
	ID              string  `json:"id"`
	OrderID         string  `json:"orderId,omitempty"`
	Client          string  `json:"client"`
	SKU             string  `json:"sku,omitempty"`
	PromisedDate    string  `json:"promisedDate,omitempty"`
	DeliveryDate    string  `json:"deliveryDate,omitempty"`
	Quantity        int64   `json:"quantity,omitempty"`
	PickedQuantity  int64   `json:"pickedQuantity,omitempty"`
	Value           float64 `json:"value"`
	Status          string  `json:"status"`
	Reason          string  `json:"reason,omitempty"`
	OnTime          string  `json:"onTime,omitempty"`
	InFull          string  `json:"inFull,omitempty"`
	FailureAnalysis string  `json:"failureAnalysis,omitempty"`
}

// Detail bundles everything the drill-down view needs for one KPI.
type Detail struct {
	Trend        []TrendPoint        `json:"trend"`
	Distribution []DistributionSlice `json:"distribution"`
	Detail       []DetailRow         `json:"detail"`
}

// definitions is the single source of truth for the ten KPIs. The aggregator
// iterates this table; per-KPI behavior never branches anywhere else.
var definitions = []Definition{
	{
		Code: CodeDOH, Label: "Days on Hand", Unit: "days", Target: 15, Polarity: LowerIsBetter, Decimals: 1,
		Table:     "fact_inventory",
		ValueExpr: "COALESCE(AVG(CASE WHEN avg_daily_demand > 0 THEN stock_qty / avg_daily_demand ELSE 0 END), 0)",
	},
	{
		Code: CodeDamages, Label: "Damaged Receipts", Unit: "%", Target: 2, Polarity: LowerIsBetter, Decimals: 1,
		Table:     "fact_inbound",
		ValueExpr: "CASE WHEN COALESCE(SUM(received_units), 0) > 0 THEN SUM(damaged_units)::float8 / SUM(received_units) * 100 ELSE 0 END",
	},
	{
		Code: CodeIRA, Label: "Inventory Record Accuracy", Unit: "%", Target: 95, Polarity: HigherIsBetter, Decimals: 1,
		Table:     "fact_inventory",
		ValueExpr: "COALESCE(AVG(CASE WHEN physical_qty > 0 THEN (1 - ABS(system_qty - physical_qty)::float8 / physical_qty) * 100 ELSE 0 END), 0)",
	},
	{
		Code: CodeD2S, Label: "Dock to Stock", Unit: "hours", Target: 4, Polarity: LowerIsBetter, Decimals: 1,
		Table:     "fact_inbound",
		ValueExpr: "COALESCE(AVG(EXTRACT(EPOCH FROM (putaway_at - arrival_at)) / 3600), 0)",
		Extra:     "putaway_at IS NOT NULL",
	},
	{
		Code: CodeOTD, Label: "On-Time Delivery", Unit: "%", Target: 90, Polarity: HigherIsBetter, Decimals: 1,
		Table:     "fact_outbound",
		ValueExpr: "CASE WHEN COUNT(*) > 0 THEN COUNT(*) FILTER (WHERE shipped_date <= promised_date)::float8 / COUNT(*) * 100 ELSE 0 END",
		Extra:     "shipped_date IS NOT NULL",
	},
	{
		Code: CodePicking, Label: "Picking Accuracy", Unit: "%", Target: 98, Polarity: HigherIsBetter, Decimals: 1,
		Table:     "fact_outbound",
		ValueExpr: "CASE WHEN COUNT(*) > 0 THEN COUNT(*) FILTER (WHERE picked_units = ordered_units)::float8 / COUNT(*) * 100 ELSE 0 END",
		Extra:     "ordered_units > 0",
	},
	{
		Code: CodeLeadTime, Label: "Internal Lead Time", Unit: "days", Target: 2, Polarity: LowerIsBetter, Decimals: 1,
		Table:     "fact_outbound",
		ValueExpr: "COALESCE(AVG(EXTRACT(EPOCH FROM (shipped_date - created_at)) / 86400), 0)",
		Extra:     "shipped_date IS NOT NULL",
	},
	{
		Code: CodeReadyOT, Label: "Ready on Time", Unit: "%", Target: 90, Polarity: HigherIsBetter, Decimals: 1,
		Table:     "fact_outbound",
		ValueExpr: "CASE WHEN COUNT(*) > 0 THEN COUNT(*) FILTER (WHERE ready_at <= cutoff_time)::float8 / COUNT(*) * 100 ELSE 0 END",
		Extra:     "ready_at IS NOT NULL",
	},
	{
		Code: CodeProductivity, Label: "Productivity", Unit: "units/h", Target: 160, Polarity: HigherIsBetter, Decimals: 0,
		Table:     "fact_outbound",
		ValueExpr: "CASE WHEN COALESCE(SUM(EXTRACT(EPOCH FROM (ready_at - created_at)) / 3600), 0) > 0 THEN SUM(picked_units)::float8 / SUM(EXTRACT(EPOCH FROM (ready_at - created_at)) / 3600) ELSE 0 END",
		Extra:     "ready_at IS NOT NULL",
	},
	{
		Code: CodeOTIF, Label: "OTIF", Unit: "%", Target: 95, Polarity: HigherIsBetter, Decimals: 1,
		FixedBands: &Bands{Good: 95, Warning: 90},
		Table:      "fact_outbound",
		ValueExpr:  "CASE WHEN COUNT(*) > 0 THEN COUNT(*) FILTER (WHERE shipped_date <= promised_date AND picked_units >= ordered_units)::float8 / COUNT(*) * 100 ELSE 0 END",
		Extra:      "shipped_date IS NOT NULL AND ordered_units > 0",
	},
}

var definitionsByCode = func() map[Code]Definition {
	m := make(map[Code]Definition, len(definitions))
	for _, def := range definitions {
		m[def.Code] = def
	}
	return m
}()

// Definitions returns the ten KPI definitions in dashboard order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup resolves a KPI code.
func Lookup(code Code) (Definition, bool) {
	def, ok := definitionsByCode[code]
	return def, ok
}

// Classify buckets a rounded value into good/warning/critical for the given
// definition. Higher-is-better KPIs warn below target down to 90% of target;
// lower-is-better KPIs warn above target up to 120% of target. OTIF carries
// fixed 95/90 cutoffs independent of the configured target.
func Classify(def Definition, value float64) Status {
	if def.FixedBands != nil {
		switch {
		case value >= def.FixedBands.Good:
			return StatusGood
		case value >= def.FixedBands.Warning:
			return StatusWarning
		default:
			return StatusCritical
		}
	}
	if def.Polarity == HigherIsBetter {
		switch {
		case value >= def.Target:
			return StatusGood
		case value >= def.Target*0.9:
			return StatusWarning
		default:
			return StatusCritical
		}
	}
	switch {
	case value <= def.Target:
		return StatusGood
	case value <= def.Target*1.2:
		return StatusWarning
	default:
		return StatusCritical
	}
}

// Round applies the definition's decimal precision.
func Round(def Definition, value float64) float64 {
	shift := math.Pow(10, float64(def.Decimals))
	return math.Round(value*shift) / shift
}

// NewSnapshot rounds, classifies and packages a raw aggregate value.
func NewSnapshot(def Definition, raw float64, trend []float64, at time.Time) Snapshot {
	value := Round(def, raw)
	return Snapshot{
		Code:        def.Code,
		Label:       def.Label,
		Value:       value,
		Target:      def.Target,
		Unit:        def.Unit,
		Status:      Classify(def, value),
		Delta:       Round(def, value-def.Target),
		Trend:       trend,
		LastUpdated: at,
	}
}
