package kpi

import (
	"fmt"
	"math"
)

// Drill-down rows are sourced from the fact tables under the same scope
// predicates as the aggregates. Each KPI carries its own row shape.

const dayLayout = "2006-01-02"

func clientName(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}

func inventoryDetailRows(def Definition, names map[string]string, rows []InventoryRow) []DetailRow {
	out := make([]DetailRow, 0, len(rows))
	for _, row := range rows {
		detail := DetailRow{
			ID:     row.ID,
			Client: clientName(names, row.ClientID),
			SKU:    row.SKU,
		}
		switch def.Code {
		case CodeDOH:
			days := 0.0
			if row.AvgDailyDemand != nil && *row.AvgDailyDemand > 0 {
				days = float64(row.StockQty) / *row.AvgDailyDemand
			}
			detail.Quantity = row.StockQty
			detail.Value = Round(def, days)
			if days < 5 {
				detail.Status = "Low stock"
			} else {
				detail.Status = "Normal stock"
			}
		case CodeIRA:
			detail.Quantity = row.SystemQty
			detail.Value = float64(row.PhysicalQty)
			if diff := row.SystemQty - row.PhysicalQty; diff >= -2 && diff <= 2 {
				detail.Status = "Exact"
			} else {
				detail.Status = "Variance"
			}
		}
		out = append(out, detail)
	}
	return out
}

func inboundDetailRows(def Definition, names map[string]string, rows []InboundRow) []DetailRow {
	out := make([]DetailRow, 0, len(rows))
	for _, row := range rows {
		detail := DetailRow{
			ID:     row.ID,
			Client: clientName(names, row.ClientID),
			SKU:    row.SKU,
		}
		switch def.Code {
		case CodeDamages:
			rate := 0.0
			if row.ReceivedUnits > 0 {
				rate = float64(row.DamagedUnits) / float64(row.ReceivedUnits) * 100
			}
			detail.Quantity = row.ReceivedUnits
			detail.Value = Round(def, rate)
			if row.DamagedUnits > 0 {
				detail.Status = "Damaged"
			} else {
				detail.Status = "Good"
			}
		case CodeD2S:
			detail.Quantity = row.ReceivedUnits
			if row.PutawayAt == nil {
				detail.Status = "In process"
				break
			}
			hours := row.PutawayAt.Sub(row.ArrivalAt).Hours()
			detail.Value = Round(def, hours)
			if hours <= def.Target {
				detail.Status = "On time"
			} else {
				detail.Status = "Exceeded allowed time"
			}
		}
		out = append(out, detail)
	}
	return out
}

func outboundDetailRows(def Definition, names map[string]string, rows []OutboundRow) []DetailRow {
	out := make([]DetailRow, 0, len(rows))
	for _, row := range rows {
		detail := DetailRow{
			ID:           row.ID,
			OrderID:      row.OrderID,
			Client:       clientName(names, row.ClientID),
			SKU:          row.SKU,
			PromisedDate: row.PromisedDate.Format(dayLayout),
		}
		if row.ShippedDate != nil {
			detail.DeliveryDate = row.ShippedDate.Format(dayLayout)
		}
		switch def.Code {
		case CodeOTD:
			detail.Quantity = row.OrderedUnits
			if onTime(row) {
				detail.Value = 100
				detail.Status = "On time"
			} else {
				detail.Status = "Late"
			}
		case CodePicking:
			detail.Quantity = row.OrderedUnits
			detail.PickedQuantity = row.PickedUnits
			detail.Value = float64(row.PickedUnits)
			diff := row.PickedUnits - row.OrderedUnits
			switch {
			case diff == 0:
				detail.Status = "Exact"
				detail.Reason = "Correct"
			case diff < 0:
				detail.Status = "Error"
				detail.Reason = fmt.Sprintf("Short picked %d units", -diff)
			default:
				detail.Status = "Error"
				detail.Reason = fmt.Sprintf("Over picked %d units", diff)
			}
		case CodeLeadTime:
			detail.Quantity = row.PickedUnits
			if row.ShippedDate == nil {
				detail.Status = "Not shipped"
				break
			}
			days := row.ShippedDate.Sub(row.CreatedAt).Hours() / 24
			detail.Value = Round(def, days)
			switch {
			case days < 0:
				detail.Status = "Invalid data"
			case days <= def.Target:
				detail.Status = "Within target"
			default:
				detail.Status = "Over target"
			}
		case CodeReadyOT:
			detail.Quantity = row.OrderedUnits
			if row.ReadyAt == nil {
				detail.Status = "Not ready"
				break
			}
			if !row.ReadyAt.After(row.CutoffTime) {
				detail.Value = 100
				detail.Status = "Ready on time"
			} else {
				detail.Status = "Late"
			}
		case CodeProductivity:
			// The row identifier for productivity is the picking team, not
			// an order.
			if row.TeamID != nil {
				detail.OrderID = *row.TeamID
			}
			if row.ReadyAt == nil {
				detail.Status = "In process"
				break
			}
			hours := row.ReadyAt.Sub(row.CreatedAt).Hours()
			detail.Quantity = int64(math.Ceil(hours))
			rate := 0.0
			if hours > 0 {
				rate = float64(row.PickedUnits) / hours
			}
			detail.Value = Round(def, rate)
			switch {
			case rate >= def.Target:
				detail.Status = "Target met"
			case rate >= def.Target*0.8:
				detail.Status = "Below target"
			default:
				detail.Status = "Critical"
			}
		case CodeOTIF:
			detail.Quantity = row.OrderedUnits
			detail.PickedQuantity = row.PickedUnits
			isOnTime := onTime(row)
			isInFull := row.PickedUnits >= row.OrderedUnits
			detail.OnTime = yesNo(isOnTime)
			detail.InFull = yesNo(isInFull)
			if isOnTime && isInFull {
				detail.Value = 100
				detail.Status = "OTIF met"
			} else {
				detail.Status = "OTIF missed"
				detail.FailureAnalysis = otifFailure(row, isOnTime, isInFull)
			}
		}
		out = append(out, detail)
	}
	return out
}

func onTime(row OutboundRow) bool {
	return row.ShippedDate != nil && !row.ShippedDate.After(row.PromisedDate)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func otifFailure(row OutboundRow, isOnTime, isInFull bool) string {
	var parts []string
	if !isOnTime && row.ShippedDate != nil {
		delay := int(math.Ceil(row.ShippedDate.Sub(row.PromisedDate).Hours() / 24))
		if delay < 1 {
			delay = 1
		}
		parts = append(parts, fmt.Sprintf("%d days late", delay))
	}
	if !isInFull {
		parts = append(parts, fmt.Sprintf("incomplete (%d units missing)", row.OrderedUnits-row.PickedUnits))
	}
	reason := "not shipped"
	if len(parts) > 0 {
		reason = parts[0]
		if len(parts) == 2 {
			reason = parts[0] + " and " + parts[1]
		}
	}
	shipped := "never"
	if row.ShippedDate != nil {
		shipped = row.ShippedDate.Format(dayLayout)
	}
	return fmt.Sprintf("Promised %s with %d units. Shipped %s with %d units. OTIF failure: %s.",
		row.PromisedDate.Format(dayLayout), row.OrderedUnits, shipped, row.PickedUnits, reason)
}

// sparkline reduces a daily series to its most recent values for the KPI card.
func sparkline(points []TrendPoint, max int) []float64 {
	if len(points) > max {
		points = points[len(points)-max:]
	}
	values := make([]float64, 0, len(points))
	for _, p := range points {
		values = append(values, p.Value)
	}
	return values
}
