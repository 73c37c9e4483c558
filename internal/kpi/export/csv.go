// Package export serialises KPI payloads to CSV and XLSX for download.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/warepulse/warepulse/internal/kpi"
)

type column struct {
	name  string
	value func(kpi.DetailRow) string
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// columnsFor returns the drill-down CSV layout for a KPI. Each KPI exposes a
// bespoke row shape, so the header set follows the code.
func columnsFor(code kpi.Code) []column {
	base := []column{
		{"id", func(r kpi.DetailRow) string { return r.ID }},
		{"client", func(r kpi.DetailRow) string { return r.Client }},
		{"sku", func(r kpi.DetailRow) string { return r.SKU }},
	}
	quantityValueStatus := []column{
		{"quantity", func(r kpi.DetailRow) string { return formatInt(r.Quantity) }},
		{"value", func(r kpi.DetailRow) string { return formatFloat(r.Value) }},
		{"status", func(r kpi.DetailRow) string { return r.Status }},
	}

	switch code {
	case kpi.CodeDOH, kpi.CodeIRA, kpi.CodeDamages, kpi.CodeD2S:
		return append(base, quantityValueStatus...)
	case kpi.CodePicking:
		return append(outboundBase(),
			column{"quantity", func(r kpi.DetailRow) string { return formatInt(r.Quantity) }},
			column{"pickedQuantity", func(r kpi.DetailRow) string { return formatInt(r.PickedQuantity) }},
			column{"value", func(r kpi.DetailRow) string { return formatFloat(r.Value) }},
			column{"status", func(r kpi.DetailRow) string { return r.Status }},
			column{"reason", func(r kpi.DetailRow) string { return r.Reason }},
		)
	case kpi.CodeOTIF:
		return append(outboundBase(),
			column{"quantity", func(r kpi.DetailRow) string { return formatInt(r.Quantity) }},
			column{"pickedQuantity", func(r kpi.DetailRow) string { return formatInt(r.PickedQuantity) }},
			column{"value", func(r kpi.DetailRow) string { return formatFloat(r.Value) }},
			column{"onTime", func(r kpi.DetailRow) string { return r.OnTime }},
			column{"inFull", func(r kpi.DetailRow) string { return r.InFull }},
			column{"status", func(r kpi.DetailRow) string { return r.Status }},
			column{"failureAnalysis", func(r kpi.DetailRow) string { return r.FailureAnalysis }},
		)
	default: // OTD, LEADTIME, READYOT, PRODUCTIVITY
		return append(outboundBase(), quantityValueStatus...)
	}
}

func outboundBase() []column {
	return []column{
		{"id", func(r kpi.DetailRow) string { return r.ID }},
		{"orderId", func(r kpi.DetailRow) string { return r.OrderID }},
		{"client", func(r kpi.DetailRow) string { return r.Client }},
		{"sku", func(r kpi.DetailRow) string { return r.SKU }},
		{"promisedDate", func(r kpi.DetailRow) string { return r.PromisedDate }},
		{"deliveryDate", func(r kpi.DetailRow) string { return r.DeliveryDate }},
	}
}

// WriteDetailCSV serialises drill-down rows for one KPI. encoding/csv handles
// quoting of fields containing commas or quotes.
func WriteDetailCSV(w io.Writer, code kpi.Code, rows []kpi.DetailRow) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	cols := columnsFor(code)
	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = col.name
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	record := make([]string, len(cols))
	for _, row := range rows {
		for i, col := range cols {
			record[i] = col.value(row)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
