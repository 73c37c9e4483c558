package export

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/warepulse/warepulse/internal/kpi"
)

// WriteReportCSV serialises a full report as sectioned CSV: a metadata header
// block, the KPI summary table, then optional per-KPI detail and trend
// tables, separated by blank lines.
func WriteReportCSV(w io.Writer, report kpi.Report) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	meta := report.Metadata
	clientLabel := meta.ClientID
	if clientLabel == "" {
		clientLabel = "All"
	}
	providerLabel := meta.ProviderID
	if providerLabel == "" {
		providerLabel = "All"
	}
	header := [][]string{
		{"3PL Dashboard Report"},
		{"Generated", meta.GeneratedAt.Format(time.RFC3339)},
		{"Date Range", meta.DateRange},
		{"Client", clientLabel},
		{"Provider", providerLabel},
	}
	for _, record := range header {
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	if err := blankLine(writer); err != nil {
		return err
	}
	if err := writer.Write([]string{"KPI Summary"}); err != nil {
		return err
	}
	if err := writer.Write([]string{"KPI", "Current Value", "Target", "Status", "Unit", "Last Updated"}); err != nil {
		return err
	}
	for _, snap := range report.Summary {
		record := []string{
			string(snap.Code),
			formatFloat(snap.Value),
			formatFloat(snap.Target),
			string(snap.Status),
			snap.Unit,
			snap.LastUpdated.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	for _, section := range report.Details {
		if err := blankLine(writer); err != nil {
			return err
		}
		if err := writer.Write([]string{string(section.Code) + " Details"}); err != nil {
			return err
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return err
		}
		if err := WriteDetailCSV(w, section.Code, section.Rows); err != nil {
			return err
		}
	}

	for _, section := range report.Trends {
		if err := blankLine(writer); err != nil {
			return err
		}
		if err := writer.Write([]string{string(section.Code) + " Trend"}); err != nil {
			return err
		}
		if err := writer.Write([]string{"Date", "Value", "Target"}); err != nil {
			return err
		}
		for _, point := range section.Points {
			record := []string{point.Date, formatFloat(point.Value), formatFloat(point.Target)}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

func blankLine(writer *csv.Writer) error {
	return writer.Write([]string{""})
}
