package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/warepulse/warepulse/internal/kpi"
)

// WriteReportXLSX serialises a full report as an Excel workbook: a summary
// sheet plus one sheet per included detail and trend section.
func WriteReportXLSX(w io.Writer, report kpi.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const summarySheet = "Summary"
	f.SetSheetName(f.GetSheetName(0), summarySheet)

	meta := report.Metadata
	metaRows := [][]interface{}{
		{"3PL Dashboard Report"},
		{"Generated", meta.GeneratedAt.Format(time.RFC3339)},
		{"Date Range", meta.DateRange},
		{"Client", orAll(meta.ClientID)},
		{"Provider", orAll(meta.ProviderID)},
		{},
		{"KPI", "Current Value", "Target", "Status", "Unit", "Last Updated"},
	}
	rowIdx := 1
	for _, row := range metaRows {
		if err := setRow(f, summarySheet, rowIdx, row); err != nil {
			return err
		}
		rowIdx++
	}
	for _, snap := range report.Summary {
		row := []interface{}{
			string(snap.Code), snap.Value, snap.Target, string(snap.Status), snap.Unit,
			snap.LastUpdated.Format(time.RFC3339),
		}
		if err := setRow(f, summarySheet, rowIdx, row); err != nil {
			return err
		}
		rowIdx++
	}

	for _, section := range report.Details {
		sheet := string(section.Code) + " Details"
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		cols := columnsFor(section.Code)
		header := make([]interface{}, len(cols))
		for i, col := range cols {
			header[i] = col.name
		}
		if err := setRow(f, sheet, 1, header); err != nil {
			return err
		}
		for i, detailRow := range section.Rows {
			row := make([]interface{}, len(cols))
			for j, col := range cols {
				row[j] = col.value(detailRow)
			}
			if err := setRow(f, sheet, i+2, row); err != nil {
				return err
			}
		}
	}

	for _, section := range report.Trends {
		sheet := string(section.Code) + " Trend"
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		if err := setRow(f, sheet, 1, []interface{}{"Date", "Value", "Target"}); err != nil {
			return err
		}
		for i, point := range section.Points {
			if err := setRow(f, sheet, i+2, []interface{}{point.Date, point.Value, point.Target}); err != nil {
				return err
			}
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx row %d: %w", row, err)
	}
	return nil
}

func orAll(v string) string {
	if v == "" {
		return "All"
	}
	return v
}
