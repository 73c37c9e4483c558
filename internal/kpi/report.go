package kpi

import (
	"context"
	"log/slog"
	"time"

	"github.com/warepulse/warepulse/internal/shared"
)

// ReportOptions controls which sections a report bundles.
type ReportOptions struct {
	Codes          []Code
	IncludeDetails bool
	IncludeTrends  bool
}

// ReportMetadata describes the scope a report was generated under.
type ReportMetadata struct {
	GeneratedAt time.Time `json:"generatedAt"`
	DateRange   string    `json:"dateRange"`
	ClientID    string    `json:"clientId"`
	ProviderID  string    `json:"providerId"`
}

// ReportDetailSection is the drill-down dump for one KPI.
type ReportDetailSection struct {
	Code Code        `json:"kpi"`
	Rows []DetailRow `json:"data"`
}

// ReportTrendSection is the historical series dump for one KPI.
type ReportTrendSection struct {
	Code   Code         `json:"kpi"`
	Points []TrendPoint `json:"trend"`
}

// Report bundles a KPI summary with optional per-KPI detail and trend dumps.
type Report struct {
	Metadata ReportMetadata        `json:"metadata"`
	Summary  []Snapshot            `json:"kpiSummary"`
	Details  []ReportDetailSection `json:"details,omitempty"`
	Trends   []ReportTrendSection  `json:"trends,omitempty"`
}

// BuildReport assembles the export report for the given scope. A failing
// detail or trend section is skipped with a log entry; the summary section is
// mandatory.
func (s *Service) BuildReport(ctx context.Context, scope shared.Scope, dateRange string, opts ReportOptions) (Report, error) {
	codes := opts.Codes
	if len(codes) == 0 {
		for _, def := range Definitions() {
			codes = append(codes, def.Code)
		}
	}

	overview, err := s.Overview(ctx, scope)
	if err != nil {
		return Report{}, err
	}

	selected := make(map[Code]bool, len(codes))
	for _, code := range codes {
		selected[code] = true
	}

	report := Report{
		Metadata: ReportMetadata{
			GeneratedAt: s.now().UTC(),
			DateRange:   dateRange,
			ClientID:    scope.ClientID,
			ProviderID:  scope.ProviderID,
		},
	}
	for _, snap := range overview {
		if selected[snap.Code] {
			report.Summary = append(report.Summary, snap)
		}
	}

	if opts.IncludeDetails {
		for _, code := range codes {
			rows, err := s.ExportDetail(ctx, code, scope)
			if err != nil {
				s.logger.Warn("report detail section skipped", slog.String("code", string(code)), slog.Any("error", err))
				continue
			}
			report.Details = append(report.Details, ReportDetailSection{Code: code, Rows: rows})
		}
	}

	if opts.IncludeTrends {
		trendScope := scope
		trendScope.From = scope.To.AddDate(0, 0, -trendWindowDays)
		for _, code := range codes {
			def, ok := Lookup(code)
			if !ok {
				continue
			}
			points, err := s.repo.DailySeries(ctx, def, trendScope)
			if err != nil {
				s.logger.Warn("report trend section skipped", slog.String("code", string(code)), slog.Any("error", err))
				continue
			}
			report.Trends = append(report.Trends, ReportTrendSection{Code: code, Points: points})
		}
	}

	return report, nil
}
