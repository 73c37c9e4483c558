package kpihttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/warepulse/warepulse/internal/kpi"
	"github.com/warepulse/warepulse/internal/kpi/export"
	"github.com/warepulse/warepulse/internal/platform/httpx"
	"github.com/warepulse/warepulse/internal/shared"
)

const requestTimeout = 15 * time.Second

// DashboardService defines the KPI data contract used by the handler.
type DashboardService interface {
	Overview(ctx context.Context, scope shared.Scope) ([]kpi.Snapshot, error)
	DetailFor(ctx context.Context, code kpi.Code, scope shared.Scope) (kpi.Detail, error)
	ExportDetail(ctx context.Context, code kpi.Code, scope shared.Scope) ([]kpi.DetailRow, error)
	BuildReport(ctx context.Context, scope shared.Scope, dateRange string, opts kpi.ReportOptions) (kpi.Report, error)
}

// Handler coordinates HTTP requests for the KPI dashboard.
type Handler struct {
	logger  *slog.Logger
	service DashboardService
	csvPool sync.Pool
	now     func() time.Time
}

// NewHandler constructs the KPI HTTP handler.
func NewHandler(logger *slog.Logger, service DashboardService) *Handler {
	h := &Handler{
		logger:  logger,
		service: service,
		now:     time.Now,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func (h *Handler) parseFilters(r *http.Request) shared.FilterParams {
	q := r.URL.Query()
	return shared.FilterParams{
		DateRange:  strings.TrimSpace(q.Get("dateRange")),
		ClientID:   strings.TrimSpace(q.Get("clientId")),
		ProviderID: strings.TrimSpace(q.Get("providerId")),
		From:       strings.TrimSpace(q.Get("from")),
		To:         strings.TrimSpace(q.Get("to")),
	}
}

func (h *Handler) resolveScope(r *http.Request) (shared.Scope, shared.FilterParams) {
	identity := shared.IdentityFromContext(r.Context())
	filters := h.parseFilters(r)
	return shared.ResolveScope(h.now().UTC(), identity, filters), filters
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	scope, _ := h.resolveScope(r)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	snapshots, err := h.service.Overview(ctx, scope)
	if err != nil {
		h.logger.Error("kpi overview failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snapshots)
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	code, ok := parseCode(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	scope, _ := h.resolveScope(r)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	detail, err := h.service.DetailFor(ctx, code, scope)
	if err != nil {
		if errors.Is(err, shared.ErrUnknownKPI) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("kpi detail failed", slog.String("code", string(code)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	code, ok := parseCode(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "json" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "format must be csv or json")
		return
	}
	scope, _ := h.resolveScope(r)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rows, err := h.service.ExportDetail(ctx, code, scope)
	if err != nil {
		if errors.Is(err, shared.ErrUnknownKPI) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("kpi export failed", slog.String("code", string(code)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if rows == nil {
		rows = []kpi.DetailRow{}
	}

	if format == "json" {
		httpx.JSON(w, http.StatusOK, map[string]interface{}{
			"kpi":  code,
			"data": rows,
		})
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteDetailCSV(buf, code, rows); err != nil {
		h.logger.Error("write detail csv failed", slog.String("code", string(code)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	streamAttachment(w, h.logger, buf.Bytes(), "text/csv; charset=utf-8",
		fmt.Sprintf("%s_detail.csv", strings.ToLower(string(code))))
}

func (h *Handler) handleReportExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := strings.ToLower(strings.TrimSpace(q.Get("format")))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "excel" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "format must be csv or excel")
		return
	}

	// Detail sections ship unless explicitly turned off; trends are opt-in.
	opts := kpi.ReportOptions{
		IncludeDetails: true,
		IncludeTrends:  parseBool(q.Get("includeTrends")),
	}
	if raw := q.Get("includeDetails"); raw != "" {
		opts.IncludeDetails = parseBool(raw)
	}
	if raw := strings.TrimSpace(q.Get("kpis")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			code := kpi.Code(strings.ToUpper(strings.TrimSpace(part)))
			if _, ok := kpi.Lookup(code); !ok {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed",
					fmt.Sprintf("unknown KPI code %q", part))
				return
			}
			opts.Codes = append(opts.Codes, code)
		}
	}

	scope, filters := h.resolveScope(r)
	dateRange := filters.DateRange
	if dateRange == "" {
		dateRange = "30d"
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.service.BuildReport(ctx, scope, dateRange, opts)
	if err != nil {
		h.logger.Error("build report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	datestamp := h.now().UTC().Format("2006-01-02")
	if format == "excel" {
		if err := export.WriteReportXLSX(buf, report); err != nil {
			h.logger.Error("write report xlsx failed", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		streamAttachment(w, h.logger, buf.Bytes(),
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			fmt.Sprintf("3pl-report-%s.xlsx", datestamp))
		return
	}

	if err := export.WriteReportCSV(buf, report); err != nil {
		h.logger.Error("write report csv failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	streamAttachment(w, h.logger, buf.Bytes(), "text/csv; charset=utf-8",
		fmt.Sprintf("3pl-report-%s.csv", datestamp))
}

func parseCode(r *http.Request) (kpi.Code, bool) {
	raw := strings.ToUpper(strings.TrimSpace(urlParam(r, "code")))
	code := kpi.Code(raw)
	_, ok := kpi.Lookup(code)
	return code, ok
}

func parseBool(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

func streamAttachment(w http.ResponseWriter, logger *slog.Logger, payload []byte, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(payload); err != nil && logger != nil {
		logger.Error("stream attachment failed", slog.String("filename", filename), slog.Any("error", err))
	}
}
