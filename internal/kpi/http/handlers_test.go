package kpihttp

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/warepulse/warepulse/internal/kpi"
	"github.com/warepulse/warepulse/internal/shared"
)

type mockService struct {
	lastScope shared.Scope
	lastCode  kpi.Code
	lastOpts  kpi.ReportOptions
	snapshots []kpi.Snapshot
	detail    kpi.Detail
	rows      []kpi.DetailRow
	report    kpi.Report
}

func (m *mockService) Overview(ctx context.Context, scope shared.Scope) ([]kpi.Snapshot, error) {
	m.lastScope = scope
	return m.snapshots, nil
}

func (m *mockService) DetailFor(ctx context.Context, code kpi.Code, scope shared.Scope) (kpi.Detail, error) {
	m.lastCode = code
	m.lastScope = scope
	return m.detail, nil
}

func (m *mockService) ExportDetail(ctx context.Context, code kpi.Code, scope shared.Scope) ([]kpi.DetailRow, error) {
	m.lastCode = code
	m.lastScope = scope
	return m.rows, nil
}

func (m *mockService) BuildReport(ctx context.Context, scope shared.Scope, dateRange string, opts kpi.ReportOptions) (kpi.Report, error) {
	m.lastScope = scope
	m.lastOpts = opts
	return m.report, nil
}

func newTestRouter(service DashboardService) http.Handler {
	h := NewHandler(slog.New(slog.DiscardHandler), service)
	r := chi.NewRouter()
	r.Route("/kpis", h.MountRoutes)
	r.Route("/reports", h.MountReportRoutes)
	return r
}

func doRequest(t *testing.T, router http.Handler, target string, identity *shared.Identity) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if identity != nil {
		req = req.WithContext(shared.ContextWithIdentity(req.Context(), identity))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestOverviewForcesClientScope(t *testing.T) {
	service := &mockService{snapshots: []kpi.Snapshot{{Code: kpi.CodeOTD, Value: 91}}}
	router := newTestRouter(service)

	rec := doRequest(t, router, "/kpis/overview?clientId=OTHERCO",
		&shared.Identity{UserID: 7, Role: shared.RoleClient, ClientID: "ACME"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if service.lastScope.ClientID != "ACME" {
		t.Fatalf("scope client = %q, want ACME", service.lastScope.ClientID)
	}
	if !strings.Contains(rec.Body.String(), `"OTD"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestDetailUnknownCodeReturns404(t *testing.T) {
	router := newTestRouter(&mockService{})

	rec := doRequest(t, router, "/kpis/NOPE/detail",
		&shared.Identity{UserID: 1, Role: shared.RoleAdmin})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDetailLowercaseCodeAccepted(t *testing.T) {
	service := &mockService{}
	router := newTestRouter(service)

	rec := doRequest(t, router, "/kpis/otd/detail",
		&shared.Identity{UserID: 1, Role: shared.RoleAdmin})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if service.lastCode != kpi.CodeOTD {
		t.Fatalf("code = %s", service.lastCode)
	}
}

func TestExportCSVSetsAttachment(t *testing.T) {
	service := &mockService{rows: []kpi.DetailRow{{ID: "ob-1", Client: "Acme", Status: "On time"}}}
	router := newTestRouter(service)

	rec := doRequest(t, router, "/kpis/OTD/export?format=csv",
		&shared.Identity{UserID: 1, Role: shared.RoleAdmin})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "otd_detail.csv") {
		t.Fatalf("content disposition = %q", got)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("content type = %q", got)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	router := newTestRouter(&mockService{})

	rec := doRequest(t, router, "/kpis/OTD/export?format=pdf",
		&shared.Identity{UserID: 1, Role: shared.RoleAdmin})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestReportExportExcel(t *testing.T) {
	router := newTestRouter(&mockService{})

	rec := doRequest(t, router, "/reports/export?format=excel&kpis=OTD,OTIF",
		&shared.Identity{UserID: 1, Role: shared.RoleAdmin})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, ".xlsx") {
		t.Fatalf("content disposition = %q", got)
	}
}

func TestReportExportDetailDefaults(t *testing.T) {
	service := &mockService{}
	router := newTestRouter(service)

	rec := doRequest(t, router, "/reports/export",
		&shared.Identity{UserID: 1, Role: shared.RoleAdmin})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !service.lastOpts.IncludeDetails {
		t.Fatal("details must be included when the parameter is absent")
	}
	if service.lastOpts.IncludeTrends {
		t.Fatal("trends must be opt-in")
	}

	rec = doRequest(t, router, "/reports/export?includeDetails=false",
		&shared.Identity{UserID: 1, Role: shared.RoleAdmin})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if service.lastOpts.IncludeDetails {
		t.Fatal("includeDetails=false must disable detail sections")
	}
}

func TestReportExportRejectsUnknownKPI(t *testing.T) {
	router := newTestRouter(&mockService{})

	rec := doRequest(t, router, "/reports/export?kpis=NOPE",
		&shared.Identity{UserID: 1, Role: shared.RoleAdmin})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
