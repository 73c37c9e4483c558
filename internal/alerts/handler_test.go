package alerts

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warepulse/warepulse/internal/shared"
)

func newAlertRouter(store Store) http.Handler {
	svc := NewService(testLogger(), store, nil)
	h := NewHandler(testLogger(), svc)
	r := chi.NewRouter()
	r.Route("/alerts", func(r chi.Router) {
		h.MountRoutes(r)
		h.MountAdminRoutes(r)
	})
	return r
}

func TestListAlertsScopedToTenant(t *testing.T) {
	store := &mockStore{alerts: []Alert{
		{ID: 1, KpiCode: "OTD", ClientID: ScopeAll, Message: "OTD low"},
		{ID: 2, KpiCode: "DOH", ClientID: "NORDIC", Message: "DOH high"},
	}}
	router := newAlertRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/alerts/", nil)
	req = req.WithContext(shared.ContextWithIdentity(req.Context(),
		&shared.Identity{UserID: 7, Role: shared.RoleClient, ClientID: "ACME"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []Alert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "OTD", got[0].KpiCode)
}

func putConfig(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/alerts/config", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUpdateConfigValidatesPayload(t *testing.T) {
	store := &mockStore{}
	router := newAlertRouter(store)

	rec := putConfig(t, router, `{"OTD":{"warning":0,"critical":0}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.targets)
}

func TestUpdateConfigRejectsEmptyBody(t *testing.T) {
	store := &mockStore{}
	router := newAlertRouter(store)

	rec := putConfig(t, router, `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.targets)
}

func TestUpdateConfigUpsertsPerKPI(t *testing.T) {
	store := &mockStore{}
	router := newAlertRouter(store)

	rec := putConfig(t, router,
		`{"DOH":{"warning":18,"critical":20},"DAMAGES":{"warning":2.5,"critical":3}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.targets, 2)
	byCode := map[string]float64{}
	for _, cfg := range store.targets {
		byCode[cfg.KpiCode] = cfg.Target
		assert.True(t, cfg.AlertEnabled)
	}
	assert.Equal(t, 18.0, byCode["DOH"])
	assert.Equal(t, 2.5, byCode["DAMAGES"])
}

func TestUpdateConfigSkipsUnknownCode(t *testing.T) {
	store := &mockStore{}
	router := newAlertRouter(store)

	rec := putConfig(t, router,
		`{"NOPE":{"warning":1,"critical":2},"OTD":{"warning":92.5,"critical":85}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.targets, 1)
	assert.Equal(t, "OTD", store.targets[0].KpiCode)
	assert.Equal(t, 92.5, store.targets[0].Target)
}

func TestUpdateConfigHonorsEnabledFlag(t *testing.T) {
	store := &mockStore{}
	router := newAlertRouter(store)

	rec := putConfig(t, router,
		`{"OTD":{"warning":90,"critical":81,"alertEnabled":false}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.targets, 1)
	assert.False(t, store.targets[0].AlertEnabled)
}

func TestResolveAlertMarksHandled(t *testing.T) {
	store := &mockStore{}
	router := newAlertRouter(store)

	req := httptest.NewRequest(http.MethodPost, "/alerts/99/resolve", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.resolved, 1)
	assert.Equal(t, int64(99), store.resolved[0])
}
