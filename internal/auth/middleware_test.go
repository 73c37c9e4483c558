package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/warepulse/warepulse/internal/shared"
)

type staticVerifier struct {
	identity *shared.Identity
	err      error
}

func (v staticVerifier) VerifyToken(token string) (*shared.Identity, error) {
	return v.identity, v.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticatorMissingToken(t *testing.T) {
	handler := Authenticator(staticVerifier{})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAuthenticatorInvalidToken(t *testing.T) {
	handler := Authenticator(staticVerifier{err: errors.New("bad")})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAuthenticatorStoresIdentity(t *testing.T) {
	want := &shared.Identity{UserID: 3, Role: shared.RoleAdmin}
	var got *shared.Identity
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = shared.IdentityFromContext(r.Context())
	})
	handler := Authenticator(staticVerifier{identity: want})(inner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got == nil || got.UserID != 3 {
		t.Fatalf("identity = %+v", got)
	}
}

func TestRequireRoleBlocksOtherRoles(t *testing.T) {
	handler := RequireRole(shared.RoleAdmin)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(shared.ContextWithIdentity(req.Context(),
		&shared.Identity{UserID: 9, Role: shared.RoleClient, ClientID: "ACME"}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
	handler := RequireRole(shared.RoleAdmin)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(shared.ContextWithIdentity(req.Context(),
		&shared.Identity{UserID: 1, Role: shared.RoleAdmin}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
