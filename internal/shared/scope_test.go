package shared

import (
	"testing"
	"time"
)

func TestResolveScopeForcesClientTenant(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	id := &Identity{UserID: 7, Role: RoleClient, ClientID: "ACME"}

	scope := ResolveScope(now, id, FilterParams{ClientID: "OTHERCO"})
	if scope.ClientID != "ACME" {
		t.Fatalf("expected forced client ACME, got %q", scope.ClientID)
	}
}

func TestResolveScopeAdminKeepsRequestedClient(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	id := &Identity{UserID: 1, Role: RoleAdmin}

	scope := ResolveScope(now, id, FilterParams{ClientID: "OTHERCO", ProviderID: "TRANSCO"})
	if scope.ClientID != "OTHERCO" {
		t.Fatalf("expected OTHERCO, got %q", scope.ClientID)
	}
	if scope.ProviderID != "TRANSCO" {
		t.Fatalf("expected TRANSCO, got %q", scope.ProviderID)
	}
}

func TestResolveScopeExplicitRangeIncludesEndDay(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	scope := ResolveScope(now, nil, FilterParams{From: "2026-01-01", To: "2026-01-31"})
	if got := scope.From.Format("2006-01-02"); got != "2026-01-01" {
		t.Fatalf("from = %s", got)
	}
	if !scope.To.After(time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC)) {
		t.Fatalf("end day not inclusive: %v", scope.To)
	}
	if !scope.To.Before(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("scope leaks into next day: %v", scope.To)
	}
}

func TestResolveScopeDateRangePresets(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		dateRange string
		days      int
	}{
		{"7d", 7},
		{"30d", 30},
		{"90d", 90},
		{"", 30},
		{"bogus", 30},
	}
	for _, tc := range cases {
		scope := ResolveScope(now, nil, FilterParams{DateRange: tc.dateRange})
		want := now.AddDate(0, 0, -tc.days)
		if !scope.From.Equal(want) {
			t.Fatalf("dateRange %q: from = %v, want %v", tc.dateRange, scope.From, want)
		}
		if !scope.To.Equal(now) {
			t.Fatalf("dateRange %q: to = %v", tc.dateRange, scope.To)
		}
	}
}

func TestResolveScopePartialExplicitRangeFallsBack(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	scope := ResolveScope(now, nil, FilterParams{From: "2026-01-01"})
	if !scope.From.Equal(now.AddDate(0, 0, -30)) {
		t.Fatalf("expected 30d fallback, got %v", scope.From)
	}
}

func TestScopeTokenStableWithinMinute(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 10, 0, time.UTC)

	a := ResolveScope(base, nil, FilterParams{DateRange: "30d"})
	b := ResolveScope(base.Add(time.Second), nil, FilterParams{DateRange: "30d"})
	if a.Token() != b.Token() {
		t.Fatalf("tokens drift within a minute: %q vs %q", a.Token(), b.Token())
	}

	c := ResolveScope(base.Add(time.Minute), nil, FilterParams{DateRange: "30d"})
	if a.Token() == c.Token() {
		t.Fatal("token must roll over on the next minute bucket")
	}
}

func TestScopeTokenDistinguishesTenants(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	a := ResolveScope(now, nil, FilterParams{ClientID: "ACME"})
	b := ResolveScope(now, nil, FilterParams{ClientID: "NORDIC"})
	if a.Token() == b.Token() {
		t.Fatal("tokens must differ per tenant")
	}
	if a.Token() != ResolveScope(now, nil, FilterParams{ClientID: "ACME"}).Token() {
		t.Fatal("token must be stable for identical scopes")
	}
}
