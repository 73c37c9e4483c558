package shared

import (
	"strings"
	"time"
)

// FilterParams holds the raw, caller-supplied dashboard filters.
type FilterParams struct {
	DateRange  string
	ClientID   string
	ProviderID string
	From       string
	To         string
}

// Scope is the enforced filter set applied to every data read. It is derived
// once per request from the caller identity plus the requested filters, so
// tenant isolation lives in exactly one place.
type Scope struct {
	From       time.Time
	To         time.Time
	ClientID   string
	ProviderID string
}

const dateLayout = "2006-01-02"

// ResolveScope turns caller identity and requested filters into the enforced
// scope. A client-role caller's own ClientID always wins over the requested
// one, regardless of what the request supplied.
func ResolveScope(now time.Time, id *Identity, filters FilterParams) Scope {
	scope := Scope{
		ClientID:   strings.TrimSpace(filters.ClientID),
		ProviderID: strings.TrimSpace(filters.ProviderID),
	}

	if id != nil && id.Role == RoleClient {
		scope.ClientID = id.ClientID
	}

	if from, errFrom := time.Parse(dateLayout, filters.From); errFrom == nil {
		if to, errTo := time.Parse(dateLayout, filters.To); errTo == nil {
			scope.From = from
			// Include the whole end day.
			scope.To = to.Add(24*time.Hour - time.Nanosecond)
			return scope
		}
	}

	// Preset windows are minute bucketed so repeated dashboard requests
	// share a cache key instead of minting a new one every second.
	now = now.Truncate(time.Minute)
	days := 30
	switch filters.DateRange {
	case "7d":
		days = 7
	case "90d":
		days = 90
	}
	scope.To = now
	scope.From = now.AddDate(0, 0, -days)
	return scope
}

// Token renders a stable cache-key fragment for the scope.
func (s Scope) Token() string {
	client := s.ClientID
	if client == "" {
		client = "-"
	}
	provider := s.ProviderID
	if provider == "" {
		provider = "-"
	}
	return strings.Join([]string{
		s.From.UTC().Format(time.RFC3339),
		s.To.UTC().Format(time.RFC3339),
		client,
		provider,
	}, ":")
}
