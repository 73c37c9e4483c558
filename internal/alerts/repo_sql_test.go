package alerts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// date_trunc over a bare timestamptz is only STABLE, which Postgres rejects
// in index expressions; the UTC cast keeps the dedup index creatable.
func TestDedupIndexHourBucketIsImmutable(t *testing.T) {
	ddl, err := os.ReadFile(filepath.Join("..", "..", "migrations", "0001_init.sql"))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}

	start := strings.Index(string(ddl), "alerts_dedup_hour_idx")
	if start < 0 {
		t.Fatal("dedup index missing from migration")
	}
	stmt := string(ddl)[start:]
	if end := strings.Index(stmt, ";"); end > 0 {
		stmt = stmt[:end]
	}

	if !strings.Contains(stmt, "date_trunc('hour', created_at AT TIME ZONE 'UTC')") {
		t.Fatalf("dedup index must bucket on an immutable expression, got: %s", stmt)
	}
	if !strings.Contains(stmt, "WHERE NOT resolved") {
		t.Fatalf("dedup index must only cover open alerts, got: %s", stmt)
	}
}
