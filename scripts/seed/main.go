// Command seed populates a development database with demo tenants, accounts
// and ninety days of warehouse facts.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/warepulse/warepulse/internal/app"
	"github.com/warepulse/warepulse/internal/platform/db"
)

const (
	seedDays          = 90
	inboundPerDay     = 6
	outboundPerDay    = 14
	inventoryPerDay   = 8
	demoAdminEmail    = "admin@warepulse.local"
	demoClientEmail   = "client@acme.local"
	demoUserPassword  = "changeme"
	demoClientForUser = "ACME"
)

var clients = []struct{ id, name string }{
	{"ACME", "Acme Retail"},
	{"NORDIC", "Nordic Goods"},
	{"VERTEX", "Vertex Electronics"},
	{"HELIX", "Helix Pharma"},
}

var providers = []struct{ id, name string }{
	{"TRANSCO", "Transco Freight"},
	{"ROADLINK", "Roadlink Logistics"},
	{"SEABORNE", "Seaborne Carriers"},
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := app.LoadConfig()
	if err != nil {
		logger.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	gofakeit.Seed(42)

	for _, c := range clients {
		if _, err := pool.Exec(ctx,
			`INSERT INTO clients (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
			c.id, c.name); err != nil {
			logger.Error("seed client", slog.String("id", c.id), slog.Any("error", err))
			os.Exit(1)
		}
	}
	for _, p := range providers {
		if _, err := pool.Exec(ctx,
			`INSERT INTO providers (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
			p.id, p.name); err != nil {
			logger.Error("seed provider", slog.String("id", p.id), slog.Any("error", err))
			os.Exit(1)
		}
	}

	if err := seedUsers(ctx, pool); err != nil {
		logger.Error("seed users", slog.Any("error", err))
		os.Exit(1)
	}
	if err := seedFacts(ctx, pool); err != nil {
		logger.Error("seed facts", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("seed complete",
		slog.Int("clients", len(clients)),
		slog.Int("providers", len(providers)),
		slog.Int("days", seedDays))
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(demoUserPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx,
		`INSERT INTO users (username, email, password_hash, role)
		 VALUES ($1, $2, $3, 'admin') ON CONFLICT (email) DO NOTHING`,
		"admin", demoAdminEmail, string(hash)); err != nil {
		return err
	}
	_, err = pool.Exec(ctx,
		`INSERT INTO users (username, email, password_hash, role, client_id)
		 VALUES ($1, $2, $3, 'client', $4) ON CONFLICT (email) DO NOTHING`,
		"acme-ops", demoClientEmail, string(hash), demoClientForUser)
	return err
}

func seedFacts(ctx context.Context, pool *pgxpool.Pool) error {
	batch := &pgx.Batch{}
	now := time.Now().UTC()

	for day := 0; day < seedDays; day++ {
		at := now.AddDate(0, 0, -day)

		for i := 0; i < inboundPerDay; i++ {
			client := clients[gofakeit.Number(0, len(clients)-1)]
			provider := providers[gofakeit.Number(0, len(providers)-1)]
			received := int64(gofakeit.Number(50, 800))
			damaged := int64(0)
			if gofakeit.Number(0, 9) == 0 {
				damaged = int64(gofakeit.Number(1, int(received)/10))
			}
			arrival := at.Add(-time.Duration(gofakeit.Number(1, 12)) * time.Hour)
			var putaway *time.Time
			if gofakeit.Number(0, 19) != 0 {
				t := arrival.Add(time.Duration(gofakeit.Number(1, 9)) * time.Hour)
				putaway = &t
			}
			batch.Queue(
				`INSERT INTO fact_inbound (id, client_id, provider_id, sku, received_units, damaged_units, arrival_at, putaway_at, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				uuid.NewString(), client.id, provider.id, sku(), received, damaged, arrival, putaway, at)
		}

		for i := 0; i < outboundPerDay; i++ {
			client := clients[gofakeit.Number(0, len(clients)-1)]
			ordered := int64(gofakeit.Number(5, 200))
			picked := ordered
			if gofakeit.Number(0, 14) == 0 {
				picked = ordered - int64(gofakeit.Number(1, int(ordered)))
			}
			promised := at.Add(time.Duration(gofakeit.Number(24, 96)) * time.Hour)
			var shipped *time.Time
			if gofakeit.Number(0, 9) != 0 {
				t := promised.Add(-time.Duration(gofakeit.Number(-12, 24)) * time.Hour)
				shipped = &t
			}
			cutoff := at.Add(time.Duration(gofakeit.Number(4, 10)) * time.Hour)
			var ready *time.Time
			if gofakeit.Number(0, 19) != 0 {
				t := cutoff.Add(time.Duration(gofakeit.Number(-3, 2)) * time.Hour)
				ready = &t
			}
			var team *string
			if gofakeit.Number(0, 1) == 0 {
				t := fmt.Sprintf("TEAM-%d", gofakeit.Number(1, 4))
				team = &t
			}
			batch.Queue(
				`INSERT INTO fact_outbound (id, client_id, team_id, sku, order_id, promised_date, shipped_date, picked_units, ordered_units, ready_at, cutoff_time, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				uuid.NewString(), client.id, team, sku(),
				fmt.Sprintf("ORD-%s", uuid.NewString()[:8]),
				promised, shipped, picked, ordered, ready, cutoff, at)
		}

		for i := 0; i < inventoryPerDay; i++ {
			client := clients[gofakeit.Number(0, len(clients)-1)]
			system := int64(gofakeit.Number(100, 5000))
			physical := system
			if gofakeit.Number(0, 9) == 0 {
				physical = system + int64(gofakeit.Number(-50, 50))
			}
			demand := float64(gofakeit.Number(10, 400))
			batch.Queue(
				`INSERT INTO fact_inventory (id, client_id, sku, system_qty, physical_qty, stock_qty, avg_daily_demand, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				uuid.NewString(), client.id, sku(), system, physical, physical, demand, at)
		}
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert %d: %w", i, err)
		}
	}
	return nil
}

func sku() string {
	return fmt.Sprintf("SKU-%s-%03d", gofakeit.LetterN(3), gofakeit.Number(1, 999))
}
