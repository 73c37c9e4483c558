package kpi

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/warepulse/warepulse/internal/shared"
)

// Repository exposes the fact-store queries the service relies on.
type Repository interface {
	Aggregate(ctx context.Context, def Definition, scope shared.Scope) (float64, error)
	DailySeries(ctx context.Context, def Definition, scope shared.Scope) ([]TrendPoint, error)
	Distribution(ctx context.Context, def Definition, scope shared.Scope) ([]DistributionSlice, error)
	OTIFDistribution(ctx context.Context, scope shared.Scope) ([]DistributionSlice, error)
	ClientNames(ctx context.Context) (map[string]string, error)
	InboundDetail(ctx context.Context, def Definition, scope shared.Scope) ([]InboundRow, error)
	OutboundDetail(ctx context.Context, def Definition, scope shared.Scope) ([]OutboundRow, error)
	InventoryDetail(ctx context.Context, def Definition, scope shared.Scope) ([]InventoryRow, error)
}

// Notifier receives every computed overview batch so critical statuses can
// raise alerts. Implementations must never fail the calling request.
type Notifier interface {
	NotifyCritical(ctx context.Context, snapshots []Snapshot)
}

const (
	sparklinePoints = 10
	trendWindowDays = 90
)

// Service coordinates KPI aggregation with the cache layer and alerting.
type Service struct {
	repo     Repository
	cache    *Cache
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires a Repository with the cache and alert notifier. Cache and
// notifier may be nil.
func NewService(logger *slog.Logger, repo Repository, cache *Cache, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Overview computes one snapshot per KPI code for the given scope. The ten
// aggregates are independent reads and run concurrently. A failed or empty
// aggregate degrades to a zero value for that KPI alone; the batch never
// aborts and no filler value is fabricated.
func (s *Service) Overview(ctx context.Context, scope shared.Scope) ([]Snapshot, error) {
	var snapshots []Snapshot

	loader := func(ctx context.Context) (interface{}, error) {
		return s.computeOverview(ctx, scope), nil
	}

	if s.cache == nil {
		snapshots = s.computeOverview(ctx, scope)
	} else {
		key, err := s.cache.BuildKey(ctx, "kpi", "overview", scope.Token())
		if err != nil {
			return nil, err
		}
		if err := s.cache.FetchJSON(ctx, key, &snapshots, loader); err != nil {
			return nil, err
		}
	}

	// Alerting runs on every overview, cached or not; dedup lives in the
	// alert service.
	if s.notifier != nil {
		s.notifier.NotifyCritical(ctx, snapshots)
	}
	return snapshots, nil
}

func (s *Service) computeOverview(ctx context.Context, scope shared.Scope) []Snapshot {
	defs := Definitions()
	snapshots := make([]Snapshot, len(defs))
	at := s.now().UTC()

	sparkScope := scope
	sparkScope.From = scope.To.AddDate(0, 0, -sparklinePoints)

	g, ctx := errgroup.WithContext(ctx)
	for i, def := range defs {
		g.Go(func() error {
			value, err := s.repo.Aggregate(ctx, def, scope)
			if err != nil {
				s.logger.Error("kpi aggregate failed", slog.String("code", string(def.Code)), slog.Any("error", err))
				value = 0
			}
			points, err := s.repo.DailySeries(ctx, def, sparkScope)
			if err != nil {
				s.logger.Error("kpi sparkline failed", slog.String("code", string(def.Code)), slog.Any("error", err))
				points = nil
			}
			snapshots[i] = NewSnapshot(def, value, sparkline(points, sparklinePoints), at)
			return nil
		})
	}
	_ = g.Wait()
	return snapshots
}

// DetailFor produces the drill-down payload for one KPI: the 90-day trend,
// the per-client distribution, and the per-record rows, all under the same
// enforced scope as the overview.
func (s *Service) DetailFor(ctx context.Context, code Code, scope shared.Scope) (Detail, error) {
	def, ok := Lookup(code)
	if !ok {
		return Detail{}, shared.ErrUnknownKPI
	}

	var detail Detail
	loader := func(ctx context.Context) (interface{}, error) {
		return s.computeDetail(ctx, def, scope)
	}
	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return Detail{}, err
		}
		return value.(Detail), nil
	}
	key, err := s.cache.BuildKey(ctx, "kpi", "detail", string(code), scope.Token())
	if err != nil {
		return Detail{}, err
	}
	if err := s.cache.FetchJSON(ctx, key, &detail, loader); err != nil {
		return Detail{}, err
	}
	return detail, nil
}

func (s *Service) computeDetail(ctx context.Context, def Definition, scope shared.Scope) (Detail, error) {
	trendScope := scope
	trendScope.From = scope.To.AddDate(0, 0, -trendWindowDays)

	var detail Detail
	var names map[string]string

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		points, err := s.repo.DailySeries(ctx, def, trendScope)
		if err != nil {
			return err
		}
		detail.Trend = points
		return nil
	})
	g.Go(func() error {
		var slices []DistributionSlice
		var err error
		if def.Code == CodeOTIF {
			slices, err = s.repo.OTIFDistribution(ctx, scope)
		} else {
			slices, err = s.repo.Distribution(ctx, def, scope)
		}
		if err != nil {
			return err
		}
		detail.Distribution = slices
		return nil
	})
	g.Go(func() error {
		var err error
		names, err = s.repo.ClientNames(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Detail{}, err
	}

	// Best performer first.
	sort.Slice(detail.Distribution, func(i, j int) bool {
		return detail.Distribution[i].Value > detail.Distribution[j].Value
	})
	for i := range detail.Distribution {
		detail.Distribution[i].Category = clientName(names, detail.Distribution[i].Category)
	}

	rows, err := s.detailRows(ctx, def, scope, names)
	if err != nil {
		return Detail{}, err
	}
	detail.Detail = rows
	return detail, nil
}

func (s *Service) detailRows(ctx context.Context, def Definition, scope shared.Scope, names map[string]string) ([]DetailRow, error) {
	switch def.Table {
	case "fact_inbound":
		rows, err := s.repo.InboundDetail(ctx, def, scope)
		if err != nil {
			return nil, err
		}
		return inboundDetailRows(def, names, rows), nil
	case "fact_inventory":
		rows, err := s.repo.InventoryDetail(ctx, def, scope)
		if err != nil {
			return nil, err
		}
		return inventoryDetailRows(def, names, rows), nil
	default:
		rows, err := s.repo.OutboundDetail(ctx, def, scope)
		if err != nil {
			return nil, err
		}
		return outboundDetailRows(def, names, rows), nil
	}
}

// ExportDetail returns the drill-down rows for one KPI, used by the per-KPI
// export endpoint.
func (s *Service) ExportDetail(ctx context.Context, code Code, scope shared.Scope) ([]DetailRow, error) {
	def, ok := Lookup(code)
	if !ok {
		return nil, shared.ErrUnknownKPI
	}
	names, err := s.repo.ClientNames(ctx)
	if err != nil {
		return nil, err
	}
	return s.detailRows(ctx, def, scope, names)
}
