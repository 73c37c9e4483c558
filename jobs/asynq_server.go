package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/warepulse/warepulse/internal/alerts"
	"github.com/warepulse/warepulse/internal/kpi"
	"github.com/warepulse/warepulse/internal/shared"
)

// Worker wraps the Asynq server and optional scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

// TaskHandler allows injecting custom Asynq handlers during worker setup.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// CronRegistration wires a cron expression to a prepared task.
type CronRegistration struct {
	Spec    string
	Task    *asynq.Task
	Options []asynq.Option
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts asynq.RedisClientOpt
	Logger    *slog.Logger
	Handlers  []TaskHandler
	Cron      []CronRegistration
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, h.Handler)
	}

	var scheduler *asynq.Scheduler
	if len(cfg.Cron) > 0 {
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
		for _, entry := range cfg.Cron {
			if entry.Spec == "" || entry.Task == nil {
				continue
			}
			if _, err := scheduler.Register(entry.Spec, entry.Task, entry.Options...); err != nil {
				return nil, err
			}
		}
	}

	return &Worker{server: srv, mux: mux, scheduler: scheduler, logger: cfg.Logger}, nil
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		return err
	}
}

// NewAlertEmailHandler returns the handler that delivers alert emails.
func NewAlertEmailHandler(mailer *Mailer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AlertEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if mailer == nil {
			logger.Warn("alert email skipped, no mailer configured",
				slog.String("code", payload.KpiCode))
			return nil
		}
		if err := mailer.SendAlert(ctx, payload); err != nil {
			logger.Error("send alert email failed",
				slog.String("code", payload.KpiCode), slog.Any("error", err))
			return err
		}
		logger.Info("alert email sent", slog.String("code", payload.KpiCode))
		return nil
	}
}

// NewThresholdScanHandler returns the handler that recomputes the facility
// wide overview for the default 30 day window. The KPI service invokes the
// alert notifier itself, so a breach found here raises alerts the same way a
// dashboard request would.
func NewThresholdScanHandler(svc *kpi.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		scope := shared.ResolveScope(time.Now().UTC(), nil, shared.FilterParams{})
		snapshots, err := svc.Overview(ctx, scope)
		if err != nil {
			logger.Error("threshold scan failed", slog.Any("error", err))
			return err
		}
		critical := 0
		for _, snap := range snapshots {
			if snap.Status == kpi.StatusCritical {
				critical++
			}
		}
		logger.Info("threshold scan complete",
			slog.Int("kpis", len(snapshots)), slog.Int("critical", critical))
		return nil
	}
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	client := asynq.NewClient(redisOpts)
	return &Client{client: client}, nil
}

// EnqueueAlertEmail enqueues an alert notification email. It satisfies the
// alert service's Enqueuer contract.
func (c *Client) EnqueueAlertEmail(ctx context.Context, a alerts.Alert) error {
	task, err := NewAlertEmailTask(AlertEmailPayload{
		KpiCode:   a.KpiCode,
		Message:   a.Message,
		Value:     a.Value,
		Threshold: a.Threshold,
		CreatedAt: a.CreatedAt,
	})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
