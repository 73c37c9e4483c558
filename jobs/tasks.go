package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAlertEmail delivers a KPI alert notification email.
	TaskTypeAlertEmail = "alert:email"
	// TaskTypeThresholdScan recomputes the KPI overview so breaches are
	// detected even when nobody is watching the dashboard.
	TaskTypeThresholdScan = "kpi:threshold_scan"
)

// AlertEmailPayload carries everything the mail template needs.
type AlertEmailPayload struct {
	KpiCode   string    `json:"kpiCode"`
	Message   string    `json:"message"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewAlertEmailTask constructs an Asynq task.
func NewAlertEmailTask(payload AlertEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAlertEmail, data), nil
}

// NewThresholdScanTask constructs the periodic scan task. The payload is
// empty; the handler always scans the default 30 day window.
func NewThresholdScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeThresholdScan, nil)
}
