package jobs

import (
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAmountsSnapshot prepares an engagement's amount table and stores it.
	TaskAmountsSnapshot = "ledger:amounts_snapshot"
)

// AmountsSnapshotPayload scopes a snapshot to one tenant engagement.
type AmountsSnapshotPayload struct {
	TenantID     string `json:"tenant_id"`
	EngagementID string `json:"engagement_id"`
}

// ErrInvalidPayload indicates a task payload missing its scope.
var ErrInvalidPayload = errors.New("jobs: tenant_id and engagement_id required")

// NewAmountsSnapshotTask constructs an Asynq task.
func NewAmountsSnapshotTask(payload AmountsSnapshotPayload) (*asynq.Task, error) {
	if payload.TenantID == "" || payload.EngagementID == "" {
		return nil, ErrInvalidPayload
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAmountsSnapshot, data, asynq.Queue(QueueDefault)), nil
}
