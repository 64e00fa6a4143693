package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stamped-ai/ledgerprep/internal/frame"
	jobmetrics "github.com/stamped-ai/ledgerprep/internal/jobs"
	"github.com/stamped-ai/ledgerprep/internal/snapshot"
)

// AmountsPreparer builds the enriched amount table of an engagement.
type AmountsPreparer interface {
	PrepareEngagementAmounts(ctx context.Context, tenantID, engagementID string) (*frame.Table, error)
}

// SnapshotWriter persists prepared tables.
type SnapshotWriter interface {
	Save(ctx context.Context, snap snapshot.Snapshot) error
}

// AmountsSnapshotJob prepares and stores engagement amount snapshots.
type AmountsSnapshotJob struct {
	Preparer AmountsPreparer
	Store    SnapshotWriter
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewAmountsSnapshotJob constructs the job handler.
func NewAmountsSnapshotJob(preparer AmountsPreparer, store SnapshotWriter, logger *slog.Logger, metrics *jobmetrics.Metrics) *AmountsSnapshotJob {
	return &AmountsSnapshotJob{
		Preparer: preparer,
		Store:    store,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the snapshot job.
func (j *AmountsSnapshotJob) Handle(ctx context.Context, task *asynq.Task) (err error) {
	if j == nil || j.Preparer == nil || j.Store == nil {
		return errors.New("amounts snapshot: dependencies not configured")
	}
	var payload AmountsSnapshotPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("amounts snapshot: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.TenantID == "" || payload.EngagementID == "" {
		return fmt.Errorf("amounts snapshot: %v: %w", ErrInvalidPayload, asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskAmountsSnapshot)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.log().With(
		slog.String("tenant_id", payload.TenantID),
		slog.String("engagement_id", payload.EngagementID),
	)
	tbl, err := j.Preparer.PrepareEngagementAmounts(ctx, payload.TenantID, payload.EngagementID)
	if err != nil {
		logger.Error("prepare amounts", slog.Any("error", err))
		return err
	}
	snap, err := snapshot.New(payload.TenantID, payload.EngagementID, tbl, j.now())
	if err != nil {
		return err
	}
	if err := j.Store.Save(ctx, snap); err != nil {
		logger.Error("save snapshot", slog.Any("error", err))
		return err
	}
	j.Metrics.AddRows(TaskAmountsSnapshot, snap.Rows)
	logger.Info("amounts snapshot stored", slog.Int("rows", snap.Rows))
	return nil
}

func (j *AmountsSnapshotJob) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *AmountsSnapshotJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
