// Package snapshot keeps prepared engagement amount tables in Redis for
// downstream readers.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stamped-ai/ledgerprep/internal/frame"
)

const keyPrefix = "ledgerprep:snapshot"

// ErrSnapshotNotFound indicates no snapshot is stored for the engagement.
var ErrSnapshotNotFound = errors.New("snapshot: not found")

// Snapshot is a prepared amount table captured at GeneratedAt.
type Snapshot struct {
	TenantID     string          `json:"tenant_id"`
	EngagementID string          `json:"engagement_id"`
	GeneratedAt  time.Time       `json:"generated_at"`
	Rows         int             `json:"rows"`
	Table        json.RawMessage `json:"table"`
}

// New captures tbl as a snapshot.
func New(tenantID, engagementID string, tbl *frame.Table, at time.Time) (Snapshot, error) {
	raw, err := json.Marshal(tbl)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: encode table: %w", err)
	}
	return Snapshot{
		TenantID:     tenantID,
		EngagementID: engagementID,
		GeneratedAt:  at.UTC(),
		Rows:         tbl.Len(),
		Table:        raw,
	}, nil
}

// Store persists snapshots with a fixed TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore instantiates the store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Key returns the Redis key of an engagement's snapshot.
func Key(tenantID, engagementID string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, tenantID, engagementID)
}

// Save replaces the engagement's snapshot.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	if snap.TenantID == "" || snap.EngagementID == "" {
		return errors.New("snapshot: tenant and engagement required")
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := s.client.Set(ctx, Key(snap.TenantID, snap.EngagementID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("snapshot: save: %w", err)
	}
	return nil
}

// Load returns the engagement's stored snapshot.
func (s *Store) Load(ctx context.Context, tenantID, engagementID string) (Snapshot, error) {
	raw, err := s.client.Get(ctx, Key(tenantID, engagementID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: load: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: decode: %w", err)
	}
	return snap, nil
}
