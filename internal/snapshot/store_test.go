package snapshot

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stamped-ai/ledgerprep/internal/frame"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, ttl), mr
}

func TestSaveAndLoad(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	tbl := frame.New("id", "amount", "fsli_id")
	require.NoError(t, tbl.Append("a1", 12.5, "fsli-1"))
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	snap, err := New("tenant-1", "eng-1", tbl, at)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, snap))

	assert.True(t, mr.Exists("ledgerprep:snapshot:tenant-1:eng-1"))
	assert.Equal(t, time.Hour, mr.TTL("ledgerprep:snapshot:tenant-1:eng-1"))

	got, err := store.Load(ctx, "tenant-1", "eng-1")
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", got.TenantID)
	assert.Equal(t, "eng-1", got.EngagementID)
	assert.Equal(t, 1, got.Rows)
	assert.True(t, at.Equal(got.GeneratedAt))
	assert.JSONEq(t, `{"index_name":"id","columns":["amount","fsli_id"],"index":["a1"],"rows":[[12.5,"fsli-1"]]}`, string(got.Table))
}

func TestLoadMissing(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	_, err := store.Load(context.Background(), "tenant-1", "nope")
	require.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestLoadExpired(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()
	snap, err := New("t", "e", frame.New("id"), time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, snap))

	mr.FastForward(2 * time.Minute)
	_, err = store.Load(ctx, "t", "e")
	require.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestSaveRequiresScope(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	require.Error(t, store.Save(context.Background(), Snapshot{TenantID: "t"}))
}
