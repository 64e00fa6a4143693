package datahelperhttp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stamped-ai/ledgerprep/internal/datahelper"
	"github.com/stamped-ai/ledgerprep/internal/frame"
	"github.com/stamped-ai/ledgerprep/internal/snapshot"
	"github.com/stamped-ai/ledgerprep/jobs"
)

type stubService struct {
	amounts      *frame.Table
	flips        *frame.Table
	prepared     *frame.Table
	mappings     datahelper.Mappings
	record       frame.Record
	err          error
	engagements  []string
	dateColumn   string
	flipsEngID   string
	preparedArgs [2]string
}

func (s *stubService) GetAmountTable(ctx context.Context, tenantID string, engagementIDs ...string) (*frame.Table, error) {
	s.engagements = engagementIDs
	return s.amounts, s.err
}

func (s *stubService) AddDateInfo(tbl *frame.Table, dateColumn string) (*frame.Table, error) {
	s.dateColumn = dateColumn
	if !tbl.HasColumn(dateColumn) {
		return nil, frame.ErrColumnNotFound
	}
	return tbl, nil
}

func (s *stubService) GetFlippingIDAmounts(ctx context.Context, tbl *frame.Table, engagementID string) (*frame.Table, error) {
	s.flipsEngID = engagementID
	return s.flips, s.err
}

func (s *stubService) PrepareEngagementAmounts(ctx context.Context, tenantID, engagementID string) (*frame.Table, error) {
	s.preparedArgs = [2]string{tenantID, engagementID}
	return s.prepared, s.err
}

func (s *stubService) AccountMappings(ctx context.Context, engagementID string) (datahelper.Mappings, error) {
	return s.mappings, s.err
}

func (s *stubService) GetEngagementInfo(ctx context.Context, engagementID string) (frame.Record, error) {
	return s.record, s.err
}

func (s *stubService) GetOrganizationInfo(ctx context.Context, organizationID string) (frame.Record, error) {
	return s.record, s.err
}

type stubSnapshots struct {
	snap snapshot.Snapshot
	err  error
}

func (s stubSnapshots) Load(ctx context.Context, tenantID, engagementID string) (snapshot.Snapshot, error) {
	return s.snap, s.err
}

type stubEnqueuer struct {
	payload jobs.AmountsSnapshotPayload
}

func (s *stubEnqueuer) EnqueueAmountsSnapshot(ctx context.Context, payload jobs.AmountsSnapshotPayload) (*asynq.TaskInfo, error) {
	s.payload = payload
	return &asynq.TaskInfo{ID: "task-1", Queue: jobs.QueueDefault}, nil
}

func newRouter(svc Service, snaps SnapshotReader, enq Enqueuer) http.Handler {
	r := chi.NewRouter()
	NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, snaps, enq).MountRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func amountTable(t *testing.T) *frame.Table {
	t.Helper()
	tbl := frame.New("id", "amount", "transaction_date")
	require.NoError(t, tbl.Append("a1", 10.0, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	return tbl
}

func TestAmountsSplitsEngagementsAndAddsDates(t *testing.T) {
	svc := &stubService{amounts: amountTable(t)}
	rec := do(t, newRouter(svc, nil, nil), http.MethodGet, "/api/tenants/t1/amounts?engagement_id=e1,e2&engagement_id=e3&date_column=transaction_date")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"e1", "e2", "e3"}, svc.engagements)
	assert.Equal(t, "transaction_date", svc.dateColumn)

	var body struct {
		IndexName string   `json:"index_name"`
		Columns   []string `json:"columns"`
		Index     []string `json:"index"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "id", body.IndexName)
	assert.Equal(t, []string{"amount", "transaction_date"}, body.Columns)
	assert.Equal(t, []string{"a1"}, body.Index)
}

func TestAmountsUnknownDateColumn(t *testing.T) {
	svc := &stubService{amounts: amountTable(t)}
	rec := do(t, newRouter(svc, nil, nil), http.MethodGet, "/api/tenants/t1/amounts?date_column=nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Validation Failed")
}

func TestPreparedAmounts(t *testing.T) {
	svc := &stubService{prepared: amountTable(t)}
	rec := do(t, newRouter(svc, nil, nil), http.MethodGet, "/api/tenants/t1/engagements/e1/amounts")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [2]string{"t1", "e1"}, svc.preparedArgs)
}

func TestFlippingAmounts(t *testing.T) {
	svc := &stubService{amounts: amountTable(t), flips: frame.New("id", "amount")}
	rec := do(t, newRouter(svc, nil, nil), http.MethodGet, "/api/tenants/t1/engagements/e9/flipping-amounts")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"e9"}, svc.engagements)
	assert.Equal(t, "e9", svc.flipsEngID)
}

func TestEngagementLookupErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "not found", err: datahelper.ErrNotFound, status: http.StatusNotFound},
		{name: "mapping", err: datahelper.ErrMappingNotFound, status: http.StatusNotFound},
		{name: "multiple", err: datahelper.ErrMultipleRows, status: http.StatusInternalServerError},
		{name: "driver", err: errors.New("connection reset"), status: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, newRouter(&stubService{err: tc.err}, nil, nil), http.MethodGet, "/api/engagements/e1")
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestEngagementRecord(t *testing.T) {
	svc := &stubService{record: frame.Record{"id": "e1", "organization_id": "org-1"}}
	rec := do(t, newRouter(svc, nil, nil), http.MethodGet, "/api/engagements/e1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"e1","organization_id":"org-1"}`, rec.Body.String())
}

func TestOrganizationRecord(t *testing.T) {
	svc := &stubService{record: frame.Record{"id": "org-1", "name": "Acme"}}
	rec := do(t, newRouter(svc, nil, nil), http.MethodGet, "/api/organizations/org-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"org-1","name":"Acme"}`, rec.Body.String())
}

func TestMappings(t *testing.T) {
	reverse := "fsli-9"
	svc := &stubService{mappings: datahelper.Mappings{
		"acc-1": {FSLIID: "fsli-1"},
		"acc-2": {FSLIID: "fsli-2", ReverseFSLIID: &reverse},
	}}
	rec := do(t, newRouter(svc, nil, nil), http.MethodGet, "/api/engagements/e1/mappings")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]datahelper.AccountMapping
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body["acc-1"].Flips())
	assert.True(t, body["acc-2"].Flips())
}

func TestEnqueueSnapshot(t *testing.T) {
	enq := &stubEnqueuer{}
	rec := do(t, newRouter(&stubService{}, nil, enq), http.MethodPost, "/api/tenants/t1/engagements/e1/snapshots")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, jobs.AmountsSnapshotPayload{TenantID: "t1", EngagementID: "e1"}, enq.payload)
	assert.JSONEq(t, `{"task_id":"task-1","queue":"default"}`, rec.Body.String())
}

func TestEnqueueSnapshotWithoutQueue(t *testing.T) {
	rec := do(t, newRouter(&stubService{}, nil, nil), http.MethodPost, "/api/tenants/t1/engagements/e1/snapshots")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestShowSnapshot(t *testing.T) {
	snap := snapshot.Snapshot{TenantID: "t1", EngagementID: "e1", Rows: 1, Table: json.RawMessage(`{"index_name":"id"}`)}
	rec := do(t, newRouter(&stubService{}, stubSnapshots{snap: snap}, nil), http.MethodGet, "/api/tenants/t1/engagements/e1/snapshot")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rows":1`)

	rec = do(t, newRouter(&stubService{}, stubSnapshots{err: snapshot.ErrSnapshotNotFound}, nil), http.MethodGet, "/api/tenants/t1/engagements/e1/snapshot")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSplitValues(t *testing.T) {
	assert.Nil(t, splitValues(nil))
	assert.Equal(t, []string{"a", "b"}, splitValues([]string{" a , ", "b"}))
}
