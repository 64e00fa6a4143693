package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	if err := metrics.Track("ledger:amounts_snapshot").End(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	boom := errors.New("boom")
	if err := metrics.Track("ledger:amounts_snapshot").End(boom); !errors.Is(err, boom) {
		t.Fatalf("expected error passthrough, got %v", err)
	}

	if got := testutil.ToFloat64(metrics.runs.WithLabelValues("ledger:amounts_snapshot", "success")); got != 1 {
		t.Fatalf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.failures.WithLabelValues("ledger:amounts_snapshot")); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
}

func TestAddRows(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	metrics.AddRows("job", 3)
	metrics.AddRows("job", 0)
	if got := testutil.ToFloat64(metrics.rows.WithLabelValues("job")); got != 3 {
		t.Fatalf("expected 3 rows, got %v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.AddRows("job", 5)
	if err := metrics.Track("job").End(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
