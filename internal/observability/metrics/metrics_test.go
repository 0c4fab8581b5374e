package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSquareMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSquareMetrics(reg)

	m.ObserveRequest("/v2/customers", "200", 0.05)
	m.ObserveRequest("/v2/customers", "200", 0.07)
	m.ObserveRequest("/v2/bookings", "400", 0.01)

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("/v2/customers", "200")); got != 2 {
		t.Fatalf("customers counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("/v2/bookings", "400")); got != 1 {
		t.Fatalf("bookings counter = %v, want 1", got)
	}
}

func TestNilReceiversAreSafe(t *testing.T) {
	var sq *SquareMetrics
	var sy *SyncMetrics
	var bk *BookingMetrics

	sq.ObserveRequest("/v2/customers", "200", 0.1)
	sy.ObserveRun("customers", "ok")
	sy.AddRecords("customers", 3)
	bk.ObserveCreate("ok")
}

func TestSyncMetricsIgnoresNonPositiveRecordCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)

	m.AddRecords("team_members", 0)
	m.AddRecords("team_members", -4)
	m.AddRecords("team_members", 2)

	if got := testutil.ToFloat64(m.records.WithLabelValues("team_members")); got != 2 {
		t.Fatalf("records counter = %v, want 2", got)
	}
}
