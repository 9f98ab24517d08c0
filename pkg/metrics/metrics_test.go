package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestServeRegistersMetrics(t *testing.T) {
	srv := Serve("127.0.0.1:0")
	defer srv.Close()

	ObserveAPI("project/simulate", 200)
	ObservePush("SIMULATE_COMPLETED", true)
	ObserveRelay("burn_token", "backend", 2)

	if got := testutil.ToFloat64(RelayedTransactionsTotal.WithLabelValues("burn_token", "backend")); got != 2 {
		t.Fatalf("relayed = %v", got)
	}

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	want := map[string]bool{
		"launchpad_api_requests_total":         false,
		"launchpad_push_events_total":          false,
		"launchpad_relayed_transactions_total": false,
	}
	for _, mf := range mfs {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("%s metric not found", name)
		}
	}
}
