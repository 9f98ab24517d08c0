// Package metrics exposes Prometheus counters for backend calls, push events
// and relayed transaction batches.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "launchpad_api_requests_total", Help: "Backend REST calls by endpoint and final status"},
		[]string{"op", "status"},
	)
	PushEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "launchpad_push_events_total", Help: "Push notifications received"},
		[]string{"tag", "success"},
	)
	RelayedTransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "launchpad_relayed_transactions_total", Help: "Signed transactions handed to a relay"},
		[]string{"tx_type", "mode"},
	)
)

func init() {
	prometheus.MustRegister(APIRequestsTotal, PushEventsTotal, RelayedTransactionsTotal)
}

// ObserveAPI matches api.Observer.
func ObserveAPI(op string, status int) {
	APIRequestsTotal.WithLabelValues(op, strconv.Itoa(status)).Inc()
}

// ObservePush counts one push event.
func ObservePush(tag string, success bool) {
	PushEventsTotal.WithLabelValues(tag, strconv.FormatBool(success)).Inc()
}

// ObserveRelay counts n transactions relayed as txType through mode.
func ObserveRelay(txType, mode string, n int) {
	RelayedTransactionsTotal.WithLabelValues(txType, mode).Add(float64(n))
}

// Serve exposes /metrics on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
