package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors are partitioned by chain id.

var (
	RPCCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "approvalscan",
		Subsystem: "rpc",
		Name:      "calls_total",
		Help:      "Total chain RPC calls by method and final status",
	}, []string{"chain", "method", "status"})

	RPCRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "approvalscan",
		Subsystem: "rpc",
		Name:      "retries_total",
		Help:      "Total chain RPC attempts repeated after a transient failure",
	}, []string{"chain", "method"})

	CollectorWindowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "approvalscan",
		Subsystem: "collector",
		Name:      "windows_total",
		Help:      "Block windows queried, split by whether the window had to be shrunk",
	}, []string{"chain", "outcome"})

	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "approvalscan",
		Subsystem: "scan",
		Name:      "total",
		Help:      "Total wallet scans by outcome (complete, incomplete or an error code)",
	}, []string{"chain", "outcome"})

	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "approvalscan",
		Subsystem: "scan",
		Name:      "duration_seconds",
		Help:      "Wall clock duration of a wallet scan",
		Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
	}, []string{"chain"})

	ApprovalsFound = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "approvalscan",
		Subsystem: "scan",
		Name:      "active_approvals",
		Help:      "Active approvals per completed scan",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
	}, []string{"chain"})

	ClassificationDegraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "approvalscan",
		Subsystem: "spender",
		Name:      "classification_degraded_total",
		Help:      "Spender lookups that fell back to conservative defaults",
	}, []string{"chain", "source"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "approvalscan",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP API requests by route and status code",
	}, []string{"route", "code"})
)
