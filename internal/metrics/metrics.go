// Package metrics объявляет метрики Prometheus сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты операций.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	// LedgerOperations операции с балансом по типу и результату.
	LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostcredit_ledger_operations_total",
		Help: "Credit ledger operations by operation and result.",
	}, []string{"op", "result"})

	// Builds завершённые сборки по результату.
	Builds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostcredit_builds_total",
		Help: "Finished server builds by result.",
	}, []string{"result"})

	// WorkerRunDuration длительность прохода воркера.
	WorkerRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hostcredit_worker_run_duration_seconds",
		Help:    "Duration of a single provisioning worker pass.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	// HostingRetries повторные запросы к панели после временных ошибок.
	HostingRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hostcredit_hosting_retries_total",
		Help: "Hosting API calls retried after a transient error.",
	})

	// EnqueueRejections отказы в постановке в очередь по коду ошибки.
	EnqueueRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostcredit_enqueue_rejections_total",
		Help: "Rejected build requests by error code.",
	}, []string{"code"})
)
