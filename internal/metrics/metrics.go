package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PaymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by terminal status",
		},
		[]string{"status"}, // completed|failed
	)
	SettlementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlements_total",
			Help: "Settlement attempts by rail and outcome",
		},
		[]string{"rail", "status"},
	)
	RiskDeclines = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "risk_declines_total",
			Help: "Payments declined by the risk engine",
		},
	)
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current pipeline worker queue depth",
		},
	)
)

var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(PaymentsTotal)
	prometheus.MustRegister(SettlementsTotal)
	prometheus.MustRegister(RiskDeclines)
	prometheus.MustRegister(WorkerQueueDepth)
}
