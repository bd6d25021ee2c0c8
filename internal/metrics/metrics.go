// Package metrics declares the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refrigas_http_requests_total",
			Help: "Total HTTP requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "refrigas_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	NotificacionesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refrigas_notificaciones_total",
			Help: "Notification attempts by type and final state.",
		},
		[]string{"tipo", "estado"},
	)

	AbonosRegistrados = promauto.NewCounter(prometheus.CounterOpts{
		Name: "refrigas_abonos_registrados_total",
		Help: "Payments successfully applied to debts.",
	})

	CierresCerrados = promauto.NewCounter(prometheus.CounterOpts{
		Name: "refrigas_cierres_caja_cerrados_total",
		Help: "Daily cash closes finalized.",
	})

	JobsProcesados = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refrigas_jobs_procesados_total",
			Help: "Background jobs by type and outcome.",
		},
		[]string{"tipo", "resultado"},
	)
)
