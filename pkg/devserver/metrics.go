package devserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the dev server.
//
// Metrics:
//   - agrinode_http_requests_total{method,route,status}
//   - agrinode_http_request_duration_seconds{method,route}
//   - agrinode_inference_total{model,outcome}
//   - agrinode_weeds_detected - weeds per analysed image
//   - agrinode_device_commands_total{command}
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InferenceTotal  *prometheus.CounterVec
	WeedsDetected   prometheus.Histogram
	DeviceCommands  *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry so several servers
// can live in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agrinode_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agrinode_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		InferenceTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agrinode_inference_total",
				Help: "Total number of model inferences",
			},
			[]string{"model", "outcome"}, // model: "crop" or "weed"
		),
		WeedsDetected: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agrinode_weeds_detected",
				Help:    "Number of weeds detected per image",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
			},
		),
		DeviceCommands: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agrinode_device_commands_total",
				Help: "Total number of commands queued for the field device",
			},
			[]string{"command"},
		),
	}
}

// Registry returns the registry the metrics live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
