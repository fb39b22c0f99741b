package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ---- bridge ----

	requestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "bridge_requests_in_flight", Help: "requests waiting on a host response."},
	)

	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bridge_requests_total", Help: "requests by method and outcome"},
		[]string{"method", "outcome"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_request_duration_seconds",
			Help:    "time from send to host response.",
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"method"},
	)

	registryCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bridge_registry_completions_total", Help: "registry entries removed, by outcome"},
		[]string{"outcome"},
	)

	callbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bridge_callbacks_total", Help: "host callbacks by routing result"},
		[]string{"result"},
	)

	// ---- diagnostics http ----

	responseTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "diagnostics_response_time",
			Help:    "diagnostics http response time.",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1},
		},
	)

	totalHttpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "diagnostics_http_requests_total", Help: "diagnostics http requests by code, uri and method"},
		[]string{"code", "uri", "method"},
	)
)

func init() {
	prometheus.MustRegister(
		requestsInFlight,
		requestsTotal,
		requestDuration,
		registryCompletions,
		callbacksTotal,
		responseTime,
		totalHttpRequests,
	)
}
