package metrics

import (
	"time"

	"github.com/joeydtaylor/steeze-bridge/pkg/bridge"
	"github.com/joeydtaylor/steeze-bridge/pkg/correlation"
)

// Bridge records correlation and callback activity into the package
// collectors. It satisfies both bridge.Metrics and correlation.Observer.
type Bridge struct{}

var (
	_ bridge.Metrics       = Bridge{}
	_ correlation.Observer = Bridge{}
)

func ProvideBridgeMetrics() Bridge { return Bridge{} }

func (Bridge) Registered(string) { requestsInFlight.Inc() }

func (Bridge) Completed(_ string, o correlation.Outcome) {
	requestsInFlight.Dec()
	registryCompletions.WithLabelValues(string(o)).Inc()
}

func (Bridge) Callback(result string) {
	callbacksTotal.WithLabelValues(result).Inc()
}

func (Bridge) Request(method, outcome string, d time.Duration) {
	requestsTotal.WithLabelValues(method, outcome).Inc()
	if outcome == bridge.OutcomeOK {
		requestDuration.WithLabelValues(method).Observe(d.Seconds())
	}
}
