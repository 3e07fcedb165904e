package metrics

import (
	"time"

	"github.com/dgalpaj/azure-throttling-exporter/internal/version"
	"github.com/prometheus/client_golang/prometheus"
)

// Sink receives the observations produced by a poll cycle. It is injected
// into the poller so tests can substitute fakes without a global registry.
type Sink interface {
	// SetRemaining publishes the remaining call budget for one rate name,
	// overwriting any prior value under that label
	SetRemaining(rate string, value float64)

	// IncFailures increments the monotonic failure counter
	IncFailures()

	// ObserveCycle records the duration and outcome of one completed cycle
	ObserveCycle(d time.Duration, success bool)
}

// PrometheusSink implements Sink on top of a Prometheus registry
type PrometheusSink struct {
	remaining     *prometheus.GaugeVec
	failures      prometheus.Counter
	cycleDuration prometheus.Gauge
	lastSuccess   prometheus.Gauge
	up            prometheus.Gauge
	buildInfo     *prometheus.GaugeVec
}

// Verify that PrometheusSink implements Sink
var _ Sink = (*PrometheusSink)(nil)

// NewPrometheusSink creates a sink registered on the given registerer
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		remaining: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ms_ratelimit_remaining_resource_gauge",
				Help: "Remaining resource reads before reaching the throttling threshold",
			},
			[]string{"rate"},
		),
		failures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ms_ratelimit_failures_total",
				Help: "Number of failures trying to obtain Azure rate limits",
			},
		),
		cycleDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "azure_ratelimit_exporter_cycle_duration_seconds",
				Help: "Duration of the last poll cycle in seconds",
			},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "azure_ratelimit_exporter_last_success_timestamp_seconds",
				Help: "Unix timestamp of the last successful poll cycle",
			},
		),
		up: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "azure_ratelimit_exporter_up",
				Help: "Was the last poll cycle successful (1 = success, 0 = failure)",
			},
		),
		buildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "azure_ratelimit_exporter_build_info",
				Help: "Build version information",
			},
			[]string{"version", "git_commit", "build_date", "go_version"},
		),
	}

	versionInfo := version.Info()
	s.buildInfo.With(prometheus.Labels{
		"version":    versionInfo["version"],
		"git_commit": versionInfo["git_commit"],
		"build_date": versionInfo["build_date"],
		"go_version": versionInfo["go_version"],
	}).Set(1)

	reg.MustRegister(s.remaining, s.failures, s.cycleDuration, s.lastSuccess, s.up, s.buildInfo)

	return s
}

// SetRemaining implements Sink
func (s *PrometheusSink) SetRemaining(rate string, value float64) {
	s.remaining.WithLabelValues(rate).Set(value)
}

// IncFailures implements Sink
func (s *PrometheusSink) IncFailures() {
	s.failures.Inc()
}

// ObserveCycle implements Sink
func (s *PrometheusSink) ObserveCycle(d time.Duration, success bool) {
	s.cycleDuration.Set(d.Seconds())
	if success {
		s.up.Set(1)
		s.lastSuccess.SetToCurrentTime()
	} else {
		s.up.Set(0)
	}
}
