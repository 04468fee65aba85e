package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "alarm_manager_"

	labelUnknown = "unknown"
)

//nolint:gochecknoglobals // Collectors are process-wide by nature.
var (
	registerOnce sync.Once

	alarmFires      *prometheus.CounterVec
	escalationRound prometheus.Counter
	actionFailures  *prometheus.CounterVec
	acknowledged    prometheus.Counter
	armedAlarms     prometheus.Gauge

	storeErrors *prometheus.CounterVec

	requestsTotal   *prometheus.CounterVec
	requestsLatency *prometheus.HistogramVec
)

// Init registers the collectors with the default prometheus registry.
func Init() {
	registerOnce.Do(func() {
		alarmFires = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alarm_fires_total",
				Help: "Total alarm fires by alarm type",
			},
			[]string{"type"},
		)
		escalationRound = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "escalation_rounds_total",
				Help: "Total alert rounds started",
			},
		)
		actionFailures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alert_action_failures_total",
				Help: "Total failed alert actions by action",
			},
			[]string{"action"},
		)
		acknowledged = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "acknowledgements_total",
				Help: "Total acknowledged alerts",
			},
		)
		armedAlarms = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "armed_alarms",
				Help: "Number of alarms with a running countdown",
			},
		)
		storeErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "store_errors_total",
				Help: "Total config store failures and corrupt entries by kind",
			},
			[]string{"kind"},
		)
		requestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "requests_total",
				Help: "Total API requests by transport, method and result code",
			},
			[]string{"transport", "method", "code"},
		)
		requestsLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "request_duration_seconds",
				Help:    "API request latency by transport and method",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"transport", "method"},
		)

		prometheus.MustRegister(
			alarmFires,
			escalationRound,
			actionFailures,
			acknowledged,
			armedAlarms,
			storeErrors,
			requestsTotal,
			requestsLatency,
		)
	})
}

// Handler serves the default registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncAlarmFire counts a fire of an alarm of the provided type.
func IncAlarmFire(kind string) {
	if kind == "" {
		kind = labelUnknown
	}

	if alarmFires != nil {
		alarmFires.WithLabelValues(kind).Inc()
	}
}

// IncEscalationRound counts a started alert round.
func IncEscalationRound() {
	if escalationRound != nil {
		escalationRound.Inc()
	}
}

// IncActionFailure counts a failed alert action.
func IncActionFailure(action string) {
	if action == "" {
		action = labelUnknown
	}

	if actionFailures != nil {
		actionFailures.WithLabelValues(action).Inc()
	}
}

// IncAcknowledged counts an acknowledged alert.
func IncAcknowledged() {
	if acknowledged != nil {
		acknowledged.Inc()
	}
}

// SetArmedAlarms sets the number of armed alarms.
func SetArmedAlarms(n int) {
	if armedAlarms != nil {
		armedAlarms.Set(float64(n))
	}
}

// IncStoreError counts a store failure or a corrupt persisted entry.
func IncStoreError(kind string) {
	if kind == "" {
		kind = labelUnknown
	}

	if storeErrors != nil {
		storeErrors.WithLabelValues(kind).Inc()
	}
}

// ObserveRequest records an API call.
func ObserveRequest(transport, method, code string, duration time.Duration) {
	if method == "" {
		method = labelUnknown
	}

	if requestsTotal != nil {
		requestsTotal.WithLabelValues(transport, method, code).Inc()
	}

	if requestsLatency != nil {
		requestsLatency.WithLabelValues(transport, method).Observe(duration.Seconds())
	}
}
