package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// sample returns the value of the metric with the provided name and labels from the default registry.
func sample(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}

	metricLoop:
		for _, m := range family.GetMetric() {
			for _, pair := range m.GetLabel() {
				if labels[pair.GetName()] != pair.GetValue() {
					continue metricLoop
				}
			}

			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}

	return 0
}

// TestHelpersRecordAfterInit verifies collectors move once they are registered.
//
//nolint:paralleltest // Touches process-wide collectors.
func TestHelpersRecordAfterInit(t *testing.T) {
	Init()
	Init()

	before := sample(t, metricPrefix+"alert_action_failures_total", map[string]string{"action": "sound"})

	IncActionFailure("sound")
	require.InDelta(t, before+1, sample(t, metricPrefix+"alert_action_failures_total", map[string]string{"action": "sound"}), 0.001)

	IncAlarmFire("")
	require.GreaterOrEqual(t, sample(t, metricPrefix+"alarm_fires_total", map[string]string{"type": labelUnknown}), 1.0)

	SetArmedAlarms(3)
	require.InDelta(t, 3.0, sample(t, metricPrefix+"armed_alarms", nil), 0.001)

	ObserveRequest("http", "GET /api/alarms", "200", 10*time.Millisecond)
	require.GreaterOrEqual(t, sample(t, metricPrefix+"request_duration_seconds",
		map[string]string{"transport": "http", "method": "GET /api/alarms"}), 1.0)
}
