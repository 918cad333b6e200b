package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.SyncAttemptsTotal.WithLabelValues("rpms", "success").Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(a.SyncAttemptsTotal.WithLabelValues("rpms", "success")))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.SyncAttemptsTotal.WithLabelValues("rpms", "success")))
}

func TestSweepCounters_IncrementAsPlainFuncs(t *testing.T) {
	m := NewMetrics()
	inc := m.SweepNoBuildTotal.Inc
	inc()
	inc()
	assert.Equal(t, float64(2), testutil.ToFloat64(m.SweepNoBuildTotal))
}
