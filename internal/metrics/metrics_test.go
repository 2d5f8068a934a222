package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shinobi-relay/internal/armed"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, nil)

	m.RelayFinished("webhook", "delivered", 300*time.Millisecond)
	m.RelayFinished("webhook", "delivered", time.Second)
	m.RelayFinished("command", "failed", time.Second)
	m.SnapshotFetched(ResultOK)
	m.SnapshotFetched(ResultFailed)
	m.PhotosSent(3)
	m.PhotosSent(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.invocations.WithLabelValues("webhook", "delivered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invocations.WithLabelValues("command", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues(ResultFailed)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.photosSent))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RelayFinished("webhook", "delivered", time.Second)
		m.SnapshotFetched(ResultOK)
		m.PhotosSent(1)
	})
}

func TestArmedCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	var state armed.State
	New(reg, &state)

	expected := func(v string) string {
		return `
# HELP shinobi_relay_armed Whether automatic relays are suppressed (1 = armed).
# TYPE shinobi_relay_armed gauge
shinobi_relay_armed ` + v + "\n"
	}

	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected("0")), "shinobi_relay_armed"))

	state.Arm()
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected("1")), "shinobi_relay_armed"))
}
