// Package metrics exposes relay counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shinobi_relay"

// Fetch results recorded by SnapshotFetched.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Metrics is nil-safe: every method on a nil *Metrics is a no-op.
type Metrics struct {
	invocations *prometheus.CounterVec
	fetches     *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	photosSent  prometheus.Counter
}

// ArmedReader is satisfied by *armed.State.
type ArmedReader interface {
	Armed() bool
}

// New registers the relay metrics (and, when state is non-nil, the armed
// gauge) on reg.
func New(reg prometheus.Registerer, state ArmedReader) *Metrics {
	m := &Metrics{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Relay invocations by trigger and final status.",
		}, []string{"trigger", "status"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_fetches_total",
			Help:      "Per-camera snapshot fetches by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "duration_seconds",
			Help:      "Time from trigger to delivery.",
			Buckets:   []float64{.25, .5, 1, 2, 4, 8, 16, 32},
		}, []string{"trigger"}),
		photosSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photos_sent_total",
			Help:      "Photos accepted by Telegram.",
		}),
	}

	reg.MustRegister(m.invocations, m.fetches, m.duration, m.photosSent)
	if state != nil {
		reg.MustRegister(&armedCollector{state: state})
	}
	return m
}

func (m *Metrics) RelayFinished(trigger, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(trigger, status).Inc()
	m.duration.WithLabelValues(trigger).Observe(took.Seconds())
}

func (m *Metrics) SnapshotFetched(result string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(result).Inc()
}

func (m *Metrics) PhotosSent(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.photosSent.Add(float64(n))
}

var armedDesc = prometheus.NewDesc(
	namespace+"_armed", "Whether automatic relays are suppressed (1 = armed).", nil, nil,
)

// armedCollector reads the flag at scrape time.
type armedCollector struct {
	state ArmedReader
}

func (c *armedCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- armedDesc
}

func (c *armedCollector) Collect(ch chan<- prometheus.Metric) {
	v := 0.0
	if c.state.Armed() {
		v = 1.0
	}
	ch <- prometheus.MustNewConstMetric(armedDesc, prometheus.GaugeValue, v)
}
