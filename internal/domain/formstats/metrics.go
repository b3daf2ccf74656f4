package formstats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics agrupa los collectors del motor. Un *Metrics nil no registra nada.
type Metrics struct {
	requests   *prometheus.CounterVec
	duration   prometheus.Histogram
	stages     *prometheus.HistogramVec
	reads      *prometheus.CounterVec
	records    *prometheus.CounterVec
	truncation prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formstats",
			Name:      "aggregations_total",
			Help:      "Aggregation queries by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "formstats",
			Name:      "aggregation_duration_seconds",
			Help:      "Wall time of a full aggregation query.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 25},
		}),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "formstats",
			Name:      "stage_duration_seconds",
			Help:      "Wall time per aggregation stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formstats",
			Name:      "object_reads_total",
			Help:      "Object reads issued by the fetcher, by outcome.",
		}, []string{"outcome"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formstats",
			Name:      "records_total",
			Help:      "Telemetry records seen by the normalizer, by result.",
		}, []string{"result"}),
		truncation: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "formstats",
			Name:      "listing_truncated_total",
			Help:      "Listings that hit the key cap before the store was exhausted.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.stages, m.reads, m.records, m.truncation)
	}
	return m
}

func (m *Metrics) observeStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stages.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) observeResult(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.duration.Observe(d.Seconds())
	}
}

func (m *Metrics) observeFetch(st FetchStats) {
	if m == nil {
		return
	}
	m.reads.WithLabelValues("ok").Add(float64(st.Succeeded))
	m.reads.WithLabelValues("missing").Add(float64(st.Missing))
	m.reads.WithLabelValues("failed").Add(float64(st.Failed))
	m.reads.WithLabelValues("timeout").Add(float64(st.TimedOut))
	m.reads.WithLabelValues("cancelled").Add(float64(st.Cancelled))
}

func (m *Metrics) observeRecords(st NormalizeStats) {
	if m == nil {
		return
	}
	m.records.WithLabelValues("kept").Add(float64(st.Kept))
	m.records.WithLabelValues("malformed").Add(float64(st.Malformed))
	m.records.WithLabelValues("dropped").Add(float64(st.Dropped))
	m.records.WithLabelValues("out_of_range").Add(float64(st.OutOfRange))
}

func (m *Metrics) observeTruncated() {
	if m == nil {
		return
	}
	m.truncation.Inc()
}
