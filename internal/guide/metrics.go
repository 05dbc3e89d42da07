package guide

import (
	"time"

	"github.com/eleven-am/sanpo-guide/internal/vision"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is safe to use as a nil pointer, which disables recording.
type Metrics struct {
	turns             *prometheus.CounterVec
	classifications   *prometheus.CounterVec
	imageSelections   *prometheus.CounterVec
	generationLatency prometheus.Histogram
	persistFailures   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sanpo",
			Subsystem: "guide",
			Name:      "turns_total",
			Help:      "Turns handled, by outcome",
		}, []string{"outcome"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sanpo",
			Subsystem: "guide",
			Name:      "classifications_total",
			Help:      "Visual-reference classifications, by source and verdict",
		}, []string{"source", "visual"}),
		imageSelections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sanpo",
			Subsystem: "guide",
			Name:      "image_selections_total",
			Help:      "Images attached to upstream requests, by origin",
		}, []string{"origin"}),
		generationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sanpo",
			Subsystem: "guide",
			Name:      "generation_latency_seconds",
			Help:      "Upstream generation latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sanpo",
			Subsystem: "guide",
			Name:      "persist_failures_total",
			Help:      "Turns whose memory could not be stored",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.turns, m.classifications, m.imageSelections, m.generationLatency, m.persistFailures)
	}
	return m
}

func (m *Metrics) turn(outcome string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) classification(v vision.Verdict) {
	if m == nil {
		return
	}
	visual := "false"
	if v.Visual {
		visual = "true"
	}
	m.classifications.WithLabelValues(string(v.Source), visual).Inc()
}

func (m *Metrics) selection(s vision.Selection) {
	if m == nil {
		return
	}
	m.imageSelections.WithLabelValues(string(s.Origin)).Inc()
}

func (m *Metrics) generation(d time.Duration) {
	if m == nil {
		return
	}
	m.generationLatency.Observe(d.Seconds())
}

func (m *Metrics) persistFailure() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}
