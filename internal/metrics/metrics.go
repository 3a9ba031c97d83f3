// Package metrics records per-render Prometheus metrics and writes them in
// the node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the gauges and counters of one render.
type Metrics struct {
	registry       *prometheus.Registry
	stageSeconds   *prometheus.GaugeVec
	slides         prometheus.Gauge
	fallbacks      *prometheus.CounterVec
	outputDuration prometheus.Gauge
	success        prometheus.Gauge
}

// New creates and registers the render metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	stageSeconds := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reelcast_stage_duration_seconds",
		Help: "Wall time spent in each pipeline stage",
	}, []string{"stage"})
	slides := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reelcast_slides",
		Help: "Number of slides in the rendered video",
	})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reelcast_fallbacks_total",
		Help: "Recoverable failures that switched to a fallback",
	}, []string{"kind"})
	outputDuration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reelcast_output_duration_seconds",
		Help: "Duration of the rendered video",
	})
	success := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reelcast_last_render_success",
		Help: "1 when the render completed, 0 otherwise",
	})

	registry.MustRegister(stageSeconds, slides, fallbacks, outputDuration, success)

	return &Metrics{
		registry:       registry,
		stageSeconds:   stageSeconds,
		slides:         slides,
		fallbacks:      fallbacks,
		outputDuration: outputDuration,
		success:        success,
	}
}

// ObserveStage records how long a stage took since start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	m.stageSeconds.WithLabelValues(stage).Set(time.Since(start).Seconds())
}

func (m *Metrics) SetSlides(n int) {
	m.slides.Set(float64(n))
}

// IncFallback counts a fallback such as an unreadable image or caption file.
func (m *Metrics) IncFallback(kind string) {
	m.fallbacks.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetOutputDuration(seconds float64) {
	m.outputDuration.Set(seconds)
}

func (m *Metrics) SetSuccess(ok bool) {
	if ok {
		m.success.Set(1)
		return
	}
	m.success.Set(0)
}

// WriteTextfile writes all metrics to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
