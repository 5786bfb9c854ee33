package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector adapts Shell.Metrics into a prometheus.Collector,
// so a single registry.MustRegister(orchestrator.NewPrometheusCollector(shell))
// exposes every component's metrics without each component needing its
// own prometheus wiring.
type PrometheusCollector struct {
	shell *Shell
	desc  *prometheus.Desc
}

// NewPrometheusCollector wraps shell for Prometheus scraping.
func NewPrometheusCollector(shell *Shell) *PrometheusCollector {
	return &PrometheusCollector{
		shell: shell,
		desc: prometheus.NewDesc(
			"zhtp_component_metric",
			"Value of a named metric reported by an orchestrator component.",
			[]string{"component", "metric"},
			nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector, flattening every
// component's GetMetrics map into one gauge per (component, metric)
// pair.
func (c *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	for component, metrics := range c.shell.Metrics() {
		for name, value := range metrics {
			m, err := prometheus.NewConstMetric(c.desc, prometheus.GaugeValue, value, component, name)
			if err != nil {
				continue
			}
			ch <- m
		}
	}
}
