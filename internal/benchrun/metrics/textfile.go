package metrics

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const MetricPrefix = "benchrun_"

// AggregateCollector exposes one Aggregate as gauges. Labels are attached to every metric.
type AggregateCollector struct {
	aggregate Aggregate
	labels    prometheus.Labels
}

func NewAggregateCollector(a Aggregate, labels map[string]string) *AggregateCollector {
	return &AggregateCollector{aggregate: a, labels: labels}
}

func (c *AggregateCollector) descs() (avgRps, okRate, requests *prometheus.Desc) {
	avgRps = prometheus.NewDesc(
		MetricPrefix+"avg_main_rps",
		"Mean requests per second over the main phase",
		nil,
		c.labels,
	)
	okRate = prometheus.NewDesc(
		MetricPrefix+"ok_rate",
		"Fraction of requests that succeeded",
		nil,
		c.labels,
	)
	requests = prometheus.NewDesc(
		MetricPrefix+"requests",
		"Requests issued during the run by outcome",
		[]string{"outcome"},
		c.labels,
	)
	return
}

func (c *AggregateCollector) Describe(desc chan<- *prometheus.Desc) {
	avgRps, okRate, requests := c.descs()
	desc <- avgRps
	desc <- okRate
	desc <- requests
}

func (c *AggregateCollector) Collect(metrics chan<- prometheus.Metric) {
	avgRps, okRate, requests := c.descs()
	metrics <- prometheus.MustNewConstMetric(avgRps, prometheus.GaugeValue, c.aggregate.AvgMainRps)
	metrics <- prometheus.MustNewConstMetric(okRate, prometheus.GaugeValue, c.aggregate.OkRate)
	for _, outcome := range []struct {
		name  string
		value float64
	}{
		{KeyTotal, c.aggregate.Total},
		{KeyOk, c.aggregate.Ok},
		{KeyConnectFail, c.aggregate.ConnectFail},
		{KeyHttpFail, c.aggregate.HttpFail},
		{KeyOtherFail, c.aggregate.OtherFail},
	} {
		metrics <- prometheus.MustNewConstMetric(requests, prometheus.GaugeValue, outcome.value, outcome.name)
	}
}

// WriteTextfile writes a in the Prometheus text exposition format, e.g. for the node exporter textfile collector.
// Invalid label names are reported when the collector is registered.
func WriteTextfile(path string, a Aggregate, labels map[string]string) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(NewAggregateCollector(a, labels)); err != nil {
		return errors.WithStack(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(prometheus.WriteToTextfile(path, registry))
}
