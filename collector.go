package main

import (
	"sync"

	"github.com/connqual/latency_monitor/config"
	"github.com/connqual/latency_monitor/monitor"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const prefix = "quality_"

// qualityCollector exposes the most recent classification as Prometheus
// metrics. It is fed through the monitor's latency change subscription.
type qualityCollector struct {
	endpoint config.EndpointConfig
	labels   *customLabelSet

	latencyDesc  scaledMetrics
	tierDesc     *prometheus.Desc
	samplesDesc  *prometheus.Desc
	failuresDesc *prometheus.Desc

	mutex    sync.Mutex
	tier     monitor.Tier
	latency  int64
	samples  uint64
	failures uint64
	seen     bool
}

func newQualityCollector(endpoint config.EndpointConfig) *qualityCollector {
	labels := newCustomLabelSet(endpoint)
	names := append([]string{"endpoint"}, labels.labelNames()...)

	return &qualityCollector{
		endpoint:     endpoint,
		labels:       labels,
		latencyDesc:  newScaledDesc("latency", "Smoothed round trip latency", latencyMetricsScale, names),
		tierDesc:     newDesc("tier", "Connection quality tier (0=disconnected, 1=slow, 2=moderate, 3=fast)", names, nil),
		samplesDesc:  newDesc("samples_total", "Number of completed measurement cycles", names, nil),
		failuresDesc: newDesc("failures_total", "Number of cycles where the smoothed latency was a failure", names, nil),
	}
}

// observe is the monitor's subscriber callback.
func (q *qualityCollector) observe(tier monitor.Tier, latencyMs int64) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if !q.seen || tier != q.tier {
		log.Infof("connection quality is %s (%dms)", tier, latencyMs)
	}

	q.samples++
	if latencyMs == monitor.Failure {
		q.failures++
	}
	q.tier = tier
	q.latency = latencyMs
	q.seen = true
}

func (q *qualityCollector) Describe(ch chan<- *prometheus.Desc) {
	q.latencyDesc.Describe(ch)
	ch <- q.tierDesc
	ch <- q.samplesDesc
	ch <- q.failuresDesc
}

func (q *qualityCollector) Collect(ch chan<- prometheus.Metric) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	l := append([]string{q.endpoint.URL}, q.labels.labelValues(q.endpoint)...)

	ch <- prometheus.MustNewConstMetric(q.samplesDesc, prometheus.CounterValue, float64(q.samples), l...)
	ch <- prometheus.MustNewConstMetric(q.failuresDesc, prometheus.CounterValue, float64(q.failures), l...)

	if !q.seen {
		return
	}

	ch <- prometheus.MustNewConstMetric(q.tierDesc, prometheus.GaugeValue, float64(q.tier), l...)
	if q.latency != monitor.Failure {
		q.latencyDesc.Collect(ch, q.latency, l...)
	}
}

func newDesc(name, help string, variableLabels []string, constLabels prometheus.Labels) *prometheus.Desc {
	return prometheus.NewDesc(prefix+name, help, variableLabels, constLabels)
}
