// Package prometheus exports pieceset metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	mc, err := pieceprom.NewCollector(reg)
//	if err != nil {
//	    return err
//	}
//	store := checkpoint.New(blobs, checkpoint.WithMetricsCollector(mc))
//	tracker := swarm.NewTracker(n, swarm.WithMetricsCollector(mc))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prometheus

import (
	"time"

	"github.com/hupe1980/pieceset"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "pieceset"

// Collector implements pieceset.MetricsCollector with Prometheus metrics.
type Collector struct {
	opLatency   *prometheus.HistogramVec
	opBytes     *prometheus.CounterVec
	peerUpdates *prometheus.CounterVec
}

var _ pieceset.MetricsCollector = (*Collector)(nil)

// NewCollector creates the metrics and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "checkpoint_operation_latency_seconds",
			Help:      "Latency of checkpoint operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		opBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "checkpoint_bytes_total",
			Help:      "Encoded checkpoint bytes saved and loaded",
		}, []string{"op"}),
		peerUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "peer_updates_total",
			Help:      "Peer piece set updates",
		}, []string{"status"}),
	}

	for _, col := range []prometheus.Collector{c.opLatency, c.opBytes, c.peerUpdates} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNewCollector is like NewCollector but panics on registration errors.
func MustNewCollector(reg prometheus.Registerer) *Collector {
	c, err := NewCollector(reg)
	if err != nil {
		panic(err)
	}
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordSave implements pieceset.MetricsCollector.
func (c *Collector) RecordSave(bytes int, d time.Duration, err error) {
	c.opLatency.WithLabelValues("save", status(err)).Observe(d.Seconds())
	if err == nil {
		c.opBytes.WithLabelValues("save").Add(float64(bytes))
	}
}

// RecordLoad implements pieceset.MetricsCollector.
func (c *Collector) RecordLoad(bytes int, d time.Duration, err error) {
	c.opLatency.WithLabelValues("load", status(err)).Observe(d.Seconds())
	if err == nil {
		c.opBytes.WithLabelValues("load").Add(float64(bytes))
	}
}

// RecordDelete implements pieceset.MetricsCollector.
func (c *Collector) RecordDelete(d time.Duration, err error) {
	c.opLatency.WithLabelValues("delete", status(err)).Observe(d.Seconds())
}

// RecordPeerUpdate implements pieceset.MetricsCollector.
func (c *Collector) RecordPeerUpdate(err error) {
	c.peerUpdates.WithLabelValues(status(err)).Inc()
}
