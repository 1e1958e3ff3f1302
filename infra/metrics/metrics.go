// Package metrics mirrors the facade's own atomic counters as Prometheus
// collectors. The collectors are separate counters, updated from the same
// facade call that updates the atomics, so get_performance_metrics() and a
// /metrics scrape count the same events.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Config holds an address for a metrics HTTP endpoint. It plays no part in
// Recorder itself, and cmd/engine does not read it: it serves /metrics on
// its own fixed metricsAddr.
type Config struct {
	Addr string
}

// Recorder owns the four collectors NewRecorder registers once per process.
type Recorder struct {
	ordersProcessed prometheus.Counter
	tradeCount      prometheus.Counter
	processingLat   prometheus.Histogram
	volume          prometheus.Counter
}

// NewRecorder creates and registers the collectors against reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		ordersProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_processed_total",
			Help: "Total number of orders submitted to the matching engine.",
		}),
		tradeCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trade_count_total",
			Help: "Total number of trades executed by the matching engine.",
		}),
		processingLat: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "processing_latency_ns",
			Help:    "Latency of a single add/modify order call, in nanoseconds.",
			Buckets: prometheus.ExponentialBuckets(1000, 2, 20),
		}),
		volume: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trade_volume_total",
			Help: "Total quantity traded across all books.",
		}),
	}
	reg.MustRegister(r.ordersProcessed, r.tradeCount, r.processingLat, r.volume)
	return r
}

// ObserveOrder records one processed order and its latency.
func (r *Recorder) ObserveOrder(latencyNs int64) {
	r.ordersProcessed.Inc()
	r.processingLat.Observe(float64(latencyNs))
}

// ObserveTrade records one executed trade and its quantity.
func (r *Recorder) ObserveTrade(volume uint64) {
	r.tradeCount.Inc()
	r.volume.Add(float64(volume))
}
