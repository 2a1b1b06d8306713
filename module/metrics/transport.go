package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fedibtc/minimint/module"
)

type TransportCollector struct {
	sent     prometheus.Histogram
	received prometheus.Histogram
	dropped  *prometheus.CounterVec
}

var _ module.TransportMetrics = (*TransportCollector)(nil)

func NewTransportCollector(registerer prometheus.Registerer) *TransportCollector {
	factory := promauto.With(registerer)

	return &TransportCollector{
		sent: factory.NewHistogram(prometheus.HistogramOpts{
			Name:      "message_sent_bytes",
			Namespace: namespaceMint,
			Subsystem: subsystemTransport,
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
			Help:      "the size of messages sent to peers",
		}),
		received: factory.NewHistogram(prometheus.HistogramOpts{
			Name:      "message_received_bytes",
			Namespace: namespaceMint,
			Subsystem: subsystemTransport,
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
			Help:      "the size of messages received from peers",
		}),
		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "messages_dropped_total",
			Namespace: namespaceMint,
			Subsystem: subsystemTransport,
			Help:      "the number of inbound frames dropped, by reason",
		}, []string{LabelReason}),
	}
}

func (tc *TransportCollector) MessageSent(sizeBytes int) {
	tc.sent.Observe(float64(sizeBytes))
}

func (tc *TransportCollector) MessageReceived(sizeBytes int) {
	tc.received.Observe(float64(sizeBytes))
}

func (tc *TransportCollector) MessageDropped(reason string) {
	tc.dropped.With(prometheus.Labels{LabelReason: reason}).Inc()
}
