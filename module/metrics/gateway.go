package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fedibtc/minimint/module"
)

type GatewayCollector struct {
	requests    *prometheus.HistogramVec
	responses   prometheus.Counter
	intakeQueue prometheus.Gauge
}

var _ module.GatewayMetrics = (*GatewayCollector)(nil)

func NewGatewayCollector(registerer prometheus.Registerer) *GatewayCollector {
	factory := promauto.With(registerer)

	return &GatewayCollector{
		requests: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:      "request_duration_seconds",
			Namespace: namespaceMint,
			Subsystem: subsystemGateway,
			Buckets:   prometheus.DefBuckets,
			Help:      "the duration of REST requests, by route and status code",
		}, []string{LabelRoute, LabelCode}),
		responses: factory.NewCounter(prometheus.CounterOpts{
			Name:      "responses_delivered_total",
			Namespace: namespaceMint,
			Subsystem: subsystemGateway,
			Help:      "the number of signature responses delivered to clients",
		}),
		intakeQueue: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "intake_queue_length",
			Namespace: namespaceMint,
			Subsystem: subsystemGateway,
			Help:      "the number of client submissions waiting for the epoch driver",
		}),
	}
}

func (gc *GatewayCollector) RequestServed(route string, code int, duration time.Duration) {
	gc.requests.With(prometheus.Labels{LabelRoute: route, LabelCode: strconv.Itoa(code)}).Observe(duration.Seconds())
}

func (gc *GatewayCollector) ResponsesDelivered(count int) {
	gc.responses.Add(float64(count))
}

func (gc *GatewayCollector) IntakeQueueLength(length int) {
	gc.intakeQueue.Set(float64(length))
}
