package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fedibtc/minimint/module"
)

// EpochCollector collects metrics of the epoch driver.
type EpochCollector struct {
	epoch         prometheus.Gauge
	batches       prometheus.Counter
	proposalSize  prometheus.Histogram
	timerPeriod   prometheus.Gauge
	faults        prometheus.Counter
	batchDuration prometheus.Histogram
	submissions   *prometheus.CounterVec
}

var _ module.EpochMetrics = (*EpochCollector)(nil)

// NewEpochCollector registers the driver metrics with the given registerer.
func NewEpochCollector(registerer prometheus.Registerer) *EpochCollector {
	factory := promauto.With(registerer)

	ec := &EpochCollector{
		epoch: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "current_epoch",
			Namespace: namespaceMint,
			Subsystem: subsystemDriver,
			Help:      "the epoch the consensus engine is currently working on",
		}),
		batches: factory.NewCounter(prometheus.CounterOpts{
			Name:      "batches_agreed_total",
			Namespace: namespaceMint,
			Subsystem: subsystemDriver,
			Help:      "the number of batches output by the consensus engine",
		}),
		proposalSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:      "proposal_items",
			Namespace: namespaceMint,
			Subsystem: subsystemDriver,
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
			Help:      "the number of items proposed per epoch",
		}),
		timerPeriod: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "timer_period_seconds",
			Namespace: namespaceMint,
			Subsystem: subsystemDriver,
			Help:      "the current period of the proposal timer",
		}),
		faults: factory.NewCounter(prometheus.CounterOpts{
			Name:      "faults_total",
			Namespace: namespaceMint,
			Subsystem: subsystemDriver,
			Help:      "the number of peer faults observed by the consensus engine",
		}),
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:      "batch_processing_seconds",
			Namespace: namespaceMint,
			Subsystem: subsystemDriver,
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5},
			Help:      "the time spent applying agreed batches to the mint state",
		}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "submissions_total",
			Namespace: namespaceMint,
			Subsystem: subsystemDriver,
			Help:      "the number of client submissions handled, by outcome",
		}, []string{LabelOutcome}),
	}

	return ec
}

func (ec *EpochCollector) EpochAdvanced(epoch uint64) {
	ec.epoch.Set(float64(epoch))
}

func (ec *EpochCollector) BatchesAgreed(count int) {
	ec.batches.Add(float64(count))
}

func (ec *EpochCollector) ProposalSubmitted(items int) {
	ec.proposalSize.Observe(float64(items))
}

func (ec *EpochCollector) TimerPeriod(period time.Duration) {
	ec.timerPeriod.Set(period.Seconds())
}

func (ec *EpochCollector) FaultsReported(count int) {
	ec.faults.Add(float64(count))
}

func (ec *EpochCollector) BatchProcessed(duration time.Duration) {
	ec.batchDuration.Observe(duration.Seconds())
}

func (ec *EpochCollector) SubmissionHandled(outcome string) {
	ec.submissions.With(prometheus.Labels{LabelOutcome: outcome}).Inc()
}
