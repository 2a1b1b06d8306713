package metrics

import (
	"time"

	"github.com/fedibtc/minimint/module"
)

type NoopCollector struct{}

func NewNoopCollector() *NoopCollector {
	nc := &NoopCollector{}
	return nc
}

var _ module.EpochMetrics = (*NoopCollector)(nil)
var _ module.GatewayMetrics = (*NoopCollector)(nil)
var _ module.TransportMetrics = (*NoopCollector)(nil)

func (nc *NoopCollector) EpochAdvanced(epoch uint64)                                   {}
func (nc *NoopCollector) BatchesAgreed(count int)                                      {}
func (nc *NoopCollector) ProposalSubmitted(items int)                                  {}
func (nc *NoopCollector) TimerPeriod(period time.Duration)                             {}
func (nc *NoopCollector) FaultsReported(count int)                                     {}
func (nc *NoopCollector) BatchProcessed(duration time.Duration)                        {}
func (nc *NoopCollector) SubmissionHandled(outcome string)                             {}
func (nc *NoopCollector) RequestServed(route string, code int, duration time.Duration) {}
func (nc *NoopCollector) ResponsesDelivered(count int)                                 {}
func (nc *NoopCollector) IntakeQueueLength(length int)                                 {}
func (nc *NoopCollector) MessageSent(sizeBytes int)                                    {}
func (nc *NoopCollector) MessageReceived(sizeBytes int)                                {}
func (nc *NoopCollector) MessageDropped(reason string)                                 {}
