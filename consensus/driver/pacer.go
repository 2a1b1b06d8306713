package driver

import (
	"time"

	"go.uber.org/atomic"

	"github.com/fedibtc/minimint/model/mint"
)

// Pacer owns the proposal timer and adapts its period to how well this node
// keeps up with the federation.
type Pacer struct {
	me        mint.PeerID
	nominal   time.Duration
	fastRetry time.Duration
	period    *atomic.Duration
	ticker    *time.Ticker
}

// NewPacer creates a pacer which starts at the nominal period.
func NewPacer(me mint.PeerID, nominal, fastRetry time.Duration) *Pacer {
	return &Pacer{
		me:        me,
		nominal:   nominal,
		fastRetry: fastRetry,
		period:    atomic.NewDuration(nominal),
	}
}

// Start arms the timer. The first tick arrives one full period later.
func (p *Pacer) Start() {
	p.ticker = time.NewTicker(p.period.Load())
}

// Stop releases the timer.
func (p *Pacer) Stop() {
	if p.ticker != nil {
		p.ticker.Stop()
	}
}

// C returns the tick channel. It stays the same across period changes.
func (p *Pacer) C() <-chan time.Time {
	return p.ticker.C
}

// Period returns the current timer period.
func (p *Pacer) Period() time.Duration {
	return p.period.Load()
}

// Adjust inspects a step and re-arms the timer if the step agreed on batches.
// If every batch carries this node's contribution the period returns to
// nominal, otherwise it drops to fast retry. Steps without output leave the
// timer untouched. Returns true if the timer was re-armed.
func (p *Pacer) Adjust(step *mint.Step) bool {
	if len(step.Output) == 0 {
		return false
	}

	period := p.fastRetry
	if step.AllContain(p.me) {
		period = p.nominal
	}
	p.period.Store(period)

	if p.ticker != nil {
		p.ticker.Reset(period)
		// drop a tick buffered under the old period, the next tick is a full period away
		select {
		case <-p.ticker.C:
		default:
		}
	}
	return true
}
