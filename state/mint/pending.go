package mint

import (
	"container/list"
	"sync"

	model "github.com/fedibtc/minimint/model/mint"
)

// pendingBuffer holds the items waiting to be agreed on, in insertion order.
// Items stay buffered until a batch containing them is applied, so a proposal
// which does not make it into a batch is retried in the next epoch.
type pendingBuffer struct {
	sync.Mutex
	limit uint
	order *list.List
	items map[model.Identifier]*list.Element
}

func newPendingBuffer(limit uint) *pendingBuffer {
	return &pendingBuffer{
		limit: limit,
		order: list.New(),
		items: make(map[model.Identifier]*list.Element),
	}
}

// Add buffers a client item. It returns false if the buffer is full.
func (p *pendingBuffer) Add(id model.Identifier, item *model.ConsensusItem) bool {
	p.Lock()
	defer p.Unlock()
	if uint(p.order.Len()) >= p.limit {
		return false
	}
	p.insert(id, item)
	return true
}

// Push buffers an item produced by the node itself, ignoring the limit.
func (p *pendingBuffer) Push(id model.Identifier, item *model.ConsensusItem) {
	p.Lock()
	defer p.Unlock()
	p.insert(id, item)
}

func (p *pendingBuffer) insert(id model.Identifier, item *model.ConsensusItem) {
	if _, ok := p.items[id]; ok {
		return
	}
	p.items[id] = p.order.PushBack(item)
}

func (p *pendingBuffer) Has(id model.Identifier) bool {
	p.Lock()
	defer p.Unlock()
	_, ok := p.items[id]
	return ok
}

// Snapshot returns up to limit of the oldest buffered items.
func (p *pendingBuffer) Snapshot(limit uint) model.Proposal {
	p.Lock()
	defer p.Unlock()
	size := uint(p.order.Len())
	if size > limit {
		size = limit
	}
	proposal := make(model.Proposal, 0, size)
	for e := p.order.Front(); e != nil && uint(len(proposal)) < size; e = e.Next() {
		proposal = append(proposal, e.Value.(*model.ConsensusItem))
	}
	return proposal
}

// Remove drops the given items from the buffer. Unknown IDs are ignored.
func (p *pendingBuffer) Remove(ids ...model.Identifier) {
	p.Lock()
	defer p.Unlock()
	for _, id := range ids {
		e, ok := p.items[id]
		if !ok {
			continue
		}
		p.order.Remove(e)
		delete(p.items, id)
	}
}

func (p *pendingBuffer) Len() uint {
	p.Lock()
	defer p.Unlock()
	return uint(p.order.Len())
}
