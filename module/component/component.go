package component

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	"github.com/fedibtc/minimint/module"
	"github.com/fedibtc/minimint/module/irrecoverable"
	"github.com/fedibtc/minimint/module/util"
)

// Component can be started once and stopped by cancelling its context. Done
// closes after a graceful shutdown as well as after an irrecoverable error.
type Component interface {
	module.Startable
	module.ReadyDoneAware
}

// ReadyFunc is called by a worker once it is ready.
type ReadyFunc func()

// ComponentWorker is a long running routine of a component. It must call ready
// once it is able to serve and return once ctx is done. Irrecoverable errors
// are thrown on ctx.
type ComponentWorker func(ctx irrecoverable.SignalerContext, ready ReadyFunc)

// ComponentManagerBuilder collects the workers of a ComponentManager.
type ComponentManagerBuilder interface {
	AddWorker(ComponentWorker) ComponentManagerBuilder
	Build() *ComponentManager
}

type componentManagerBuilderImpl struct {
	workers []ComponentWorker
}

func NewComponentManagerBuilder() ComponentManagerBuilder {
	return &componentManagerBuilderImpl{}
}

// AddWorker registers a worker. Workers run concurrently once the manager is
// started. Not safe for concurrent use.
func (c *componentManagerBuilderImpl) AddWorker(worker ComponentWorker) ComponentManagerBuilder {
	c.workers = append(c.workers, worker)
	return c
}

func (c *componentManagerBuilderImpl) Build() *ComponentManager {
	return &ComponentManager{
		started:        atomic.NewBool(false),
		ready:          make(chan struct{}),
		done:           make(chan struct{}),
		workersDone:    make(chan struct{}),
		shutdownSignal: make(chan struct{}),
		workers:        c.workers,
	}
}

var _ Component = (*ComponentManager)(nil)

// ComponentManager implements Component on top of a fixed set of workers.
// Ready closes once every worker called its ReadyFunc, Done once every worker
// returned. An error thrown by any worker cancels its siblings and is passed
// on to the context the manager was started with.
type ComponentManager struct {
	started        *atomic.Bool
	ready          chan struct{}
	done           chan struct{}
	workersDone    chan struct{}
	shutdownSignal chan struct{}

	workers []ComponentWorker
}

// Start launches the workers. It panics when called a second time.
func (c *ComponentManager) Start(parent irrecoverable.SignalerContext) {
	if !c.started.CAS(false, true) {
		panic(module.ErrMultipleStartup)
	}

	ctx, cancel := context.WithCancel(parent)
	signalerCtx, errChan := irrecoverable.WithSignaler(ctx)

	go func() {
		<-ctx.Done()
		close(c.shutdownSignal)
	}()

	go func() {
		// done closes only after the error reached the parent, so whoever
		// waits on Done observes the error first
		defer func() {
			<-c.workersDone
			close(c.done)
		}()

		err := util.WaitError(errChan, c.workersDone)
		if err != nil {
			cancel()
			parent.Throw(err)
		}
	}()

	var workersReady sync.WaitGroup
	var workersDone sync.WaitGroup
	workersReady.Add(len(c.workers))
	workersDone.Add(len(c.workers))

	for _, worker := range c.workers {
		worker := worker
		go func() {
			defer workersDone.Done()
			var readyOnce sync.Once
			worker(signalerCtx, func() {
				readyOnce.Do(workersReady.Done)
			})
		}()
	}

	go func() {
		workersReady.Wait()
		close(c.ready)
	}()
	go func() {
		workersDone.Wait()
		close(c.workersDone)
	}()
}

// Ready closes once all workers are ready. It never closes if a worker
// returns without calling its ReadyFunc.
func (c *ComponentManager) Ready() <-chan struct{} {
	return c.ready
}

// Done closes once all workers returned.
func (c *ComponentManager) Done() <-chan struct{} {
	return c.done
}

// ShutdownSignal closes as soon as shutdown begins, either because the
// context was cancelled or because a worker threw an error.
func (c *ComponentManager) ShutdownSignal() <-chan struct{} {
	return c.shutdownSignal
}
