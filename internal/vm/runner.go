package vm

import (
	"context"
	"sync"
)

// runner executes persist commands for one screen. A single worker
// goroutine applies jobs in enqueue order, so successive writes against
// the same entity are never reordered. Closing the runner cancels the
// context seen by in-flight jobs and stops accepting new ones.
type runner struct {
	ctx    context.Context
	cancel context.CancelFunc
	jobs   chan func(context.Context)
	wg     sync.WaitGroup
}

func newRunner() *runner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &runner{
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(chan func(context.Context), 32),
	}
	r.wg.Add(1)
	go r.loop()
	return r
}

func (r *runner) loop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.ctx.Done():
			return
		case job := <-r.jobs:
			job(r.ctx)
		}
	}
}

func (r *runner) enqueue(job func(context.Context)) {
	select {
	case <-r.ctx.Done():
	case r.jobs <- job:
	}
}

func (r *runner) close() {
	r.cancel()
	r.wg.Wait()
}
