package worker

import (
	"sync"

	"github.com/fastpay/fastpay-backend/internal/metrics"
)

type task func()

// Pool runs queued tasks on a fixed set of goroutines. SubmitKeyed adds
// single-flight semantics per key: a key can have at most one task queued or
// running at a time.
type Pool struct {
	wg       sync.WaitGroup
	jobs     chan task
	inflight sync.Map // key -> struct{}
}

func NewPool(n int) *Pool {
	p := &Pool{jobs: make(chan task, 1024)}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
				metrics.WorkerQueueDepth.Dec()
			}
		}()
	}
	return p
}

func (p *Pool) Submit(f task) {
	metrics.WorkerQueueDepth.Inc()
	p.jobs <- f
}

// SubmitKeyed enqueues f unless a task with the same key is already in
// flight. Returns false when the submission was dropped.
func (p *Pool) SubmitKeyed(key string, f task) bool {
	if _, loaded := p.inflight.LoadOrStore(key, struct{}{}); loaded {
		return false
	}
	p.Submit(func() {
		defer p.inflight.Delete(key)
		f()
	})
	return true
}

// Stop drains the queue and waits for in-flight tasks.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}
