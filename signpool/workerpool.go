package signpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkt-cash/pktsign/btcutil/bigbytes"
	"github.com/pkt-cash/pktsign/btcutil/er"
	"github.com/pkt-cash/pktsign/signing"
)

type workerState uint8

const (
	stateIdle workerState = iota
	stateBusy
)

func (s workerState) String() string {
	if s == stateBusy {
		return "busy"
	}
	return "idle"
}

type worker struct {
	id    int
	state workerState
}

// job is one task on its way to a worker.  The worker owns key and wipes
// it before reporting back.
type job struct {
	task    *signing.Task
	key     []byte
	results chan<- jobResult
}

type jobResult struct {
	task   *signing.Task
	res    *signing.Result
	err    er.R
	worker int
}

// WorkerPool signs on a fixed set of goroutines fed from a bounded queue.
type WorkerPool struct {
	cfg     Config
	curve   *signing.Curve
	metrics *Metrics

	// callerLock serializes batches with starting and stopping the pool.
	callerLock sync.Mutex

	// lock guards everything below.
	lock    sync.Mutex
	workers []*worker
	jobs    chan *job
	quit    chan struct{}

	// wg counts the workers of the running generation only.  Each start
	// makes a new one so a stop never waits on workers it did not start.
	wg       *sync.WaitGroup
	running  bool
	preserve bool
}

var _ Pool = (*WorkerPool)(nil)

// NewWorkerPool creates a pool.  No workers run until Initialize or the
// first batch.  metrics may be nil.
func NewWorkerPool(cfg Config, curve *signing.Curve, metrics *Metrics) *WorkerPool {
	return &WorkerPool{
		cfg:      cfg,
		curve:    curve,
		metrics:  metrics,
		preserve: cfg.PreserveWorkers,
	}
}

// Initialize starts the workers if they are not running.  It waits for a
// running batch or shutdown to finish.
func (p *WorkerPool) Initialize() er.R {
	p.callerLock.Lock()
	defer p.callerLock.Unlock()
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.start()
}

// start must be called with p.lock held.
func (p *WorkerPool) start() er.R {
	if p.running {
		return nil
	}
	n, err := p.cfg.workerCount()
	if err != nil {
		return err
	}
	p.jobs = make(chan *job, n*DefaultBacklog)
	p.quit = make(chan struct{})
	p.wg = new(sync.WaitGroup)
	p.workers = make([]*worker, n)
	for i := range p.workers {
		w := &worker{id: i, state: stateIdle}
		p.workers[i] = w
		p.wg.Add(1)
		go p.workerLoop(w, p.jobs, p.quit, p.wg)
	}
	p.running = true
	p.metrics.setWorkers(n)
	log.Debugf("Started %d signing workers", n)
	return nil
}

// Shutdown stops the workers, waiting for a running batch to finish first.
func (p *WorkerPool) Shutdown() {
	p.callerLock.Lock()
	defer p.callerLock.Unlock()
	p.stop()
}

// stop must be called with p.callerLock held.  The generation is detached
// under p.lock, so a start after it returns begins from a clean pool.
func (p *WorkerPool) stop() {
	p.lock.Lock()
	if !p.running {
		p.lock.Unlock()
		return
	}
	close(p.quit)
	wg := p.wg
	n := len(p.workers)
	p.running = false
	p.workers = nil
	p.jobs = nil
	p.quit = nil
	p.wg = nil
	p.lock.Unlock()

	wg.Wait()
	p.metrics.setWorkers(0)
	log.Debugf("Stopped %d signing workers", n)
}

// PreserveWorkers keeps workers running after each batch.
func (p *WorkerPool) PreserveWorkers() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.preserve = true
}

// ReleaseWorkers makes each batch stop the workers when it is done.  Workers
// which are already idle are stopped at once.
func (p *WorkerPool) ReleaseWorkers() {
	p.lock.Lock()
	p.preserve = false
	p.lock.Unlock()

	if p.callerLock.TryLock() {
		defer p.callerLock.Unlock()
		p.stop()
	}
}

// WorkerStates counts the workers which are idle and busy.
func (p *WorkerPool) WorkerStates() (idle, busy int) {
	p.lock.Lock()
	defer p.lock.Unlock()
	for _, w := range p.workers {
		if w.state == stateBusy {
			busy++
		} else {
			idle++
		}
	}
	return
}

func (p *WorkerPool) setState(w *worker, s workerState) {
	p.lock.Lock()
	w.state = s
	p.lock.Unlock()
}

func (p *WorkerPool) workerLoop(w *worker, jobs <-chan *job,
	quit <-chan struct{}, wg *sync.WaitGroup) {

	defer wg.Done()
	for {
		select {
		case j := <-jobs:
			p.setState(w, stateBusy)
			res, err := p.curve.Sign(j.task, j.key)
			bigbytes.Zero(j.key)
			p.setState(w, stateIdle)
			j.results <- jobResult{task: j.task, res: res, err: err, worker: w.id}
		case <-quit:
			return
		}
	}
}

// SignBatch hands each task, with its own copy of the key, to the workers
// and waits for all of them.
func (p *WorkerPool) SignBatch(
	ctx context.Context,
	tasks []*signing.Task,
	keys signing.KeyProvider,
) (*signing.Outcome, er.R) {
	start := time.Now()
	out := signing.NewOutcome()
	if len(tasks) == 0 {
		return out.Finish(start), nil
	}
	if keys == nil {
		return nil, ErrNoKey.Default()
	}

	p.callerLock.Lock()
	defer p.callerLock.Unlock()

	p.lock.Lock()
	if err := p.start(); err != nil {
		p.lock.Unlock()
		return nil, err
	}
	jobs := p.jobs
	p.lock.Unlock()

	key := signing.GuardKey(keys)
	defer key.Release()

	results := make(chan jobResult, len(tasks))
	dispatched := 0
	for _, t := range tasks {
		if errr := ctx.Err(); errr != nil {
			out.AddError(t.InputIndex, fmt.Sprintf("not signed: %v", errr))
			continue
		}
		j := &job{
			task:    t,
			key:     append([]byte(nil), key.Bytes()...),
			results: results,
		}
		select {
		case jobs <- j:
			dispatched++
		case <-ctx.Done():
			bigbytes.Zero(j.key)
			out.AddError(t.InputIndex, fmt.Sprintf("not signed: %v", ctx.Err()))
		}
	}
	log.Tracef("Dispatched %d of %d tasks for inputs %v", dispatched,
		len(tasks), inputs(tasks))

	for i := 0; i < dispatched; i++ {
		r := <-results
		if r.err != nil {
			log.Debugf("Worker %d unable to sign %s: %s", r.worker, r.task,
				r.err.Message())
			out.AddError(r.task.InputIndex, r.err.Message())
			continue
		}
		out.AddResult(r.res)
	}

	p.lock.Lock()
	preserve := p.preserve
	p.lock.Unlock()
	if !preserve {
		p.stop()
	}

	out.Finish(start)
	p.metrics.observe(variantConcurrent, out)
	log.Debugf("Signed %d of %d inputs in %v", len(out.Signatures),
		len(tasks), out.Duration)
	return out, nil
}
