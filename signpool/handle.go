package signpool

import (
	"sync"

	"github.com/pkt-cash/pktsign/signing"
)

// Handle gives out a single pool, made the first time it is asked for.  It
// is created by the application and passed to whatever needs to sign.
type Handle struct {
	cfg     Config
	curve   *signing.Curve
	metrics *Metrics

	lock sync.Mutex
	pool Pool
}

// NewHandle creates a handle.  metrics may be nil.
func NewHandle(cfg Config, curve *signing.Curve, metrics *Metrics) *Handle {
	return &Handle{cfg: cfg, curve: curve, metrics: metrics}
}

// Get returns the pool, creating and initializing it on the first call.  If
// the concurrent pool cannot be initialized a Sequential pool is used.
func (h *Handle) Get() Pool {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.pool != nil {
		return h.pool
	}
	if h.cfg.Sequential {
		h.pool = NewSequential(h.curve, h.metrics)
		return h.pool
	}
	wp := NewWorkerPool(h.cfg, h.curve, h.metrics)
	if err := wp.Initialize(); err != nil {
		log.Warnf("Unable to start signing workers, signing sequentially: %s",
			err.Message())
		h.pool = NewSequential(h.curve, h.metrics)
		return h.pool
	}
	h.pool = wp
	return h.pool
}

// Reset shuts the pool down, the next Get creates a new one.  A batch which
// is running is allowed to finish first.
func (h *Handle) Reset() {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.pool == nil {
		return
	}
	h.pool.Shutdown()
	h.pool = nil
}
