// Package signpool signs batches of tasks, either one after another on the
// calling goroutine or spread over a set of worker goroutines.
package signpool

import (
	"context"
	"runtime"

	"github.com/pkt-cash/pktsign/btcutil/er"
	"github.com/pkt-cash/pktsign/signing"
)

// Err is the type of every error returned by this package.
var Err er.ErrorType = er.NewErrorType("signpool.Err")

var (
	// ErrBadConfig is returned by Initialize for an unusable Config.
	ErrBadConfig = Err.Code("ErrBadConfig")

	// ErrNoKey is returned when a batch is given no key.
	ErrNoKey = Err.CodeWithDetail("ErrNoKey", "no key provider for batch")
)

// Pool signs batches.  Both implementations give byte identical results for
// the same tasks and key.
type Pool interface {
	// SignBatch signs every task with the key from keys.  It returns once
	// every task has a signature or an error in the outcome, a failing
	// task does not stop the others.  When ctx is done, tasks which have
	// not been started fail and those already started are waited for.
	SignBatch(ctx context.Context, tasks []*signing.Task,
		keys signing.KeyProvider) (*signing.Outcome, er.R)

	// Initialize readies the pool.  It may be called more than once.
	Initialize() er.R

	// Shutdown releases everything the pool holds.  It may be called more
	// than once, and a later batch initializes the pool again.
	Shutdown()

	// PreserveWorkers keeps workers alive between batches.
	PreserveWorkers()

	// ReleaseWorkers tears workers down after each batch.
	ReleaseWorkers()
}

// Config sizes a WorkerPool.
type Config struct {
	// WorkerCount is the number of worker goroutines, zero means one per
	// CPU.
	WorkerCount int

	// PreserveWorkers keeps workers running between batches.
	PreserveWorkers bool

	// Sequential makes a Handle give out a Sequential pool.
	Sequential bool
}

// DefaultBacklog is the number of queued tasks allowed per worker.
const DefaultBacklog = 10

// DefaultConfig is one worker per CPU, kept between batches.
func DefaultConfig() Config {
	return Config{PreserveWorkers: true}
}

func (c Config) workerCount() (int, er.R) {
	switch {
	case c.WorkerCount < 0:
		return 0, ErrBadConfig.New("negative worker count", nil)
	case c.WorkerCount == 0:
		n := runtime.NumCPU()
		if n < 1 {
			n = 1
		}
		return n, nil
	}
	return c.WorkerCount, nil
}

func inputs(tasks []*signing.Task) []int {
	out := make([]int, len(tasks))
	for i, t := range tasks {
		out[i] = t.InputIndex
	}
	return out
}
