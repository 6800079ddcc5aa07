package signpool

import (
	"context"
	"fmt"
	"time"

	"github.com/pkt-cash/pktsign/btcutil/er"
	"github.com/pkt-cash/pktsign/signing"
)

// Sequential signs on the calling goroutine in task order.
type Sequential struct {
	curve   *signing.Curve
	metrics *Metrics
}

var _ Pool = (*Sequential)(nil)

// NewSequential creates a Sequential pool.  metrics may be nil.
func NewSequential(curve *signing.Curve, metrics *Metrics) *Sequential {
	return &Sequential{curve: curve, metrics: metrics}
}

// SignBatch signs each task in turn.
func (s *Sequential) SignBatch(
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

	key := signing.GuardKey(keys)
	defer key.Release()

	for _, t := range tasks {
		if errr := ctx.Err(); errr != nil {
			out.AddError(t.InputIndex, fmt.Sprintf("not signed: %v", errr))
			continue
		}
		res, err := s.curve.Sign(t, key.Bytes())
		if err != nil {
			log.Debugf("Unable to sign %s: %s", t, err.Message())
			out.AddError(t.InputIndex, err.Message())
			continue
		}
		out.AddResult(res)
	}

	out.Finish(start)
	s.metrics.observe(variantSequential, out)
	log.Debugf("Signed %d of %d inputs in %v", len(out.Signatures),
		len(tasks), out.Duration)
	return out, nil
}

// Initialize does nothing, Sequential has no workers.
func (s *Sequential) Initialize() er.R { return nil }

// Shutdown does nothing.
func (s *Sequential) Shutdown() {}

// PreserveWorkers does nothing.
func (s *Sequential) PreserveWorkers() {}

// ReleaseWorkers does nothing.
func (s *Sequential) ReleaseWorkers() {}
