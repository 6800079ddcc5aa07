package psbtsign

import (
	"context"

	"github.com/btcsuite/btcd/btcutil/psbt"

	"github.com/pkt-cash/pktsign/btcutil/er"
	"github.com/pkt-cash/pktsign/signing"
	"github.com/pkt-cash/pktsign/signpool"
)

// Result is what SignPsbtParallel did to a packet.
type Result struct {
	// Packet is the packet which was passed in, now carrying the new
	// signatures.
	Packet *psbt.Packet

	Outcome *signing.Outcome
	Tasks   []*signing.Task

	// Unsigned lists, in order, the inputs which had a task but did not
	// get a signature.
	Unsigned []int
}

// SignPsbtParallel signs every input of packet that keys can sign, using
// pool, and writes the signatures back into packet.  A per-input failure is
// reported in the outcome, only a failure affecting the whole packet is
// returned as an error.
func SignPsbtParallel(
	ctx context.Context,
	packet *psbt.Packet,
	keys signing.KeyProvider,
	pool signpool.Pool,
) (*Result, er.R) {
	tasks, err := PrepareSigningTasks(packet, keys)
	if err != nil {
		return nil, err
	}
	outcome, err := pool.SignBatch(ctx, tasks, keys)
	if err != nil {
		return nil, err
	}
	unsigned, err := ApplySignatures(packet, tasks, outcome)
	if err != nil {
		return nil, err
	}
	if len(unsigned) > 0 {
		log.Infof("Signed %d of %d inputs of %v, %d failed",
			len(outcome.Signatures), len(tasks),
			packet.UnsignedTx.TxHash(), len(unsigned))
	} else {
		log.Debugf("Signed %d inputs of %v in %v", len(tasks),
			packet.UnsignedTx.TxHash(), outcome.Duration)
	}
	return &Result{
		Packet:   packet,
		Outcome:  outcome,
		Tasks:    tasks,
		Unsigned: unsigned,
	}, nil
}
