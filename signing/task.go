// Package signing describes a unit of signing work and the elliptic curve
// backend which performs it.
package signing

import (
	"fmt"
	"time"

	"github.com/pkt-cash/pktsign/txscript/params"
)

// MessageHashSize is the size of a signature hash.
const MessageHashSize = 32

// SignatureType selects the signature algorithm for a task.
type SignatureType int

const (
	// ECDSA signatures are DER encoded before they go on chain.
	ECDSA SignatureType = iota

	// Schnorr signatures are BIP340 64 byte R||s, used by taproot spends.
	Schnorr
)

func (t SignatureType) String() string {
	switch t {
	case ECDSA:
		return "ecdsa"
	case Schnorr:
		return "schnorr"
	}
	return fmt.Sprintf("SignatureType(%d)", int(t))
}

// Task is one signature to be made.  Tasks are not modified after NewTask
// returns them, pools only ever read them.
type Task struct {
	TaskID        int
	InputIndex    int
	MessageHash   []byte
	SignatureType SignatureType
	SigHashType   params.SigHashType

	// LeafHash is set for taproot script path spends.
	LeafHash []byte

	// TweakKey asks for the key to be tweaked with TaprootMerkleRoot, per
	// BIP341, before a key path signature is made.
	TweakKey          bool
	TaprootMerkleRoot []byte
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// NewTask creates a task which does not share memory with its arguments.
// The hash length is checked when the task is signed, so that a bad hash
// fails only its own task.
func NewTask(
	taskID, inputIndex int,
	messageHash []byte,
	sigType SignatureType,
	sigHashType params.SigHashType,
	leafHash []byte,
) *Task {
	return &Task{
		TaskID:        taskID,
		InputIndex:    inputIndex,
		MessageHash:   cloneBytes(messageHash),
		SignatureType: sigType,
		SigHashType:   sigHashType,
		LeafHash:      cloneBytes(leafHash),
	}
}

// WithTaprootTweak returns a copy of t which signs with the key tweaked by
// merkleRoot.  A nil merkleRoot is the BIP86 key only tweak.
func (t *Task) WithTaprootTweak(merkleRoot []byte) *Task {
	out := *t
	out.MessageHash = cloneBytes(t.MessageHash)
	out.LeafHash = cloneBytes(t.LeafHash)
	out.TweakKey = true
	out.TaprootMerkleRoot = cloneBytes(merkleRoot)
	return &out
}

func (t *Task) String() string {
	return fmt.Sprintf("task %d (input %d, %s, %v)", t.TaskID, t.InputIndex,
		t.SignatureType, t.SigHashType)
}

// Result is a signature made for one input.
type Result struct {
	InputIndex    int
	Signature     []byte
	PublicKey     []byte
	SignatureType SignatureType
	LeafHash      []byte
}

// Outcome collects the results of a batch.  Every task's input index ends
// up in exactly one of Signatures or Errors.
type Outcome struct {
	Success    bool
	Signatures map[int]*Result
	Errors     map[int]string
	Duration   time.Duration
}

// NewOutcome returns an empty, successful outcome.
func NewOutcome() *Outcome {
	return &Outcome{
		Success:    true,
		Signatures: make(map[int]*Result),
		Errors:     make(map[int]string),
	}
}

// AddResult records a signature, replacing any error recorded for the same
// input.
func (o *Outcome) AddResult(r *Result) {
	delete(o.Errors, r.InputIndex)
	o.Signatures[r.InputIndex] = r
	o.Success = len(o.Errors) == 0
}

// AddError records a failure, replacing any signature recorded for the same
// input.
func (o *Outcome) AddError(inputIndex int, msg string) {
	delete(o.Signatures, inputIndex)
	o.Errors[inputIndex] = msg
	o.Success = false
}

// Finish stamps the time elapsed since start.
func (o *Outcome) Finish(start time.Time) *Outcome {
	o.Duration = time.Since(start)
	o.Success = len(o.Errors) == 0
	return o
}

// DurationMs is the batch duration in milliseconds.
func (o *Outcome) DurationMs() int64 {
	return o.Duration.Milliseconds()
}
