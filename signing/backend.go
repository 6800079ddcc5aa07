package signing

import (
	"fmt"

	"github.com/pkt-cash/pktsign/btcutil/bigbytes"
	"github.com/pkt-cash/pktsign/btcutil/er"
)

// Backend is an elliptic curve implementation which can at least make ECDSA
// signatures.  Signatures are 64 byte r||s.
type Backend interface {
	SignECDSA(hash, priv []byte) ([]byte, er.R)

	// PubKey returns the 33 byte compressed public key of priv.
	PubKey(priv []byte) ([]byte, er.R)
}

// SchnorrBackend is a Backend which can also make BIP340 signatures and
// apply the BIP341 taproot tweak.
type SchnorrBackend interface {
	Backend

	SignSchnorr(hash, priv []byte) ([]byte, er.R)

	// XOnlyPubKey returns the 32 byte BIP340 public key of priv.
	XOnlyPubKey(priv []byte) ([]byte, er.R)

	// TweakTaproot returns priv tweaked with merkleRoot, a nil merkleRoot
	// is the BIP86 key only tweak.  The caller wipes the returned key.
	TweakTaproot(priv, merkleRoot []byte) ([]byte, er.R)
}

// Curve signs tasks with a backend.  Whether the backend can make Schnorr
// signatures is decided once, when the Curve is made.
type Curve struct {
	backend Backend
	schnorr SchnorrBackend
}

// NewCurve wraps backend.
func NewCurve(backend Backend) *Curve {
	c := &Curve{backend: backend}
	if s, ok := backend.(SchnorrBackend); ok {
		c.schnorr = s
		log.Tracef("Using %T for ECDSA and Schnorr signatures", backend)
	} else {
		log.Debugf("Backend %T cannot make Schnorr signatures, taproot "+
			"inputs will fail", backend)
	}
	return c
}

// SupportsSchnorr reports whether Schnorr tasks can be signed.
func (c *Curve) SupportsSchnorr() bool {
	return c.schnorr != nil
}

// Sign makes the signature for one task.  priv is only read.
func (c *Curve) Sign(t *Task, priv []byte) (*Result, er.R) {
	if len(t.MessageHash) != MessageHashSize {
		return nil, ErrBadMessageHash.New(fmt.Sprintf("%s has a %d byte hash",
			t, len(t.MessageHash)), nil)
	}
	var res *Result
	var err er.R
	switch t.SignatureType {
	case ECDSA:
		res, err = c.signECDSA(t, priv)
	case Schnorr:
		res, err = c.signSchnorr(t, priv)
	default:
		return nil, ErrUnknownSignatureType.New(t.String(), nil)
	}
	if err != nil {
		log.Debugf("Backend %T failed %s: %s", c.backend, t, err.Message())
		return nil, err
	}
	return res, nil
}

func (c *Curve) signECDSA(t *Task, priv []byte) (*Result, er.R) {
	sig, err := c.backend.SignECDSA(t.MessageHash, priv)
	if err != nil {
		return nil, err
	}
	pub, err := c.backend.PubKey(priv)
	if err != nil {
		return nil, err
	}
	return &Result{
		InputIndex:    t.InputIndex,
		Signature:     sig,
		PublicKey:     pub,
		SignatureType: ECDSA,
		LeafHash:      cloneBytes(t.LeafHash),
	}, nil
}

func (c *Curve) signSchnorr(t *Task, priv []byte) (*Result, er.R) {
	if c.schnorr == nil {
		return nil, ErrSchnorrUnsupported.New(t.String(), nil)
	}
	if t.TweakKey {
		tweaked, err := c.schnorr.TweakTaproot(priv, t.TaprootMerkleRoot)
		if err != nil {
			return nil, err
		}
		defer bigbytes.Zero(tweaked)
		priv = tweaked
	}
	sig, err := c.schnorr.SignSchnorr(t.MessageHash, priv)
	if err != nil {
		return nil, err
	}
	pub, err := c.schnorr.XOnlyPubKey(priv)
	if err != nil {
		return nil, err
	}
	return &Result{
		InputIndex:    t.InputIndex,
		Signature:     sig,
		PublicKey:     pub,
		SignatureType: Schnorr,
		LeafHash:      cloneBytes(t.LeafHash),
	}, nil
}
