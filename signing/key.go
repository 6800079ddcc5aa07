package signing

import (
	"github.com/pkt-cash/pktsign/btcutil/bigbytes"
	"github.com/pkt-cash/pktsign/btcutil/er"
)

// KeyProvider supplies the key a batch is signed with.  PrivKeyBytes may
// return the provider's own buffer, it is copied and never written to.
type KeyProvider interface {
	PrivKeyBytes() []byte
	PubKey() []byte
}

// KeyGuard holds a private copy of a private key.  Release zeroes it, and
// is meant to be deferred right after the guard is taken so the copy is
// wiped on every return path.
type KeyGuard struct {
	key []byte
}

// GuardKey copies the private key out of kp.
func GuardKey(kp KeyProvider) *KeyGuard {
	return GuardBytes(kp.PrivKeyBytes())
}

// GuardBytes copies priv into a new guard.
func GuardBytes(priv []byte) *KeyGuard {
	return &KeyGuard{key: cloneBytes(priv)}
}

// Bytes returns the guarded key.  It is nil after Release.
func (g *KeyGuard) Bytes() []byte {
	return g.key
}

// Release wipes the key.  It is safe to call more than once.
func (g *KeyGuard) Release() {
	bigbytes.Zero(g.key)
	g.key = nil
}

// StaticKey is a KeyProvider over fixed key bytes.
type StaticKey struct {
	priv []byte
	pub  []byte
}

var _ KeyProvider = (*StaticKey)(nil)

// NewStaticKey derives the compressed public key of priv with backend and
// returns a provider for the pair.  priv is copied.
func NewStaticKey(backend Backend, priv []byte) (*StaticKey, er.R) {
	pub, err := backend.PubKey(priv)
	if err != nil {
		return nil, err
	}
	return &StaticKey{priv: cloneBytes(priv), pub: pub}, nil
}

func (k *StaticKey) PrivKeyBytes() []byte { return k.priv }
func (k *StaticKey) PubKey() []byte       { return k.pub }

// Zero wipes the private key held by k.
func (k *StaticKey) Zero() {
	bigbytes.Zero(k.priv)
}
