package signing

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"

	"github.com/pkt-cash/pktsign/btcutil/er"
)

// Secp256k1 is the btcec backend.  ECDSA signatures are RFC6979
// deterministic with low S, Schnorr signatures follow BIP340.
type Secp256k1 struct{}

var _ SchnorrBackend = Secp256k1{}

// parsePrivKey rejects anything other than a 32 byte scalar in [1, n-1].
// The returned key must be zeroed by the caller.
func parsePrivKey(priv []byte) (*btcec.PrivateKey, er.R) {
	if len(priv) != 32 {
		return nil, ErrBadPrivKey.Default()
	}
	var k btcec.ModNScalar
	if overflow := k.SetByteSlice(priv); overflow || k.IsZero() {
		k.Zero()
		return nil, ErrBadPrivKey.Default()
	}
	key := btcec.PrivKeyFromScalar(&k)
	k.Zero()
	return key, nil
}

// SignECDSA makes a 64 byte r||s signature of hash.
func (Secp256k1) SignECDSA(hash, priv []byte) ([]byte, er.R) {
	if len(hash) != MessageHashSize {
		return nil, ErrBadMessageHash.Default()
	}
	key, err := parsePrivKey(priv)
	if err != nil {
		return nil, err
	}
	defer key.Zero()

	// The compact form is a recovery byte followed by r and s, each
	// padded to 32 bytes.
	compact := ecdsa.SignCompact(key, hash, true)
	sig := make([]byte, 64)
	copy(sig, compact[1:65])
	return sig, nil
}

// SignSchnorr makes a BIP340 signature of hash.
func (Secp256k1) SignSchnorr(hash, priv []byte) ([]byte, er.R) {
	if len(hash) != MessageHashSize {
		return nil, ErrBadMessageHash.Default()
	}
	key, err := parsePrivKey(priv)
	if err != nil {
		return nil, err
	}
	defer key.Zero()

	sig, errr := schnorr.Sign(key, hash)
	if errr != nil {
		return nil, ErrBackend.New("schnorr sign failed", er.E(errr))
	}
	return sig.Serialize(), nil
}

// PubKey returns the compressed public key of priv.
func (Secp256k1) PubKey(priv []byte) ([]byte, er.R) {
	key, err := parsePrivKey(priv)
	if err != nil {
		return nil, err
	}
	defer key.Zero()
	return key.PubKey().SerializeCompressed(), nil
}

// XOnlyPubKey returns the BIP340 public key of priv.
func (Secp256k1) XOnlyPubKey(priv []byte) ([]byte, er.R) {
	key, err := parsePrivKey(priv)
	if err != nil {
		return nil, err
	}
	defer key.Zero()
	return schnorr.SerializePubKey(key.PubKey()), nil
}

// TweakTaproot applies the BIP341 output key tweak to priv.
func (Secp256k1) TweakTaproot(priv, merkleRoot []byte) ([]byte, er.R) {
	key, err := parsePrivKey(priv)
	if err != nil {
		return nil, err
	}
	defer key.Zero()

	tweaked := txscript.TweakTaprootPrivKey(*key, merkleRoot)
	defer tweaked.Zero()
	return tweaked.Serialize(), nil
}
