package psbtsign

import (
	"github.com/pkt-cash/pktsign/btcutil/er"
)

// Err is the type of every error returned by this package.
var Err er.ErrorType = er.NewErrorType("psbtsign.Err")

var (
	// ErrBadPacket is returned for a packet which is structurally unusable,
	// for example one with more PSBT inputs than transaction inputs.
	ErrBadPacket = Err.Code("ErrBadPacket")

	// ErrMissingUtxo is returned when an input has neither a witness nor a
	// non-witness utxo, or the non-witness utxo does not match the input.
	ErrMissingUtxo = Err.Code("ErrMissingUtxo")

	// ErrUnsupportedScript is returned for an output script this package
	// cannot sign for.
	ErrUnsupportedScript = Err.Code("ErrUnsupportedScript")

	// ErrSigHash is returned when the signature hash cannot be computed.
	ErrSigHash = Err.Code("ErrSigHash")

	// ErrNonCanonical is returned when a signature would not pass the
	// strict encoding rules once serialized.
	ErrNonCanonical = Err.Code("ErrNonCanonical")

	// ErrCannotFinalize is returned when an input does not have what it
	// needs to be finalized.
	ErrCannotFinalize = Err.Code("ErrCannotFinalize")
)
