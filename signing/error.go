package signing

import (
	"github.com/pkt-cash/pktsign/btcutil/er"
)

// Err is the type of every error returned by this package.
var Err er.ErrorType = er.NewErrorType("signing.Err")

var (
	// ErrBadMessageHash is returned when a task's hash is not 32 bytes.
	ErrBadMessageHash = Err.CodeWithDetail("ErrBadMessageHash",
		"message hash must be 32 bytes")

	// ErrBadPrivKey is returned for a private key which is not a 32 byte
	// scalar in [1, n-1].
	ErrBadPrivKey = Err.CodeWithDetail("ErrBadPrivKey",
		"private key is not a valid secp256k1 scalar")

	// ErrSchnorrUnsupported is returned when a Schnorr task is given to a
	// backend which can only make ECDSA signatures.
	ErrSchnorrUnsupported = Err.CodeWithDetail("ErrSchnorrUnsupported",
		"backend does not support schnorr signatures")

	// ErrUnknownSignatureType is returned for a task whose SignatureType is
	// neither ECDSA nor Schnorr.
	ErrUnknownSignatureType = Err.Code("ErrUnknownSignatureType")

	// ErrBackend is returned when the backend itself fails.
	ErrBackend = Err.Code("ErrBackend")
)
