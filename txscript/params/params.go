// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package params

const (
	// MaxScriptSize is the maximum allowed length of a raw script.
	MaxScriptSize = 10000

	// MaxScriptElementSize is the max number of bytes pushable to the stack.
	MaxScriptElementSize = 520

	// PayToWitnessPubKeyHashDataSize is the size of the witness program's
	// data push for a pay-to-witness-pub-key-hash output.
	PayToWitnessPubKeyHashDataSize = 20

	// PayToWitnessScriptHashDataSize is the size of the witness program's
	// data push for a pay-to-witness-script-hash output.
	PayToWitnessScriptHashDataSize = 32

	// PayToTaprootDataSize is the size of a segwit v1 witness program.
	PayToTaprootDataSize = 32

	// RawSignatureSize is the size of an r||s ECDSA or R||s schnorr
	// signature.
	RawSignatureSize = 64

	// MaxDERSignatureSize is the largest strict DER signature, without the
	// trailing hash type byte.
	MaxDERSignatureSize = 72

	// MinDERSignatureSize is the smallest strict DER signature, without
	// the trailing hash type byte.
	MinDERSignatureSize = 8
)

// SigHashType represents hash type bits at the end of a signature.
type SigHashType uint32

// Hash type bits from the end of a signature.
const (
	// SigHashDefault is only valid for taproot signatures where it commits
	// to everything, like SigHashAll, without a trailing byte.
	SigHashDefault      SigHashType = 0x0
	SigHashAll          SigHashType = 0x1
	SigHashNone         SigHashType = 0x2
	SigHashSingle       SigHashType = 0x3
	SigHashAnyOneCanPay SigHashType = 0x80

	// SigHashMask defines the number of bits of the hash type which is used
	// to identify which outputs are signed.
	SigHashMask = 0x1f
)

func (t SigHashType) String() string {
	var s string
	switch t &^ SigHashAnyOneCanPay {
	case SigHashDefault:
		if t == SigHashDefault {
			return "SIGHASH_DEFAULT"
		}
		s = "SIGHASH_UNKNOWN(0x00)"
	case SigHashAll:
		s = "SIGHASH_ALL"
	case SigHashNone:
		s = "SIGHASH_NONE"
	case SigHashSingle:
		s = "SIGHASH_SINGLE"
	default:
		return "SIGHASH_UNKNOWN"
	}
	if t&SigHashAnyOneCanPay != 0 {
		s += "|ANYONECANPAY"
	}
	return s
}
