// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscripterr

import (
	"github.com/pkt-cash/pktsign/btcutil/er"
)

// Err identifies a kind of script or signature encoding error.
var Err er.ErrorType = er.NewErrorType("txscript.Err")

// These constants are used to identify a specific Error.
var (
	// ErrInternal is returned if internal consistency checks fail.
	ErrInternal = Err.Code("ErrInternal")

	// -----------------------------
	// Failures related to scripts.
	// -----------------------------

	// ErrMalformedPush is returned when a data push opcode declares more
	// bytes than remain in the script, or its length prefix is cut short.
	ErrMalformedPush = Err.Code("ErrMalformedPush")

	// ErrInvalidASMToken is returned when an ASM token is neither a known
	// opcode name nor a hex string.
	ErrInvalidASMToken = Err.Code("ErrInvalidASMToken")

	// ErrNotPushOnly is returned when a script that is required to only
	// push data to the stack performs other operations.
	ErrNotPushOnly = Err.Code("ErrNotPushOnly")

	// ErrNotWitnessProgram is returned when a witness version and program
	// are requested from a script which is not a witness program.
	ErrNotWitnessProgram = Err.Code("ErrNotWitnessProgram")

	// --------------------------------
	// Failures related to signatures.
	// --------------------------------

	// ErrInvalidSigLength is returned when a raw signature is not exactly
	// 64 bytes.
	ErrInvalidSigLength = Err.Code("ErrInvalidSigLength")

	// ErrInvalidSigHashType is returned when a signature hash type is not
	// one of SIGHASH_ALL, SIGHASH_NONE or SIGHASH_SINGLE, optionally with
	// SIGHASH_ANYONECANPAY.
	ErrInvalidSigHashType = Err.Code("ErrInvalidSigHashType")

	// ErrSigTooShort is returned when a signature that should be a
	// canonically-encoded DER signature is too short.
	ErrSigTooShort = Err.Code("ErrSigTooShort")

	// ErrSigTooLong is returned when a signature that should be a
	// canonically-encoded DER signature is too long.
	ErrSigTooLong = Err.Code("ErrSigTooLong")

	// ErrSigInvalidSeqID is returned when a DER signature does not start
	// with the ASN.1 sequence ID.
	ErrSigInvalidSeqID = Err.Code("ErrSigInvalidSeqID")

	// ErrSigInvalidDataLen is returned when the DER sequence length does not
	// match the number of remaining bytes.
	ErrSigInvalidDataLen = Err.Code("ErrSigInvalidDataLen")

	// ErrSigMissingSTypeID is returned when a DER signature does not
	// provide the ASN.1 type ID for S.
	ErrSigMissingSTypeID = Err.Code("ErrSigMissingSTypeID")

	// ErrSigInvalidSLen is returned when a DER signature does not specify
	// the correct number of bytes for S.
	ErrSigInvalidSLen = Err.Code("ErrSigInvalidSLen")

	// ErrSigInvalidRIntID is returned when a DER signature does not have
	// the ASN.1 integer ID for R.
	ErrSigInvalidRIntID = Err.Code("ErrSigInvalidRIntID")

	// ErrSigZeroRLen is returned when a DER signature has an R length of
	// zero.
	ErrSigZeroRLen = Err.Code("ErrSigZeroRLen")

	// ErrSigNegativeR is returned when a DER signature has a negative R.
	ErrSigNegativeR = Err.Code("ErrSigNegativeR")

	// ErrSigTooMuchRPadding is returned when a DER signature has too much
	// padding for R.
	ErrSigTooMuchRPadding = Err.Code("ErrSigTooMuchRPadding")

	// ErrSigInvalidSIntID is returned when a DER signature does not have
	// the ASN.1 integer ID for S.
	ErrSigInvalidSIntID = Err.Code("ErrSigInvalidSIntID")

	// ErrSigZeroSLen is returned when a DER signature has an S length of
	// zero.
	ErrSigZeroSLen = Err.Code("ErrSigZeroSLen")

	// ErrSigNegativeS is returned when a DER signature has a negative S.
	ErrSigNegativeS = Err.Code("ErrSigNegativeS")

	// ErrSigTooMuchSPadding is returned when a DER signature has too much
	// padding for S.
	ErrSigTooMuchSPadding = Err.Code("ErrSigTooMuchSPadding")

	// ErrSigIntTooLong is returned when R or S does not fit in 32 bytes
	// once its sign guard is removed.
	ErrSigIntTooLong = Err.Code("ErrSigIntTooLong")
)

// ScriptError creates an Error given a set of arguments.
func ScriptError(c *er.ErrorCode, desc string) er.R {
	return c.New(desc, nil)
}
