// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package scriptsig converts ECDSA signatures between their raw 64 byte r||s
// form and the strict DER form, followed by a hash type byte, which is
// carried in scripts and witnesses.
package scriptsig

import (
	"fmt"

	"github.com/pkt-cash/pktsign/btcutil/bigbytes"
	"github.com/pkt-cash/pktsign/btcutil/er"
	"github.com/pkt-cash/pktsign/txscript/params"
	"github.com/pkt-cash/pktsign/txscript/txscripterr"
)

const (
	asn1SequenceID = 0x30
	asn1IntegerID  = 0x02

	halfSize = params.RawSignatureSize / 2
)

// ScriptSignature is a decoded script signature.
type ScriptSignature struct {
	Signature [params.RawSignatureSize]byte
	HashType  params.SigHashType
}

// IsDefinedHashType returns true for SIGHASH_ALL, SIGHASH_NONE and
// SIGHASH_SINGLE, each with or without SIGHASH_ANYONECANPAY.
func IsDefinedHashType(b byte) bool {
	t := params.SigHashType(b) &^ params.SigHashAnyOneCanPay
	return t >= params.SigHashAll && t <= params.SigHashSingle
}

func checkHashType(hashType params.SigHashType) er.R {
	if hashType > 0xff || !IsDefinedHashType(byte(hashType)) {
		return txscripterr.ScriptError(txscripterr.ErrInvalidSigHashType,
			fmt.Sprintf("invalid hash type 0x%x", uint32(hashType)))
	}
	return nil
}

// derInt returns the DER content octets of an unsigned big endian integer.
// Zero is encoded as a single 0x00 byte.
func derInt(x []byte) []byte {
	x = bigbytes.TrimLeft(x)
	if len(x) == 0 {
		return []byte{0x00}
	}
	if x[0]&0x80 != 0 {
		out := make([]byte, len(x)+1)
		copy(out[1:], x)
		return out
	}
	return x
}

// EncodeDER converts a 64 byte r||s signature to DER.
func EncodeDER(raw []byte) ([]byte, er.R) {
	if len(raw) != params.RawSignatureSize {
		return nil, txscripterr.ScriptError(txscripterr.ErrInvalidSigLength,
			fmt.Sprintf("raw signature is %d bytes, expected %d",
				len(raw), params.RawSignatureSize))
	}
	r := derInt(raw[:halfSize])
	s := derInt(raw[halfSize:])

	der := make([]byte, 0, 6+len(r)+len(s)+1)
	der = append(der, asn1SequenceID, byte(4+len(r)+len(s)))
	der = append(der, asn1IntegerID, byte(len(r)))
	der = append(der, r...)
	der = append(der, asn1IntegerID, byte(len(s)))
	der = append(der, s...)
	return der, nil
}

// Encode converts a 64 byte r||s signature to DER and appends the hash type.
func Encode(raw []byte, hashType params.SigHashType) ([]byte, er.R) {
	if err := checkHashType(hashType); err != nil {
		return nil, err
	}
	der, err := EncodeDER(raw)
	if err != nil {
		return nil, err
	}
	return append(der, byte(hashType)), nil
}

// CheckDER verifies that der is a strictly encoded signature as required by
// BIP66.  There is no hash type byte.
//
// The format of a DER encoded signature is as follows:
//
//	0x30 <total length> 0x02 <length of R> <R> 0x02 <length of S> <S>
//	  - 0x30 is the ASN.1 identifier for a sequence
//	  - Total length is 1 byte and specifies length of all remaining data
//	  - 0x02 is the ASN.1 identifier that specifies an integer follows
//	  - Length of R is 1 byte and specifies how many bytes R occupies
//	  - R is the arbitrary length big-endian encoded number which
//	    represents the R value of the signature.  DER encoding dictates
//	    that the value must be encoded using the minimum possible number
//	    of bytes.  This implies the first byte can only be null if the
//	    highest bit of the next byte is set in order to prevent it from
//	    being interpreted as a negative number.
//	  - 0x02 is once again the ASN.1 integer identifier
//	  - Length of S is 1 byte and specifies how many bytes S occupies
//	  - S is the arbitrary length big-endian encoded number which
//	    represents the S value of the signature.  The encoding rules are
//	    identical as those for R.
func CheckDER(der []byte) er.R {
	const (
		sequenceOffset = 0
		dataLenOffset  = 1
		rTypeOffset    = 2
		rLenOffset     = 3
		rOffset        = 4
	)

	sigLen := len(der)
	if sigLen < params.MinDERSignatureSize {
		str := fmt.Sprintf("malformed signature: too short: %d < %d", sigLen,
			params.MinDERSignatureSize)
		return txscripterr.ScriptError(txscripterr.ErrSigTooShort, str)
	}
	if sigLen > params.MaxDERSignatureSize {
		str := fmt.Sprintf("malformed signature: too long: %d > %d", sigLen,
			params.MaxDERSignatureSize)
		return txscripterr.ScriptError(txscripterr.ErrSigTooLong, str)
	}

	if der[sequenceOffset] != asn1SequenceID {
		str := fmt.Sprintf("malformed signature: format has wrong type: %#x",
			der[sequenceOffset])
		return txscripterr.ScriptError(txscripterr.ErrSigInvalidSeqID, str)
	}
	if int(der[dataLenOffset]) != sigLen-2 {
		str := fmt.Sprintf("malformed signature: bad length: %d != %d",
			der[dataLenOffset], sigLen-2)
		return txscripterr.ScriptError(txscripterr.ErrSigInvalidDataLen, str)
	}

	// Calculate the offsets of the elements related to S and ensure S is
	// inside the signature.
	//
	// rLen specifies the length of the big-endian encoded number which
	// represents the R value of the signature.
	//
	// sTypeOffset is the offset of the ASN.1 identifier for S and, like its R
	// counterpart, is expected to indicate an ASN.1 integer.
	//
	// sLenOffset and sOffset are the byte offsets within the signature of the
	// length of S and S itself, respectively.
	rLen := int(der[rLenOffset])
	sTypeOffset := rOffset + rLen
	sLenOffset := sTypeOffset + 1
	if sLenOffset >= sigLen {
		str := "malformed signature: S type indicator missing"
		return txscripterr.ScriptError(txscripterr.ErrSigMissingSTypeID, str)
	}

	// The lengths of R and S must match the overall length of the signature.
	//
	// sLen specifies the length of the big-endian encoded number which
	// represents the S value of the signature.
	sOffset := sLenOffset + 1
	sLen := int(der[sLenOffset])
	if sOffset+sLen != sigLen {
		str := "malformed signature: invalid S length"
		return txscripterr.ScriptError(txscripterr.ErrSigInvalidSLen, str)
	}

	// R elements must be ASN.1 integers.
	if der[rTypeOffset] != asn1IntegerID {
		str := fmt.Sprintf("malformed signature: R integer marker: %#x != %#x",
			der[rTypeOffset], asn1IntegerID)
		return txscripterr.ScriptError(txscripterr.ErrSigInvalidRIntID, str)
	}

	// Zero-length integers are not allowed for R.
	if rLen == 0 {
		str := "malformed signature: R length is zero"
		return txscripterr.ScriptError(txscripterr.ErrSigZeroRLen, str)
	}

	// R must not be negative.
	if der[rOffset]&0x80 != 0 {
		str := "malformed signature: R is negative"
		return txscripterr.ScriptError(txscripterr.ErrSigNegativeR, str)
	}

	// Null bytes at the start of R are not allowed, unless R would otherwise be
	// interpreted as a negative number.
	if rLen > 1 && der[rOffset] == 0x00 && der[rOffset+1]&0x80 == 0 {
		str := "malformed signature: R value has too much padding"
		return txscripterr.ScriptError(txscripterr.ErrSigTooMuchRPadding, str)
	}

	// S elements must be ASN.1 integers.
	if der[sTypeOffset] != asn1IntegerID {
		str := fmt.Sprintf("malformed signature: S integer marker: %#x != %#x",
			der[sTypeOffset], asn1IntegerID)
		return txscripterr.ScriptError(txscripterr.ErrSigInvalidSIntID, str)
	}

	// Zero-length integers are not allowed for S.
	if sLen == 0 {
		str := "malformed signature: S length is zero"
		return txscripterr.ScriptError(txscripterr.ErrSigZeroSLen, str)
	}

	// S must not be negative.
	if der[sOffset]&0x80 != 0 {
		str := "malformed signature: S is negative"
		return txscripterr.ScriptError(txscripterr.ErrSigNegativeS, str)
	}

	// Null bytes at the start of S are not allowed, unless S would otherwise be
	// interpreted as a negative number.
	if sLen > 1 && der[sOffset] == 0x00 && der[sOffset+1]&0x80 == 0 {
		str := "malformed signature: S value has too much padding"
		return txscripterr.ScriptError(txscripterr.ErrSigTooMuchSPadding, str)
	}

	return nil
}

// IsValidDER is CheckDER as a predicate.
func IsValidDER(der []byte) bool {
	return CheckDER(der) == nil
}

// rawInt converts the content octets of a DER integer back to a 32 byte
// half.  At most one sign guard byte is dropped.
func rawInt(x []byte, name string) ([]byte, er.R) {
	if len(x) > 1 && x[0] == 0x00 {
		x = x[1:]
	}
	out, ok := bigbytes.PadLeft(x, halfSize)
	if !ok {
		return nil, txscripterr.ScriptError(txscripterr.ErrSigIntTooLong,
			fmt.Sprintf("malformed signature: %s is %d bytes, max %d",
				name, len(x), halfSize))
	}
	return out, nil
}

// DecodeDER converts a strict DER signature, without a hash type byte, to
// the 64 byte r||s form.
func DecodeDER(der []byte) ([]byte, er.R) {
	if err := CheckDER(der); err != nil {
		return nil, err
	}
	rLen := int(der[3])
	r, err := rawInt(der[4:4+rLen], "R")
	if err != nil {
		return nil, err
	}
	s, err := rawInt(der[6+rLen:], "S")
	if err != nil {
		return nil, err
	}
	return append(r, s...), nil
}

// Decode splits the trailing hash type off a script signature and converts
// the DER part to the 64 byte r||s form.
func Decode(sig []byte) (*ScriptSignature, er.R) {
	if len(sig) == 0 {
		return nil, txscripterr.ScriptError(txscripterr.ErrSigTooShort,
			"malformed signature: empty")
	}
	hashType := params.SigHashType(sig[len(sig)-1])
	if err := checkHashType(hashType); err != nil {
		return nil, err
	}
	raw, err := DecodeDER(sig[:len(sig)-1])
	if err != nil {
		return nil, err
	}
	out := &ScriptSignature{HashType: hashType}
	copy(out.Signature[:], raw)
	return out, nil
}
