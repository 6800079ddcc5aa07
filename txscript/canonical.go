// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"github.com/pkt-cash/pktsign/txscript/scriptsig"
)

const (
	pubKeyCompressedLen   = 33
	pubKeyUncompressedLen = 65

	pubKeyCompressedEven = 0x02
	pubKeyCompressedOdd  = 0x03
	pubKeyUncompressed   = 0x04
)

// IsCanonicalPubKey returns true if b has the shape of a SEC encoded public
// key: 33 bytes starting with 0x02 or 0x03, or 65 bytes starting with 0x04.
// The point itself is not checked to be on the curve.
func IsCanonicalPubKey(b []byte) bool {
	switch len(b) {
	case pubKeyCompressedLen:
		return b[0] == pubKeyCompressedEven || b[0] == pubKeyCompressedOdd
	case pubKeyUncompressedLen:
		return b[0] == pubKeyUncompressed
	}
	return false
}

// IsCanonicalScriptSignature returns true if b is a strict DER signature
// followed by a defined hash type byte.
func IsCanonicalScriptSignature(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	if !scriptsig.IsDefinedHashType(b[len(b)-1]) {
		return false
	}
	return scriptsig.IsValidDER(b[:len(b)-1])
}
