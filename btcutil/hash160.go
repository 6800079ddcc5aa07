// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package btcutil

import (
	"bytes"
	"crypto/sha256"

	//lint:ignore SA1019 ripemd160 may be deprecated but it is not going away.
	"golang.org/x/crypto/ripemd160"
)

// Hash160Size is the size of a pay-to-pubkey-hash or pay-to-script-hash
// commitment.
const Hash160Size = ripemd160.Size

// Sha256 is the single sha256 committed to by a P2WSH output.
func Sha256(buf []byte) []byte {
	h := sha256.Sum256(buf)
	return h[:]
}

// Hash160 calculates the hash ripemd160(sha256(b)).
func Hash160(buf []byte) []byte {
	r := ripemd160.New()
	r.Write(Sha256(buf))
	return r.Sum(nil)
}

// CommitsTo reports whether program, the hash in an output script, commits
// to script.  The commitment is Hash160 for 20 byte programs and Sha256 for
// 32 byte ones.
func CommitsTo(program, script []byte) bool {
	switch len(program) {
	case Hash160Size:
		return bytes.Equal(program, Hash160(script))
	case sha256.Size:
		return bytes.Equal(program, Sha256(script))
	}
	return false
}
