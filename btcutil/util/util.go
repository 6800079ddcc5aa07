package util

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/pkt-cash/pktsign/btcutil/er"
)

// DecodeHex decodes a hex string, ignoring surrounding whitespace.
func DecodeHex(s string) ([]byte, er.R) {
	o, e := hex.DecodeString(strings.TrimSpace(s))
	return o, er.E(e)
}

// CheckError ensures the passed error has an error code that matches the passed  error code.
func CheckError(t *testing.T, testName string, gotErr er.R, wantErrCode *er.ErrorCode) bool {
	if !wantErrCode.Is(gotErr) {
		got := "<nil>"
		if gotErr != nil {
			got = gotErr.Message()
		}
		t.Errorf("%s: unexpected error code - got %s, want %s",
			testName, got, wantErrCode.Default().Message())
		return false
	}

	return true
}
