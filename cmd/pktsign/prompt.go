package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcutil"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/pkt-cash/pktsign/btcutil/bigbytes"
	"github.com/pkt-cash/pktsign/btcutil/er"
	"github.com/pkt-cash/pktsign/btcutil/util"
)

// parsePrivKey accepts a WIF string or 64 hex characters.
func parsePrivKey(s []byte) ([]byte, er.R) {
	s = bytes.TrimSpace(s)
	if len(s) == 64 {
		priv, err := util.DecodeHex(string(s))
		if err == nil {
			return priv, nil
		}
	}
	wif, errr := btcutil.DecodeWIF(string(s))
	if errr != nil {
		return nil, er.New("private key is neither WIF nor 32 bytes of hex")
	}
	return wif.PrivKey.Serialize(), nil
}

// promptPrivKey reads the signing key from the terminal without echoing it.
func promptPrivKey() ([]byte, er.R) {
	for {
		fmt.Print("Enter the private key (WIF or hex): ")
		raw, errr := terminal.ReadPassword(int(os.Stdin.Fd()))
		if errr != nil {
			return nil, er.E(errr)
		}
		fmt.Print("\n")
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		priv, err := parsePrivKey(raw)
		bigbytes.Zero(raw)
		if err != nil {
			fmt.Println(err.Message())
			continue
		}
		return priv, nil
	}
}
