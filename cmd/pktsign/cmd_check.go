package main

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/pkt-cash/pktsign/btcutil/er"
	"github.com/pkt-cash/pktsign/btcutil/util"
	"github.com/pkt-cash/pktsign/signconfig"
	"github.com/pkt-cash/pktsign/txscript"
	"github.com/pkt-cash/pktsign/txscript/params"
	"github.com/pkt-cash/pktsign/txscript/scriptsig"
)

var checkSigCommand = cli.Command{
	Name:      "checksig",
	Usage:     "Check that a script signature is strictly encoded.",
	ArgsUsage: "signature-hex",
	Description: `
	The signature is DER with its trailing hash type byte, as found in a
	sigScript or witness.  Prints OK and the decoded values, or the rule the
	signature breaks.
	`,
	Action: actionDecorator(checkSig),
}

func checkSig(c *cli.Context) er.R {
	if c.NArg() != 1 {
		return er.New("checksig takes exactly one signature")
	}
	sig, err := util.DecodeHex(c.Args().First())
	if err != nil {
		return err
	}
	if !txscript.IsCanonicalScriptSignature(sig) {
		// Decode says which rule is broken.
		if _, err := scriptsig.Decode(sig); err != nil {
			return err
		}
		return er.New("signature is not canonical")
	}
	decoded, err := scriptsig.Decode(sig)
	if err != nil {
		return err
	}
	fmt.Println("OK")
	fmt.Printf("r: %x\n", decoded.Signature[:params.RawSignatureSize/2])
	fmt.Printf("s: %x\n", decoded.Signature[params.RawSignatureSize/2:])
	fmt.Printf("hashtype: %v\n", decoded.HashType)
	return nil
}

var checkPubKeyCommand = cli.Command{
	Name:      "checkpubkey",
	Usage:     "Check that a public key is a valid SEC encoding.",
	ArgsUsage: "pubkey-hex",
	Action:    actionDecorator(checkPubKey),
}

func checkPubKey(c *cli.Context) er.R {
	if c.NArg() != 1 {
		return er.New("checkpubkey takes exactly one public key")
	}
	pub, err := util.DecodeHex(c.Args().First())
	if err != nil {
		return err
	}
	if !txscript.IsCanonicalPubKey(pub) {
		return er.Errorf("%d byte key with prefix %x is not a SEC public key",
			len(pub), pub[:min(len(pub), 1)])
	}
	fmt.Println("OK")
	return nil
}

var initConfigCommand = cli.Command{
	Name:  "initconfig",
	Usage: "Write a config file holding the default settings.",
	Action: actionDecorator(func(c *cli.Context) er.R {
		path := c.GlobalString("configfile")
		if err := signconfig.CreateDefaultConfigFile(path); err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	}),
}
