package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/urfave/cli"

	"github.com/pkt-cash/pktsign/btcutil/er"
	"github.com/pkt-cash/pktsign/btcutil/util"
	"github.com/pkt-cash/pktsign/txscript"
)

func hexString(b []byte) string {
	return hex.EncodeToString(b)
}

var decompileCommand = cli.Command{
	Name:      "decompile",
	Usage:     "Print a hex encoded script as ASM.",
	ArgsUsage: "script-hex",
	Flags: []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "show push opcodes and script class",
		},
	},
	Action: actionDecorator(decompile),
}

func decompile(c *cli.Context) er.R {
	if c.NArg() != 1 {
		return er.New("decompile takes exactly one script")
	}
	script, err := util.DecodeHex(c.Args().First())
	if err != nil {
		return err
	}
	if !c.Bool("verbose") {
		asm, err := txscript.ScriptToASM(script)
		if err != nil {
			return err
		}
		fmt.Println(asm)
		return nil
	}

	asm, err := txscript.DisasmVerbose(script)
	if err != nil {
		return err
	}
	fmt.Println(asm)
	class := txscript.GetScriptClass(script)
	fmt.Printf("class: %s\n", class)
	fmt.Printf("segwit: %v\n", class.IsSegwit())
	fmt.Printf("canonical: %v\n", txscript.IsCanonicalScript(script))
	fmt.Printf("push only: %v\n", txscript.IsPushOnlyScript(script))
	return nil
}

var compileCommand = cli.Command{
	Name:      "compile",
	Usage:     "Assemble ASM into a hex encoded script.",
	ArgsUsage: "asm...",
	Description: `
	The arguments are joined with spaces, so the ASM need not be quoted.
	Pushes are always minimal.
	`,
	Action: actionDecorator(compile),
}

func compile(c *cli.Context) er.R {
	if c.NArg() == 0 {
		return er.New("compile needs some ASM")
	}
	script, err := txscript.FromASM(strings.Join(c.Args(), " "))
	if err != nil {
		return err
	}
	fmt.Println(hexString(script))
	return nil
}
