package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"os/signal"
	"sort"

	"github.com/btcsuite/btcd/btcutil/psbt"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"

	"github.com/pkt-cash/pktsign/btcutil"
	"github.com/pkt-cash/pktsign/btcutil/bigbytes"
	"github.com/pkt-cash/pktsign/btcutil/er"
	"github.com/pkt-cash/pktsign/journal"
	"github.com/pkt-cash/pktsign/psbtsign"
	"github.com/pkt-cash/pktsign/signing"
	"github.com/pkt-cash/pktsign/signpool"
)

var signCommand = cli.Command{
	Name:      "sign",
	Usage:     "Sign every input of a PSBT which belongs to a key.",
	ArgsUsage: "psbt-file",
	Description: `
	Reads a PSBT, in binary or base64, signs all inputs spending outputs of
	the key and prints a JSON report holding the signed PSBT in base64.
	The key is read from the terminal unless --keyfile is given.
	`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "keyfile",
			Usage: "file holding the private key as WIF or hex",
		},
		cli.BoolFlag{
			Name:  "finalize",
			Usage: "finalize the inputs and include the network transaction",
		},
		cli.StringFlag{
			Name:  "out",
			Usage: "also write the signed PSBT, in binary, to this file",
		},
	},
	Action: actionDecorator(sign),
}

type inputReport struct {
	Index  int    `json:"index"`
	Type   string `json:"type,omitempty"`
	Signed bool   `json:"signed"`
	Error  string `json:"error,omitempty"`
}

type signReport struct {
	Txid       string        `json:"txid"`
	Success    bool          `json:"success"`
	DurationMs int64         `json:"durationms"`
	Inputs     []inputReport `json:"inputs"`
	Psbt       string        `json:"psbt"`
	Tx         string        `json:"tx,omitempty"`
	Journal    uint64        `json:"journal,omitempty"`
	InputValue string        `json:"inputvalue,omitempty"`
	Fee        string        `json:"fee,omitempty"`
}

// addValues fills in the total spent and the fee when every spent output is
// known.
func (rep *signReport) addValues(packet *psbt.Packet) {
	var in, out []int64
	for i, pin := range packet.Inputs {
		switch {
		case pin.WitnessUtxo != nil:
			in = append(in, pin.WitnessUtxo.Value)
		case pin.NonWitnessUtxo != nil:
			idx := packet.UnsignedTx.TxIn[i].PreviousOutPoint.Index
			if int(idx) >= len(pin.NonWitnessUtxo.TxOut) {
				return
			}
			in = append(in, pin.NonWitnessUtxo.TxOut[idx].Value)
		default:
			return
		}
	}
	for _, txOut := range packet.UnsignedTx.TxOut {
		out = append(out, txOut.Value)
	}
	inTotal, err := btcutil.SumOutputs(in...)
	if err != nil {
		return
	}
	outTotal, err := btcutil.SumOutputs(out...)
	if err != nil {
		return
	}
	rep.InputValue = inTotal.String()
	rep.Fee = (inTotal - outTotal).String()
}

func printJSON(v interface{}) er.R {
	out, errr := jsoniter.MarshalIndent(v, "", "\t")
	if errr != nil {
		return er.E(errr)
	}
	_, errr = os.Stdout.Write(append(out, '\n'))
	return er.E(errr)
}

func readPacket(path string) (*psbt.Packet, er.R) {
	raw, errr := os.ReadFile(path)
	if errr != nil {
		return nil, er.E(errr)
	}
	raw = bytes.TrimSpace(raw)
	b64 := !bytes.HasPrefix(raw, []byte("psbt\xff"))
	packet, errr := psbt.NewFromRawBytes(bytes.NewReader(raw), b64)
	if errr != nil {
		return nil, er.Errorf("unable to read PSBT from %s: %v", path, errr)
	}
	return packet, nil
}

func readKey(c *cli.Context) ([]byte, er.R) {
	if !c.IsSet("keyfile") {
		return promptPrivKey()
	}
	raw, errr := os.ReadFile(c.String("keyfile"))
	if errr != nil {
		return nil, er.E(errr)
	}
	defer bigbytes.Zero(raw)
	return parsePrivKey(raw)
}

// serveMetrics exposes reg until the process exits.
func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		log.Infof("Serving metrics on %s", addr)
		if errr := http.ListenAndServe(addr, mux); errr != nil {
			log.Errorf("Metrics server stopped: %v", errr)
		}
	}()
}

func newPool(reg *prometheus.Registry) (*signpool.Handle, er.R) {
	var metrics *signpool.Metrics
	if reg != nil {
		m, err := signpool.NewMetrics(reg)
		if err != nil {
			return nil, err
		}
		metrics = m
	}
	curve := signing.NewCurve(signing.Secp256k1{})
	return signpool.NewHandle(cfg.PoolConfig(), curve, metrics), nil
}

func report(res *psbtsign.Result) *signReport {
	rep := &signReport{
		Txid:       res.Packet.UnsignedTx.TxHash().String(),
		Success:    res.Outcome.Success,
		DurationMs: res.Outcome.DurationMs(),
	}
	for _, t := range res.Tasks {
		ir := inputReport{Index: t.InputIndex, Type: t.SignatureType.String()}
		if _, ok := res.Outcome.Signatures[t.InputIndex]; ok {
			ir.Signed = true
		} else {
			ir.Error = res.Outcome.Errors[t.InputIndex]
		}
		rep.Inputs = append(rep.Inputs, ir)
	}
	sort.Slice(rep.Inputs, func(i, j int) bool {
		return rep.Inputs[i].Index < rep.Inputs[j].Index
	})
	return rep
}

func sign(c *cli.Context) er.R {
	if c.NArg() != 1 {
		return er.New("sign takes exactly one PSBT file")
	}
	packet, err := readPacket(c.Args().First())
	if err != nil {
		return err
	}

	priv, err := readKey(c)
	if err != nil {
		return err
	}
	key, err := signing.NewStaticKey(signing.Secp256k1{}, priv)
	bigbytes.Zero(priv)
	if err != nil {
		return err
	}
	defer key.Zero()

	var reg *prometheus.Registry
	if cfg.MetricsListen != "" {
		reg = prometheus.NewRegistry()
		serveMetrics(cfg.MetricsListen, reg)
	}
	handle, err := newPool(reg)
	if err != nil {
		return err
	}
	defer handle.Reset()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	res, err := psbtsign.SignPsbtParallel(ctx, packet, key, handle.Get())
	if err != nil {
		return err
	}
	rep := report(res)
	rep.addValues(packet)

	if cfg.Journal != "" {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			return err
		}
		txid := packet.UnsignedTx.TxHash()
		entry, err := j.Record(&txid, res.Outcome)
		j.Close()
		if err != nil {
			return err
		}
		rep.Journal = entry.Seq
	}

	if c.Bool("finalize") && res.Outcome.Success {
		tx, err := psbtsign.Extract(packet)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if errr := tx.Serialize(&buf); errr != nil {
			return er.E(errr)
		}
		rep.Tx = hexString(buf.Bytes())
	}

	if rep.Psbt, err = encodePacket(packet); err != nil {
		return err
	}
	if out := c.String("out"); out != "" {
		var buf bytes.Buffer
		if errr := packet.Serialize(&buf); errr != nil {
			return er.E(errr)
		}
		if errr := os.WriteFile(out, buf.Bytes(), 0600); errr != nil {
			return er.E(errr)
		}
	}
	return printJSON(rep)
}

func encodePacket(packet *psbt.Packet) (string, er.R) {
	s, errr := packet.B64Encode()
	return s, er.E(errr)
}
