package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/pkt-cash/pktsign/psbtsign"
	"github.com/pkt-cash/pktsign/signing"
)

func TestParsePrivKey(t *testing.T) {
	raw := chainhash.HashB([]byte("pktsign cli key"))
	priv, _ := btcec.PrivKeyFromBytes(raw)

	got, err := parsePrivKey([]byte(hexString(raw) + "\n"))
	require.Nil(t, err)
	require.Equal(t, raw, got)

	wif, errr := btcutil.NewWIF(priv, &chaincfg.MainNetParams, true)
	require.NoError(t, errr)
	got, err = parsePrivKey([]byte(wif.String()))
	require.Nil(t, err)
	require.Equal(t, raw, got)

	_, err = parsePrivKey([]byte("not a key"))
	require.NotNil(t, err)
}

func TestReadPacket(t *testing.T) {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: 1}, nil, nil))
	tx.AddTxOut(wire.NewTxOut(1000, []byte{0x51}))
	packet, errr := psbt.NewFromUnsignedTx(tx)
	require.NoError(t, errr)

	dir := t.TempDir()
	b64, errr := packet.B64Encode()
	require.NoError(t, errr)
	b64Path := filepath.Join(dir, "b64.psbt")
	require.NoError(t, os.WriteFile(b64Path, []byte(b64+"\n"), 0600))

	var buf bytes.Buffer
	require.NoError(t, packet.Serialize(&buf))
	binPath := filepath.Join(dir, "bin.psbt")
	require.NoError(t, os.WriteFile(binPath, buf.Bytes(), 0600))

	for _, path := range []string{b64Path, binPath} {
		got, err := readPacket(path)
		require.Nil(t, err)
		require.Equal(t, tx.TxHash(), got.UnsignedTx.TxHash())
	}

	_, err := readPacket(filepath.Join(dir, "missing"))
	require.NotNil(t, err)
}

func TestAddValues(t *testing.T) {
	prev := wire.NewMsgTx(2)
	prev.AddTxOut(wire.NewTxOut(5000, []byte{0x51}))
	prev.AddTxOut(wire.NewTxOut(250000, []byte{0x51}))

	tx := wire.NewMsgTx(2)
	prevHash := prev.TxHash()
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&prevHash, 1), nil, nil))
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: 3}, nil, nil))
	tx.AddTxOut(wire.NewTxOut(340000, []byte{0x51}))
	packet, errr := psbt.NewFromUnsignedTx(tx)
	require.NoError(t, errr)
	packet.Inputs[0].NonWitnessUtxo = prev
	packet.Inputs[1].WitnessUtxo = wire.NewTxOut(100000, []byte{0x51})

	rep := &signReport{}
	rep.addValues(packet)
	require.Equal(t, "0.0035 BTC", rep.InputValue)
	require.Equal(t, "0.0001 BTC", rep.Fee)
}

func TestReport(t *testing.T) {
	tx := wire.NewMsgTx(2)
	packet, errr := psbt.NewFromUnsignedTx(tx)
	require.NoError(t, errr)

	out := signing.NewOutcome()
	out.AddResult(&signing.Result{InputIndex: 3, SignatureType: signing.Schnorr})
	out.AddError(1, "boom")
	res := &psbtsign.Result{
		Packet:  packet,
		Outcome: out,
		Tasks: []*signing.Task{
			signing.NewTask(0, 3, nil, signing.Schnorr, 0, nil),
			signing.NewTask(1, 1, nil, signing.ECDSA, 1, nil),
		},
	}
	rep := report(res)
	require.False(t, rep.Success)

	rep.addValues(packet)
	require.Equal(t, "0 BTC", rep.InputValue)
	require.Equal(t, []inputReport{
		{Index: 1, Type: "ecdsa", Error: "boom"},
		{Index: 3, Type: "schnorr", Signed: true},
	}, rep.Inputs)
}
