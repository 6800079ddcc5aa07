package psbtsign

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"

	"github.com/pkt-cash/pktsign/btcutil/er"
	"github.com/pkt-cash/pktsign/txscript"
	"github.com/pkt-cash/pktsign/txscript/params"
)

func serializeWitness(items ...[]byte) ([]byte, er.R) {
	var buf bytes.Buffer
	if errr := psbt.WriteTxWitness(&buf, items); errr != nil {
		return nil, er.E(errr)
	}
	return buf.Bytes(), nil
}

func onlySig(in *psbt.PInput) (*psbt.PartialSig, bool) {
	if len(in.PartialSigs) != 1 {
		return nil, false
	}
	return in.PartialSigs[0], true
}

// finalScripts builds the final sigScript and witness for an input spent
// by a single signature.
func finalScripts(in *psbt.PInput, pkScript []byte) ([]byte, []byte, er.R) {
	if txscript.IsPayToTaproot(pkScript) {
		return finalTaproot(in)
	}
	ps, ok := onlySig(in)
	if !ok {
		return nil, nil, ErrCannotFinalize.New(fmt.Sprintf("%d partial "+
			"signatures", len(in.PartialSigs)), nil)
	}

	switch {
	case txscript.IsPayToPubKeyHash(pkScript):
		sigScript := txscript.Compile([]txscript.Chunk{
			txscript.Push(ps.Signature), txscript.Push(ps.PubKey),
		})
		return sigScript, nil, nil

	case txscript.IsPayToPubKey(pkScript):
		return txscript.Compile([]txscript.Chunk{txscript.Push(ps.Signature)}), nil, nil

	case txscript.IsPayToWitnessPubKeyHash(pkScript):
		wit, err := serializeWitness(ps.Signature, ps.PubKey)
		return nil, wit, err

	case txscript.IsPayToScriptHash(pkScript) &&
		txscript.IsPayToWitnessPubKeyHash(in.RedeemScript):

		wit, err := serializeWitness(ps.Signature, ps.PubKey)
		sigScript := txscript.Compile([]txscript.Chunk{
			txscript.Push(in.RedeemScript),
		})
		return sigScript, wit, err
	}
	return nil, nil, ErrCannotFinalize.New(fmt.Sprintf("%s output",
		txscript.GetScriptClass(pkScript)), nil)
}

func finalTaproot(in *psbt.PInput) ([]byte, []byte, er.R) {
	if len(in.TaprootKeySpendSig) > 0 {
		wit, err := serializeWitness(in.TaprootKeySpendSig)
		return nil, wit, err
	}
	if len(in.TaprootScriptSpendSig) != 1 {
		return nil, nil, ErrCannotFinalize.New(fmt.Sprintf("%d taproot "+
			"script spend signatures", len(in.TaprootScriptSpendSig)), nil)
	}
	ss := in.TaprootScriptSpendSig[0]
	leaf, errr := psbt.FindLeafScript(in, ss.LeafHash)
	if errr != nil {
		return nil, nil, ErrCannotFinalize.New("", er.E(errr))
	}
	sig := schnorrSig(ss.Signature, params.SigHashType(ss.SigHash))
	wit, err := serializeWitness(sig, leaf.Script, leaf.ControlBlock)
	return nil, wit, err
}

// FinalizeInput turns the signature of input idx into its final sigScript
// and witness, dropping the fields only needed while signing.  Inputs which
// are already final are left alone.
func FinalizeInput(packet *psbt.Packet, idx int) er.R {
	if idx < 0 || idx >= len(packet.Inputs) || packet.UnsignedTx == nil ||
		len(packet.UnsignedTx.TxIn) != len(packet.Inputs) {

		return ErrBadPacket.New(fmt.Sprintf("no input %d", idx), nil)
	}
	in := &packet.Inputs[idx]
	if isFinalized(in) {
		return nil
	}
	utxo, err := utxoOf(in, packet.UnsignedTx.TxIn[idx], idx)
	if err != nil {
		return err
	}
	sigScript, witness, err := finalScripts(in, utxo.PkScript)
	if err != nil {
		return ErrCannotFinalize.New(fmt.Sprintf("input %d", idx), err)
	}

	final := psbt.NewPsbtInput(in.NonWitnessUtxo, in.WitnessUtxo)
	final.FinalScriptSig = sigScript
	final.FinalScriptWitness = witness
	final.Unknowns = in.Unknowns
	packet.Inputs[idx] = *final
	log.Tracef("Finalized input %d", idx)
	return nil
}

// FinalizeAll finalizes every input, stopping at the first which cannot be.
func FinalizeAll(packet *psbt.Packet) er.R {
	for idx := range packet.Inputs {
		if err := FinalizeInput(packet, idx); err != nil {
			return err
		}
	}
	return nil
}

// Extract finalizes packet and returns the network transaction.
func Extract(packet *psbt.Packet) (*wire.MsgTx, er.R) {
	if err := FinalizeAll(packet); err != nil {
		return nil, err
	}
	tx, errr := psbt.Extract(packet)
	if errr != nil {
		return nil, ErrCannotFinalize.New("extract", er.E(errr))
	}
	return tx, nil
}
