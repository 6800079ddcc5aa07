// Package psbtsign signs every input of a PSBT which belongs to one key,
// spreading the signing over a signpool.Pool.
package psbtsign

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/psbt"
	btcscript "github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/pkt-cash/pktsign/btcutil"
	"github.com/pkt-cash/pktsign/btcutil/er"
	"github.com/pkt-cash/pktsign/signing"
	"github.com/pkt-cash/pktsign/txscript"
	"github.com/pkt-cash/pktsign/txscript/params"
	"github.com/pkt-cash/pktsign/txscript/scriptsig"
)

// prevOuts indexes the output spent by each input.  It is built once per
// packet and also backs the sighash midstate cache.
type prevOuts struct {
	byOutpoint map[wire.OutPoint]*wire.TxOut
	fetcher    *btcscript.MultiPrevOutFetcher
	sigHashes  *btcscript.TxSigHashes
}

func utxoOf(in *psbt.PInput, txIn *wire.TxIn, idx int) (*wire.TxOut, er.R) {
	if in.WitnessUtxo != nil {
		return in.WitnessUtxo, nil
	}
	if in.NonWitnessUtxo == nil {
		return nil, ErrMissingUtxo.New(fmt.Sprintf("input %d", idx), nil)
	}
	op := txIn.PreviousOutPoint
	if in.NonWitnessUtxo.TxHash() != op.Hash ||
		int(op.Index) >= len(in.NonWitnessUtxo.TxOut) {

		return nil, ErrMissingUtxo.New(fmt.Sprintf("input %d: non-witness "+
			"utxo does not contain %v", idx, op), nil)
	}
	return in.NonWitnessUtxo.TxOut[op.Index], nil
}

func indexPrevOuts(packet *psbt.Packet) (*prevOuts, er.R) {
	tx := packet.UnsignedTx
	if tx == nil || len(packet.Inputs) != len(tx.TxIn) {
		return nil, ErrBadPacket.New("inputs do not match the unsigned "+
			"transaction", nil)
	}
	m := make(map[wire.OutPoint]*wire.TxOut, len(tx.TxIn))
	for i, txIn := range tx.TxIn {
		out, err := utxoOf(&packet.Inputs[i], txIn, i)
		if err != nil {
			return nil, err
		}
		m[txIn.PreviousOutPoint] = out
	}
	fetcher := btcscript.NewMultiPrevOutFetcher(m)
	return &prevOuts{
		byOutpoint: m,
		fetcher:    fetcher,
		sigHashes:  btcscript.NewTxSigHashes(tx, fetcher),
	}, nil
}

// ourKey is the public key of the batch in the forms needed to recognize
// which inputs it can sign.
type ourKey struct {
	pub     []byte
	pubHash []byte
	xOnly   []byte
	point   *btcec.PublicKey
}

func newOurKey(keys signing.KeyProvider) (*ourKey, er.R) {
	pub := keys.PubKey()
	if !txscript.IsCanonicalPubKey(pub) {
		return nil, ErrBadPacket.New(fmt.Sprintf("signing key %x is not "+
			"a valid public key", pub), nil)
	}
	point, errr := btcec.ParsePubKey(pub)
	if errr != nil {
		return nil, ErrBadPacket.New("signing key", er.E(errr))
	}
	return &ourKey{
		pub:     pub,
		pubHash: btcutil.Hash160(pub),
		xOnly:   pub[1:33],
		point:   point,
	}, nil
}

// owns reports whether script pushes the key or its HASH160, which is how
// P2PK, P2PKH, P2WPKH and multisig style scripts name the keys they need.
func (k *ourKey) owns(script []byte) bool {
	for _, c := range txscript.Decompile(script) {
		if c.IsData() && (bytes.Equal(c.Data, k.pub) || bytes.Equal(c.Data, k.pubHash)) {
			return true
		}
	}
	return false
}

func isFinalized(in *psbt.PInput) bool {
	return in.FinalScriptSig != nil || in.FinalScriptWitness != nil
}

func hasPartialSig(in *psbt.PInput, pub []byte) bool {
	for _, ps := range in.PartialSigs {
		if bytes.Equal(ps.PubKey, pub) {
			return true
		}
	}
	return false
}

// program returns the hash committed to by a P2SH or witness v0 script.
func program(pkScript []byte) []byte {
	if txscript.IsPayToScriptHash(pkScript) {
		return pkScript[2 : 2+btcutil.Hash160Size]
	}
	return pkScript[2:]
}

// scriptCode picks the script an ECDSA signature commits to and whether the
// input is spent with a witness.  Redeem and witness scripts must match the
// hash they are spent from.
func scriptCode(in *psbt.PInput, pkScript []byte, idx int) ([]byte, bool, er.R) {
	unsupported := func(why string) er.R {
		return ErrUnsupportedScript.New(fmt.Sprintf("input %d: %s", idx, why), nil)
	}
	witnessScript := func(outer []byte) ([]byte, bool, er.R) {
		if in.WitnessScript == nil {
			return nil, false, unsupported("p2wsh without witness script")
		}
		if !btcutil.CommitsTo(program(outer), in.WitnessScript) {
			return nil, false, unsupported("witness script does not match")
		}
		return in.WitnessScript, true, nil
	}

	switch {
	case txscript.IsPayToPubKeyHash(pkScript), txscript.IsPayToPubKey(pkScript):
		return pkScript, false, nil

	case txscript.IsPayToWitnessPubKeyHash(pkScript):
		return pkScript, true, nil

	case txscript.IsPayToWitnessScriptHash(pkScript):
		return witnessScript(pkScript)

	case txscript.IsPayToScriptHash(pkScript):
		redeem := in.RedeemScript
		switch {
		case redeem == nil:
			return nil, false, unsupported("p2sh without redeem script")
		case !btcutil.CommitsTo(program(pkScript), redeem):
			return nil, false, unsupported("redeem script does not match")
		case txscript.IsPayToWitnessPubKeyHash(redeem):
			return redeem, true, nil
		case txscript.IsPayToWitnessScriptHash(redeem):
			return witnessScript(redeem)
		}
		return redeem, false, nil
	}
	return nil, false, unsupported(fmt.Sprintf("%s output",
		txscript.GetScriptClass(pkScript)))
}

func ecdsaTask(
	packet *psbt.Packet,
	idx, taskID int,
	prev *prevOuts,
	key *ourKey,
	utxo *wire.TxOut,
) (*signing.Task, er.R) {
	in := &packet.Inputs[idx]
	if hasPartialSig(in, key.pub) {
		log.Tracef("Input %d is already signed", idx)
		return nil, nil
	}
	script, witness, err := scriptCode(in, utxo.PkScript, idx)
	if err != nil {
		return nil, err
	}
	if !key.owns(script) {
		log.Debugf("Input %d does not belong to %x", idx, key.pub)
		return nil, nil
	}

	hashType := params.SigHashType(in.SighashType)
	if hashType == params.SigHashDefault {
		hashType = params.SigHashAll
	}
	if hashType > 0xff || !scriptsig.IsDefinedHashType(byte(hashType)) {
		return nil, ErrSigHash.New(fmt.Sprintf("input %d: sighash type %v",
			idx, hashType), nil)
	}

	var hash []byte
	var errr error
	if witness {
		hash, errr = btcscript.CalcWitnessSigHash(script, prev.sigHashes,
			btcscript.SigHashType(hashType), packet.UnsignedTx, idx, utxo.Value)
	} else {
		hash, errr = btcscript.CalcSignatureHash(script,
			btcscript.SigHashType(hashType), packet.UnsignedTx, idx)
	}
	if errr != nil {
		return nil, ErrSigHash.New(fmt.Sprintf("input %d", idx), er.E(errr))
	}
	return signing.NewTask(taskID, idx, hash, signing.ECDSA, hashType, nil), nil
}

// leafFor returns the first tap leaf whose script pushes xOnly.
func leafFor(in *psbt.PInput, xOnly []byte) *psbt.TaprootTapLeafScript {
	for _, leaf := range in.TaprootLeafScript {
		for _, c := range txscript.Decompile(leaf.Script) {
			if c.IsData() && bytes.Equal(c.Data, xOnly) {
				return leaf
			}
		}
	}
	return nil
}

func hasScriptSpendSig(in *psbt.PInput, xOnly, leafHash []byte) bool {
	for _, s := range in.TaprootScriptSpendSig {
		if bytes.Equal(s.XOnlyPubKey, xOnly) && bytes.Equal(s.LeafHash, leafHash) {
			return true
		}
	}
	return false
}

func taprootTask(
	packet *psbt.Packet,
	idx, taskID int,
	prev *prevOuts,
	key *ourKey,
	utxo *wire.TxOut,
) (*signing.Task, er.R) {
	in := &packet.Inputs[idx]
	hashType := params.SigHashType(in.SighashType)
	if hashType != params.SigHashDefault &&
		(hashType > 0xff || !scriptsig.IsDefinedHashType(byte(hashType))) {

		return nil, ErrSigHash.New(fmt.Sprintf("input %d: sighash type %v",
			idx, hashType), nil)
	}
	tx := packet.UnsignedTx
	btcHashType := btcscript.SigHashType(hashType)

	keyPath := len(in.TaprootInternalKey) == 0 ||
		bytes.Equal(in.TaprootInternalKey, key.xOnly)
	if keyPath {
		outputKey := btcscript.ComputeTaprootOutputKey(key.point,
			in.TaprootMerkleRoot)
		if !bytes.Equal(utxo.PkScript[2:], outputKey.SerializeCompressed()[1:]) {
			keyPath = false
		}
	}

	if keyPath {
		if len(in.TaprootKeySpendSig) > 0 {
			log.Tracef("Input %d is already signed", idx)
			return nil, nil
		}
		hash, errr := btcscript.CalcTaprootSignatureHash(prev.sigHashes,
			btcHashType, tx, idx, prev.fetcher)
		if errr != nil {
			return nil, ErrSigHash.New(fmt.Sprintf("input %d", idx), er.E(errr))
		}
		task := signing.NewTask(taskID, idx, hash, signing.Schnorr, hashType, nil)
		return task.WithTaprootTweak(in.TaprootMerkleRoot), nil
	}

	leaf := leafFor(in, key.xOnly)
	if leaf == nil {
		log.Debugf("Input %d does not belong to %x", idx, key.xOnly)
		return nil, nil
	}
	tapLeaf := btcscript.TapLeaf{LeafVersion: leaf.LeafVersion, Script: leaf.Script}
	leafHash := tapLeaf.TapHash()
	if hasScriptSpendSig(in, key.xOnly, leafHash[:]) {
		log.Tracef("Input %d is already signed", idx)
		return nil, nil
	}
	hash, errr := btcscript.CalcTapscriptSignaturehash(prev.sigHashes,
		btcHashType, tx, idx, prev.fetcher, tapLeaf)
	if errr != nil {
		return nil, ErrSigHash.New(fmt.Sprintf("input %d", idx), er.E(errr))
	}
	return signing.NewTask(taskID, idx, hash, signing.Schnorr, hashType,
		leafHash[:]), nil
}

// PrepareSigningTasks returns one task for every input of packet which the
// key of keys can sign and has not signed yet.  Finalized inputs, inputs
// already signed by the key and inputs belonging to other keys are skipped.
// An input missing the data needed to recognize or hash it fails the whole
// packet.
func PrepareSigningTasks(packet *psbt.Packet, keys signing.KeyProvider) ([]*signing.Task, er.R) {
	prev, err := indexPrevOuts(packet)
	if err != nil {
		return nil, err
	}
	key, err := newOurKey(keys)
	if err != nil {
		return nil, err
	}

	var tasks []*signing.Task
	for idx := range packet.Inputs {
		in := &packet.Inputs[idx]
		if isFinalized(in) {
			log.Tracef("Input %d is already final", idx)
			continue
		}
		utxo := prev.byOutpoint[packet.UnsignedTx.TxIn[idx].PreviousOutPoint]

		var task *signing.Task
		if txscript.IsPayToTaproot(utxo.PkScript) {
			task, err = taprootTask(packet, idx, len(tasks), prev, key, utxo)
		} else {
			task, err = ecdsaTask(packet, idx, len(tasks), prev, key, utxo)
		}
		if err != nil {
			return nil, err
		}
		if task == nil {
			continue
		}
		tasks = append(tasks, task)
	}
	log.Debugf("Prepared %d signing tasks for %d inputs of %v", len(tasks),
		len(packet.Inputs), packet.UnsignedTx.TxHash())
	return tasks, nil
}
