package psbtsign

import (
	"bytes"
	"context"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	btcscript "github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/pkt-cash/pktsign/btcutil"
	"github.com/pkt-cash/pktsign/signing"
	"github.com/pkt-cash/pktsign/signpool"
	"github.com/pkt-cash/pktsign/txscript"
	"github.com/pkt-cash/pktsign/txscript/opcode"
	"github.com/pkt-cash/pktsign/txscript/params"
)

const testAmount = 100000

var curve = signing.NewCurve(signing.Secp256k1{})

// spendKind is the kind of output a test input spends.
type spendKind int

const (
	spendP2PKH spendKind = iota
	spendP2WPKH
	spendP2SHP2WPKH
	spendTaprootKey
	spendTaprootScript
)

func newKey(t *testing.T, seed string) *signing.StaticKey {
	t.Helper()
	key, err := signing.NewStaticKey(signing.Secp256k1{}, chainhash.HashB([]byte(seed)))
	require.Nil(t, err)
	return key
}

func p2wpkhScript(pub []byte) []byte {
	return txscript.Compile([]txscript.Chunk{
		txscript.Op(opcode.OP_0), txscript.Push(btcutil.Hash160(pub)),
	})
}

func p2shScript(redeem []byte) []byte {
	return txscript.Compile([]txscript.Chunk{
		txscript.Op(opcode.OP_HASH160),
		txscript.Push(btcutil.Hash160(redeem)),
		txscript.Op(opcode.OP_EQUAL),
	})
}

// testPacket builds a packet whose inputs spend one output of each kind in
// kinds, all paying to the public key of key.
func testPacket(t *testing.T, key *signing.StaticKey, kinds ...spendKind) *psbt.Packet {
	t.Helper()

	pub := key.PubKey()
	point, errr := btcec.ParsePubKey(pub)
	require.NoError(t, errr)
	other, errr := btcec.ParsePubKey(newKey(t, "someone else").PubKey())
	require.NoError(t, errr)

	prevTx := wire.NewMsgTx(2)
	prevTx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: 7}, nil, nil))
	inputs := make([]psbt.PInput, len(kinds))
	for i, kind := range kinds {
		var pkScript []byte
		in := &inputs[i]
		switch kind {
		case spendP2PKH:
			pkScript = txscript.Compile([]txscript.Chunk{
				txscript.Op(opcode.OP_DUP),
				txscript.Op(opcode.OP_HASH160),
				txscript.Push(btcutil.Hash160(pub)),
				txscript.Op(opcode.OP_EQUALVERIFY),
				txscript.Op(opcode.OP_CHECKSIG),
			})

		case spendP2WPKH:
			pkScript = p2wpkhScript(pub)

		case spendP2SHP2WPKH:
			in.RedeemScript = p2wpkhScript(pub)
			pkScript = p2shScript(in.RedeemScript)

		case spendTaprootKey:
			outputKey := btcscript.ComputeTaprootKeyNoScript(point)
			pkScript, errr = btcscript.PayToTaprootScript(outputKey)
			require.NoError(t, errr)
			in.TaprootInternalKey = schnorr.SerializePubKey(point)

		case spendTaprootScript:
			leafScript := txscript.Compile([]txscript.Chunk{
				txscript.Push(schnorr.SerializePubKey(point)),
				txscript.Op(opcode.OP_CHECKSIG),
			})
			leaf := btcscript.NewBaseTapLeaf(leafScript)
			tree := btcscript.AssembleTaprootScriptTree(leaf)
			root := tree.RootNode.TapHash()
			outputKey := btcscript.ComputeTaprootOutputKey(other, root[:])
			pkScript, errr = btcscript.PayToTaprootScript(outputKey)
			require.NoError(t, errr)

			ctrl := tree.LeafMerkleProofs[0].ToControlBlock(other)
			ctrlBytes, errr := ctrl.ToBytes()
			require.NoError(t, errr)
			in.TaprootInternalKey = schnorr.SerializePubKey(other)
			in.TaprootMerkleRoot = root[:]
			in.TaprootLeafScript = []*psbt.TaprootTapLeafScript{{
				ControlBlock: ctrlBytes,
				Script:       leafScript,
				LeafVersion:  btcscript.BaseLeafVersion,
			}}
		}
		prevTx.AddTxOut(wire.NewTxOut(testAmount, pkScript))
	}

	tx := wire.NewMsgTx(2)
	prevHash := prevTx.TxHash()
	for i := range kinds {
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&prevHash, uint32(i)), nil, nil))
	}
	tx.AddTxOut(wire.NewTxOut(int64(len(kinds))*testAmount-1000,
		p2wpkhScript(pub)))

	packet, errr := psbt.NewFromUnsignedTx(tx)
	require.NoError(t, errr)
	for i, kind := range kinds {
		in := inputs[i]
		if kind == spendP2PKH {
			in.NonWitnessUtxo = prevTx
		} else {
			in.WitnessUtxo = prevTx.TxOut[i]
		}
		packet.Inputs[i] = in
	}
	return packet
}

// verifyTx runs every input of the finalized packet through the script
// engine.
func verifyTx(t *testing.T, packet *psbt.Packet) {
	t.Helper()

	prevOuts := make(map[wire.OutPoint]*wire.TxOut)
	for i, txIn := range packet.UnsignedTx.TxIn {
		in := packet.Inputs[i]
		if in.WitnessUtxo != nil {
			prevOuts[txIn.PreviousOutPoint] = in.WitnessUtxo
		} else {
			prevOuts[txIn.PreviousOutPoint] =
				in.NonWitnessUtxo.TxOut[txIn.PreviousOutPoint.Index]
		}
	}

	tx, err := Extract(packet)
	require.Nil(t, err)

	fetcher := btcscript.NewMultiPrevOutFetcher(prevOuts)
	sigHashes := btcscript.NewTxSigHashes(tx, fetcher)
	for i, txIn := range tx.TxIn {
		prev := prevOuts[txIn.PreviousOutPoint]
		vm, errr := btcscript.NewEngine(prev.PkScript, tx, i,
			btcscript.StandardVerifyFlags, nil, sigHashes, prev.Value, fetcher)
		require.NoError(t, errr)
		require.NoError(t, vm.Execute(), "input %d: %s", i, spew.Sdump(txIn))
	}
}

func testPools() map[string]signpool.Pool {
	return map[string]signpool.Pool{
		"sequential": signpool.NewSequential(curve, nil),
		"workers": signpool.NewWorkerPool(signpool.Config{WorkerCount: 3},
			curve, nil),
	}
}

var allKinds = []spendKind{
	spendP2PKH, spendP2WPKH, spendP2SHP2WPKH, spendTaprootKey,
	spendTaprootScript,
}

// TestSignPsbtParallel signs one input of every supported kind with both
// pools and checks the transaction in the script engine.
func TestSignPsbtParallel(t *testing.T) {
	t.Parallel()

	for name, pool := range testPools() {
		name, pool := name, pool
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			defer pool.Shutdown()

			key := newKey(t, "pktsign psbt test key")
			packet := testPacket(t, key, allKinds...)

			res, err := SignPsbtParallel(context.Background(), packet, key, pool)
			require.Nil(t, err)
			require.True(t, res.Outcome.Success, "%v", res.Outcome.Errors)
			require.Empty(t, res.Unsigned)
			require.Len(t, res.Tasks, len(allKinds))
			require.Len(t, res.Outcome.Signatures, len(allKinds))

			require.Len(t, packet.Inputs[0].PartialSigs, 1)
			require.Len(t, packet.Inputs[1].PartialSigs, 1)
			require.Len(t, packet.Inputs[2].PartialSigs, 1)
			require.Len(t, packet.Inputs[3].TaprootKeySpendSig, 64)
			require.Len(t, packet.Inputs[4].TaprootScriptSpendSig, 1)

			// Everything is signed, so a second pass has nothing to do.
			again, err := PrepareSigningTasks(packet, key)
			require.Nil(t, err)
			require.Empty(t, again)

			verifyTx(t, packet)
		})
	}
}

// TestPoolsAgree ensures both pools write identical packets.
func TestPoolsAgree(t *testing.T) {
	t.Parallel()

	key := newKey(t, "pktsign agree key")
	var serialized [][]byte
	for _, pool := range testPools() {
		packet := testPacket(t, key, allKinds...)
		_, err := SignPsbtParallel(context.Background(), packet, key, pool)
		require.Nil(t, err)
		pool.Shutdown()

		var buf bytes.Buffer
		require.NoError(t, packet.Serialize(&buf))
		serialized = append(serialized, buf.Bytes())
	}
	require.Equal(t, serialized[0], serialized[1])
}

func TestPrepareSigHashTypes(t *testing.T) {
	t.Parallel()

	key := newKey(t, "pktsign sighash key")
	packet := testPacket(t, key, spendP2WPKH, spendTaprootKey, spendP2PKH)
	packet.Inputs[0].SighashType = btcscript.SigHashSingle | btcscript.SigHashAnyOneCanPay

	tasks, err := PrepareSigningTasks(packet, key)
	require.Nil(t, err)
	require.Len(t, tasks, 3)
	require.Equal(t, params.SigHashSingle|params.SigHashAnyOneCanPay, tasks[0].SigHashType)
	require.Equal(t, signing.ECDSA, tasks[0].SignatureType)
	require.Equal(t, params.SigHashDefault, tasks[1].SigHashType)
	require.Equal(t, signing.Schnorr, tasks[1].SignatureType)
	require.True(t, tasks[1].TweakKey)
	require.Equal(t, params.SigHashAll, tasks[2].SigHashType)
	for i, task := range tasks {
		require.Equal(t, i, task.TaskID)
		require.Equal(t, i, task.InputIndex)
		require.Len(t, task.MessageHash, signing.MessageHashSize)
	}

	// A sighash type applied to a taproot input gets its trailing byte.
	packet.Inputs[1].SighashType = btcscript.SigHashAll
	res, err := SignPsbtParallel(context.Background(), packet, key,
		signpool.NewSequential(curve, nil))
	require.Nil(t, err)
	require.True(t, res.Outcome.Success)
	require.Len(t, packet.Inputs[1].TaprootKeySpendSig, 65)
	require.Equal(t, byte(0x83), packet.Inputs[0].PartialSigs[0].Signature[len(packet.Inputs[0].PartialSigs[0].Signature)-1])
	verifyTx(t, packet)
}

func TestPrepareErrors(t *testing.T) {
	t.Parallel()

	key := newKey(t, "pktsign error key")

	packet := testPacket(t, key, spendP2WPKH)
	packet.Inputs[0].WitnessUtxo = nil
	_, err := PrepareSigningTasks(packet, key)
	require.True(t, ErrMissingUtxo.Is(err), "got %v", err)

	packet = testPacket(t, key, spendP2PKH)
	packet.UnsignedTx.TxIn[0].PreviousOutPoint.Index = 9
	_, err = PrepareSigningTasks(packet, key)
	require.True(t, ErrMissingUtxo.Is(err), "got %v", err)

	packet = testPacket(t, key, spendP2WPKH)
	packet.Inputs[0].WitnessUtxo.PkScript = txscript.Compile([]txscript.Chunk{
		txscript.Op(opcode.OP_RETURN),
	})
	_, err = PrepareSigningTasks(packet, key)
	require.True(t, ErrUnsupportedScript.Is(err), "got %v", err)

	packet = testPacket(t, key, spendP2SHP2WPKH)
	packet.Inputs[0].RedeemScript = nil
	_, err = PrepareSigningTasks(packet, key)
	require.True(t, ErrUnsupportedScript.Is(err), "got %v", err)

	packet = testPacket(t, key, spendP2SHP2WPKH)
	packet.Inputs[0].RedeemScript = p2wpkhScript(newKey(t, "not ours").PubKey())
	_, err = PrepareSigningTasks(packet, key)
	require.True(t, ErrUnsupportedScript.Is(err), "got %v", err)

	packet = testPacket(t, key, spendP2WPKH)
	packet.Inputs[0].SighashType = 0x04
	_, err = PrepareSigningTasks(packet, key)
	require.True(t, ErrSigHash.Is(err), "got %v", err)

	packet = testPacket(t, key, spendP2WPKH)
	packet.Inputs = append(packet.Inputs, psbt.PInput{})
	_, err = PrepareSigningTasks(packet, key)
	require.True(t, ErrBadPacket.Is(err), "got %v", err)
}

// TestForeignInputsSkipped checks that a key gets tasks only for the inputs
// it owns, and that two owners can sign one packet between them.
func TestForeignInputsSkipped(t *testing.T) {
	t.Parallel()

	owner := newKey(t, "pktsign owner key")
	stranger := newKey(t, "pktsign stranger key")
	pool := signpool.NewSequential(curve, nil)

	packet := testPacket(t, owner, allKinds...)
	tasks, err := PrepareSigningTasks(packet, stranger)
	require.Nil(t, err)
	require.Empty(t, tasks)

	res, err := SignPsbtParallel(context.Background(), packet, stranger, pool)
	require.Nil(t, err)
	require.True(t, res.Outcome.Success)
	for i, in := range packet.Inputs {
		require.Empty(t, in.PartialSigs, "input %d", i)
		require.Empty(t, in.TaprootKeySpendSig, "input %d", i)
		require.Empty(t, in.TaprootScriptSpendSig, "input %d", i)
	}

	// Input 1 is paid to the stranger, the others to the owner.
	packet = testPacket(t, owner, spendP2WPKH, spendP2WPKH, spendP2SHP2WPKH)
	packet.Inputs[1].WitnessUtxo.PkScript = p2wpkhScript(stranger.PubKey())

	tasks, err = PrepareSigningTasks(packet, owner)
	require.Nil(t, err)
	require.Len(t, tasks, 2)
	require.Equal(t, 0, tasks[0].InputIndex)
	require.Equal(t, 2, tasks[1].InputIndex)

	tasks, err = PrepareSigningTasks(packet, stranger)
	require.Nil(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, 1, tasks[0].InputIndex)

	for _, key := range []*signing.StaticKey{owner, stranger} {
		res, err := SignPsbtParallel(context.Background(), packet, key, pool)
		require.Nil(t, err)
		require.True(t, res.Outcome.Success, "%v", res.Outcome.Errors)
	}
	for i, in := range packet.Inputs {
		require.Len(t, in.PartialSigs, 1, "input %d", i)
	}
	require.Equal(t, stranger.PubKey(), packet.Inputs[1].PartialSigs[0].PubKey)
	verifyTx(t, packet)
}

// TestFinalizedInputSkipped checks that final inputs get no task.
func TestFinalizedInputSkipped(t *testing.T) {
	t.Parallel()

	key := newKey(t, "pktsign finalized key")
	packet := testPacket(t, key, spendP2WPKH, spendP2WPKH)
	_, err := SignPsbtParallel(context.Background(), packet, key,
		signpool.NewSequential(curve, nil))
	require.Nil(t, err)
	require.Nil(t, FinalizeInput(packet, 0))
	require.NotNil(t, packet.Inputs[0].FinalScriptWitness)
	require.Nil(t, packet.Inputs[0].PartialSigs)

	packet.Inputs[1].PartialSigs = nil
	tasks, err := PrepareSigningTasks(packet, key)
	require.Nil(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, 1, tasks[0].InputIndex)
}

// TestApplyLeavesFailedInputs ensures an input whose task failed is left
// unsigned and reported.
func TestApplyLeavesFailedInputs(t *testing.T) {
	t.Parallel()

	key := newKey(t, "pktsign apply key")
	packet := testPacket(t, key, spendP2WPKH, spendP2PKH, spendTaprootKey)
	tasks, err := PrepareSigningTasks(packet, key)
	require.Nil(t, err)

	outcome, err := signpool.NewSequential(curve, nil).SignBatch(
		context.Background(), tasks, key)
	require.Nil(t, err)
	outcome.AddError(1, "failed on purpose")
	delete(outcome.Signatures, 2)

	unsigned, err := ApplySignatures(packet, tasks, outcome)
	require.Nil(t, err)
	require.Equal(t, []int{1, 2}, unsigned)
	require.False(t, outcome.Success)
	require.Equal(t, "failed on purpose", outcome.Errors[1])
	require.Contains(t, outcome.Errors, 2)

	require.Len(t, packet.Inputs[0].PartialSigs, 1)
	require.Empty(t, packet.Inputs[1].PartialSigs)
	require.Empty(t, packet.Inputs[2].TaprootKeySpendSig)
}

func TestFinalizeErrors(t *testing.T) {
	t.Parallel()

	key := newKey(t, "pktsign finalize key")
	packet := testPacket(t, key, spendP2WPKH, spendTaprootScript)

	err := FinalizeInput(packet, 0)
	require.True(t, ErrCannotFinalize.Is(err), "got %v", err)
	err = FinalizeInput(packet, 1)
	require.True(t, ErrCannotFinalize.Is(err), "got %v", err)
	err = FinalizeInput(packet, 2)
	require.True(t, ErrBadPacket.Is(err), "got %v", err)

	_, err = Extract(packet)
	require.True(t, ErrCannotFinalize.Is(err), "got %v", err)
}
