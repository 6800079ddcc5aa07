package psbtsign

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/psbt"
	btcscript "github.com/btcsuite/btcd/txscript"

	"github.com/pkt-cash/pktsign/btcutil/er"
	"github.com/pkt-cash/pktsign/btcutil/util/tmap"
	"github.com/pkt-cash/pktsign/signing"
	"github.com/pkt-cash/pktsign/txscript"
	"github.com/pkt-cash/pktsign/txscript/params"
	"github.com/pkt-cash/pktsign/txscript/scriptsig"
)

// schnorrSig appends the hash type byte, which is omitted for
// SigHashDefault.
func schnorrSig(sig []byte, hashType params.SigHashType) []byte {
	out := make([]byte, 0, len(sig)+1)
	out = append(out, sig...)
	if hashType != params.SigHashDefault {
		out = append(out, byte(hashType))
	}
	return out
}

func applyECDSA(u *psbt.Updater, t *signing.Task, r *signing.Result) er.R {
	sig, err := scriptsig.Encode(r.Signature, t.SigHashType)
	if err != nil {
		return err
	}
	if !txscript.IsCanonicalScriptSignature(sig) {
		return ErrNonCanonical.New(fmt.Sprintf("signature %x", sig), nil)
	}
	if !txscript.IsCanonicalPubKey(r.PublicKey) {
		return ErrBadPacket.New(fmt.Sprintf("public key %x", r.PublicKey), nil)
	}
	if _, errr := u.Sign(t.InputIndex, sig, r.PublicKey, nil, nil); errr != nil {
		return ErrBadPacket.New("adding partial signature", er.E(errr))
	}
	return nil
}

func applySchnorr(in *psbt.PInput, t *signing.Task, r *signing.Result) {
	sig := schnorrSig(r.Signature, t.SigHashType)
	if t.LeafHash == nil {
		in.TaprootKeySpendSig = sig
		return
	}
	in.TaprootScriptSpendSig = append(in.TaprootScriptSpendSig,
		&psbt.TaprootScriptSpendSig{
			XOnlyPubKey: r.PublicKey,
			LeafHash:    t.LeafHash,
			Signature:   r.Signature,
			SigHash:     btcscript.SigHashType(t.SigHashType),
		})
}

// ApplySignatures writes the signatures of outcome into packet, in input
// order.  It returns the sorted indices of the inputs which had a task but
// got no signature, each of which also has an entry in outcome.Errors.
func ApplySignatures(
	packet *psbt.Packet,
	tasks []*signing.Task,
	outcome *signing.Outcome,
) ([]int, er.R) {
	u, errr := psbt.NewUpdater(packet)
	if errr != nil {
		return nil, ErrBadPacket.New("", er.E(errr))
	}

	byInput := tmap.NewInt[*signing.Task]()
	for _, t := range tasks {
		if t.InputIndex < 0 || t.InputIndex >= len(packet.Inputs) {
			return nil, ErrBadPacket.New(fmt.Sprintf("%s is out of range", t), nil)
		}
		idx, task := t.InputIndex, t
		if old, _ := tmap.Insert(byInput, &idx, &task); old != nil {
			log.Debugf("Input %d has more than one task, using %s", idx, t)
		}
	}

	var unsigned []int
	tmap.ForEach(byInput, func(ip *int, tp **signing.Task) er.R {
		idx, t := *ip, *tp
		r, ok := outcome.Signatures[idx]
		if !ok {
			if _, failed := outcome.Errors[idx]; !failed {
				outcome.AddError(idx, "no signature produced")
			}
			unsigned = append(unsigned, idx)
			return nil
		}

		var err er.R
		if t.SignatureType == signing.Schnorr {
			applySchnorr(&packet.Inputs[idx], t, r)
		} else {
			err = applyECDSA(u, t, r)
		}
		if err != nil {
			log.Debugf("Input %d: signature not applied: %v", idx, err)
			outcome.AddError(idx, err.Message())
			unsigned = append(unsigned, idx)
		}
		return nil
	})

	if errr := packet.SanityCheck(); errr != nil {
		return unsigned, ErrBadPacket.New("signed packet", er.E(errr))
	}
	return unsigned, nil
}
