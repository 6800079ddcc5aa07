// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"fmt"

	"github.com/pkt-cash/pktsign/btcutil/er"
	"github.com/pkt-cash/pktsign/txscript/opcode"
	"github.com/pkt-cash/pktsign/txscript/parsescript"
	"github.com/pkt-cash/pktsign/txscript/txscripterr"
)

// ScriptClass is an enumeration for the list of standard types of script.
type ScriptClass byte

// Classes of script payment known about in the blockchain.
const (
	NonStandardTy         ScriptClass = iota // None of the recognized forms.
	PubKeyTy                                 // Pay pubkey.
	PubKeyHashTy                             // Pay pubkey hash.
	WitnessV0PubKeyHashTy                    // Pay witness pubkey hash.
	ScriptHashTy                             // Pay to script hash.
	WitnessV0ScriptHashTy                    // Pay to witness script hash.
	WitnessV1TaprootTy                       // Pay to taproot output key.
	MultiSigTy                               // Multi signature.
	NullDataTy                               // Empty data-only (provably prunable).
)

// MaxDataCarrierSize is the maximum number of bytes allowed in pushed
// data to be considered a nulldata transaction
const MaxDataCarrierSize = 80

// scriptClassToName houses the human-readable strings which describe each
// script class.
var scriptClassToName = []string{
	NonStandardTy:         "nonstandard",
	PubKeyTy:              "pubkey",
	PubKeyHashTy:          "pubkeyhash",
	WitnessV0PubKeyHashTy: "witness_v0_keyhash",
	ScriptHashTy:          "scripthash",
	WitnessV0ScriptHashTy: "witness_v0_scripthash",
	WitnessV1TaprootTy:    "witness_v1_taproot",
	MultiSigTy:            "multisig",
	NullDataTy:            "nulldata",
}

// String implements the Stringer interface by returning the name of
// the enum script class. If the enum is invalid then "Invalid" will be
// returned.
func (t ScriptClass) String() string {
	if int(t) >= len(scriptClassToName) {
		return "Invalid"
	}
	return scriptClassToName[t]
}

// IsSegwit returns true if the script is a known segwit type.
func (t ScriptClass) IsSegwit() bool {
	return t == WitnessV0PubKeyHashTy || t == WitnessV0ScriptHashTy ||
		t == WitnessV1TaprootTy
}

func isSmallInt(op opcode.Opcode) bool {
	return op.Value == opcode.OP_0 || (op.Value >= opcode.OP_1 && op.Value <= opcode.OP_16)
}

func asSmallInt(op opcode.Opcode) int {
	if op.Value == opcode.OP_0 {
		return 0
	}
	return int(op.Value - (opcode.OP_1 - 1))
}

// isPubkey returns true if the script passed is a pay-to-pubkey transaction,
// false otherwise.
func isPubkey(pops []parsescript.ParsedOpcode) bool {
	// Valid pubkeys are either 33 or 65 bytes.
	return len(pops) == 2 &&
		(len(pops[0].Data) == 33 || len(pops[0].Data) == 65) &&
		pops[1].Opcode.Value == opcode.OP_CHECKSIG
}

// isPubkeyHash returns true if the script passed is a pay-to-pubkey-hash
// transaction, false otherwise.
func isPubkeyHash(pops []parsescript.ParsedOpcode) bool {
	return len(pops) == 5 &&
		pops[0].Opcode.Value == opcode.OP_DUP &&
		pops[1].Opcode.Value == opcode.OP_HASH160 &&
		pops[2].Opcode.Value == opcode.OP_DATA_20 &&
		pops[3].Opcode.Value == opcode.OP_EQUALVERIFY &&
		pops[4].Opcode.Value == opcode.OP_CHECKSIG
}

// isScriptHash returns true if the script passed is a pay-to-script-hash
// transaction, false otherwise.
func isScriptHash(pops []parsescript.ParsedOpcode) bool {
	return len(pops) == 3 &&
		pops[0].Opcode.Value == opcode.OP_HASH160 &&
		pops[1].Opcode.Value == opcode.OP_DATA_20 &&
		pops[2].Opcode.Value == opcode.OP_EQUAL
}

func isWitnessPubKeyHash(pops []parsescript.ParsedOpcode) bool {
	return len(pops) == 2 &&
		pops[0].Opcode.Value == opcode.OP_0 &&
		pops[1].Opcode.Value == opcode.OP_DATA_20
}

func isWitnessScriptHash(pops []parsescript.ParsedOpcode) bool {
	return len(pops) == 2 &&
		pops[0].Opcode.Value == opcode.OP_0 &&
		pops[1].Opcode.Value == opcode.OP_DATA_32
}

func isTaproot(pops []parsescript.ParsedOpcode) bool {
	return len(pops) == 2 &&
		pops[0].Opcode.Value == opcode.OP_1 &&
		pops[1].Opcode.Value == opcode.OP_DATA_32
}

// isMultiSig returns true if the passed script is a multisig transaction, false
// otherwise.
func isMultiSig(pops []parsescript.ParsedOpcode) bool {
	// The absolute minimum is 1 pubkey:
	// OP_0/OP_1-16 <pubkey> OP_1 OP_CHECKMULTISIG
	l := len(pops)
	if l < 4 {
		return false
	}
	if !isSmallInt(pops[0].Opcode) || !isSmallInt(pops[l-2].Opcode) {
		return false
	}
	if pops[l-1].Opcode.Value != opcode.OP_CHECKMULTISIG {
		return false
	}

	// Verify the number of pubkeys specified matches the actual number
	// of pubkeys provided.
	if l-2-1 != asSmallInt(pops[l-2].Opcode) {
		return false
	}

	for _, pop := range pops[1 : l-2] {
		// Valid pubkeys are either 33 or 65 bytes.
		if len(pop.Data) != 33 && len(pop.Data) != 65 {
			return false
		}
	}
	return true
}

// isNullData returns true if the passed script is a null data transaction,
// false otherwise.
func isNullData(pops []parsescript.ParsedOpcode) bool {
	// A nulldata transaction is either a single OP_RETURN or an
	// OP_RETURN SMALLDATA (where SMALLDATA is a data push up to
	// MaxDataCarrierSize bytes).
	l := len(pops)
	if l == 1 && pops[0].Opcode.Value == opcode.OP_RETURN {
		return true
	}

	return l == 2 &&
		pops[0].Opcode.Value == opcode.OP_RETURN &&
		(isSmallInt(pops[1].Opcode) || pops[1].Opcode.Value <=
			opcode.OP_PUSHDATA4) &&
		len(pops[1].Data) <= MaxDataCarrierSize
}

// typeOfScript returns the type of the script being inspected from the known
// standard types.
func typeOfScript(pops []parsescript.ParsedOpcode) ScriptClass {
	switch {
	case isPubkey(pops):
		return PubKeyTy
	case isPubkeyHash(pops):
		return PubKeyHashTy
	case isWitnessPubKeyHash(pops):
		return WitnessV0PubKeyHashTy
	case isScriptHash(pops):
		return ScriptHashTy
	case isWitnessScriptHash(pops):
		return WitnessV0ScriptHashTy
	case isTaproot(pops):
		return WitnessV1TaprootTy
	case isMultiSig(pops):
		return MultiSigTy
	case isNullData(pops):
		return NullDataTy
	}
	return NonStandardTy
}

// GetScriptClass returns the class of the script passed.
//
// NonStandardTy will be returned when the script does not parse.
func GetScriptClass(script []byte) ScriptClass {
	pops, err := parsescript.ParseScript(script)
	if err != nil {
		return NonStandardTy
	}
	return typeOfScript(pops)
}

func matches(script []byte, f func([]parsescript.ParsedOpcode) bool) bool {
	pops, err := parsescript.ParseScript(script)
	if err != nil {
		return false
	}
	return f(pops)
}

// IsPayToPubKey returns true if the script is in the standard pay-to-pubkey
// (P2PK) format, false otherwise.
func IsPayToPubKey(script []byte) bool {
	return matches(script, isPubkey)
}

// IsPayToPubKeyHash returns true if the script is in the standard
// pay-to-pubkey-hash (P2PKH) format, false otherwise.
func IsPayToPubKeyHash(script []byte) bool {
	return matches(script, isPubkeyHash)
}

// IsPayToScriptHash returns true if the script is in the standard
// pay-to-script-hash (P2SH) format, false otherwise.
func IsPayToScriptHash(script []byte) bool {
	return matches(script, isScriptHash)
}

// IsPayToWitnessPubKeyHash returns true if the is in the standard
// pay-to-witness-pubkey-hash (P2WKH) format, false otherwise.
func IsPayToWitnessPubKeyHash(script []byte) bool {
	return matches(script, isWitnessPubKeyHash)
}

// IsPayToWitnessScriptHash returns true if the is in the standard
// pay-to-witness-script-hash (P2WSH) format, false otherwise.
func IsPayToWitnessScriptHash(script []byte) bool {
	return matches(script, isWitnessScriptHash)
}

// IsPayToTaproot returns true if the script is a segwit v1 output with a
// 32 byte program.
func IsPayToTaproot(script []byte) bool {
	return matches(script, isTaproot)
}

// canonicalPush returns true if the object is either not a push instruction
// or the push instruction contained wherein is matches the canonical form
// or using the smallest instruction to do the job. False otherwise.
func canonicalPush(pop parsescript.ParsedOpcode) bool {
	op := pop.Opcode.Value
	data := pop.Data
	dataLen := len(pop.Data)
	if op > opcode.OP_16 {
		return true
	}

	if op < opcode.OP_PUSHDATA1 && op > opcode.OP_0 && (dataLen == 1 && data[0] <= 16) {
		return false
	}
	if op == opcode.OP_PUSHDATA1 && dataLen < opcode.OP_PUSHDATA1 {
		return false
	}
	if op == opcode.OP_PUSHDATA2 && dataLen <= 0xff {
		return false
	}
	if op == opcode.OP_PUSHDATA4 && dataLen <= 0xffff {
		return false
	}
	return true
}

// IsCanonicalScript returns true if every push in the script uses the
// smallest instruction able to do the job, which is exactly when Decompile
// and Compile reproduce it byte for byte.
func IsCanonicalScript(script []byte) bool {
	chunks := Decompile(script)
	if chunks == nil {
		return false
	}
	return bytes.Equal(Compile(chunks), script)
}

// isWitnessProgram returns true if the passed script is a witness program, and
// false otherwise. A witness program MUST adhere to the following constraints:
// there must be exactly two pops (program version and the program itself), the
// first opcode MUST be a small integer (0-16), the push data MUST be
// canonical, and finally the size of the push data must be between 2 and 40
// bytes.
func isWitnessProgram(pops []parsescript.ParsedOpcode) bool {
	return len(pops) == 2 &&
		isSmallInt(pops[0].Opcode) &&
		canonicalPush(pops[1]) &&
		(len(pops[1].Data) >= 2 && len(pops[1].Data) <= 40)
}

// IsWitnessProgram returns true if the passed script is a valid witness
// program which is encoded according to the passed witness program version. A
// witness program must be a small integer (from 0-16), followed by 2-40 bytes
// of pushed data.
func IsWitnessProgram(script []byte) bool {
	// The length of the script must be between 4 and 42 bytes. The
	// smallest program is the witness version, followed by a data push of
	// 2 bytes.  The largest allowed witness program has a data push of
	// 40-bytes.
	if len(script) < 4 || len(script) > 42 {
		return false
	}
	return matches(script, isWitnessProgram)
}

// ExtractWitnessProgramInfo attempts to extract the witness program version,
// as well as the witness program itself from the passed script.
func ExtractWitnessProgramInfo(script []byte) (int, []byte, er.R) {
	pops, err := parsescript.ParseScript(script)
	if err != nil {
		return 0, nil, err
	}

	// If at this point, the scripts doesn't resemble a witness program,
	// then we'll exit early as there isn't a valid version or program to
	// extract.
	if !isWitnessProgram(pops) {
		return 0, nil, txscripterr.ScriptError(txscripterr.ErrNotWitnessProgram,
			"unable to extract version or witness program")
	}

	witnessVersion := asSmallInt(pops[0].Opcode)
	witnessProgram := pops[1].Data

	return witnessVersion, witnessProgram, nil
}

// PushedData returns an array of byte slices containing any pushed data found
// in the passed script.  This includes OP_0, but not OP_1 - OP_16.
func PushedData(script []byte) ([][]byte, er.R) {
	pops, err := parsescript.ParseScript(script)
	if err != nil {
		return nil, err
	}

	var data [][]byte
	for _, pop := range pops {
		if pop.Data != nil {
			data = append(data, pop.Data)
		} else if pop.Opcode.Value == opcode.OP_0 {
			data = append(data, nil)
		}
	}
	return data, nil
}

// opcodeOnelineRepls defines opcode names which are replaced when doing a
// one-line disassembly.  This is done to match the output of the reference
// implementation while not changing the opcode names in the nicer full
// disassembly.
var opcodeOnelineRepls = map[string]string{
	"OP_1NEGATE": "-1",
	"OP_0":       "0",
	"OP_1":       "1",
	"OP_2":       "2",
	"OP_3":       "3",
	"OP_4":       "4",
	"OP_5":       "5",
	"OP_6":       "6",
	"OP_7":       "7",
	"OP_8":       "8",
	"OP_9":       "9",
	"OP_10":      "10",
	"OP_11":      "11",
	"OP_12":      "12",
	"OP_13":      "13",
	"OP_14":      "14",
	"OP_15":      "15",
	"OP_16":      "16",
}

// popPrint returns a human-readable string representation of the opcode for use
// in script disassembly.
func popPrint(pop *parsescript.ParsedOpcode, oneline bool) string {
	// The reference implementation one-line disassembly replaces opcodes
	// which represent values (e.g. OP_0 through OP_16 and OP_1NEGATE)
	// with the raw value.  However, when not doing a one-line dissassembly,
	// we prefer to show the actual opcode names.  Thus, only replace the
	// opcodes in question when the oneline flag is set.
	opcodeName := opcode.OpcodeName(pop.Opcode.Value)
	if oneline {
		if replName, ok := opcodeOnelineRepls[opcodeName]; ok {
			opcodeName = replName
		}
		if pop.Opcode.Length == 1 {
			return opcodeName
		}
		return fmt.Sprintf("%x", pop.Data)
	}

	if pop.Opcode.Length == 1 {
		return opcodeName
	}

	// Add length for the OP_PUSHDATA# opcodes.
	retString := opcodeName
	switch pop.Opcode.Length {
	case -1:
		retString += fmt.Sprintf(" 0x%02x", len(pop.Data))
	case -2:
		retString += fmt.Sprintf(" 0x%04x", len(pop.Data))
	case -4:
		retString += fmt.Sprintf(" 0x%08x", len(pop.Data))
	}

	return fmt.Sprintf("%s 0x%02x", retString, pop.Data)
}

// DisasmString formats a disassembled script for one line printing.  When the
// script fails to parse, the returned string will contain the disassembled
// script up to the point the failure occurred along with the string '[error]'
// appended.  In addition, the reason the script failed to parse is returned
// if the caller wants more information about the failure.
//
// Unlike ToASM, small integers are printed as numbers and push opcodes are
// never minimized.
func DisasmString(buf []byte) (string, er.R) {
	var disbuf bytes.Buffer
	opcodes, err := parsescript.ParseScript(buf)
	for _, pop := range opcodes {
		disbuf.WriteString(popPrint(&pop, true))
		disbuf.WriteByte(' ')
	}
	if disbuf.Len() > 0 {
		disbuf.Truncate(disbuf.Len() - 1)
	}
	if err != nil {
		disbuf.WriteString("[error]")
	}
	return disbuf.String(), err
}

// DisasmVerbose is like DisasmString but keeps opcode names and shows the
// length prefix of every PUSHDATA opcode.
func DisasmVerbose(buf []byte) (string, er.R) {
	var disbuf bytes.Buffer
	opcodes, err := parsescript.ParseScript(buf)
	for _, pop := range opcodes {
		disbuf.WriteString(popPrint(&pop, false))
		disbuf.WriteByte(' ')
	}
	if disbuf.Len() > 0 {
		disbuf.Truncate(disbuf.Len() - 1)
	}
	if err != nil {
		disbuf.WriteString("[error]")
	}
	return disbuf.String(), err
}
