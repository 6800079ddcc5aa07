// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pkt-cash/pktsign/btcutil/er"
	"github.com/pkt-cash/pktsign/txscript/opcode"
	"github.com/pkt-cash/pktsign/txscript/parsescript"
	"github.com/pkt-cash/pktsign/txscript/txscripterr"
)

// Chunk is one element of a script, either a bare opcode or a data push.
// Data is nil for opcode chunks, any non-nil Data (even empty) is a push.
type Chunk struct {
	Opcode byte
	Data   []byte
}

// Op returns an opcode chunk.
func Op(op byte) Chunk {
	return Chunk{Opcode: op}
}

// Push returns a data push chunk.  The opcode is filled in when the chunk
// is compiled.
func Push(data []byte) Chunk {
	if data == nil {
		data = []byte{}
	}
	return Chunk{Data: data}
}

// IsData reports whether the chunk pushes data.
func (c Chunk) IsData() bool {
	return c.Data != nil
}

func (c Chunk) String() string {
	if c.IsData() {
		return hex.EncodeToString(c.Data)
	}
	return opcode.OpcodeName(c.Opcode)
}

// minimalOp returns the small integer opcode which pushes the same value as
// data, per the BIP62.3 minimal push rule.
func minimalOp(data []byte) (byte, bool) {
	switch {
	case len(data) == 0:
		return opcode.OP_0, true
	case len(data) != 1:
		return 0, false
	case data[0] >= 1 && data[0] <= 16:
		return opcode.OP_1 + data[0] - 1, true
	case data[0] == 0x81:
		return opcode.OP_1NEGATE, true
	}
	return 0, false
}

// pushDataSize is the number of bytes of opcode and length prefix needed to
// push n bytes.
func pushDataSize(n int) int {
	switch {
	case n < opcode.OP_PUSHDATA1:
		return 1
	case n <= 0xff:
		return 2
	case n <= 0xffff:
		return 3
	}
	return 5
}

// writePushData writes the push opcode and length prefix for n bytes into
// buf and returns the number of bytes written.
func writePushData(buf []byte, n int) int {
	switch {
	case n < opcode.OP_PUSHDATA1:
		buf[0] = byte(n)
		return 1
	case n <= 0xff:
		buf[0] = opcode.OP_PUSHDATA1
		buf[1] = byte(n)
		return 2
	case n <= 0xffff:
		buf[0] = opcode.OP_PUSHDATA2
		binary.LittleEndian.PutUint16(buf[1:], uint16(n))
		return 3
	}
	buf[0] = opcode.OP_PUSHDATA4
	binary.LittleEndian.PutUint32(buf[1:], uint32(n))
	return 5
}

// compiledSize returns the exact number of bytes Compile will produce.
func compiledSize(chunks []Chunk) int {
	size := 0
	for _, c := range chunks {
		if !c.IsData() {
			size++
			continue
		}
		if len(c.Data) == 1 {
			if _, ok := minimalOp(c.Data); ok {
				size++
				continue
			}
		}
		size += pushDataSize(len(c.Data)) + len(c.Data)
	}
	return size
}

// Compile serializes chunks into a script.  Single byte pushes of 1 through
// 16 and 0x81 are replaced by OP_1..OP_16 and OP_1NEGATE, every other push
// uses the shortest length prefix for its size.
func Compile(chunks []Chunk) []byte {
	script := make([]byte, compiledSize(chunks))
	off := 0
	for _, c := range chunks {
		if !c.IsData() {
			script[off] = c.Opcode
			off++
			continue
		}
		if len(c.Data) == 1 {
			if op, ok := minimalOp(c.Data); ok {
				script[off] = op
				off++
				continue
			}
		}
		off += writePushData(script[off:], len(c.Data))
		off += copy(script[off:], c.Data)
	}
	return script
}

// Decompile splits a script into chunks.  It returns nil when a push is
// malformed or runs past the end of the script, this is not exceptional and
// callers must check for it.  Pushes which have a small integer equivalent
// come back as that opcode.
func Decompile(script []byte) []Chunk {
	pops, err := parsescript.ParseScript(script)
	if err != nil {
		log.Tracef("Unable to decompile script %x: %s", script, err.Message())
		return nil
	}
	return chunksFromPops(pops)
}

func chunksFromPops(pops []parsescript.ParsedOpcode) []Chunk {
	chunks := make([]Chunk, 0, len(pops))
	for _, pop := range pops {
		if !opcode.IsPushData(pop.Opcode.Value) {
			chunks = append(chunks, Op(pop.Opcode.Value))
			continue
		}
		if op, ok := minimalOp(pop.Data); ok {
			chunks = append(chunks, Op(op))
			continue
		}
		data := make([]byte, len(pop.Data))
		copy(data, pop.Data)
		chunks = append(chunks, Push(data))
	}
	return chunks
}

// ToASM renders chunks as space separated opcode names and hex data.
func ToASM(chunks []Chunk) string {
	tokens := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c.IsData() {
			if op, ok := minimalOp(c.Data); ok {
				tokens = append(tokens, opcode.OpcodeName(op))
				continue
			}
			tokens = append(tokens, hex.EncodeToString(c.Data))
			continue
		}
		tokens = append(tokens, opcode.OpcodeName(c.Opcode))
	}
	return strings.Join(tokens, " ")
}

// ScriptToASM decompiles script and renders it as ASM.
func ScriptToASM(script []byte) (string, er.R) {
	pops, err := parsescript.ParseScript(script)
	if err != nil {
		return "", err
	}
	return ToASM(chunksFromPops(pops)), nil
}

// ParseASM converts ASM text into chunks.  Tokens which name an opcode become
// that opcode, all others must be hex data.  Push opcodes cannot be written
// by name since they would be separated from their data.
func ParseASM(asm string) ([]Chunk, er.R) {
	fields := strings.Fields(asm)
	chunks := make([]Chunk, 0, len(fields))
	for _, tok := range fields {
		if op, ok := opcode.ByName(tok); ok {
			if opcode.IsPushData(op) {
				return nil, txscripterr.ScriptError(txscripterr.ErrInvalidASMToken,
					fmt.Sprintf("push opcode %s cannot appear without data", tok))
			}
			chunks = append(chunks, Op(op))
			continue
		}
		if len(tok)%2 != 0 {
			return nil, txscripterr.ScriptError(txscripterr.ErrInvalidASMToken,
				fmt.Sprintf("token [%s] is not an opcode or hex data", tok))
		}
		data, errr := hex.DecodeString(tok)
		if errr != nil {
			return nil, txscripterr.ScriptError(txscripterr.ErrInvalidASMToken,
				fmt.Sprintf("token [%s] is not an opcode or hex data", tok))
		}
		chunks = append(chunks, Push(data))
	}
	return chunks, nil
}

// FromASM parses ASM text and compiles it into a script.
func FromASM(asm string) ([]byte, er.R) {
	chunks, err := ParseASM(asm)
	if err != nil {
		return nil, err
	}
	return Compile(chunks), nil
}

// isPushOnlyChunk is true for data and for the small integer opcodes.
func isPushOnlyChunk(c Chunk) bool {
	return c.IsData() || opcode.IsSmallInt(c.Opcode)
}

// IsPushOnly returns true if every chunk is a data push or a small integer.
func IsPushOnly(chunks []Chunk) bool {
	for _, c := range chunks {
		if !isPushOnlyChunk(c) {
			return false
		}
	}
	return true
}

// CountNonPushOnlyOps counts the chunks which are neither data nor small
// integers.
func CountNonPushOnlyOps(chunks []Chunk) int {
	n := 0
	for _, c := range chunks {
		if !isPushOnlyChunk(c) {
			n++
		}
	}
	return n
}

// IsPushOnlyScript returns whether or not the passed script only pushes data.
//
// False will be returned when the script does not parse.
func IsPushOnlyScript(script []byte) bool {
	chunks := Decompile(script)
	if chunks == nil {
		return false
	}
	return IsPushOnly(chunks)
}

// ToStack returns the stack items a push only script leaves behind.  OP_0
// becomes an empty item and the other small integers become their minimally
// encoded script numbers.
func ToStack(chunks []Chunk) ([][]byte, er.R) {
	if !IsPushOnly(chunks) {
		return nil, txscripterr.ScriptError(txscripterr.ErrNotPushOnly,
			fmt.Sprintf("script contains %d non push operations",
				CountNonPushOnlyOps(chunks)))
	}
	stack := make([][]byte, 0, len(chunks))
	for _, c := range chunks {
		switch {
		case c.IsData():
			item := make([]byte, len(c.Data))
			copy(item, c.Data)
			stack = append(stack, item)
		case c.Opcode == opcode.OP_0:
			stack = append(stack, []byte{})
		default:
			n := scriptNum(int(c.Opcode) - (opcode.OP_1 - 1))
			stack = append(stack, n.Bytes())
		}
	}
	return stack, nil
}

// ScriptToStack decompiles script and returns its stack items.
func ScriptToStack(script []byte) ([][]byte, er.R) {
	pops, err := parsescript.ParseScript(script)
	if err != nil {
		return nil, err
	}
	return ToStack(chunksFromPops(pops))
}
