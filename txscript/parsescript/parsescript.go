package parsescript

import (
	"fmt"

	"github.com/pkt-cash/pktsign/btcutil/er"
	"github.com/pkt-cash/pktsign/txscript/opcode"
	"github.com/pkt-cash/pktsign/txscript/txscripterr"
)

// opcodeArray holds details about all possible opcodes such as how many bytes
// the opcode and any associated data should take.
var opcodeArray [256]opcode.Opcode

func init() {
	for i := 0; i < 256; i++ {
		opcodeArray[i] = opcode.MkOpcode(byte(i))
	}
}

// ParsedOpcode represents an opcode that has been parsed and includes any
// potential data associated with it.  Data aliases the parsed script.
type ParsedOpcode struct {
	Opcode opcode.Opcode
	Data   []byte
}

// ParseScriptTemplate is the same as ParseScript but allows the passing of the
// template list for testing purposes.  When there are parse errors, it returns
// the list of parsed opcodes up to the point of failure along with the error.
func ParseScriptTemplate(script []byte, opcodes map[byte]opcode.Opcode) ([]ParsedOpcode, er.R) {
	retScript := make([]ParsedOpcode, 0, len(script))
	for i := 0; i < len(script); {
		instr := script[i]
		op := opcodeArray[instr]
		if opp, ok := opcodes[instr]; ok {
			op = opp
		}
		pop := ParsedOpcode{Opcode: op}

		switch {
		// No additional data.  Note that some of the opcodes, notably
		// OP_1NEGATE, OP_0, and OP_[1-16] represent the data
		// themselves.
		case op.Length == 1:
			i++

		// Data pushes of specific lengths -- OP_DATA_[1-75].
		case op.Length > 1:
			if len(script[i:]) < op.Length {
				str := fmt.Sprintf("opcode %s requires %d "+
					"bytes, but script only has %d remaining",
					opcode.OpcodeName(op.Value), op.Length, len(script[i:]))
				return retScript, txscripterr.ScriptError(txscripterr.ErrMalformedPush,
					str)
			}
			pop.Data = script[i+1 : i+op.Length]
			i += op.Length

		// Data pushes with parsed lengths -- OP_PUSHDATA{1,2,4}.
		case op.Length < 0:
			off := i + 1
			if len(script[off:]) < -op.Length {
				str := fmt.Sprintf("opcode %s requires %d "+
					"bytes, but script only has %d remaining",
					opcode.OpcodeName(op.Value), -op.Length, len(script[off:]))
				return retScript, txscripterr.ScriptError(txscripterr.ErrMalformedPush,
					str)
			}

			// Next -length bytes are little endian length of data.
			var l uint64
			switch op.Length {
			case -1:
				l = uint64(script[off])
			case -2:
				l = uint64(script[off+1])<<8 | uint64(script[off])
			case -4:
				l = uint64(script[off+3])<<24 |
					uint64(script[off+2])<<16 |
					uint64(script[off+1])<<8 |
					uint64(script[off])
			default:
				str := fmt.Sprintf("invalid opcode length %d",
					op.Length)
				return retScript, txscripterr.ScriptError(txscripterr.ErrMalformedPush,
					str)
			}
			off += -op.Length

			if l > uint64(len(script[off:])) {
				str := fmt.Sprintf("opcode %s pushes %d bytes, "+
					"but script only has %d remaining",
					opcode.OpcodeName(op.Value), l, len(script[off:]))
				return retScript, txscripterr.ScriptError(txscripterr.ErrMalformedPush,
					str)
			}

			pop.Data = script[off : off+int(l)]
			i = off + int(l)
		}

		retScript = append(retScript, pop)
	}

	return retScript, nil
}

// ParseScript preparses the script in bytes into a list of ParsedOpcodes.
func ParseScript(script []byte) ([]ParsedOpcode, er.R) {
	return ParseScriptTemplate(script, nil)
}
