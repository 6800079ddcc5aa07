// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"encoding/hex"
	"reflect"
	"strings"
	"testing"

	"github.com/pkt-cash/pktsign/txscript/opcode"
	"github.com/pkt-cash/pktsign/txscript/parsescript"
	"github.com/pkt-cash/pktsign/txscript/txscripterr"
)

// hexToBytes converts the passed hex string into bytes and will panic if there
// is an error.  This is only provided for the hard-coded constants so errors in
// the source code can be detected. It will only (and must only) be called with
// hard-coded values.
func hexToBytes(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic("invalid hex in source file: " + s)
	}
	return b
}

// TestParseOpcode tests for opcode parsing with bad data templates.
func TestParseOpcode(t *testing.T) {
	// Deep copy the array and make one of the opcodes invalid by setting it
	// to the wrong length.
	fakeArray := make(map[byte]opcode.Opcode)
	fakeArray[opcode.OP_PUSHDATA4] = opcode.Opcode{Value: opcode.OP_PUSHDATA4, Length: -8}

	// This script would be fine if -8 was a valid length.
	_, err := parsescript.ParseScriptTemplate([]byte{opcode.OP_PUSHDATA4, 0x1, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00}, fakeArray)
	if err == nil {
		t.Errorf("no error with dodgy opcode array!")
	}
}

// TestCompile ensures chunks are serialized with the shortest push for their
// size and that single byte values with an opcode of their own use it.
func TestCompile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		chunks []Chunk
		want   string
	}{
		{
			name:   "op_return small int",
			chunks: []Chunk{Op(opcode.OP_RETURN), Push([]byte{0x05})},
			want:   "6a55",
		},
		{
			name:   "empty push is OP_0",
			chunks: []Chunk{Push(nil)},
			want:   "00",
		},
		{
			name:   "0x81 is OP_1NEGATE",
			chunks: []Chunk{Push([]byte{0x81})},
			want:   "4f",
		},
		{
			name:   "16 is OP_16",
			chunks: []Chunk{Push([]byte{0x10})},
			want:   "60",
		},
		{
			name:   "1 is OP_1",
			chunks: []Chunk{Push([]byte{0x01})},
			want:   "51",
		},
		{
			name:   "zero byte stays a push",
			chunks: []Chunk{Push([]byte{0x00})},
			want:   "0100",
		},
		{
			name:   "17 stays a push",
			chunks: []Chunk{Push([]byte{0x11})},
			want:   "0111",
		},
		{
			name:   "two bytes stay a push",
			chunks: []Chunk{Push([]byte{0x01, 0x00})},
			want:   "020100",
		},
		{
			name:   "75 bytes direct",
			chunks: []Chunk{Push(bytes.Repeat([]byte{0xaa}, 75))},
			want:   "4b" + strings.Repeat("aa", 75),
		},
		{
			name:   "76 bytes PUSHDATA1",
			chunks: []Chunk{Push(bytes.Repeat([]byte{0xaa}, 76))},
			want:   "4c4c" + strings.Repeat("aa", 76),
		},
		{
			name:   "255 bytes PUSHDATA1",
			chunks: []Chunk{Push(bytes.Repeat([]byte{0xaa}, 255))},
			want:   "4cff" + strings.Repeat("aa", 255),
		},
		{
			name:   "256 bytes PUSHDATA2",
			chunks: []Chunk{Push(bytes.Repeat([]byte{0xaa}, 256))},
			want:   "4d0001" + strings.Repeat("aa", 256),
		},
		{
			name:   "65535 bytes PUSHDATA2",
			chunks: []Chunk{Push(bytes.Repeat([]byte{0xaa}, 65535))},
			want:   "4dffff" + strings.Repeat("aa", 65535),
		},
		{
			name:   "65536 bytes PUSHDATA4",
			chunks: []Chunk{Push(bytes.Repeat([]byte{0xaa}, 65536))},
			want:   "4e00000100" + strings.Repeat("aa", 65536),
		},
		{
			name: "p2pkh",
			chunks: []Chunk{
				Op(opcode.OP_DUP), Op(opcode.OP_HASH160),
				Push(hexToBytes("2995a0fe6843fa9b954597f0dca7a44df6fa0b5c")),
				Op(opcode.OP_EQUALVERIFY), Op(opcode.OP_CHECKSIG),
			},
			want: "76a9142995a0fe6843fa9b954597f0dca7a44df6fa0b5c88ac",
		},
		{
			name:   "no chunks",
			chunks: nil,
			want:   "",
		},
	}

	for _, test := range tests {
		got := Compile(test.chunks)
		if hex.EncodeToString(got) != test.want {
			t.Errorf("%s: got %x, want %s", test.name, got, test.want)
			continue
		}
		if len(got) != cap(got) {
			t.Errorf("%s: compiled script was reallocated, len %d cap %d",
				test.name, len(got), cap(got))
		}
	}
}

// TestDecompileMalformed ensures that truncated pushes yield nil rather than
// an error or a partial result.
func TestDecompileMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		script string
	}{
		{"PUSHDATA1 without length", "4c"},
		{"PUSHDATA2 short length", "4d01"},
		{"PUSHDATA4 short length", "4e010000"},
		{"direct push past end", "050102"},
		{"PUSHDATA1 past end", "4c0301"},
		{"PUSHDATA2 past end", "4d0300aabb"},
		{"PUSHDATA4 huge length", "4effffffff00"},
		{"valid prefix then truncated", "76a914aabb"},
	}

	for _, test := range tests {
		if chunks := Decompile(hexToBytes(test.script)); chunks != nil {
			t.Errorf("%s: expected nil, got %v", test.name, chunks)
		}
		if IsPushOnlyScript(hexToBytes(test.script)) {
			t.Errorf("%s: unparsable script reported push only", test.name)
		}
		_, err := ScriptToASM(hexToBytes(test.script))
		if !txscripterr.ErrMalformedPush.Is(err) {
			t.Errorf("%s: expected ErrMalformedPush, got %v", test.name, err)
		}
	}

	if chunks := Decompile(nil); chunks == nil || len(chunks) != 0 {
		t.Errorf("empty script: expected empty chunks, got %v", chunks)
	}
}

// TestDecompileMinimizes ensures single byte pushes written the long way come
// back as their small integer opcode.
func TestDecompileMinimizes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		script string
		want   []Chunk
	}{
		{"0105", []Chunk{Op(opcode.OP_5)}},
		{"0181", []Chunk{Op(opcode.OP_1NEGATE)}},
		{"4c0110", []Chunk{Op(opcode.OP_16)}},
		{"4c00", []Chunk{Op(opcode.OP_0)}},
		{"4d0000", []Chunk{Op(opcode.OP_0)}},
		{"0100", []Chunk{Push([]byte{0x00})}},
		{"4c0111", []Chunk{Push([]byte{0x11})}},
	}

	for i, test := range tests {
		got := Decompile(hexToBytes(test.script))
		if !reflect.DeepEqual(got, test.want) {
			t.Errorf("#%d %s: got %v, want %v", i, test.script, got,
				test.want)
		}
	}
}

// TestCompileDecompileRoundTrip ensures canonical chunk sequences survive a
// trip through the byte form unchanged.
func TestCompileDecompileRoundTrip(t *testing.T) {
	t.Parallel()

	sig := hexToBytes("3045022100a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f9002201122334455667788990011223344556677889900112233445566778899001101")
	pub := hexToBytes("02a1633cafcc01ebfb6d78e39f687a1f0995c62fc95f51ead10a02ee0be551b5dc")

	tests := [][]Chunk{
		{Push(sig), Push(pub)},
		{Op(opcode.OP_0), Push(bytes.Repeat([]byte{0x01}, 32))},
		{Op(opcode.OP_RETURN), Op(opcode.OP_5)},
		{Op(opcode.OP_1NEGATE), Op(opcode.OP_16), Push([]byte{0x00}), Push([]byte{0x11})},
		{Op(opcode.OP_2), Push(pub), Push(pub), Op(opcode.OP_2), Op(opcode.OP_CHECKMULTISIG)},
		{Push(bytes.Repeat([]byte{0x42}, 76)), Push(bytes.Repeat([]byte{0x42}, 300))},
		{Op(opcode.OP_IF), Op(opcode.OP_CHECKLOCKTIMEVERIFY), Op(opcode.OP_ELSE), Op(opcode.OP_ENDIF)},
		{},
	}

	for i, chunks := range tests {
		script := Compile(chunks)
		got := Decompile(script)
		if !reflect.DeepEqual(got, chunks) {
			t.Errorf("#%d: round trip mismatch\ngot:  %v\nwant: %v", i,
				got, chunks)
			continue
		}
		if !IsCanonicalScript(script) {
			t.Errorf("#%d: compiled script %x is not canonical", i, script)
		}
	}
}

// TestIsCanonicalScript ensures non-minimal pushes are detected.
func TestIsCanonicalScript(t *testing.T) {
	t.Parallel()

	tests := []struct {
		script string
		want   bool
	}{
		{"6a55", true},
		{"0100", true},
		{"0105", false},
		{"0181", false},
		{"4c0411223344", false},
		{"4d0100aa", false},
		{"4c", false},
		{"", true},
	}
	for _, test := range tests {
		if got := IsCanonicalScript(hexToBytes(test.script)); got != test.want {
			t.Errorf("IsCanonicalScript(%s) = %v, want %v", test.script,
				got, test.want)
		}
	}
}

// TestASM checks rendering and parsing of ASM text.
func TestASM(t *testing.T) {
	t.Parallel()

	asm, err := ScriptToASM(Compile([]Chunk{Op(opcode.OP_RETURN), Push([]byte{0x05})}))
	if err != nil {
		t.Fatalf("ScriptToASM: %v", err)
	}
	if asm != "OP_RETURN OP_5" {
		t.Fatalf("got %q, want %q", asm, "OP_RETURN OP_5")
	}

	tests := []string{
		"OP_RETURN OP_5",
		"OP_DUP OP_HASH160 2995a0fe6843fa9b954597f0dca7a44df6fa0b5c OP_EQUALVERIFY OP_CHECKSIG",
		"OP_0 0101010101010101010101010101010101010101010101010101010101010101",
		"OP_1NEGATE OP_0 OP_16 00 11 OP_CHECKLOCKTIMEVERIFY OP_CHECKSEQUENCEVERIFY",
		"OP_HASH160 0000000000000000000000000000000000000000 OP_EQUAL",
		"OP_IF OP_CHECKSIGADD OP_ELSE OP_NOP10 OP_ENDIF OP_UNKNOWN187",
		"",
	}
	for _, test := range tests {
		script, err := FromASM(test)
		if err != nil {
			t.Errorf("FromASM(%q): %v", test, err)
			continue
		}
		got, err := ScriptToASM(script)
		if err != nil {
			t.Errorf("ScriptToASM(%x): %v", script, err)
			continue
		}
		if got != test {
			t.Errorf("ASM round trip: got %q, want %q", got, test)
		}
	}
}

// TestFromASMAliases ensures the alternate opcode names parse to the same
// bytes as their canonical names and render canonically.
func TestFromASMAliases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"OP_FALSE", "OP_0"},
		{"OP_TRUE", "OP_1"},
		{"OP_NOP2", "OP_CHECKLOCKTIMEVERIFY"},
		{"OP_NOP3", "OP_CHECKSEQUENCEVERIFY"},
		{"  OP_DUP\n\tOP_DROP ", "OP_DUP OP_DROP"},
		{"AABB", "aabb"},
	}
	for _, test := range tests {
		script, err := FromASM(test.in)
		if err != nil {
			t.Errorf("FromASM(%q): %v", test.in, err)
			continue
		}
		got, _ := ScriptToASM(script)
		if got != test.want {
			t.Errorf("FromASM(%q) renders %q, want %q", test.in, got,
				test.want)
		}
	}
}

// TestFromASMInvalid ensures tokens which are neither opcodes nor hex, and
// bare push opcodes, are rejected.
func TestFromASMInvalid(t *testing.T) {
	t.Parallel()

	tests := []string{
		"OP_DUP zz",
		"abc",
		"OP_NOTANOPCODE",
		"OP_PUSHDATA1",
		"OP_DATA_20",
		"0x00",
	}
	for _, test := range tests {
		_, err := FromASM(test)
		if !txscripterr.ErrInvalidASMToken.Is(err) {
			t.Errorf("FromASM(%q): expected ErrInvalidASMToken, got %v",
				test, err)
		}
	}
}

// TestToStack ensures push only scripts convert to the stack they leave and
// all other scripts are rejected.
func TestToStack(t *testing.T) {
	t.Parallel()

	sig := bytes.Repeat([]byte{0x30}, 71)
	chunks := []Chunk{
		Op(opcode.OP_0), Push(sig), Op(opcode.OP_1NEGATE), Op(opcode.OP_1),
		Op(opcode.OP_16), Push([]byte{0x00}),
	}
	stack, err := ToStack(chunks)
	if err != nil {
		t.Fatalf("ToStack: %v", err)
	}
	want := [][]byte{{}, sig, {0x81}, {0x01}, {0x10}, {0x00}}
	if !reflect.DeepEqual(stack, want) {
		t.Fatalf("got %x, want %x", stack, want)
	}

	// The stack must not alias the chunks.
	stack[1][0] = 0xff
	if sig[0] != 0x30 {
		t.Fatalf("stack item aliases chunk data")
	}

	stack, err = ScriptToStack(Compile(chunks))
	if err != nil {
		t.Fatalf("ScriptToStack: %v", err)
	}
	if !reflect.DeepEqual(stack, want) {
		t.Fatalf("ScriptToStack: got %x, want %x", stack, want)
	}

	_, err = ToStack([]Chunk{Push(sig), Op(opcode.OP_CHECKSIG)})
	if !txscripterr.ErrNotPushOnly.Is(err) {
		t.Fatalf("expected ErrNotPushOnly, got %v", err)
	}
	_, err = ScriptToStack(hexToBytes("4c"))
	if !txscripterr.ErrMalformedPush.Is(err) {
		t.Fatalf("expected ErrMalformedPush, got %v", err)
	}
}

// TestPushOnly exercises IsPushOnly and CountNonPushOnlyOps.
func TestPushOnly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		chunks  []Chunk
		pushy   bool
		nonPush int
	}{
		{nil, true, 0},
		{[]Chunk{Op(opcode.OP_0), Op(opcode.OP_1NEGATE), Op(opcode.OP_16)}, true, 0},
		{[]Chunk{Push([]byte{1, 2}), Push(nil)}, true, 0},
		{[]Chunk{Op(opcode.OP_RESERVED)}, false, 1},
		{[]Chunk{Op(opcode.OP_DUP), Push([]byte{1, 2}), Op(opcode.OP_CHECKSIG)}, false, 2},
		{[]Chunk{Op(opcode.OP_NOP)}, false, 1},
	}
	for i, test := range tests {
		if got := IsPushOnly(test.chunks); got != test.pushy {
			t.Errorf("#%d: IsPushOnly = %v, want %v", i, got, test.pushy)
		}
		if got := CountNonPushOnlyOps(test.chunks); got != test.nonPush {
			t.Errorf("#%d: CountNonPushOnlyOps = %d, want %d", i, got,
				test.nonPush)
		}
	}
}

// TestScriptNumBytes ensures that converting from integral script numbers to
// byte representations works as expected.
func TestScriptNumBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		num        scriptNum
		serialized []byte
	}{
		{0, []byte{}},
		{1, hexToBytes("01")},
		{-1, hexToBytes("81")},
		{127, hexToBytes("7f")},
		{-127, hexToBytes("ff")},
		{128, hexToBytes("8000")},
		{-128, hexToBytes("8080")},
		{129, hexToBytes("8100")},
		{-129, hexToBytes("8180")},
		{256, hexToBytes("0001")},
		{-256, hexToBytes("0081")},
		{32767, hexToBytes("ff7f")},
		{-32767, hexToBytes("ffff")},
		{32768, hexToBytes("008000")},
		{-32768, hexToBytes("008080")},
	}

	for _, test := range tests {
		gotBytes := test.num.Bytes()
		if !bytes.Equal(gotBytes, test.serialized) {
			t.Errorf("Bytes: did not get expected bytes for %d - "+
				"got %x, want %x", test.num, gotBytes,
				test.serialized)
			continue
		}
	}
}

// TestDisasmString ensures the one-line disassembly keeps the raw pushes.
func TestDisasmString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		script string
		want   string
		valid  bool
	}{
		{"6a55", "OP_RETURN 5", true},
		{"0105", "05", true},
		{"4f00", "-1 0", true},
		{"76a90302", "OP_DUP OP_HASH160[error]", false},
	}
	for _, test := range tests {
		got, err := DisasmString(hexToBytes(test.script))
		if (err == nil) != test.valid {
			t.Errorf("DisasmString(%s): unexpected error state %v",
				test.script, err)
		}
		if got != test.want {
			t.Errorf("DisasmString(%s) = %q, want %q", test.script, got,
				test.want)
		}
	}

	got, err := DisasmVerbose(hexToBytes("4c0411223344"))
	if err != nil || got != "OP_PUSHDATA1 0x04 0x11223344" {
		t.Errorf("DisasmVerbose = %q, %v", got, err)
	}
}

// TestPushedData ensures PushedData returns every data push, with OP_0 as
// nil.
func TestPushedData(t *testing.T) {
	t.Parallel()

	data, err := PushedData(hexToBytes("00630068520168"))
	if err != nil {
		t.Fatalf("PushedData: %v", err)
	}
	want := [][]byte{nil, nil, {0x68}}
	if !reflect.DeepEqual(data, want) {
		t.Fatalf("got %x, want %x", data, want)
	}
	if _, err := PushedData(hexToBytes("4e0010")); err == nil {
		t.Fatalf("expected error for truncated push")
	}
}
