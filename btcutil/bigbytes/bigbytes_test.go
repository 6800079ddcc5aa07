package bigbytes

import (
	"bytes"
	"testing"
)

func TestTrimLeft(t *testing.T) {
	tests := []struct {
		in, want []byte
	}{
		{[]byte{0, 0, 1, 0}, []byte{1, 0}},
		{[]byte{1}, []byte{1}},
		{[]byte{0, 0}, []byte{}},
		{nil, []byte{}},
	}
	for _, test := range tests {
		if got := TrimLeft(test.in); !bytes.Equal(got, test.want) {
			t.Errorf("TrimLeft(%x) = %x, want %x", test.in, got, test.want)
		}
	}
}

func TestPadLeft(t *testing.T) {
	got, ok := PadLeft([]byte{1, 2}, 4)
	if !ok || !bytes.Equal(got, []byte{0, 0, 1, 2}) {
		t.Errorf("PadLeft = %x, %v", got, ok)
	}
	if _, ok := PadLeft([]byte{1, 2, 3}, 2); ok {
		t.Errorf("PadLeft accepted an oversized value")
	}
}

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3}
	Zero(b[1:])
	if !bytes.Equal(b, []byte{1, 0, 0}) {
		t.Errorf("Zero left %x", b)
	}
}
