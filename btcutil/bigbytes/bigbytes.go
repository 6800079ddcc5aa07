// Package bigbytes has helpers for unsigned big endian integers held as
// byte slices.
package bigbytes

// TrimLeft returns b without its leading zero bytes.  The result aliases b
// and is empty when every byte is zero.
func TrimLeft(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	return b[i:]
}

// PadLeft copies b into the tail of a new slice of length size.  It returns
// false if b does not fit.
func PadLeft(b []byte, size int) ([]byte, bool) {
	if len(b) > size {
		return nil, false
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out, true
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
