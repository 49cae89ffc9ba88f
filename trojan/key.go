package trojan

import (
	"encoding/hex"
	"fmt"
)

// DefaultKeyWidth is the design-default secret key width in bits.
const DefaultKeyWidth = 128

// SecretKey is an immutable ordered bit sequence of fixed width. Bit 0 is
// the first bit leaked by the timing channel. The key is read-only for the
// lifetime of the encoder and safe to share across tick domains.
type SecretKey struct {
	bits  []uint8
	width int
}

// NewSecretKey builds a key from individual bit values. Every element must
// be 0 or 1 and the slice must be non-empty.
func NewSecretKey(bits []uint8) (*SecretKey, error) {
	if len(bits) == 0 {
		return nil, fmt.Errorf("secret key: width must be positive")
	}
	copied := make([]uint8, len(bits))
	for i, b := range bits {
		if b > 1 {
			return nil, fmt.Errorf("secret key: bit %d has non-binary value %d", i, b)
		}
		copied[i] = b
	}
	return &SecretKey{bits: copied, width: len(copied)}, nil
}

// ParseSecretKey decodes a hex string into a key of the given width. Bits
// are taken in reading order: bit 0 is the most significant bit of the
// first hex byte. The string must supply at least width bits.
func ParseSecretKey(s string, width int) (*SecretKey, error) {
	if width <= 0 {
		return nil, fmt.Errorf("secret key: width must be positive, got %d", width)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("secret key: invalid hex: %w", err)
	}
	if len(raw)*8 < width {
		return nil, fmt.Errorf("secret key: need %d bits, hex string supplies %d", width, len(raw)*8)
	}
	bits := make([]uint8, width)
	for i := 0; i < width; i++ {
		bits[i] = (raw[i/8] >> uint(7-i%8)) & 1
	}
	return &SecretKey{bits: bits, width: width}, nil
}

// Width returns the key width in bits.
func (k *SecretKey) Width() int {
	return k.width
}

// Bit returns the key bit at index i. The index must be in [0, Width).
func (k *SecretKey) Bit(i int) uint8 {
	if i < 0 || i >= k.width {
		panic(fmt.Sprintf("secret key: bit index %d out of range [0,%d)", i, k.width))
	}
	return k.bits[i]
}

// Ones returns the number of set bits, useful for stimulus sanity checks.
func (k *SecretKey) Ones() int {
	n := 0
	for _, b := range k.bits {
		if b == 1 {
			n++
		}
	}
	return n
}
