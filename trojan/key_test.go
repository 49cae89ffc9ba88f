package trojan

import "testing"

func TestNewSecretKeyValidation(t *testing.T) {
	if _, err := NewSecretKey(nil); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, err := NewSecretKey([]uint8{0, 1, 2}); err == nil {
		t.Fatal("expected error for non-binary bit value")
	}
	key, err := NewSecretKey([]uint8{1, 0, 1, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.Width() != 4 {
		t.Fatalf("expected width 4, got %d", key.Width())
	}
	if key.Ones() != 3 {
		t.Fatalf("expected 3 set bits, got %d", key.Ones())
	}
}

func TestNewSecretKeyCopiesInput(t *testing.T) {
	bits := []uint8{1, 0, 1}
	key, err := NewSecretKey(bits)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bits[0] = 0
	if key.Bit(0) != 1 {
		t.Fatal("key must not alias the caller's slice")
	}
}

func TestParseSecretKey(t *testing.T) {
	// 0x80 = 1000_0000: bit 0 is the MSB of the first byte.
	key, err := ParseSecretKey("80", 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.Bit(0) != 1 {
		t.Fatal("bit 0 should be the leading hex bit")
	}
	for i := 1; i < 8; i++ {
		if key.Bit(i) != 0 {
			t.Fatalf("bit %d should be 0", i)
		}
	}
}

func TestParseSecretKeyErrors(t *testing.T) {
	cases := []struct {
		name  string
		hex   string
		width int
	}{
		{"zero width", "deadbeef", 0},
		{"negative width", "deadbeef", -1},
		{"bad hex", "zz", 8},
		{"too short", "ab", 16},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseSecretKey(tc.hex, tc.width); err == nil {
				t.Fatalf("expected error for %q width %d", tc.hex, tc.width)
			}
		})
	}
}

func TestBitOutOfRangePanics(t *testing.T) {
	key, err := NewSecretKey([]uint8{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range bit index")
		}
	}()
	key.Bit(1)
}
