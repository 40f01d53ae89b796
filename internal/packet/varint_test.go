package packet

import "testing"

func TestVarIntBoundaries(t *testing.T) {
	cases := []int{0, 127, 128, 16383, 16384, 2097151, 2097152, 268435455}
	for _, v := range cases {
		enc := appendVarInt(nil, v)
		got, n, ok, err := decodeVarInt(enc)
		if err != nil || !ok {
			t.Fatalf("decode(%d) = ok=%v err=%v", v, ok, err)
		}
		if got != v || n != len(enc) {
			t.Fatalf("round trip mismatch for %d: got=%d n=%d len=%d", v, got, n, len(enc))
		}
	}
}

func TestVarIntTooLarge(t *testing.T) {
	// 268435456 would need a 5th continuation byte; MQTT caps at 4.
	buf := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x01}
	_, _, ok, err := decodeVarInt(buf)
	if ok || err != ErrInvalidLength {
		t.Fatalf("expected ErrInvalidLength, got ok=%v err=%v", ok, err)
	}
}

func TestVarIntIncompleteIsNilError(t *testing.T) {
	buf := []byte{0x80, 0x80}
	_, _, ok, err := decodeVarInt(buf)
	if ok || err != nil {
		t.Fatalf("expected (false, nil) for truncated buffer, got ok=%v err=%v", ok, err)
	}
}

func FuzzVarInt(f *testing.F) {
	for _, v := range []int{0, 1, 127, 128, 16383, 16384, 268435455} {
		f.Add(v)
	}
	f.Fuzz(func(t *testing.T, v int) {
		if v < 0 || v > MaxRemainingLength {
			return
		}
		enc := appendVarInt(nil, v)
		if len(enc) < 1 || len(enc) > 4 {
			t.Fatalf("encoded length %d out of range for %d", len(enc), v)
		}
		got, n, ok, err := decodeVarInt(enc)
		if err != nil || !ok || got != v || n != len(enc) {
			t.Fatalf("round trip failed for %d: got=%d n=%d ok=%v err=%v", v, got, n, ok, err)
		}
	})
}
