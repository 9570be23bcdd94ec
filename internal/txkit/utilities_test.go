package txkit

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestVarintRoundtrip(t *testing.T) {
	vals := []uint64{0, 1, 0xFC, 0xFD, 0xFFFF, 0x10000, 0xFFFFFFFF, 0x100000000}
	for _, v := range vals {
		buf := new(bytes.Buffer)
		if err := WriteVarint(buf, v); err != nil {
			t.Fatal(err)
		}
		if buf.Len() != VarintSize(v) {
			t.Errorf("VarintSize(%v) = %v, wrote %v", v, VarintSize(v), buf.Len())
		}
		got, err := ReadVarint(buf)
		if err != nil {
			t.Fatal(err)
		}
		if got != v {
			t.Errorf("roundtrip %v came back as %v", v, got)
		}
	}
}

func TestSwapBytes(t *testing.T) {
	orig := []byte{1, 2, 3, 4}
	swapped := SwapBytes(orig)
	if !bytes.Equal(swapped, []byte{4, 3, 2, 1}) {
		t.Error("bad swap")
	}
	if !bytes.Equal(orig, []byte{1, 2, 3, 4}) {
		t.Error("SwapBytes must not mutate its argument")
	}
}

func TestHash160(t *testing.T) {
	// hash160 of the empty string
	want := "b472a266d0bd89c13706a4132ccfb16f7c3b9fcb"
	if hex.EncodeToString(Hash160(nil)) != want {
		t.Error("bad hash160")
	}
}
