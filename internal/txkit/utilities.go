package txkit

import (
	"crypto/sha256"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/ripemd160"
)

// SwapBytes returns b in reversed order, as a new slice. Bitcoin APIs print
// hashes in reversed order, so this converts between wire and display order.
func SwapBytes(b []byte) []byte {
	toret := make([]byte, len(b))
	for i, v := range b {
		toret[len(b)-1-i] = v
	}
	return toret
}

// DoubleSHA256 computes sha256(sha256(b)).
func DoubleSHA256(b []byte) []byte {
	fst := sha256.Sum256(b)
	snd := sha256.Sum256(fst[:])
	return snd[:]
}

// Hash160 computes ripemd160(sha256(b)), the hash used for Bitcoin addresses
// and key fingerprints.
func Hash160(b []byte) []byte {
	fst := sha256.Sum256(b)
	h := ripemd160.New()
	h.Write(fst[:])
	return h.Sum(nil)
}

// ReadVarint reads a Bitcoin variable-length integer.
func ReadVarint(r io.Reader) (res uint64, err error) {
	var discr uint8
	err = binary.Read(r, binary.LittleEndian, &discr)
	if err != nil {
		return
	}
	switch discr {
	case 0xFF:
		err = binary.Read(r, binary.LittleEndian, &res)
		return
	case 0xFE:
		var r32 uint32
		err = binary.Read(r, binary.LittleEndian, &r32)
		res = uint64(r32)
		return
	case 0xFD:
		var r16 uint16
		err = binary.Read(r, binary.LittleEndian, &r16)
		res = uint64(r16)
		return
	default:
		res = uint64(discr)
		return
	}
}

// WriteVarint writes a 64-bit value as a Bitcoin variable-length integer.
func WriteVarint(w io.Writer, val uint64) error {
	if val < 0xFD {
		_, err := w.Write([]byte{byte(val)})
		return err
	} else if val <= 0xFFFF {
		w.Write([]byte{0xFD})
		return binary.Write(w, binary.LittleEndian, uint16(val))
	} else if val <= 0xFFFFFFFF {
		w.Write([]byte{0xFE})
		return binary.Write(w, binary.LittleEndian, uint32(val))
	}
	w.Write([]byte{0xFF})
	return binary.Write(w, binary.LittleEndian, val)
}

// VarintSize returns the number of bytes WriteVarint would emit for val.
func VarintSize(val uint64) int {
	switch {
	case val < 0xFD:
		return 1
	case val <= 0xFFFF:
		return 3
	case val <= 0xFFFFFFFF:
		return 5
	default:
		return 9
	}
}
