package txkit

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func feeTestTx() *Transaction {
	p2pkh, _ := hex.DecodeString("76a91429d6a3540acfa0a950bef2bfdc75cd51c24390fd88ac")
	data := append([]byte{0x00, 0x6a}, bytes.Repeat([]byte{0xaa}, 100)...)
	return &Transaction{
		Version: 1,
		Inputs: []TxInput{
			{
				PrevHash: make([]byte, 32),
				Script:   bytes.Repeat([]byte{0xbb}, 107),
				Seqno:    0xffffffff,
			},
		},
		Outputs: []TxOutput{
			{Value: 1000, Script: p2pkh},
			{Value: 0, Script: data},
		},
	}
}

func TestSplitSizes(t *testing.T) {
	tx := feeTestTx()
	std, data := SplitSizes(tx)
	if std+data != tx.Size() {
		t.Errorf("split %v+%v does not cover %v total", std, data, tx.Size())
	}
	// data output: 8 value + 1 varint + 102 script
	if data != 111 {
		t.Errorf("data bytes = %v, want 111", data)
	}
}

func TestCalculateFee(t *testing.T) {
	tx := feeTestTx()
	rates := FeeRates{
		Standard: FeeAmount{Satoshis: 500, Bytes: 1000},
		Data:     FeeAmount{Satoshis: 250, Bytes: 1000},
	}
	std, data := SplitSizes(tx)
	want := uint64(std)*500/1000 + uint64(data)*250/1000
	got, err := CalculateFee(rates, tx.ToBytes())
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("fee = %v, want %v", got, want)
	}
}

func TestCalculateFeeZeroRate(t *testing.T) {
	_, err := CalculateFee(FeeRates{}, feeTestTx().ToBytes())
	if err != ErrZeroRateBytes {
		t.Errorf("wanted ErrZeroRateBytes, got %v", err)
	}
}

func TestCalculateFeeGarbage(t *testing.T) {
	rates := FeeRates{
		Standard: FeeAmount{Satoshis: 500, Bytes: 1000},
		Data:     FeeAmount{Satoshis: 250, Bytes: 1000},
	}
	if _, err := CalculateFee(rates, []byte{0xde, 0xad}); err == nil {
		t.Error("garbage tx must not price successfully")
	}
}

func TestClassifyScript(t *testing.T) {
	cases := []struct {
		script []byte
		want   ScriptClass
	}{
		{[]byte{0x6a, 0x01, 0x02}, ClassData},
		{[]byte{0x00, 0x6a, 0x01}, ClassData},
		{[]byte{0x76, 0xa9}, ClassStandard},
		{nil, ClassStandard},
		{[]byte{0x00}, ClassStandard},
	}
	for i, c := range cases {
		if got := ClassifyScript(c.script); got != c.want {
			t.Errorf("case %v: got %v, want %v", i, got, c.want)
		}
	}
}

func TestCheaperThan(t *testing.T) {
	a := FeeAmount{Satoshis: 250, Bytes: 1000}
	b := FeeAmount{Satoshis: 500, Bytes: 1000}
	c := FeeAmount{Satoshis: 1, Bytes: 2} // same rate as b
	if !a.CheaperThan(b) || b.CheaperThan(a) {
		t.Error("250/1000 must be cheaper than 500/1000")
	}
	if b.CheaperThan(c) || c.CheaperThan(b) {
		t.Error("equal rates must not be strictly cheaper either way")
	}
}
