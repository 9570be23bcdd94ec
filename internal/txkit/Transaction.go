// Package txkit implements the minimal raw-transaction codec and the fee
// arithmetic needed to price a transaction's byte layout against miner fee
// rates. It deliberately knows nothing about scripts beyond telling
// data-carrier outputs apart from spendable ones.
package txkit

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"io"
)

// sanity cap on counts and script lengths read off the wire
const maxReasonable = 128 * 1024

// Transaction is a raw Bitcoin transaction.
type Transaction struct {
	Version  uint32
	Inputs   []TxInput
	Outputs  []TxOutput
	LockTime uint32
}

// Hash256 returns the double-SHA256 hash of the serialized transaction, in
// wire order.
func (tx *Transaction) Hash256() []byte {
	return DoubleSHA256(tx.ToBytes())
}

// TxID returns the transaction ID as hex in customary display order.
func (tx *Transaction) TxID() string {
	return hex.EncodeToString(SwapBytes(tx.Hash256()))
}

// ToBytes is a convenience function.
func (tx *Transaction) ToBytes() []byte {
	buf := new(bytes.Buffer)
	tx.Pack(buf)
	return buf.Bytes()
}

// FromBytes is a convenience function.
func (tx *Transaction) FromBytes(b []byte) error {
	return tx.Unpack(bytes.NewReader(b))
}

// Size returns the serialized length of the transaction in bytes.
func (tx *Transaction) Size() int {
	n := 8 // version + locktime
	n += VarintSize(uint64(len(tx.Inputs)))
	for i := range tx.Inputs {
		n += tx.Inputs[i].Size()
	}
	n += VarintSize(uint64(len(tx.Outputs)))
	for i := range tx.Outputs {
		n += tx.Outputs[i].Size()
	}
	return n
}

// Pack serializes a transaction.
func (tx *Transaction) Pack(out io.Writer) error {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, tx.Version)
	WriteVarint(buf, uint64(len(tx.Inputs)))
	for i := range tx.Inputs {
		tx.Inputs[i].Pack(buf)
	}
	WriteVarint(buf, uint64(len(tx.Outputs)))
	for i := range tx.Outputs {
		tx.Outputs[i].Pack(buf)
	}
	binary.Write(buf, binary.LittleEndian, tx.LockTime)
	_, err := io.Copy(out, buf)
	return err
}

// Unpack deserializes a transaction.
func (tx *Transaction) Unpack(in io.Reader) error {
	err := binary.Read(in, binary.LittleEndian, &tx.Version)
	if err != nil {
		return err
	}
	numin, err := ReadVarint(in)
	if err != nil {
		return err
	}
	if numin > maxReasonable {
		return errors.New("unreasonable input count")
	}
	tx.Inputs = make([]TxInput, numin)
	for i := range tx.Inputs {
		if err = tx.Inputs[i].Unpack(in); err != nil {
			return err
		}
	}
	numout, err := ReadVarint(in)
	if err != nil {
		return err
	}
	if numout > maxReasonable {
		return errors.New("unreasonable output count")
	}
	tx.Outputs = make([]TxOutput, numout)
	for i := range tx.Outputs {
		if err = tx.Outputs[i].Unpack(in); err != nil {
			return err
		}
	}
	return binary.Read(in, binary.LittleEndian, &tx.LockTime)
}

// TxInput is an input to a transaction.
type TxInput struct {
	PrevHash []byte
	PrevIdx  uint32
	Script   []byte
	Seqno    uint32
}

// Size returns the serialized length of the input in bytes.
func (txi *TxInput) Size() int {
	return 32 + 4 + VarintSize(uint64(len(txi.Script))) + len(txi.Script) + 4
}

// Pack packs a transaction input.
func (txi *TxInput) Pack(out io.Writer) error {
	buf := new(bytes.Buffer)
	buf.Write(txi.PrevHash)
	binary.Write(buf, binary.LittleEndian, txi.PrevIdx)
	WriteVarint(buf, uint64(len(txi.Script)))
	buf.Write(txi.Script)
	binary.Write(buf, binary.LittleEndian, txi.Seqno)
	_, err := io.Copy(out, buf)
	return err
}

// Unpack unpacks a transaction input.
func (txi *TxInput) Unpack(in io.Reader) error {
	txi.PrevHash = make([]byte, 32)
	_, err := io.ReadFull(in, txi.PrevHash)
	if err != nil {
		return err
	}
	err = binary.Read(in, binary.LittleEndian, &txi.PrevIdx)
	if err != nil {
		return err
	}
	scrlen, err := ReadVarint(in)
	if err != nil {
		return err
	}
	if scrlen > maxReasonable {
		return errors.New("unreasonable script length")
	}
	txi.Script = make([]byte, scrlen)
	if _, err = io.ReadFull(in, txi.Script); err != nil {
		return err
	}
	return binary.Read(in, binary.LittleEndian, &txi.Seqno)
}

// TxOutput is an output of a transaction.
type TxOutput struct {
	Value  uint64
	Script []byte
}

// Size returns the serialized length of the output in bytes.
func (txo *TxOutput) Size() int {
	return 8 + VarintSize(uint64(len(txo.Script))) + len(txo.Script)
}

// Pack packs a transaction output.
func (txo *TxOutput) Pack(out io.Writer) error {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, txo.Value)
	WriteVarint(buf, uint64(len(txo.Script)))
	buf.Write(txo.Script)
	_, err := io.Copy(out, buf)
	return err
}

// Unpack unpacks a transaction output.
func (txo *TxOutput) Unpack(in io.Reader) error {
	err := binary.Read(in, binary.LittleEndian, &txo.Value)
	if err != nil {
		return err
	}
	scrlen, err := ReadVarint(in)
	if err != nil {
		return err
	}
	if scrlen > maxReasonable {
		return errors.New("unreasonable script length")
	}
	txo.Script = make([]byte, scrlen)
	_, err = io.ReadFull(in, txo.Script)
	return err
}
