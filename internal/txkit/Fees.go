package txkit

import (
	"errors"
)

// Bitcoin script opcodes relevant to output classification.
const (
	opFalse  = 0x00
	opReturn = 0x6a
)

// ErrZeroRateBytes is returned when a fee rate has a zero byte divisor.
var ErrZeroRateBytes = errors.New("fee rate with zero bytes")

// FeeAmount is a fee rate expressed as satoshis per a number of bytes.
type FeeAmount struct {
	Satoshis uint64 `json:"satoshis"`
	Bytes    uint64 `json:"bytes"`
}

// CheaperThan reports whether a is a strictly lower rate than b, comparing
// by cross-multiplication to avoid rounding.
func (a FeeAmount) CheaperThan(b FeeAmount) bool {
	return a.Satoshis*b.Bytes < b.Satoshis*a.Bytes
}

// FeeRates holds the two rate classes miners quote.
type FeeRates struct {
	Standard FeeAmount
	Data     FeeAmount
}

// ScriptClass is a coarse classification of an output script.
type ScriptClass int

const (
	// ClassStandard marks a spendable output, charged at the standard rate.
	ClassStandard ScriptClass = iota
	// ClassData marks a provably unspendable data carrier output.
	ClassData
)

// ClassifyScript classifies an output script. A script beginning with
// OP_RETURN, or OP_FALSE OP_RETURN, carries data and cannot be spent.
func ClassifyScript(script []byte) ScriptClass {
	if len(script) > 0 && script[0] == opReturn {
		return ClassData
	}
	if len(script) > 1 && script[0] == opFalse && script[1] == opReturn {
		return ClassData
	}
	return ClassStandard
}

// SplitSizes divides the serialized size of tx into bytes charged at the
// standard rate and bytes charged at the data rate. Data-carrier outputs are
// charged entirely (value and length prefix included) at the data rate;
// everything else, including the fixed fields and all inputs, is standard.
func SplitSizes(tx *Transaction) (std, data int) {
	for i := range tx.Outputs {
		if ClassifyScript(tx.Outputs[i].Script) == ClassData {
			data += tx.Outputs[i].Size()
		}
	}
	std = tx.Size() - data
	return
}

// CalculateFee returns the fee in satoshis that rawTx owes under rates. Each
// rate class is applied to its byte total as satoshis*bytes/perBytes with the
// result truncated to an integer, matching how miners evaluate submissions.
func CalculateFee(rates FeeRates, rawTx []byte) (uint64, error) {
	if rates.Standard.Bytes == 0 || rates.Data.Bytes == 0 {
		return 0, ErrZeroRateBytes
	}
	var tx Transaction
	if err := tx.FromBytes(rawTx); err != nil {
		return 0, err
	}
	std, data := SplitSizes(&tx)
	fee := uint64(std) * rates.Standard.Satoshis / rates.Standard.Bytes
	fee += uint64(data) * rates.Data.Satoshis / rates.Data.Bytes
	return fee, nil
}
