package minerquery

import (
	"errors"
	"time"

	"github.com/rensa-labs/minerquery/internal/txkit"
)

// FeeAmount is a fee rate in satoshis per bytes, as quoted by miners.
type FeeAmount = txkit.FeeAmount

// Fee type classes quoted by miners.
const (
	FeeTypeStandard = "standard"
	FeeTypeData     = "data"
)

// ErrNoSuchFee is returned when a quote does not carry a requested fee class.
var ErrNoSuchFee = errors.New("fee type not quoted")

// Fee is one fee class inside a quote. MiningFee is what the miner charges
// to mine a transaction; RelayFee is what it charges to merely relay one.
type Fee struct {
	FeeType   string    `json:"feeType"`
	MiningFee FeeAmount `json:"miningFee"`
	RelayFee  FeeAmount `json:"relayFee"`
}

// FeeQuotePayload is the decoded payload of a fee quote envelope.
type FeeQuotePayload struct {
	APIVersion                string `json:"apiVersion"`
	Timestamp                 string `json:"timestamp"`
	ExpiryTime                string `json:"expiryTime"`
	MinerID                   string `json:"minerId"`
	CurrentHighestBlockHash   string `json:"currentHighestBlockHash"`
	CurrentHighestBlockHeight uint64 `json:"currentHighestBlockHeight"`
	Fees                      []Fee  `json:"fees"`
}

// MiningRate returns the mining fee rate for a fee class.
func (p *FeeQuotePayload) MiningRate(feeType string) (FeeAmount, bool) {
	for i := range p.Fees {
		if p.Fees[i].FeeType == feeType {
			return p.Fees[i].MiningFee, true
		}
	}
	return FeeAmount{}, false
}

// Rates assembles the standard and data mining rates for fee calculation.
func (p *FeeQuotePayload) Rates() (txkit.FeeRates, error) {
	std, ok := p.MiningRate(FeeTypeStandard)
	if !ok {
		return txkit.FeeRates{}, ErrNoSuchFee
	}
	data, ok := p.MiningRate(FeeTypeData)
	if !ok {
		// miners that quote a single class charge data at the standard rate
		data = std
	}
	return txkit.FeeRates{Standard: std, Data: data}, nil
}

// Expiry parses the quote's expiry timestamp.
func (p *FeeQuotePayload) Expiry() (time.Time, error) {
	return time.Parse(time.RFC3339, p.ExpiryTime)
}

// Expired reports whether the quote is no longer valid at now. A quote with
// an unparseable expiry counts as expired.
func (p *FeeQuotePayload) Expired(now time.Time) bool {
	exp, err := p.Expiry()
	if err != nil {
		return true
	}
	return !now.Before(exp)
}

// FeeQuote is one miner's verified-or-not fee quote.
type FeeQuote struct {
	Miner    *Miner
	Envelope *Envelope
	Payload  FeeQuotePayload
}

// CalculateFee prices a raw transaction's byte layout under this quote.
func (q *FeeQuote) CalculateFee(rawTx []byte) (uint64, error) {
	rates, err := q.Payload.Rates()
	if err != nil {
		return 0, err
	}
	return txkit.CalculateFee(rates, rawTx)
}
