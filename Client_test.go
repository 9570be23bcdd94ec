package minerquery

import (
	"bytes"
	"context"
	"encoding/hex"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rensa-labs/minerquery/internal/txkit"
)

// startMockMiner serves a MockMiner over httptest and returns a Miner
// pointing at it.
func startMockMiner(t *testing.T) (*MockMiner, *Miner) {
	mm := NewMockMiner(time.Hour)
	srv := httptest.NewServer(mm)
	t.Cleanup(func() {
		srv.Close()
		mm.Stop()
	})
	m, err := NewMiner(srv.URL, nil)
	require.NoError(t, err)
	return mm, m
}

func sampleRawTx() []byte {
	p2pkh, _ := hex.DecodeString("76a91429d6a3540acfa0a950bef2bfdc75cd51c24390fd88ac")
	tx := txkit.Transaction{
		Version: 1,
		Inputs: []txkit.TxInput{
			{
				PrevHash: make([]byte, 32),
				Script:   bytes.Repeat([]byte{0xbb}, 107),
				Seqno:    0xffffffff,
			},
		},
		Outputs: []txkit.TxOutput{
			{Value: 1000, Script: p2pkh},
			{Value: 0, Script: append([]byte{0x00, 0x6a}, []byte("hello")...)},
		},
	}
	return tx.ToBytes()
}

func TestClientFeeQuote(t *testing.T) {
	_, m := startMockMiner(t)
	clnt, err := NewClient(m)
	require.NoError(t, err)
	defer clnt.Close()

	quote, err := clnt.FeeQuote(context.Background())
	require.NoError(t, err)
	assert.True(t, quote.Envelope.Verified)
	assert.Len(t, quote.Envelope.KeyFingerprint(), 40)
	rate, ok := quote.Payload.MiningRate(FeeTypeStandard)
	require.True(t, ok)
	assert.Equal(t, FeeAmount{Satoshis: 500, Bytes: 1000}, rate)
	assert.False(t, quote.Payload.Expired(time.Now()))

	fee, err := quote.CalculateFee(sampleRawTx())
	require.NoError(t, err)
	assert.NotZero(t, fee)
}

func TestClientFeeQuoteCached(t *testing.T) {
	mm, m := startMockMiner(t)
	f, err := os.CreateTemp(t.TempDir(), "quotes-*.db")
	require.NoError(t, err)
	f.Close()

	clnt, err := NewClient(m)
	require.NoError(t, err)
	require.NoError(t, clnt.AttachCache(f.Name()))
	defer clnt.Close()

	first, err := clnt.FeeQuote(context.Background())
	require.NoError(t, err)

	// with the miner down, the cached quote still serves
	mm.SetFailing(true)
	second, err := clnt.FeeQuote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Payload.ExpiryTime, second.Payload.ExpiryTime)
	assert.True(t, second.Envelope.Verified)
}

func TestClientBestQuote(t *testing.T) {
	_, m1 := startMockMiner(t)
	mm2, m2 := startMockMiner(t)
	mm2.SetRates(txkit.FeeRates{
		Standard: txkit.FeeAmount{Satoshis: 100, Bytes: 1000},
		Data:     txkit.FeeAmount{Satoshis: 100, Bytes: 1000},
	})
	clnt, err := NewClient(m1, m2)
	require.NoError(t, err)
	defer clnt.Close()

	best, err := clnt.BestQuote(context.Background(), FeeTypeStandard)
	require.NoError(t, err)
	assert.Same(t, m2, best.Miner)
}

func TestClientBestQuoteAllDown(t *testing.T) {
	mm1, m1 := startMockMiner(t)
	mm2, m2 := startMockMiner(t)
	mm1.SetFailing(true)
	mm2.SetFailing(true)
	clnt, err := NewClient(m1, m2)
	require.NoError(t, err)
	clnt.SetTimeout(time.Second * 2)
	defer clnt.Close()

	_, err = clnt.BestQuote(context.Background(), FeeTypeStandard)
	assert.ErrorIs(t, err, ErrNoQuotes)
}

func TestClientSubmitAndQuery(t *testing.T) {
	_, m := startMockMiner(t)
	clnt, err := NewClient(m)
	require.NoError(t, err)
	defer clnt.Close()

	rawTx := sampleRawTx()
	var tx txkit.Transaction
	require.NoError(t, tx.FromBytes(rawTx))

	res, err := clnt.SubmitTransaction(context.Background(), rawTx)
	require.NoError(t, err)
	assert.True(t, res.Accepted())
	assert.Equal(t, tx.TxID(), res.Payload.TxID)
	assert.True(t, res.Envelope.Verified)

	status, err := clnt.QueryTransaction(context.Background(), tx.TxID())
	require.NoError(t, err)
	assert.Equal(t, ReturnResultSuccess, status.Payload.ReturnResult)
	assert.False(t, status.Mined())
}

func TestClientSubmitGarbage(t *testing.T) {
	_, m := startMockMiner(t)
	clnt, err := NewClient(m)
	require.NoError(t, err)
	defer clnt.Close()

	_, err = clnt.SubmitTransaction(context.Background(), []byte{0xde, 0xad})
	assert.ErrorIs(t, err, ErrInvalidTx)
}

func TestClientSubmitFallsThroughToHealthyMiner(t *testing.T) {
	mm1, m1 := startMockMiner(t)
	_, m2 := startMockMiner(t)
	mm1.SetFailing(true)
	clnt, err := NewClient(m1, m2)
	require.NoError(t, err)
	defer clnt.Close()

	res, err := clnt.SubmitTransaction(context.Background(), sampleRawTx())
	require.NoError(t, err)
	assert.Same(t, m2, res.Miner)
}

func TestClientSubmitToAll(t *testing.T) {
	_, m1 := startMockMiner(t)
	_, m2 := startMockMiner(t)
	clnt, err := NewClient(m1, m2)
	require.NoError(t, err)
	defer clnt.Close()

	results, err := clnt.SubmitTransactionToAll(context.Background(), sampleRawTx())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Same(t, m1, results[0].Miner)
	assert.Same(t, m2, results[1].Miner)
	for _, res := range results {
		assert.True(t, res.Accepted())
	}
}

func TestClientNoMiners(t *testing.T) {
	_, err := NewClient()
	assert.ErrorIs(t, err, ErrNoMiners)
}
