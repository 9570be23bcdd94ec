// Package minerquery is a client library for miner fee-quote and
// transaction-submission HTTP APIs. It fans each query out over a set of
// miner endpoints concurrently, verifies the signed JSON envelopes miners
// answer with, and prices raw transactions against quoted fee rates.
package minerquery

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/rensa-labs/minerquery/internal/quotecache"
	"github.com/rensa-labs/minerquery/internal/txkit"
)

// ErrNoQuotes is returned by BestQuote when no miner produced a usable quote
// within the deadline.
var ErrNoQuotes = errors.New("no quotes received")

// ErrInvalidTx is returned when a raw transaction does not parse.
var ErrInvalidTx = errors.New("invalid raw transaction")

// DefaultTimeout bounds each fan-out resolution unless SetTimeout overrides.
const DefaultTimeout = time.Second * 30

// Client queries a fixed, ordered set of miners. Methods fan out over all of
// them and resolve on the first success or on a wait-for-all join, depending
// on the call.
type Client struct {
	miners  []*Miner
	timeout time.Duration
	cache   *quotecache.Cache
}

// NewClient creates a client over the given miners.
func NewClient(miners ...*Miner) (*Client, error) {
	if len(miners) == 0 {
		return nil, ErrNoMiners
	}
	return &Client{
		miners:  append([]*Miner(nil), miners...),
		timeout: DefaultTimeout,
	}, nil
}

// SetTimeout replaces the per-resolution deadline. NoTimeout disables it.
func (clnt *Client) SetTimeout(d time.Duration) {
	clnt.timeout = d
}

// AttachCache opens a quote cache database at dbloc and attaches it. With a
// cache attached, FeeQuote serves unexpired cached quotes without touching
// the network.
func (clnt *Client) AttachCache(dbloc string) error {
	cc, err := quotecache.Open(dbloc)
	if err != nil {
		return err
	}
	clnt.cache = cc
	return nil
}

// Miners returns the configured miner set, in dispatch order.
func (clnt *Client) Miners() []*Miner {
	return clnt.miners
}

// Close releases idle transport connections and the attached cache.
func (clnt *Client) Close() error {
	var err error
	for _, m := range clnt.miners {
		m.hclient.CloseIdleConnections()
	}
	if clnt.cache != nil {
		err = multierr.Append(err, clnt.cache.Close())
	}
	return err
}

// FeeQuote returns the fastest miner's fee quote, consulting the attached
// cache first.
func (clnt *Client) FeeQuote(ctx context.Context) (*FeeQuote, error) {
	if q := clnt.cachedQuote(); q != nil {
		return q, nil
	}
	d, err := NewDispatcher(clnt.miners, YieldFirst, clnt.timeout)
	if err != nil {
		return nil, err
	}
	d.SetOperation(clnt.feeQuoteOp)
	outs, err := d.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	quote := outs[0].Value.(*FeeQuote)
	clnt.storeQuote(quote)
	return quote, nil
}

// BestQuote collects quotes from every miner within the deadline and returns
// the one with the cheapest mining rate for feeType.
func (clnt *Client) BestQuote(ctx context.Context, feeType string) (*FeeQuote, error) {
	d, err := NewDispatcher(clnt.miners, YieldAll, clnt.timeout)
	if err != nil {
		return nil, err
	}
	d.SetOperation(clnt.feeQuoteOp)
	outs, err := d.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	var best *FeeQuote
	var bestRate FeeAmount
	for i := range outs {
		quote := outs[i].Value.(*FeeQuote)
		rate, ok := quote.Payload.MiningRate(feeType)
		if !ok {
			continue
		}
		if best == nil || rate.CheaperThan(bestRate) {
			best, bestRate = quote, rate
		}
	}
	if best == nil {
		err = ErrNoQuotes
		for _, f := range d.Failures() {
			err = multierr.Append(err, f.Err)
		}
		return nil, err
	}
	return best, nil
}

// SubmitTransaction broadcasts a raw transaction, resolving on the first
// miner that accepts it. Miners answering with a failure payload count as
// failed workers, so a later acceptance elsewhere still wins.
func (clnt *Client) SubmitTransaction(ctx context.Context, rawTx []byte) (*SubmitResult, error) {
	var tx txkit.Transaction
	if err := tx.FromBytes(rawTx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTx, err)
	}
	localID := tx.TxID()
	d, err := NewDispatcher(clnt.miners, YieldFirst, clnt.timeout)
	if err != nil {
		return nil, err
	}
	d.SetOperation(clnt.submitOp(rawTx, uuid.NewString(), true))
	outs, err := d.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	toret := outs[0].Value.(*SubmitResult)
	if toret.Payload.TxID != "" && toret.Payload.TxID != localID {
		log.Printf("client: miner %v reported txid %v, computed %v",
			toret.Miner, toret.Payload.TxID, localID)
	}
	return toret, nil
}

// SubmitTransactionToAll broadcasts a raw transaction to every miner and
// returns the per-miner answers that arrived within the deadline, rejections
// included, in dispatch order.
func (clnt *Client) SubmitTransactionToAll(ctx context.Context, rawTx []byte) ([]*SubmitResult, error) {
	var tx txkit.Transaction
	if err := tx.FromBytes(rawTx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTx, err)
	}
	d, err := NewDispatcher(clnt.miners, YieldAll, clnt.timeout)
	if err != nil {
		return nil, err
	}
	d.SetOperation(clnt.submitOp(rawTx, uuid.NewString(), false))
	outs, err := d.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	toret := make([]*SubmitResult, 0, len(outs))
	for i := range outs {
		toret = append(toret, outs[i].Value.(*SubmitResult))
	}
	return toret, nil
}

// QueryTransaction returns the fastest miner's view of a transaction's
// status.
func (clnt *Client) QueryTransaction(ctx context.Context, txid string) (*TxStatus, error) {
	d, err := NewDispatcher(clnt.miners, YieldFirst, clnt.timeout)
	if err != nil {
		return nil, err
	}
	d.SetOperation(func(ctx context.Context, m *Miner) (interface{}, error) {
		env, err := clnt.fetchEnvelope(ctx, m, http.MethodGet, "/mapi/tx/"+txid, nil, nil)
		if err != nil {
			return nil, err
		}
		toret := &TxStatus{Miner: m, Envelope: env}
		if err := json.Unmarshal([]byte(env.Payload), &toret.Payload); err != nil {
			return nil, err
		}
		return toret, nil
	})
	outs, err := d.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return outs[0].Value.(*TxStatus), nil
}

// feeQuoteOp is the per-miner unit of work for quote fan-outs.
func (clnt *Client) feeQuoteOp(ctx context.Context, m *Miner) (interface{}, error) {
	env, err := clnt.fetchEnvelope(ctx, m, http.MethodGet, "/mapi/feeQuote", nil, nil)
	if err != nil {
		return nil, err
	}
	toret := &FeeQuote{Miner: m, Envelope: env}
	if err := json.Unmarshal([]byte(env.Payload), &toret.Payload); err != nil {
		return nil, err
	}
	return toret, nil
}

// submitOp builds the per-miner unit of work for a submission. requestID is
// shared by all workers of one fan-out so miners can deduplicate. When
// rejectionFails is set, a failure payload is reported as a worker failure
// rather than a value, which lets first-success fan-outs try other miners.
func (clnt *Client) submitOp(rawTx []byte, requestID string, rejectionFails bool) Operation {
	body, _ := json.Marshal(map[string]string{
		"rawtx": hex.EncodeToString(rawTx),
	})
	extra := http.Header{}
	extra.Set("X-Request-ID", requestID)
	return func(ctx context.Context, m *Miner) (interface{}, error) {
		env, err := clnt.fetchEnvelope(ctx, m, http.MethodPost, "/mapi/tx", body, extra)
		if err != nil {
			return nil, err
		}
		toret := &SubmitResult{Miner: m, Envelope: env}
		if err := json.Unmarshal([]byte(env.Payload), &toret.Payload); err != nil {
			return nil, err
		}
		if rejectionFails && !toret.Accepted() {
			return nil, fmt.Errorf("miner %v rejected tx: %v",
				m, toret.Payload.ResultDescription)
		}
		return toret, nil
	}
}

// fetchEnvelope performs one HTTP exchange with one miner and decodes the
// response envelope, verifying its signature. A failed verification is not an
// error here; callers inspect Envelope.Verified.
func (clnt *Client) fetchEnvelope(ctx context.Context, m *Miner,
	method, epath string, body []byte, extra http.Header) (*Envelope, error) {
	u := *m.BaseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + epath
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, err
	}
	for name, vals := range m.Headers {
		for _, v := range vals {
			req.Header.Add(name, v)
		}
	}
	for name, vals := range extra {
		for _, v := range vals {
			req.Header.Add(name, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := m.hclient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("miner %v: %v", m, resp.Status)
	}
	env := new(Envelope)
	if err := json.NewDecoder(resp.Body).Decode(env); err != nil {
		return nil, err
	}
	if err := env.Verify(); err != nil {
		return nil, err
	}
	return env, nil
}

// cachedQuote returns a still-valid quote from the cache, or nil.
func (clnt *Client) cachedQuote() *FeeQuote {
	if clnt.cache == nil {
		return nil
	}
	now := time.Now()
	for _, m := range clnt.miners {
		raw, err := clnt.cache.Get(m.BaseURL.String(), now)
		if err != nil {
			continue
		}
		env := new(Envelope)
		if json.Unmarshal(raw, env) != nil {
			continue
		}
		if err := env.Verify(); err != nil {
			continue
		}
		toret := &FeeQuote{Miner: m, Envelope: env}
		if json.Unmarshal([]byte(env.Payload), &toret.Payload) != nil {
			continue
		}
		if toret.Payload.Expired(now) {
			continue
		}
		log.Printf("client: using cached quote from %v", m)
		return toret
	}
	return nil
}

// storeQuote writes a fresh quote through to the cache.
func (clnt *Client) storeQuote(quote *FeeQuote) {
	if clnt.cache == nil {
		return
	}
	expiry, err := quote.Payload.Expiry()
	if err != nil {
		return
	}
	raw, err := json.Marshal(quote.Envelope)
	if err != nil {
		return
	}
	err = clnt.cache.Put(quote.Miner.BaseURL.String(), time.Now(), expiry, raw)
	if err != nil {
		log.Println("client: failed to cache quote:", err.Error())
	}
}
