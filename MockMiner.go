package minerquery

import (
	"crypto/ed25519"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"path"
	"sync"
	"time"

	"gopkg.in/tomb.v2"

	"github.com/rensa-labs/minerquery/internal/txkit"
)

// MockMiner is a fake, local, sorta-valid miner endpoint. It serves signed
// fee quotes, accepts transaction submissions into a mempool, and "mines" the
// mempool into pretend blocks on an interval with no proof-of-work. Tests and
// the mock daemon use it in place of real miners; latency and failure
// injection make dispatcher races reproducible.
type MockMiner struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
	smux *http.ServeMux

	lk       sync.RWMutex
	rates    txkit.FeeRates
	validity time.Duration
	latency  time.Duration
	failing  bool
	height   uint64
	tiphash  []byte
	mempool  []string
	mined    map[string]uint64 // txid -> height mined at

	death tomb.Tomb
}

// NewMockMiner creates a mock miner with a fresh signing key, mining every
// interval.
func NewMockMiner(interval time.Duration) *MockMiner {
	pub, priv, err := ed25519.GenerateKey(crand.Reader)
	if err != nil {
		panic(err)
	}
	toret := &MockMiner{
		priv: priv,
		pub:  pub,
		smux: http.NewServeMux(),
		rates: txkit.FeeRates{
			Standard: txkit.FeeAmount{Satoshis: 500, Bytes: 1000},
			Data:     txkit.FeeAmount{Satoshis: 250, Bytes: 1000},
		},
		validity: time.Minute * 10,
		tiphash:  make([]byte, 32),
		mined:    make(map[string]uint64),
	}
	toret.smux.HandleFunc("/mapi/feeQuote", toret.handFeeQuote)
	toret.smux.HandleFunc("/mapi/tx", toret.handSubmit)
	toret.smux.HandleFunc("/mapi/tx/", toret.handStatus)
	toret.death.Go(func() error { return toret.bkgRoutine(interval) })
	return toret
}

// background routine for the MockMiner: mines the mempool into a new block
// every interval
func (mm *MockMiner) bkgRoutine(interval time.Duration) error {
	for cnt := 0; ; cnt++ {
		select {
		case <-mm.death.Dying():
			return mm.death.Err()
		case <-time.After(interval):
			mm.lk.Lock()
			mm.height++
			binary.LittleEndian.PutUint64(mm.tiphash, mm.height)
			mm.tiphash = txkit.DoubleSHA256(mm.tiphash)
			for _, txid := range mm.mempool {
				mm.mined[txid] = mm.height
			}
			mm.mempool = nil
			mm.lk.Unlock()
		}
	}
}

// Stop kills the mining routine and waits for it to exit.
func (mm *MockMiner) Stop() {
	mm.death.Kill(nil)
	mm.death.Wait()
}

// SetLatency makes every response wait for d first.
func (mm *MockMiner) SetLatency(d time.Duration) {
	mm.lk.Lock()
	mm.latency = d
	mm.lk.Unlock()
}

// SetFailing makes every request answer 500 while set.
func (mm *MockMiner) SetFailing(failing bool) {
	mm.lk.Lock()
	mm.failing = failing
	mm.lk.Unlock()
}

// SetRates replaces the quoted fee rates.
func (mm *MockMiner) SetRates(rates txkit.FeeRates) {
	mm.lk.Lock()
	mm.rates = rates
	mm.lk.Unlock()
}

// PublicKeyHex returns the miner's signing key in the form quotes carry it.
func (mm *MockMiner) PublicKeyHex() string {
	return hex.EncodeToString(mm.pub)
}

// ServeHTTP implements the http.Handler interface.
func (mm *MockMiner) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mm.lk.RLock()
	latency, failing := mm.latency, mm.failing
	mm.lk.RUnlock()
	if latency > 0 {
		time.Sleep(latency)
	}
	if failing {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	mm.smux.ServeHTTP(w, r)
}

// writeEnvelope signs payload with the miner key and writes it wrapped in a
// JSON envelope.
func (mm *MockMiner) writeEnvelope(w http.ResponseWriter, payload interface{}) {
	bts, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	// the signature covers sha256 of the exact payload string
	hash := sha256.Sum256(bts)
	sig := hex.EncodeToString(ed25519.Sign(mm.priv, hash[:]))
	pk := mm.PublicKeyHex()
	env := Envelope{
		Payload:   string(bts),
		Signature: &sig,
		PublicKey: &pk,
		Encoding:  "UTF-8",
		MimeType:  "application/json",
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(&env); err != nil {
		log.Println("mockminer: failed writing envelope:", err.Error())
	}
}

func (mm *MockMiner) handFeeQuote(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	mm.lk.RLock()
	defer mm.lk.RUnlock()
	now := time.Now().UTC()
	mm.writeEnvelope(w, &FeeQuotePayload{
		APIVersion:                "0.1.0",
		Timestamp:                 now.Format(time.RFC3339),
		ExpiryTime:                now.Add(mm.validity).Format(time.RFC3339),
		MinerID:                   mm.PublicKeyHex(),
		CurrentHighestBlockHash:   hex.EncodeToString(mm.tiphash),
		CurrentHighestBlockHeight: mm.height,
		Fees: []Fee{
			{FeeType: FeeTypeStandard, MiningFee: mm.rates.Standard, RelayFee: mm.rates.Standard},
			{FeeType: FeeTypeData, MiningFee: mm.rates.Data, RelayFee: mm.rates.Data},
		},
	})
}

func (mm *MockMiner) handSubmit(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		RawTx string `json:"rawtx"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	mm.lk.Lock()
	defer mm.lk.Unlock()
	now := time.Now().UTC().Format(time.RFC3339)
	toret := SubmitPayload{
		APIVersion:                "0.1.0",
		Timestamp:                 now,
		MinerID:                   mm.PublicKeyHex(),
		CurrentHighestBlockHash:   hex.EncodeToString(mm.tiphash),
		CurrentHighestBlockHeight: mm.height,
		TxSecondMempoolExpiry:     86400,
	}
	rawtx, err := hex.DecodeString(req.RawTx)
	var tx txkit.Transaction
	if err == nil {
		err = tx.FromBytes(rawtx)
	}
	if err != nil {
		toret.ReturnResult = ReturnResultFailure
		toret.ResultDescription = "transaction does not parse"
		mm.writeEnvelope(w, &toret)
		return
	}
	toret.ReturnResult = ReturnResultSuccess
	toret.TxID = tx.TxID()
	if _, known := mm.mined[toret.TxID]; !known {
		mm.mempool = append(mm.mempool, toret.TxID)
	}
	mm.writeEnvelope(w, &toret)
}

func (mm *MockMiner) handStatus(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	txid := path.Base(r.URL.Path)
	mm.lk.RLock()
	defer mm.lk.RUnlock()
	toret := StatusPayload{
		APIVersion:            "0.1.0",
		Timestamp:             time.Now().UTC().Format(time.RFC3339),
		MinerID:               mm.PublicKeyHex(),
		TxSecondMempoolExpiry: 86400,
	}
	minedAt, ok := mm.mined[txid]
	switch {
	case ok:
		toret.ReturnResult = ReturnResultSuccess
		tip := make([]byte, 32)
		binary.LittleEndian.PutUint64(tip, minedAt)
		toret.BlockHash = hex.EncodeToString(txkit.DoubleSHA256(tip))
		toret.BlockHeight = minedAt
		toret.Confirmations = mm.height - minedAt + 1
	case mm.inMempool(txid):
		toret.ReturnResult = ReturnResultSuccess
	default:
		toret.ReturnResult = ReturnResultFailure
		toret.ResultDescription = "unknown transaction"
	}
	mm.writeEnvelope(w, &toret)
}

func (mm *MockMiner) inMempool(txid string) bool {
	for _, id := range mm.mempool {
		if id == txid {
			return true
		}
	}
	return false
}
