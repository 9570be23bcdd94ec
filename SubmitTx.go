package minerquery

// Values of the returnResult field in submit and status payloads.
const (
	ReturnResultSuccess = "success"
	ReturnResultFailure = "failure"
)

// SubmitPayload is the decoded payload of a transaction submission envelope.
type SubmitPayload struct {
	APIVersion                string `json:"apiVersion"`
	Timestamp                 string `json:"timestamp"`
	TxID                      string `json:"txid"`
	ReturnResult              string `json:"returnResult"`
	ResultDescription         string `json:"resultDescription"`
	MinerID                   string `json:"minerId"`
	CurrentHighestBlockHash   string `json:"currentHighestBlockHash"`
	CurrentHighestBlockHeight uint64 `json:"currentHighestBlockHeight"`
	TxSecondMempoolExpiry     uint32 `json:"txSecondMempoolExpiry"`
}

// SubmitResult is one miner's answer to a transaction submission.
type SubmitResult struct {
	Miner    *Miner
	Envelope *Envelope
	Payload  SubmitPayload
}

// Accepted reports whether the miner accepted the transaction.
func (sr *SubmitResult) Accepted() bool {
	return sr.Payload.ReturnResult == ReturnResultSuccess
}

// StatusPayload is the decoded payload of a transaction status envelope.
type StatusPayload struct {
	APIVersion            string `json:"apiVersion"`
	Timestamp             string `json:"timestamp"`
	ReturnResult          string `json:"returnResult"`
	ResultDescription     string `json:"resultDescription"`
	BlockHash             string `json:"blockHash"`
	BlockHeight           uint64 `json:"blockHeight"`
	Confirmations         uint64 `json:"confirmations"`
	MinerID               string `json:"minerId"`
	TxSecondMempoolExpiry uint32 `json:"txSecondMempoolExpiry"`
}

// TxStatus is one miner's answer to a transaction status query.
type TxStatus struct {
	Miner    *Miner
	Envelope *Envelope
	Payload  StatusPayload
}

// Mined reports whether the queried transaction is in a block.
func (ts *TxStatus) Mined() bool {
	return ts.Payload.BlockHash != ""
}
