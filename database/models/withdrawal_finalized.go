package models

// WithdrawalFinalized records when a withdrawal was observed finalized on L1.
type WithdrawalFinalized struct {
	TxHash       string `json:"tx_hash" bson:"tx_hash"`
	MessageIndex int    `json:"message_index" bson:"message_index"`
	BlockNumber  uint64 `json:"block_number" bson:"block_number"` // L1 block of the observation
	Timestamp    uint64 `json:"timestamp" bson:"timestamp"`
}
