package models

import "time"

const (
	TypeDeposit    = "deposit"
	TypeWithdrawal = "withdrawal"
)

// Transaction represents either a deposit or withdrawal tracked through its state machine.
// TxHash is the hash on the origin chain: the L1 request for a deposit, the L2
// transaction for a withdrawal. A withdrawal sending several L1 messages is
// tracked once per message.
type Transaction struct {
	Type         string `json:"type" bson:"type"` // "deposit" or "withdrawal"
	ERC20        bool   `json:"erc20" bson:"erc20"`
	From         string `json:"from,omitempty" bson:"from,omitempty"`
	To           string `json:"to,omitempty" bson:"to,omitempty"`
	Value        string `json:"value,omitempty" bson:"value,omitempty"`
	L1Token      string `json:"l1_token,omitempty" bson:"l1_token,omitempty"`
	Sender       string `json:"sender,omitempty" bson:"sender,omitempty"` // L2 contract that sent the L1 message
	TxHash       string `json:"tx_hash" bson:"tx_hash"`
	MessageIndex int    `json:"message_index" bson:"message_index"`
	L2TxHash     string `json:"l2_tx_hash,omitempty" bson:"l2_tx_hash,omitempty"` // priority operation of a deposit
	BlockNumber  uint64 `json:"block_number" bson:"block_number"`
	BlockHash    string `json:"block_hash,omitempty" bson:"block_hash,omitempty"`
	BlockTime    uint64 `json:"block_time" bson:"block_time"`
	Status       string `json:"status" bson:"status"`

	Proof      *WithdrawalProof     `json:"proof,omitempty" bson:"proof,omitempty"`
	FinalizeTx *WithdrawalFinalized `json:"finalize_tx,omitempty" bson:"finalize_tx,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
