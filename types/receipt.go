package types

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// L2ToL1Log is a message log the rollup commits to L1 as part of a batch.
type L2ToL1Log struct {
	BlockNumber     *hexutil.Big   `json:"blockNumber"`
	BlockHash       common.Hash    `json:"blockHash"`
	L1BatchNumber   *hexutil.Big   `json:"l1BatchNumber"`
	TransactionIdx  *hexutil.Big   `json:"transactionIndex"`
	ShardId         *hexutil.Big   `json:"shardId"`
	IsService       bool           `json:"isService"`
	Sender          common.Address `json:"sender"`
	Key             common.Hash    `json:"key"`
	Value           common.Hash    `json:"value"`
	TransactionHash common.Hash    `json:"transactionHash"`
	LogIndex        *hexutil.Big   `json:"logIndex"`
}

// Receipt is an L2 receipt extended with the batch position and L2 -> L1 logs.
type Receipt struct {
	ethtypes.Receipt
	From           common.Address `json:"from"`
	To             common.Address `json:"to"`
	L1BatchNumber  *big.Int       `json:"l1BatchNumber"`
	L1BatchTxIndex *big.Int       `json:"l1BatchTxIndex"`
	L2ToL1Logs     []*L2ToL1Log   `json:"l2ToL1Logs"`
}

type receiptExt struct {
	From           common.Address `json:"from"`
	To             common.Address `json:"to"`
	L1BatchNumber  *hexutil.Big   `json:"l1BatchNumber"`
	L1BatchTxIndex *hexutil.Big   `json:"l1BatchTxIndex"`
	L2ToL1Logs     []*L2ToL1Log   `json:"l2ToL1Logs"`
}

// UnmarshalJSON decodes the standard receipt fields and the rollup extensions.
func (r *Receipt) UnmarshalJSON(input []byte) error {
	if err := r.Receipt.UnmarshalJSON(input); err != nil {
		return fmt.Errorf("failed to decode receipt: %w", err)
	}
	var ext receiptExt
	if err := json.Unmarshal(input, &ext); err != nil {
		return fmt.Errorf("failed to decode receipt extensions: %w", err)
	}
	r.From = ext.From
	r.To = ext.To
	r.L1BatchNumber = (*big.Int)(ext.L1BatchNumber)
	r.L1BatchTxIndex = (*big.Int)(ext.L1BatchTxIndex)
	r.L2ToL1Logs = ext.L2ToL1Logs
	return nil
}

// MarshalJSON encodes the standard receipt fields and the rollup extensions.
func (r Receipt) MarshalJSON() ([]byte, error) {
	base, err := r.Receipt.MarshalJSON()
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	ext, err := json.Marshal(receiptExt{
		From:           r.From,
		To:             r.To,
		L1BatchNumber:  (*hexutil.Big)(r.L1BatchNumber),
		L1BatchTxIndex: (*hexutil.Big)(r.L1BatchTxIndex),
		L2ToL1Logs:     r.L2ToL1Logs,
	})
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(ext, &fields); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// Succeeded reports whether the receipt has a successful status.
func (r *Receipt) Succeeded() bool {
	return r.Status == ethtypes.ReceiptStatusSuccessful
}

// LogProof is the inclusion proof of an L2 -> L1 message in a batch.
type LogProof struct {
	Id    int32         `json:"id"`
	Proof []common.Hash `json:"proof"`
	Root  common.Hash   `json:"root"`
}

// BridgeContracts are the default bridge contracts of a network. They are fetched once per
// client session and never mutated.
type BridgeContracts struct {
	L1Erc20DefaultBridge common.Address `json:"l1Erc20DefaultBridge"`
	L2Erc20DefaultBridge common.Address `json:"l2Erc20DefaultBridge"`
	L1WethBridge         common.Address `json:"l1WethBridge"`
	L2WethBridge         common.Address `json:"l2WethBridge"`
}

// Fee is a fee estimate as returned by the rollup node.
type Fee struct {
	GasLimit             *hexutil.Big `json:"gas_limit"`
	GasPerPubdataLimit   *hexutil.Big `json:"gas_per_pubdata_limit"`
	MaxFeePerGas         *hexutil.Big `json:"max_fee_per_gas"`
	MaxPriorityFeePerGas *hexutil.Big `json:"max_priority_fee_per_gas"`
}

// Token is a token bridged between L1 and L2.
type Token struct {
	L1Address common.Address `json:"l1Address"`
	L2Address common.Address `json:"l2Address"`
	Name      string         `json:"name"`
	Symbol    string         `json:"symbol"`
	Decimals  uint8          `json:"decimals"`
}
