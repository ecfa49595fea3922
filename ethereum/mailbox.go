package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/lightlink-network/zk-bridge-api/contracts"
	"github.com/lightlink-network/zk-bridge-api/types"
)

// L2TransactionRequest are the arguments of a priority operation requested through
// the main contract.
type L2TransactionRequest struct {
	ContractL2        common.Address
	L2Value           *big.Int
	Calldata          []byte
	L2GasLimit        *big.Int
	GasPerPubdataByte *big.Int
	FactoryDeps       [][]byte
	RefundRecipient   common.Address
}

// PriorityRequest is a NewPriorityRequest event of the main contract.
type PriorityRequest struct {
	TxId                *big.Int
	L2TxHash            common.Hash
	ExpirationTimestamp uint64
	L1TxHash            common.Hash
	BlockNumber         uint64
}

// Mailbox is the part of the main contract used by deposits and ETH withdrawals.
type Mailbox interface {
	L2TransactionBaseCost(ctx context.Context, mainContract common.Address, gasPrice, l2GasLimit, gasPerPubdataByte *big.Int) (*big.Int, error)
	IsEthWithdrawalFinalized(ctx context.Context, mainContract common.Address, l2BatchNumber, l2MessageIndex *big.Int) (bool, error)
	RequestL2Transaction(opts *bind.TransactOpts, mainContract common.Address, req *L2TransactionRequest) (*ethtypes.Transaction, error)
	FinalizeEthWithdrawal(opts *bind.TransactOpts, mainContract common.Address, params *types.FinalizeWithdrawalParams) (*ethtypes.Transaction, error)
	FilterNewPriorityRequest(ctx context.Context, mainContract common.Address, start, end uint64) ([]*PriorityRequest, error)
}

var _ Mailbox = &Client{}

// L2TransactionBaseCost returns the minimum value a priority operation must carry.
func (c *Client) L2TransactionBaseCost(ctx context.Context, mainContract common.Address, gasPrice, l2GasLimit, gasPerPubdataByte *big.Int) (*big.Int, error) {
	out, err := c.call(ctx, mainContract, c.registry.Mailbox, "l2TransactionBaseCost", gasPrice, l2GasLimit, gasPerPubdataByte)
	if err != nil {
		return nil, err
	}
	cost, ok := out.(*big.Int)
	if !ok {
		return nil, types.RemoteError("l2TransactionBaseCost", fmt.Errorf("unexpected output %T", out))
	}
	return cost, nil
}

func (c *Client) IsEthWithdrawalFinalized(ctx context.Context, mainContract common.Address, l2BatchNumber, l2MessageIndex *big.Int) (bool, error) {
	out, err := c.call(ctx, mainContract, c.registry.Mailbox, "isEthWithdrawalFinalized", l2BatchNumber, l2MessageIndex)
	if err != nil {
		return false, err
	}
	finalized, ok := out.(bool)
	if !ok {
		return false, types.RemoteError("isEthWithdrawalFinalized", fmt.Errorf("unexpected output %T", out))
	}
	return finalized, nil
}

func (c *Client) RequestL2Transaction(opts *bind.TransactOpts, mainContract common.Address, req *L2TransactionRequest) (*ethtypes.Transaction, error) {
	deps := req.FactoryDeps
	if deps == nil {
		deps = [][]byte{}
	}
	calldata := req.Calldata
	if calldata == nil {
		calldata = []byte{}
	}
	return c.transact(opts, mainContract, c.registry.Mailbox, "requestL2Transaction",
		req.ContractL2, req.L2Value, calldata, req.L2GasLimit, req.GasPerPubdataByte, deps, req.RefundRecipient)
}

func (c *Client) FinalizeEthWithdrawal(opts *bind.TransactOpts, mainContract common.Address, params *types.FinalizeWithdrawalParams) (*ethtypes.Transaction, error) {
	return c.transact(opts, mainContract, c.registry.Mailbox, "finalizeEthWithdrawal",
		params.L2BatchNumber, params.L2MessageIndex, params.L2TxNumberInBatch, params.Message, params.ProofArray())
}

// FilterNewPriorityRequest returns the priority operations requested in [start, end].
func (c *Client) FilterNewPriorityRequest(ctx context.Context, mainContract common.Address, start, end uint64) ([]*PriorityRequest, error) {
	logs, err := c.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(start),
		ToBlock:   new(big.Int).SetUint64(end),
		Addresses: []common.Address{mainContract},
		Topics:    [][]common.Hash{{c.registry.Mailbox.Events["NewPriorityRequest"].ID}},
	})
	if err != nil {
		return nil, types.RemoteError("eth_getLogs", err)
	}

	requests := make([]*PriorityRequest, 0, len(logs))
	for _, log := range logs {
		req, err := ParsePriorityRequest(c.registry, log)
		if err != nil {
			c.logger.Warn("Skipping malformed priority request", "tx", log.TxHash.Hex(), "error", err)
			continue
		}
		requests = append(requests, req)
	}
	return requests, nil
}

// ParsePriorityRequest decodes the head of a NewPriorityRequest log. Only the
// leading static words are read: txId, txHash and expirationTimestamp.
func ParsePriorityRequest(reg *contracts.Registry, log ethtypes.Log) (*PriorityRequest, error) {
	if len(log.Topics) == 0 || log.Topics[0] != reg.Mailbox.Events["NewPriorityRequest"].ID {
		return nil, fmt.Errorf("log %d of %s is not a NewPriorityRequest", log.Index, log.TxHash.Hex())
	}
	if len(log.Data) < 3*32 {
		return nil, types.EncodingError("NewPriorityRequest data is %d bytes", len(log.Data))
	}
	return &PriorityRequest{
		TxId:                new(big.Int).SetBytes(log.Data[:32]),
		L2TxHash:            common.BytesToHash(log.Data[32:64]),
		ExpirationTimestamp: new(big.Int).SetBytes(log.Data[64:96]).Uint64(),
		L1TxHash:            log.TxHash,
		BlockNumber:         log.BlockNumber,
	}, nil
}
