package zksync

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/lightlink-network/zk-bridge-api/types"
	"github.com/lightlink-network/zk-bridge-api/utils"
)

// Eth is the subset of the eth namespace used against the rollup node. Receipt and
// transaction lookups return ethereum.NotFound, unwrapped, while the node does not
// know the transaction yet.
type Eth interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FinalizedBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	EstimateGas(ctx context.Context, msg types.CallMsg) (uint64, error)
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	TransactionInput(ctx context.Context, txHash common.Hash) ([]byte, error)
	FilterL1MessageSent(ctx context.Context, start, end uint64) ([]ethtypes.Log, error)
}

var _ Eth = &Client{}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	num, err := c.client.BlockNumber(ctx)
	if err != nil {
		return 0, types.RemoteError("eth_blockNumber", err)
	}
	return num, nil
}

type blockHead struct {
	Number    hexutil.Uint64 `json:"number"`
	Timestamp hexutil.Uint64 `json:"timestamp"`
}

// FinalizedBlockNumber returns the number of the latest block whose batch is executed on L1.
func (c *Client) FinalizedBlockNumber(ctx context.Context) (uint64, error) {
	var head *blockHead
	if err := c.rpc.CallContext(ctx, &head, "eth_getBlockByNumber", rpc.FinalizedBlockNumber.String(), false); err != nil {
		return 0, types.RemoteError("eth_getBlockByNumber", err)
	}
	if head == nil {
		return 0, types.RemoteError("eth_getBlockByNumber", errors.New("no finalized block"))
	}
	return uint64(head.Number), nil
}

// BlockTimestamp reads only the timestamp of a block, without decoding the full header.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	var head *blockHead
	if err := c.rpc.CallContext(ctx, &head, "eth_getBlockByNumber", hexutil.EncodeUint64(number), false); err != nil {
		return 0, types.RemoteError("eth_getBlockByNumber", err)
	}
	if head == nil {
		return 0, ethereum.NotFound
	}
	return uint64(head.Timestamp), nil
}

func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	nonce, err := c.client.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, types.RemoteError("eth_getTransactionCount", err)
	}
	return nonce, nil
}

func (c *Client) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	balance, err := c.client.BalanceAt(ctx, account, blockNumber)
	if err != nil {
		return nil, types.RemoteError("eth_getBalance", err)
	}
	return balance, nil
}

func (c *Client) EstimateGas(ctx context.Context, msg types.CallMsg) (uint64, error) {
	var gas hexutil.Uint64
	if err := c.rpc.CallContext(ctx, &gas, "eth_estimateGas", msg); err != nil {
		return 0, types.RemoteError("eth_estimateGas", err)
	}
	return uint64(gas), nil
}

func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var hash common.Hash
	if err := c.rpc.CallContext(ctx, &hash, "eth_sendRawTransaction", hexutil.Bytes(raw)); err != nil {
		return common.Hash{}, types.RemoteError("eth_sendRawTransaction", err)
	}
	return hash, nil
}

func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	if err := c.rpc.CallContext(ctx, &receipt, "eth_getTransactionReceipt", txHash); err != nil {
		return nil, types.RemoteError("eth_getTransactionReceipt", err)
	}
	if receipt == nil {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

// TransactionInput returns the calldata of a transaction.
func (c *Client) TransactionInput(ctx context.Context, txHash common.Hash) ([]byte, error) {
	var tx *struct {
		Input hexutil.Bytes `json:"input"`
	}
	if err := c.rpc.CallContext(ctx, &tx, "eth_getTransactionByHash", txHash); err != nil {
		return nil, types.RemoteError("eth_getTransactionByHash", err)
	}
	if tx == nil {
		return nil, ethereum.NotFound
	}
	return tx.Input, nil
}

// FilterL1MessageSent returns the L1MessageSent logs of the messenger in [start, end].
func (c *Client) FilterL1MessageSent(ctx context.Context, start, end uint64) ([]ethtypes.Log, error) {
	logs, err := c.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(start),
		ToBlock:   new(big.Int).SetUint64(end),
		Addresses: []common.Address{utils.L1MessengerAddress},
		Topics:    [][]common.Hash{{c.registry.L1Messenger.Events["L1MessageSent"].ID}},
	})
	if err != nil {
		return nil, types.RemoteError("eth_getLogs", err)
	}
	return logs, nil
}
