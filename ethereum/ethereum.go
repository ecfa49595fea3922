// Package ethereum is the L1 side of the bridge: the rollup main contract, the
// default ERC-20 bridge and plain transaction plumbing.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lightlink-network/zk-bridge-api/contracts"
	"github.com/lightlink-network/zk-bridge-api/types"
	"github.com/lightlink-network/zk-bridge-api/utils"
)

const defaultTokenCacheSize = 1024

type tokenKey struct {
	bridge common.Address
	token  common.Address
}

type Client struct {
	client   *ethclient.Client
	chainId  *big.Int
	registry *contracts.Registry
	l2Tokens *lru.Cache[tokenKey, common.Address]
	logger   *slog.Logger
	Opts     *ClientOpts
}

type ClientOpts struct {
	Endpoint string

	// Expected contracts. When set, the client warns if no code is deployed there.
	MainContractAddress  common.Address
	L1Erc20BridgeAddress common.Address

	Registry       *contracts.Registry
	Logger         *slog.Logger
	Timeout        time.Duration
	TokenCacheSize int
}

// NewClient dials the L1 node at opts.Endpoint.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	rpcClient, err := rpc.DialContext(ctx, opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum: %w", err)
	}
	return NewClientWithRPC(rpcClient, opts)
}

// NewClientWithRPC builds a client over an existing RPC connection.
func NewClientWithRPC(rpcClient *rpc.Client, opts ClientOpts) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.TokenCacheSize <= 0 {
		opts.TokenCacheSize = defaultTokenCacheSize
	}
	if opts.Registry == nil {
		reg, err := contracts.NewRegistry()
		if err != nil {
			return nil, err
		}
		opts.Registry = reg
	}

	client := ethclient.NewClient(rpcClient)

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()
	chainId, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chainId: %w", err)
	}

	l2Tokens, err := lru.New[tokenKey, common.Address](opts.TokenCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create token cache: %w", err)
	}

	opts.Logger.Info("Connected to Ethereum", "chainId", chainId)

	// Warn user if the contracts are not found at the given addresses.
	if opts.MainContractAddress != (common.Address{}) {
		if ok, _ := utils.IsContract(client, opts.MainContractAddress); !ok {
			opts.Logger.Warn("contract not found for main contract at given Address", "address", opts.MainContractAddress.Hex(), "endpoint", opts.Endpoint)
		}
	}
	if opts.L1Erc20BridgeAddress != (common.Address{}) {
		if ok, _ := utils.IsContract(client, opts.L1Erc20BridgeAddress); !ok {
			opts.Logger.Warn("contract not found for L1 ERC20 bridge at given Address", "address", opts.L1Erc20BridgeAddress.Hex(), "endpoint", opts.Endpoint)
		}
	}

	return &Client{
		client:   client,
		chainId:  chainId,
		registry: opts.Registry,
		l2Tokens: l2Tokens,
		logger:   opts.Logger.With("component", "ethereum"),
		Opts:     &opts,
	}, nil
}

func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainId)
}

func (c *Client) Registry() *contracts.Registry {
	return c.registry
}

func (c *Client) Close() {
	c.client.Close()
}

func (c *Client) bound(address common.Address, contractAbi abi.ABI) *bind.BoundContract {
	return bind.NewBoundContract(address, contractAbi, c.client, c.client, c.client)
}

// call runs a view method and returns its single output.
func (c *Client) call(ctx context.Context, address common.Address, contractAbi abi.ABI, method string, args ...interface{}) (interface{}, error) {
	var out []interface{}
	if err := c.bound(address, contractAbi).Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, types.RemoteError(method, err)
	}
	if len(out) == 0 {
		return nil, types.RemoteError(method, errors.New("no output"))
	}
	return out[0], nil
}

func (c *Client) transact(opts *bind.TransactOpts, address common.Address, contractAbi abi.ABI, method string, args ...interface{}) (*ethtypes.Transaction, error) {
	tx, err := c.bound(address, contractAbi).Transact(opts, method, args...)
	if err != nil {
		return nil, types.RemoteError(method, err)
	}
	c.logger.Info("Sent L1 transaction", "method", method, "to", address.Hex(), "hash", tx.Hash().Hex())
	return tx, nil
}

// Node is the plain transaction plumbing of the L1 node. TransactionReceipt
// returns ethereum.NotFound, unwrapped, until the transaction is included.
type Node interface {
	BlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
}

var _ Node = &Client{}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	num, err := c.client.BlockNumber(ctx)
	if err != nil {
		return 0, types.RemoteError("eth_blockNumber", err)
	}
	return num, nil
}

func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	header, err := c.client.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if errors.Is(err, ethereum.NotFound) {
		return 0, err
	}
	if err != nil {
		return 0, types.RemoteError("eth_getBlockByNumber", err)
	}
	return header.Time, nil
}

func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	nonce, err := c.client.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, types.RemoteError("eth_getTransactionCount", err)
	}
	return nonce, nil
}

func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	price, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, types.RemoteError("eth_gasPrice", err)
	}
	return price, nil
}

func (c *Client) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	tip, err := c.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, types.RemoteError("eth_maxPriorityFeePerGas", err)
	}
	return tip, nil
}

func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	gas, err := c.client.EstimateGas(ctx, msg)
	if err != nil {
		return 0, types.RemoteError("eth_estimateGas", err)
	}
	return gas, nil
}

func (c *Client) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	return types.RemoteError("eth_sendRawTransaction", c.client.SendTransaction(ctx, tx))
}

func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	receipt, err := c.client.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, err
	}
	if err != nil {
		return nil, types.RemoteError("eth_getTransactionReceipt", err)
	}
	return receipt, nil
}
