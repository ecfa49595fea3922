// Package zksync is the client of the rollup node. Besides the standard eth
// namespace it speaks the zks_* methods the bridge needs.
package zksync

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/lightlink-network/zk-bridge-api/contracts"
	"github.com/lightlink-network/zk-bridge-api/types"
)

type Client struct {
	client   *ethclient.Client
	rpc      *rpc.Client
	chainId  *big.Int
	registry *contracts.Registry
	logger   *slog.Logger
	Opts     *ClientOpts

	// session cache, filled on first successful fetch
	mu           sync.Mutex
	bridges      *types.BridgeContracts
	mainContract *common.Address
}

type ClientOpts struct {
	Endpoint string
	Registry *contracts.Registry
	Logger   *slog.Logger
	Timeout  time.Duration
}

// NewClient dials the rollup node at opts.Endpoint.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	rpcClient, err := rpc.DialContext(ctx, opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to zkSync: %w", err)
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

	opts.Logger.Info("Connected to zkSync", "chainId", chainId)

	return &Client{
		client:   client,
		rpc:      rpcClient,
		chainId:  chainId,
		registry: opts.Registry,
		logger:   opts.Logger.With("component", "zksync"),
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
	c.rpc.Close()
}

func (c *Client) bound(address common.Address, contractAbi abi.ABI) *bind.BoundContract {
	return bind.NewBoundContract(address, contractAbi, c.client, c.client, c.client)
}
