package zksync

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/lightlink-network/zk-bridge-api/types"
	"github.com/lightlink-network/zk-bridge-api/utils"
)

// Zks is the rollup specific RPC namespace.
type Zks interface {
	MainContractAddress(ctx context.Context) (common.Address, error)
	BridgeContracts(ctx context.Context) (*types.BridgeContracts, error)
	EstimateFee(ctx context.Context, msg types.CallMsg) (*types.Fee, error)
	EstimateGasL1(ctx context.Context, msg types.CallMsg) (uint64, error)
	EstimateL1ToL2Execute(ctx context.Context, msg types.CallMsg) (uint64, error)
	L2ToL1LogProof(ctx context.Context, txHash common.Hash, logIndex int) (*types.LogProof, error)
	ConfirmedTokens(ctx context.Context, from uint32, limit uint8) ([]*types.Token, error)
}

var _ Zks = &Client{}

// MainContractAddress returns the address of the rollup contract on L1. It is
// fetched once per client.
func (c *Client) MainContractAddress(ctx context.Context) (common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mainContract != nil {
		return *c.mainContract, nil
	}

	var address common.Address
	if err := c.rpc.CallContext(ctx, &address, "zks_getMainContract"); err != nil {
		return common.Address{}, types.RemoteError("zks_getMainContract", err)
	}
	c.mainContract = &address
	return address, nil
}

// BridgeContracts returns the default bridges. They are fetched once per client
// and the returned value must not be modified.
func (c *Client) BridgeContracts(ctx context.Context) (*types.BridgeContracts, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bridges != nil {
		return c.bridges, nil
	}

	var bridges types.BridgeContracts
	if err := c.rpc.CallContext(ctx, &bridges, "zks_getBridgeContracts"); err != nil {
		return nil, types.RemoteError("zks_getBridgeContracts", err)
	}
	c.bridges = &bridges
	c.logger.Debug("fetched bridge contracts",
		"l1Erc20DefaultBridge", bridges.L1Erc20DefaultBridge.Hex(),
		"l2Erc20DefaultBridge", bridges.L2Erc20DefaultBridge.Hex())
	return c.bridges, nil
}

func (c *Client) EstimateFee(ctx context.Context, msg types.CallMsg) (*types.Fee, error) {
	var fee types.Fee
	if err := c.rpc.CallContext(ctx, &fee, "zks_estimateFee", msg); err != nil {
		return nil, types.RemoteError("zks_estimateFee", err)
	}
	return &fee, nil
}

// EstimateGasL1 estimates the L2 gas limit of a priority operation.
func (c *Client) EstimateGasL1(ctx context.Context, msg types.CallMsg) (uint64, error) {
	var gas hexutil.Uint64
	if err := c.rpc.CallContext(ctx, &gas, "zks_estimateGasL1ToL2", msg); err != nil {
		return 0, types.RemoteError("zks_estimateGasL1ToL2", err)
	}
	return uint64(gas), nil
}

// EstimateL1ToL2Execute estimates a priority operation calling msg.To. The gas per
// pubdata limit defaults to the one priority operations are required to carry.
func (c *Client) EstimateL1ToL2Execute(ctx context.Context, msg types.CallMsg) (uint64, error) {
	if msg.Meta == nil {
		msg.Meta = &types.Eip712Meta{}
	} else {
		meta := *msg.Meta
		msg.Meta = &meta
	}
	if msg.Meta.GasPerPubdata == nil {
		msg.Meta.GasPerPubdata = new(big.Int).Set(utils.RequiredL1ToL2GasPerPubdataLimit)
	}
	return c.EstimateGasL1(ctx, msg)
}

// L2ToL1LogProof returns the inclusion proof of the logIndex-th L2 -> L1 log of txHash.
// The node returns no proof until the batch containing the log is committed; that is
// reported as ErrProofUnavailable.
func (c *Client) L2ToL1LogProof(ctx context.Context, txHash common.Hash, logIndex int) (*types.LogProof, error) {
	var proof *types.LogProof
	if err := c.rpc.CallContext(ctx, &proof, "zks_getL2ToL1LogProof", txHash, logIndex); err != nil {
		return nil, types.RemoteError("zks_getL2ToL1LogProof", err)
	}
	if proof == nil {
		return nil, fmt.Errorf("%w: no proof for log %d of %s", types.ErrProofUnavailable, logIndex, txHash.Hex())
	}
	return proof, nil
}

func (c *Client) ConfirmedTokens(ctx context.Context, from uint32, limit uint8) ([]*types.Token, error) {
	var tokens []*types.Token
	if err := c.rpc.CallContext(ctx, &tokens, "zks_getConfirmedTokens", from, limit); err != nil {
		return nil, types.RemoteError("zks_getConfirmedTokens", err)
	}
	return tokens, nil
}
