package zksync

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/lightlink-network/zk-bridge-api/types"
	"github.com/lightlink-network/zk-bridge-api/utils"
)

// Contracts reads L2 bridges and system contracts.
type Contracts interface {
	L2TokenAddress(ctx context.Context, l1Token common.Address) (common.Address, error)
	L1BridgeOf(ctx context.Context, l2Bridge common.Address) (common.Address, error)
	DeploymentNonce(ctx context.Context, account common.Address) (uint64, error)
}

var _ Contracts = &Client{}

// L2TokenAddress returns the L2 counterpart of l1Token on the default bridge. The
// native token maps to the L2 ETH token.
func (c *Client) L2TokenAddress(ctx context.Context, l1Token common.Address) (common.Address, error) {
	if types.IsETH(l1Token) {
		return utils.L2EthTokenAddress, nil
	}
	bridges, err := c.BridgeContracts(ctx)
	if err != nil {
		return common.Address{}, err
	}

	var out []interface{}
	bridge := c.bound(bridges.L2Erc20DefaultBridge, c.registry.L2Bridge)
	if err := bridge.Call(&bind.CallOpts{Context: ctx}, &out, "l2TokenAddress", l1Token); err != nil {
		return common.Address{}, types.RemoteError("l2TokenAddress", err)
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// L1BridgeOf returns the L1 bridge paired with l2Bridge.
func (c *Client) L1BridgeOf(ctx context.Context, l2Bridge common.Address) (common.Address, error) {
	var out []interface{}
	if err := c.bound(l2Bridge, c.registry.L2Bridge).Call(&bind.CallOpts{Context: ctx}, &out, "l1Bridge"); err != nil {
		return common.Address{}, types.RemoteError("l1Bridge", err)
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// DeploymentNonce returns the number of contracts account deployed with create.
func (c *Client) DeploymentNonce(ctx context.Context, account common.Address) (uint64, error) {
	var out []interface{}
	holder := c.bound(utils.NonceHolderAddress, c.registry.NonceHolder)
	if err := holder.Call(&bind.CallOpts{Context: ctx}, &out, "getDeploymentNonce", account); err != nil {
		return 0, types.RemoteError("getDeploymentNonce", err)
	}
	nonce, ok := out[0].(*big.Int)
	if !ok || !nonce.IsUint64() {
		return 0, types.RemoteError("getDeploymentNonce", fmt.Errorf("unexpected output %v", out[0]))
	}
	return nonce.Uint64(), nil
}
