package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/lightlink-network/zk-bridge-api/types"
)

// ERC20 reads and approves L1 tokens.
type ERC20 interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	TokenMetadata(ctx context.Context, token common.Address) (*types.Token, error)
	Approve(opts *bind.TransactOpts, token, spender common.Address, amount *big.Int) (*ethtypes.Transaction, error)
}

var _ ERC20 = &Client{}

func (c *Client) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	out, err := c.call(ctx, token, c.registry.ERC20, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	allowance, ok := out.(*big.Int)
	if !ok {
		return nil, types.RemoteError("allowance", fmt.Errorf("unexpected output %T", out))
	}
	return allowance, nil
}

// TokenMetadata reads name, symbol and decimals of token. The L2 address is left empty.
func (c *Client) TokenMetadata(ctx context.Context, token common.Address) (*types.Token, error) {
	name, err := c.call(ctx, token, c.registry.ERC20, "name")
	if err != nil {
		return nil, err
	}
	symbol, err := c.call(ctx, token, c.registry.ERC20, "symbol")
	if err != nil {
		return nil, err
	}
	decimals, err := c.call(ctx, token, c.registry.ERC20, "decimals")
	if err != nil {
		return nil, err
	}

	t := &types.Token{L1Address: token}
	var ok bool
	if t.Name, ok = name.(string); !ok {
		return nil, types.RemoteError("name", fmt.Errorf("unexpected output %T", name))
	}
	if t.Symbol, ok = symbol.(string); !ok {
		return nil, types.RemoteError("symbol", fmt.Errorf("unexpected output %T", symbol))
	}
	if t.Decimals, ok = decimals.(uint8); !ok {
		return nil, types.RemoteError("decimals", fmt.Errorf("unexpected output %T", decimals))
	}
	return t, nil
}

func (c *Client) Approve(opts *bind.TransactOpts, token, spender common.Address, amount *big.Int) (*ethtypes.Transaction, error) {
	return c.transact(opts, token, c.registry.ERC20, "approve", spender, amount)
}
