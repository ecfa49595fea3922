package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/lightlink-network/zk-bridge-api/types"
)

// DepositRequest are the arguments of an L1 bridge deposit.
type DepositRequest struct {
	L2Receiver        common.Address
	L1Token           common.Address
	Amount            *big.Int
	L2GasLimit        *big.Int
	GasPerPubdataByte *big.Int
	RefundRecipient   common.Address
}

// ClaimFailedDepositRequest are the arguments of a failed deposit claim.
type ClaimFailedDepositRequest struct {
	DepositSender     common.Address
	L1Token           common.Address
	L2TxHash          common.Hash
	L2BatchNumber     *big.Int
	L2MessageIndex    *big.Int
	L2TxNumberInBatch uint16
	Proof             []common.Hash
}

// L1Bridge is an L1 ERC-20 bridge.
type L1Bridge interface {
	IsWithdrawalFinalized(ctx context.Context, bridge common.Address, l2BatchNumber, l2MessageIndex *big.Int) (bool, error)
	L2TokenAddress(ctx context.Context, bridge, l1Token common.Address) (common.Address, error)
	L2BridgeOf(ctx context.Context, bridge common.Address) (common.Address, error)
	Deposit(opts *bind.TransactOpts, bridge common.Address, req *DepositRequest) (*ethtypes.Transaction, error)
	FinalizeWithdrawal(opts *bind.TransactOpts, bridge common.Address, params *types.FinalizeWithdrawalParams) (*ethtypes.Transaction, error)
	ClaimFailedDeposit(opts *bind.TransactOpts, bridge common.Address, req *ClaimFailedDepositRequest) (*ethtypes.Transaction, error)
}

var _ L1Bridge = &Client{}

func (c *Client) IsWithdrawalFinalized(ctx context.Context, bridge common.Address, l2BatchNumber, l2MessageIndex *big.Int) (bool, error) {
	out, err := c.call(ctx, bridge, c.registry.L1Bridge, "isWithdrawalFinalized", l2BatchNumber, l2MessageIndex)
	if err != nil {
		return false, err
	}
	finalized, ok := out.(bool)
	if !ok {
		return false, types.RemoteError("isWithdrawalFinalized", fmt.Errorf("unexpected output %T", out))
	}
	return finalized, nil
}

// L2TokenAddress returns the L2 counterpart of l1Token. The mapping never changes
// once a token is bridged, so non-zero answers are cached.
func (c *Client) L2TokenAddress(ctx context.Context, bridge, l1Token common.Address) (common.Address, error) {
	key := tokenKey{bridge: bridge, token: l1Token}
	if addr, ok := c.l2Tokens.Get(key); ok {
		return addr, nil
	}

	out, err := c.call(ctx, bridge, c.registry.L1Bridge, "l2TokenAddress", l1Token)
	if err != nil {
		return common.Address{}, err
	}
	addr := *abi.ConvertType(out, new(common.Address)).(*common.Address)
	if addr != (common.Address{}) {
		c.l2Tokens.Add(key, addr)
	}
	return addr, nil
}

// L2BridgeOf returns the L2 counterpart of an L1 bridge.
func (c *Client) L2BridgeOf(ctx context.Context, bridge common.Address) (common.Address, error) {
	out, err := c.call(ctx, bridge, c.registry.L1Bridge, "l2Bridge")
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out, new(common.Address)).(*common.Address), nil
}

func (c *Client) Deposit(opts *bind.TransactOpts, bridge common.Address, req *DepositRequest) (*ethtypes.Transaction, error) {
	return c.transact(opts, bridge, c.registry.L1Bridge, "deposit",
		req.L2Receiver, req.L1Token, req.Amount, req.L2GasLimit, req.GasPerPubdataByte, req.RefundRecipient)
}

func (c *Client) FinalizeWithdrawal(opts *bind.TransactOpts, bridge common.Address, params *types.FinalizeWithdrawalParams) (*ethtypes.Transaction, error) {
	return c.transact(opts, bridge, c.registry.L1Bridge, "finalizeWithdrawal",
		params.L2BatchNumber, params.L2MessageIndex, params.L2TxNumberInBatch, params.Message, params.ProofArray())
}

func (c *Client) ClaimFailedDeposit(opts *bind.TransactOpts, bridge common.Address, req *ClaimFailedDepositRequest) (*ethtypes.Transaction, error) {
	proof := make([][32]byte, len(req.Proof))
	for i, h := range req.Proof {
		proof[i] = h
	}
	return c.transact(opts, bridge, c.registry.L1Bridge, "claimFailedDeposit",
		req.DepositSender, req.L1Token, [32]byte(req.L2TxHash), req.L2BatchNumber, req.L2MessageIndex, req.L2TxNumberInBatch, proof)
}
