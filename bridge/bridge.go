// Package bridge drives transactions across the two chains: deposits from L1,
// withdrawals from L2 with their L1 finalization, and contract deployments.
//
// Nothing here retries a failed RPC call. The only loops are the receipt waits,
// which re-query while the node reports that a receipt does not exist yet.
package bridge

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lightlink-network/zk-bridge-api/contracts"
	"github.com/lightlink-network/zk-bridge-api/ethereum"
	"github.com/lightlink-network/zk-bridge-api/signer"
	"github.com/lightlink-network/zk-bridge-api/txbuilder"
	"github.com/lightlink-network/zk-bridge-api/types"
	"github.com/lightlink-network/zk-bridge-api/zksync"
)

// L1Client is what the coordinators need from the L1 node.
type L1Client interface {
	ChainID() *big.Int
	ethereum.Node
	ethereum.Mailbox
	ethereum.L1Bridge
	ethereum.ERC20
}

// L2Client is what the coordinators need from the rollup node.
type L2Client interface {
	ChainID() *big.Int
	zksync.Eth
	zksync.Zks
	zksync.Contracts
}

var (
	_ L1Client = &ethereum.Client{}
	_ L2Client = &zksync.Client{}
)

// sendL2 builds shape from s, estimates its fee, signs and submits it.
func sendL2(ctx context.Context, l2 L2Client, reg *contracts.Registry, s signer.Signer, shape txbuilder.Shape, paymaster *types.PaymasterParams) (common.Hash, error) {
	nonce, err := l2.PendingNonceAt(ctx, s.Address())
	if err != nil {
		return common.Hash{}, err
	}

	params := txbuilder.Params{
		ChainID:   l2.ChainID(),
		From:      s.Address(),
		Nonce:     nonce,
		Registry:  reg,
		Paymaster: paymaster,
	}
	draft, err := txbuilder.ToTypedTransaction(shape, params)
	if err != nil {
		return common.Hash{}, err
	}
	params.Fee, err = l2.EstimateFee(ctx, draft.CallMsg())
	if err != nil {
		return common.Hash{}, err
	}

	tx, err := txbuilder.ToTypedTransaction(shape, params)
	if err != nil {
		return common.Hash{}, err
	}
	raw, err := signer.SignTransaction(tx, s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return l2.SendRawTransaction(ctx, raw)
}
