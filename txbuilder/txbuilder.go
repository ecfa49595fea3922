// Package txbuilder converts transaction shapes into rollup transactions.
//
// Every shape goes through ToTypedTransaction, so there is a single place where
// the recipient, calldata and factory dependencies of a transaction are decided.
// Building never performs I/O: the fee and nonce are inputs.
package txbuilder

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/lightlink-network/zk-bridge-api/contracts"
	"github.com/lightlink-network/zk-bridge-api/types"
	"github.com/lightlink-network/zk-bridge-api/utils"
)

// Shape is one of Transfer, Call, CreateSequential, CreateSalted or Withdraw.
type Shape interface {
	shape()
}

// Transfer moves Amount of the native token, or of the ERC-20 Token, to To.
type Transfer struct {
	To     common.Address
	Amount *big.Int
	Token  common.Address // types.EthAddress for the native token
}

// Call invokes a contract.
type Call struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

// CreateSequential deploys Bytecode at the address derived from the deployment nonce.
type CreateSequential struct {
	Bytecode []byte
	Calldata []byte   // constructor input
	Deps     [][]byte // additional factory dependencies
}

// CreateSalted deploys Bytecode at the address derived from Salt.
type CreateSalted struct {
	Bytecode []byte
	Calldata []byte
	Salt     []byte // 32 bytes
	Deps     [][]byte
}

// Withdraw starts moving Amount of Token to To on L1. Token withdrawals go through
// the L2 Bridge.
type Withdraw struct {
	To     common.Address
	Amount *big.Int
	Token  common.Address
	Bridge common.Address
}

func (Transfer) shape()         {}
func (Call) shape()             {}
func (CreateSequential) shape() {}
func (CreateSalted) shape()     {}
func (Withdraw) shape()         {}

// Params are the fields shared by every shape.
type Params struct {
	ChainID *big.Int
	From    common.Address
	Nonce   uint64

	// Fee is the estimate supplied by the node. A nil Fee builds a transaction with
	// zero gas fields, suitable only for estimation.
	Fee *types.Fee

	Registry        *contracts.Registry
	FactoryDeps     [][]byte // appended to the shape's own dependencies
	Paymaster       *types.PaymasterParams
	CustomSignature []byte
}

// ToTypedTransaction builds the transaction for shape.
func ToTypedTransaction(shape Shape, p Params) (*types.Transaction712, error) {
	if p.Registry == nil {
		return nil, fmt.Errorf("failed to build transaction: no contract registry")
	}

	var (
		to    common.Address
		value = new(big.Int)
		data  []byte
		deps  [][]byte
		err   error
	)

	switch s := shape.(type) {
	case Transfer:
		if err := nonNegative("amount", s.Amount); err != nil {
			return nil, err
		}
		if types.IsETH(s.Token) {
			to, value = s.To, s.Amount
			break
		}
		to = s.Token
		data, err = p.Registry.ERC20.Pack("transfer", s.To, s.Amount)

	case Call:
		if s.Value != nil {
			if err := nonNegative("value", s.Value); err != nil {
				return nil, err
			}
			value = s.Value
		}
		to, data = s.To, s.Data

	case CreateSequential:
		var hash common.Hash
		if hash, err = utils.HashBytecode(s.Bytecode); err != nil {
			return nil, err
		}
		to = utils.ContractDeployerAddress
		data, err = p.Registry.ContractDeployer.Pack("create", common.Hash{}, hash, nonNil(s.Calldata))
		deps = append([][]byte{s.Bytecode}, s.Deps...)

	case CreateSalted:
		if len(s.Salt) != common.HashLength {
			return nil, types.EncodingError("salt must be 32 bytes, got %d", len(s.Salt))
		}
		var hash common.Hash
		if hash, err = utils.HashBytecode(s.Bytecode); err != nil {
			return nil, err
		}
		to = utils.ContractDeployerAddress
		data, err = p.Registry.ContractDeployer.Pack("create2", common.BytesToHash(s.Salt), hash, nonNil(s.Calldata))
		deps = append([][]byte{s.Bytecode}, s.Deps...)

	case Withdraw:
		if err := nonNegative("amount", s.Amount); err != nil {
			return nil, err
		}
		if types.IsETH(s.Token) {
			to, value = utils.L2EthTokenAddress, s.Amount
			data, err = p.Registry.EthToken.Pack("withdraw", s.To)
			break
		}
		if s.Bridge == (common.Address{}) {
			return nil, types.EncodingError("token withdrawal needs an L2 bridge address")
		}
		to = s.Bridge
		data, err = p.Registry.L2Bridge.Pack("withdraw", s.To, s.Token, s.Amount)

	default:
		return nil, types.EncodingError("unknown transaction shape %T", shape)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pack calldata: %w", err)
	}

	deps = append(deps, p.FactoryDeps...)
	meta := &types.Eip712Meta{
		GasPerPubdata:   big.NewInt(types.DefaultGasPerPubdataLimit),
		CustomSignature: common.CopyBytes(p.CustomSignature),
		PaymasterParams: p.Paymaster,
	}
	for _, d := range deps {
		meta.FactoryDeps = append(meta.FactoryDeps, hexutil.Bytes(common.CopyBytes(d)))
	}

	tx := &types.Transaction712{
		ChainID:   p.ChainID,
		Nonce:     p.Nonce,
		GasTipCap: new(big.Int),
		GasFeeCap: new(big.Int),
		From:      p.From,
		To:        to,
		Value:     new(big.Int).Set(value),
		Data:      data,
		Meta:      meta,
	}
	if f := p.Fee; f != nil {
		if f.GasLimit != nil {
			tx.Gas = f.GasLimit.ToInt().Uint64()
		}
		if f.MaxFeePerGas != nil {
			tx.GasFeeCap = new(big.Int).Set(f.MaxFeePerGas.ToInt())
		}
		if f.MaxPriorityFeePerGas != nil {
			tx.GasTipCap = new(big.Int).Set(f.MaxPriorityFeePerGas.ToInt())
		}
		if f.GasPerPubdataLimit != nil {
			meta.GasPerPubdata = new(big.Int).Set(f.GasPerPubdataLimit.ToInt())
		}
	}

	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

// ContractAddress returns the address a create shape deploys to when sent by sender
// with the given deployment nonce. The deployment nonce is only used by CreateSequential.
func ContractAddress(shape Shape, sender common.Address, deploymentNonce uint64) (common.Address, error) {
	switch s := shape.(type) {
	case CreateSequential:
		return utils.CreateAddress(sender, deploymentNonce), nil
	case CreateSalted:
		return utils.Create2Address(sender, s.Bytecode, s.Calldata, s.Salt)
	default:
		return common.Address{}, types.EncodingError("%T does not deploy a contract", shape)
	}
}

func nonNegative(name string, v *big.Int) error {
	if v == nil || v.Sign() < 0 {
		return types.EncodingError("%s must be a non-negative amount", name)
	}
	return nil
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
