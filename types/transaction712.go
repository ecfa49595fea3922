package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
)

const (
	// EIP712TxType is the envelope type byte of rollup transactions.
	EIP712TxType = 0x71

	// DefaultGasPerPubdataLimit is the gas per pubdata byte limit used when a transaction does not set one.
	DefaultGasPerPubdataLimit = 50_000
)

// PaymasterParams names a paymaster contract and the input its policy is called with.
type PaymasterParams struct {
	Paymaster      common.Address `json:"paymaster"`
	PaymasterInput hexutil.Bytes  `json:"paymasterInput"`
}

// Eip712Meta holds the rollup specific fields of a Transaction712.
type Eip712Meta struct {
	GasPerPubdata   *big.Int         `json:"gasPerPubdata,omitempty"`
	CustomSignature hexutil.Bytes    `json:"customSignature,omitempty"`
	FactoryDeps     []hexutil.Bytes  `json:"factoryDeps"`
	PaymasterParams *PaymasterParams `json:"paymasterParams,omitempty"`
}

// Transaction712 is the canonical in-memory representation of a rollup transaction.
// It is built once by a constructor and not mutated afterwards; use the With* methods
// to derive a modified copy.
type Transaction712 struct {
	ChainID   *big.Int       `json:"chainId"`
	Nonce     uint64         `json:"nonce"`
	GasTipCap *big.Int       `json:"maxPriorityFeePerGas"`
	GasFeeCap *big.Int       `json:"maxFeePerGas"`
	Gas       uint64         `json:"gas"`
	From      common.Address `json:"from"`
	To        common.Address `json:"to"`
	Value     *big.Int       `json:"value"`
	Data      hexutil.Bytes  `json:"data"`
	Meta      *Eip712Meta    `json:"eip712Meta"`
}

// GasPerPubdata returns the pubdata limit, falling back to DefaultGasPerPubdataLimit.
func (tx *Transaction712) GasPerPubdata() *big.Int {
	if tx.Meta != nil && tx.Meta.GasPerPubdata != nil {
		return tx.Meta.GasPerPubdata
	}
	return big.NewInt(DefaultGasPerPubdataLimit)
}

// FactoryDeps returns the raw bytecodes carried by the transaction.
func (tx *Transaction712) FactoryDeps() [][]byte {
	if tx.Meta == nil {
		return nil
	}
	deps := make([][]byte, len(tx.Meta.FactoryDeps))
	for i, d := range tx.Meta.FactoryDeps {
		deps[i] = d
	}
	return deps
}

// CustomSignature returns the smart-account signature, if any.
func (tx *Transaction712) CustomSignature() []byte {
	if tx.Meta == nil {
		return nil
	}
	return tx.Meta.CustomSignature
}

// Paymaster returns the paymaster parameters, if any.
func (tx *Transaction712) Paymaster() *PaymasterParams {
	if tx.Meta == nil {
		return nil
	}
	return tx.Meta.PaymasterParams
}

// Copy returns a deep copy of tx.
func (tx *Transaction712) Copy() *Transaction712 {
	cpy := *tx
	cpy.ChainID = copyBig(tx.ChainID)
	cpy.GasTipCap = copyBig(tx.GasTipCap)
	cpy.GasFeeCap = copyBig(tx.GasFeeCap)
	cpy.Value = copyBig(tx.Value)
	cpy.Data = common.CopyBytes(tx.Data)
	if tx.Meta != nil {
		meta := Eip712Meta{
			GasPerPubdata:   copyBig(tx.Meta.GasPerPubdata),
			CustomSignature: common.CopyBytes(tx.Meta.CustomSignature),
		}
		for _, d := range tx.Meta.FactoryDeps {
			meta.FactoryDeps = append(meta.FactoryDeps, common.CopyBytes(d))
		}
		if pm := tx.Meta.PaymasterParams; pm != nil {
			meta.PaymasterParams = &PaymasterParams{Paymaster: pm.Paymaster, PaymasterInput: common.CopyBytes(pm.PaymasterInput)}
		}
		cpy.Meta = &meta
	}
	return &cpy
}

// WithCustomSignature returns a copy of tx carrying sig as its custom signature.
func (tx *Transaction712) WithCustomSignature(sig []byte) *Transaction712 {
	cpy := tx.Copy()
	if cpy.Meta == nil {
		cpy.Meta = &Eip712Meta{}
	}
	cpy.Meta.CustomSignature = common.CopyBytes(sig)
	return cpy
}

// Validate checks the field shapes the encoders rely on.
func (tx *Transaction712) Validate() error {
	if tx.ChainID == nil || tx.ChainID.Sign() <= 0 {
		return EncodingError("chain id must be positive")
	}
	for name, v := range map[string]*big.Int{"value": tx.Value, "maxFeePerGas": tx.GasFeeCap, "maxPriorityFeePerGas": tx.GasTipCap} {
		if v != nil && v.Sign() < 0 {
			return EncodingError("%s must not be negative", name)
		}
	}
	if tx.GasTipCap != nil && tx.GasFeeCap != nil && tx.GasTipCap.Cmp(tx.GasFeeCap) > 0 {
		return EncodingError("maxPriorityFeePerGas %s exceeds maxFeePerGas %s", tx.GasTipCap, tx.GasFeeCap)
	}
	for i, d := range tx.FactoryDeps() {
		if len(d) == 0 {
			return EncodingError("factory dependency %d is empty", i)
		}
	}
	return nil
}

// txRLP mirrors the field order of the wire envelope.
type txRLP struct {
	Nonce                uint64
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	Gas                  uint64
	To                   common.Address
	Value                *big.Int
	Data                 []byte
	ChainID1             *big.Int
	// two reserved fields and the repeated chain id are part of the envelope as observed on the network
	Reserved1       string
	Reserved2       string
	ChainID2        *big.Int
	From            common.Address
	GasPerPubdata   *big.Int
	FactoryDeps     [][]byte
	Signature       []byte
	PaymasterParams *paymasterRLP `rlp:"nil"`
}

type paymasterRLP struct {
	Paymaster      common.Address
	PaymasterInput []byte
}

// Encode serializes tx into the network's binary envelope. Exactly one of sig and the
// transaction's custom signature must be present.
func (tx *Transaction712) Encode(sig []byte) ([]byte, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	custom := tx.CustomSignature()
	switch {
	case len(custom) > 0 && len(sig) > 0:
		return nil, EncodingError("transaction carries both a custom signature and a signature")
	case len(custom) == 0 && len(sig) == 0:
		return nil, EncodingError("transaction carries neither a custom signature nor a signature")
	case len(custom) > 0:
		sig = custom
	}

	enc := txRLP{
		Nonce:                tx.Nonce,
		MaxPriorityFeePerGas: bigOrZero(tx.GasTipCap),
		MaxFeePerGas:         bigOrZero(tx.GasFeeCap),
		Gas:                  tx.Gas,
		To:                   tx.To,
		Value:                bigOrZero(tx.Value),
		Data:                 tx.Data,
		ChainID1:             tx.ChainID,
		ChainID2:             tx.ChainID,
		From:                 tx.From,
		GasPerPubdata:        tx.GasPerPubdata(),
		FactoryDeps:          tx.FactoryDeps(),
		Signature:            sig,
	}
	if pm := tx.Paymaster(); pm != nil {
		enc.PaymasterParams = &paymasterRLP{Paymaster: pm.Paymaster, PaymasterInput: pm.PaymasterInput}
	}

	payload, err := rlp.EncodeToBytes(&enc)
	if err != nil {
		return nil, fmt.Errorf("failed to rlp encode transaction: %w", err)
	}
	return append([]byte{EIP712TxType}, payload...), nil
}

func bigOrZero(b *big.Int) *big.Int {
	if b == nil {
		return new(big.Int)
	}
	return b
}

func copyBig(b *big.Int) *big.Int {
	if b == nil {
		return nil
	}
	return new(big.Int).Set(b)
}
