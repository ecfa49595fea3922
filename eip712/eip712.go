// Package eip712 turns rollup transactions into the typed-data struct users sign.
//
// The signed struct differs from the wire envelope: factory dependencies are
// represented by their bytecode hashes and addresses are encoded as uint256.
package eip712

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/lightlink-network/zk-bridge-api/types"
	"github.com/lightlink-network/zk-bridge-api/utils"
)

const (
	DomainName    = "zkSync"
	DomainVersion = "2"

	// PrimaryType is the name of the signed struct.
	PrimaryType = "Transaction"
)

// domainTypes has no verifyingContract: the root domain of the network is not bound to a contract.
var domainTypes = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
}

var transactionTypes = []apitypes.Type{
	{Name: "txType", Type: "uint256"},
	{Name: "from", Type: "uint256"},
	{Name: "to", Type: "uint256"},
	{Name: "gasLimit", Type: "uint256"},
	{Name: "gasPerPubdataByteLimit", Type: "uint256"},
	{Name: "maxFeePerGas", Type: "uint256"},
	{Name: "maxPriorityFeePerGas", Type: "uint256"},
	{Name: "paymaster", Type: "uint256"},
	{Name: "nonce", Type: "uint256"},
	{Name: "value", Type: "uint256"},
	{Name: "data", Type: "bytes"},
	{Name: "factoryDeps", Type: "bytes32[]"},
	{Name: "paymasterInput", Type: "bytes"},
}

// Types returns the type set shared by every transaction typed-data document.
func Types() apitypes.Types {
	return apitypes.Types{
		"EIP712Domain": domainTypes,
		PrimaryType:    transactionTypes,
	}
}

// Domain returns the network domain for chainID.
func Domain(chainID *big.Int) apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:    DomainName,
		Version: DomainVersion,
		ChainId: (*math.HexOrDecimal256)(new(big.Int).Set(chainID)),
	}
}

// TypeString returns the encoded type of the signed struct.
func TypeString() string {
	td := apitypes.TypedData{Types: Types()}
	return string(td.EncodeType(PrimaryType))
}

// TypeHash returns keccak256 of TypeString.
func TypeHash() common.Hash {
	return crypto.Keccak256Hash([]byte(TypeString()))
}

// Message converts tx into the typed-data message. Field values use the
// representations apitypes expects: *big.Int for integers, []byte for bytes and
// a slice of hashes for the bytes32 array.
func Message(tx *types.Transaction712) (apitypes.TypedDataMessage, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	depHashes, err := utils.HashFactoryDeps(tx.FactoryDeps())
	if err != nil {
		return nil, err
	}
	deps := make([]interface{}, 0, len(depHashes))
	for _, h := range depHashes {
		deps = append(deps, hexutil.Bytes(h.Bytes()))
	}

	var (
		paymaster      common.Address
		paymasterInput = []byte{}
	)
	if pm := tx.Paymaster(); pm != nil {
		paymaster = pm.Paymaster
		if pm.PaymasterInput != nil {
			paymasterInput = pm.PaymasterInput
		}
	}

	data := []byte(tx.Data)
	if data == nil {
		data = []byte{}
	}

	return apitypes.TypedDataMessage{
		"txType":                 big.NewInt(types.EIP712TxType),
		"from":                   tx.From.Big(),
		"to":                     tx.To.Big(),
		"gasLimit":               new(big.Int).SetUint64(tx.Gas),
		"gasPerPubdataByteLimit": new(big.Int).Set(tx.GasPerPubdata()),
		"maxFeePerGas":           orZero(tx.GasFeeCap),
		"maxPriorityFeePerGas":   orZero(tx.GasTipCap),
		"paymaster":              paymaster.Big(),
		"nonce":                  new(big.Int).SetUint64(tx.Nonce),
		"value":                  orZero(tx.Value),
		"data":                   data,
		"factoryDeps":            deps,
		"paymasterInput":         paymasterInput,
	}, nil
}

// TypedData returns the complete typed-data document for tx.
func TypedData(tx *types.Transaction712) (apitypes.TypedData, error) {
	msg, err := Message(tx)
	if err != nil {
		return apitypes.TypedData{}, err
	}
	return apitypes.TypedData{
		Types:       Types(),
		PrimaryType: PrimaryType,
		Domain:      Domain(tx.ChainID),
		Message:     msg,
	}, nil
}

// DomainSeparator returns the hash of the domain for chainID.
func DomainSeparator(chainID *big.Int) (common.Hash, error) {
	td := apitypes.TypedData{Types: Types(), Domain: Domain(chainID)}
	sep, err := td.HashStruct("EIP712Domain", td.Domain.Map())
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash domain: %w", err)
	}
	return common.BytesToHash(sep), nil
}

// StructHash returns hashStruct of the transaction message.
func StructHash(tx *types.Transaction712) (common.Hash, error) {
	td, err := TypedData(tx)
	if err != nil {
		return common.Hash{}, err
	}
	h, err := td.HashStruct(PrimaryType, td.Message)
	if err != nil {
		return common.Hash{}, types.EncodingError("failed to hash transaction struct: %v", err)
	}
	return common.BytesToHash(h), nil
}

// Digest returns the 32-byte value a signer signs for tx:
// keccak256(0x19 0x01 || domainSeparator || structHash).
func Digest(tx *types.Transaction712) (common.Hash, error) {
	td, err := TypedData(tx)
	if err != nil {
		return common.Hash{}, err
	}
	digest, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return common.Hash{}, types.EncodingError("failed to hash typed data: %v", err)
	}
	return common.BytesToHash(digest), nil
}

func orZero(b *big.Int) *big.Int {
	if b == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(b)
}
